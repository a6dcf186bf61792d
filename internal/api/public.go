package api

import (
	"encoding/json"
	"net/http"

	"example.com/genid/internal/membercard"
	"example.com/genid/internal/scoring"
)

func (h *Handler) previewScore(w http.ResponseWriter, r *http.Request) {
	var counters scoring.Counters
	if !decodeJSON(w, r, &counters) {
		return
	}
	writeJSON(w, http.StatusOK, h.activities.Preview(counters))
}

func (h *Handler) publicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.PublicProfile(r.Context(), r.PathValue("username"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) registerMember(w http.ResponseWriter, r *http.Request) {
	var req membercard.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	member, err := h.members.Register(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MemberView{
		Success:   true,
		MemberID:  member.ID,
		CardURL:   member.CardURL(),
		IssueDate: member.IssueDate.Format(dateLayout),
	})
}

// StoreHealthDataRequest is the payload for POST /v1/health-data.
type StoreHealthDataRequest struct {
	MemberID   string          `json:"member_id"`
	HealthData json.RawMessage `json:"health_data"`
}

func (h *Handler) storeHealthData(w http.ResponseWriter, r *http.Request) {
	var req StoreHealthDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	record, err := h.members.StoreHealthData(r.Context(), req.MemberID, req.HealthData)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HealthDataView{
		Success:   true,
		MemberID:  record.MemberID,
		DataHash:  record.DataHash,
		Timestamp: record.RecordedAt,
	})
}

func (h *Handler) getHealthData(w http.ResponseWriter, r *http.Request) {
	record, err := h.members.HealthData(r.Context(), r.URL.Query().Get("member_id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HealthDataView{
		Success:   true,
		MemberID:  record.MemberID,
		DataHash:  record.DataHash,
		Timestamp: record.RecordedAt,
		HasData:   true,
	})
}
