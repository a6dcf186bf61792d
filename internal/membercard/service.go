// Package membercard backs the partner-site integration: member registration with a
// card link, and a health-data drop box that keeps only an encoded payload and its hash.
package membercard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/genid/internal/domain"
)

const (
	minMemberID       = 10000
	maxMemberID       = 99999
	maxMemberAttempts = 5
)

// Member is a partner-site registration.
type Member struct {
	ID        string
	Name      string
	Email     string
	IssueDate time.Time
	CreatedAt time.Time
}

// CardURL is the relative link to the member's card.
func (m Member) CardURL() string {
	return "/card/" + m.ID
}

// HealthRecord is the latest health payload stored for a member.
type HealthRecord struct {
	MemberID    string
	EncodedData string
	DataHash    string
	RecordedAt  time.Time
}

// Repository persists members and health records. CreateMember returns
// domain.ErrMemberIDTaken when the id is in use; lookups return (nil, nil) when absent.
type Repository interface {
	CreateMember(ctx context.Context, member Member) error
	GetMember(ctx context.Context, id string) (*Member, error)
	PutHealthRecord(ctx context.Context, record HealthRecord) error
	GetHealthRecord(ctx context.Context, memberID string) (*HealthRecord, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service registers members and stores health data.
type Service struct {
	repo   Repository
	logger logrus.FieldLogger
	now    func() time.Time
	intN   func(int) int
}

// NewService constructs a Service.
func NewService(repo Repository, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{repo: repo, logger: logger, now: time.Now, intN: rand.IntN}
}

// Register creates a member with a random five digit id.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Member, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" {
		return nil, &domain.ValidationError{Reason: "missing required fields"}
	}

	now := s.now().UTC()
	member := Member{
		Name:      name,
		Email:     email,
		IssueDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt: now,
	}
	for attempt := 0; attempt < maxMemberAttempts; attempt++ {
		member.ID = fmt.Sprint(minMemberID + s.intN(maxMemberID-minMemberID+1))
		err := s.repo.CreateMember(ctx, member)
		if err == nil {
			s.logger.WithField("member_id", member.ID).Info("member registered")
			return &member, nil
		}
		if !errors.Is(err, domain.ErrMemberIDTaken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("register member: %w", domain.ErrMemberIDTaken)
}

// StoreHealthData encodes and hashes the payload and replaces any previous record.
func (s *Service) StoreHealthData(ctx context.Context, memberID string, data json.RawMessage) (*HealthRecord, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" || len(data) == 0 || string(data) == "null" {
		return nil, &domain.ValidationError{Reason: "missing required fields"}
	}

	canonical, err := compact(data)
	if err != nil {
		return nil, &domain.ValidationError{Field: "health_data", Reason: "must be valid JSON"}
	}

	record := HealthRecord{
		MemberID:    memberID,
		EncodedData: Encode(canonical),
		DataHash:    Hash(canonical),
		RecordedAt:  s.now().UTC(),
	}
	if err := s.repo.PutHealthRecord(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// HealthData returns the stored record for a member.
func (s *Service) HealthData(ctx context.Context, memberID string) (*HealthRecord, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, &domain.ValidationError{Field: "member_id", Reason: "is required"}
	}
	record, err := s.repo.GetHealthRecord(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrMemberNotFound
	}
	return record, nil
}

// Encode is the reversible placeholder for payload encryption.
func Encode(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// Hash is a 32-bit rolling string hash (h = h*31 + c over UTF-16 code units)
// rendered as eight hex digits.
func Hash(payload []byte) string {
	var h int32
	for _, r := range string(payload) {
		for _, unit := range utf16Units(r) {
			h = h<<5 - h + int32(unit)
		}
	}
	return fmt.Sprintf("%08x", uint32(h))
}

func utf16Units(r rune) []uint16 {
	if r < 0x10000 {
		return []uint16{uint16(r)}
	}
	r -= 0x10000
	return []uint16{uint16(0xD800 + (r >> 10)), uint16(0xDC00 + (r & 0x3FF))}
}

func compact(data json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
