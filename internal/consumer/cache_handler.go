package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/genid/internal/domain"
)

// CacheInvalidationHandler drops the cached public profile of the user an event is about.
type CacheInvalidationHandler struct {
	cache domain.ProfileCache
}

// NewCacheInvalidationHandler builds a handler over cache.
func NewCacheInvalidationHandler(cache domain.ProfileCache) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache}
}

// Handle invalidates by the payload's user_id, falling back to the record key.
func (h *CacheInvalidationHandler) Handle(ctx context.Context, msg Message) error {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	userID := body.UserID
	if userID == "" {
		userID = msg.Key
	}
	if userID == "" {
		return nil
	}
	return h.cache.Invalidate(ctx, userID)
}
