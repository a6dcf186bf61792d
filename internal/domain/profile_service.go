package domain

import (
	"context"
	"strings"
	"time"

	"example.com/genid/internal/observability"
	"example.com/genid/internal/scoring"
)

// PublicProfile is what /g/{username} shows. AsOf pins the day the stats were computed for.
type PublicProfile struct {
	UserID      string          `json:"user_id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	ShortID     string          `json:"short_id,omitempty"`
	MemberSince time.Time       `json:"member_since"`
	Stats       scoring.Stats   `json:"stats"`
	Badges      []scoring.Badge `json:"badges"`
	AsOf        time.Time       `json:"as_of"`
}

// Dashboard is the signed-in user's home view.
type Dashboard struct {
	User              User
	Identifier        *Identifier
	NeedsRegeneration bool
	Activities        []Activity
	Stats             scoring.Stats
	Badges            []scoring.Badge
}

// ProfileService assembles read views over users, activities and identifiers.
type ProfileService struct {
	users       UserRepository
	activities  ActivityRepository
	identifiers IdentifierRepository
	cache       ProfileCache
	calendar    Calendar
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users UserRepository, activities ActivityRepository, identifiers IdentifierRepository, cache ProfileCache, calendar Calendar) *ProfileService {
	return &ProfileService{
		users:       users,
		activities:  activities,
		identifiers: identifiers,
		cache:       cache,
		calendar:    calendar,
	}
}

// Dashboard loads everything the owner sees after signing in.
func (s *ProfileService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	identifier, err := s.identifiers.GetIdentifierByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities.ListActivitiesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := scoring.Summarize(Entries(activities), s.calendar.Today())
	return &Dashboard{
		User:              *user,
		Identifier:        identifier,
		NeedsRegeneration: identifier != nil && identifier.IsLegacy(),
		Activities:        activities,
		Stats:             stats,
		Badges:            scoring.Badges(stats.TotalCredit, stats.CurrentStreak),
	}, nil
}

// PublicProfile renders the shareable card for a username.
func (s *ProfileService) PublicProfile(ctx context.Context, username string) (*PublicProfile, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	today := s.calendar.Today()
	if cached := s.cached(ctx, user.ID, today); cached != nil {
		return cached, nil
	}

	identifier, err := s.identifiers.GetIdentifierByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities.ListActivitiesByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats := scoring.Summarize(Entries(activities), today)
	profile := PublicProfile{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		MemberSince: user.CreatedAt,
		Stats:       stats,
		Badges:      scoring.Badges(stats.TotalCredit, stats.CurrentStreak),
		AsOf:        today,
	}
	if identifier != nil {
		profile.ShortID = identifier.DisplayShortID()
	}

	if s.cache != nil {
		if err := s.cache.PutProfile(ctx, profile); err != nil {
			observability.RecordProfileCacheError("put")
		}
	}
	return &profile, nil
}

func (s *ProfileService) cached(ctx context.Context, userID string, today time.Time) *PublicProfile {
	if s.cache == nil {
		return nil
	}
	profile, err := s.cache.GetProfile(ctx, userID)
	if err != nil {
		observability.RecordProfileCacheError("get")
		return nil
	}
	if profile == nil || !profile.AsOf.Equal(today) {
		return nil
	}
	return profile
}
