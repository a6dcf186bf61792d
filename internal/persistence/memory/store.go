// Package memory provides an in-process store used by tests and local development.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/membercard"
)

// ErrProceduresUnavailable is returned by the id procedures; the in-memory store has none.
var ErrProceduresUnavailable = errors.New("memory store has no id procedures")

// Store keeps every table in maps guarded by one RWMutex and enforces the same
// uniqueness rules as the relational schema.
type Store struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	activities    map[string]domain.Activity
	identifiers   map[string]domain.Identifier // keyed by user id
	members       map[string]membercard.Member
	healthRecords map[string]membercard.HealthRecord

	// Fail injects an error for the named operation, for tests.
	Fail map[string]error
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users:         make(map[string]domain.User),
		activities:    make(map[string]domain.Activity),
		identifiers:   make(map[string]domain.Identifier),
		members:       make(map[string]membercard.Member),
		healthRecords: make(map[string]membercard.HealthRecord),
		Fail:          make(map[string]error),
	}
}

func (s *Store) failure(op string) error {
	return s.Fail[op]
}

// CreateUser implements domain.UserRepository.
func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateUser"); err != nil {
		return err
	}
	if _, ok := s.users[user.ID]; ok {
		return domain.ErrProfileExists
	}
	if s.usernameTaken(user.Username, user.ID) {
		return domain.ErrUsernameTaken
	}
	s.users[user.ID] = user
	return nil
}

// GetUser implements domain.UserRepository.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("GetUser"); err != nil {
		return nil, err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetUserByUsername implements domain.UserRepository.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// UpdateUser implements domain.UserRepository.
func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if s.usernameTaken(user.Username, user.ID) {
		return domain.ErrUsernameTaken
	}
	s.users[user.ID] = user
	return nil
}

// ListUsers implements domain.UserRepository, newest first.
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) usernameTaken(username, ownerID string) bool {
	for id, user := range s.users {
		if id != ownerID && strings.EqualFold(user.Username, username) {
			return true
		}
	}
	return false
}

// CreateActivity implements domain.ActivityRepository.
func (s *Store) CreateActivity(_ context.Context, activity domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateActivity"); err != nil {
		return err
	}
	if s.activityOnDate(activity, "") {
		return domain.ErrActivityExists
	}
	s.activities[activity.ID] = activity
	return nil
}

// UpdateActivity implements domain.ActivityRepository.
func (s *Store) UpdateActivity(_ context.Context, activity domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[activity.ID]; !ok {
		return domain.ErrActivityNotFound
	}
	if s.activityOnDate(activity, activity.ID) {
		return domain.ErrActivityExists
	}
	s.activities[activity.ID] = activity
	return nil
}

func (s *Store) activityOnDate(activity domain.Activity, exceptID string) bool {
	for id, existing := range s.activities {
		if id != exceptID && existing.UserID == activity.UserID && existing.Date.Equal(activity.Date) {
			return true
		}
	}
	return false
}

// GetActivity implements domain.ActivityRepository.
func (s *Store) GetActivity(_ context.Context, id string) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// GetActivityByDate implements domain.ActivityRepository.
func (s *Store) GetActivityByDate(_ context.Context, userID string, date time.Time) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, activity := range s.activities {
		if activity.UserID == userID && activity.Date.Equal(date) {
			a := activity
			return &a, nil
		}
	}
	return nil, nil
}

// ListActivitiesByUser implements domain.ActivityRepository, most recent date first.
func (s *Store) ListActivitiesByUser(_ context.Context, userID string) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("ListActivitiesByUser"); err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0)
	for _, activity := range s.activities {
		if activity.UserID == userID {
			out = append(out, activity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ListRecentActivities implements domain.ActivityRepository ordered by (created_at, id) descending.
func (s *Store) ListRecentActivities(_ context.Context, cursor *domain.Cursor, limit int) ([]domain.ActivityWithOwner, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Activity, 0, len(s.activities))
	for _, activity := range s.activities {
		all = append(all, activity)
	}
	sort.Slice(all, func(i, j int) bool { return newer(all[i], all[j]) })

	out := make([]domain.ActivityWithOwner, 0, limit)
	for _, activity := range all {
		if cursor != nil && !olderThanCursor(activity, *cursor) {
			continue
		}
		owner := s.users[activity.UserID]
		out = append(out, domain.ActivityWithOwner{Activity: activity, Username: owner.Username, DisplayName: owner.DisplayName})
		if len(out) > limit {
			break
		}
	}

	var next *domain.Cursor
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return out, next, nil
}

func newer(a, b domain.Activity) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func olderThanCursor(a domain.Activity, c domain.Cursor) bool {
	if a.CreatedAt.Equal(c.CreatedAt) {
		return a.ID < c.ID
	}
	return a.CreatedAt.Before(c.CreatedAt)
}

// DeleteActivity implements domain.ActivityRepository.
func (s *Store) DeleteActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return domain.ErrActivityNotFound
	}
	delete(s.activities, id)
	return nil
}

// GetIdentifierByUser implements domain.IdentifierRepository.
func (s *Store) GetIdentifierByUser(_ context.Context, userID string) (*domain.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identifier, ok := s.identifiers[userID]
	if !ok {
		return nil, nil
	}
	return &identifier, nil
}

// ListIdentifiers implements domain.IdentifierRepository, newest first.
func (s *Store) ListIdentifiers(_ context.Context) ([]domain.IdentifierWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IdentifierWithOwner, 0, len(s.identifiers))
	for _, identifier := range s.identifiers {
		owner := s.users[identifier.UserID]
		out = append(out, domain.IdentifierWithOwner{
			Identifier:  identifier,
			Username:    owner.Username,
			DisplayName: owner.DisplayName,
			Email:       owner.Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteIdentifier implements domain.IdentifierRepository.
func (s *Store) DeleteIdentifier(_ context.Context, id string) (*domain.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, identifier := range s.identifiers {
		if identifier.ID == id {
			delete(s.identifiers, userID)
			return &identifier, nil
		}
	}
	return nil, domain.ErrIdentifierNotFound
}

// ShortIDExists implements identifier.Store.
func (s *Store) ShortIDExists(_ context.Context, shortID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("ShortIDExists"); err != nil {
		return false, err
	}
	for _, identifier := range s.identifiers {
		if identifier.ShortID == shortID {
			return true, nil
		}
	}
	return false, nil
}

// InsertIdentifier implements identifier.Store.
func (s *Store) InsertIdentifier(_ context.Context, identifier domain.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identifiers[identifier.UserID]; ok {
		return domain.ErrIdentifierExists
	}
	for _, existing := range s.identifiers {
		if existing.ShortID == identifier.ShortID {
			return domain.ErrShortIDTaken
		}
	}
	s.identifiers[identifier.UserID] = identifier
	return nil
}

// GenerateShortID implements identifier.Generator and always fails, forcing local generation.
func (s *Store) GenerateShortID(context.Context) (string, error) {
	return "", ErrProceduresUnavailable
}

// GeneratePublicCode implements identifier.Generator and always fails.
func (s *Store) GeneratePublicCode(context.Context) (string, error) {
	return "", ErrProceduresUnavailable
}

// DeleteActivitiesByUser implements eradication.Store.
func (s *Store) DeleteActivitiesByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteActivitiesByUser"); err != nil {
		return 0, err
	}
	n := 0
	for id, activity := range s.activities {
		if activity.UserID == userID {
			delete(s.activities, id)
			n++
		}
	}
	return n, nil
}

// DeleteIdentifierByUser implements eradication.Store.
func (s *Store) DeleteIdentifierByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteIdentifierByUser"); err != nil {
		return 0, err
	}
	if _, ok := s.identifiers[userID]; !ok {
		return 0, nil
	}
	delete(s.identifiers, userID)
	return 1, nil
}

// DeleteUser implements eradication.Store.
func (s *Store) DeleteUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteUser"); err != nil {
		return 0, err
	}
	if _, ok := s.users[userID]; !ok {
		return 0, nil
	}
	delete(s.users, userID)
	return 1, nil
}

// CountActivitiesByUser implements eradication.Store.
func (s *Store) CountActivitiesByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, activity := range s.activities {
		if activity.UserID == userID {
			n++
		}
	}
	return n, nil
}

// CountIdentifiersByUser implements eradication.Store.
func (s *Store) CountIdentifiersByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.identifiers[userID]; ok {
		return 1, nil
	}
	return 0, nil
}

// CreateMember implements membercard.Repository.
func (s *Store) CreateMember(_ context.Context, member membercard.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member.ID]; ok {
		return domain.ErrMemberIDTaken
	}
	s.members[member.ID] = member
	return nil
}

// GetMember implements membercard.Repository.
func (s *Store) GetMember(_ context.Context, id string) (*membercard.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	return &member, nil
}

// PutHealthRecord implements membercard.Repository.
func (s *Store) PutHealthRecord(_ context.Context, record membercard.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthRecords[record.MemberID] = record
	return nil
}

// GetHealthRecord implements membercard.Repository.
func (s *Store) GetHealthRecord(_ context.Context, memberID string) (*membercard.HealthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.healthRecords[memberID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}
