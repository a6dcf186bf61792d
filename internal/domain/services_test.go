package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/genid/internal/cache"
	"example.com/genid/internal/domain"
	"example.com/genid/internal/persistence/memory"
	"example.com/genid/internal/scoring"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store       *memory.Store
	clock       *time.Time
	users       *domain.UserService
	activities  *domain.ActivityService
	profiles    *domain.ProfileService
	identifiers *domain.IdentifierService
}

func newFixture(t *testing.T, profileCache domain.ProfileCache) *fixture {
	t.Helper()
	if profileCache == nil {
		profileCache = cache.NoopProfileCache{}
	}
	store := memory.NewStore()
	now := testNow
	calendar := domain.Calendar{Location: time.UTC, Now: func() time.Time { return now }}
	return &fixture{
		store:       store,
		clock:       &now,
		users:       domain.NewUserService(store, profileCache, calendar),
		activities:  domain.NewActivityService(store, store, profileCache, calendar),
		profiles:    domain.NewProfileService(store, store, store, profileCache, calendar),
		identifiers: domain.NewIdentifierService(store, profileCache),
	}
}

func (f *fixture) setup(t *testing.T, id, username string) *domain.User {
	t.Helper()
	user, err := f.users.Setup(context.Background(), domain.SetupInput{
		UserID:      id,
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: "User " + username,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) logDay(t *testing.T, userID string, daysAgo, steps int) *domain.Activity {
	t.Helper()
	activity, err := f.activities.Log(context.Background(), domain.ActivityInput{
		UserID: userID,
		Date:   testNow.AddDate(0, 0, -daysAgo),
		Steps:  steps,
	})
	require.NoError(t, err)
	return activity
}

// recordingCache is an in-memory ProfileCache that counts invalidations.
type recordingCache struct {
	mu          sync.Mutex
	profiles    map[string]domain.PublicProfile
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{profiles: make(map[string]domain.PublicProfile)}
}

func (c *recordingCache) GetProfile(_ context.Context, userID string) (*domain.PublicProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *recordingCache) PutProfile(_ context.Context, profile domain.PublicProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[profile.UserID] = profile
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func TestUserServiceSetupNormalizesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	user, err := f.users.Setup(ctx, domain.SetupInput{UserID: "u1", Username: "  Alice_01 ", DisplayName: " Alice "})
	require.NoError(t, err)
	require.Equal(t, "alice_01", user.Username)
	require.Equal(t, "Alice", user.DisplayName)
	require.True(t, testNow.Equal(user.CreatedAt))

	_, err = f.users.Setup(ctx, domain.SetupInput{UserID: "u1", Username: "other", DisplayName: "Other"})
	require.ErrorIs(t, err, domain.ErrProfileExists)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.users.Setup(ctx, domain.SetupInput{UserID: "u2", Username: "ALICE_01", DisplayName: "Imposter"})
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestUserServiceSetupValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	cases := []struct {
		name  string
		input domain.SetupInput
		field string
	}{
		{"missing user", domain.SetupInput{Username: "alice", DisplayName: "Alice"}, "user_id"},
		{"short username", domain.SetupInput{UserID: "u1", Username: "al", DisplayName: "Alice"}, "username"},
		{"bad characters", domain.SetupInput{UserID: "u1", Username: "al-ice", DisplayName: "Alice"}, "username"},
		{"short display name", domain.SetupInput{UserID: "u1", Username: "alice", DisplayName: " A "}, "display_name"},
		{"bad email", domain.SetupInput{UserID: "u1", Username: "alice", DisplayName: "Alice", Email: "nope"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.users.Setup(ctx, tc.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.field, verr.Field)
		})
	}

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUserServiceUpdateProfileInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	f := newFixture(t, rc)
	f.setup(t, "u1", "alice")
	f.setup(t, "u2", "bob")

	name := "  Alice Cooper "
	updated, err := f.users.UpdateProfile(ctx, "u1", domain.ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	require.Equal(t, "Alice Cooper", updated.DisplayName)
	require.Equal(t, "alice", updated.Username)
	require.Equal(t, []string{"u1"}, rc.invalidated)

	taken := "BOB"
	_, err = f.users.UpdateProfile(ctx, "u1", domain.ProfileUpdate{Username: &taken})
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = f.users.UpdateProfile(ctx, "missing", domain.ProfileUpdate{DisplayName: &name})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	stored, err := f.users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Alice Cooper", stored.DisplayName)

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestActivityServiceLogAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setup(t, "u1", "alice")

	_, err := f.activities.Log(ctx, domain.ActivityInput{UserID: "ghost", Steps: 10})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	today, err := f.activities.Log(ctx, domain.ActivityInput{UserID: "u1", Steps: 7500})
	require.NoError(t, err)
	require.True(t, scoring.DayOf(testNow).Equal(today.Date))
	require.Equal(t, scoring.DailyScore(scoring.Counters{Steps: 7500}), today.Score())

	_, err = f.activities.Log(ctx, domain.ActivityInput{UserID: "u1", Steps: 1})
	require.ErrorIs(t, err, domain.ErrActivityExists)

	stored, err := f.store.GetActivityByDate(ctx, "u1", today.Date)
	require.NoError(t, err)
	require.Equal(t, 7500, stored.Counters.Steps)

	_, err = f.activities.Log(ctx, domain.ActivityInput{UserID: "u1", Date: testNow.AddDate(0, 0, 1), Steps: 1})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "activity_date", verr.Field)

	_, err = f.activities.Log(ctx, domain.ActivityInput{UserID: "u1", Date: testNow.AddDate(0, 0, -1), Pushups: -1})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "pushups", verr.Field)

	*f.clock = testNow.Add(time.Hour)
	updated, err := f.activities.Update(ctx, domain.ActivityInput{UserID: "u1", Pushups: 30})
	require.NoError(t, err)
	require.Equal(t, today.ID, updated.ID)
	require.Zero(t, updated.Counters.Steps)
	require.Equal(t, 30, updated.Counters.Pushups)
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = f.activities.Update(ctx, domain.ActivityInput{UserID: "u1", Date: testNow.AddDate(0, 0, -3), Steps: 5})
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestActivityServiceAdminEdits(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	f := newFixture(t, rc)
	f.setup(t, "u1", "alice")
	first := f.logDay(t, "u1", 0, 1000)
	second := f.logDay(t, "u1", 1, 2000)
	rc.invalidated = nil

	pushups := 20
	patched, err := f.activities.UpdateByID(ctx, second.ID, domain.ActivityPatch{Pushups: &pushups})
	require.NoError(t, err)
	require.Equal(t, 2000, patched.Counters.Steps)
	require.Equal(t, 20, patched.Counters.Pushups)
	require.Equal(t, []string{"u1"}, rc.invalidated)

	clash := first.Date
	_, err = f.activities.UpdateByID(ctx, second.ID, domain.ActivityPatch{Date: &clash})
	require.ErrorIs(t, err, domain.ErrActivityExists)

	future := testNow.AddDate(0, 0, 2)
	_, err = f.activities.UpdateByID(ctx, second.ID, domain.ActivityPatch{Date: &future})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	negative := -4
	_, err = f.activities.UpdateByID(ctx, second.ID, domain.ActivityPatch{Steps: &negative})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "steps", verr.Field)

	moved := testNow.AddDate(0, 0, -5)
	patched, err = f.activities.UpdateByID(ctx, second.ID, domain.ActivityPatch{Date: &moved})
	require.NoError(t, err)
	require.True(t, scoring.DayOf(moved).Equal(patched.Date))

	_, err = f.activities.UpdateByID(ctx, "missing", domain.ActivityPatch{Steps: &pushups})
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	require.NoError(t, f.activities.DeleteByID(ctx, first.ID))
	require.ErrorIs(t, f.activities.DeleteByID(ctx, first.ID), domain.ErrActivityNotFound)

	remaining, err := f.activities.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, second.ID, remaining[0].ID)
}

func TestActivityServiceListRecentPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setup(t, "u1", "alice")
	f.setup(t, "u2", "bob")
	for i := 0; i < 3; i++ {
		*f.clock = testNow.Add(time.Duration(i) * time.Minute)
		f.logDay(t, "u1", i, 100)
		*f.clock = testNow.Add(time.Duration(i)*time.Minute + time.Second)
		f.logDay(t, "u2", i, 200)
	}

	page, next, err := f.activities.ListRecent(ctx, nil, 4)
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.NotNil(t, next)
	require.Equal(t, "bob", page[0].Username)

	rest, next, err := f.activities.ListRecent(ctx, next, 4)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Nil(t, next)

	all, _, err := f.activities.ListRecent(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 6)
}

func TestActivityServicePreviewClamps(t *testing.T) {
	f := newFixture(t, nil)
	capped := f.activities.Preview(scoring.Counters{Steps: 1_000_000, Pushups: 1_000, WorkoutMinutes: 10_000})
	require.Equal(t, scoring.MaxDailyScore, capped.Total)

	negative := f.activities.Preview(scoring.Counters{Steps: -10, Pushups: -1, WorkoutMinutes: -5})
	require.Zero(t, negative.Total)
}

func TestProfileServiceDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setup(t, "u1", "alice")
	f.logDay(t, "u1", 0, 12000)
	f.logDay(t, "u1", 1, 12000)
	f.logDay(t, "u1", 2, 12000)

	dash, err := f.profiles.Dashboard(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", dash.User.Username)
	require.Nil(t, dash.Identifier)
	require.False(t, dash.NeedsRegeneration)
	require.Len(t, dash.Activities, 3)
	require.Equal(t, 3, dash.Stats.CurrentStreak)
	daily := scoring.DailyScore(scoring.Counters{Steps: 12000})
	require.Equal(t, daily, dash.Stats.TodayScore)
	require.Equal(t, 3*daily+scoring.StreakBonus(3), dash.Stats.TotalCredit)
	require.Equal(t, scoring.Badges(dash.Stats.TotalCredit, 3), dash.Badges)

	_, err = f.profiles.Dashboard(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProfileServiceFlagsLegacyIdentifiers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setup(t, "u1", "alice")
	require.NoError(t, f.store.InsertIdentifier(ctx, domain.Identifier{
		ID: "g1", UserID: "u1", ShortID: "ABC12", PublicCode: "legacy", CreatedAt: testNow,
	}))

	dash, err := f.profiles.Dashboard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, dash.Identifier)
	require.True(t, dash.NeedsRegeneration)

	profile, err := f.profiles.PublicProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "INVALID", profile.ShortID)
}

func TestProfileServicePublicProfileCaching(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	f := newFixture(t, rc)
	f.setup(t, "u1", "alice")
	require.NoError(t, f.store.InsertIdentifier(ctx, domain.Identifier{
		ID: "g1", UserID: "u1", ShortID: "123456", PublicCode: "code", CreatedAt: testNow,
	}))

	profile, err := f.profiles.PublicProfile(ctx, "  ALICE ")
	require.NoError(t, err)
	require.Equal(t, "#123456", profile.ShortID)
	require.True(t, scoring.DayOf(testNow).Equal(profile.AsOf))
	require.Contains(t, rc.profiles, "u1")

	// A stale entry for the same day is served as is.
	stale := rc.profiles["u1"]
	stale.DisplayName = "Cached Alice"
	rc.profiles["u1"] = stale
	profile, err = f.profiles.PublicProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Cached Alice", profile.DisplayName)

	// The next day the entry no longer matches and the profile is rebuilt.
	*f.clock = testNow.AddDate(0, 0, 1)
	profile, err = f.profiles.PublicProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "User alice", profile.DisplayName)
	require.True(t, scoring.DayOf(*f.clock).Equal(profile.AsOf))

	// Logging an activity drops the cached copy.
	f.logDay(t, "u1", -1, 5000)
	require.NotContains(t, rc.profiles, "u1")

	_, err = f.profiles.PublicProfile(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentifierServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	f := newFixture(t, rc)
	f.setup(t, "u1", "alice")

	_, err := f.identifiers.ForUser(ctx, "u1")
	require.ErrorIs(t, err, domain.ErrIdentifierNotFound)

	require.NoError(t, f.store.InsertIdentifier(ctx, domain.Identifier{
		ID: "g1", UserID: "u1", ShortID: "654321", PublicCode: "code", CreatedAt: testNow,
	}))

	got, err := f.identifiers.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "654321", got.ShortID)

	listed, err := f.identifiers.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "alice", listed[0].Username)

	removed, err := f.identifiers.Delete(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "u1", removed.UserID)
	require.Equal(t, []string{"u1"}, rc.invalidated)

	_, err = f.identifiers.Delete(ctx, "g1")
	require.ErrorIs(t, err, domain.ErrIdentifierNotFound)
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	boom := errors.New("boom")
	f.store.Fail["GetUser"] = boom

	_, err := f.users.Setup(ctx, domain.SetupInput{UserID: "u1", Username: "alice", DisplayName: "Alice"})
	require.ErrorIs(t, err, boom)
	_, err = f.profiles.Dashboard(ctx, "u1")
	require.ErrorIs(t, err, boom)
}
