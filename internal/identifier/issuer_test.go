package identifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"example.com/genid/internal/domain"
)

var publicCodePattern = regexp.MustCompile(`^[0-9A-Z]{12}$`)

func TestIssueUsesProcedureWhenValid(t *testing.T) {
	store := newStubStore()
	gen := &stubGenerator{shortID: "482913", publicCode: "PROC0CODE123"}
	issuer := NewIssuer(store, gen, DefaultMaxAttempts, WithLogger(quietLogger()))

	res, err := issuer.Issue(context.Background(), "user-1")
	require.NoError(t, err)
	require.False(t, res.UsedFallback)
	require.Equal(t, "482913", res.Identifier.ShortID)
	require.Equal(t, "PROC0CODE123", res.Identifier.PublicCode)
	require.Equal(t, "user-1", res.Identifier.UserID)
	require.NotEmpty(t, res.Identifier.ID)
	require.Zero(t, store.existsCalls)
}

func TestIssueFallsBackWhenProcedureFails(t *testing.T) {
	store := newStubStore()
	gen := &stubGenerator{shortIDErr: errors.New("function generate_short_id() does not exist"), publicCodeErr: errors.New("missing")}
	issuer := NewIssuer(store, gen, DefaultMaxAttempts, WithLogger(quietLogger()))

	res, err := issuer.Issue(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, res.UsedFallback)
	require.True(t, domain.ValidShortID(res.Identifier.ShortID))
	require.Regexp(t, publicCodePattern, res.Identifier.PublicCode)
	require.Equal(t, 1, store.existsCalls)
}

func TestIssueFallsBackOnMalformedProcedureValue(t *testing.T) {
	for _, bad := range []string{"", "12345", "1234567", "AB1234", " 12345"} {
		t.Run(fmt.Sprintf("%q", bad), func(t *testing.T) {
			store := newStubStore()
			issuer := NewIssuer(store, &stubGenerator{shortID: bad}, DefaultMaxAttempts, WithLogger(quietLogger()))

			res, err := issuer.Issue(context.Background(), "user-1")
			require.NoError(t, err)
			require.True(t, res.UsedFallback)
			require.NotEqual(t, bad, res.Identifier.ShortID)
			require.True(t, domain.ValidShortID(res.Identifier.ShortID))
		})
	}
}

func TestIssueRejectsSecondIdentifier(t *testing.T) {
	store := newStubStore()
	gen := &stubGenerator{shortID: "111111"}
	issuer := NewIssuer(store, gen, DefaultMaxAttempts, WithLogger(quietLogger()))

	_, err := issuer.Issue(context.Background(), "user-1")
	require.NoError(t, err)

	gen.shortID = "222222"
	_, err = issuer.Issue(context.Background(), "user-1")
	require.ErrorIs(t, err, domain.ErrIdentifierExists)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Equal(t, 2, store.insertCalls)
}

func TestIssueRetriesAfterInsertCollision(t *testing.T) {
	store := newStubStore()
	store.taken["654321"] = struct{}{}
	gen := &stubGenerator{shortID: "654321"}
	local := NewLocalSource(store, DefaultMaxAttempts, sequence(200000))
	issuer := NewIssuerWithSources(store, gen, NewDelegateSource(gen), local, WithLogger(quietLogger()))

	res, err := issuer.Issue(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, res.UsedFallback)
	require.Equal(t, "200000", res.Identifier.ShortID)
	require.Equal(t, 2, store.insertCalls)
}

func TestIssueStopsAfterRepeatedCollisions(t *testing.T) {
	store := newStubStore()
	store.insertErr = domain.ErrShortIDTaken
	issuer := NewIssuer(store, &stubGenerator{shortID: "777777"}, DefaultMaxAttempts,
		WithLogger(quietLogger()), WithMaxInsertAttempts(3))

	_, err := issuer.Issue(context.Background(), "user-1")
	require.ErrorIs(t, err, domain.ErrIdentifierExhausted)
	require.Equal(t, 3, store.insertCalls)
}

func TestIssueSharesDrawBudgetAcrossInsertRetries(t *testing.T) {
	store := newStubStore()
	store.takenFn = func(id string) bool { return id != "300000" }
	store.insertErr = domain.ErrShortIDTaken
	draws := sequence(100001, 100002, 100003, 100004, 100005, 100006, 100007, 100008, 100009, 300000)
	local := NewLocalSource(store, DefaultMaxAttempts, draws)
	issuer := NewIssuerWithSources(store, nil, nil, local, WithLogger(quietLogger()))

	_, err := issuer.Issue(context.Background(), "user-1")
	require.ErrorIs(t, err, domain.ErrIdentifierExhausted)
	require.Equal(t, DefaultMaxAttempts, store.existsCalls)
	require.Equal(t, 1, store.insertCalls)
}

func TestIssueInvalidatesCachedProfile(t *testing.T) {
	store := newStubStore()
	profiles := &countingCache{}
	issuer := NewIssuer(store, &stubGenerator{shortID: "482913"}, DefaultMaxAttempts,
		WithLogger(quietLogger()), WithProfileCache(profiles))

	_, err := issuer.Issue(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"user-1"}, profiles.invalidated)

	_, err = issuer.Issue(context.Background(), "user-1")
	require.ErrorIs(t, err, domain.ErrIdentifierExists)
	require.Len(t, profiles.invalidated, 1)
}

func TestIssuePropagatesStoreErrors(t *testing.T) {
	store := newStubStore()
	store.existsErr = errors.New("connection reset")
	issuer := NewIssuer(store, nil, DefaultMaxAttempts, WithLogger(quietLogger()))

	_, err := issuer.Issue(context.Background(), "user-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrIdentifierExhausted)
	require.Zero(t, store.insertCalls)
}

func TestLocalSourceExhaustsWithinBudget(t *testing.T) {
	store := newStubStore()
	store.takenFn = func(string) bool { return true }
	source := NewLocalSource(store, DefaultMaxAttempts, nil)

	_, err := source.NextShortID(context.Background())
	require.ErrorIs(t, err, domain.ErrIdentifierExhausted)
	require.Equal(t, DefaultMaxAttempts, store.existsCalls)
}

func TestIssueTerminatesAgainstNearlyFullStore(t *testing.T) {
	free := map[string]struct{}{"100007": {}, "345678": {}, "500000": {}, "612345": {}, "888888": {}, "999999": {}}
	store := newStubStore()
	store.takenFn = func(id string) bool {
		_, ok := free[id]
		return !ok
	}
	issuer := NewIssuer(store, nil, DefaultMaxAttempts, WithLogger(quietLogger()))

	issued := 0
	for n := 0; n < 1000; n++ {
		before := store.existsCalls
		res, err := issuer.Issue(context.Background(), fmt.Sprintf("user-%d", n))
		require.LessOrEqual(t, store.existsCalls-before, DefaultMaxAttempts)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrIdentifierExhausted)
			continue
		}
		require.True(t, res.UsedFallback)
		delete(free, res.Identifier.ShortID)
		issued++
	}
	require.LessOrEqual(t, issued, 6)
}

func TestLocalSourceRange(t *testing.T) {
	store := newStubStore()

	low := NewLocalSource(store, 1, func(int) int { return 0 })
	id, err := low.NextShortID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "100000", id)

	high := NewLocalSource(store, 1, func(n int) int { return n - 1 })
	id, err = high.NextShortID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "999999", id)
}

type stubStore struct {
	taken       map[string]struct{}
	takenFn     func(string) bool
	users       map[string]struct{}
	existsErr   error
	insertErr   error
	existsCalls int
	insertCalls int
}

func newStubStore() *stubStore {
	return &stubStore{taken: map[string]struct{}{}, users: map[string]struct{}{}}
}

func (s *stubStore) isTaken(id string) bool {
	if _, ok := s.taken[id]; ok {
		return true
	}
	return s.takenFn != nil && s.takenFn(id)
}

func (s *stubStore) ShortIDExists(_ context.Context, shortID string) (bool, error) {
	s.existsCalls++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.isTaken(shortID), nil
}

func (s *stubStore) InsertIdentifier(_ context.Context, identifier domain.Identifier) error {
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.users[identifier.UserID]; ok {
		return domain.ErrIdentifierExists
	}
	if s.isTaken(identifier.ShortID) {
		return domain.ErrShortIDTaken
	}
	s.users[identifier.UserID] = struct{}{}
	s.taken[identifier.ShortID] = struct{}{}
	return nil
}

type countingCache struct {
	invalidated []string
}

func (c *countingCache) GetProfile(context.Context, string) (*domain.PublicProfile, error) {
	return nil, nil
}

func (c *countingCache) PutProfile(context.Context, domain.PublicProfile) error { return nil }

func (c *countingCache) Invalidate(_ context.Context, userID string) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type stubGenerator struct {
	shortID       string
	shortIDErr    error
	publicCode    string
	publicCodeErr error
}

func (g *stubGenerator) GenerateShortID(context.Context) (string, error) {
	return g.shortID, g.shortIDErr
}

func (g *stubGenerator) GeneratePublicCode(context.Context) (string, error) {
	return g.publicCode, g.publicCodeErr
}

// sequence returns offsets that produce the given short ids in order.
func sequence(ids ...int) func(int) int {
	i := 0
	return func(int) int {
		v := ids[i%len(ids)] - MinShortID
		i++
		return v
	}
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
