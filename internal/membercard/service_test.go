package membercard_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/membercard"
	"example.com/genid/internal/persistence/memory"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestHashMatchesRollingStringHash(t *testing.T) {
	cases := map[string]string{
		"":        "00000000",
		"a":       "00000061",
		"abc":     "00017862",
		"hello":   "05e918d2",
		`{"a":1}`: "aa0a79fe",
	}
	for input, want := range cases {
		require.Equal(t, want, membercard.Hash([]byte(input)), input)
	}
}

func TestEncodeDecode(t *testing.T) {
	payload := []byte(`{"heart_rate":72}`)
	encoded := membercard.Encode(payload)
	require.Equal(t, "eyJoZWFydF9yYXRlIjo3Mn0=", encoded)

	decoded, err := membercard.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestRegister(t *testing.T) {
	svc := membercard.NewService(memory.NewStore(), quietLogger())

	member, err := svc.Register(context.Background(), membercard.RegisterInput{Name: " Dana ", Email: "dana@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Dana", member.Name)
	require.Len(t, member.ID, 5)
	require.Equal(t, "/card/"+member.ID, member.CardURL())

	_, err = svc.Register(context.Background(), membercard.RegisterInput{Name: "Dana"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
}

type takenRepo struct {
	*memory.Store
	attempts int
}

func (r *takenRepo) CreateMember(context.Context, membercard.Member) error {
	r.attempts++
	return domain.ErrMemberIDTaken
}

func TestRegisterGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := &takenRepo{Store: memory.NewStore()}
	svc := membercard.NewService(repo, quietLogger())

	_, err := svc.Register(context.Background(), membercard.RegisterInput{Name: "Eve", Email: "eve@example.com"})
	require.ErrorIs(t, err, domain.ErrMemberIDTaken)
	require.Equal(t, 5, repo.attempts)
}

func TestHealthData(t *testing.T) {
	svc := membercard.NewService(memory.NewStore(), quietLogger())
	ctx := context.Background()

	_, err := svc.HealthData(ctx, "12345")
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	record, err := svc.StoreHealthData(ctx, "12345", json.RawMessage(`{ "a" : 1 }`))
	require.NoError(t, err)
	require.Equal(t, membercard.Encode([]byte(`{"a":1}`)), record.EncodedData)
	require.Equal(t, membercard.Hash([]byte(`{"a":1}`)), record.DataHash)

	stored, err := svc.HealthData(ctx, "12345")
	require.NoError(t, err)
	require.Equal(t, record.DataHash, stored.DataHash)

	_, err = svc.StoreHealthData(ctx, "12345", json.RawMessage(`{broken`))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = svc.StoreHealthData(ctx, "", json.RawMessage(`{}`))
	require.True(t, errors.As(err, &verr))
}
