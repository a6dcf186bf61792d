package identifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"example.com/genid/internal/domain"
)

// Short id range: six digits with no leading zero.
const (
	MinShortID = 100000
	MaxShortID = 999999
)

// ShortIDSource produces candidate short ids.
type ShortIDSource interface {
	NextShortID(ctx context.Context) (string, error)
	Name() string
}

// DelegateSource asks the store's generate_short_id procedure for a candidate.
type DelegateSource struct {
	generator Generator
}

// NewDelegateSource constructs a DelegateSource.
func NewDelegateSource(generator Generator) *DelegateSource {
	return &DelegateSource{generator: generator}
}

// NextShortID implements ShortIDSource.
func (s *DelegateSource) NextShortID(ctx context.Context) (string, error) {
	if s.generator == nil {
		return "", errors.New("no short id generator configured")
	}
	return s.generator.GenerateShortID(ctx)
}

// Name implements ShortIDSource.
func (s *DelegateSource) Name() string { return "procedure" }

// LocalSource draws random short ids and checks each against the store.
type LocalSource struct {
	store       Store
	maxAttempts int
	intN        func(int) int
}

// NewLocalSource constructs a LocalSource. A nil intN uses math/rand/v2.
func NewLocalSource(store Store, maxAttempts int, intN func(int) int) *LocalSource {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if intN == nil {
		intN = rand.IntN
	}
	return &LocalSource{store: store, maxAttempts: maxAttempts, intN: intN}
}

// NextShortID returns the first free candidate, or domain.ErrIdentifierExhausted
// after maxAttempts draws.
func (s *LocalSource) NextShortID(ctx context.Context) (string, error) {
	return s.perCall().NextShortID(ctx)
}

// budgeted sources hand out a draw budget that spans one whole Issue call,
// insert retries included.
type budgeted interface {
	perCall() ShortIDSource
}

func (s *LocalSource) perCall() ShortIDSource {
	return &localDraws{source: s, remaining: s.maxAttempts}
}

// localDraws spends a single LocalSource budget across repeated calls.
type localDraws struct {
	source    *LocalSource
	remaining int
}

func (d *localDraws) NextShortID(ctx context.Context) (string, error) {
	for d.remaining > 0 {
		d.remaining--
		candidate := fmt.Sprintf("%06d", MinShortID+d.source.intN(MaxShortID-MinShortID+1))
		exists, err := d.source.store.ShortIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check short id: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", domain.ErrIdentifierExhausted, d.source.maxAttempts)
}

func (d *localDraws) Name() string { return d.source.Name() }

// Name implements ShortIDSource.
func (s *LocalSource) Name() string { return "local" }

func sourceName(s ShortIDSource) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}
