// Package identifier issues GenIDs: a unique six digit short id plus a public verification code.
package identifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/observability"
)

const (
	// DefaultMaxAttempts bounds the local generate-and-check loop.
	DefaultMaxAttempts = 10
	// DefaultMaxInsertAttempts bounds retries after losing a short id insert race.
	DefaultMaxInsertAttempts = 3

	publicCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	publicCodeLength   = 12
)

// Generator exposes the store's server-side id procedures.
type Generator interface {
	GenerateShortID(ctx context.Context) (string, error)
	GeneratePublicCode(ctx context.Context) (string, error)
}

// Store checks and records identifiers. InsertIdentifier returns domain.ErrIdentifierExists
// when the user already holds one and domain.ErrShortIDTaken when the short id is in use.
type Store interface {
	ShortIDExists(ctx context.Context, shortID string) (bool, error)
	InsertIdentifier(ctx context.Context, identifier domain.Identifier) error
}

// Result is a freshly issued identifier.
type Result struct {
	Identifier   domain.Identifier
	UsedFallback bool
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithLogger overrides the issuer's logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithMaxInsertAttempts overrides the insert race retry bound.
func WithMaxInsertAttempts(n int) Option {
	return func(i *Issuer) {
		if n > 0 {
			i.maxInsertAttempts = n
		}
	}
}

// WithPublicCodeFunc overrides the local public code generator.
func WithPublicCodeFunc(fn func() (string, error)) Option {
	return func(i *Issuer) {
		i.localPublicCode = fn
	}
}

// WithProfileCache drops the owner's cached public profile once an identifier is issued.
func WithProfileCache(cache domain.ProfileCache) Option {
	return func(i *Issuer) {
		i.cache = cache
	}
}

// Issuer hands out identifiers. The primary source is asked first; when it fails
// or returns a value that is not six digits the fallback source takes over.
type Issuer struct {
	store             Store
	generator         Generator
	primary           ShortIDSource
	fallback          ShortIDSource
	maxInsertAttempts int
	localPublicCode   func() (string, error)
	cache             domain.ProfileCache
	logger            logrus.FieldLogger
	now               func() time.Time
}

// NewIssuer wires the store-delegating primary source and a local fallback.
func NewIssuer(store Store, generator Generator, maxAttempts int, opts ...Option) *Issuer {
	return NewIssuerWithSources(store, generator, NewDelegateSource(generator), NewLocalSource(store, maxAttempts, nil), opts...)
}

// NewIssuerWithSources builds an Issuer from explicit short id sources.
func NewIssuerWithSources(store Store, generator Generator, primary, fallback ShortIDSource, opts ...Option) *Issuer {
	i := &Issuer{
		store:             store,
		generator:         generator,
		primary:           primary,
		fallback:          fallback,
		maxInsertAttempts: DefaultMaxInsertAttempts,
		localPublicCode:   randomPublicCode,
		logger:            logrus.StandardLogger(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue creates the user's identifier. A user that already has one gets
// domain.ErrIdentifierExists; running out of free short ids yields
// domain.ErrIdentifierExhausted.
func (i *Issuer) Issue(ctx context.Context, userID string) (*Result, error) {
	log := i.logger.WithField("user_id", userID)

	candidate, usedFallback := i.primaryCandidate(ctx, log)
	publicCode := i.publicCode(ctx, log)

	fallback := i.fallback
	if b, ok := fallback.(budgeted); ok {
		fallback = b.perCall()
	}

	for attempt := 1; ; attempt++ {
		source := sourceName(i.primary)
		if usedFallback {
			source = sourceName(fallback)
			next, err := fallback.NextShortID(ctx)
			if err != nil {
				if errors.Is(err, domain.ErrIdentifierExhausted) {
					observability.RecordIdentifierExhausted()
					log.WithError(err).Error("no free genid short id found")
				}
				return nil, err
			}
			candidate = next
		}

		identifier := domain.Identifier{
			ID:         uuid.NewString(),
			UserID:     userID,
			ShortID:    candidate,
			PublicCode: publicCode,
			CreatedAt:  i.now().UTC(),
		}
		err := i.store.InsertIdentifier(ctx, identifier)
		if err == nil {
			observability.RecordIdentifierIssued(source)
			i.invalidate(ctx, userID)
			log.WithFields(logrus.Fields{"short_id": candidate, "fallback": usedFallback}).Info("genid issued")
			return &Result{Identifier: identifier, UsedFallback: usedFallback}, nil
		}
		if !errors.Is(err, domain.ErrShortIDTaken) {
			return nil, err
		}

		observability.RecordIdentifierCollision()
		if attempt >= i.maxInsertAttempts {
			observability.RecordIdentifierExhausted()
			return nil, fmt.Errorf("%w: short id collided %d times", domain.ErrIdentifierExhausted, attempt)
		}
		log.WithField("short_id", candidate).Warn("short id taken at insert, retrying with a new candidate")
		usedFallback = true
	}
}

func (i *Issuer) invalidate(ctx context.Context, userID string) {
	if i.cache == nil {
		return
	}
	if err := i.cache.Invalidate(ctx, userID); err != nil {
		observability.RecordProfileCacheError("invalidate")
	}
}

func (i *Issuer) primaryCandidate(ctx context.Context, log logrus.FieldLogger) (string, bool) {
	if i.primary == nil {
		observability.RecordIdentifierFallback()
		return "", true
	}
	candidate, err := i.primary.NextShortID(ctx)
	if err != nil {
		log.WithError(err).Warn("short id procedure unavailable, generating locally")
		observability.RecordIdentifierFallback()
		return "", true
	}
	if !domain.ValidShortID(candidate) {
		log.WithField("short_id", candidate).Warn("short id procedure returned a malformed value, generating locally")
		observability.RecordIdentifierFallback()
		return "", true
	}
	return candidate, false
}

func (i *Issuer) publicCode(ctx context.Context, log logrus.FieldLogger) string {
	if i.generator != nil {
		code, err := i.generator.GeneratePublicCode(ctx)
		if err == nil && code != "" {
			return code
		}
		if err != nil {
			log.WithError(err).Warn("public code procedure unavailable, generating locally")
		}
	}
	code, err := i.localPublicCode()
	if err != nil {
		// nanoid only fails when the OS entropy source does.
		log.WithError(err).Error("local public code generation failed")
		return fmt.Sprintf("%012d", rand.Int64N(1e12))
	}
	return code
}

func randomPublicCode() (string, error) {
	return gonanoid.Generate(publicCodeAlphabet, publicCodeLength)
}
