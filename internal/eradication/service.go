// Package eradication removes every trace of an account across the local tables
// and the identity provider, then verifies nothing was left behind.
package eradication

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/identity"
	"example.com/genid/internal/observability"
)

// Store is the local side of an eradication. Deleting rows that do not exist is not an error.
type Store interface {
	DeleteActivitiesByUser(ctx context.Context, userID string) (int, error)
	DeleteIdentifierByUser(ctx context.Context, userID string) (int, error)
	DeleteUser(ctx context.Context, userID string) (int, error)
	CountActivitiesByUser(ctx context.Context, userID string) (int, error)
	CountIdentifiersByUser(ctx context.Context, userID string) (int, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AccountDirectory is the identity provider's admin surface.
type AccountDirectory interface {
	DeleteAccount(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (*identity.Account, error)
	ListAccounts(ctx context.Context) ([]identity.Account, error)
}

// Step names one deletion stage.
type Step string

// Deletion order.
const (
	StepActivities Step = "activities"
	StepIdentifier Step = "identifier"
	StepUser       Step = "user"
	StepAccount    Step = "identity_account"
)

var stepOrder = []Step{StepActivities, StepIdentifier, StepUser, StepAccount}

// Status summarises an outcome across all steps.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// StepResult records one step.
type StepResult struct {
	Step     Step   `json:"step"`
	OK       bool   `json:"ok"`
	Affected int    `json:"affected"`
	Error    string `json:"error,omitempty"`
}

// Outcome is the result of a deletion pass. Callers must read Steps to see which
// stores were cleared when Success is false.
type Outcome struct {
	UserID  string       `json:"user_id"`
	Status  Status       `json:"status"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Steps   []StepResult `json:"steps"`
	Errors  []string     `json:"errors"`
}

// Step returns the recorded result for s.
func (o Outcome) Step(s Step) (StepResult, bool) {
	for _, r := range o.Steps {
		if r.Step == s {
			return r, true
		}
	}
	return StepResult{}, false
}

// Remnants counts what is still present for a user.
type Remnants struct {
	Activities     int  `json:"activities"`
	Identifiers    int  `json:"identifiers"`
	UserRows       int  `json:"user_rows"`
	Accounts       int  `json:"identity_accounts"`
	AccountChecked bool `json:"identity_account_checked"`
}

// Local reports whether any local table still holds data.
func (r Remnants) Local() bool {
	return r.Activities > 0 || r.Identifiers > 0 || r.UserRows > 0
}

// Any reports whether anything at all remains.
func (r Remnants) Any() bool {
	return r.Local() || r.Accounts > 0
}

// Verification is the result of re-querying every store.
type Verification struct {
	UserID   string   `json:"user_id"`
	IsClean  bool     `json:"is_clean"`
	Remnants Remnants `json:"remnants"`
	Errors   []string `json:"errors,omitempty"`
}

// ForceOutcome is the result of a forced cleanup.
type ForceOutcome struct {
	Outcome Outcome      `json:"outcome"`
	Before  Verification `json:"before"`
	Retries []StepResult `json:"retries"`
	After   Verification `json:"after"`
	Success bool         `json:"success"`
}

// AuditEntry is an identity account that still has local data.
type AuditEntry struct {
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Username  string   `json:"username,omitempty"`
	Remnants  Remnants `json:"remnants"`
	Error     string   `json:"error,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the service logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProfileCache drops cached public profiles of eradicated users.
func WithProfileCache(cache domain.ProfileCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// Service runs eradications, verifications, forced cleanups and audits.
type Service struct {
	store    Store
	accounts AccountDirectory
	cache    domain.ProfileCache
	logger   logrus.FieldLogger
}

// NewService constructs a Service.
func NewService(store Store, accounts AccountDirectory, opts ...Option) *Service {
	s := &Service{
		store:    store,
		accounts: accounts,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Eradicate attempts every step in order. A failing step never stops the later ones.
func (s *Service) Eradicate(ctx context.Context, userID string) Outcome {
	log := s.logger.WithField("user_id", userID)
	outcome := Outcome{UserID: userID, Steps: make([]StepResult, 0, len(stepOrder)), Errors: []string{}}

	for _, step := range stepOrder {
		affected, err := s.runStep(ctx, step, userID)
		result := StepResult{Step: step, OK: err == nil, Affected: affected}
		if err != nil {
			result.Error = err.Error()
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", step, err))
			log.WithError(err).WithField("step", step).Warn("eradication step failed")
		} else {
			log.WithFields(logrus.Fields{"step": step, "affected": affected}).Info("eradication step completed")
		}
		observability.RecordEradicationStep(string(step), err == nil)
		outcome.Steps = append(outcome.Steps, result)
	}

	s.invalidate(ctx, userID)
	summarize(&outcome)
	observability.RecordEradicationRun(string(outcome.Status))
	return outcome
}

// Verify re-queries every store for the user.
func (s *Service) Verify(ctx context.Context, userID string) Verification {
	v := Verification{UserID: userID}
	var errs []string

	activities, err := s.store.CountActivitiesByUser(ctx, userID)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", StepActivities, err))
	}
	v.Remnants.Activities = activities

	identifiers, err := s.store.CountIdentifiersByUser(ctx, userID)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", StepIdentifier, err))
	}
	v.Remnants.Identifiers = identifiers

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", StepUser, err))
	}
	if user != nil {
		v.Remnants.UserRows = 1
	}

	_, err = s.accounts.GetAccount(ctx, userID)
	switch {
	case err == nil:
		v.Remnants.Accounts = 1
		v.Remnants.AccountChecked = true
	case errors.Is(err, identity.ErrAccountNotFound):
		v.Remnants.AccountChecked = true
	case errors.Is(err, identity.ErrNoServiceCredentials):
		// Nothing can be checked without a service key.
	default:
		errs = append(errs, fmt.Sprintf("%s: %v", StepAccount, err))
	}

	v.Errors = errs
	v.IsClean = !v.Remnants.Any() && len(errs) == 0
	return v
}

// ForceCleanup eradicates, then issues one more direct delete per remaining
// category and verifies once more. It never loops beyond that single retry.
func (s *Service) ForceCleanup(ctx context.Context, userID string) ForceOutcome {
	log := s.logger.WithField("user_id", userID)
	result := ForceOutcome{Outcome: s.Eradicate(ctx, userID), Retries: []StepResult{}}
	result.Before = s.Verify(ctx, userID)

	if !result.Before.IsClean {
		pending := map[Step]bool{
			StepActivities: result.Before.Remnants.Activities > 0,
			StepIdentifier: result.Before.Remnants.Identifiers > 0,
			StepUser:       result.Before.Remnants.UserRows > 0,
			StepAccount:    result.Before.Remnants.Accounts > 0,
		}
		for _, step := range stepOrder {
			if !pending[step] {
				continue
			}
			affected, err := s.runStep(ctx, step, userID)
			retry := StepResult{Step: step, OK: err == nil, Affected: affected}
			if err != nil {
				retry.Error = err.Error()
				log.WithError(err).WithField("step", step).Warn("forced cleanup step failed")
			}
			observability.RecordEradicationStep(string(step), err == nil)
			result.Retries = append(result.Retries, retry)
		}
		result.After = s.Verify(ctx, userID)
	} else {
		result.After = result.Before
	}

	result.Success = result.After.IsClean
	log.WithFields(logrus.Fields{"clean": result.Success, "retries": len(result.Retries)}).Info("forced cleanup finished")
	return result
}

// Audit lists every identity account and reports those that still have local data.
// Without service credentials there is nothing to list and the result is empty.
func (s *Service) Audit(ctx context.Context) ([]AuditEntry, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if errors.Is(err, identity.ErrNoServiceCredentials) {
		s.logger.Warn("remnant audit skipped: identity service key not configured")
		return []AuditEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list identity accounts: %w", err)
	}

	entries := make([]AuditEntry, 0)
	for _, account := range accounts {
		entry := AuditEntry{AccountID: account.ID, Email: account.Email}
		entry.Remnants.Accounts = 1
		entry.Remnants.AccountChecked = true

		if err := s.countLocal(ctx, account.ID, &entry); err != nil {
			entry.Error = err.Error()
			entries = append(entries, entry)
			continue
		}
		if entry.Remnants.Local() {
			entries = append(entries, entry)
		}
	}

	observability.RecordRemnantAudit(len(entries))
	s.logger.WithFields(logrus.Fields{"accounts": len(accounts), "with_remnants": len(entries)}).Info("remnant audit finished")
	return entries, nil
}

func (s *Service) countLocal(ctx context.Context, userID string, entry *AuditEntry) error {
	activities, err := s.store.CountActivitiesByUser(ctx, userID)
	if err != nil {
		return err
	}
	identifiers, err := s.store.CountIdentifiersByUser(ctx, userID)
	if err != nil {
		return err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	entry.Remnants.Activities = activities
	entry.Remnants.Identifiers = identifiers
	if user != nil {
		entry.Remnants.UserRows = 1
		entry.Username = user.Username
	}
	return nil
}

func (s *Service) runStep(ctx context.Context, step Step, userID string) (int, error) {
	switch step {
	case StepActivities:
		return s.store.DeleteActivitiesByUser(ctx, userID)
	case StepIdentifier:
		return s.store.DeleteIdentifierByUser(ctx, userID)
	case StepUser:
		return s.store.DeleteUser(ctx, userID)
	case StepAccount:
		err := s.accounts.DeleteAccount(ctx, userID)
		if errors.Is(err, identity.ErrAccountNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown step %q", step)
	}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		observability.RecordProfileCacheError("invalidate")
	}
}

func summarize(o *Outcome) {
	succeeded := 0
	for _, r := range o.Steps {
		if r.OK {
			succeeded++
		}
	}
	user, _ := o.Step(StepUser)
	account, _ := o.Step(StepAccount)
	o.Success = user.OK && account.OK && len(o.Errors) == 0

	switch {
	case o.Success:
		o.Status = StatusSucceeded
		o.Message = "account completely eradicated"
	case succeeded > 0:
		o.Status = StatusPartial
		o.Message = fmt.Sprintf("partial eradication: %d of %d steps succeeded", succeeded, len(o.Steps))
	default:
		o.Status = StatusFailed
		o.Message = "eradication failed: no step succeeded"
	}
}
