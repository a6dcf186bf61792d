package eradication

import (
	"context"
	"errors"
	"fmt"
)

// State is a stage of the eradication wizard.
type State string

const (
	StateConfirm   State = "confirm"
	StateDeleting  State = "deleting"
	StateVerifying State = "verifying"
	StateComplete  State = "complete"
)

// ErrInvalidTransition is returned when a transition is attempted from the wrong state.
var ErrInvalidTransition = errors.New("invalid eradication transition")

// Workflow walks one account through confirm → deleting → verifying → complete.
// It is not safe for concurrent use.
type Workflow struct {
	service      *Service
	userID       string
	state        State
	outcome      *Outcome
	verification *Verification
}

// Report is a snapshot of a workflow.
type Report struct {
	UserID       string        `json:"user_id"`
	State        State         `json:"state"`
	Outcome      *Outcome      `json:"outcome,omitempty"`
	Verification *Verification `json:"verification,omitempty"`
	Success      bool          `json:"success"`
}

// Begin starts a workflow in the confirm state.
func (s *Service) Begin(userID string) *Workflow {
	return &Workflow{service: s, userID: userID, state: StateConfirm}
}

// State returns the current state.
func (w *Workflow) State() State { return w.state }

// Confirm moves confirm → deleting.
func (w *Workflow) Confirm() error {
	if err := w.expect(StateConfirm); err != nil {
		return err
	}
	w.state = StateDeleting
	return nil
}

// Delete runs every deletion step and moves deleting → verifying.
func (w *Workflow) Delete(ctx context.Context) (Outcome, error) {
	if err := w.expect(StateDeleting); err != nil {
		return Outcome{}, err
	}
	outcome := w.service.Eradicate(ctx, w.userID)
	w.outcome = &outcome
	w.state = StateVerifying
	return outcome, nil
}

// Verify re-queries every store and moves verifying → complete.
func (w *Workflow) Verify(ctx context.Context) (Verification, error) {
	if err := w.expect(StateVerifying); err != nil {
		return Verification{}, err
	}
	verification := w.service.Verify(ctx, w.userID)
	w.verification = &verification
	w.state = StateComplete
	return verification, nil
}

// Report snapshots the workflow. Success requires a successful deletion and a clean verification.
func (w *Workflow) Report() Report {
	r := Report{
		UserID:       w.userID,
		State:        w.state,
		Outcome:      w.outcome,
		Verification: w.verification,
	}
	r.Success = w.outcome != nil && w.outcome.Success && w.verification != nil && w.verification.IsClean
	return r
}

// Run drives the workflow from confirm to complete.
func (w *Workflow) Run(ctx context.Context) (Report, error) {
	if err := w.Confirm(); err != nil {
		return w.Report(), err
	}
	if _, err := w.Delete(ctx); err != nil {
		return w.Report(), err
	}
	if _, err := w.Verify(ctx); err != nil {
		return w.Report(), err
	}
	return w.Report(), nil
}

func (w *Workflow) expect(state State) error {
	if w.state != state {
		return fmt.Errorf("%w: in %s, expected %s", ErrInvalidTransition, w.state, state)
	}
	return nil
}
