// Package session persists pipeline progress so a multi-hour run can be
// interrupted and resumed without redoing completed phases.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status constants for the phase state machine. Transitions are forward
// only: not_started -> in_progress -> {completed, failed}.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Session is one pipeline run. Unknown fields in the persisted form are
// ignored on load so older binaries can read newer sessions.
type Session struct {
	SessionID string               `json:"session_id"`
	Brief     string               `json:"brief,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Phases    map[int]*PhaseRecord `json:"phases"`
}

// Phase returns the record for a phase number, creating it if absent.
func (s *Session) Phase(n int) *PhaseRecord {
	if s.Phases == nil {
		s.Phases = make(map[int]*PhaseRecord)
	}
	rec, ok := s.Phases[n]
	if !ok {
		rec = &PhaseRecord{Phase: n, Status: StatusNotStarted}
		s.Phases[n] = rec
	}
	return rec
}

// PhaseRecord tracks one phase's lifecycle and its accepted result.
type PhaseRecord struct {
	Phase       int             `json:"phase"`
	Status      string          `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Success     bool            `json:"success"`
	Converged   bool            `json:"converged"`
	Winner      string          `json:"winner,omitempty"`
	Score       float64         `json:"score,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Attempts    []Attempt       `json:"attempts,omitempty"`
}

// Attempt is the immutable record of one refinement round. Created once,
// never mutated after completion.
type Attempt struct {
	Number      int             `json:"number"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     time.Time       `json:"ended_at"`
	Success     bool            `json:"success"`
	Winner      string          `json:"winner,omitempty"`
	Score       float64         `json:"score,omitempty"`
	TokensUsed  int             `json:"tokens_used,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`
}

// Start transitions a phase to in_progress. Re-starting an in_progress
// phase is allowed: that is how an interrupted run resumes.
func (p *PhaseRecord) Start() error {
	switch p.Status {
	case StatusNotStarted, StatusInProgress:
	default:
		return fmt.Errorf("cannot start phase %d: status is %q", p.Phase, p.Status)
	}
	p.Status = StatusInProgress
	now := time.Now().UTC()
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	return nil
}

// Complete transitions a phase to completed with its accepted result.
// A completed phase always carries a non-empty result.
func (p *PhaseRecord) Complete(winner string, score float64, result json.RawMessage, converged bool) error {
	if p.Status != StatusInProgress {
		return fmt.Errorf("cannot complete phase %d: status is %q, want %q", p.Phase, p.Status, StatusInProgress)
	}
	if len(result) == 0 {
		return fmt.Errorf("cannot complete phase %d without a result", p.Phase)
	}
	p.Status = StatusCompleted
	p.Success = true
	p.Converged = converged
	p.Winner = winner
	p.Score = score
	p.Result = result
	now := time.Now().UTC()
	p.CompletedAt = &now
	return nil
}

// Fail transitions a phase to failed. The failure cause lives in the last
// attempt's error detail.
func (p *PhaseRecord) Fail() error {
	if p.Status != StatusInProgress {
		return fmt.Errorf("cannot fail phase %d: status is %q, want %q", p.Phase, p.Status, StatusInProgress)
	}
	p.Status = StatusFailed
	p.Success = false
	now := time.Now().UTC()
	p.CompletedAt = &now
	return nil
}

// Completed reports whether the phase finished with an accepted result.
func (p *PhaseRecord) Completed() bool {
	return p.Status == StatusCompleted && len(p.Result) > 0
}

// Reset rewinds a failed phase so a later run can retry it. Attempt history
// is kept; completed phases cannot be reset.
func (p *PhaseRecord) Reset() error {
	if p.Status != StatusFailed {
		return fmt.Errorf("cannot reset phase %d: status is %q, want %q", p.Phase, p.Status, StatusFailed)
	}
	p.Status = StatusNotStarted
	p.StartedAt = nil
	p.CompletedAt = nil
	p.Success = false
	p.Converged = false
	p.Winner = ""
	p.Score = 0
	p.Result = nil
	return nil
}
