package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mferrall/showrunner/internal/evaluator"
	"github.com/mferrall/showrunner/internal/media"
	"github.com/mferrall/showrunner/internal/persona"
	"github.com/mferrall/showrunner/internal/session"
)

var (
	ErrInvalidRange = errors.New("invalid phase range")
	ErrMissingPrior = errors.New("required prior phase result missing")
	ErrPhaseFailed  = errors.New("phase failed")
)

// AcceptedResult is the payload persisted for a completed phase and handed
// downstream as prior work.
type AcceptedResult struct {
	Director  string                      `json:"director"`
	Proposal  string                      `json:"proposal"`
	Score     float64                     `json:"score"`
	Adoptions []evaluator.PartialAdoption `json:"partial_adoptions,omitempty"`
	Note      string                      `json:"note,omitempty"`
}

// Orchestrator walks a session through the phase table in order,
// persisting every state change before moving on.
type Orchestrator struct {
	store    *session.Store
	loop     *Loop
	media    *media.Dispatcher
	phases   []PhaseSpec
	progress func(PhaseSpec, IterationResult)
	logger   *zap.Logger
}

// New wires an orchestrator. The media dispatcher may be nil when no
// collaborators are configured.
func New(store *session.Store, loop *Loop, dispatcher *media.Dispatcher, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:  store,
		loop:   loop,
		media:  dispatcher,
		phases: Phases(),
		logger: logger,
	}
}

// SetProgress installs a per-round observer, called after each round is
// persisted. Used by the CLI to render live progress.
func (o *Orchestrator) SetProgress(fn func(PhaseSpec, IterationResult)) {
	o.progress = fn
}

// RunPipeline executes phases startPhase through endPhase inclusive.
// Completed phases are skipped, failed phases are reset and retried, and
// the first phase that fails halts the run so nothing downstream builds on
// a missing result.
func (o *Orchestrator) RunPipeline(ctx context.Context, sess *session.Session, startPhase, endPhase int) error {
	if startPhase < FirstPhase() || endPhase > LastPhase() || startPhase > endPhase {
		return fmt.Errorf("%w: %d..%d (valid %d..%d)", ErrInvalidRange, startPhase, endPhase, FirstPhase(), LastPhase())
	}

	for _, spec := range o.phases {
		if spec.Number < startPhase || spec.Number > endPhase {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rec := sess.Phase(spec.Number)
		if rec.Completed() {
			o.logger.Info("phase already completed, skipping",
				zap.String("session", sess.SessionID),
				zap.Int("phase", spec.Number),
				zap.String("name", spec.Name))
			continue
		}
		if rec.Status == session.StatusFailed {
			o.logger.Info("retrying previously failed phase",
				zap.String("session", sess.SessionID),
				zap.Int("phase", spec.Number))
			if err := o.store.ResetPhase(sess, spec.Number); err != nil {
				return err
			}
		}

		if err := o.runPhase(ctx, sess, spec); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runPhase(ctx context.Context, sess *session.Session, spec PhaseSpec) error {
	base, err := o.buildContext(sess, spec)
	if err != nil {
		return err
	}

	if err := o.store.MarkPhaseStarted(sess, spec.Number); err != nil {
		return err
	}
	o.logger.Info("phase started",
		zap.String("session", sess.SessionID),
		zap.Int("phase", spec.Number),
		zap.String("name", spec.Name))

	onRound := func(round IterationResult) {
		att := session.Attempt{
			StartedAt:  round.StartedAt,
			EndedAt:    round.EndedAt,
			Success:    round.Selection.Winner != "",
			Winner:     round.Selection.Winner,
			Score:      round.Score,
			TokensUsed: round.TokensUsed,
		}
		if att.Success {
			if raw, mErr := json.Marshal(round.Selection); mErr == nil {
				att.Result = raw
			}
		} else {
			att.ErrorDetail = roundFailureDetail(round)
		}
		if aErr := o.store.AppendAttempt(sess, spec.Number, att); aErr != nil {
			o.logger.Warn("failed to persist attempt record",
				zap.Int("phase", spec.Number), zap.Error(aErr))
		}
		if o.progress != nil {
			o.progress(spec, round)
		}
	}

	outcome, err := o.loop.Run(ctx, spec, base, onRound)
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted; the phase stays in_progress so resume picks it up.
			return err
		}
		if fErr := o.store.MarkPhaseFailed(sess, spec.Number); fErr != nil {
			o.logger.Error("failed to persist phase failure",
				zap.Int("phase", spec.Number), zap.Error(fErr))
		}
		return fmt.Errorf("phase %d (%s): %w: %w", spec.Number, spec.Name, ErrPhaseFailed, err)
	}

	acc := AcceptedResult{
		Director:  outcome.Winner,
		Proposal:  outcome.Proposal,
		Score:     outcome.Score,
		Adoptions: outcome.Adoptions,
	}
	if outcome.State == LoopExhausted {
		acc.Note = fmt.Sprintf("best of %d rounds, below threshold", outcome.Iterations)
	}
	payload, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("encoding phase %d result: %w", spec.Number, err)
	}
	if err := o.store.MarkPhaseCompleted(sess, spec.Number, outcome.Winner, outcome.Score, payload, outcome.State == LoopConverged); err != nil {
		return err
	}
	o.logger.Info("phase completed",
		zap.String("session", sess.SessionID),
		zap.Int("phase", spec.Number),
		zap.String("winner", outcome.Winner),
		zap.Float64("score", outcome.Score),
		zap.Bool("converged", outcome.State == LoopConverged))

	o.dispatchMedia(ctx, sess, spec, acc)
	return nil
}

// buildContext assembles the prior-work context for a phase and enforces
// its dependencies before any model call is made.
func (o *Orchestrator) buildContext(sess *session.Session, spec PhaseSpec) (Context, error) {
	done := make(map[int]bool, len(o.phases))
	var prior []persona.PriorWork
	for _, p := range o.phases {
		if p.Number >= spec.Number {
			break
		}
		rec, ok := sess.Phases[p.Number]
		if !ok || !rec.Completed() {
			continue
		}
		done[p.Number] = true
		var acc AcceptedResult
		text := string(rec.Result)
		if err := json.Unmarshal(rec.Result, &acc); err == nil && acc.Proposal != "" {
			text = acc.Proposal
		}
		prior = append(prior, persona.PriorWork{
			Phase:  p.Number,
			Name:   p.Name,
			Winner: rec.Winner,
			Result: text,
		})
	}

	for _, req := range spec.Requires {
		if !done[req] {
			return Context{}, fmt.Errorf("phase %d (%s): %w: phase %d", spec.Number, spec.Name, ErrMissingPrior, req)
		}
	}
	return Context{Brief: sess.Brief, Prior: prior}, nil
}

// dispatchMedia hands the accepted result to the phase's collaborator, if
// any. Collaborator failures are logged, never fatal: the phase result is
// already persisted and the handoff can be replayed.
func (o *Orchestrator) dispatchMedia(ctx context.Context, sess *session.Session, spec PhaseSpec, acc AcceptedResult) {
	if spec.Media == "" || o.media == nil {
		return
	}
	res, err := o.media.Dispatch(ctx, spec.Media, media.Request{
		SessionID: sess.SessionID,
		Phase:     spec.Number,
		PhaseName: spec.Name,
		Payload:   acc.Proposal,
	})
	switch {
	case errors.Is(err, media.ErrNotConfigured):
		o.logger.Debug("no collaborator configured",
			zap.String("kind", string(spec.Media)), zap.Int("phase", spec.Number))
	case err != nil:
		o.logger.Warn("collaborator handoff failed",
			zap.String("kind", string(spec.Media)),
			zap.Int("phase", spec.Number),
			zap.Error(err))
	default:
		o.logger.Info("collaborator handoff done",
			zap.String("kind", string(spec.Media)),
			zap.Int("phase", spec.Number),
			zap.String("uri", res.URI))
	}
}

// FirstIncomplete returns the lowest phase number that has not completed,
// or LastPhase()+1 when every phase is done. Used to pick a resume point.
func FirstIncomplete(sess *session.Session) int {
	for _, p := range phaseTable {
		rec, ok := sess.Phases[p.Number]
		if !ok || !rec.Completed() {
			return p.Number
		}
	}
	return LastPhase() + 1
}

func roundFailureDetail(round IterationResult) string {
	detail := round.Selection.Reasoning
	if detail == "" {
		detail = "no usable submissions"
	}
	for _, r := range round.Results {
		if !r.Success {
			detail += fmt.Sprintf("; %s: %s", r.Director, r.FailureDetail)
		}
	}
	return detail
}
