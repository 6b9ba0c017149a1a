package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mferrall/showrunner/internal/config"
	"github.com/mferrall/showrunner/internal/evaluator"
	"github.com/mferrall/showrunner/internal/persona"
	"github.com/mferrall/showrunner/internal/runner"
)

// LoopState is where a phase's refinement loop ended up.
type LoopState int

const (
	LoopRunning LoopState = iota
	LoopConverged
	LoopExhausted
)

func (s LoopState) String() string {
	switch s {
	case LoopConverged:
		return "converged"
	case LoopExhausted:
		return "exhausted"
	default:
		return "running"
	}
}

// ErrAllRoundsFailed is returned when enough consecutive rounds produced no
// usable submission that continuing would only burn budget.
var ErrAllRoundsFailed = errors.New("no usable submissions after repeated rounds")

// IterationResult is one round's full record, handed to the caller's
// onRound hook before the loop moves on. The loop itself never persists
// anything.
type IterationResult struct {
	Iteration  int
	Results    []runner.AgentResult
	Selection  evaluator.SelectionResult
	Score      float64
	Delta      float64
	TokensUsed int
	StartedAt  time.Time
	EndedAt    time.Time
}

// Outcome is the loop's final answer for a phase.
type Outcome struct {
	State      LoopState
	Winner     string
	Score      float64
	Proposal   string
	Adoptions  []evaluator.PartialAdoption
	Iterations int
}

// Loop drives the propose -> evaluate -> feedback cycle for one phase.
type Loop struct {
	runner *runner.Runner
	eval   *evaluator.Evaluator
	roster *persona.Roster
	cfg    config.LoopConfig
	logger *zap.Logger
}

// NewLoop wires a refinement loop over a runner and an evaluator.
func NewLoop(r *runner.Runner, e *evaluator.Evaluator, roster *persona.Roster, cfg config.LoopConfig, logger *zap.Logger) *Loop {
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 1
	}
	if cfg.MaxFailedRounds < 1 {
		cfg.MaxFailedRounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{runner: r, eval: e, roster: roster, cfg: cfg, logger: logger}
}

// Run executes rounds until the winning score meets the threshold, the
// iteration budget runs out (best round so far wins), or consecutive
// all-failed rounds abort the phase. onRound, if non-nil, is called once
// per round in order.
func (l *Loop) Run(ctx context.Context, spec PhaseSpec, base Context, onRound func(IterationResult)) (*Outcome, error) {
	cur := base
	var best *Outcome
	prevScore := 0.0
	failedStreak := 0

	for iter := 1; iter <= l.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		in := cur.PromptInput(spec)
		results := l.runner.RunAll(ctx, l.roster.All(), in)
		sel := l.eval.Evaluate(ctx, results, in)
		if err := ctx.Err(); err != nil {
			// Interrupted mid-round; don't count this against any budget.
			return nil, err
		}

		score := 0.0
		if sel.Winner != "" {
			score = sel.Scores[sel.Winner]
		}
		tokens := sel.TokensUsed
		for _, res := range results {
			tokens += res.TokensUsed
		}
		round := IterationResult{
			Iteration:  iter,
			Results:    results,
			Selection:  sel,
			Score:      score,
			Delta:      score - prevScore,
			TokensUsed: tokens,
			StartedAt:  started,
			EndedAt:    time.Now(),
		}
		if onRound != nil {
			onRound(round)
		}

		if sel.Winner == "" {
			failedStreak++
			l.logger.Warn("round produced no usable submission",
				zap.String("phase", spec.Name),
				zap.Int("iteration", iter),
				zap.Int("failed_streak", failedStreak))
			if failedStreak >= l.cfg.MaxFailedRounds {
				return nil, fmt.Errorf("phase %s aborted after %d consecutive failed rounds: %w",
					spec.Name, failedStreak, ErrAllRoundsFailed)
			}
			continue
		}
		failedStreak = 0
		prevScore = score

		proposal := outputOf(results, sel.Winner)
		if best == nil || score > best.Score {
			best = &Outcome{
				State:      LoopExhausted,
				Winner:     sel.Winner,
				Score:      score,
				Proposal:   proposal,
				Adoptions:  sel.Adoptions,
				Iterations: iter,
			}
		}

		if score >= l.cfg.ScoreThreshold {
			l.logger.Info("phase converged",
				zap.String("phase", spec.Name),
				zap.Int("iteration", iter),
				zap.String("winner", sel.Winner),
				zap.Float64("score", score))
			return &Outcome{
				State:      LoopConverged,
				Winner:     sel.Winner,
				Score:      score,
				Proposal:   proposal,
				Adoptions:  sel.Adoptions,
				Iterations: iter,
			}, nil
		}

		if iter < l.cfg.MaxIterations {
			cur = cur.WithFeedback(formatFeedback(iter, sel))
		}
	}

	if best == nil {
		return nil, fmt.Errorf("phase %s produced no usable submission in %d rounds: %w",
			spec.Name, l.cfg.MaxIterations, ErrAllRoundsFailed)
	}
	best.Iterations = l.cfg.MaxIterations
	l.logger.Info("phase budget exhausted, keeping best round",
		zap.String("phase", spec.Name),
		zap.String("winner", best.Winner),
		zap.Float64("score", best.Score))
	return best, nil
}

func outputOf(results []runner.AgentResult, director string) string {
	for _, r := range results {
		if r.Director == director {
			return r.Output
		}
	}
	return ""
}

// formatFeedback turns a round's verdict into the critique note appended to
// the next round's context.
func formatFeedback(iter int, sel evaluator.SelectionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d verdict (leader: %s, score %.0f/100): %s",
		iter, sel.Winner, sel.Scores[sel.Winner], sel.Reasoning)
	for _, a := range sel.Adoptions {
		fmt.Fprintf(&b, "\nFold in from %s: %s (into %s)", a.Source, a.Element, a.Target)
	}
	return b.String()
}
