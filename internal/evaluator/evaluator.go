// Package evaluator scores one round's candidate proposals and names a
// winner, degrading deterministically when the scoring service misbehaves.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mferrall/showrunner/internal/llm"
	"github.com/mferrall/showrunner/internal/persona"
	"github.com/mferrall/showrunner/internal/runner"
)

// PartialAdoption names a specific element of a non-winning submission
// worth merging into the winner.
type PartialAdoption struct {
	Source  string `json:"source"`
	Element string `json:"element"`
	Target  string `json:"target"`
}

// SelectionResult is the evaluator's verdict for one round. The winner is
// always a key of Scores unless it is empty (no valid submissions).
// Degraded marks verdicts produced by fallback rules rather than a
// well-formed scoring response.
type SelectionResult struct {
	Winner     string             `json:"winner"`
	Scores     map[string]float64 `json:"scores"`
	Reasoning  string             `json:"reasoning"`
	Adoptions  []PartialAdoption  `json:"partial_adoptions,omitempty"`
	Degraded   bool               `json:"degraded,omitempty"`
	TokensUsed int                `json:"tokens_used,omitempty"`
}

// Config bounds the evaluation call.
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	Model       string
}

// Evaluator runs the scoring pass over a round's results.
type Evaluator struct {
	client  llm.Client
	cfg     Config
	weights map[string]float64
	logger  *zap.Logger
}

// New creates an Evaluator. Weights are the roster's name -> weight table,
// surfaced to the scoring prompt as ranking criteria.
func New(client llm.Client, cfg Config, weights map[string]float64, logger *zap.Logger) *Evaluator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffCap == 0 {
		cfg.BackoffCap = 8 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{client: client, cfg: cfg, weights: weights, logger: logger}
}

// selectionWire is the raw scoring response. Scores stay loosely typed
// until validated: malformed entries are dropped, not propagated.
type selectionWire struct {
	Winner           string            `json:"winner"`
	Scores           map[string]any    `json:"scores"`
	Reasoning        string            `json:"reasoning"`
	PartialAdoptions []PartialAdoption `json:"partial_adoptions"`
}

// Evaluate filters to successful results, runs one scoring pass and parses
// the verdict. It never returns an error: every failure mode degrades to a
// deterministic SelectionResult.
func (e *Evaluator) Evaluate(ctx context.Context, results []runner.AgentResult, in persona.PromptInput) SelectionResult {
	var successes []runner.AgentResult
	for _, res := range results {
		if res.Success {
			successes = append(successes, res)
		}
	}

	if len(successes) == 0 {
		return SelectionResult{
			Winner:    "",
			Scores:    map[string]float64{},
			Reasoning: "no valid submissions",
			Degraded:  true,
		}
	}

	candidates := make([]persona.Candidate, len(successes))
	for i, res := range successes {
		candidates[i] = persona.Candidate{Director: res.Director, Submission: res.Output}
	}

	req := llm.Request{
		System: persona.EvaluatorSystemPrompt(),
		Prompt: persona.EvaluationPrompt(in, candidates, e.weights),
		Model:  e.cfg.Model,
	}

	wire, tokens, err := e.invoke(ctx, req)
	if err != nil {
		e.logger.Warn("scoring pass failed, selecting first successful submission", zap.Error(err))
		first := successes[0].Director
		return SelectionResult{
			Winner:     first,
			Scores:     map[string]float64{first: 0},
			Reasoning:  fmt.Sprintf("evaluation unavailable (%v); defaulted to first successful submission", err),
			Degraded:   true,
			TokensUsed: tokens,
		}
	}

	sel := e.normalize(wire, successes)
	sel.TokensUsed = tokens
	return sel
}

// invoke runs the scoring call with the same retry policy proposal calls
// get. An unparseable response counts as a failed call worth retrying.
// Tokens spent across all tries are reported alongside the verdict.
func (e *Evaluator) invoke(ctx context.Context, req llm.Request) (*selectionWire, int, error) {
	var lastErr error
	tokens := 0
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		resp, err := e.client.Invoke(callCtx, req)
		cancel()

		if err == nil {
			tokens += resp.TokensUsed
			var wire selectionWire
			if err = llm.Decode(resp.Text, &wire); err == nil {
				return &wire, tokens, nil
			}
		}
		lastErr = err

		if !llm.IsTransient(err) || ctx.Err() != nil || attempt == e.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(llm.Backoff(e.cfg.BackoffBase, e.cfg.BackoffCap, attempt)):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}
	return nil, tokens, lastErr
}

// normalize validates the raw verdict against the actual submissions and
// applies the fallback chain: declared winner if scored, else highest
// valid score, else first successful submission (flagged degraded).
func (e *Evaluator) normalize(wire *selectionWire, successes []runner.AgentResult) SelectionResult {
	submitted := make(map[string]bool, len(successes))
	for _, res := range successes {
		submitted[res.Director] = true
	}

	scores := make(map[string]float64)
	for name, raw := range wire.Scores {
		if !submitted[name] {
			continue
		}
		v, ok := numericScore(raw)
		if !ok {
			continue
		}
		scores[name] = v
	}

	sel := SelectionResult{
		Scores:    scores,
		Reasoning: wire.Reasoning,
		Adoptions: filterAdoptions(wire.PartialAdoptions, submitted),
	}

	if _, ok := scores[wire.Winner]; ok {
		sel.Winner = wire.Winner
		return sel
	}

	// Declared winner missing or unscored; take the highest valid score.
	// Ties resolve by submission order so the verdict stays deterministic.
	best := ""
	bestScore := math.Inf(-1)
	for _, res := range successes {
		if v, ok := scores[res.Director]; ok && v > bestScore {
			best = res.Director
			bestScore = v
		}
	}
	if best != "" {
		sel.Winner = best
		sel.Degraded = true
		return sel
	}

	// No numerically valid score at all.
	first := successes[0].Director
	sel.Winner = first
	sel.Scores = map[string]float64{first: 0}
	sel.Degraded = true
	return sel
}

// numericScore coerces a raw score into a bounded float. Values outside
// 0-100 are clamped; non-numeric values are rejected.
func numericScore(raw any) (float64, bool) {
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	if v > 100 {
		return 100, true
	}
	return v, true
}

func filterAdoptions(adoptions []PartialAdoption, submitted map[string]bool) []PartialAdoption {
	var out []PartialAdoption
	for _, a := range adoptions {
		if a.Source == "" || a.Element == "" || !submitted[a.Source] {
			continue
		}
		out = append(out, a)
	}
	return out
}
