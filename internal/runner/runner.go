// Package runner invokes every director concurrently for one round,
// bounding concurrency and retrying transient failures per call.
package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mferrall/showrunner/internal/llm"
	"github.com/mferrall/showrunner/internal/persona"
)

// Config bounds the external calls one round may make.
type Config struct {
	Timeout        time.Duration // hard per-call timeout
	MaxRetries     int           // total tries per director, not extra retries
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	MaxConcurrency int // 0 means one slot per director
	Model          string
}

// AgentResult is one director's outcome for a round. The runner returns
// exactly one per director, in roster order, no matter what failed.
type AgentResult struct {
	Director      string
	Output        string
	Success       bool
	FailureDetail string
	Attempts      int
	TokensUsed    int
	Duration      time.Duration
}

// Runner fans proposal calls out through the invocation client.
type Runner struct {
	client llm.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Runner. Zero config fields get conservative defaults.
func New(client llm.Client, cfg Config, logger *zap.Logger) *Runner {
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
	return &Runner{client: client, cfg: cfg, logger: logger}
}

// RunAll invokes every director concurrently under the concurrency gate
// and returns one result per director in input order. Individual failures
// degrade to failed results; they never abort the batch.
func (r *Runner) RunAll(ctx context.Context, directors []persona.Director, in persona.PromptInput) []AgentResult {
	limit := int64(r.cfg.MaxConcurrency)
	if limit < 1 {
		limit = int64(len(directors))
	}
	sem := semaphore.NewWeighted(limit)

	results := make([]AgentResult, len(directors))
	var wg sync.WaitGroup
	for i, d := range directors {
		wg.Add(1)
		go func(i int, d persona.Director) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = AgentResult{Director: d.Name, FailureDetail: err.Error()}
				return
			}
			defer sem.Release(1)
			results[i] = r.invoke(ctx, d, in)
		}(i, d)
	}
	wg.Wait()

	return results
}

func (r *Runner) invoke(ctx context.Context, d persona.Director, in persona.PromptInput) AgentResult {
	start := time.Now()
	req := llm.Request{
		System: persona.DirectorSystemPrompt(),
		Prompt: persona.ProposalPrompt(d, in),
		Model:  r.cfg.Model,
	}

	var lastErr error
	tries := 0
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		tries = attempt
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		resp, err := r.client.Invoke(callCtx, req)
		cancel()

		if err == nil {
			return AgentResult{
				Director:   d.Name,
				Output:     resp.Text,
				Success:    true,
				Attempts:   attempt,
				TokensUsed: resp.TokensUsed,
				Duration:   time.Since(start),
			}
		}
		lastErr = err

		if !llm.IsTransient(err) || ctx.Err() != nil || attempt == r.cfg.MaxRetries {
			break
		}

		backoff := llm.Backoff(r.cfg.BackoffBase, r.cfg.BackoffCap, attempt)
		r.logger.Debug("proposal call failed, retrying",
			zap.String("director", d.Name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}

	r.logger.Warn("director call exhausted retries",
		zap.String("director", d.Name),
		zap.Error(lastErr))

	return AgentResult{
		Director:      d.Name,
		FailureDetail: lastErr.Error(),
		Attempts:      tries,
		Duration:      time.Since(start),
	}
}
