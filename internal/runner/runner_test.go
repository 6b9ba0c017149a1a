package runner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferrall/showrunner/internal/llm"
	"github.com/mferrall/showrunner/internal/persona"
)

func directors(names ...string) []persona.Director {
	ds := make([]persona.Director, len(names))
	for i, n := range names {
		ds[i] = persona.Director{Name: n, Style: "style of " + n}
	}
	return ds
}

func fastConfig() Config {
	return Config{
		Timeout:     200 * time.Millisecond,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
		BackoffCap:  4 * time.Millisecond,
	}
}

func TestRunAllReturnsOneResultPerDirectorInOrder(t *testing.T) {
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "proposal"}, nil
	})
	r := New(client, fastConfig(), nil)

	ds := directors("a", "b", "c", "d", "e")
	results := r.RunAll(context.Background(), ds, persona.PromptInput{PhaseName: "concept"})

	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, ds[i].Name, res.Director)
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.Attempts)
	}
}

func TestRunAllReportsTokenUsage(t *testing.T) {
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "proposal", TokensUsed: 120}, nil
	})
	r := New(client, fastConfig(), nil)

	results := r.RunAll(context.Background(), directors("a", "b"), persona.PromptInput{})

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, 120, res.TokensUsed)
	}
}

func TestRunAllAllFailuresStillYieldAllResults(t *testing.T) {
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return nil, llm.Transient("call", errors.New("service down"))
	})
	r := New(client, fastConfig(), nil)

	results := r.RunAll(context.Background(), directors("a", "b", "c"), persona.PromptInput{})

	require.Len(t, results, 3)
	for _, res := range results {
		assert.False(t, res.Success)
		assert.Contains(t, res.FailureDetail, "service down")
		assert.Equal(t, 3, res.Attempts)
	}
}

func TestRunAllRespectsConcurrencyCap(t *testing.T) {
	var inFlight, peak int64
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return &llm.Response{Text: "ok"}, nil
	})

	cfg := fastConfig()
	cfg.MaxConcurrency = 2
	r := New(client, cfg, nil)

	results := r.RunAll(context.Background(), directors("a", "b", "c", "d", "e", "f"), persona.PromptInput{})
	require.Len(t, results, 6)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestRetryThenSuccess(t *testing.T) {
	var calls int64
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		if atomic.AddInt64(&calls, 1) < 3 {
			return nil, llm.Transient("call", errors.New("flaky"))
		}
		return &llm.Response{Text: "third time lucky"}, nil
	})
	r := New(client, fastConfig(), nil)

	results := r.RunAll(context.Background(), directors("solo"), persona.PromptInput{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 3, results[0].Attempts)
}

func TestPermanentErrorNotRetried(t *testing.T) {
	var calls int64
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		atomic.AddInt64(&calls, 1)
		return nil, llm.Permanent("call", errors.New("invalid credentials"))
	})
	r := New(client, fastConfig(), nil)

	results := r.RunAll(context.Background(), directors("solo"), persona.PromptInput{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, 1, results[0].Attempts)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestSingleDirectorTimeoutDoesNotAbortBatch(t *testing.T) {
	// Director "slow" stalls past the per-call timeout on every try; the
	// other directors answer normally.
	client := llm.InvokeFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		if strings.Contains(req.Prompt, "style of slow") {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &llm.Response{Text: "ok"}, nil
	})

	cfg := fastConfig()
	cfg.Timeout = 30 * time.Millisecond
	r := New(client, cfg, nil)

	results := r.RunAll(context.Background(), directors("a", "slow", "b"), persona.PromptInput{})
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, 3, results[1].Attempts)
	assert.True(t, results[2].Success)
}
