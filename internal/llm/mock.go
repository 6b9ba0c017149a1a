package llm

import (
	"context"
	"sync"
	"time"
)

// InvokeFunc adapts a function to the Client interface.
type InvokeFunc func(ctx context.Context, req Request) (*Response, error)

func (f InvokeFunc) Invoke(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// ScriptedStep is one canned outcome for a ScriptedClient call.
type ScriptedStep struct {
	Text   string
	Tokens int
	Err    error
	Delay  time.Duration // simulated call latency, interruptible by ctx
}

// ScriptedClient returns pre-scripted responses in order, for tests.
// When the script is exhausted the last step repeats. Safe for concurrent use.
type ScriptedClient struct {
	mu       sync.Mutex
	steps    []ScriptedStep
	calls    int
	requests []Request
}

// NewScriptedClient creates a ScriptedClient with the given script.
func NewScriptedClient(steps ...ScriptedStep) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

func (c *ScriptedClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	c.mu.Lock()
	step := ScriptedStep{}
	if len(c.steps) > 0 {
		i := c.calls
		if i >= len(c.steps) {
			i = len(c.steps) - 1
		}
		step = c.steps[i]
	}
	c.calls++
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if step.Delay > 0 {
		select {
		case <-time.After(step.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if step.Err != nil {
		return nil, step.Err
	}
	return &Response{Text: step.Text, TokensUsed: step.Tokens}, nil
}

// Calls returns how many times Invoke was called.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Requests returns a copy of every request seen so far, in call order.
func (c *ScriptedClient) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.requests))
	copy(out, c.requests)
	return out
}
