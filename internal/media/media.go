// Package media dispatches phase results to the external media-processing
// collaborators (audio analysis, image synthesis, video composition). The
// collaborators are opaque capabilities; this package only shapes their
// input and applies the standard retry/timeout policy to their failures.
package media

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mferrall/showrunner/internal/llm"
)

// Kind identifies one collaborator capability.
type Kind string

const (
	KindAudioAnalysis    Kind = "audio_analysis"
	KindImageSynthesis   Kind = "image_synthesis"
	KindVideoComposition Kind = "video_composition"
)

// ErrNotConfigured is returned when no collaborator is registered for a
// kind. Callers treat it as "nothing to do", not a failure.
var ErrNotConfigured = errors.New("no collaborator configured")

// Request carries a phase's accepted result to a collaborator.
type Request struct {
	SessionID string
	Phase     int
	PhaseName string
	Payload   string            // the phase's winning result
	Params    map[string]string // collaborator-specific parameters
}

// Result is a collaborator's output reference.
type Result struct {
	URI    string // where the produced artifact lives
	Detail string
}

// Collaborator is the narrow call surface of one media service.
type Collaborator interface {
	Submit(ctx context.Context, req Request) (*Result, error)
}

// Config bounds collaborator calls, mirroring the proposal call policy.
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// Dispatcher routes requests to registered collaborators with retries.
type Dispatcher struct {
	collaborators map[Kind]Collaborator
	cfg           Config
	logger        *zap.Logger
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
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
	return &Dispatcher{
		collaborators: make(map[Kind]Collaborator),
		cfg:           cfg,
		logger:        logger,
	}
}

// Register wires a collaborator for a kind, replacing any previous one.
func (d *Dispatcher) Register(kind Kind, c Collaborator) {
	d.collaborators[kind] = c
}

// Dispatch submits a request to the collaborator for kind, retrying
// transient failures with backoff.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, req Request) (*Result, error) {
	c, ok := d.collaborators[kind]
	if !ok {
		return nil, ErrNotConfigured
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		result, err := c.Submit(callCtx, req)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if !llm.IsTransient(err) || ctx.Err() != nil || attempt == d.cfg.MaxRetries {
			break
		}
		backoff := llm.Backoff(d.cfg.BackoffBase, d.cfg.BackoffCap, attempt)
		d.logger.Debug("collaborator call failed, retrying",
			zap.String("kind", string(kind)),
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
	return nil, lastErr
}
