package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mferrall/showrunner/internal/config"
	"github.com/mferrall/showrunner/internal/evaluator"
	"github.com/mferrall/showrunner/internal/llm"
	"github.com/mferrall/showrunner/internal/locks"
	"github.com/mferrall/showrunner/internal/media"
	"github.com/mferrall/showrunner/internal/persona"
	"github.com/mferrall/showrunner/internal/pipeline"
	"github.com/mferrall/showrunner/internal/runner"
	"github.com/mferrall/showrunner/internal/session"
	"github.com/mferrall/showrunner/internal/ui"
	"github.com/mferrall/showrunner/internal/workspace"
)

// app holds the wired pipeline components for one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *session.Store
	locks  *locks.Manager
	roster *persona.Roster
	orch   *pipeline.Orchestrator
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := llm.NewGenAIClient(ctx, apiKey, cfg.Models.Proposal)
	if err != nil {
		return nil, err
	}

	roster, err := persona.NewRoster(cfg.Directors)
	if err != nil {
		return nil, err
	}

	r := runner.New(client, runner.Config{
		Timeout:        cfg.Calls.Timeout,
		MaxRetries:     cfg.Calls.MaxRetries,
		BackoffBase:    cfg.Calls.BackoffBase,
		BackoffCap:     cfg.Calls.BackoffCap,
		MaxConcurrency: cfg.Calls.MaxConcurrency,
		Model:          cfg.Models.Proposal,
	}, logger)

	e := evaluator.New(client, evaluator.Config{
		Timeout:     cfg.Calls.Timeout,
		MaxRetries:  cfg.Calls.MaxRetries,
		BackoffBase: cfg.Calls.BackoffBase,
		BackoffCap:  cfg.Calls.BackoffCap,
		Model:       cfg.Models.Evaluation,
	}, roster.Weights(), logger)

	loop := pipeline.NewLoop(r, e, roster, cfg.Loop, logger)

	if err := workspace.Ensure(cfg.Project.Workspace); err != nil {
		return nil, err
	}
	sessionsDir, locksDir, mediaDir := workspace.Layout(cfg.Project.Workspace)
	store := session.NewStore(sessionsDir)
	lockMgr := locks.NewManager(locksDir)
	if err := lockMgr.CleanStale(); err != nil {
		logger.Warn("stale lock cleanup failed", zap.Error(err))
	}

	dispatcher := media.NewDispatcher(media.Config{
		Timeout:     cfg.Calls.Timeout,
		MaxRetries:  cfg.Calls.MaxRetries,
		BackoffBase: cfg.Calls.BackoffBase,
		BackoffCap:  cfg.Calls.BackoffCap,
	}, logger)
	for _, kind := range []media.Kind{media.KindAudioAnalysis, media.KindImageSynthesis, media.KindVideoComposition} {
		dispatcher.Register(kind, media.NewFileSink(mediaDir, kind))
	}

	orch := pipeline.New(store, loop, dispatcher, logger)
	orch.SetProgress(func(spec pipeline.PhaseSpec, round pipeline.IterationResult) {
		fmt.Println(ui.FormatRound(ui.RoundState{
			Phase:     spec.Name,
			Iteration: round.Iteration,
			MaxRounds: cfg.Loop.MaxIterations,
			Winner:    round.Selection.Winner,
			Score:     round.Score,
			StartTime: round.StartedAt,
		}))
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		locks:  lockMgr,
		roster: roster,
		orch:   orch,
	}, nil
}

// sessionStore builds just the store, for commands that only read state.
func sessionStore(cfg *config.Config) *session.Store {
	sessionsDir, _, _ := workspace.Layout(cfg.Project.Workspace)
	return session.NewStore(sessionsDir)
}

func uiPhases() []ui.PhaseSpec {
	specs := pipeline.Phases()
	out := make([]ui.PhaseSpec, len(specs))
	for i, s := range specs {
		out[i] = ui.PhaseSpec{Number: s.Number, Name: s.Name}
	}
	return out
}
