package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mferrall/showrunner/internal/pipeline"
	"github.com/mferrall/showrunner/internal/ui"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "run \"creative brief\"",
		Short: "Start a new production session from a creative brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}

			sess, err := a.store.Create(args[0])
			if err != nil {
				return err
			}
			if err := a.locks.Acquire(sess.SessionID); err != nil {
				return err
			}
			defer a.locks.Release(sess.SessionID)

			fmt.Printf("showrunner %s\n", version)
			fmt.Printf("Project:   %s\n", cfg.Project.Name)
			fmt.Printf("Session:   %s\n", sess.SessionID)
			fmt.Printf("Directors: %s\n", strings.Join(a.roster.Names(), ", "))
			fmt.Printf("Phases:    %d..%d\n\n", from, to)

			start := time.Now()
			runErr := a.orch.RunPipeline(ctx, sess, from, to)

			final, loadErr := a.store.Load(sess.SessionID)
			if loadErr == nil {
				fmt.Print(ui.FormatPhaseTable(final, uiPhases()))
				fmt.Print(ui.FormatSummary(ui.Summarize(final, uiPhases(), time.Since(start))))
			}
			if runErr != nil {
				if errors.Is(runErr, pipeline.ErrPhaseFailed) {
					fmt.Fprintf(os.Stderr, "\nRun halted: %v\n", runErr)
					fmt.Fprintf(os.Stderr, "Resume with: showrunner resume %s\n", sess.SessionID)
				}
				return runErr
			}
			fmt.Printf("\nDone. Resume or inspect with: showrunner status %s\n", sess.SessionID)
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", pipeline.FirstPhase(), "first phase to run")
	cmd.Flags().IntVar(&to, "to", pipeline.LastPhase(), "last phase to run")
	return cmd
}
