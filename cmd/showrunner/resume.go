package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mferrall/showrunner/internal/pipeline"
	"github.com/mferrall/showrunner/internal/ui"
)

func newResumeCmd(flags *rootFlags) *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume an interrupted or failed session",
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

			sess, err := a.store.Load(args[0])
			if err != nil {
				return err
			}
			if err := a.locks.Acquire(sess.SessionID); err != nil {
				return err
			}
			defer a.locks.Release(sess.SessionID)

			start := from
			if start == 0 {
				start = pipeline.FirstIncomplete(sess)
				if start > pipeline.LastPhase() {
					fmt.Println("Session is already complete.")
					return nil
				}
			}

			fmt.Printf("showrunner %s\n", version)
			fmt.Printf("Session: %s\n", sess.SessionID)
			fmt.Printf("Brief:   %s\n", sess.Brief)
			fmt.Printf("Phases:  %d..%d\n\n", start, to)

			began := time.Now()
			runErr := a.orch.RunPipeline(ctx, sess, start, to)

			if final, loadErr := a.store.Load(sess.SessionID); loadErr == nil {
				fmt.Print(ui.FormatPhaseTable(final, uiPhases()))
				fmt.Print(ui.FormatSummary(ui.Summarize(final, uiPhases(), time.Since(began))))
			}
			return runErr
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "first phase to run (default: first incomplete)")
	cmd.Flags().IntVar(&to, "to", pipeline.LastPhase(), "last phase to run")
	return cmd
}
