package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mferrall/showrunner/internal/pipeline"
	"github.com/mferrall/showrunner/internal/ui"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a session's phase progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			sess, err := sessionStore(cfg).Load(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Session: %s\n", sess.SessionID)
			fmt.Printf("Brief:   %s\n", sess.Brief)
			fmt.Printf("Created: %s\n\n", sess.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Print(ui.FormatPhaseTable(sess, uiPhases()))

			next := pipeline.FirstIncomplete(sess)
			if next > pipeline.LastPhase() {
				fmt.Println("\nAll phases complete.")
			} else {
				spec, err := pipeline.PhaseByNumber(next)
				if err != nil {
					return err
				}
				fmt.Printf("\nNext phase: %d (%s). Resume with: showrunner resume %s\n", next, spec.Name, sess.SessionID)
			}
			return nil
		},
	}
}
