package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const configTemplate = `schema_version: 1

project:
  name: %s
  workspace: .showrunner

# Each director is one proposal voice. Weights steer the executive-producer
# pass and must sum to 1.0.
directors:
  - name: visionary
    style: "Bold, surreal imagery. Prioritize a single unforgettable visual idea over literal storytelling."
    weight: 0.2
  - name: storyteller
    style: "Character-driven narrative arcs. Every section must advance an emotional throughline."
    weight: 0.2
  - name: choreographer
    style: "Movement and rhythm first. Cut timing, camera motion and performance synced to the beat grid."
    weight: 0.2
  - name: minimalist
    style: "Few locations, restrained palette, negative space. Let the track breathe."
    weight: 0.2
  - name: crowdpleaser
    style: "Broad emotional appeal and replay value. Hooks the viewer in the first five seconds."
    weight: 0.2

models:
  proposal: gemini-2.5-pro
  evaluation: gemini-2.5-flash

loop:
  score_threshold: 80
  max_iterations: 3
  max_failed_rounds: 3

calls:
  timeout: 180s
  max_retries: 3
  backoff_base: 1s
  backoff_cap: 8s
  max_concurrency: 5

logging:
  debug: false
`

func newInitCmd(flags *rootFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(flags.configPath); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", flags.configPath)
			}
			content := fmt.Sprintf(configTemplate, name)
			if err := os.WriteFile(flags.configPath, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Wrote %s\n", flags.configPath)
			fmt.Println("Set GEMINI_API_KEY (or put it in .env), then: showrunner run \"your brief\"")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "my-production", "project name")
	return cmd
}
