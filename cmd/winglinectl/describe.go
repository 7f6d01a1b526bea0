package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HappyEinara/wingline/pipeline"
)

var describeCmd = &cobra.Command{
	Use:   "describe <input>",
	Short: "Print a single-file pipeline's stage graph as JSON",
	Long: `Describe builds a trivial tap-only pipeline over the input file and
prints its graph dict (§4.1's dict()) as indented JSON, useful for
confirming how a file's container and format were detected.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	settings := effectiveSettings()
	logger := buildLogger(settings)
	defer logger.Sync()

	p, err := pipeline.FromFile(args[0], pipeline.WithLogger(logger), pipeline.WithQueueCapacity(settings.QueueCapacity))
	if err != nil {
		return fmt.Errorf("winglinectl describe: %w", err)
	}

	b, err := json.MarshalIndent(p.Dict(), "", "  ")
	if err != nil {
		return fmt.Errorf("winglinectl describe: %w", err)
	}
	fmt.Println(string(b))
	return nil
}
