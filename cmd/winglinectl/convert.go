package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HappyEinara/wingline/pipeline"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a record file between containers and formats",
	Long: `Convert reads the input file, detecting its container and format from
magic bytes and/or its filename suffix, and writes every record straight
through to the output file, whose own suffix determines its container
and format.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("with-cache", false, "route the conversion through the stage cache (mostly useful for exercising --cache-dir)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	settings := effectiveSettings()
	logger := buildLogger(settings)
	defer logger.Sync()

	var opts []pipeline.Option
	opts = append(opts, pipeline.WithLogger(logger), pipeline.WithQueueCapacity(settings.QueueCapacity))
	withCache, _ := cmd.Flags().GetBool("with-cache")
	if withCache && settings.CacheDir != "" {
		opts = append(opts, pipeline.WithCacheDir(settings.CacheDir, settings.CacheMemEntries))
	}

	p, err := pipeline.FromFile(src, opts...)
	if err != nil {
		return fmt.Errorf("winglinectl convert: %w", err)
	}
	if err := p.Write(dst).Run(); err != nil {
		return fmt.Errorf("winglinectl convert: %w", err)
	}

	fmt.Printf("wrote %s -> %s\n", src, dst)
	return nil
}
