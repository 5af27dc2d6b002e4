package handler

import (
	"fmt"
	"log/slog"

	"splitics/src/splitter"
	"splitics/src/utils"

	"github.com/spf13/cobra"
)

type splitFlags struct {
	preamble  string
	size      int
	outputDir string
	keepGoing bool
}

// Register the `split` command on root.
func Split(as *utils.AppState, root *cobra.Command) {
	flags := &splitFlags{}
	cmd := &cobra.Command{
		Use:   "split [flags] FILE...",
		Short: "Split text files into numbered chunks, each starting with a preamble",
		Example: `  splitics split -p header.csv -s 100 data.csv
  splitics split --output-dir out --keep-going a.log b.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: splitHandler(as, flags),
	}
	cmd.Flags().StringVarP(&flags.preamble, "preamble", "p", "", "file written at the top of every chunk")
	cmd.Flags().IntVarP(&flags.size, "size", "s", as.Config.GetSplitSize(), "maximum number of lines per chunk, preamble excluded")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "directory for the chunks (default: next to each input)")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "process the remaining inputs after one fails")
	root.AddCommand(cmd)
}

func splitHandler(as *utils.AppState, flags *splitFlags) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if flags.size <= 0 {
			return fmt.Errorf("--size must be a positive number of lines, got %d", flags.size)
		}

		preamble := []string{}
		if flags.preamble != "" {
			var err error
			preamble, err = splitter.LoadPreamble(flags.preamble)
			if err != nil {
				slog.Error("can't read preamble, continuing without it", "path", flags.preamble, "error", err)
			} else {
				slog.Debug("preamble loaded", "path", flags.preamble, "lines", len(preamble))
			}
		}

		s, err := splitter.New(splitter.Options{
			MaxLines:  flags.size,
			Preamble:  preamble,
			OutputDir: flags.outputDir,
			KeepGoing: flags.keepGoing,
		}, as.Metric)
		if err != nil {
			return err
		}

		results, err := s.Run(args)
		if err != nil {
			failed := 0
			for _, result := range results {
				if result.Err != nil {
					failed++
				}
			}
			return fmt.Errorf("%d of %d input(s) failed: %w", failed, len(results), err)
		}
		slog.Info("done", "inputs", len(results))
		return nil
	}
}
