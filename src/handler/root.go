package handler

import (
	"log/slog"
	"os"

	"splitics/src/utils"

	"github.com/spf13/cobra"
)

// Build the root command with every sub-command registered.
func Root(as *utils.AppState) *cobra.Command {
	var (
		verbose     bool
		metricsFile string
	)
	root := &cobra.Command{
		Use:   "splitics",
		Short: "Split text files into chunks and list iCalendar events",
		// errors are logged by main
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				as.Config.SetLogLevel(slog.LevelDebug)
				slog.SetDefault(utils.NewLogger(os.Stderr, slog.LevelDebug))
			}
			if cmd.Flags().Changed("metrics-file") {
				as.Config.SetMetricsFile(metricsFile)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", as.Config.GetMetricsFile(), "write run metrics to this file (Prometheus textfile format)")

	Split(as, root)
	IcsReport(as, root)

	return root
}
