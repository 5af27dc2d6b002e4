package metric

import (
	"fmt"
	"log/slog"

	"splitics/src/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Create the run registry and its counters, and hang them on the app state.
func Init(as *utils.AppState) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	as.Metric = &utils.Metric{
		Registry: reg,
		SplitInputFiles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitics_split_input_files_total",
			Help: "Input files processed by split, by result",
		}, []string{"result"}),
		SplitLines: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitics_split_lines_total",
			Help: "Content lines copied into chunks",
		}),
		SplitChunks: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitics_split_chunks_total",
			Help: "Chunk files created",
		}),
		IcsEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitics_ics_events_total",
			Help: "VEVENT components parsed",
		}),
		IcsReportEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitics_ics_report_events_total",
			Help: "Events written to the report, occurrences included",
		}),
	}
	// both label values exist from the start
	as.Metric.SplitInputFiles.WithLabelValues("ok")
	as.Metric.SplitInputFiles.WithLabelValues("error")
	slog.Debug("metrics registered")
}

// Write the registry in the textfile collector format to the configured
// METRICS_FILE. No-op when none is configured.
func WriteTextfile(as *utils.AppState) error {
	path := as.Config.GetMetricsFile()
	if path == "" || as.Metric == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, as.Metric.Registry); err != nil {
		return fmt.Errorf("WriteTextfile: %w", err)
	}
	slog.Debug("metrics written", "path", path)
	return nil
}
