package handler

import (
	"fmt"
	"log/slog"
	"time"

	"splitics/src/ical"
	"splitics/src/model"
	"splitics/src/report"
	"splitics/src/utils"

	"github.com/spf13/cobra"
)

type icsFlags struct {
	expand  bool
	from    string
	to      string
	tz      string
	showUID bool
}

// Register the `ics` command on root.
func IcsReport(as *utils.AppState, root *cobra.Command) {
	flags := &icsFlags{}
	cmd := &cobra.Command{
		Use:   "ics [flags] ICS_FILE [OUTPUT_FILE]",
		Short: "Print the events of an iCalendar file, sorted by date and time",
		Example: `  splitics ics calendar.ics
  splitics ics --expand --from today --to "in 2 weeks" calendar.ics agenda.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: icsHandler(as, flags),
	}
	cmd.Flags().BoolVar(&flags.expand, "expand", false, "replace recurring events by their occurrences")
	cmd.Flags().StringVar(&flags.from, "from", "", "only list events starting at or after this date (RFC 3339, YYYY-MM-DD or natural language)")
	cmd.Flags().StringVar(&flags.to, "to", "", "only list events starting at or before this date")
	cmd.Flags().StringVar(&flags.tz, "tz", "", "time zone for all-day and floating values (default: TIMEZONE or local)")
	cmd.Flags().BoolVar(&flags.showUID, "show-uid", false, "add the event UID to the report")
	root.AddCommand(cmd)
}

func icsHandler(as *utils.AppState, flags *icsFlags) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		icsPath := args[0]
		outputPath := ""
		if len(args) == 2 {
			outputPath = args[1]
		}

		// #region - validate flags before touching any file
		if flags.tz != "" {
			loc, err := time.LoadLocation(flags.tz)
			if err != nil {
				return fmt.Errorf("unknown --tz %q: %w", flags.tz, err)
			}
			as.Config.SetLocation(loc)
		}
		loc := as.Config.GetLocation()

		now := time.Now()
		window, err := parseWindow(as, flags, now, loc)
		if err != nil {
			return err
		}
		// #endregion

		slog.Info("parsing and processing", "path", icsPath)
		calendar, err := ical.FromIcalFile(icsPath)
		if err != nil {
			return fmt.Errorf("can't read calendar %s: %w", icsPath, err)
		}
		as.Metric.AddIcsEvents(len(calendar.GetEvents()))
		slog.Debug("calendar parsed",
			"id", calendar.GetID(),
			"name", calendar.GetName(),
			"description", calendar.GetDescription(),
			"events", utils.FormatCount(len(calendar.GetEvents())))

		// without --tz or TIMEZONE the calendar's own zone is used
		if !as.Config.IsLocationSet() {
			if calLoc, ok := calendar.GetLocation(); ok {
				slog.Debug("using calendar timezone", "timezone", calendar.GetTimezone())
				as.Config.SetLocation(calLoc)
				loc = calLoc
				// date bounds are read in the display zone
				if window, err = parseWindow(as, flags, now, loc); err != nil {
					return err
				}
			}
		}

		staticEvents := calendar.ToStaticEvents(ical.ExpandOptions{
			Expand:   flags.expand,
			From:     window.From,
			To:       window.To,
			Horizon:  as.Config.GetExpandHorizon(),
			Location: loc,
		})

		// #region - sort and filter through the event index
		ctx := cmd.Context()
		idx, err := model.OpenEventIndex(ctx, loc, as.Config.GetLogLevel() <= slog.LevelDebug)
		if err != nil {
			return err
		}
		defer idx.Close()
		if err := idx.Insert(ctx, staticEvents); err != nil {
			return err
		}
		events, err := idx.List(ctx, window)
		if err != nil {
			return err
		}
		// #endregion

		text := report.Render(events, report.Options{
			Source:  icsPath,
			ShowUID: flags.showUID,
		})
		as.Metric.AddIcsReportEvents(len(events))

		if outputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}
		if err := report.Write(outputPath, text); err != nil {
			return err
		}
		slog.Info("successfully extracted events", "path", outputPath, "events", utils.FormatCount(len(events)))
		return nil
	}
}

func parseWindow(as *utils.AppState, flags *icsFlags, now time.Time, loc *time.Location) (model.Range, error) {
	var window model.Range
	if flags.from != "" {
		from, err := utils.ParseDateBound(as.When, flags.from, now, loc)
		if err != nil {
			return window, fmt.Errorf("invalid --from: %w", err)
		}
		window.From = from
	}
	if flags.to != "" {
		to, err := utils.ParseDateBound(as.When, flags.to, now, loc)
		if err != nil {
			return window, fmt.Errorf("invalid --to: %w", err)
		}
		window.To = to
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return window, fmt.Errorf("--to (%s) is before --from (%s)", window.To.Format(time.RFC3339), window.From.Format(time.RFC3339))
	}
	return window, nil
}
