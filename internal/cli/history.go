package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jwulff/meterimport/internal/bloodsugar"
	"github.com/jwulff/meterimport/internal/render"
	"github.com/jwulff/meterimport/internal/storage"
)

const defaultHistoryWindow = 24 * time.Hour

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored readings in a time range",
		Run:   runHistory,
	}

	cmd.Flags().String("since", "", "Start time, RFC3339 (default: 24h before --until)")
	cmd.Flags().String("until", "", "End time, RFC3339 (default: now)")
	cmd.Flags().Bool("mmol", false, "Show values in mmol/L")
	cmd.Flags().Int("chart", 48, "Sparkline width in columns, 0 to hide")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	mmol, _ := cmd.Flags().GetBool("mmol")
	chartWidth, _ := cmd.Flags().GetInt("chart")

	start, end, err := historyRange(sinceStr, untilStr, time.Now())
	if err != nil {
		exitErr("flags", err)
	}

	cfg, logger := setup()
	defer logger.Sync()

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := writeHistory(cmd.Context(), cmd.OutOrStdout(), s, start, end, mmol, chartWidth); err != nil {
		exitErr("history", err)
	}
}

// historyRange resolves --since and --until against now.
func historyRange(since, until string, now time.Time) (time.Time, time.Time, error) {
	end := now
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, errors.WithHint(errors.Wrap(err, "invalid --until"), "use RFC3339, e.g. 2024-01-15T08:00:00Z")
		}
		end = t
	}
	start := end.Add(-defaultHistoryWindow)
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, time.Time{}, errors.WithHint(errors.Wrap(err, "invalid --since"), "use RFC3339, e.g. 2024-01-15T08:00:00Z")
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, errors.Newf("--since %s is after --until %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

func writeHistory(ctx context.Context, w io.Writer, st storage.Store, start, end time.Time, mmol bool, chartWidth int) error {
	records, err := st.Read(ctx, start, end)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "No readings between %s and %s\n", start.Format(time.RFC3339), end.Format(time.RFC3339))
		return nil
	}

	readings := make([]bloodsugar.Reading, 0, len(records))
	for _, rec := range records {
		readings = append(readings, rec.Reading)
		writeReadingLine(w, rec.Reading, mmol)
	}

	sum := render.Summarize(readings)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Readings: %d  mean %s  min %s  max %s\n",
		sum.Count,
		render.FormatGlucose(sum.Mean, mmol),
		render.FormatGlucose(sum.Min, mmol),
		render.FormatGlucose(sum.Max, mmol))
	fmt.Fprintf(w, "Ranges:   %s\n", sum.RangeLine())
	if chartWidth > 0 {
		line := render.Sparkline(render.PointsFromReadings(readings), start, end, render.NewChartConfig(chartWidth))
		fmt.Fprintf(w, "Trend:    %s\n", line)
	}
	return nil
}
