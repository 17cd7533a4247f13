package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/meterimport/internal/bloodsugar"
	"github.com/jwulff/meterimport/internal/ingest"
	"github.com/jwulff/meterimport/internal/render"
	"github.com/jwulff/meterimport/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse a meter export and store its readings",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}

	cmd.Flags().Bool("dry-run", false, "Parse and print without storing")
	cmd.Flags().StringP("format", "f", "text", "Output format: text or json")
	cmd.Flags().Bool("mmol", false, "Show values in mmol/L")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")
	mmol, _ := cmd.Flags().GetBool("mmol")
	if format != "text" && format != "json" {
		exitErr("flags", errors.Newf("unknown output format %q", format))
	}

	cfg, logger := setup()
	defer logger.Sync()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read file", err)
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		exitErr("configure engine", err)
	}

	var st storage.Store
	if !dryRun {
		s, err := openStore(cfg)
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()
		st = s
	}

	progress := func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), msg) }
	report, err := importReadings(cmd.Context(), engine, st, logger, args[0], string(raw), progress)
	if err != nil {
		exitErr("store readings", err)
	}

	if format == "json" {
		err = writeImportJSON(cmd.OutOrStdout(), report)
	} else {
		writeImportText(cmd.OutOrStdout(), report, mmol)
	}
	if err != nil {
		exitErr("write output", err)
	}
	if !report.Result.Success() {
		os.Exit(1)
	}
}

// importReport is the outcome of importing one file.
type importReport struct {
	Path   string
	Result ingest.Result
	IDs    []string // empty on dry runs
}

// importReadings ingests raw and, when st is non-nil, uploads the readings.
// An ingestion failure is reported in the result, not as an error.
func importReadings(ctx context.Context, engine *ingest.Engine, st storage.Store, logger *zap.Logger, path, raw string, progress ingest.ProgressFunc) (importReport, error) {
	report := importReport{Path: path}
	report.Result = engine.IngestWithProgress(raw, progress)
	if !report.Result.Success() {
		logger.Warn("import failed", zap.String("file", path), zap.String("reason", report.Result.Reason))
		return report, nil
	}
	if report.Result.SyntheticTimestamps() {
		logger.Warn("no timestamps found, readings are spaced one hour apart ending now", zap.String("file", path))
	}
	if st == nil {
		return report, nil
	}

	ids, err := st.UploadBatch(ctx, report.Result.Readings)
	if err != nil {
		return report, errors.Wrapf(err, "upload %d readings", len(report.Result.Readings))
	}
	report.IDs = ids
	logger.Info("stored readings",
		zap.String("file", path),
		zap.String("format", string(report.Result.Format)),
		zap.Int("count", len(ids)))
	return report, nil
}

func writeImportText(w io.Writer, report importReport, mmol bool) {
	res := report.Result
	if !res.Success() {
		fmt.Fprintf(w, "%s: %s\n", report.Path, res.Reason)
		return
	}

	fmt.Fprintf(w, "File:     %s\n", report.Path)
	fmt.Fprintf(w, "Format:   %s\n", res.Format)
	fmt.Fprintf(w, "Stage:    %s\n", res.Stage)
	fmt.Fprintf(w, "Readings: %d\n", len(res.Readings))
	if len(report.IDs) > 0 {
		fmt.Fprintf(w, "Stored:   %d\n", len(report.IDs))
	}
	if res.SyntheticTimestamps() {
		fmt.Fprintln(w, "Warning:  no dates found; timestamps are synthetic")
	}
	fmt.Fprintln(w)
	for _, r := range res.Readings {
		writeReadingLine(w, r, mmol)
	}
}

func writeReadingLine(w io.Writer, r bloodsugar.Reading, mmol bool) {
	fmt.Fprintf(w, "%s  %-11s  %-9s  %s\n",
		r.Timestamp.Format("2006-01-02 15:04"),
		render.FormatGlucose(r.Value, mmol),
		bloodsugar.ClassifyRange(r.Value),
		r.Meal)
}

type jsonReading struct {
	ID        string  `json:"id,omitempty"`
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value_mgdl"`
	Meal      string  `json:"meal"`
	Range     string  `json:"range"`
}

type jsonImport struct {
	OK        bool          `json:"ok"`
	File      string        `json:"file"`
	Format    string        `json:"format"`
	Stage     string        `json:"stage,omitempty"`
	Synthetic bool          `json:"synthetic_timestamps,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Readings  []jsonReading `json:"readings"`
}

func writeImportJSON(w io.Writer, report importReport) error {
	res := report.Result
	out := jsonImport{
		OK:        res.Success(),
		File:      report.Path,
		Format:    string(res.Format),
		Stage:     string(res.Stage),
		Synthetic: res.SyntheticTimestamps(),
		Reason:    res.Reason,
		Readings:  make([]jsonReading, 0, len(res.Readings)),
	}
	for i, r := range res.Readings {
		jr := jsonReading{
			Timestamp: r.Timestamp.Format(time.RFC3339),
			Value:     r.Value,
			Meal:      string(r.Meal),
			Range:     string(bloodsugar.ClassifyRange(r.Value)),
		}
		if i < len(report.IDs) {
			jr.ID = report.IDs[i]
		}
		out.Readings = append(out.Readings, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
