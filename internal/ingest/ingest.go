// Package ingest turns glucose meter and CGM text exports into canonical
// readings. Parsing cascades from header-driven structured parsing through
// token heuristics to a last-resort number scan; a bad line never fails a file.
package ingest

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// File-level failures.
var (
	ErrEmptyFile  = errors.New("empty file")
	ErrNoReadings = errors.New("no valid glucose readings found")
)

// Stage names the parsing stage that produced a result.
type Stage string

const (
	StageNone       Stage = ""
	StageStructured Stage = "structured"
	StageHeuristic  Stage = "heuristic"
	StageLastResort Stage = "lastResort"
)

// Result is the outcome of ingesting one file. It is either a success
// carrying readings or a failure carrying a reason.
type Result struct {
	Readings []bloodsugar.Reading
	Format   VendorFormat
	Stage    Stage
	Reason   string

	err error
}

// Success reports whether the file produced readings.
func (r Result) Success() bool {
	return r.err == nil
}

// Err returns ErrEmptyFile or ErrNoReadings for failures, nil otherwise.
func (r Result) Err() error {
	return r.err
}

// SyntheticTimestamps reports whether the reading times were invented by
// the last-resort scanner rather than read from the file.
func (r Result) SyntheticTimestamps() bool {
	return r.Stage == StageLastResort
}

func failure(format VendorFormat, err error) Result {
	return Result{Format: format, Reason: err.Error(), err: err}
}

// ProgressFunc receives human-readable progress milestones.
type ProgressFunc func(msg string)

// Engine detects a file's format and parses it into readings.
// An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	resolver Resolver
	unit     UnitPolicy
	now      func() time.Time
	logger   *zap.Logger
	profiles map[VendorFormat]VendorProfile
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLocation sets the zone given to timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.resolver.Location = loc
		}
	}
}

// WithDayFirst makes ambiguous dates like 03/04/2024 read as 3 April.
func WithDayFirst(dayFirst bool) Option {
	return func(e *Engine) {
		e.resolver.DayFirst = dayFirst
	}
}

// WithUnitPolicy replaces the mmol/L detection policy.
func WithUnitPolicy(policy UnitPolicy) Option {
	return func(e *Engine) {
		if policy != nil {
			e.unit = policy
		}
	}
}

// WithClock sets the time source for last-resort synthetic timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithProfile overrides the built-in profile for profile.Format.
func WithProfile(profile VendorProfile) Option {
	return func(e *Engine) {
		e.profiles[profile.Format] = profile
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		resolver: NewResolver(time.Local),
		unit:     defaultPolicy,
		now:      time.Now,
		logger:   zap.NewNop(),
		profiles: DefaultProfiles(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest parses raw file text into readings.
func (e *Engine) Ingest(raw string) Result {
	return e.IngestWithProgress(raw, nil)
}

// IngestWithProgress is Ingest with progress milestones sent to progress,
// which may be nil.
func (e *Engine) IngestWithProgress(raw string, progress ProgressFunc) Result {
	report := func(format string, args ...any) {
		if progress != nil {
			progress(fmt.Sprintf(format, args...))
		}
	}

	report("Reading file...")
	lines := SplitLines(raw)
	if len(lines) == 0 {
		return failure(FormatUnknown, ErrEmptyFile)
	}

	report("Detecting file format...")
	format := DetectFormat(lines)
	e.logger.Debug("detected file format",
		zap.String("format", string(format)),
		zap.Int("lines", len(lines)))

	report("Parsing %s format...", format)
	readings, stage := e.parse(lines, e.profile(format))
	if len(readings) == 0 {
		e.logger.Debug("no readings from any stage", zap.String("format", string(format)))
		return failure(format, ErrNoReadings)
	}

	report("Found %d readings", len(readings))
	e.logger.Debug("parsed readings",
		zap.String("format", string(format)),
		zap.String("stage", string(stage)),
		zap.Int("count", len(readings)))
	return Result{Readings: readings, Format: format, Stage: stage}
}

// DetectFormat returns the vendor format of raw file text.
func (e *Engine) DetectFormat(raw string) VendorFormat {
	return DetectFormat(SplitLines(raw))
}

func (e *Engine) profile(format VendorFormat) VendorProfile {
	if p, ok := e.profiles[format]; ok {
		return p
	}
	return VendorProfile{Format: format, DateOnlyHour: DefaultDateOnlyHour}
}

func (e *Engine) parserFor(profile VendorProfile) Parser {
	res := e.resolver
	res.DateOnlyHour = profile.DateOnlyHour
	return NewParser(res, e.unit).withClock(e.now)
}

// parse runs the fallback cascade and returns the first non-empty stage.
func (e *Engine) parse(lines []string, profile VendorProfile) ([]bloodsugar.Reading, Stage) {
	p := e.parserFor(profile)
	delim := DetectDelimiter(lines)
	log := e.logger.With(zap.String("format", string(profile.Format)))

	if idx, ok := profile.findHeader(lines); ok {
		cols := profile.resolveHeader(SplitRecord(lines[idx], delim))
		if readings := p.structured(lines[idx+1:], cols, delim); len(readings) > 0 {
			return readings, StageStructured
		}
		log.Debug("vendor header parse found nothing", zap.Int("header_line", idx))
	}

	cols, start := resolveColumns(lines, delim, e.unit)
	if readings := p.structured(lines[start:], cols, delim); len(readings) > 0 {
		return readings, StageStructured
	}
	log.Debug("structured parse found nothing, trying heuristics")

	if readings := p.heuristic(lines, delim); len(readings) > 0 {
		return readings, StageHeuristic
	}
	log.Debug("heuristic parse found nothing, scanning for values")

	if readings := p.LastResort(lines); len(readings) > 0 {
		return readings, StageLastResort
	}
	return nil, StageNone
}

// resolveColumns finds a generic header row if there is one and fills any
// roles it leaves open from a sample data row, then positional defaults.
// It returns the map and the index of the first data line.
func resolveColumns(lines []string, delim rune, policy UnitPolicy) (ColumnMap, int) {
	cols, start := NewColumnMap(), 0
	if idx, ok := findGenericHeader(lines, delim); ok {
		cols = ResolveHeader(SplitRecord(lines[idx], delim))
		start = idx + 1
	}
	if cols.Usable() {
		return cols, start
	}
	sample := sampleRow(lines[start:], delim)
	cols = cols.Merge(resolveSample(sample, policy))
	return cols.WithDefaults(len(sample)), start
}

// findGenericHeader returns the first early line that names at least two
// roles and holds no date or time values itself.
func findGenericHeader(lines []string, delim rune) (int, bool) {
	for i, line := range lines {
		if i >= headerScanLines {
			break
		}
		cells := SplitRecord(line, delim)
		if hasTemporalCell(cells) {
			continue
		}
		if ResolveHeader(cells).resolvedCount() >= 2 {
			return i, true
		}
	}
	return 0, false
}

// sampleRow picks the first row with a date-like cell, else the first row.
func sampleRow(lines []string, delim rune) []string {
	for i, line := range lines {
		if i >= headerScanLines {
			break
		}
		cells := SplitRecord(line, delim)
		if hasTemporalCell(cells) {
			return cells
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return SplitRecord(lines[0], delim)
}

func hasTemporalCell(cells []string) bool {
	for _, c := range cells {
		if LooksLikeDate(c) || LooksLikeDateTime(c) || LooksLikeTime(c) {
			return true
		}
	}
	return false
}
