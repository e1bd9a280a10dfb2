// Package loader reads mission security report CSV files, repairs
// inconsistently quoted fields and normalizes the result into an entity.Table.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"missionsec/pkg/entity"
)

// DefaultPath is the report file read when no path is configured.
const DefaultPath = "mission_security_reports.csv"

const byteOrderMark = "\ufeff"

var (
	// ErrNotFound is returned when the source file does not exist.
	ErrNotFound = errors.New("data file not found")
	// ErrRead is returned when the source file exists but cannot be read.
	ErrRead = errors.New("read data file")
	// ErrParse is returned when both the repaired and the lenient parse fail.
	ErrParse = errors.New("parse data file")
	// ErrEmptyDocument is returned when the document has no header row.
	ErrEmptyDocument = errors.New("no header row")
	// ErrInvalidDate is returned when a date value cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// ReadFunc returns the content of the file at path.
type ReadFunc func(path string) ([]byte, error)

type options struct {
	read ReadFunc
	log  logrus.FieldLogger
}

// Option configures Load and Cache.
type Option func(*options)

// WithReadFunc replaces os.ReadFile as the read step.
func WithReadFunc(fn ReadFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.read = fn
		}
	}
}

// WithLogger routes load diagnostics to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	o := options{read: os.ReadFile, log: silent}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Result is a loaded table plus the non-fatal warnings raised while loading it.
type Result struct {
	Table    *entity.Table
	Warnings []string
	// Skipped is the number of data rows dropped by the lenient parse.
	Skipped int
}

// HasWarnings reports whether any warning was raised.
func (r *Result) HasWarnings() bool {
	return r != nil && len(r.Warnings) > 0
}

type rawRecord struct {
	line  int
	cells []string
}

type rawTable struct {
	header  []string
	records []rawRecord
	skipped int
}

// Load reads path and returns the normalized report table. Any returned error
// is fatal and no table is returned with it.
func Load(path string, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	log := o.log.WithField("path", path)

	content, err := o.read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}

	doc := strings.TrimPrefix(string(content), byteOrderMark)
	res := &Result{}
	raw, err := parseStrict(repairDocument(doc))
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("error loading CSV: %v", err))
		log.WithError(err).Warn("repaired parse failed, retrying leniently")

		raw, err = parseLenient(doc)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrParse, path, err)
		}
		res.Skipped = raw.skipped
		res.Warnings = append(res.Warnings, fmt.Sprintf("loaded with %d line(s) skipped due to parsing errors", raw.skipped))
		log.WithField("skipped", raw.skipped).Warn("loaded with lines skipped")
	}

	table, err := normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	res.Table = table
	log.WithField("rows", table.Len()).Debug("report table loaded")
	return res, nil
}

// parseStrict parses doc as quoted CSV. A bare quote inside an unquoted field
// is kept as text. A record wider than the header is an error; narrower
// records are kept and padded later.
func parseStrict(doc string) (*rawTable, error) {
	r := csv.NewReader(strings.NewReader(doc))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, err
	}
	header = cloneStrings(header)

	out := &rawTable{header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}
		out.records = append(out.records, rawRecord{line: line, cells: rec})
	}
	return out, nil
}

// parseLenient parses doc with lazy quoting and drops every record that
// cannot be tokenized or is wider than the header.
func parseLenient(doc string) (*rawTable, error) {
	r := csv.NewReader(strings.NewReader(doc))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, err
	}
	header = cloneStrings(header)

	out := &rawTable{header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			out.skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			out.skipped++
			continue
		}
		line, _ := r.FieldPos(0)
		out.records = append(out.records, rawRecord{line: line, cells: rec})
	}
	return out, nil
}

// normalize builds the table and coerces date, time_to_fix_hours and the
// categorical columns.
func normalize(raw *rawTable) (*entity.Table, error) {
	table := &entity.Table{Columns: raw.header, Records: make([]entity.Record, 0, len(raw.records))}
	if !table.HasColumn(entity.ColDate) {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, entity.ColDate)
	}

	var fill []string
	for _, col := range entity.CategoricalColumns {
		if table.HasColumn(col) {
			fill = append(fill, col)
		}
	}

	for _, rr := range raw.records {
		fields := make(map[string]string, len(raw.header))
		for i, col := range raw.header {
			if i < len(rr.cells) {
				fields[col] = rr.cells[i]
			}
		}

		date, err := parseDate(fields[entity.ColDate])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rr.line, err)
		}

		hours := entity.MissingHours
		if v, ok := fields[entity.ColTimeToFix]; ok {
			hours = entity.ParseHours(strings.TrimSpace(v))
			if hours.Valid {
				fields[entity.ColTimeToFix] = hours.String()
			} else {
				delete(fields, entity.ColTimeToFix)
			}
		}

		for _, col := range fill {
			if strings.TrimSpace(fields[col]) == "" {
				fields[col] = entity.NotAvailable
			}
		}

		table.Records = append(table.Records, entity.Record{
			Fields:    fields,
			Date:      date,
			TimeToFix: hours,
		})
	}
	return table, nil
}

func parseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, v, err)
	}
	return t, nil
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}
