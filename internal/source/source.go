// Package source locates the vocabulary dataset and loads it into a
// table.Raw.
//
// Two backing files are checked in fixed priority order: the spreadsheet
// first, the CSV second. Spreadsheets do not always start with their header,
// so the loader tries a short list of header-row offsets and accepts the
// first one whose labels resolve a word column. CSV input is assumed to be
// well-formed and is parsed once with the header on the first line.
package source

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"wordconv/internal/columns"
	"wordconv/internal/logger"
	csvsource "wordconv/internal/source/csv"
	"wordconv/internal/source/xlsx"
	"wordconv/internal/table"
)

var (
	// ErrSourceNotFound means neither candidate input file exists.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrHeaderNotFound means no tried header offset yields a word column.
	ErrHeaderNotFound = errors.New("header row not found")
)

// DefaultHeaderOffsets are the spreadsheet header rows tried, in order.
var DefaultHeaderOffsets = []int{0, 1, 2}

// HeaderNotFoundError reports a spreadsheet whose header could not be
// located. Cause holds the last parse error seen, if any.
type HeaderNotFoundError struct {
	Path    string
	Offsets []int
	Cause   error
}

func (e *HeaderNotFoundError) Error() string {
	offs := make([]string, len(e.Offsets))
	for i, o := range e.Offsets {
		offs[i] = strconv.Itoa(o)
	}
	msg := fmt.Sprintf("%s: %s: no word column in header rows [%s]", ErrHeaderNotFound, e.Path, strings.Join(offs, " "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrHeaderNotFound) hold.
func (e *HeaderNotFoundError) Is(target error) bool { return target == ErrHeaderNotFound }

// Unwrap exposes the last underlying parse error.
func (e *HeaderNotFoundError) Unwrap() error { return e.Cause }

// Format identifies the backing file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Config selects the input files and format options.
type Config struct {
	XLSXPath string
	CSVPath  string

	// Sheet names the worksheet to read; empty selects the first one.
	Sheet string

	// HeaderOffsets overrides DefaultHeaderOffsets when non-empty.
	HeaderOffsets []int

	CSV csvsource.Options

	Logger *logger.Logger
}

// Result is a loaded dataset.
type Result struct {
	Table  *table.Raw
	Path   string
	Format Format

	// HeaderOffset is the accepted spreadsheet header row (0 for CSV).
	HeaderOffset int
}

// Load reads the first existing candidate file.
func Load(cfg Config) (*Result, error) {
	log := logger.OrNop(cfg.Logger)

	switch {
	case exists(cfg.XLSXPath):
		log.Debug("source: using spreadsheet", "path", cfg.XLSXPath)
		return loadSpreadsheet(cfg, log)
	case exists(cfg.CSVPath):
		log.Debug("source: using csv", "path", cfg.CSVPath)
		t, err := csvsource.Load(cfg.CSVPath, cfg.CSV)
		if err != nil {
			return nil, err
		}
		return &Result{Table: t, Path: cfg.CSVPath, Format: FormatCSV}, nil
	default:
		return nil, fmt.Errorf("%w: tried %s and %s", ErrSourceNotFound, display(cfg.XLSXPath), display(cfg.CSVPath))
	}
}

// loadSpreadsheet tries each header offset in order and keeps the first
// table whose labels contain a word column.
func loadSpreadsheet(cfg Config, log *logger.Logger) (*Result, error) {
	offsets := cfg.HeaderOffsets
	if len(offsets) == 0 {
		offsets = DefaultHeaderOffsets
	}
	notFound := &HeaderNotFoundError{Path: cfg.XLSXPath, Offsets: offsets}

	sheet, err := xlsx.Open(cfg.XLSXPath, xlsx.Options{Sheet: cfg.Sheet})
	if err != nil {
		notFound.Cause = err
		return nil, notFound
	}

	for _, off := range offsets {
		t, err := sheet.Table(off)
		if err != nil {
			log.Debug("source: header attempt failed", "offset", off, "err", err)
			notFound.Cause = err
			continue
		}
		if _, ok := columns.Pick(t.Columns, columns.Word); !ok {
			log.Debug("source: no word column", "offset", off, "labels", t.Columns)
			continue
		}
		return &Result{Table: t, Path: cfg.XLSXPath, Format: FormatXLSX, HeaderOffset: off}, nil
	}
	return nil, notFound
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func display(path string) string {
	if path == "" {
		return `""`
	}
	return path
}
