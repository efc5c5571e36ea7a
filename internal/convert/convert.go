// Package convert runs one conversion: load the dataset, resolve its columns,
// normalize rows into word records, collapse duplicates, order them and write
// the JSON document.
//
// Every stage reports its latency and outcome through internal/metrics and
// logs a short key/value line. A failure in any stage aborts the run before
// the output file is touched.
package convert

import (
	"fmt"
	"time"

	"wordconv/internal/columns"
	"wordconv/internal/config"
	"wordconv/internal/logger"
	"wordconv/internal/metrics"
	"wordconv/internal/output"
	"wordconv/internal/record"
	"wordconv/internal/source"
	csvsource "wordconv/internal/source/csv"
	"wordconv/internal/transformer"
	"wordconv/internal/transformer/builtin"
)

// Stage names used for metrics and logs.
const (
	StageLoad      = "load"
	StageResolve   = "resolve"
	StageNormalize = "normalize"
	StageTransform = "transform"
	StageWrite     = "write"
)

// Row outcome kinds passed to metrics.RecordRow.
const (
	KindRead       = "read"
	KindDropped    = "dropped"
	KindDuplicates = "duplicates"
	KindWritten    = "written"
)

// Summary describes a completed run.
type Summary struct {
	Source       string
	Format       source.Format
	HeaderOffset int
	Mapping      columns.Mapping

	RowsRead   int
	Dropped    int
	Duplicates int
	Written    int

	Output string
	Bytes  int
	Digest string
}

// Pipeline is the record chain applied between normalization and output.
// Duplicates are collapsed before ordering so the survivor's position is
// the one the sort sees.
var Pipeline = transformer.Chain{builtin.DeDup{}, builtin.Sort{}}

// Run executes a conversion described by c. log may be nil.
func Run(c config.Conversion, log *logger.Logger) (*Summary, error) {
	log = logger.OrNop(log).With("job", c.Job)
	sum := &Summary{Output: c.OutputPath()}

	var loaded *source.Result
	err := step(c.Job, StageLoad, func() error {
		var err error
		loaded, err = source.Load(SourceConfig(c, log))
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Source = loaded.Path
	sum.Format = loaded.Format
	sum.HeaderOffset = loaded.HeaderOffset
	sum.RowsRead = loaded.Table.Len()
	metrics.RecordRow(c.Job, KindRead, int64(sum.RowsRead))
	log.Info("loaded source",
		"stage", StageLoad,
		"path", loaded.Path,
		"format", loaded.Format,
		"offset", loaded.HeaderOffset,
		"rows", sum.RowsRead,
	)

	err = step(c.Job, StageResolve, func() error {
		m, err := columns.Resolve(loaded.Table.Columns)
		if err != nil {
			return fmt.Errorf("convert: %s: %w", loaded.Path, err)
		}
		sum.Mapping = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("resolved columns", "stage", StageResolve, "mapping", sum.Mapping.String())

	var normalized record.Result
	_ = step(c.Job, StageNormalize, func() error {
		normalized = record.Normalize(loaded.Table, sum.Mapping)
		return nil
	})
	sum.Dropped = normalized.Dropped
	metrics.RecordRow(c.Job, KindDropped, int64(sum.Dropped))
	log.Info("normalized rows",
		"stage", StageNormalize,
		"records", len(normalized.Records),
		"dropped", sum.Dropped,
	)

	var words []record.Word
	_ = step(c.Job, StageTransform, func() error {
		words = Pipeline.Apply(normalized.Records)
		return nil
	})
	sum.Duplicates = len(normalized.Records) - len(words)
	metrics.RecordRow(c.Job, KindDuplicates, int64(sum.Duplicates))
	log.Info("deduplicated and sorted",
		"stage", StageTransform,
		"records", len(words),
		"duplicates", sum.Duplicates,
	)

	err = step(c.Job, StageWrite, func() error {
		n, digest, err := output.Write(sum.Output, words, c.Output.Indent)
		if err != nil {
			return err
		}
		sum.Bytes = n
		sum.Digest = digest
		return nil
	})
	if err != nil {
		return nil, err
	}
	sum.Written = len(words)
	metrics.RecordRow(c.Job, KindWritten, int64(sum.Written))
	log.Info("wrote output",
		"stage", StageWrite,
		"path", sum.Output,
		"records", sum.Written,
		"bytes", sum.Bytes,
		"digest", sum.Digest,
	)

	return sum, nil
}

// SourceConfig maps the conversion's source section onto loader settings.
func SourceConfig(c config.Conversion, log *logger.Logger) source.Config {
	opts := c.Source.Options
	return source.Config{
		XLSXPath:      c.XLSXPath(),
		CSVPath:       c.CSVPath(),
		Sheet:         opts.String("sheet", ""),
		HeaderOffsets: opts.IntSlice("header_offsets"),
		CSV: csvsource.Options{
			Comma:      opts.Rune("comma", ','),
			Encoding:   opts.String("encoding", ""),
			LazyQuotes: opts.Bool("lazy_quotes", false),
		},
		Logger: log,
	}
}

// step times fn and records the outcome under name.
func step(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	return err
}
