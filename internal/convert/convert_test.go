package convert

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"wordconv/internal/columns"
	"wordconv/internal/config"
	"wordconv/internal/logger"
	"wordconv/internal/metrics"
	"wordconv/internal/output"
	"wordconv/internal/record"
	"wordconv/internal/source"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// newRoot returns a Conversion rooted in a fresh directory with data/ created.
func newRoot(t *testing.T) config.Conversion {
	t.Helper()
	c := config.Defaults()
	c.Root = t.TempDir()
	if err := os.MkdirAll(filepath.Join(c.Root, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return c
}

func writeCSV(t *testing.T, c config.Conversion, body string) {
	t.Helper()
	if err := os.WriteFile(c.CSVPath(), []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func writeXLSX(t *testing.T, c config.Conversion, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		row := row
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", axis, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(c.XLSXPath()); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func readWords(t *testing.T, path string) ([]byte, []record.Word) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var ws []record.Word
	if err := json.Unmarshal(b, &ws); err != nil {
		t.Fatalf("output is not a JSON array of words: %v\n%s", err, b)
	}
	return b, ws
}

/*
TestRun_CSVScenario converts the three-row example: a float position, a
missing position and a string position. Records with a position come first
in ascending order, the rest follow.
*/
func TestRun_CSVScenario(t *testing.T) {
	t.Parallel()

	c := newRoot(t)
	writeCSV(t, c, "单词,位置\n苹果,3.0\nbanana,\napple,1\n")

	sum, err := Run(c, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, got := readWords(t, c.OutputPath())
	want := []record.Word{
		{Word: "apple", Position: record.Int64(1)},
		{Word: "苹果", Position: record.Int64(3)},
		{Word: "banana"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("words = %+v; want %+v", got, want)
	}
	if !strings.Contains(string(raw), `"word": "苹果"`) {
		t.Fatalf("non-ASCII text was escaped:\n%s", raw)
	}
	if strings.HasSuffix(string(raw), "\n") {
		t.Fatalf("output ends with a newline")
	}

	if sum.Format != source.FormatCSV || sum.Source != c.CSVPath() {
		t.Fatalf("summary source = %s %s", sum.Format, sum.Source)
	}
	if sum.RowsRead != 3 || sum.Dropped != 0 || sum.Duplicates != 0 || sum.Written != 3 {
		t.Fatalf("summary counts = %+v", sum)
	}
	if sum.Digest != output.Digest(raw) || sum.Bytes != len(raw) {
		t.Fatalf("summary digest/bytes = %s/%d; want %s/%d", sum.Digest, sum.Bytes, output.Digest(raw), len(raw))
	}
	if sum.Mapping.Index(columns.Position) != 1 || sum.Mapping.Index(columns.POS) != -1 {
		t.Fatalf("mapping = %s", sum.Mapping)
	}
}

/*
TestRun_SpreadsheetWithTitleRow checks the header search, the word-drop rule
and last-write-wins deduplication on a spreadsheet whose first row is a title.
*/
func TestRun_SpreadsheetWithTitleRow(t *testing.T) {
	t.Parallel()

	c := newRoot(t)
	// A CSV next to the spreadsheet must be ignored.
	writeCSV(t, c, "word\nfrom-csv\n")
	writeXLSX(t, c, [][]any{
		{"Lesson 3 vocabulary"},
		{"单词", "词性", "词义", "单词量"},
		{"run", "v.", "跑", 2.0},
		{"apple", "n.", "苹果", 1.0},
		{"NaN", "", "", 9.0},
		{nil, "n.", "空", nil},
		{"  run  ", "n.", "跑步", 2.0},
		{"Zebra", "n.", "斑马", nil},
		{"ant", "n.", "蚂蚁", "x"},
	})

	sum, err := Run(c, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, got := readWords(t, c.OutputPath())
	want := []record.Word{
		{Word: "apple", POS: "n.", Meaning: "苹果", Position: record.Int64(1)},
		{Word: "run", POS: "n.", Meaning: "跑步", Position: record.Int64(2)},
		{Word: "ant", POS: "n.", Meaning: "蚂蚁"},
		{Word: "Zebra", POS: "n.", Meaning: "斑马"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("words = %+v; want %+v", got, want)
	}

	if sum.Format != source.FormatXLSX || sum.HeaderOffset != 1 {
		t.Fatalf("summary = %s offset %d; want xlsx offset 1", sum.Format, sum.HeaderOffset)
	}
	if sum.RowsRead != 7 || sum.Dropped != 2 || sum.Duplicates != 1 || sum.Written != 4 {
		t.Fatalf("summary counts = %+v", sum)
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	c := newRoot(t)
	writeCSV(t, c, "word,meaning,position\nb,二,\na,一,1\nb,双,\n")

	first, err := Run(c, nil)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	b1, _ := readWords(t, c.OutputPath())

	second, err := Run(c, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	b2, _ := readWords(t, c.OutputPath())

	if string(b1) != string(b2) || first.Digest != second.Digest {
		t.Fatalf("runs differ: %s vs %s", first.Digest, second.Digest)
	}
}

func TestRun_EmptyDocument(t *testing.T) {
	t.Parallel()

	c := newRoot(t)
	writeCSV(t, c, "word,pos\nnan,n.\n,v.\n")

	sum, err := Run(c, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := os.ReadFile(c.OutputPath())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("output = %q; want []", b)
	}
	if sum.Written != 0 || sum.Dropped != 2 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, c config.Conversion)
		want  error
	}{
		{
			name:  "no source",
			setup: func(t *testing.T, c config.Conversion) {},
			want:  source.ErrSourceNotFound,
		},
		{
			name: "csv without word column",
			setup: func(t *testing.T, c config.Conversion) {
				writeCSV(t, c, "term,meaning\napple,苹果\n")
			},
			want: columns.ErrMissingWordColumn,
		},
		{
			name: "spreadsheet header too deep",
			setup: func(t *testing.T, c config.Conversion) {
				writeXLSX(t, c, [][]any{{"a"}, {"b"}, {"c"}, {"word"}, {"apple"}})
			},
			want: source.ErrHeaderNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newRoot(t)
			tt.setup(t, c)

			// A previous output must survive a failed run.
			const previous = `[{"word":"old"}]`
			if err := os.WriteFile(c.OutputPath(), []byte(previous), 0o644); err != nil {
				t.Fatalf("write previous output: %v", err)
			}

			sum, err := Run(c, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run err = %v; want %v", err, tt.want)
			}
			if sum != nil {
				t.Fatalf("Run summary = %+v; want nil on error", sum)
			}
			b, _ := os.ReadFile(c.OutputPath())
			if string(b) != previous {
				t.Fatalf("output changed to %q", b)
			}
		})
	}
}

func TestSourceConfig(t *testing.T) {
	t.Parallel()

	c := config.Defaults()
	c.Root = "/data/lesson"
	c.Source.Options = config.Options{
		"sheet":          "Week 2",
		"comma":          ";",
		"encoding":       "gbk",
		"lazy_quotes":    true,
		"header_offsets": []any{float64(2), float64(0)},
	}

	got := SourceConfig(c, nil)
	if got.XLSXPath != filepath.Join("/data/lesson", "data/words.xlsx") || got.CSVPath != filepath.Join("/data/lesson", "data/words.csv") {
		t.Fatalf("paths = %s, %s", got.XLSXPath, got.CSVPath)
	}
	if got.Sheet != "Week 2" || !reflect.DeepEqual(got.HeaderOffsets, []int{2, 0}) {
		t.Fatalf("sheet/offsets = %q %v", got.Sheet, got.HeaderOffsets)
	}
	if got.CSV.Comma != ';' || got.CSV.Encoding != "gbk" || !got.CSV.LazyQuotes {
		t.Fatalf("csv options = %+v", got.CSV)
	}

	// Defaults leave the loader on its built-in behavior.
	def := SourceConfig(config.Defaults(), nil)
	if def.Sheet != "" || def.HeaderOffsets != nil || def.CSV.Comma != ',' || def.CSV.Encoding != "" {
		t.Fatalf("default source config = %+v", def)
	}
}

func TestRun_LogsStages(t *testing.T) {
	t.Parallel()

	c := newRoot(t)
	c.Job = "lesson-3"
	writeCSV(t, c, "word\napple\n")

	core, logs := observer.New(zap.InfoLevel)
	sum, err := Run(c, &logger.Logger{SugaredLogger: zap.New(core).Sugar()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var stages []string
	for _, e := range logs.All() {
		ctx := e.ContextMap()
		if ctx["job"] != "lesson-3" {
			t.Fatalf("entry %q has job=%v", e.Message, ctx["job"])
		}
		stages = append(stages, ctx["stage"].(string))
	}
	wantStages := []string{StageLoad, StageNormalize, StageTransform, StageWrite}
	if !reflect.DeepEqual(stages, wantStages) {
		t.Fatalf("logged stages = %v; want %v", stages, wantStages)
	}
	last := logs.All()[len(logs.All())-1].ContextMap()
	if last["digest"] != sum.Digest {
		t.Fatalf("logged digest = %v; want %s", last["digest"], sum.Digest)
	}
}

// recorder captures metrics calls made during a run.
type recorder struct {
	mu    sync.Mutex
	steps map[string]string
	rows  map[string]float64
}

func (r *recorder) IncCounter(name string, delta float64, labels metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch name {
	case metrics.StepTotal:
		r.steps[labels["step"]] = labels["status"]
	case metrics.RecordsTotal:
		r.rows[labels["kind"]] += delta
	}
}

func (r *recorder) ObserveHistogram(string, float64, metrics.Labels) {}
func (r *recorder) Flush() error                                     { return nil }

// TestRun_Metrics is not parallel: it swaps the global metrics backend.
func TestRun_Metrics(t *testing.T) {
	rec := &recorder{steps: map[string]string{}, rows: map[string]float64{}}
	metrics.SetBackend(rec)
	defer metrics.SetBackend(&recorder{steps: map[string]string{}, rows: map[string]float64{}})

	c := newRoot(t)
	writeCSV(t, c, "word\nb\na\nb\nnan\n")
	if _, err := Run(c, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantSteps := map[string]string{
		StageLoad:      "success",
		StageResolve:   "success",
		StageNormalize: "success",
		StageTransform: "success",
		StageWrite:     "success",
	}
	if !reflect.DeepEqual(rec.steps, wantSteps) {
		t.Fatalf("steps = %v; want %v", rec.steps, wantSteps)
	}
	wantRows := map[string]float64{KindRead: 4, KindDropped: 1, KindDuplicates: 1, KindWritten: 2}
	if !reflect.DeepEqual(rec.rows, wantRows) {
		t.Fatalf("rows = %v; want %v", rec.rows, wantRows)
	}

	// A failing stage is reported as such and later stages are not run.
	rec.steps = map[string]string{}
	if err := os.Remove(c.CSVPath()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := Run(c, nil); err == nil {
		t.Fatalf("Run succeeded without a source")
	}
	if !reflect.DeepEqual(rec.steps, map[string]string{StageLoad: "failure"}) {
		t.Fatalf("steps after failure = %v", rec.steps)
	}
}
