package xlsx

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows into the first sheet of a new workbook (and any
// extra sheets) and returns its path.
func writeWorkbook(t *testing.T, rows [][]any, extra map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	put := func(sheet string, rows [][]any) {
		for i, row := range rows {
			row := row
			axis, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet, axis, &row); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	put("Sheet1", rows)
	for name, rows := range extra {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		put(name, rows)
	}

	path := filepath.Join(t.TempDir(), "words.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestOpen_TypedCells(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{" word ", "position", "flag"},
		{"apple", 3.0, true},
		{"123", 4.5, false},
	}, nil)

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Name != "Sheet1" || s.NumRows() != 3 {
		t.Fatalf("sheet = %q rows=%d; want Sheet1 rows=3", s.Name, s.NumRows())
	}

	tbl, err := s.Table(0)
	if err != nil {
		t.Fatalf("Table(0): %v", err)
	}
	if want := []string{"word", "position", "flag"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("Columns = %q; want %q", tbl.Columns, want)
	}
	want := [][]any{
		{"apple", 3.0, true},
		{"123", 4.5, false},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("Rows = %#v; want %#v", tbl.Rows, want)
	}
}

func TestTable_HeaderOffsets(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{"Vocabulary list"},
		{},
		{"単語", "意味"},
		{"猫", "cat"},
		{"犬"},
	}, nil)

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tbl, err := s.Table(2)
	if err != nil {
		t.Fatalf("Table(2): %v", err)
	}
	if want := []string{"単語", "意味"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("Columns = %q; want %q", tbl.Columns, want)
	}
	want := [][]any{{"猫", "cat"}, {"犬", nil}}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("Rows = %#v; want %#v", tbl.Rows, want)
	}

	if _, err := s.Table(1); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("Table(1) err = %v; want empty header error", err)
	}
	if _, err := s.Table(9); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("Table(9) err = %v; want out of range", err)
	}
}

func TestOpen_NamedSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{{"ignored"}}, map[string][][]any{
		"Vocab": {{"word"}, {"kiwi"}},
	})

	s, err := Open(path, Options{Sheet: "Vocab"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tbl, err := s.Table(0)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]any{{"kiwi"}}) {
		t.Fatalf("Rows = %#v", tbl.Rows)
	}

	if _, err := Open(path, Options{Sheet: "Missing"}); err == nil {
		t.Fatalf("Open with unknown sheet should fail")
	}
}

func TestOpen_NotAWorkbook(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"), Options{}); err == nil {
		t.Fatalf("Open of a missing file should fail")
	}
}
