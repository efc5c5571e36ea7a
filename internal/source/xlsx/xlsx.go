// Package xlsx reads one worksheet of an Excel workbook into typed cells and
// materializes tables for a chosen header row.
package xlsx

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"wordconv/internal/table"
)

// Options configures which worksheet is read.
type Options struct {
	// Sheet names the worksheet; empty selects the first one.
	Sheet string
}

// Sheet is a fully read worksheet. Cells are typed (see table.Raw).
type Sheet struct {
	Name string
	rows [][]any
}

// Open reads the worksheet selected by opt from the workbook at path.
func Open(path string, opt Options) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	name := opt.Sheet
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx: %s: no sheets found", path)
		}
		name = sheets[0]
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("xlsx: %s: sheet %q not found", path, name)
	}

	iter, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("xlsx: rows iterator for sheet %s: %w", name, err)
	}
	defer iter.Close()

	var rows [][]any
	for r := 1; iter.Next(); r++ {
		raw, err := iter.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("xlsx: read row %d of sheet %s: %w", r, name, err)
		}
		row := make([]any, len(raw))
		for c, v := range raw {
			if v == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r)
			if err != nil {
				return nil, fmt.Errorf("xlsx: cell name for row %d col %d: %w", r, c+1, err)
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, fmt.Errorf("xlsx: cell type %s: %w", axis, err)
			}
			row[c] = typedValue(typ, v)
		}
		rows = append(rows, row)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("xlsx: iterate sheet %s: %w", name, err)
	}

	return &Sheet{Name: name, rows: rows}, nil
}

// NumRows returns the number of rows read, blank rows in between included.
func (s *Sheet) NumRows() int { return len(s.rows) }

// Table treats row headerRow (0-based) as the header and every later row as
// data. Rows above the header are skipped. Labels are trimmed and made
// unique; data rows are aligned to the header width.
func (s *Sheet) Table(headerRow int) (*table.Raw, error) {
	if headerRow < 0 || headerRow >= len(s.rows) {
		return nil, fmt.Errorf("xlsx: sheet %s: header row %d out of range (rows=%d)", s.Name, headerRow, len(s.rows))
	}

	hdr := s.rows[headerRow]
	labels := make([]string, len(hdr))
	for i, v := range hdr {
		labels[i] = table.Text(v)
	}
	labels = table.NormalizeLabels(labels)
	if len(labels) == 0 {
		return nil, fmt.Errorf("xlsx: sheet %s: header row %d is empty", s.Name, headerRow)
	}

	data := s.rows[headerRow+1:]
	t := &table.Raw{Columns: labels, Rows: make([][]any, 0, len(data))}
	for _, row := range data {
		t.Rows = append(t.Rows, table.Align(row, len(labels)))
	}
	return t, nil
}

// typedValue converts a raw cell string according to its stored type.
// Numbers carry no type attribute in the sheet XML, so unset cells that parse
// as numbers are numeric.
func typedValue(typ excelize.CellType, v string) any {
	switch typ {
	case excelize.CellTypeBool:
		return v == "1" || v == "TRUE" || v == "true"
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return v
	default:
		return v
	}
}
