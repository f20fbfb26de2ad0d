package xlsxexport

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetWriter appends rows to a single sheet in one forward pass.
// Cells cannot be revisited or restyled until the sheet is closed and reopened.
type SheetWriter struct {
	file        *excelize.File
	stream      *excelize.StreamWriter
	path        string
	cfg         *config
	columns     []Column
	currentRow  int
	headerShown bool
	closed      bool
}

// FlushedSheet is a sheet that has been durably written to Path.
type FlushedSheet struct {
	Path      string
	SheetName string
	Columns   []Column
	// Rows counts data rows, the header excluded.
	Rows int64
	// FilterRange covers the header and every data row.
	FilterRange string

	cfg *config
}

// NewSheetWriter opens an append-only sheet that Close will save to path.
func NewSheetWriter(path string, opts ...Option) (*SheetWriter, error) {
	cfg := newConfig(opts)
	f := excelize.NewFile()
	if cfg.sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, cfg.sheetName); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(cfg.sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open stream writer: %w", err)
	}

	return &SheetWriter{
		file:       f,
		stream:     sw,
		path:       path,
		cfg:        cfg,
		currentRow: 1,
	}, nil
}

// WriteHeader writes the display names of columns as the first row and
// freezes it. It must be called exactly once, before any AppendRow.
func (s *SheetWriter) WriteHeader(columns []Column) error {
	if s.closed {
		panic("xlsxexport: WriteHeader on closed sheet")
	}
	if s.headerShown {
		panic("xlsxexport: header already written")
	}

	if s.cfg.freezeHeader {
		// panes must precede the first row in streaming mode
		if err := s.stream.SetPanes(&excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
			Selection: []excelize.Selection{
				{SQRef: "A2", ActiveCell: "A2", Pane: "bottomLeft"},
			},
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}

	s.columns = columns
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.DisplayName
	}

	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, header); err != nil {
		return err
	}
	s.currentRow++
	s.headerShown = true
	return nil
}

// AppendRow writes one data row after the previous one.
func (s *SheetWriter) AppendRow(row Row) error {
	if !s.headerShown {
		panic("xlsxexport: header must be written before data")
	}
	if s.closed {
		panic("xlsxexport: AppendRow on closed sheet")
	}
	if len(row) != len(s.columns) {
		panic(fmt.Sprintf("xlsxexport: row has %d values, sheet has %d columns", len(row), len(s.columns)))
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v.CellValue()
	}

	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", s.currentRow, err)
	}
	s.currentRow++
	return nil
}

// Rows returns the number of data rows written so far.
func (s *SheetWriter) Rows() int64 {
	if !s.headerShown {
		return 0
	}
	return int64(s.currentRow - 2)
}

// Close flushes every row and saves the workbook to the writer's path.
func (s *SheetWriter) Close() (*FlushedSheet, error) {
	if s.closed {
		panic("xlsxexport: sheet closed twice")
	}
	s.closed = true
	defer s.file.Close()

	if !s.headerShown {
		return nil, ErrNoHeader
	}
	if err := s.stream.Flush(); err != nil {
		return nil, fmt.Errorf("flush stream: %w", err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return nil, err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(s.columns))
	return &FlushedSheet{
		Path:        s.path,
		SheetName:   s.cfg.sheetName,
		Columns:     s.columns,
		Rows:        s.Rows(),
		FilterRange: fmt.Sprintf("A1:%s%d", lastCol, s.currentRow-1),
		cfg:         s.cfg,
	}, nil
}

// Discard releases the writer without saving anything. It is a no-op on a
// closed writer.
func (s *SheetWriter) Discard() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
