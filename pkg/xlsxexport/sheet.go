package xlsxexport

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// StyleableSheet is a flushed sheet reopened for random-access styling.
type StyleableSheet struct {
	file        *excelize.File
	name        string
	columns     []Column
	rows        int64
	filterRange string
	cfg         *config
	styles      *styleCache
	finalized   bool
}

// Reopen loads the flushed workbook so it can be styled.
func (fs *FlushedSheet) Reopen() (*StyleableSheet, error) {
	f, err := excelize.OpenFile(fs.Path)
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", fs.Path, err)
	}
	cfg := fs.cfg
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &StyleableSheet{
		file:        f,
		name:        fs.SheetName,
		columns:     fs.Columns,
		rows:        fs.Rows,
		filterRange: fs.FilterRange,
		cfg:         cfg,
		styles:      newStyleCache(f),
	}, nil
}

func (s *StyleableSheet) Name() string      { return s.name }
func (s *StyleableSheet) Columns() []Column { return s.columns }
func (s *StyleableSheet) Rows() int64       { return s.rows }

// SetColumnWidth sets the width of the 0-based column i.
func (s *StyleableSheet) SetColumnWidth(i int, width float64) error {
	col, err := excelize.ColumnNumberToName(i + 1)
	if err != nil {
		return err
	}
	return s.file.SetColWidth(s.name, col, col, width)
}

// StyleColumn applies tmpl to every data cell of the 0-based column i.
func (s *StyleableSheet) StyleColumn(i int, tmpl *StyleTemplate) error {
	if s.rows == 0 {
		return nil
	}
	id, err := s.styles.id(tmpl)
	if err != nil {
		return err
	}
	top, _ := excelize.CoordinatesToCellName(i+1, 2)
	bottom, _ := excelize.CoordinatesToCellName(i+1, int(s.rows)+1)
	return s.file.SetCellStyle(s.name, top, bottom, id)
}

// StyleHeader applies tmpl to every header cell and fixes the header height.
func (s *StyleableSheet) StyleHeader(tmpl *StyleTemplate, height float64) error {
	if len(s.columns) == 0 {
		return nil
	}
	id, err := s.styles.id(tmpl)
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(s.columns), 1)
	if err := s.file.SetCellStyle(s.name, "A1", last, id); err != nil {
		return err
	}
	return s.file.SetRowHeight(s.name, 1, height)
}

// AutoFilter enables filtering over the range recorded when the sheet was flushed.
func (s *StyleableSheet) AutoFilter() error {
	if s.filterRange == "" {
		return nil
	}
	return s.file.AutoFilter(s.name, s.filterRange, nil)
}

// SaveAs writes the styled workbook to path.
func (s *StyleableSheet) SaveAs(path string) error {
	return s.file.SaveAs(path)
}

// Close releases the workbook.
func (s *StyleableSheet) Close() error {
	return s.file.Close()
}
