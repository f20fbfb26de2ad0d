package xlsxexport

import "fmt"

// ColumnLayout is the presentation decided for one column.
type ColumnLayout struct {
	Index    int
	Width    float64
	HasWidth bool
	Kind     Kind
	HasKind  bool
	// Numeric columns get the decimal display format.
	Numeric bool
}

// Layout is everything the finalizer will change, computed from statistics alone.
type Layout struct {
	Columns []ColumnLayout
}

// PlanLayout derives column widths and number formats from stats.
func PlanLayout(stats *Accumulator, rule WidthRule) Layout {
	cols := make([]ColumnLayout, stats.Columns())
	for i := range cols {
		cl := ColumnLayout{Index: i}
		cl.Width, cl.HasWidth = rule.Width(stats.Lengths(i))
		cl.Kind, cl.HasKind = stats.DominantKind(i)
		cl.Numeric = cl.HasKind && cl.Kind == KindDecimal
		cols[i] = cl
	}
	return Layout{Columns: cols}
}

// Finalize styles sheet using stats: column widths, the number format of
// decimal columns, header styling and the auto-filter. A sheet can only be
// finalized once.
func Finalize(sheet *StyleableSheet, stats *Accumulator) error {
	if sheet.finalized {
		return ErrAlreadyFinalized
	}
	if stats.Columns() != len(sheet.columns) {
		return fmt.Errorf("%w: sheet has %d, statistics have %d", ErrColumnMismatch, len(sheet.columns), stats.Columns())
	}
	sheet.finalized = true

	cfg := sheet.cfg
	layout := PlanLayout(stats, cfg.widthRule)
	numberStyle := &StyleTemplate{NumFmt: cfg.numberFormat}

	for _, cl := range layout.Columns {
		if cl.HasWidth {
			if err := sheet.SetColumnWidth(cl.Index, cl.Width); err != nil {
				return fmt.Errorf("set width of column %d: %w", cl.Index, err)
			}
		}
		if cl.Numeric {
			if err := sheet.StyleColumn(cl.Index, numberStyle); err != nil {
				return fmt.Errorf("format column %d: %w", cl.Index, err)
			}
		}
	}

	if err := sheet.StyleHeader(cfg.headerStyle, cfg.headerHeight); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if cfg.autoFilter {
		if err := sheet.AutoFilter(); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}
	return nil
}
