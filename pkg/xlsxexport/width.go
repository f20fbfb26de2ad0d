package xlsxexport

import "sort"

const (
	DefaultMinWidth     = 6
	DefaultFullLenLimit = 25
	DefaultPercentile   = 90
)

// WidthRule holds the thresholds of the column width heuristic.
type WidthRule struct {
	// MinWidth is the narrowest width ever assigned.
	MinWidth int
	// FullLenLimit is the longest value that is always shown in full.
	FullLenLimit int
	// Percentile caps wider columns at this nearest-rank percentile.
	Percentile int
}

// DefaultWidthRule is the rule used when none is configured.
var DefaultWidthRule = WidthRule{
	MinWidth:     DefaultMinWidth,
	FullLenLimit: DefaultFullLenLimit,
	Percentile:   DefaultPercentile,
}

// Width computes the display width for a column from its rendered lengths.
// Columns whose longest value is short enough get the full length. Longer
// columns are capped at the percentile length so a few outliers do not blow
// the column up. ok is false when there were no rows.
func (r WidthRule) Width(lengths []int) (width float64, ok bool) {
	if len(lengths) == 0 {
		return 0, false
	}
	sorted := append([]int(nil), lengths...)
	sort.Ints(sorted)
	maxLen := sorted[len(sorted)-1]

	if maxLen <= r.FullLenLimit {
		return float64(max(maxLen, r.MinWidth)), true
	}

	n := len(sorted)
	rank := (n*r.Percentile + 99) / 100 // ceil(n*p/100), 1-based
	rank = min(max(rank, 1), n)
	return float64(min(maxLen, sorted[rank-1])), true
}

// ColumnWidth applies DefaultWidthRule.
func ColumnWidth(lengths []int) (float64, bool) {
	return DefaultWidthRule.Width(lengths)
}
