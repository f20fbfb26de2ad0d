package xlsxexport

// Accumulator collects per-column statistics while rows are written.
// It keeps rendered lengths and kind counts, never the values themselves.
type Accumulator struct {
	lengths [][]int
	counts  [][numKinds]int
	// order lists kinds in the order they first appeared in each column.
	order [][]Kind
	rows  int64
}

const numKinds = int(KindOther) + 1

// NewAccumulator returns an Accumulator for n columns.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		lengths: make([][]int, n),
		counts:  make([][numKinds]int, n),
		order:   make([][]Kind, n),
	}
}

// Observe records one row. The row must have one value per column.
func (a *Accumulator) Observe(row Row) {
	if len(row) != len(a.lengths) {
		panic("xlsxexport: observed row width does not match column count")
	}
	for i, v := range row {
		a.lengths[i] = append(a.lengths[i], v.Len())
		k := v.Kind()
		if a.counts[i][k] == 0 {
			a.order[i] = append(a.order[i], k)
		}
		a.counts[i][k]++
	}
	a.rows++
}

// Columns is the number of columns tracked.
func (a *Accumulator) Columns() int { return len(a.lengths) }

// Rows is the number of rows observed.
func (a *Accumulator) Rows() int64 { return a.rows }

// Lengths returns the rendered lengths seen in column i, in row order.
func (a *Accumulator) Lengths(i int) []int { return a.lengths[i] }

// Count returns how many values of kind k column i has seen.
func (a *Accumulator) Count(i int, k Kind) int { return a.counts[i][k] }

// DominantKind returns the most frequent non-null kind of column i.
// Ties go to the kind seen first. ok is false when the column held only nulls.
func (a *Accumulator) DominantKind(i int) (kind Kind, ok bool) {
	best := 0
	for _, k := range a.order[i] {
		if k == KindNull {
			continue
		}
		if n := a.counts[i][k]; n > best {
			best, kind, ok = n, k, true
		}
	}
	return kind, ok
}
