// Package source produces rows for an export in fixed-size batches.
package source

import (
	"context"

	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

// DefaultChunkSize is the number of rows fetched per batch.
const DefaultChunkSize = 1000

// Source is a forward-only row stream with a fixed column list.
// Next returns io.EOF once every row has been delivered. A Source cannot be
// restarted.
type Source interface {
	Columns() []string
	Next(ctx context.Context) ([]xlsxexport.Row, error)
	// RowCount is the number of rows delivered so far; final after io.EOF.
	RowCount() int64
	Close() error
}
