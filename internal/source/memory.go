package source

import (
	"context"
	"io"

	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

// MemorySource serves rows held in memory. It is used for fixtures and for
// results produced outside a database.
type MemorySource struct {
	columns   []string
	rows      []xlsxexport.Row
	chunkSize int
	pos       int
	closed    bool
}

func NewMemorySource(columns []string, rows []xlsxexport.Row, chunkSize int) *MemorySource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &MemorySource{columns: columns, rows: rows, chunkSize: chunkSize}
}

func (m *MemorySource) Columns() []string { return m.columns }

func (m *MemorySource) RowCount() int64 { return int64(m.pos) }

func (m *MemorySource) Next(ctx context.Context) ([]xlsxexport.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.pos >= len(m.rows) {
		return nil, io.EOF
	}
	end := min(m.pos+m.chunkSize, len(m.rows))
	batch := m.rows[m.pos:end]
	m.pos = end
	return batch, nil
}

func (m *MemorySource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemorySource) Closed() bool { return m.closed }
