package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

// ErrDataSource wraps failures reported by the database while fetching.
var ErrDataSource = errors.New("source: data source error")

// SQLSource streams the result of one query.
type SQLSource struct {
	rows      *sql.Rows
	columns   []string
	classes   []typeClass
	chunkSize int
	count     int64
	done      bool

	// scan buffers reused for every row
	raw  []interface{}
	ptrs []interface{}
}

// Query executes query on db and returns a source positioned before the
// first row. The column list is available immediately.
func Query(ctx context.Context, db *sql.DB, query string, chunkSize int) (*SQLSource, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: execute query: %v", ErrDataSource, err)
	}
	src, err := FromRows(rows, chunkSize)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return src, nil
}

// FromRows wraps an already executed result set.
func FromRows(rows *sql.Rows, chunkSize int) (*SQLSource, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: read columns: %v", ErrDataSource, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: read column types: %v", ErrDataSource, err)
	}

	classes := make([]typeClass, len(types))
	for i, ct := range types {
		classes[i] = classify(ct.DatabaseTypeName())
	}
	raw := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	return &SQLSource{
		rows:      rows,
		columns:   cols,
		classes:   classes,
		chunkSize: chunkSize,
		raw:       raw,
		ptrs:      ptrs,
	}, nil
}

func (s *SQLSource) Columns() []string { return s.columns }

func (s *SQLSource) RowCount() int64 { return s.count }

// Next fetches up to chunkSize rows.
func (s *SQLSource) Next(ctx context.Context) ([]xlsxexport.Row, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]xlsxexport.Row, 0, s.chunkSize)
	for len(batch) < s.chunkSize {
		if !s.rows.Next() {
			s.done = true
			if err := s.rows.Err(); err != nil {
				return nil, fmt.Errorf("%w: fetch: %v", ErrDataSource, err)
			}
			break
		}
		if err := s.rows.Scan(s.ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan row %d: %v", ErrDataSource, s.count+int64(len(batch))+1, err)
		}
		row := make(xlsxexport.Row, len(s.raw))
		for i, v := range s.raw {
			val, err := decode(v, s.classes[i])
			if err != nil {
				return nil, fmt.Errorf("%w: column %s: %v", ErrDataSource, s.columns[i], err)
			}
			row[i] = val
		}
		batch = append(batch, row)
	}

	s.count += int64(len(batch))
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (s *SQLSource) Close() error {
	return s.rows.Close()
}
