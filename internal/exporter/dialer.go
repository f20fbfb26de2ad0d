package exporter

import (
	"context"
	"database/sql"

	"github.com/locvowork/sql2xlsx/internal/database"
	"github.com/locvowork/sql2xlsx/internal/source"
)

// Conn is an open connection able to run the export query.
type Conn interface {
	Query(ctx context.Context, query string, chunkSize int) (source.Source, error)
	Close() error
}

// Dialer opens a Conn. Implementations may retry internally; the query itself
// is never retried.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// SQLDialer connects through database/sql.
type SQLDialer struct {
	Config database.Config
}

func (d SQLDialer) Dial(ctx context.Context) (Conn, error) {
	db, err := database.NewDB(ctx, d.Config)
	if err != nil {
		return nil, err
	}
	return &sqlConn{db: db}, nil
}

type sqlConn struct {
	db *sql.DB
}

func (c *sqlConn) Query(ctx context.Context, query string, chunkSize int) (source.Source, error) {
	return source.Query(ctx, c.db, query, chunkSize)
}

func (c *sqlConn) Close() error { return c.db.Close() }
