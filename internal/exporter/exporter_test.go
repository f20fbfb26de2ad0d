package exporter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/locvowork/sql2xlsx/internal/source"
	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

type fakeConn struct {
	src      source.Source
	queryErr error
	closed   int
}

func (c *fakeConn) Query(context.Context, string, int) (source.Source, error) {
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.src, nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func dialerFor(c *fakeConn) Dialer {
	return DialerFunc(func(context.Context) (Conn, error) { return c, nil })
}

// brokenSource fails once failAfter batches have been served.
type brokenSource struct {
	*source.MemorySource
	failAfter int
	calls     int
	onCall    func(n int)
}

func (b *brokenSource) Next(ctx context.Context) ([]xlsxexport.Row, error) {
	b.calls++
	if b.onCall != nil {
		b.onCall(b.calls)
	}
	if b.failAfter > 0 && b.calls > b.failAfter {
		return nil, errors.New("lost connection to server")
	}
	return b.MemorySource.Next(ctx)
}

func sampleRows(n int) []xlsxexport.Row {
	rows := make([]xlsxexport.Row, n)
	for i := range rows {
		rows[i] = xlsxexport.Row{
			xlsxexport.Int(int64(i + 1)),
			xlsxexport.Text(fmt.Sprintf("customer %d", i+1)),
			xlsxexport.Float(float64(i) * 1.25),
		}
	}
	return rows
}

var sampleColumns = []string{"id", "customer_name", "amount"}

func openSQLite(t *testing.T, rows int) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE orders (order_id INTEGER, customer_name TEXT, total REAL, status TEXT)`)
	require.NoError(t, err)
	tx, err := db.Begin()
	require.NoError(t, err)
	for i := 1; i <= rows; i++ {
		_, err = tx.Exec(`INSERT INTO orders VALUES (?, ?, ?, ?)`, i, fmt.Sprintf("customer-%d", i), float64(i)/4, "open")
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
	return db
}

func leftovers(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".sql2xlsx-*"))
	require.NoError(t, err)
	return matches
}

func TestExportSQLiteEndToEnd(t *testing.T) {
	t.Parallel()

	db := openSQLite(t, 2500)
	dir := t.TempDir()
	out := filepath.Join(dir, "orders.xlsx")

	var states []State
	e := New(
		DialerFunc(func(context.Context) (Conn, error) { return &sqlConn{db: db}, nil }),
		WithChunkSize(1000),
		WithStateHook(func(s State) { states = append(states, s) }),
	)

	res, err := e.Export(context.Background(), `SELECT order_id, customer_name, total, status FROM orders ORDER BY order_id`, out)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), res.Rows)
	assert.Equal(t, out, res.OutputPath)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []State{StateConnected, StateExecuted, StateWriting, StateWritten, StateFinalizing, StateDone}, states)
	assert.Empty(t, leftovers(t, dir), "intermediate file removed")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxexport.DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2501)
	assert.Equal(t, []string{"Order Id", "Customer Name", "Total", "Status"}, rows[0])

	id, err := f.GetCellStyle(xlsxexport.DefaultSheetName, "C2")
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, xlsxexport.DefaultNumberFormat, *style.CustomNumFmt)

	// the pool was handed to the export and closed with it
	assert.Error(t, db.Ping())
}

func TestExportIsDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var outputs []string
	for i := 0; i < 2; i++ {
		out := filepath.Join(dir, fmt.Sprintf("run%d.xlsx", i))
		conn := &fakeConn{src: source.NewMemorySource(sampleColumns, sampleRows(300), 64)}
		_, err := New(dialerFor(conn)).Export(context.Background(), "q", out)
		require.NoError(t, err)
		outputs = append(outputs, out)
	}

	describe := func(path string) []string {
		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(xlsxexport.DefaultSheetName)
		require.NoError(t, err)
		var desc []string
		for _, r := range rows {
			desc = append(desc, strings.Join(r, "|"))
		}
		for _, col := range []string{"A", "B", "C"} {
			w, err := f.GetColWidth(xlsxexport.DefaultSheetName, col)
			require.NoError(t, err)
			id, err := f.GetCellStyle(xlsxexport.DefaultSheetName, col+"2")
			require.NoError(t, err)
			desc = append(desc, fmt.Sprintf("%s:%v:%d", col, w, id))
		}
		return desc
	}
	assert.Equal(t, describe(outputs[0]), describe(outputs[1]))
}

func TestExportFailsMidStream(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	src := &brokenSource{MemorySource: source.NewMemorySource(sampleColumns, sampleRows(5000), 1000), failAfter: 2}
	conn := &fakeConn{src: src}

	_, err := New(dialerFor(conn)).Export(context.Background(), "q", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lost connection to server")

	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StateWriting, stage)

	assert.NoFileExists(t, out)
	assert.Empty(t, leftovers(t, dir))
	assert.Equal(t, 1, conn.closed)
	assert.True(t, src.Closed())
}

func TestExportConnectFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	require.NoError(t, os.WriteFile(out, []byte("previous export"), 0o600))

	refused := errors.New("connection refused")
	e := New(DialerFunc(func(context.Context) (Conn, error) { return nil, refused }))
	_, err := e.Export(context.Background(), "q", out)

	assert.ErrorIs(t, err, refused)
	stage, _ := FailedStage(err)
	assert.Equal(t, StateIdle, stage)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous export", string(data), "files this run did not write are left alone")
	assert.Empty(t, leftovers(t, dir))
}

func TestExportQueryFailure(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{queryErr: fmt.Errorf("%w: syntax error", source.ErrDataSource)}
	_, err := New(dialerFor(conn)).Export(context.Background(), "SELEC", filepath.Join(t.TempDir(), "o.xlsx"))

	assert.ErrorIs(t, err, source.ErrDataSource)
	stage, _ := FailedStage(err)
	assert.Equal(t, StateConnected, stage)
	assert.Equal(t, 1, conn.closed)
}

func TestExportNoColumns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	conn := &fakeConn{src: source.NewMemorySource(nil, nil, 10)}
	_, err := New(dialerFor(conn)).Export(context.Background(), "q", filepath.Join(dir, "o.xlsx"))

	assert.ErrorIs(t, err, ErrNoColumns)
	assert.ErrorIs(t, err, ErrConfig)
	assert.NoFileExists(t, filepath.Join(dir, "o.xlsx"))
	assert.Equal(t, 1, conn.closed)
}

func TestExportCancelledBetweenBatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &brokenSource{
		MemorySource: source.NewMemorySource(sampleColumns, sampleRows(1000), 100),
		onCall: func(n int) {
			if n == 3 {
				cancel()
			}
		},
	}
	conn := &fakeConn{src: src}

	_, err := New(dialerFor(conn)).Export(ctx, "q", out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
	assert.Empty(t, leftovers(t, dir))
	assert.Equal(t, 1, conn.closed)
}

func TestExportZeroRows(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.xlsx")
	conn := &fakeConn{src: source.NewMemorySource(sampleColumns, nil, 10)}
	res, err := New(dialerFor(conn)).Export(context.Background(), "q", out)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Rows)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxexport.DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Id", "Customer Name", "Amount"}}, rows)
}

func TestExportIntermediateIsOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	conn := &fakeConn{src: source.NewMemorySource(sampleColumns, sampleRows(50), 10)}

	res, err := New(dialerFor(conn), WithIntermediatePath(out)).Export(context.Background(), "q", out)
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Rows)
	assert.FileExists(t, out)
}

func TestExportIntermediateIsOutputKeepsExistingFileOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	require.NoError(t, os.WriteFile(out, []byte("previous export"), 0o600))
	src := &brokenSource{MemorySource: source.NewMemorySource(sampleColumns, sampleRows(50), 10), failAfter: 2}
	conn := &fakeConn{src: src}

	_, err := New(dialerFor(conn), WithIntermediatePath(out)).Export(context.Background(), "q", out)
	require.Error(t, err)
	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StateWriting, stage)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous export", string(got))
	assert.Equal(t, 1, conn.closed)
}

func TestExportExplicitIntermediateKept(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	tmp := filepath.Join(dir, "work.xlsx")
	conn := &fakeConn{src: source.NewMemorySource(sampleColumns, sampleRows(5), 10)}

	_, err := New(dialerFor(conn), WithIntermediatePath(tmp)).Export(context.Background(), "q", out)
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.FileExists(t, tmp)

	f, err := excelize.OpenFile(tmp)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxexport.DefaultSheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestExportExplicitIntermediateRemovedOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")
	tmp := filepath.Join(dir, "work.xlsx")
	// a non-empty directory at the output path makes the final save fail
	require.NoError(t, os.Mkdir(out, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep"), nil, 0o600))
	conn := &fakeConn{src: source.NewMemorySource(sampleColumns, sampleRows(5), 10)}

	_, err := New(dialerFor(conn), WithIntermediatePath(tmp)).Export(context.Background(), "q", out)
	require.Error(t, err)
	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StateFinalizing, stage)

	assert.NoFileExists(t, tmp)
	assert.DirExists(t, out)
}

func TestExportWithPrefetch(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.xlsx")
	mem := source.NewMemorySource(sampleColumns, sampleRows(2345), 100)
	conn := &fakeConn{src: mem}

	res, err := New(dialerFor(conn), WithPrefetch(2), WithSheetOptions(xlsxexport.WithSheetName("Data"))).
		Export(context.Background(), "q", out)
	require.NoError(t, err)
	assert.Equal(t, int64(2345), res.Rows)
	assert.True(t, mem.Closed())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 2346)
	for i := 1; i < len(rows); i++ {
		require.Equal(t, fmt.Sprint(i), rows[i][0])
	}
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	assert.True(t, canTransition(StateIdle, StateConnected))
	assert.True(t, canTransition(StateWriting, StateFailed))
	assert.False(t, canTransition(StateIdle, StateWriting))
	assert.False(t, canTransition(StateDone, StateFailed))
	assert.False(t, canTransition(StateFailed, StateIdle))
	assert.Equal(t, "finalizing", StateFinalizing.String())
}
