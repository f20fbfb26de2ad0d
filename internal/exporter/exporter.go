// Package exporter runs a query and streams its result into a styled
// workbook: connect, execute, stream rows while gathering statistics, flush,
// reopen, style, save.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/sql2xlsx/internal/logger"
	"github.com/locvowork/sql2xlsx/internal/source"
	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

// Exporter runs exports. It holds no per-run state and is safe for
// concurrent use.
type Exporter struct {
	dialer        Dialer
	chunkSize     int
	prefetch      bool
	prefetchDepth int
	intermediate  string
	sheetOpts     []xlsxexport.Option
	onState       func(State)
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithChunkSize sets the number of rows fetched per batch.
func WithChunkSize(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithPrefetch fetches up to depth batches ahead of the writer.
func WithPrefetch(depth int) Option {
	return func(e *Exporter) {
		e.prefetch = depth > 0
		e.prefetchDepth = depth
	}
}

// WithIntermediatePath fixes where the streamed workbook is flushed before
// styling. The file is kept after a successful run and removed on failure.
// By default a temporary file next to the output is used and always removed.
func WithIntermediatePath(path string) Option {
	return func(e *Exporter) { e.intermediate = path }
}

// WithSheetOptions passes options through to the sheet writer and finalizer.
func WithSheetOptions(opts ...xlsxexport.Option) Option {
	return func(e *Exporter) { e.sheetOpts = append(e.sheetOpts, opts...) }
}

// WithStateHook is called on every state transition of every run.
func WithStateHook(fn func(State)) Option {
	return func(e *Exporter) { e.onState = fn }
}

// New returns an Exporter that opens connections with d.
func New(d Dialer, opts ...Option) *Exporter {
	e := &Exporter{
		dialer:    d,
		chunkSize: source.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarizes a finished export.
type Result struct {
	RunID      string
	OutputPath string
	Columns    []string
	Rows       int64
	Duration   time.Duration
}

// run is the state of a single export.
type run struct {
	*Exporter
	id    string
	state State

	conn     Conn
	src      source.Source
	writer   *xlsxexport.SheetWriter
	sheet    *xlsxexport.StyleableSheet
	output   string
	released bool

	// intermediate workbook; autoTemp marks one this run created itself
	tempPath     string
	autoTemp     bool
	sameAsOutput bool
	// set once this run has written the respective file
	wroteTemp  bool
	ownsOutput bool
}

// Export runs query and writes the styled result to output. On failure any
// partial output written by this run is removed; a file already at output is
// left alone unless this run overwrote it. The connection and temporary
// files are released on every path.
func (e *Exporter) Export(ctx context.Context, query, output string) (res *Result, err error) {
	r := &run{Exporter: e, id: uuid.NewString(), state: StateIdle, output: output}
	ctx = logger.WithRunID(ctx, r.id)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			r.abort(ctx)
			r.release(ctx)
			panic(p)
		}
		if err != nil {
			err = &StageError{Stage: r.state, Err: err}
			r.abort(ctx)
		}
		r.release(ctx)
	}()

	res, err = r.execute(ctx, query)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	logger.InfoLog(ctx, "exported %d rows in %d columns to %s in %s", res.Rows, len(res.Columns), output, res.Duration)
	return res, nil
}

func (r *run) execute(ctx context.Context, query string) (*Result, error) {
	// 1. Connect
	logger.InfoLog(ctx, "connecting to data source")
	conn, err := r.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	r.conn = conn
	r.transition(ctx, StateConnected)

	// 2. Execute
	src, err := conn.Query(ctx, query, r.chunkSize)
	if err != nil {
		return nil, err
	}
	r.src = src
	cols := src.Columns()
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	if r.prefetch {
		r.src = source.NewPrefetch(ctx, src, r.prefetchDepth)
	}
	r.transition(ctx, StateExecuted)

	// 3. Stream rows and gather statistics in the same pass
	if err := r.openSink(); err != nil {
		return nil, err
	}
	columns := xlsxexport.NewColumns(cols)
	if err := r.writer.WriteHeader(columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	r.transition(ctx, StateWriting)

	stats := xlsxexport.NewAccumulator(len(columns))
	if err := r.stream(ctx, stats); err != nil {
		return nil, err
	}

	flushed, err := r.writer.Close()
	r.writer = nil
	if err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}
	r.wroteTemp = true
	if r.sameAsOutput {
		r.ownsOutput = true
	}
	r.transition(ctx, StateWritten)

	// 4. Reopen, style and save
	r.transition(ctx, StateFinalizing)
	if err := r.finalize(flushed, stats); err != nil {
		return nil, err
	}
	r.transition(ctx, StateDone)

	return &Result{
		RunID:      r.id,
		OutputPath: r.output,
		Columns:    cols,
		Rows:       stats.Rows(),
	}, nil
}

func (r *run) openSink() error {
	path := r.intermediate
	if path == "" {
		f, err := os.CreateTemp(filepath.Dir(r.output), ".sql2xlsx-*.xlsx")
		if err != nil {
			return fmt.Errorf("create intermediate file: %w", err)
		}
		path = f.Name()
		_ = f.Close()
		r.autoTemp = true
	}
	r.tempPath = path
	r.sameAsOutput = samePath(path, r.output)

	w, err := xlsxexport.NewSheetWriter(path, r.sheetOpts...)
	if err != nil {
		return err
	}
	r.writer = w
	return nil
}

func (r *run) stream(ctx context.Context, stats *xlsxexport.Accumulator) error {
	batches := 0
	for {
		// cancellation is honored between batches only
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := r.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		logger.TraceLog(ctx, "fetched batch %d with %d rows", batches+1, len(batch))
		for _, row := range batch {
			if err := r.writer.AppendRow(row); err != nil {
				return err
			}
			stats.Observe(row)
		}
		batches++
		logger.DebugLog(ctx, "batch %d written, %d rows so far", batches, stats.Rows())
	}
}

func (r *run) finalize(flushed *xlsxexport.FlushedSheet, stats *xlsxexport.Accumulator) error {
	sheet, err := flushed.Reopen()
	if err != nil {
		return err
	}
	r.sheet = sheet

	if err := xlsxexport.Finalize(sheet, stats); err != nil {
		return fmt.Errorf("finalize sheet: %w", err)
	}
	r.ownsOutput = true
	if err := sheet.SaveAs(r.output); err != nil {
		return fmt.Errorf("save %s: %w", r.output, err)
	}
	err = sheet.Close()
	r.sheet = nil
	return err
}

func (r *run) transition(ctx context.Context, to State) {
	if !canTransition(r.state, to) {
		panic(fmt.Sprintf("exporter: invalid transition %s -> %s", r.state, to))
	}
	logger.DebugLog(ctx, "export state %s -> %s", r.state, to)
	r.state = to
	if r.onState != nil {
		r.onState(to)
	}
}

// abort moves the run to failed and discards partial output.
func (r *run) abort(ctx context.Context) {
	if r.state.Terminal() {
		return
	}
	logger.ErrorLog(ctx, "export failed while %s", r.state)
	r.transition(ctx, StateFailed)

	if r.writer != nil {
		if err := r.writer.Discard(); err != nil {
			logger.WarnLog(ctx, "discard sheet writer: %v", err)
		}
		r.writer = nil
	}
	if r.sheet != nil {
		if err := r.sheet.Close(); err != nil {
			logger.WarnLog(ctx, "close sheet: %v", err)
		}
		r.sheet = nil
	}
	if r.ownsOutput {
		removeFile(ctx, r.output)
	}
	if r.wroteTemp && !r.autoTemp && !r.sameAsOutput {
		removeFile(ctx, r.tempPath)
	}
}

// release closes the source and connection and removes the temporary
// intermediate file. It runs once per export, whatever the outcome.
func (r *run) release(ctx context.Context) {
	if r.released {
		return
	}
	r.released = true

	if r.src != nil {
		if err := r.src.Close(); err != nil {
			logger.WarnLog(ctx, "close source: %v", err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			logger.WarnLog(ctx, "close connection: %v", err)
		}
	}
	if r.autoTemp {
		removeFile(ctx, r.tempPath)
	}
}

func removeFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnLog(ctx, "remove %s: %v", path, err)
	}
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
