package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

type batchResult struct {
	rows []xlsxexport.Row
	err  error
}

// Prefetch reads batches from an underlying Source on a background
// goroutine so the next batch is fetched while the current one is written.
// Batches are delivered in source order.
type Prefetch struct {
	src    Source
	out    chan batchResult
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	count  int64
	err    error
}

// NewPrefetch starts fetching from src, keeping up to depth batches ahead.
func NewPrefetch(ctx context.Context, src Source, depth int) *Prefetch {
	if depth < 1 {
		depth = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Prefetch{
		src:    src,
		out:    make(chan batchResult, depth),
		cancel: cancel,
	}
	p.wg.Add(1)
	go p.run(ctx)
	return p
}

func (p *Prefetch) run(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.out)
	defer func() {
		if r := recover(); r != nil {
			p.send(ctx, batchResult{err: fmt.Errorf("panic in prefetch: %v", r)})
		}
	}()

	for {
		rows, err := p.src.Next(ctx)
		if !p.send(ctx, batchResult{rows: rows, err: err}) || err != nil {
			return
		}
	}
}

func (p *Prefetch) send(ctx context.Context, r batchResult) bool {
	select {
	case p.out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Prefetch) Columns() []string { return p.src.Columns() }

// RowCount counts rows handed to the caller, not rows fetched ahead.
func (p *Prefetch) RowCount() int64 { return p.count }

func (p *Prefetch) Next(ctx context.Context) ([]xlsxexport.Row, error) {
	if p.err != nil {
		return nil, p.err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-p.out:
		if !ok {
			// the producer stopped without a terminal result: cancelled
			p.err = context.Canceled
			return nil, p.err
		}
		if r.err != nil {
			p.err = r.err
			return nil, r.err
		}
		p.count += int64(len(r.rows))
		return r.rows, nil
	}
}

// Close stops the background fetch, waits for it and closes the source.
func (p *Prefetch) Close() error {
	var err error
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
		err = p.src.Close()
		if p.err == nil {
			p.err = errors.New("source: prefetch closed")
		}
	})
	return err
}

var _ Source = (*Prefetch)(nil)
var _ Source = (*SQLSource)(nil)
var _ Source = (*MemorySource)(nil)
