// Package logger implements the tasklet-context logger described in
// SPEC_FULL.md §4.7: log lines emitted while a goroutine is registered
// against a HarvestableItem are buffered and flushed as one unit, so
// concurrent operations stay interleaved-by-tasklet rather than
// interleaved-by-line. It generalizes utils/logger's TraceContextHandler,
// which already decorates a handler based on context values, from
// trace-id/span-id propagation to an arbitrary per-tasklet buffer.
package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"zoterharvest/internal/domain"
)

type ctxKey string

const bufferCtxKey ctxKey = "tasklet_buffer"

// bufferedRecord is a flattened copy of an slog.Record, safe to hold past
// the lifetime of the original Record value.
type bufferedRecord struct {
	Time  time.Time
	Level slog.Level
	Msg   string
	Attrs []slog.Attr
}

// taskletBuffer accumulates log lines for one in-flight operation.
type taskletBuffer struct {
	id      uint64
	itemID  uint64
	itemURL string
	mu      sync.Mutex
	records []bufferedRecord
}

func (b *taskletBuffer) append(r bufferedRecord) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

func (b *taskletBuffer) snapshot() []bufferedRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bufferedRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Registry tracks every currently-registered tasklet buffer (for the
// active-context dump on fatal error) and owns the global flush queue
// drained by the main thread.
type Registry struct {
	nextID  atomic.Uint64
	active  sync.Map // uint64 -> *taskletBuffer
	flushed chan *taskletBuffer

	activeCount atomic.Int64
	queuedCount atomic.Int64
}

// NewRegistry creates a Registry with a flush queue of the given capacity.
func NewRegistry(queueCapacity int) *Registry {
	return &Registry{flushed: make(chan *taskletBuffer, queueCapacity)}
}

// Register attaches a new tasklet buffer keyed by item to ctx and returns
// the decorated context plus a deregister function. Deregister must be
// called exactly once, typically via defer, when the tasklet completes.
func (r *Registry) Register(ctx context.Context, item domain.HarvestableItem) (context.Context, func()) {
	buf := &taskletBuffer{id: r.nextID.Add(1), itemID: item.ID, itemURL: item.URL}
	r.active.Store(buf.id, buf)
	r.activeCount.Add(1)
	child := context.WithValue(ctx, bufferCtxKey, buf)
	return child, func() {
		r.active.Delete(buf.id)
		r.activeCount.Add(-1)
		r.queuedCount.Add(1)
		r.flushed <- buf
	}
}

// ActiveCount and QueuedCount back the single-line progress indicator.
func (r *Registry) ActiveCount() int64 { return r.activeCount.Load() }
func (r *Registry) QueuedCount() int64 { return r.queuedCount.Load() }

// Drain blocks until at least one flushed buffer is available (or ctx is
// done) and writes its records to sink in order.
func (r *Registry) Drain(ctx context.Context, sink *slog.Logger) bool {
	select {
	case buf := <-r.flushed:
		r.queuedCount.Add(-1)
		for _, rec := range buf.snapshot() {
			sink.LogAttrs(ctx, rec.Level, rec.Msg, append(rec.Attrs, slog.Uint64("item_id", buf.itemID), slog.String("item_url", buf.itemURL))...)
		}
		return true
	case <-ctx.Done():
		return false
	}
}

// DrainAll flushes every already-queued buffer without blocking; used on
// shutdown to avoid losing buffered lines.
func (r *Registry) DrainAll(sink *slog.Logger) {
	for {
		select {
		case buf := <-r.flushed:
			r.queuedCount.Add(-1)
			for _, rec := range buf.snapshot() {
				sink.LogAttrs(context.Background(), rec.Level, rec.Msg, append(rec.Attrs, slog.Uint64("item_id", buf.itemID), slog.String("item_url", buf.itemURL))...)
			}
		default:
			return
		}
	}
}

// DumpActive writes every still-registered tasklet's buffered lines to
// sink. Called before process termination on a FatalError (spec §7).
func (r *Registry) DumpActive(sink *slog.Logger) {
	r.active.Range(func(_, v any) bool {
		buf := v.(*taskletBuffer)
		sink.Warn("active tasklet at termination", "item_id", buf.itemID, "item_url", buf.itemURL, "buffered_lines", len(buf.snapshot()))
		for _, rec := range buf.snapshot() {
			sink.LogAttrs(context.Background(), rec.Level, rec.Msg, append(rec.Attrs, slog.Uint64("item_id", buf.itemID))...)
		}
		return true
	})
}
