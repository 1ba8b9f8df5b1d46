// Package pipeline is the top-level driver generalizing job/scheduler.go's
// JobScheduler (register, run, ctx-cancel shutdown) from periodic
// background jobs to one-shot per-journal harvest/convert/write runs,
// ordered by the §4.4 emission rule.
package pipeline

import (
	"container/heap"
	"sync"

	"zoterharvest/internal/domain"
)

// completion is one worker's finished unit of work for a single
// HarvestableItem: zero or more assembled catalog records (an item can
// fold into zero records via a skip, or occasionally more than one if
// the translation service returned several surviving zotero items for
// one URL).
type completion struct {
	id      uint64
	records []domain.CatalogRecord
}

type completionHeap []completion

func (h completionHeap) Len() int            { return len(h) }
func (h completionHeap) Less(i, j int) bool  { return h[i].id < h[j].id }
func (h completionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *completionHeap) Push(x interface{}) { *h = append(*h, x.(completion)) }
func (h *completionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// emitQueue buffers out-of-order completions and releases them to a
// sink in increasing HarvestableItem-id order, per spec §4.4: "emit in
// increasing id order, waiting if the next-in-line isn't ready but
// others are progressing, proceeding anyway if no worker is progressing
// to avoid deadlock."
type emitQueue struct {
	mu          sync.Mutex
	pending     completionHeap
	nextID      uint64
	outstanding int // dispatched work items not yet Submit()-ed
}

func newEmitQueue(firstID uint64) *emitQueue {
	return &emitQueue{nextID: firstID}
}

// Dispatch marks one more unit of work as in flight, ahead of calling
// Submit for it.
func (q *emitQueue) Dispatch() {
	q.mu.Lock()
	q.outstanding++
	q.mu.Unlock()
}

// Submit records a finished unit of work and releases every
// now-emittable completion (in order) to emit.
func (q *emitQueue) Submit(c completion, emit func(completion)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.pending, c)
	q.outstanding--
	q.drain(emit)
}

func (q *emitQueue) drain(emit func(completion)) {
	for q.pending.Len() > 0 {
		top := q.pending[0]
		if top.id == q.nextID {
			heap.Pop(&q.pending)
			q.nextID++
			emit(top)
			continue
		}
		if q.outstanding > 0 {
			return // something still in flight might produce nextID; wait for it
		}
		// No worker is still progressing, so nextID will never arrive (it was
		// filtered out upstream, e.g. already-delivered). Jump ahead rather
		// than deadlock.
		heap.Pop(&q.pending)
		q.nextID = top.id + 1
		emit(top)
	}
}
