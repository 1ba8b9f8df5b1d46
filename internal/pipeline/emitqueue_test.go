package pipeline

import (
	"testing"

	"zoterharvest/internal/domain"
)

func TestEmitQueue_EmitsInOrderEvenWhenCompletionsArriveOutOfOrder(t *testing.T) {
	q := newEmitQueue(1)
	var emitted []uint64
	emit := func(c completion) { emitted = append(emitted, c.id) }

	q.Dispatch()
	q.Dispatch()
	q.Dispatch()

	q.Submit(completion{id: 3}, emit)
	if len(emitted) != 0 {
		t.Fatalf("expected nothing emitted yet, got %v", emitted)
	}

	q.Submit(completion{id: 2}, emit)
	if len(emitted) != 0 {
		t.Fatalf("expected nothing emitted yet (waiting on id 1), got %v", emitted)
	}

	q.Submit(completion{id: 1}, emit)
	if want := []uint64{1, 2, 3}; !equalIDs(emitted, want) {
		t.Fatalf("emitted = %v, want %v", emitted, want)
	}
}

func TestEmitQueue_AdvancesPastMissingIDOnceNothingOutstanding(t *testing.T) {
	q := newEmitQueue(1)
	var emitted []uint64
	emit := func(c completion) { emitted = append(emitted, c.id) }

	// Item 1 was filtered upstream (already delivered) and never dispatched.
	q.Dispatch() // id 2
	q.Dispatch() // id 3

	q.Submit(completion{id: 3}, emit)
	if len(emitted) != 0 {
		t.Fatalf("expected wait while id 2 still outstanding, got %v", emitted)
	}

	q.Submit(completion{id: 2}, emit)
	if want := []uint64{2, 3}; !equalIDs(emitted, want) {
		t.Fatalf("emitted = %v, want %v (should jump past missing id 1)", emitted, want)
	}
}

func TestEmitQueue_CarriesRecordsThrough(t *testing.T) {
	q := newEmitQueue(5)
	var got []domain.CatalogRecord
	emit := func(c completion) { got = append(got, c.records...) }

	q.Dispatch()
	q.Submit(completion{id: 5, records: []domain.CatalogRecord{{URL: "https://example.org/a"}}}, emit)

	if len(got) != 1 || got[0].URL != "https://example.org/a" {
		t.Fatalf("got %+v", got)
	}
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
