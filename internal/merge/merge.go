// Package merge implements the n-way ordered merge of event sources
// described in the ordered-merge component: a min-heap over live source
// heads, yielding a single stream non-decreasing in (height, tiebreaker).
package merge

import (
	"container/heap"
	"context"
	"io"

	"github.com/aleph-im/nodestatus/internal/events"
)

// Source is a single ordered event producer. Next must return events with
// non-decreasing Height; io.EOF signals exhaustion. Sources are expected to
// do their own I/O fan-out internally but must serialize their own output.
type Source interface {
	Next(ctx context.Context) (*events.Event, error)
}

// head is one live heap entry: the most recently fetched event from a
// source, plus the source's position for stable ordering at equal keys.
type head struct {
	event  *events.Event
	order  int
	source Source
}

type headHeap []*head

func (h headHeap) Len() int { return len(h) }

func (h headHeap) Less(i, j int) bool {
	a, b := h[i].event, h[j].event
	if a.Height != b.Height {
		return a.Height < b.Height
	}
	if a.Tiebreaker != b.Tiebreaker {
		return a.Tiebreaker < b.Tiebreaker
	}
	return h[i].order < h[j].order
}

func (h headHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *headHeap) Push(x interface{}) { *h = append(*h, x.(*head)) }

func (h *headHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Merger drains N sources in non-decreasing (height, tiebreaker) order.
// Consumers MUST NOT rely on inter-source order at the same key: the
// tiebreaker exists only to avoid a systematic bias between sources that
// happen to report the same height, not to encode a meaningful ordering.
type Merger struct {
	h headHeap
}

// New primes the merger by fetching one event from every source. A source
// that is already exhausted (returns io.EOF immediately) is dropped.
func New(ctx context.Context, sources []Source) (*Merger, error) {
	m := &Merger{h: make(headHeap, 0, len(sources))}
	for order, src := range sources {
		ev, err := src.Next(ctx)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.h = append(m.h, &head{event: ev, order: order, source: src})
	}
	heap.Init(&m.h)
	return m, nil
}

// Next returns the next event in merge order, or io.EOF once every source
// is exhausted.
func (m *Merger) Next(ctx context.Context) (*events.Event, error) {
	if m.h.Len() == 0 {
		return nil, io.EOF
	}
	top := m.h[0]
	result := top.event

	next, err := top.source.Next(ctx)
	if err == io.EOF {
		heap.Pop(&m.h)
	} else if err != nil {
		return nil, err
	} else {
		top.event = next
		heap.Fix(&m.h, 0)
	}

	return result, nil
}
