package history

import (
	"context"
	"errors"
	"sync"

	"github.com/lox/fairdeal/internal/game"
)

// maxPendingHands caps how many partly recorded hands MultiSink remembers.
const maxPendingHands = 1024

// MultiSink fans a record out to several sinks. When some sinks fail, a
// retry of the same hand only calls the ones that have not succeeded yet.
// Once more than limit hands are pending the oldest is forgotten, and a
// later retry of it calls every sink again.
type MultiSink struct {
	sinks []game.Sink
	limit int

	mu      sync.Mutex
	pending map[string][]bool
	order   []string // first-failure order; may hold ids already cleared
}

var _ game.Sink = (*MultiSink)(nil)

// NewMultiSink returns a sink writing to every non-nil sink in order.
func NewMultiSink(sinks ...game.Sink) *MultiSink {
	m := &MultiSink{limit: maxPendingHands, pending: make(map[string][]bool)}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Record implements game.Sink.
func (m *MultiSink) Record(ctx context.Context, r game.Record) error {
	m.mu.Lock()
	done, ok := m.pending[r.HandID]
	if !ok {
		done = make([]bool, len(m.sinks))
	}
	m.mu.Unlock()

	var errs []error
	for i, s := range m.sinks {
		if done[i] {
			continue
		}
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
			continue
		}
		done[i] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(errs) == 0 {
		delete(m.pending, r.HandID)
		return nil
	}
	if !ok {
		m.order = append(m.order, r.HandID)
	}
	m.pending[r.HandID] = done
	m.trim()
	return errors.Join(errs...)
}

func (m *MultiSink) trim() {
	for len(m.pending) > m.limit && len(m.order) > 0 {
		delete(m.pending, m.order[0])
		m.order = m.order[1:]
	}
	if len(m.order) > 2*m.limit {
		live := m.order[:0:0]
		for _, id := range m.order {
			if _, ok := m.pending[id]; ok {
				live = append(live, id)
			}
		}
		m.order = live
	}
}
