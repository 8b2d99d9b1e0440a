// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package audit

import (
	"context"
	"sync"
)

// defaultMaxEvents bounds the in-memory store; the oldest events fall off.
const defaultMaxEvents = 10000

// MemoryStore keeps audit events in a bounded in-memory ring.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	max    int
}

// NewMemoryStore creates a memory store holding at most max events.
// max <= 0 selects the default bound.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = defaultMaxEvents
	}
	return &MemoryStore{max: max}
}

// Save appends an event, evicting the oldest when the bound is reached.
func (s *MemoryStore) Save(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.max {
		s.events = s.events[1:]
	}
	s.events = append(s.events, *event)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !matches(&e, &filter) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of matching events.
func (s *MemoryStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.events {
		if matches(&s.events[i], &filter) {
			n++
		}
	}
	return n, nil
}

func matches(e *Event, f *QueryFilter) bool {
	if len(f.Types) > 0 && !containsType(f.Types, e.Type) {
		return false
	}
	if len(f.Outcomes) > 0 && !containsOutcome(f.Outcomes, e.Outcome) {
		return false
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

func containsType(types []EventType, t EventType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsOutcome(outcomes []Outcome, o Outcome) bool {
	for _, v := range outcomes {
		if v == o {
			return true
		}
	}
	return false
}
