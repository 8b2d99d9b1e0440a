// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bankgate/bankgate/internal/logging"
)

// defaultBufferSize is the async write buffer length.
const defaultBufferSize = 1000

// Logger records audit events asynchronously. Record never blocks: when the
// buffer is full the event is dropped and counted.
type Logger struct {
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	dropped   atomic.Uint64
}

// NewLogger creates an audit logger writing to store. bufferSize <= 0
// selects the default.
func NewLogger(store Store, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	l := &Logger{
		store:     store,
		eventChan: make(chan *Event, bufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter drains the buffer into the store.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
	}
}

// Record enqueues an event. It fills in ID and timestamp when unset and
// returns immediately; a full buffer drops the event.
func (l *Logger) Record(event *Event) {
	if event.ID == "" {
		event.ID = generateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	default:
		l.dropped.Add(1)
		logging.Warn().Str("event_id", event.ID).Msg("Audit buffer full, dropping event")
	}
}

// Dropped reports how many events were discarded on a full buffer.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close stops the writer after draining buffered events.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// generateEventID returns a random 128-bit hex identifier.
func generateEventID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}

// Helpers for the pipeline's recurring events.

// RecordSuccess records a successful authentication.
func (l *Logger) RecordSuccess(actor Actor, source Source, requestID string) {
	l.Record(&Event{
		Type:        EventTypeAuthSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "authenticate",
		Description: "Principal authenticated",
		RequestID:   requestID,
	})
}

// RecordFailure records a failed authentication attempt. reason is the
// internal taxonomy label, never shown to clients.
func (l *Logger) RecordFailure(actorID, carrier string, source Source, reason, requestID string) {
	l.Record(&Event{
		Type:     EventTypeAuthFailure,
		Severity: SeverityWarning,
		Outcome:  OutcomeFailure,
		Actor: Actor{
			ID:      actorID,
			Type:    "user",
			Carrier: carrier,
		},
		Source:      source,
		Action:      "authenticate",
		Description: "Authentication failed",
		Metadata:    mustJSON(map[string]string{"reason": reason}),
		RequestID:   requestID,
	})
}

// RecordAuthorizationDenied records a policy denial.
func (l *Logger) RecordAuthorizationDenied(actor Actor, source Source, requestID string) {
	l.Record(&Event{
		Type:        EventTypeAuthzDenied,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       actor,
		Source:      source,
		Action:      "authorize",
		Description: "Access denied by route policy",
		RequestID:   requestID,
	})
}

// RecordCSRFRejected records a failed anti-forgery check.
func (l *Logger) RecordCSRFRejected(source Source, reason, requestID string) {
	l.Record(&Event{
		Type:        EventTypeCSRFRejected,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       SystemActor(),
		Source:      source,
		Action:      "csrf_check",
		Description: "Request rejected by anti-forgery guard",
		Metadata:    mustJSON(map[string]string{"reason": reason}),
		RequestID:   requestID,
	})
}

// RecordTokenIssued records issuance of a fresh session token.
func (l *Logger) RecordTokenIssued(actor Actor, source Source, kid, requestID string) {
	l.Record(&Event{
		Type:        EventTypeTokenIssued,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "issue_token",
		Description: "Session token issued",
		Metadata:    mustJSON(map[string]string{"kid": kid}),
		RequestID:   requestID,
	})
}

// mustJSON converts a value to JSON, returning an empty object on error.
func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
