// Package event describes the live notifications pushed to connected clients.
package event

import (
	"context"
	"time"
)

type Type string

const (
	LoanSubmitted     Type = "loan:submitted"
	LoanStatusChanged Type = "loan:status_changed"
	LoanFunded        Type = "loan:funded"
	KYCStatusChanged  Type = "kyc:status_changed"
)

type Event struct {
	Type Type `json:"type"`
	// UserID is the affected user; routing uses it for the personal room.
	UserID string    `json:"userId"`
	Data   any       `json:"data,omitempty"`
	At     time.Time `json:"timestamp"`
}

func New(t Type, userID string, data any) Event {
	return Event{Type: t, UserID: userID, Data: data, At: time.Now().UTC()}
}

// Publisher is fire-and-forget: events are never persisted and a missing
// recipient simply misses them.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory; handy in tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) { r.Events = append(r.Events, e) }

func (r *Recorder) Types() []Type {
	out := make([]Type, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
