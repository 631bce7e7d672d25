// SPDX-License-Identifier: MIT
package transport

import "time"

// Transport defines a generic interface for publishing diagnostic events.
// Implementations must be safe for concurrent use and must not block the
// caller on slow consumers.
type Transport interface {
	Send(data any) error
	Close() error
}

// EventType names the stage of a run an Event reports.
type EventType string

const (
	RunStarted   EventType = "run_started"
	PathStarted  EventType = "path_started"
	PathFinished EventType = "path_finished"
	RunFinished  EventType = "run_finished"
)

// Event is one message on the wire. Data carries the stage payload, for
// example a path result or the final summary.
type Event struct {
	Type  EventType `json:"type"`
	RunID string    `json:"runId"`
	Path  string    `json:"path,omitempty"`
	Time  time.Time `json:"time"`
	Data  any       `json:"data,omitempty"`
}

// Discard is a Transport that drops everything.
type Discard struct{}

func (Discard) Send(any) error { return nil }
func (Discard) Close() error   { return nil }

var _ Transport = Discard{}
