package main

import (
	"errors"
	"time"
)

// Gateway failure kinds. Backends wrap their native errors with one of
// these so the sync engine can classify failures with errors.Is without
// knowing which backend produced them.
var (
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrEntityNotFound     = errors.New("entity not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrWriteUnsupported   = errors.New("write unsupported")
)

// CalendarProvider is the backend-level contract: one provider per
// Google account or CalDAV server, addressed by backend calendar IDs.
type CalendarProvider interface {
	GetCalendar(calendarID string) error
	AddEvent(calendarID string, event *Event) (string, error)
	UpdateEvent(calendarID string, eventID string, event *Event) error
	DeleteEvent(calendarID string, eventID string) error
	ListEvents(calendarID string, timeMin, timeMax time.Time) ([]*Event, error)
}

// CalendarGateway is what the sync engine talks to. It addresses
// calendars by the entity IDs from the config file and hides which
// provider serves each one. CalendarFactory implements it.
type CalendarGateway interface {
	ListEvents(entityID string, window SyncWindow) ([]*Event, error)
	CreateEvent(entityID string, event *Event) (string, error)
	UpdateEvent(entityID string, sourceUID string, event *Event) error
	DeleteEvent(entityID string, sourceUID string) error
}

// Event is a calendar event as observed from or written to a backend.
// SourceUID is the backend-assigned identity, stable across reads of the
// same underlying event. AllDay events carry midnight instants in Start
// and End; backends render them as date-only values on the wire.
type Event struct {
	SourceUID   string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Status      string
}

// Clone returns a copy of the event, so reconciliation output can be
// mutated without touching the snapshot it was derived from.
func (e *Event) Clone() *Event {
	clone := *e
	return &clone
}
