// Package calendar abstracts the calendar backend the agent's tools talk to.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when no calendar backend is connected, i.e.
// no Google account has been linked yet.
var ErrUnavailable = errors.New("calendar not connected")

// Event is a calendar event in the shape the agent works with.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay,omitempty"`
}

// ListOptions narrows a List call. Zero From/To mean unbounded on that side.
type ListOptions struct {
	From       time.Time
	To         time.Time
	Query      string
	MaxResults int
}

// Service is the calendar backend interface.
type Service interface {
	// List returns events in the window, soonest first.
	List(ctx context.Context, opts ListOptions) ([]Event, error)

	// Insert creates an event and returns it with its assigned ID.
	Insert(ctx context.Context, ev Event) (*Event, error)

	// Update rewrites the event identified by ev.ID and returns the result.
	Update(ctx context.Context, ev Event) (*Event, error)

	// Delete removes an event by ID.
	Delete(ctx context.Context, id string) error
}

// Unavailable is a Service used when no backend is configured. Every call
// fails with ErrUnavailable, which tools surface as a failed outcome so
// the model can tell the user to link a calendar.
type Unavailable struct{}

func (Unavailable) List(context.Context, ListOptions) ([]Event, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Insert(context.Context, Event) (*Event, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Update(context.Context, Event) (*Event, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Delete(context.Context, string) error {
	return ErrUnavailable
}

// FormatStart renders an event start for user-facing text. All-day events
// show the date only.
func FormatStart(ev Event) string {
	if ev.AllDay {
		return ev.Start.Format("2006-01-02")
	}
	return ev.Start.Format("2006-01-02 15:04")
}
