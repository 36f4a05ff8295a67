package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// OAuthConfig builds the oauth2 config for the Google Calendar scope.
// The same config serves the auth-link flow and the token source.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

// GoogleService implements Service against the Google Calendar API using a
// stored refresh token. Access tokens are minted and renewed by the token
// source as needed.
type GoogleService struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleService builds a calendar client from OAuth credentials and a
// refresh token.
func NewGoogleService(ctx context.Context, conf *oauth2.Config, refreshToken, calendarID string) (*GoogleService, error) {
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleService{svc: svc, calendarID: calendarID}, nil
}

// List returns events in the window, soonest first.
func (g *GoogleService) List(ctx context.Context, opts ListOptions) ([]Event, error) {
	call := g.svc.Events.List(g.calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime")

	if !opts.From.IsZero() {
		call = call.TimeMin(opts.From.Format(time.RFC3339))
	}
	if !opts.To.IsZero() {
		call = call.TimeMax(opts.To.Format(time.RFC3339))
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, fromGoogleEvent(item))
	}
	return events, nil
}

// Insert creates an event and returns it with its assigned ID.
func (g *GoogleService) Insert(ctx context.Context, ev Event) (*Event, error) {
	created, err := g.svc.Events.Insert(g.calendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}
	out := fromGoogleEvent(created)
	return &out, nil
}

// Update rewrites the event identified by ev.ID.
func (g *GoogleService) Update(ctx context.Context, ev Event) (*Event, error) {
	updated, err := g.svc.Events.Update(g.calendarID, ev.ID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	out := fromGoogleEvent(updated)
	return &out, nil
}

// Delete removes an event by ID.
func (g *GoogleService) Delete(ctx context.Context, id string) error {
	if err := g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

func toGoogleEvent(ev Event) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
	}
	if ev.AllDay {
		out.Start = &gcal.EventDateTime{Date: ev.Start.Format("2006-01-02")}
		out.End = &gcal.EventDateTime{Date: ev.End.Format("2006-01-02")}
	} else {
		out.Start = &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)}
		out.End = &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)}
	}
	return out
}

func fromGoogleEvent(item *gcal.Event) Event {
	ev := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}
	if item.Start != nil {
		if item.Start.Date != "" {
			ev.AllDay = true
			ev.Start, _ = time.Parse("2006-01-02", item.Start.Date)
		} else {
			ev.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
		}
	}
	if item.End != nil {
		if item.End.Date != "" {
			ev.End, _ = time.Parse("2006-01-02", item.End.Date)
		} else {
			ev.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
	}
	return ev
}
