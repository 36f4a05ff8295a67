package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/genoeg/kotori/internal/calendar"
)

// Search window for query-based calendar tools: slightly into the past so
// "today's" events that already started still match, and two months ahead.
const (
	searchWindowBack    = 7 * 24 * time.Hour
	searchWindowForward = 60 * 24 * time.Hour
)

const defaultUpcomingDays = 7

// eventArgs is the shared argument shape for calendar writes.
type eventArgs struct {
	Title       string `json:"title"`
	Date        string `json:"date"`      // YYYY-MM-DD
	StartTime   string `json:"startTime"` // HH:MM, empty means all-day
	EndTime     string `json:"endTime"`   // HH:MM
	EndDate     string `json:"endDate"`   // YYYY-MM-DD, for multi-day events
	Description string `json:"description"`
}

// parseStart resolves date and startTime into a start instant. Events
// without a start time are all-day.
func (a eventArgs) parseStart() (time.Time, bool, error) {
	if a.Date == "" {
		return time.Time{}, false, fmt.Errorf("date is required")
	}
	day, err := time.ParseInLocation("2006-01-02", a.Date, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q", a.Date)
	}
	if a.StartTime == "" {
		return day, true, nil
	}
	clock, err := time.ParseInLocation("15:04", a.StartTime, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid startTime %q", a.StartTime)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.Local), false, nil
}

// parseSpan resolves the full event span. The end comes from endTime and
// endDate when given; otherwise timed events run one hour and all-day
// events through the end of their last day.
func (a eventArgs) parseSpan() (start, end time.Time, allDay bool, err error) {
	start, allDay, err = a.parseStart()
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	endDay := start
	if a.EndDate != "" {
		endDay, err = time.ParseInLocation("2006-01-02", a.EndDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid endDate %q", a.EndDate)
		}
	}

	if allDay {
		// Exclusive end, the day after the last covered day.
		return start, time.Date(endDay.Year(), endDay.Month(), endDay.Day(),
			0, 0, 0, 0, time.Local).AddDate(0, 0, 1), true, nil
	}

	if a.EndTime != "" {
		clock, err := time.ParseInLocation("15:04", a.EndTime, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid endTime %q", a.EndTime)
		}
		end = time.Date(endDay.Year(), endDay.Month(), endDay.Day(),
			clock.Hour(), clock.Minute(), 0, 0, time.Local)
		return start, end, false, nil
	}
	if a.EndDate != "" {
		end = time.Date(endDay.Year(), endDay.Month(), endDay.Day(),
			start.Hour(), start.Minute(), 0, 0, time.Local)
		return start, end, false, nil
	}
	return start, start.Add(time.Hour), false, nil
}

// eventSummary is the projection returned for list and search results.
type eventSummary struct {
	Summary string `json:"summary"`
	Start   string `json:"humanReadableStart"`
}

func projectEvents(events []calendar.Event) []eventSummary {
	out := make([]eventSummary, len(events))
	for i, ev := range events {
		out[i] = eventSummary{Summary: ev.Summary, Start: calendar.FormatStart(ev)}
	}
	return out
}

// AddToCalendarTool creates a calendar event.
type AddToCalendarTool struct {
	Calendar calendar.Service
}

func (t *AddToCalendarTool) Name() string { return "add_to_calendar" }

func (t *AddToCalendarTool) Description() string {
	return "Add an event to the user's calendar. Use when the user mentions a plan with a date, like an appointment or activity."
}

func (t *AddToCalendarTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Short event title"},
			"date": {"type": "string", "description": "Event date, YYYY-MM-DD"},
			"startTime": {"type": "string", "description": "Start time, HH:MM. Omit for all-day events"},
			"endTime": {"type": "string", "description": "End time, HH:MM. Defaults to one hour after the start"},
			"endDate": {"type": "string", "description": "End date, YYYY-MM-DD, for multi-day events"},
			"description": {"type": "string", "description": "Optional details"}
		},
		"required": ["title", "date"]
	}`)
}

func (t *AddToCalendarTool) Execute(ctx context.Context, args json.RawMessage) Outcome {
	var a eventArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Fail(fmt.Errorf("invalid arguments: %w", err))
	}
	if a.Title == "" {
		return Fail(fmt.Errorf("title is required"))
	}

	start, end, allDay, err := a.parseSpan()
	if err != nil {
		return Fail(err)
	}

	ev := calendar.Event{
		Summary:     a.Title,
		Description: a.Description,
		Start:       start,
		End:         end,
		AllDay:      allDay,
	}

	created, err := t.Calendar.Insert(ctx, ev)
	if err != nil {
		return Fail(err)
	}

	out := OK(fmt.Sprintf("「%s」を%sに登録しました", created.Summary, calendar.FormatStart(*created)))
	out.Data = created
	return out
}

// ListUpcomingEventsTool lists events in the coming days.
type ListUpcomingEventsTool struct {
	Calendar calendar.Service
}

func (t *ListUpcomingEventsTool) Name() string { return "list_upcoming_events" }

func (t *ListUpcomingEventsTool) Description() string {
	return "List upcoming calendar events. Use when the user asks about their schedule or plans."
}

func (t *ListUpcomingEventsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"daysAhead": {"type": "integer", "description": "How many days ahead to look. Defaults to 7"}
		}
	}`)
}

func (t *ListUpcomingEventsTool) Execute(ctx context.Context, args json.RawMessage) Outcome {
	var a struct {
		DaysAhead int `json:"daysAhead"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return Fail(fmt.Errorf("invalid arguments: %w", err))
		}
	}
	if a.DaysAhead <= 0 {
		a.DaysAhead = defaultUpcomingDays
	}

	now := time.Now()
	events, err := t.Calendar.List(ctx, calendar.ListOptions{
		From: now,
		To:   now.AddDate(0, 0, a.DaysAhead),
	})
	if err != nil {
		return Fail(err)
	}

	out := OK(fmt.Sprintf("%d件の予定があります", len(events)))
	out.Data = projectEvents(events)
	return out
}

// searchEvents runs the shared query lookup for search, delete, and update.
func searchEvents(ctx context.Context, svc calendar.Service, query string) ([]calendar.Event, error) {
	now := time.Now()
	return svc.List(ctx, calendar.ListOptions{
		From:  now.Add(-searchWindowBack),
		To:    now.Add(searchWindowForward),
		Query: query,
	})
}

// SearchCalendarEventTool finds events matching a query.
type SearchCalendarEventTool struct {
	Calendar calendar.Service
}

func (t *SearchCalendarEventTool) Name() string { return "search_calendar_event" }

func (t *SearchCalendarEventTool) Description() string {
	return "Search calendar events by keyword. Looks from one week back to two months ahead."
}

func (t *SearchCalendarEventTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Keyword to match against event titles"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchCalendarEventTool) Execute(ctx context.Context, args json.RawMessage) Outcome {
	var a struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Fail(fmt.Errorf("invalid arguments: %w", err))
	}
	if a.Query == "" {
		return Fail(fmt.Errorf("query is required"))
	}

	events, err := searchEvents(ctx, t.Calendar, a.Query)
	if err != nil {
		return Fail(err)
	}

	out := OK(fmt.Sprintf("「%s」に一致する予定が%d件見つかりました", a.Query, len(events)))
	out.Data = projectEvents(events)
	return out
}

// DeleteCalendarEventTool deletes the first event matching a query.
// Only the first match is touched. Deleting everything a loose keyword
// matches would be far more destructive than occasionally picking the
// wrong event.
type DeleteCalendarEventTool struct {
	Calendar calendar.Service
}

func (t *DeleteCalendarEventTool) Name() string { return "delete_calendar_event" }

func (t *DeleteCalendarEventTool) Description() string {
	return "Delete a calendar event by keyword. Deletes only the first matching event."
}

func (t *DeleteCalendarEventTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Keyword identifying the event to delete"}
		},
		"required": ["query"]
	}`)
}

func (t *DeleteCalendarEventTool) Execute(ctx context.Context, args json.RawMessage) Outcome {
	var a struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Fail(fmt.Errorf("invalid arguments: %w", err))
	}
	if a.Query == "" {
		return Fail(fmt.Errorf("query is required"))
	}

	events, err := searchEvents(ctx, t.Calendar, a.Query)
	if err != nil {
		return Fail(err)
	}
	if len(events) == 0 {
		return Fail(fmt.Errorf("no event matching %q", a.Query))
	}

	target := events[0]
	if err := t.Calendar.Delete(ctx, target.ID); err != nil {
		return Fail(err)
	}
	return OK(fmt.Sprintf("「%s」(%s)を削除しました", target.Summary, calendar.FormatStart(target)))
}

// UpdateCalendarEventTool updates the first event matching a query.
// Fields absent from the arguments keep their current values.
type UpdateCalendarEventTool struct {
	Calendar calendar.Service
}

func (t *UpdateCalendarEventTool) Name() string { return "update_calendar_event" }

func (t *UpdateCalendarEventTool) Description() string {
	return "Update a calendar event found by keyword. Updates only the first matching event. Only provided fields change."
}

func (t *UpdateCalendarEventTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Keyword identifying the event to update"},
			"title": {"type": "string", "description": "New title"},
			"date": {"type": "string", "description": "New date, YYYY-MM-DD"},
			"startTime": {"type": "string", "description": "New start time, HH:MM"},
			"endTime": {"type": "string", "description": "New end time, HH:MM"},
			"endDate": {"type": "string", "description": "New end date, YYYY-MM-DD"},
			"description": {"type": "string", "description": "New details"}
		},
		"required": ["query"]
	}`)
}

func (t *UpdateCalendarEventTool) Execute(ctx context.Context, args json.RawMessage) Outcome {
	var a struct {
		Query string `json:"query"`
		eventArgs
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Fail(fmt.Errorf("invalid arguments: %w", err))
	}
	if a.Query == "" {
		return Fail(fmt.Errorf("query is required"))
	}

	events, err := searchEvents(ctx, t.Calendar, a.Query)
	if err != nil {
		return Fail(err)
	}
	if len(events) == 0 {
		return Fail(fmt.Errorf("no event matching %q", a.Query))
	}

	ev := events[0]
	if a.Title != "" {
		ev.Summary = a.Title
	}
	if a.Description != "" {
		ev.Description = a.Description
	}
	if a.Date != "" || a.StartTime != "" || a.EndTime != "" || a.EndDate != "" {
		// Rebuild the span from new parts, falling back to the current ones.
		if a.Date == "" {
			a.Date = ev.Start.Format("2006-01-02")
		}
		if a.StartTime == "" && !ev.AllDay {
			a.StartTime = ev.Start.Format("15:04")
		}
		start, end, allDay, err := a.parseSpan()
		if err != nil {
			return Fail(err)
		}
		ev.Start = start
		ev.End = end
		ev.AllDay = allDay
	}

	updated, err := t.Calendar.Update(ctx, ev)
	if err != nil {
		return Fail(err)
	}

	out := OK(fmt.Sprintf("「%s」を%sに更新しました", updated.Summary, calendar.FormatStart(*updated)))
	out.Data = updated
	return out
}
