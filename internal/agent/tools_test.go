package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genoeg/kotori/internal/calendar"
	"github.com/genoeg/kotori/internal/domain"
)

// fakeCalendar is an in-memory calendar.Service.
type fakeCalendar struct {
	events  []calendar.Event
	nextID  int
	deleted []string
}

func (f *fakeCalendar) List(ctx context.Context, opts calendar.ListOptions) ([]calendar.Event, error) {
	var out []calendar.Event
	for _, ev := range f.events {
		if opts.Query != "" && !strings.Contains(ev.Summary, opts.Query) {
			continue
		}
		if !opts.From.IsZero() && ev.Start.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && ev.Start.After(opts.To) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeCalendar) Insert(ctx context.Context, ev calendar.Event) (*calendar.Event, error) {
	f.nextID++
	ev.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.events = append(f.events, ev)
	return &ev, nil
}

func (f *fakeCalendar) Update(ctx context.Context, ev calendar.Event) (*calendar.Event, error) {
	for i := range f.events {
		if f.events[i].ID == ev.ID {
			f.events[i] = ev
			return &ev, nil
		}
	}
	return nil, fmt.Errorf("event %s not found", ev.ID)
}

func (f *fakeCalendar) Delete(ctx context.Context, id string) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.deleted = append(f.deleted, id)
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

// fakeLogs is an in-memory LogSearcher, newest first like the real store.
type fakeLogs struct {
	entries []domain.LogEntry
}

func (f *fakeLogs) Recent(limit int) ([]domain.LogEntry, error) {
	out := make([]domain.LogEntry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func TestAddToCalendar(t *testing.T) {
	cal := &fakeCalendar{}
	tool := &AddToCalendarTool{Calendar: cal}

	out := tool.Execute(context.Background(), json.RawMessage(`{"title":"ジム","date":"2026-09-02","startTime":"19:00"}`))
	require.True(t, out.Success, out.Error)
	assert.Contains(t, out.Message, "ジム")

	require.Len(t, cal.events, 1)
	ev := cal.events[0]
	assert.Equal(t, 19, ev.Start.Hour())
	assert.Equal(t, ev.Start.Add(time.Hour), ev.End)
	assert.False(t, ev.AllDay)
}

func TestAddToCalendar_ExplicitEnd(t *testing.T) {
	cal := &fakeCalendar{}
	tool := &AddToCalendarTool{Calendar: cal}

	out := tool.Execute(context.Background(), json.RawMessage(`{"title":"会議","date":"2026-09-02","startTime":"10:00","endTime":"12:30"}`))
	require.True(t, out.Success, out.Error)

	require.Len(t, cal.events, 1)
	ev := cal.events[0]
	assert.Equal(t, 10, ev.Start.Hour())
	assert.Equal(t, 12, ev.End.Hour())
	assert.Equal(t, 30, ev.End.Minute())
	assert.Equal(t, ev.Start.Format("2006-01-02"), ev.End.Format("2006-01-02"))
}

func TestAddToCalendar_MultiDay(t *testing.T) {
	cal := &fakeCalendar{}
	tool := &AddToCalendarTool{Calendar: cal}

	out := tool.Execute(context.Background(), json.RawMessage(`{"title":"旅行","date":"2026-09-05","endDate":"2026-09-07"}`))
	require.True(t, out.Success, out.Error)

	require.Len(t, cal.events, 1)
	ev := cal.events[0]
	assert.True(t, ev.AllDay)
	assert.Equal(t, "2026-09-05", ev.Start.Format("2006-01-02"))
	// Exclusive end, the day after the last covered day.
	assert.Equal(t, "2026-09-08", ev.End.Format("2006-01-02"))
}

func TestAddToCalendar_AllDay(t *testing.T) {
	cal := &fakeCalendar{}
	tool := &AddToCalendarTool{Calendar: cal}

	out := tool.Execute(context.Background(), json.RawMessage(`{"title":"休み","date":"2026-09-05"}`))
	require.True(t, out.Success)

	require.Len(t, cal.events, 1)
	assert.True(t, cal.events[0].AllDay)
	assert.Equal(t, cal.events[0].Start.AddDate(0, 0, 1), cal.events[0].End)
}

func TestAddToCalendar_BadArgs(t *testing.T) {
	tool := &AddToCalendarTool{Calendar: &fakeCalendar{}}

	cases := []string{
		`{"date":"2026-09-02"}`,
		`{"title":"x"}`,
		`{"title":"x","date":"next tuesday"}`,
		`{"title":"x","date":"2026-09-02","startTime":"7pm"}`,
		`{"title":"x","date":"2026-09-02","startTime":"19:00","endTime":"9pm"}`,
		`{"title":"x","date":"2026-09-02","endDate":"sunday"}`,
	}
	for _, c := range cases {
		out := tool.Execute(context.Background(), json.RawMessage(c))
		assert.False(t, out.Success, c)
		assert.NotEmpty(t, out.Error)
	}
}

func TestAddToCalendar_BackendFailure(t *testing.T) {
	tool := &AddToCalendarTool{Calendar: calendar.Unavailable{}}

	out := tool.Execute(context.Background(), json.RawMessage(`{"title":"x","date":"2026-09-02"}`))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "not connected")
}

func TestListUpcomingEvents(t *testing.T) {
	now := time.Now()
	cal := &fakeCalendar{events: []calendar.Event{
		{ID: "1", Summary: "tomorrow", Start: now.AddDate(0, 0, 1)},
		{ID: "2", Summary: "next month", Start: now.AddDate(0, 1, 0)},
		{ID: "3", Summary: "yesterday", Start: now.AddDate(0, 0, -1)},
	}}
	tool := &ListUpcomingEventsTool{Calendar: cal}

	// Default window is a week.
	out := tool.Execute(context.Background(), json.RawMessage(`{}`))
	require.True(t, out.Success)
	events := out.Data.([]eventSummary)
	require.Len(t, events, 1)
	assert.Equal(t, "tomorrow", events[0].Summary)
	assert.NotEmpty(t, events[0].Start)

	out = tool.Execute(context.Background(), json.RawMessage(`{"daysAhead":60}`))
	require.True(t, out.Success)
	assert.Len(t, out.Data.([]eventSummary), 2)
}

func TestSearchCalendarEvent(t *testing.T) {
	now := time.Now()
	cal := &fakeCalendar{events: []calendar.Event{
		{ID: "1", Summary: "ジム", Start: now.AddDate(0, 0, 1)},
		{ID: "2", Summary: "歯医者", Start: now.AddDate(0, 0, 2)},
	}}
	tool := &SearchCalendarEventTool{Calendar: cal}

	out := tool.Execute(context.Background(), json.RawMessage(`{"query":"ジム"}`))
	require.True(t, out.Success)
	events := out.Data.([]eventSummary)
	require.Len(t, events, 1)
	assert.Equal(t, "ジム", events[0].Summary)
	assert.NotEmpty(t, events[0].Start)

	out = tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.False(t, out.Success)
}

func TestDeleteCalendarEvent_FirstMatchOnly(t *testing.T) {
	now := time.Now()
	cal := &fakeCalendar{events: []calendar.Event{
		{ID: "1", Summary: "ジム A", Start: now.AddDate(0, 0, 1)},
		{ID: "2", Summary: "ジム B", Start: now.AddDate(0, 0, 2)},
	}}
	tool := &DeleteCalendarEventTool{Calendar: cal}

	out := tool.Execute(context.Background(), json.RawMessage(`{"query":"ジム"}`))
	require.True(t, out.Success)

	assert.Equal(t, []string{"1"}, cal.deleted)
	require.Len(t, cal.events, 1)
	assert.Equal(t, "2", cal.events[0].ID)
}

func TestDeleteCalendarEvent_NoMatch(t *testing.T) {
	tool := &DeleteCalendarEventTool{Calendar: &fakeCalendar{}}

	out := tool.Execute(context.Background(), json.RawMessage(`{"query":"ない"}`))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "no event matching")
}

func TestUpdateCalendarEvent_PreservesAbsentFields(t *testing.T) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 19, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	cal := &fakeCalendar{events: []calendar.Event{
		{ID: "1", Summary: "ジム", Description: "leg day", Start: start, End: start.Add(time.Hour)},
	}}
	tool := &UpdateCalendarEventTool{Calendar: cal}

	// Only the start time changes.
	out := tool.Execute(context.Background(), json.RawMessage(`{"query":"ジム","startTime":"20:30"}`))
	require.True(t, out.Success, out.Error)

	ev := cal.events[0]
	assert.Equal(t, "ジム", ev.Summary)
	assert.Equal(t, "leg day", ev.Description)
	assert.Equal(t, 20, ev.Start.Hour())
	assert.Equal(t, 30, ev.Start.Minute())
	assert.Equal(t, start.Format("2006-01-02"), ev.Start.Format("2006-01-02"))
	assert.Equal(t, ev.Start.Add(time.Hour), ev.End)
}

func TestUpdateCalendarEvent_ExplicitEnd(t *testing.T) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 19, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	cal := &fakeCalendar{events: []calendar.Event{
		{ID: "1", Summary: "ジム", Start: start, End: start.Add(time.Hour)},
	}}
	tool := &UpdateCalendarEventTool{Calendar: cal}

	// A new end time keeps the current start.
	out := tool.Execute(context.Background(), json.RawMessage(`{"query":"ジム","endTime":"21:30"}`))
	require.True(t, out.Success, out.Error)

	ev := cal.events[0]
	assert.Equal(t, start, ev.Start)
	assert.Equal(t, 21, ev.End.Hour())
	assert.Equal(t, 30, ev.End.Minute())
}

func TestSearchLogs(t *testing.T) {
	logs := &fakeLogs{}
	for i := 0; i < 10; i++ {
		logs.entries = append(logs.entries, domain.LogEntry{ID: int64(i), Content: fmt.Sprintf("entry %d", i)})
	}
	logs.entries[3].Content = "ジムに行った"
	logs.entries[8].Content = "ジムを休んだ"

	tool := &SearchLogsTool{Logs: logs}

	// Default limit, newest first.
	out := tool.Execute(context.Background(), json.RawMessage(`{}`))
	require.True(t, out.Success)
	entries := out.Data.([]domain.LogEntry)
	require.Len(t, entries, 5)
	assert.Equal(t, "entry 9", entries[0].Content)

	// Keyword filter.
	out = tool.Execute(context.Background(), json.RawMessage(`{"query":"ジム"}`))
	require.True(t, out.Success)
	entries = out.Data.([]domain.LogEntry)
	require.Len(t, entries, 2)
	assert.Equal(t, "ジムを休んだ", entries[0].Content)
	assert.Equal(t, "ジムに行った", entries[1].Content)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&AddToCalendarTool{Calendar: &fakeCalendar{}})
	registry.Register(&SearchLogsTool{Logs: &fakeLogs{}})

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "add_to_calendar", defs[0].Name)
	assert.Equal(t, "search_logs", defs[1].Name)
	for _, def := range defs {
		assert.True(t, json.Valid(def.Parameters), def.Name)
	}

	out := registry.Invoke(context.Background(), "nope", json.RawMessage(`{}`))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "unknown tool")
}
