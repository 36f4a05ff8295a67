package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	var svc Service = Unavailable{}
	ctx := context.Background()

	_, err := svc.List(ctx, ListOptions{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Insert(ctx, Event{Summary: "ジム"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Update(ctx, Event{ID: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, svc.Delete(ctx, "x"), ErrUnavailable)
}

func TestFormatStart(t *testing.T) {
	start := time.Date(2026, 9, 2, 19, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-09-02 19:30", FormatStart(Event{Start: start}))
	assert.Equal(t, "2026-09-02", FormatStart(Event{Start: start, AllDay: true}))
}

func TestGoogleEventConversion(t *testing.T) {
	start := time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	g := toGoogleEvent(Event{Summary: "ジム", Start: start, End: end})
	assert.Equal(t, start.Format(time.RFC3339), g.Start.DateTime)
	assert.Empty(t, g.Start.Date)

	round := fromGoogleEvent(g)
	assert.Equal(t, "ジム", round.Summary)
	assert.True(t, round.Start.Equal(start))
	assert.False(t, round.AllDay)

	allDay := toGoogleEvent(Event{Summary: "休み", Start: start, End: end, AllDay: true})
	assert.Equal(t, "2026-09-02", allDay.Start.Date)
	assert.Empty(t, allDay.Start.DateTime)
	assert.True(t, fromGoogleEvent(allDay).AllDay)
}
