package main

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICalEventFromTimed(t *testing.T) {
	ev := makeEvent("1", "Soccer practice",
		time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), time.Hour)

	comp := icalEventFrom("uid-1", ev)

	prop := comp.Props.Get(ical.PropDateTimeStart)
	require.NotNil(t, prop)
	assert.NotEqual(t, ical.ValueDate, prop.ValueType())

	start, err := comp.Props.DateTime("DTSTART", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, ev.Start, start.UTC())
}

func TestICalEventFromAllDay(t *testing.T) {
	ev := makeEvent("1", "Spring break",
		time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	ev.AllDay = true

	comp := icalEventFrom("uid-1", ev)

	start := comp.Props.Get(ical.PropDateTimeStart)
	require.NotNil(t, start)
	assert.Equal(t, ical.ValueDate, start.ValueType(), "all-day events use date-valued DTSTART")
	assert.Equal(t, "20260314", start.Value)

	end := comp.Props.Get(ical.PropDateTimeEnd)
	require.NotNil(t, end)
	assert.Equal(t, ical.ValueDate, end.ValueType())
	assert.Equal(t, "20260315", end.Value)
}

func TestEventFromComponentRoundTrip(t *testing.T) {
	ev := makeEvent("1", "Spring break",
		time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	ev.AllDay = true

	back := eventFromComponent(icalEventFrom("uid-1", ev))
	require.True(t, back.AllDay, "date-valued DTSTART must come back as all-day")
	assert.Equal(t, ev.Start, back.Start)
	assert.Equal(t, ev.End, back.End)
	assert.Equal(t, "Spring break", back.Title)
	assert.Equal(t, "confirmed", back.Status, "missing STATUS defaults to confirmed")

	timed := makeEvent("2", "Soccer practice",
		time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), time.Hour)
	backTimed := eventFromComponent(icalEventFrom("uid-2", timed))
	assert.False(t, backTimed.AllDay)
	assert.Equal(t, timed.Start, backTimed.Start.UTC())
}
