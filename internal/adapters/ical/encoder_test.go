package ical

import (
	"bytes"
	"testing"
	"time"

	goical "github.com/emersion/go-ical"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Encode(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	event := &domain.Event{
		ID:          "ev-1",
		OwnerID:     "user-1",
		Title:       "Standup, daily",
		Description: "Team sync",
		Location:    "Lisbon",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		UpdatedAt:   start,
	}
	enc := &encoder{now: func() time.Time { return start }}

	body, err := enc.Encode(event, []string{"a@x.io", "b@x.io"})
	require.NoError(t, err)

	cal, err := goical.NewDecoder(bytes.NewReader(body)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	ve := events[0]

	summary, err := ve.Props.Text(goical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Standup, daily", summary)
	loc, err := ve.Props.Text(goical.PropLocation)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", loc)
	uid, err := ve.Props.Text(goical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "ev-1@eventplanner", uid)

	dtStart, err := ve.DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.True(t, dtStart.Equal(start))
	dtEnd, err := ve.DateTimeEnd(time.UTC)
	require.NoError(t, err)
	assert.True(t, dtEnd.Equal(start.Add(30*time.Minute)))

	var attendees []string
	for _, p := range ve.Props.Values(goical.PropAttendee) {
		attendees = append(attendees, p.Value)
	}
	assert.Equal(t, []string{"mailto:a@x.io", "mailto:b@x.io"}, attendees)
}
