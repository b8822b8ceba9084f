package ical

import (
	"bytes"
	"fmt"
	"time"

	goical "github.com/emersion/go-ical"

	"eventplanner/internal/domain"
)

const prodID = "-//eventplanner//EN"

type encoder struct {
	now func() time.Time
}

// NewEncoder returns a CalendarEncoder producing one VEVENT per event with invitees as attendees.
func NewEncoder() domain.CalendarEncoder {
	return &encoder{now: time.Now}
}

func (e *encoder) Encode(event *domain.Event, invitees []string) ([]byte, error) {
	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, prodID)

	ve := goical.NewComponent(goical.CompEvent)
	ve.Props.SetText(goical.PropUID, event.ID+"@eventplanner")
	ve.Props.SetDateTime(goical.PropDateTimeStamp, e.now().UTC())
	ve.Props.SetDateTime(goical.PropDateTimeStart, event.StartTime.UTC())
	ve.Props.SetDateTime(goical.PropDateTimeEnd, event.EndTime.UTC())
	ve.Props.SetText(goical.PropSummary, event.Title)
	if event.Description != "" {
		ve.Props.SetText(goical.PropDescription, event.Description)
	}
	ve.Props.SetText(goical.PropLocation, event.Location)
	if !event.UpdatedAt.IsZero() {
		ve.Props.SetDateTime(goical.PropLastModified, event.UpdatedAt.UTC())
	}
	for _, email := range invitees {
		p := goical.NewProp(goical.PropAttendee)
		p.Value = "mailto:" + email
		p.Params.Set(goical.ParamRole, "REQ-PARTICIPANT")
		ve.Props.Add(p)
	}
	cal.Children = append(cal.Children, ve)

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode ical: %w", err)
	}
	return buf.Bytes(), nil
}
