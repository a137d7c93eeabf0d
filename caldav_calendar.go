package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

type CalDAVProvider struct {
	client    *caldav.Client
	ctx       context.Context
	serverURL string
	readOnly  bool
}

func NewCalDAVProvider(ctx context.Context, serverURL, username, password string, readOnly bool) (*CalDAVProvider, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	// Test connection
	_, err = c.FindCalendars(ctx, "") // Empty path means server root
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to CalDAV server: %v", ErrGatewayUnavailable, err)
	}

	return &CalDAVProvider{
		client:    c,
		ctx:       ctx,
		serverURL: serverURL,
		readOnly:  readOnly,
	}, nil
}

// mapCalDAVError sorts WebDAV failures into the gateway taxonomy. The
// go-webdav client surfaces HTTP failures as formatted errors, so status
// detection falls back to substring checks.
func mapCalDAVError(err error, notFound error) error {
	msg := err.Error()
	if strings.Contains(msg, "404") || strings.Contains(msg, "not found") {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	if strings.Contains(msg, "403") || strings.Contains(msg, "405") {
		return fmt.Errorf("%w: %v", ErrWriteUnsupported, err)
	}
	return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}

func (c *CalDAVProvider) GetCalendar(calendarID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("%w: invalid calendar URL: %v", ErrEntityNotFound, err)
	}

	// The calendar home set is usually the parent path.
	homeSetPath := "/"
	if calURL.Path != "" {
		parts := strings.Split(strings.TrimRight(calURL.Path, "/"), "/")
		if len(parts) > 1 {
			homeSetPath = "/" + strings.Join(parts[:len(parts)-1], "/")
		}
	}

	calendars, err := c.client.FindCalendars(c.ctx, homeSetPath)
	if err != nil {
		return mapCalDAVError(err, ErrEntityNotFound)
	}

	for _, cal := range calendars {
		if cal.Path == calURL.Path {
			return nil
		}
	}

	return fmt.Errorf("%w: no calendar at path %s", ErrEntityNotFound, calURL.Path)
}

const icalDateFormat = "20060102"

func setDateProp(props ical.Props, name string, t time.Time) {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDate)
	prop.Value = t.Format(icalDateFormat)
	props.Set(prop)
}

func icalEventFrom(uid string, event *Event) *ical.Component {
	icalEvent := ical.NewEvent()
	icalEvent.Component.Props.SetText("UID", uid)
	icalEvent.Component.Props.SetText("SUMMARY", event.Title)
	icalEvent.Component.Props.SetText("DESCRIPTION", event.Description)
	if event.Location != "" {
		icalEvent.Component.Props.SetText("LOCATION", event.Location)
	}
	if event.AllDay {
		setDateProp(icalEvent.Component.Props, ical.PropDateTimeStart, event.Start)
		setDateProp(icalEvent.Component.Props, ical.PropDateTimeEnd, event.End)
	} else {
		icalEvent.Component.Props.SetDateTime("DTSTART", event.Start)
		icalEvent.Component.Props.SetDateTime("DTEND", event.End)
	}
	if event.Status != "" {
		icalEvent.Component.Props.SetText("STATUS", strings.ToUpper(event.Status))
	} else {
		icalEvent.Component.Props.SetText("STATUS", "CONFIRMED")
	}
	return icalEvent.Component
}

func (c *CalDAVProvider) putEvent(calendarID, uid string, event *Event) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("%w: invalid calendar URL: %v", ErrEntityNotFound, err)
	}

	cal := ical.NewCalendar()
	cal.Component.Props.SetText("VERSION", "2.0")
	cal.Component.Props.SetText("PRODID", "-//fcsync//family-calendar-sync//EN")
	cal.Component.Children = append(cal.Component.Children, icalEventFrom(uid, event))

	// The usual CalDAV convention: one <uid>.ics resource per event.
	path := calURL.Path + "/" + uid + ".ics"
	_, err = c.client.PutCalendarObject(c.ctx, path, cal)
	if err != nil {
		return mapCalDAVError(err, ErrEventNotFound)
	}
	return nil
}

func (c *CalDAVProvider) AddEvent(calendarID string, event *Event) (string, error) {
	if c.readOnly {
		return "", fmt.Errorf("%w: CalDAV server %s is read-only", ErrWriteUnsupported, c.serverURL)
	}

	eventUID := "fcsync-" + time.Now().UTC().Format("20060102T150405.000000000Z")
	if err := c.putEvent(calendarID, eventUID, event); err != nil {
		return "", err
	}
	return eventUID, nil
}

func (c *CalDAVProvider) UpdateEvent(calendarID string, eventID string, event *Event) error {
	if c.readOnly {
		return fmt.Errorf("%w: CalDAV server %s is read-only", ErrWriteUnsupported, c.serverURL)
	}
	return c.putEvent(calendarID, eventID, event)
}

func (c *CalDAVProvider) DeleteEvent(calendarID string, eventID string) error {
	if c.readOnly {
		return fmt.Errorf("%w: CalDAV server %s is read-only", ErrWriteUnsupported, c.serverURL)
	}

	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("%w: invalid calendar URL: %v", ErrEntityNotFound, err)
	}

	path := calURL.Path + "/" + eventID + ".ics"
	if err := c.client.Client.RemoveAll(c.ctx, path); err != nil {
		return mapCalDAVError(err, ErrEventNotFound)
	}
	return nil
}

func (c *CalDAVProvider) ListEvents(calendarID string, timeMin, timeMax time.Time) ([]*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid calendar URL: %v", ErrEntityNotFound, err)
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: timeMin,
				End:   timeMax,
			}},
		},
	}

	objects, err := c.client.QueryCalendar(c.ctx, calURL.Path, query)
	if err != nil {
		return nil, mapCalDAVError(err, ErrEntityNotFound)
	}

	var result []*Event
	for _, obj := range objects {
		for _, comp := range obj.Data.Component.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			result = append(result, eventFromComponent(comp))
		}
	}

	return result, nil
}

// eventFromComponent converts a VEVENT. Date-valued DTSTART marks an
// all-day event; Props.DateTime parses DATE values to midnight in the
// given location, so Start/End line up with the Google backend.
func eventFromComponent(comp *ical.Component) *Event {
	status := strings.ToLower(getTextProp(comp.Props, "STATUS"))
	if status == "" {
		status = "confirmed"
	}

	allDay := false
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil && prop.ValueType() == ical.ValueDate {
		allDay = true
	}

	start, _ := comp.Props.DateTime("DTSTART", time.UTC)
	end, _ := comp.Props.DateTime("DTEND", time.UTC)

	return &Event{
		SourceUID:   getTextProp(comp.Props, "UID"),
		Title:       getTextProp(comp.Props, "SUMMARY"),
		Description: getTextProp(comp.Props, "DESCRIPTION"),
		Location:    getTextProp(comp.Props, "LOCATION"),
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Status:      status,
	}
}

// Helper function to get text property safely
func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}
