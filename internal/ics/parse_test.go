package ics

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"pimparse/internal/perr"
)

func doc(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

func minimal(body ...string) string {
	lines := []string{"BEGIN:VCALENDAR", "PRODID:-//test//EN", "VERSION:2.0"}
	lines = append(lines, body...)
	lines = append(lines, "END:VCALENDAR")
	return doc(lines...)
}

func event(props ...string) []string {
	out := []string{"BEGIN:VEVENT"}
	out = append(out, props...)
	return append(out, "END:VEVENT")
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestParseMinimalCalendar(t *testing.T) {
	cal, err := Parse(minimal())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cal.ProdID != "-//test//EN" || cal.Version != "2.0" {
		t.Fatalf("unexpected header: %+v", cal)
	}
	if len(cal.Events)+len(cal.Todos)+len(cal.Journals)+len(cal.FreeBusy)+len(cal.TimeZones) != 0 {
		t.Fatalf("expected empty collections, got %+v", cal)
	}
}

func TestParseMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		field string
	}{
		{"no prodid", doc("BEGIN:VCALENDAR", "VERSION:2.0", "END:VCALENDAR"), "PRODID"},
		{"no version", doc("BEGIN:VCALENDAR", "PRODID:x", "END:VCALENDAR"), "VERSION"},
		{"event no uid", minimal(event("DTSTAMP:20240101T000000Z")...), "UID"},
		{"event no dtstamp", minimal(event("UID:1")...), "DTSTAMP"},
		{"todo no uid", minimal("BEGIN:VTODO", "DTSTAMP:20240101T000000Z", "END:VTODO"), "UID"},
		{"journal no dtstamp", minimal("BEGIN:VJOURNAL", "UID:j", "END:VJOURNAL"), "DTSTAMP"},
		{"freebusy no uid", minimal("BEGIN:VFREEBUSY", "DTSTAMP:20240101T000000Z", "END:VFREEBUSY"), "UID"},
		{"timezone no tzid", minimal("BEGIN:VTIMEZONE", "END:VTIMEZONE"), "TZID"},
		{"rule no offset", minimal("BEGIN:VTIMEZONE", "TZID:X", "BEGIN:STANDARD", "DTSTART:19701025T030000", "TZOFFSETTO:+0100", "END:STANDARD", "END:VTIMEZONE"), "TZOFFSETFROM"},
		{"alarm no trigger", minimal(event("UID:1", "DTSTAMP:20240101T000000Z", "BEGIN:VALARM", "ACTION:DISPLAY", "END:VALARM")...), "TRIGGER"},
		{"alarm no action", minimal(event("UID:1", "DTSTAMP:20240101T000000Z", "BEGIN:VALARM", "TRIGGER:-PT5M", "END:VALARM")...), "ACTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, err := Parse(tt.in)
			if err == nil {
				t.Fatalf("expected error, got %+v", cal)
			}
			if !errors.Is(err, perr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var pe *perr.Error
			if !errors.As(err, &pe) || pe.Field() != tt.field {
				t.Fatalf("error %v does not name %s", err, tt.field)
			}
		})
	}
}

func TestParseEventOptionalFields(t *testing.T) {
	tests := []struct {
		name  string
		props []string
	}{
		{"required only", nil},
		{"summary", []string{"SUMMARY:x"}},
		{"dates", []string{"DTSTART;VALUE=DATE:20240101", "DTEND;VALUE=DATE:20240102"}},
		{"duration", []string{"DTSTART:20240101T100000Z", "DURATION:PT1H"}},
		{"lists", []string{"ATTENDEE:mailto:a@x", "RESOURCES:PROJECTOR", "CATEGORIES:A"}},
		{"bad sequence tolerated", []string{"SEQUENCE:abc"}},
		{"vendor property", []string{"X-MICROSOFT-CDO-BUSYSTATUS:BUSY"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := append([]string{"UID:e1", "DTSTAMP:20240101T000000Z"}, tt.props...)
			cal, err := Parse(minimal(event(props...)...))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(cal.Events) != 1 || cal.Events[0].UID != "e1" {
				t.Fatalf("unexpected events: %+v", cal.Events)
			}
		})
	}
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"wrong first line", doc("BEGIN:VCARD", "VERSION:4.0", "END:VCARD")},
		{"missing end", doc("BEGIN:VCALENDAR", "PRODID:x", "VERSION:2.0")},
		{"mismatched end", minimal("BEGIN:VEVENT", "UID:1", "DTSTAMP:20240101T000000Z", "END:VTODO")},
		{"no colon", minimal("SUMMARY")},
		{"param without equals", minimal("X-FOO;BAR:1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if !errors.Is(err, perr.ErrStructural) {
				t.Fatalf("expected structural error, got %v", err)
			}
		})
	}
}

func TestParseErrorReportsLogicalLine(t *testing.T) {
	in := minimal(event("UID:1", "DESCRIPTION:first half", " second half", "SUMMARY")...)
	_, err := Parse(in)
	var pe *perr.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *perr.Error, got %v", err)
	}
	if got := pe.Args["logical_line"]; got != 7 {
		t.Fatalf("logical_line = %v, want 7", got)
	}
	if _, ok := pe.Args["line"]; ok {
		t.Fatal("unexpected physical line key")
	}

	_, err = Parse(minimal(event("UID:1", "DTSTAMP:20240101T000000Z", " folded", "END:VTODO")...))
	if !errors.As(err, &pe) || pe.Args["logical_line"] != 7 {
		t.Fatalf("mismatched END: err = %v", err)
	}
}

func TestParseCaseInsensitiveMarkers(t *testing.T) {
	in := doc("begin:vcalendar", "prodid:x", "version:2.0", "begin:vevent", "uid:1", "dtstamp:20240101T000000Z", "end:VEvent", "end:vcalendar")
	cal, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cal.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(cal.Events))
	}
}

func TestParseFoldedValue(t *testing.T) {
	single := minimal(event("UID:1", "DTSTAMP:20240101T000000Z", "DESCRIPTION:hello world")...)
	folded := minimal(event("UID:1", "DTSTAMP:20240101T000000Z", "DESCRIPTION:hello wo", " rld")...)

	a, err := Parse(single)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(folded)
	if err != nil {
		t.Fatal(err)
	}
	if a.Events[0].Description != b.Events[0].Description {
		t.Fatalf("folded %q != single %q", b.Events[0].Description, a.Events[0].Description)
	}
}

func TestParseRDateExpansion(t *testing.T) {
	cal, err := Parse(minimal(event("UID:1", "DTSTAMP:20240101T000000Z", "RDATE:20240101,20240108,20240115")...))
	if err != nil {
		t.Fatal(err)
	}
	rdates := cal.Events[0].RDates
	if len(rdates) != 3 {
		t.Fatalf("expected 3 RDATE entries, got %d", len(rdates))
	}
	want := []Date{{2024, time.January, 1}, {2024, time.January, 8}, {2024, time.January, 15}}
	for i, rd := range rdates {
		d, ok := rd.Date()
		if !ok || d != want[i] {
			t.Errorf("rdate[%d] = %v, want %v", i, rd, want[i])
		}
	}
}

func TestParseUnknownComponent(t *testing.T) {
	in := minimal(append([]string{"BEGIN:VFOO", "X-A:1", "BEGIN:VBAR", "END:VBAR", "END:VFOO"},
		event("UID:1", "DTSTAMP:20240101T000000Z")...)...)
	cal, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cal.Events) != 1 {
		t.Fatalf("expected the event to survive, got %+v", cal.Events)
	}
	if len(cal.Todos)+len(cal.Journals)+len(cal.FreeBusy)+len(cal.TimeZones) != 0 {
		t.Fatalf("unknown block leaked into collections: %+v", cal)
	}
}

func TestParseEnumErrors(t *testing.T) {
	tests := []struct {
		name string
		prop string
	}{
		{"status", "STATUS:MAYBE"},
		{"class", "CLASS:SECRET"},
		{"transp", "TRANSP:CLEAR"},
		{"geo", "GEO:north;13.4"},
		{"geo without separator", "GEO:52.5"},
		{"bad date", "DTSTART:2024011"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(minimal(event("UID:1", "DTSTAMP:20240101T000000Z", tt.prop)...))
			if !errors.Is(err, perr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseTrailingContentIgnored(t *testing.T) {
	cal, err := Parse(minimal() + "X-TRAILER:1\r\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cal.Version != "2.0" {
		t.Fatalf("unexpected calendar %+v", cal)
	}
}

func TestParseFixture(t *testing.T) {
	cal, err := NewParser(WithFloatingLocation(time.UTC)).ParseReader(strings.NewReader(readFixture(t, "team.ics")))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if cal.CalScale != CalScaleGregorian || cal.Method != MethodPublish {
		t.Errorf("calscale/method = %q/%q", cal.CalScale, cal.Method)
	}
	if cal.Name != "Team" || cal.Description != "Shared team calendar" {
		t.Errorf("name/description = %q/%q", cal.Name, cal.Description)
	}

	if len(cal.TimeZones) != 1 {
		t.Fatalf("timezones = %d", len(cal.TimeZones))
	}
	tz := cal.TimeZones[0]
	if tz.TZID != "Europe/Berlin" || tz.Location != "Europe/Berlin" {
		t.Errorf("timezone = %+v", tz)
	}
	if len(tz.Standard) != 1 || tz.Standard[0].Name != "CET" {
		t.Errorf("standard rules = %+v", tz.Standard)
	}
	if len(tz.Daylight) != 1 || tz.Daylight[0].Name != "CEST" || tz.Daylight[0].OffsetTo != "+0200" {
		t.Errorf("daylight rules = %+v", tz.Daylight)
	}
	if got := tz.Daylight[0].Start; got.Month() != time.March || got.Hour() != 2 {
		t.Errorf("daylight start = %v", got)
	}

	if len(cal.Events) != 1 {
		t.Fatalf("events = %d", len(cal.Events))
	}
	ev := cal.Events[0]
	if ev.Status != EventConfirmed || ev.Transparency != Opaque || ev.Class != ClassPublic {
		t.Errorf("event enums = %q %q %q", ev.Status, ev.Transparency, ev.Class)
	}
	if want := "Quick sync on what everyone is doing today and whether anything is blocked."; ev.Description != want {
		t.Errorf("description = %q", ev.Description)
	}
	if !reflect.DeepEqual(ev.Categories, []string{"MEETING", "TEAM"}) {
		t.Errorf("categories = %v", ev.Categories)
	}
	if len(ev.Attendees) != 2 || ev.Organizer != "mailto:lead@example.com" {
		t.Errorf("attendees/organizer = %v / %q", ev.Attendees, ev.Organizer)
	}
	if ev.Sequence == nil || *ev.Sequence != 2 {
		t.Errorf("sequence = %v", ev.Sequence)
	}
	if ev.Geo == nil || ev.Geo.Latitude != 52.52 || ev.Geo.Longitude != 13.405 {
		t.Errorf("geo = %+v", ev.Geo)
	}
	start, ok := ev.Start.DateTime()
	if !ok || start.Zone != ZoneID || start.TZID != "Europe/Berlin" {
		t.Fatalf("dtstart = %+v", ev.Start)
	}
	if got := start.Time.UTC(); !got.Equal(time.Date(2024, 1, 8, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("dtstart instant = %v", got)
	}
	if len(ev.ExDates) != 1 {
		t.Errorf("exdates = %v", ev.ExDates)
	}
	if len(ev.Alarms) != 1 {
		t.Fatalf("alarms = %d", len(ev.Alarms))
	}
	rel, ok := ev.Alarms[0].Trigger.Relative()
	if !ok || rel.Duration.Raw != "-PT10M" || rel.Related != RelatedStart {
		t.Errorf("alarm trigger = %+v", ev.Alarms[0].Trigger)
	}

	if len(cal.Todos) != 1 {
		t.Fatalf("todos = %d", len(cal.Todos))
	}
	td := cal.Todos[0]
	if td.Status != TodoNeedsAction {
		t.Errorf("todo status = %q", td.Status)
	}
	if td.Priority == nil || *td.Priority != 1 {
		t.Errorf("priority = %v", td.Priority)
	}
	if td.PercentComplete != nil {
		t.Errorf("non-numeric PERCENT-COMPLETE should be absent, got %d", *td.PercentComplete)
	}
	if d, ok := td.Due.Date(); !ok || d != (Date{2024, time.January, 31}) {
		t.Errorf("due = %v", td.Due)
	}
	abs, ok := td.Alarms[0].Trigger.Absolute()
	if !ok || abs.Zone != ZoneUTC {
		t.Errorf("todo alarm trigger = %+v", td.Alarms[0].Trigger)
	}
	if td.Alarms[0].Repeat == nil || *td.Alarms[0].Repeat != 2 || td.Alarms[0].Duration.Raw != "PT5M" {
		t.Errorf("todo alarm = %+v", td.Alarms[0])
	}

	if len(cal.Journals) != 1 || cal.Journals[0].Status != JournalFinal {
		t.Errorf("journals = %+v", cal.Journals)
	}

	if len(cal.FreeBusy) != 1 {
		t.Fatalf("freebusy = %d", len(cal.FreeBusy))
	}
	periods := cal.FreeBusy[0].Periods
	if len(periods) != 2 || periods[0].Type != Busy || periods[1].Type != BusyTentative {
		t.Errorf("periods = %+v", periods)
	}
}

func TestParseIdempotent(t *testing.T) {
	text := readFixture(t, "team.ics")
	p := NewParser(WithFloatingLocation(time.UTC))

	a, err := p.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("parsing the same document twice gave different results")
	}
}
