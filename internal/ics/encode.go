package ics

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"

	"pimparse/internal/perr"
)

// Encode serializes cal back to iCalendar text, folded at 75 octets.
// Text values are written as they were read; values that mixed escaped and
// bare separators come back fully escaped.
func Encode(cal *Calendar) (string, error) {
	if cal == nil {
		return "", perr.Validation("nil calendar", nil)
	}

	out := ical.NewCalendarFor("pimparse")
	out.SetProductId(ical.FromText(cal.ProdID))
	out.SetVersion(ical.FromText(cal.Version))
	if cal.CalScale != "" {
		out.SetCalscale(string(cal.CalScale))
	}
	if cal.Method != "" {
		out.SetMethod(ical.Method(cal.Method))
	}
	if cal.Name != "" {
		out.SetName(ical.FromText(cal.Name))
	}
	if cal.Description != "" {
		out.SetDescription(ical.FromText(cal.Description))
	}
	if cal.Color != "" {
		out.SetColor(ical.FromText(cal.Color))
	}

	for _, tz := range cal.TimeZones {
		encodeTimeZone(out.AddTimezone(tz.TZID), tz)
	}
	for _, ev := range cal.Events {
		e := out.AddEvent(ev.UID)
		encodeEvent(&e.ComponentBase, ev)
		for _, a := range ev.Alarms {
			encodeAlarm(&e.AddAlarm().ComponentBase, a)
		}
	}
	for _, td := range cal.Todos {
		t := out.AddTodo(td.UID)
		encodeTodo(&t.ComponentBase, td)
		for _, a := range td.Alarms {
			encodeAlarm(&t.AddAlarm().ComponentBase, a)
		}
	}
	for _, j := range cal.Journals {
		encodeJournal(&out.AddJournal(j.UID).ComponentBase, j)
	}
	for _, fb := range cal.FreeBusy {
		encodeFreeBusy(&out.AddBusy(fb.UID).ComponentBase, fb)
	}

	var sb strings.Builder
	if err := out.SerializeTo(&sb, ical.WithNewLineWindows); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// props wraps a golang-ical component with typed setters that skip absent
// values.
type props struct {
	cb *ical.ComponentBase
}

func (p props) add(name, value string, params ...ical.PropertyParameter) {
	p.cb.AddProperty(ical.ComponentProperty(name), value, params...)
}

func (p props) text(name, v string) {
	if v != "" {
		p.add(name, ical.FromText(v))
	}
}

func (p props) raw(name, v string) {
	if v != "" {
		p.add(name, v)
	}
}

func (p props) raws(name string, vs []string) {
	for _, v := range vs {
		p.add(name, v)
	}
}

// verbatim writes list values that are already in wire form. golang-ical
// escapes every TEXT value on output, which would turn the separators of
// CATEGORIES:a,b into literal commas.
func (p props) verbatim(name string, vs []string) {
	if len(vs) == 0 {
		return
	}
	r := &rawLines{}
	for _, v := range vs {
		r.lines = append(r.lines, name+":"+v)
	}
	p.cb.Components = append(p.cb.Components, r)
}

// rawLines is a pseudo-component that emits its lines unchanged apart from
// folding. It has no BEGIN/END of its own.
type rawLines struct {
	lines []string
}

func (r *rawLines) UnknownPropertiesIANAProperties() []ical.IANAProperty { return nil }
func (r *rawLines) SubComponents() []ical.Component { return nil }

func (r *rawLines) SerializeTo(w io.Writer, cfg *ical.SerializationConfiguration) error {
	for _, line := range r.lines {
		if err := writeFolded(w, line, cfg.MaxLength, cfg.NewLine); err != nil {
			return fmt.Errorf("raw line serialization: %w", err)
		}
	}
	return nil
}

// writeFolded splits line into chunks of at most maxLen octets without
// breaking a UTF-8 sequence; continuations start with a space.
func writeFolded(w io.Writer, line string, maxLen int, nl string) error {
	limit := maxLen
	prefix := ""
	for {
		if len(line) <= limit {
			_, err := io.WriteString(w, prefix+line+nl)
			return err
		}
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if _, err := io.WriteString(w, prefix+line[:cut]+nl); err != nil {
			return err
		}
		line = line[cut:]
		limit = maxLen - 1
		prefix = " "
	}
}

func (p props) integer(name string, n *int) {
	if n != nil {
		p.add(name, strconv.Itoa(*n))
	}
}

func (p props) duration(name string, d *Duration) {
	if d != nil {
		p.add(name, d.Raw)
	}
}

func (p props) dateTime(name string, z *ZonedTime) {
	if z != nil {
		v, params := formatDateTime(*z)
		p.add(name, v, params...)
	}
}

func (p props) temporal(name string, t *Temporal) {
	if t != nil {
		v, params := formatTemporal(*t)
		p.add(name, v, params...)
	}
}

func (p props) temporals(name string, ts []Temporal) {
	for i := range ts {
		p.temporal(name, &ts[i])
	}
}

func formatDateTime(z ZonedTime) (string, []ical.PropertyParameter) {
	switch z.Zone {
	case ZoneUTC:
		return z.Time.UTC().Format(dateTimeLayoutUTC), nil
	case ZoneID:
		return z.Time.Format(dateTimeLayoutLocal), []ical.PropertyParameter{ical.WithTZID(z.TZID)}
	default:
		return z.Time.Format(dateTimeLayoutLocal), nil
	}
}

func formatTemporal(t Temporal) (string, []ical.PropertyParameter) {
	if d, ok := t.Date(); ok {
		return d.In(time.UTC).Format(dateLayout), []ical.PropertyParameter{ical.WithValue(string(ical.ValueDataTypeDate))}
	}
	z, _ := t.DateTime()
	return formatDateTime(z)
}

func formatGeo(g Geo) string {
	return strconv.FormatFloat(g.Latitude, 'f', -1, 64) + ";" + strconv.FormatFloat(g.Longitude, 'f', -1, 64)
}

func encodeEvent(cb *ical.ComponentBase, ev Event) {
	p := props{cb}
	p.dateTime("DTSTAMP", &ev.DTStamp)
	p.temporal("DTSTART", ev.Start)
	p.temporal("DTEND", ev.End)
	p.duration("DURATION", ev.Duration)
	p.text("SUMMARY", ev.Summary)
	p.text("DESCRIPTION", ev.Description)
	p.text("LOCATION", ev.Location)
	p.raw("STATUS", string(ev.Status))
	p.verbatim("CATEGORIES", ev.Categories)
	p.raw("RRULE", ev.RRule)
	p.temporals("RDATE", ev.RDates)
	p.temporals("EXDATE", ev.ExDates)
	p.raw("ORGANIZER", ev.Organizer)
	p.raws("ATTENDEE", ev.Attendees)
	p.temporal("RECURRENCE-ID", ev.RecurrenceID)
	p.integer("SEQUENCE", ev.Sequence)
	p.raw("TRANSP", string(ev.Transparency))
	p.raw("CLASS", string(ev.Class))
	p.raw("URL", ev.URL)
	p.verbatim("RESOURCES", ev.Resources)
	if ev.Geo != nil {
		p.add("GEO", formatGeo(*ev.Geo))
	}
	p.text("CONTACT", ev.Contact)
	p.integer("PERCENT-COMPLETE", ev.PercentComplete)
	p.dateTime("CREATED", ev.Created)
	p.dateTime("LAST-MODIFIED", ev.LastModified)
}

func encodeTodo(cb *ical.ComponentBase, td Todo) {
	p := props{cb}
	p.dateTime("DTSTAMP", &td.DTStamp)
	p.temporal("DUE", td.Due)
	p.dateTime("COMPLETED", td.Completed)
	p.temporal("DTSTART", td.Start)
	p.text("SUMMARY", td.Summary)
	p.text("DESCRIPTION", td.Description)
	p.raw("STATUS", string(td.Status))
	p.integer("PRIORITY", td.Priority)
	p.raw("RRULE", td.RRule)
	p.temporals("RDATE", td.RDates)
	p.temporals("EXDATE", td.ExDates)
	p.raw("ORGANIZER", td.Organizer)
	p.raws("ATTENDEE", td.Attendees)
	p.integer("SEQUENCE", td.Sequence)
	p.integer("PERCENT-COMPLETE", td.PercentComplete)
	p.verbatim("RELATED-TO", td.RelatedTo)
	p.dateTime("CREATED", td.Created)
	p.dateTime("LAST-MODIFIED", td.LastModified)
	p.raw("URL", td.URL)
}

func encodeJournal(cb *ical.ComponentBase, j Journal) {
	p := props{cb}
	p.dateTime("DTSTAMP", &j.DTStamp)
	p.temporal("DTSTART", j.Start)
	p.text("SUMMARY", j.Summary)
	p.text("DESCRIPTION", j.Description)
	p.raw("STATUS", string(j.Status))
	p.integer("SEQUENCE", j.Sequence)
	p.dateTime("CREATED", j.Created)
	p.dateTime("LAST-MODIFIED", j.LastModified)
}

func encodeFreeBusy(cb *ical.ComponentBase, fb FreeBusy) {
	p := props{cb}
	p.dateTime("DTSTAMP", &fb.DTStamp)
	p.temporal("DTSTART", fb.Start)
	p.temporal("DTEND", fb.End)
	for _, period := range fb.Periods {
		start, params := formatTemporal(period.Start)
		end, _ := formatTemporal(period.End)
		params = append(params, &ical.KeyValues{Key: "FBTYPE", Value: []string{string(period.Type)}})
		p.add("FREEBUSY", start+"/"+end, params...)
	}
	p.raw("ORGANIZER", fb.Organizer)
	p.raws("ATTENDEE", fb.Attendees)
	p.text("COMMENT", fb.Comment)
	p.raw("URL", fb.URL)
}

func encodeTimeZone(tz *ical.VTimezone, zone TimeZone) {
	p := props{&tz.ComponentBase}
	p.dateTime("LAST-MODIFIED", zone.LastModified)
	p.raw("TZURL", zone.TZURL)
	p.text("X-LIC-LOCATION", zone.Location)

	for _, rule := range zone.Standard {
		encodeTimeZoneRule(&tz.AddStandard().ComponentBase, rule)
	}
	for _, rule := range zone.Daylight {
		d := &ical.Daylight{}
		encodeTimeZoneRule(&d.ComponentBase, rule)
		tz.Components = append(tz.Components, d)
	}
}

func encodeTimeZoneRule(cb *ical.ComponentBase, rule TimeZoneRule) {
	p := props{cb}
	p.add("DTSTART", rule.Start.Format(dateTimeLayoutLocal))
	p.raw("TZOFFSETFROM", rule.OffsetFrom)
	p.raw("TZOFFSETTO", rule.OffsetTo)
	p.text("TZNAME", rule.Name)
	p.raw("RRULE", rule.RRule)
}

func encodeAlarm(cb *ical.ComponentBase, a Alarm) {
	p := props{cb}
	p.raw("ACTION", string(a.Action))
	if abs, ok := a.Trigger.Absolute(); ok {
		v, params := formatDateTime(abs)
		params = append(params, ical.WithValue(string(ical.ValueDataTypeDateTime)))
		p.add("TRIGGER", v, params...)
	} else if rel, ok := a.Trigger.Relative(); ok {
		var params []ical.PropertyParameter
		if rel.Related != "" {
			params = append(params, &ical.KeyValues{Key: "RELATED", Value: []string{string(rel.Related)}})
		}
		p.add("TRIGGER", rel.Duration.Raw, params...)
	}
	p.text("DESCRIPTION", a.Description)
	p.text("SUMMARY", a.Summary)
	p.raws("ATTENDEE", a.Attendees)
	p.duration("DURATION", a.Duration)
	p.integer("REPEAT", a.Repeat)
	p.raw("ATTACH", a.Attach)
}
