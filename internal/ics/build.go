package ics

import (
	"strconv"
	"strings"
	"time"

	"pimparse/internal/contentline"
	"pimparse/internal/perr"
)

// fields reads typed values out of one component's properties. The first
// failure sticks in err and later reads return zero values.
type fields struct {
	comp  string
	props contentline.Properties
	co    *coercer
	err   error
}

func newFields(comp string, props contentline.Properties, co *coercer) *fields {
	return &fields{comp: comp, props: props, co: co}
}

func (f *fields) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *fields) required(name string) (contentline.Property, bool) {
	p, ok := f.props.First(name)
	if !ok {
		f.fail(perr.Missing(name, f.comp))
	}
	return p, ok
}

func (f *fields) requiredText(name string) string {
	p, _ := f.required(name)
	return p.Value
}

// text returns the value of the first property matching any of names.
func (f *fields) text(names ...string) string {
	v, _ := f.props.Value(names...)
	return v
}

func (f *fields) list(name string) []string {
	return f.props.Values(name)
}

func (f *fields) temporal(name string) *Temporal {
	p, ok := f.props.First(name)
	if !ok || f.err != nil {
		return nil
	}
	t, err := f.co.temporal(p)
	if err != nil {
		f.fail(err)
		return nil
	}
	return &t
}

func (f *fields) dateTime(name string) *ZonedTime {
	p, ok := f.props.First(name)
	if !ok || f.err != nil {
		return nil
	}
	z, err := f.co.dateTime(p)
	if err != nil {
		f.fail(err)
		return nil
	}
	return &z
}

func (f *fields) requiredDateTime(name string) ZonedTime {
	if _, ok := f.required(name); !ok {
		return ZonedTime{}
	}
	if z := f.dateTime(name); z != nil {
		return *z
	}
	return ZonedTime{}
}

// temporals gathers every segment of every line of a multi-value property.
func (f *fields) temporals(name string) []Temporal {
	var out []Temporal
	for _, p := range f.props.All(name) {
		if f.err != nil {
			return nil
		}
		ts, err := f.co.temporals(p)
		if err != nil {
			f.fail(err)
			return nil
		}
		out = append(out, ts...)
	}
	return out
}

// integer is lenient: a value that is not an integer leaves the field absent.
func (f *fields) integer(name string) *int {
	v, ok := f.props.Value(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

func (f *fields) duration(name string) *Duration {
	v, ok := f.props.Value(name)
	if !ok {
		return nil
	}
	return &Duration{Raw: v}
}

func (f *fields) geo(name string) *Geo {
	p, ok := f.props.First(name)
	if !ok || f.err != nil {
		return nil
	}
	g, err := parseGeo(p)
	if err != nil {
		f.fail(err)
		return nil
	}
	return &g
}

func (f *fields) trigger(name string) Trigger {
	p, ok := f.required(name)
	if !ok || f.err != nil {
		return Trigger{}
	}
	t, err := f.co.trigger(p)
	if err != nil {
		f.fail(err)
	}
	return t
}

func enum[T ~string](f *fields, name string, symbols ...T) T {
	var zero T
	v, ok := f.props.Value(name)
	if !ok || f.err != nil {
		return zero
	}
	s, err := matchSymbol(name, v, symbols...)
	if err != nil {
		f.fail(err)
		return zero
	}
	return s
}

func buildCalendar(props contentline.Properties, children []component, co *coercer) (*Calendar, error) {
	f := newFields("VCALENDAR", props, co)
	cal := &Calendar{
		ProdID:      f.requiredText("PRODID"),
		Version:     f.requiredText("VERSION"),
		CalScale:    enum(f, "CALSCALE", CalScaleGregorian),
		Method:      enum(f, "METHOD", MethodPublish, MethodRequest, MethodReply, MethodAdd, MethodCancel, MethodRefresh, MethodCounter, MethodDeclineCounter),
		Name:        f.text("NAME", "X-WR-CALNAME"),
		Description: f.text("DESCRIPTION", "X-WR-CALDESC"),
		Color:       f.text("COLOR", "X-APPLE-CALENDAR-COLOR"),

		Events:    collect(children, kindEvent, func(c component) *Event { return c.event }),
		Todos:     collect(children, kindTodo, func(c component) *Todo { return c.todo }),
		Journals:  collect(children, kindJournal, func(c component) *Journal { return c.journal }),
		FreeBusy:  collect(children, kindFreeBusy, func(c component) *FreeBusy { return c.freeBusy }),
		TimeZones: collect(children, kindTimeZone, func(c component) *TimeZone { return c.timeZone }),
	}
	if f.err != nil {
		return nil, f.err
	}
	return cal, nil
}

func alarmsOf(children []component) []Alarm {
	return collect(children, kindAlarm, func(c component) *Alarm { return c.alarm })
}

func buildEvent(props contentline.Properties, children []component, co *coercer) (*Event, error) {
	f := newFields("VEVENT", props, co)
	ev := &Event{
		UID:     f.requiredText("UID"),
		DTStamp: f.requiredDateTime("DTSTAMP"),

		Start:       f.temporal("DTSTART"),
		End:         f.temporal("DTEND"),
		Duration:    f.duration("DURATION"),
		Summary:     f.text("SUMMARY"),
		Description: f.text("DESCRIPTION"),
		Location:    f.text("LOCATION"),
		Status:      enum(f, "STATUS", EventTentative, EventConfirmed, EventCancelled),
		Categories:  f.list("CATEGORIES"),

		RRule:   f.text("RRULE"),
		RDates:  f.temporals("RDATE"),
		ExDates: f.temporals("EXDATE"),
		Alarms:  alarmsOf(children),

		Organizer:       f.text("ORGANIZER"),
		Attendees:       f.list("ATTENDEE"),
		RecurrenceID:    f.temporal("RECURRENCE-ID"),
		Sequence:        f.integer("SEQUENCE"),
		Transparency:    enum(f, "TRANSP", Opaque, Transparent),
		Class:           enum(f, "CLASS", ClassPublic, ClassPrivate, ClassConfidential),
		URL:             f.text("URL"),
		Resources:       f.list("RESOURCES"),
		Geo:             f.geo("GEO"),
		Contact:         f.text("CONTACT"),
		PercentComplete: f.integer("PERCENT-COMPLETE"),
		Created:         f.dateTime("CREATED"),
		LastModified:    f.dateTime("LAST-MODIFIED"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return ev, nil
}

func buildTodo(props contentline.Properties, children []component, co *coercer) (*Todo, error) {
	f := newFields("VTODO", props, co)
	td := &Todo{
		UID:     f.requiredText("UID"),
		DTStamp: f.requiredDateTime("DTSTAMP"),

		Due:         f.temporal("DUE"),
		Completed:   f.dateTime("COMPLETED"),
		Start:       f.temporal("DTSTART"),
		Summary:     f.text("SUMMARY"),
		Description: f.text("DESCRIPTION"),
		Status:      enum(f, "STATUS", TodoNeedsAction, TodoCompleted, TodoInProcess, TodoCancelled),
		Priority:    f.integer("PRIORITY"),

		RRule:   f.text("RRULE"),
		RDates:  f.temporals("RDATE"),
		ExDates: f.temporals("EXDATE"),
		Alarms:  alarmsOf(children),

		Organizer:       f.text("ORGANIZER"),
		Attendees:       f.list("ATTENDEE"),
		Sequence:        f.integer("SEQUENCE"),
		PercentComplete: f.integer("PERCENT-COMPLETE"),
		RelatedTo:       f.list("RELATED-TO"),
		Created:         f.dateTime("CREATED"),
		LastModified:    f.dateTime("LAST-MODIFIED"),
		URL:             f.text("URL"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return td, nil
}

func buildJournal(props contentline.Properties, co *coercer) (*Journal, error) {
	f := newFields("VJOURNAL", props, co)
	j := &Journal{
		UID:     f.requiredText("UID"),
		DTStamp: f.requiredDateTime("DTSTAMP"),

		Start:        f.temporal("DTSTART"),
		Summary:      f.text("SUMMARY"),
		Description:  f.text("DESCRIPTION"),
		Status:       enum(f, "STATUS", JournalDraft, JournalFinal, JournalCancelled),
		Sequence:     f.integer("SEQUENCE"),
		Created:      f.dateTime("CREATED"),
		LastModified: f.dateTime("LAST-MODIFIED"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return j, nil
}

func buildFreeBusy(props contentline.Properties, co *coercer) (*FreeBusy, error) {
	f := newFields("VFREEBUSY", props, co)
	fb := &FreeBusy{
		UID:     f.requiredText("UID"),
		DTStamp: f.requiredDateTime("DTSTAMP"),

		Start:     f.temporal("DTSTART"),
		End:       f.temporal("DTEND"),
		Organizer: f.text("ORGANIZER"),
		Attendees: f.list("ATTENDEE"),
		Comment:   f.text("COMMENT"),
		URL:       f.text("URL"),
	}
	if f.err != nil {
		return nil, f.err
	}

	for _, p := range props.All("FREEBUSY") {
		period, err := buildPeriod(p, co)
		if err != nil {
			return nil, err
		}
		fb.Periods = append(fb.Periods, period)
	}
	return fb, nil
}

// buildPeriod splits a FREEBUSY value once on '/' and coerces both halves.
func buildPeriod(p contentline.Property, co *coercer) (Period, error) {
	start, end, ok := strings.Cut(p.Value, "/")
	if !ok {
		return Period{}, invalidValue(p, nil)
	}

	var (
		period Period
		err    error
	)
	if period.Start, err = co.temporal(p.WithValue(start)); err != nil {
		return Period{}, err
	}
	if period.End, err = co.temporal(p.WithValue(end)); err != nil {
		return Period{}, err
	}

	period.Type = Busy
	if v, ok := p.Param("FBTYPE"); ok {
		t, err := matchSymbol("FBTYPE", v, Free, Busy, BusyTentative, BusyUnavailable)
		if err != nil {
			return Period{}, err
		}
		period.Type = t
	}
	return period, nil
}

func buildTimeZone(props contentline.Properties, children []component, co *coercer) (*TimeZone, error) {
	f := newFields("VTIMEZONE", props, co)
	tz := &TimeZone{
		TZID:         f.requiredText("TZID"),
		LastModified: f.dateTime("LAST-MODIFIED"),
		TZURL:        f.text("TZURL"),
		Location:     f.text("X-LIC-LOCATION"),
		Standard:     collect(children, kindStandard, func(c component) *TimeZoneRule { return c.rule }),
		Daylight:     collect(children, kindDaylight, func(c component) *TimeZoneRule { return c.rule }),
	}
	if f.err != nil {
		return nil, f.err
	}
	return tz, nil
}

// buildTimeZoneRule reads an observance. DTSTART is a civil time with no zone.
func buildTimeZoneRule(name string, props contentline.Properties) (*TimeZoneRule, error) {
	f := newFields(name, props, nil)
	rule := &TimeZoneRule{
		OffsetFrom: f.requiredText("TZOFFSETFROM"),
		OffsetTo:   f.requiredText("TZOFFSETTO"),
		Name:       f.text("TZNAME"),
		RRule:      f.text("RRULE"),
	}
	p, ok := f.required("DTSTART")
	if f.err != nil {
		return nil, f.err
	}
	if ok {
		layout := dateTimeLayoutLocal
		if strings.HasSuffix(p.Value, "Z") {
			layout = dateTimeLayoutUTC
		}
		t, err := time.Parse(layout, p.Value)
		if err != nil {
			return nil, invalidValue(p, err)
		}
		rule.Start = t
	}
	return rule, nil
}

func buildAlarm(props contentline.Properties, co *coercer) (*Alarm, error) {
	f := newFields("VALARM", props, co)
	a := &Alarm{}
	if _, ok := f.required("ACTION"); ok {
		a.Action = enum(f, "ACTION", ActionAudio, ActionDisplay, ActionEmail)
	}
	a.Trigger = f.trigger("TRIGGER")
	a.Description = f.text("DESCRIPTION")
	a.Summary = f.text("SUMMARY")
	a.Attendees = f.list("ATTENDEE")
	a.Duration = f.duration("DURATION")
	a.Repeat = f.integer("REPEAT")
	a.Attach = f.text("ATTACH")
	if f.err != nil {
		return nil, f.err
	}
	return a, nil
}
