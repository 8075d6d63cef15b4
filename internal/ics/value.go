package ics

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	"pimparse/internal/contentline"
	appLog "pimparse/internal/log"
	"pimparse/internal/perr"
)

const (
	dateLayout          = "20060102"
	dateTimeLayoutUTC   = "20060102T150405Z"
	dateTimeLayoutLocal = "20060102T150405"
)

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// ZoneKind tells how the zone of a ZonedTime was determined.
type ZoneKind int

const (
	// ZoneUTC is an absolute instant written with a trailing Z.
	ZoneUTC ZoneKind = iota + 1
	// ZoneID is a local time in a TZID the zone database resolved.
	ZoneID
	// ZoneFloating is a local time without a usable zone. Its Time is
	// anchored to the parser's floating location.
	ZoneFloating
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneUTC:
		return "utc"
	case ZoneID:
		return "tzid"
	case ZoneFloating:
		return "floating"
	default:
		return "unknown"
	}
}

// ZonedTime is a timestamp together with the zone semantics it was written with.
type ZonedTime struct {
	Time time.Time
	Zone ZoneKind
	TZID string // set only for ZoneID
}

func (z ZonedTime) IsFloating() bool { return z.Zone == ZoneFloating }

func (z ZonedTime) String() string {
	return z.Time.Format(time.RFC3339) + " (" + z.Zone.String() + ")"
}

type zonedTimeJSON struct {
	Time string `json:"time" yaml:"time"`
	Zone string `json:"zone" yaml:"zone"`
	TZID string `json:"tzid,omitempty" yaml:"tzid,omitempty"`
}

func (z ZonedTime) view() zonedTimeJSON {
	return zonedTimeJSON{Time: z.Time.Format(time.RFC3339), Zone: z.Zone.String(), TZID: z.TZID}
}

func (z ZonedTime) MarshalJSON() ([]byte, error) { return json.Marshal(z.view()) }
func (z ZonedTime) MarshalYAML() (any, error) { return z.view(), nil }

// Temporal is either a date-only value or a zoned timestamp, never both.
type Temporal struct {
	date *Date
	dt   *ZonedTime
}

// DateValue returns a date-only Temporal.
func DateValue(d Date) Temporal { return Temporal{date: &d} }

// DateTimeValue returns a zoned-timestamp Temporal.
func DateTimeValue(z ZonedTime) Temporal { return Temporal{dt: &z} }

func (t Temporal) IsDate() bool { return t.date != nil }

// Date returns the date variant.
func (t Temporal) Date() (Date, bool) {
	if t.date == nil {
		return Date{}, false
	}
	return *t.date, true
}

// DateTime returns the zoned-timestamp variant.
func (t Temporal) DateTime() (ZonedTime, bool) {
	if t.dt == nil {
		return ZonedTime{}, false
	}
	return *t.dt, true
}

// Time returns the instant of t; dates resolve to midnight in loc.
func (t Temporal) Time(loc *time.Location) time.Time {
	if t.date != nil {
		return t.date.In(loc)
	}
	if t.dt != nil {
		return t.dt.Time
	}
	return time.Time{}
}

func (t Temporal) String() string {
	if t.date != nil {
		return t.date.String()
	}
	if t.dt != nil {
		return t.dt.String()
	}
	return ""
}

type temporalJSON struct {
	Date     string         `json:"date,omitempty" yaml:"date,omitempty"`
	DateTime *zonedTimeJSON `json:"date_time,omitempty" yaml:"date_time,omitempty"`
}

func (t Temporal) view() temporalJSON {
	var v temporalJSON
	if t.date != nil {
		v.Date = t.date.String()
	}
	if t.dt != nil {
		z := t.dt.view()
		v.DateTime = &z
	}
	return v
}

func (t Temporal) MarshalJSON() ([]byte, error) { return json.Marshal(t.view()) }
func (t Temporal) MarshalYAML() (any, error) { return t.view(), nil }

// Duration keeps the textual ISO-8601 duration exactly as written.
type Duration struct {
	Raw string
}

func (d Duration) String() string { return d.Raw }

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.Raw) }
func (d Duration) MarshalYAML() (any, error) { return d.Raw, nil }

// durationShape is the RFC 5545 dur-value grammar. The decomposition itself
// is left to sosodev/duration, which also admits years, months and
// fractional parts that iCalendar forbids.
var durationShape = regexp.MustCompile(`^[+-]?P(?:\d+W|(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+S)?)?)$`)

// Value decomposes the duration ([+-]P[nW][nD][T[nH][nM][nS]]) into an
// elapsed time. Days and weeks count as 24h and 7*24h.
func (d Duration) Value() (time.Duration, error) {
	invalid := func(err error) (time.Duration, error) {
		pe := perr.Validation("invalid DURATION", map[string]any{"value": d.Raw})
		if err != nil {
			return 0, pe.Wrap(err)
		}
		return 0, pe
	}

	if !durationShape.MatchString(d.Raw) || strings.HasSuffix(d.Raw, "P") || strings.HasSuffix(d.Raw, "T") {
		return invalid(nil)
	}
	parsed, err := duration.Parse(strings.TrimPrefix(d.Raw, "+"))
	if err != nil {
		return invalid(err)
	}
	return parsed.ToTimeDuration(), nil
}

// Related anchors a relative trigger to the start or end of its owner.
type Related string

const (
	RelatedStart Related = "START"
	RelatedEnd   Related = "END"
)

// RelativeTrigger fires at an offset from the owning event or to-do.
type RelativeTrigger struct {
	Duration Duration `json:"duration" yaml:"duration"`
	Related  Related  `json:"related,omitempty" yaml:"related,omitempty"`
}

// Trigger is either an absolute time or a RelativeTrigger.
type Trigger struct {
	abs *ZonedTime
	rel *RelativeTrigger
}

func AbsoluteTrigger(z ZonedTime) Trigger { return Trigger{abs: &z} }

func NewRelativeTrigger(r RelativeTrigger) Trigger { return Trigger{rel: &r} }

func (t Trigger) Absolute() (ZonedTime, bool) {
	if t.abs == nil {
		return ZonedTime{}, false
	}
	return *t.abs, true
}

func (t Trigger) Relative() (RelativeTrigger, bool) {
	if t.rel == nil {
		return RelativeTrigger{}, false
	}
	return *t.rel, true
}

type triggerJSON struct {
	Absolute *zonedTimeJSON   `json:"absolute,omitempty" yaml:"absolute,omitempty"`
	Relative *RelativeTrigger `json:"relative,omitempty" yaml:"relative,omitempty"`
}

func (t Trigger) view() triggerJSON {
	var v triggerJSON
	if t.abs != nil {
		z := t.abs.view()
		v.Absolute = &z
	}
	v.Relative = t.rel
	return v
}

func (t Trigger) MarshalJSON() ([]byte, error) { return json.Marshal(t.view()) }
func (t Trigger) MarshalYAML() (any, error) { return t.view(), nil }

// Geo is a latitude/longitude pair.
type Geo struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// coercer turns raw properties into typed values. One is created per parse
// call; its location cache is never shared.
type coercer struct {
	floating *time.Location
	locs     map[string]*time.Location
}

func newCoercer(floating *time.Location) *coercer {
	if floating == nil {
		floating = time.Local
	}
	return &coercer{floating: floating, locs: make(map[string]*time.Location)}
}

// location resolves a TZID against the zone database. Unknown ids yield nil.
func (c *coercer) location(tzid string) *time.Location {
	if tzid == "" {
		return nil
	}
	if loc, ok := c.locs[tzid]; ok {
		return loc
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		appLog.Debug("unresolvable TZID, using floating time", "tzid", tzid)
		loc = nil
	}
	c.locs[tzid] = loc
	return loc
}

func invalidValue(p contentline.Property, err error) error {
	e := perr.Validation("invalid "+p.Name+" value", map[string]any{
		"field": p.Name,
		"value": p.Value,
	})
	if err != nil {
		e.Wrap(err)
	}
	return e
}

// temporal coerces p into a date (VALUE=DATE or 8 characters) or a zoned
// timestamp.
func (c *coercer) temporal(p contentline.Property) (Temporal, error) {
	if p.HasParamValue("VALUE", "DATE") || len(p.Value) == len(dateLayout) {
		t, err := time.Parse(dateLayout, p.Value)
		if err != nil {
			return Temporal{}, invalidValue(p, err)
		}
		return DateValue(Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}), nil
	}
	z, err := c.dateTime(p)
	if err != nil {
		return Temporal{}, err
	}
	return DateTimeValue(z), nil
}

// dateTime coerces p into a zoned timestamp: UTC with a trailing Z, else a
// local time in TZID when it resolves, else floating.
func (c *coercer) dateTime(p contentline.Property) (ZonedTime, error) {
	v := p.Value
	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse(dateTimeLayoutUTC, v)
		if err != nil {
			return ZonedTime{}, invalidValue(p, err)
		}
		return ZonedTime{Time: t, Zone: ZoneUTC}, nil

	case len(v) == len(dateTimeLayoutLocal):
		tzid, _ := p.Param("TZID")
		if loc := c.location(tzid); loc != nil {
			t, err := time.ParseInLocation(dateTimeLayoutLocal, v, loc)
			if err != nil {
				return ZonedTime{}, invalidValue(p, err)
			}
			return ZonedTime{Time: t, Zone: ZoneID, TZID: tzid}, nil
		}
		t, err := time.ParseInLocation(dateTimeLayoutLocal, v, c.floating)
		if err != nil {
			return ZonedTime{}, invalidValue(p, err)
		}
		return ZonedTime{Time: t, Zone: ZoneFloating}, nil
	}

	return ZonedTime{}, perr.Validation("unsupported DATE-TIME format", map[string]any{
		"field": p.Name,
		"value": v,
	})
}

// temporals expands a comma-separated multi-value property (RDATE, EXDATE)
// into one Temporal per segment.
func (c *coercer) temporals(p contentline.Property) ([]Temporal, error) {
	parts := strings.Split(p.Value, ",")
	out := make([]Temporal, 0, len(parts))
	for _, part := range parts {
		t, err := c.temporal(p.WithValue(part))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func isRelativeTrigger(v string) bool {
	return strings.HasPrefix(v, "P") || strings.HasPrefix(v, "+P") || strings.HasPrefix(v, "-P")
}

func (c *coercer) trigger(p contentline.Property) (Trigger, error) {
	if !isRelativeTrigger(p.Value) {
		z, err := c.dateTime(p)
		if err != nil {
			return Trigger{}, err
		}
		return AbsoluteTrigger(z), nil
	}

	rel := RelativeTrigger{Duration: Duration{Raw: p.Value}}
	if v, ok := p.Param("RELATED"); ok {
		r, err := matchSymbol("RELATED", v, RelatedStart, RelatedEnd)
		if err != nil {
			return Trigger{}, err
		}
		rel.Related = r
	}
	return NewRelativeTrigger(rel), nil
}

func parseGeo(p contentline.Property) (Geo, error) {
	lat, lon, ok := strings.Cut(p.Value, ";")
	if !ok {
		return Geo{}, invalidValue(p, nil)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Geo{}, invalidValue(p, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Geo{}, invalidValue(p, err)
	}
	return Geo{Latitude: la, Longitude: lo}, nil
}

// matchSymbol matches v case-insensitively against a fixed symbol set.
func matchSymbol[T ~string](field, v string, symbols ...T) (T, error) {
	for _, s := range symbols {
		if strings.EqualFold(v, string(s)) {
			return s, nil
		}
	}
	var zero T
	return zero, perr.Validation("unknown "+field+" value", map[string]any{
		"field": field,
		"value": v,
	})
}
