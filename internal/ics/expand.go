package ics

import (
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "pimparse/internal/log"
	"pimparse/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// SourceID is copied onto every occurrence.
	SourceID string

	// DisplayLocation is the timezone to which all occurrences will be converted.
	// Date-only values are also anchored here. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the list of expanded occurrences and optionally
// information about truncation.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
	// Skipped records UIDs of events that could not be placed in time
	// (no DTSTART, or an RRULE the recurrence engine rejects).
	Skipped []string
}

// span is an event resolved to concrete instants.
type span struct {
	ev     *Event
	start  time.Time
	end    time.Time
	allDay bool
}

// Expand takes the events of a parsed calendar and expands them into
// concrete occurrences within the configured range. It handles:
//
//   - Single non-recurring events
//   - RRULE and RDATE recurrence, minus EXDATE
//   - RECURRENCE-ID overrides
//   - All-day (date-only) semantics
//
// Occurrences are sorted by start and converted into
// ExpandConfig.DisplayLocation.
func Expand(cal *Calendar, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cal == nil {
		return result, errors.New("expand: nil calendar")
	}
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID, keeping first-seen order.
	var uids []string
	baseByUID := make(map[string][]span)
	overridesByUID := make(map[string][]span)

	for i := range cal.Events {
		ev := &cal.Events[i]
		sp, ok := resolveSpan(ev, cfg.DisplayLocation)
		if !ok {
			result.Skipped = append(result.Skipped, ev.UID)
			appLog.Debug("expand: skipping event without DTSTART", "uid", ev.UID)
			continue
		}
		if ev.RecurrenceID != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], sp)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], sp)
	}

	allOccurrences := make([]model.Occurrence, 0)

	for _, uid := range uids {
		ov := overridesByUID[uid]
		truncated := false

		for _, sp := range baseByUID[uid] {
			occ, hitCap, err := expandSpan(sp, ov, cfg)
			if err != nil {
				result.Skipped = append(result.Skipped, uid)
				appLog.Error("expand: failed to parse RRULE", err, "uid", uid, "rrule", sp.ev.RRule)
				continue
			}
			if hitCap {
				truncated = true
			}
			allOccurrences = append(allOccurrences, occ...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: truncated occurrences for UID due to cap",
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	slices.SortStableFunc(allOccurrences, model.ByStart)
	result.Occurrences = allOccurrences
	return result, nil
}

// resolveSpan places ev in time. The end comes from DTEND, else DURATION,
// else one day for all-day events, else the start itself.
func resolveSpan(ev *Event, loc *time.Location) (span, bool) {
	if ev.Start == nil {
		return span{}, false
	}
	sp := span{
		ev:     ev,
		start:  ev.Start.Time(loc),
		allDay: ev.Start.IsDate(),
	}

	switch {
	case ev.End != nil:
		sp.end = ev.End.Time(loc)
	case ev.Duration != nil:
		d, err := ev.Duration.Value()
		if err != nil {
			appLog.Debug("expand: ignoring bad DURATION", "uid", ev.UID, "duration", ev.Duration.Raw)
			sp.end = defaultEnd(sp)
		} else {
			sp.end = sp.start.Add(d)
		}
	default:
		sp.end = defaultEnd(sp)
	}
	return sp, true
}

func defaultEnd(sp span) time.Time {
	if sp.allDay {
		return sp.start.AddDate(0, 0, 1)
	}
	return sp.start
}

func isRecurring(ev *Event) bool {
	return ev.RRule != "" || len(ev.RDates) > 0
}

// expandSpan expands a single base event with its possible overrides,
// returning occurrences and whether the cap was hit.
func expandSpan(sp span, overrides []span, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	if !isRecurring(sp.ev) {
		return expandSingle(sp, overrides, cfg), false, nil
	}
	return expandRecurring(sp, overrides, cfg)
}

func expandSingle(sp span, overrides []span, cfg ExpandConfig) []model.Occurrence {
	var out []model.Occurrence

	// Quick range check: if event does not intersect [RangeStart, RangeEnd], skip.
	if !timeRangesOverlap(sp.start, sp.end, cfg.RangeStart, cfg.RangeEnd) {
		return out
	}

	occ := sp
	overridden := false
	if o, ok := findOverrideForStart(overrides, sp.start, cfg.DisplayLocation); ok {
		occ = o
		overridden = true
	}

	out = append(out, makeOccurrence(occ, cfg, false, overridden))
	return out
}

func expandRecurring(sp span, overrides []span, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	out := make([]model.Occurrence, 0)
	hitCap := false
	loc := sp.start.Location()

	var set rrule.Set
	set.DTStart(sp.start)

	if sp.ev.RRule != "" {
		r, err := rrule.StrToRRule(sp.ev.RRule)
		if err != nil {
			return nil, false, err
		}
		// Ensure Dtstart is set to the event's DTSTART.
		r.DTStart(sp.start)
		set.RRule(r)
	} else {
		// Without a rule DTSTART is only produced as an explicit instance.
		set.RDate(sp.start)
	}

	for _, rd := range sp.ev.RDates {
		set.RDate(rd.Time(cfg.DisplayLocation).In(loc))
	}
	for _, ex := range sp.ev.ExDates {
		// Best effort: align EXDATE location with event's start.
		set.ExDate(ex.Time(cfg.DisplayLocation).In(loc))
	}

	duration := sp.end.Sub(sp.start)

	// Widen the lower bound so instances already in progress at RangeStart
	// are kept.
	rangeStart := cfg.RangeStart.Add(-duration).In(loc)
	rangeEnd := cfg.RangeEnd.In(loc)

	occTimes := set.Between(rangeStart, rangeEnd, true)

	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		inst := sp
		inst.start = occStart
		if sp.allDay {
			// All-day: treat as [date 00:00, next day 00:00) plus any extra days.
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, loc)
			inst.start = date
			inst.end = date.Add(duration)
		} else {
			inst.end = occStart.Add(duration)
		}

		overridden := false
		if o, ok := findOverrideForStart(overrides, inst.start, cfg.DisplayLocation); ok {
			inst = o
			overridden = true
		}

		out = append(out, makeOccurrence(inst, cfg, true, overridden))
	}

	return out, hitCap, nil
}

// findOverrideForStart finds an override event whose RECURRENCE-ID matches
// the given instance start with exact time equality.
func findOverrideForStart(overrides []span, start time.Time, loc *time.Location) (span, bool) {
	for _, ov := range overrides {
		rid := ov.ev.RecurrenceID.Time(loc)
		if rid.Equal(start) {
			return ov, true
		}
	}
	return span{}, false
}

// makeOccurrence converts a (possibly overridden) span into a
// model.Occurrence normalized into the display location.
func makeOccurrence(sp span, cfg ExpandConfig, recurring, overridden bool) model.Occurrence {
	startLocal := sp.start.In(cfg.DisplayLocation)
	endLocal := sp.end.In(cfg.DisplayLocation)

	occ := model.Occurrence{
		SourceID:    cfg.SourceID,
		UID:         sp.ev.UID,
		Summary:     sp.ev.Summary,
		Description: sp.ev.Description,
		Location:    sp.ev.Location,
		Status:      string(sp.ev.Status),
		AllDay:      sp.allDay,
		Recurring:   recurring,
		Override:    overridden,
		Start:       startLocal,
		End:         endLocal,
	}

	// InstanceKey: use start time in RFC3339 as a stable per-instance key.
	occ.InstanceKey = startLocal.Format(time.RFC3339Nano)

	return occ
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
