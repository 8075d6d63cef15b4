package ics

import (
	"errors"
	"strings"

	"pimparse/internal/contentline"
	appLog "pimparse/internal/log"
	"pimparse/internal/perr"
)

type componentKind int

const (
	kindUnknown componentKind = iota
	kindCalendar
	kindEvent
	kindTodo
	kindJournal
	kindFreeBusy
	kindTimeZone
	kindStandard
	kindDaylight
	kindAlarm
)

// component is one built child. Exactly the field matching kind is set;
// unknown components carry only their name.
type component struct {
	kind componentKind
	name string

	calendar *Calendar
	event    *Event
	todo     *Todo
	journal  *Journal
	freeBusy *FreeBusy
	timeZone *TimeZone
	rule     *TimeZoneRule
	alarm    *Alarm
}

// collect returns the children of one kind in source order.
func collect[T any](children []component, kind componentKind, get func(component) *T) []T {
	var out []T
	for _, c := range children {
		if c.kind != kind {
			continue
		}
		out = append(out, *get(c))
	}
	return out
}

// cursor walks the unfolded lines. Nested assembly shares one cursor.
type cursor struct {
	lines []string
	pos   int
}

func (c *cursor) next() (string, bool) {
	if c.pos >= len(c.lines) {
		return "", false
	}
	line := c.lines[c.pos]
	c.pos++
	return line, true
}

func (c *cursor) remaining() int { return len(c.lines) - c.pos }

// assemble consumes lines up to the END matching name and builds the
// component from the properties and children gathered on the way.
func assemble(cur *cursor, name string, co *coercer) (component, error) {
	var props contentline.Properties
	var children []component

	for {
		line, ok := cur.next()
		if !ok {
			return component{}, perr.Structural("missing END:"+name, map[string]any{"component": name})
		}

		prop, err := contentline.Parse(line)
		if err != nil {
			var pe *perr.Error
			if errors.As(err, &pe) {
				pe.Args["logical_line"] = cur.pos
			}
			return component{}, err
		}

		switch prop.Name {
		case "BEGIN":
			child, err := assemble(cur, strings.ToUpper(prop.Value), co)
			if err != nil {
				return component{}, err
			}
			children = append(children, child)
		case "END":
			if !strings.EqualFold(prop.Value, name) {
				return component{}, perr.Structural("expected END:"+name, map[string]any{
					"component":    name,
					"got":          prop.Value,
					"logical_line": cur.pos,
				})
			}
			return build(name, props, children, co)
		default:
			props = append(props, prop)
		}
	}
}

func build(name string, props contentline.Properties, children []component, co *coercer) (component, error) {
	var (
		c   = component{name: name}
		err error
	)

	switch name {
	case "VCALENDAR":
		c.kind = kindCalendar
		c.calendar, err = buildCalendar(props, children, co)
	case "VEVENT":
		c.kind = kindEvent
		c.event, err = buildEvent(props, children, co)
	case "VTODO":
		c.kind = kindTodo
		c.todo, err = buildTodo(props, children, co)
	case "VJOURNAL":
		c.kind = kindJournal
		c.journal, err = buildJournal(props, co)
	case "VFREEBUSY":
		c.kind = kindFreeBusy
		c.freeBusy, err = buildFreeBusy(props, co)
	case "VTIMEZONE":
		c.kind = kindTimeZone
		c.timeZone, err = buildTimeZone(props, children, co)
	case "STANDARD":
		c.kind = kindStandard
		c.rule, err = buildTimeZoneRule(name, props)
	case "DAYLIGHT":
		c.kind = kindDaylight
		c.rule, err = buildTimeZoneRule(name, props)
	case "VALARM":
		c.kind = kindAlarm
		c.alarm, err = buildAlarm(props, co)
	default:
		appLog.Debug("ics: skipping unrecognized component", "component", name, "properties", len(props))
		return c, nil
	}

	if err != nil {
		return component{}, err
	}
	return c, nil
}
