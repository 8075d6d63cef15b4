package ics

import "time"

// CalScale is the calendar system of a VCALENDAR.
type CalScale string

const CalScaleGregorian CalScale = "GREGORIAN"

// Method is the iTIP method of a VCALENDAR.
type Method string

const (
	MethodPublish        Method = "PUBLISH"
	MethodRequest        Method = "REQUEST"
	MethodReply          Method = "REPLY"
	MethodAdd            Method = "ADD"
	MethodCancel         Method = "CANCEL"
	MethodRefresh        Method = "REFRESH"
	MethodCounter        Method = "COUNTER"
	MethodDeclineCounter Method = "DECLINECOUNTER"
)

type EventStatus string

const (
	EventTentative EventStatus = "TENTATIVE"
	EventConfirmed EventStatus = "CONFIRMED"
	EventCancelled EventStatus = "CANCELLED"
)

type TodoStatus string

const (
	TodoNeedsAction TodoStatus = "NEEDS-ACTION"
	TodoCompleted   TodoStatus = "COMPLETED"
	TodoInProcess   TodoStatus = "IN-PROCESS"
	TodoCancelled   TodoStatus = "CANCELLED"
)

type JournalStatus string

const (
	JournalDraft     JournalStatus = "DRAFT"
	JournalFinal     JournalStatus = "FINAL"
	JournalCancelled JournalStatus = "CANCELLED"
)

type Transparency string

const (
	Opaque      Transparency = "OPAQUE"
	Transparent Transparency = "TRANSPARENT"
)

type Classification string

const (
	ClassPublic       Classification = "PUBLIC"
	ClassPrivate      Classification = "PRIVATE"
	ClassConfidential Classification = "CONFIDENTIAL"
)

type FreeBusyType string

const (
	Free            FreeBusyType = "FREE"
	Busy            FreeBusyType = "BUSY"
	BusyTentative   FreeBusyType = "BUSY-TENTATIVE"
	BusyUnavailable FreeBusyType = "BUSY-UNAVAILABLE"
)

type AlarmAction string

const (
	ActionAudio   AlarmAction = "AUDIO"
	ActionDisplay AlarmAction = "DISPLAY"
	ActionEmail   AlarmAction = "EMAIL"
)

// Calendar is a parsed VCALENDAR. Collections keep source order.
//
// Optional text fields are empty when absent; optional enums are the empty
// symbol; optional typed values are nil.
type Calendar struct {
	ProdID      string   `json:"prodid" yaml:"prodid"`
	Version     string   `json:"version" yaml:"version"`
	CalScale    CalScale `json:"calscale,omitempty" yaml:"calscale,omitempty"`
	Method      Method   `json:"method,omitempty" yaml:"method,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`

	Events    []Event    `json:"events,omitempty" yaml:"events,omitempty"`
	Todos     []Todo     `json:"todos,omitempty" yaml:"todos,omitempty"`
	Journals  []Journal  `json:"journals,omitempty" yaml:"journals,omitempty"`
	FreeBusy  []FreeBusy `json:"freebusy,omitempty" yaml:"freebusy,omitempty"`
	TimeZones []TimeZone `json:"timezones,omitempty" yaml:"timezones,omitempty"`
}

// Event is a VEVENT.
type Event struct {
	UID     string    `json:"uid" yaml:"uid"`
	DTStamp ZonedTime `json:"dtstamp" yaml:"dtstamp"`

	Start       *Temporal   `json:"dtstart,omitempty" yaml:"dtstart,omitempty"`
	End         *Temporal   `json:"dtend,omitempty" yaml:"dtend,omitempty"`
	Duration    *Duration   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Summary     string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string      `json:"location,omitempty" yaml:"location,omitempty"`
	Status      EventStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Categories  []string    `json:"categories,omitempty" yaml:"categories,omitempty"`

	RRule   string     `json:"rrule,omitempty" yaml:"rrule,omitempty"`
	RDates  []Temporal `json:"rdates,omitempty" yaml:"rdates,omitempty"`
	ExDates []Temporal `json:"exdates,omitempty" yaml:"exdates,omitempty"`
	Alarms  []Alarm    `json:"alarms,omitempty" yaml:"alarms,omitempty"`

	Organizer       string         `json:"organizer,omitempty" yaml:"organizer,omitempty"`
	Attendees       []string       `json:"attendees,omitempty" yaml:"attendees,omitempty"`
	RecurrenceID    *Temporal      `json:"recurrence_id,omitempty" yaml:"recurrence_id,omitempty"`
	Sequence        *int           `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Transparency    Transparency   `json:"transp,omitempty" yaml:"transp,omitempty"`
	Class           Classification `json:"class,omitempty" yaml:"class,omitempty"`
	URL             string         `json:"url,omitempty" yaml:"url,omitempty"`
	Resources       []string       `json:"resources,omitempty" yaml:"resources,omitempty"`
	Geo             *Geo           `json:"geo,omitempty" yaml:"geo,omitempty"`
	Contact         string         `json:"contact,omitempty" yaml:"contact,omitempty"`
	PercentComplete *int           `json:"percent_complete,omitempty" yaml:"percent_complete,omitempty"`
	Created         *ZonedTime     `json:"created,omitempty" yaml:"created,omitempty"`
	LastModified    *ZonedTime     `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// Todo is a VTODO.
type Todo struct {
	UID     string    `json:"uid" yaml:"uid"`
	DTStamp ZonedTime `json:"dtstamp" yaml:"dtstamp"`

	Due         *Temporal  `json:"due,omitempty" yaml:"due,omitempty"`
	Completed   *ZonedTime `json:"completed,omitempty" yaml:"completed,omitempty"`
	Start       *Temporal  `json:"dtstart,omitempty" yaml:"dtstart,omitempty"`
	Summary     string     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      TodoStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Priority    *int       `json:"priority,omitempty" yaml:"priority,omitempty"`

	RRule   string     `json:"rrule,omitempty" yaml:"rrule,omitempty"`
	RDates  []Temporal `json:"rdates,omitempty" yaml:"rdates,omitempty"`
	ExDates []Temporal `json:"exdates,omitempty" yaml:"exdates,omitempty"`
	Alarms  []Alarm    `json:"alarms,omitempty" yaml:"alarms,omitempty"`

	Organizer       string     `json:"organizer,omitempty" yaml:"organizer,omitempty"`
	Attendees       []string   `json:"attendees,omitempty" yaml:"attendees,omitempty"`
	Sequence        *int       `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	PercentComplete *int       `json:"percent_complete,omitempty" yaml:"percent_complete,omitempty"`
	RelatedTo       []string   `json:"related_to,omitempty" yaml:"related_to,omitempty"`
	Created         *ZonedTime `json:"created,omitempty" yaml:"created,omitempty"`
	LastModified    *ZonedTime `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	URL             string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// Journal is a VJOURNAL.
type Journal struct {
	UID     string    `json:"uid" yaml:"uid"`
	DTStamp ZonedTime `json:"dtstamp" yaml:"dtstamp"`

	Start        *Temporal     `json:"dtstart,omitempty" yaml:"dtstart,omitempty"`
	Summary      string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Status       JournalStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Sequence     *int          `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Created      *ZonedTime    `json:"created,omitempty" yaml:"created,omitempty"`
	LastModified *ZonedTime    `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// Period is one FREEBUSY interval.
type Period struct {
	Start Temporal     `json:"start" yaml:"start"`
	End   Temporal     `json:"end" yaml:"end"`
	Type  FreeBusyType `json:"type" yaml:"type"`
}

// FreeBusy is a VFREEBUSY.
type FreeBusy struct {
	UID     string    `json:"uid" yaml:"uid"`
	DTStamp ZonedTime `json:"dtstamp" yaml:"dtstamp"`

	Start     *Temporal `json:"dtstart,omitempty" yaml:"dtstart,omitempty"`
	End       *Temporal `json:"dtend,omitempty" yaml:"dtend,omitempty"`
	Periods   []Period  `json:"periods,omitempty" yaml:"periods,omitempty"`
	Organizer string    `json:"organizer,omitempty" yaml:"organizer,omitempty"`
	Attendees []string  `json:"attendees,omitempty" yaml:"attendees,omitempty"`
	Comment   string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
}

// TimeZoneRule is a STANDARD or DAYLIGHT observance. Start is the civil
// wall-clock onset; its location carries no meaning.
type TimeZoneRule struct {
	Start      time.Time `json:"dtstart" yaml:"dtstart"`
	OffsetFrom string    `json:"tzoffsetfrom" yaml:"tzoffsetfrom"`
	OffsetTo   string    `json:"tzoffsetto" yaml:"tzoffsetto"`
	Name       string    `json:"tzname,omitempty" yaml:"tzname,omitempty"`
	RRule      string    `json:"rrule,omitempty" yaml:"rrule,omitempty"`
}

// TimeZone is a VTIMEZONE.
type TimeZone struct {
	TZID         string         `json:"tzid" yaml:"tzid"`
	LastModified *ZonedTime     `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	TZURL        string         `json:"tzurl,omitempty" yaml:"tzurl,omitempty"`
	Location     string         `json:"x_lic_location,omitempty" yaml:"x_lic_location,omitempty"`
	Standard     []TimeZoneRule `json:"standard,omitempty" yaml:"standard,omitempty"`
	Daylight     []TimeZoneRule `json:"daylight,omitempty" yaml:"daylight,omitempty"`
}

// Alarm is a VALARM inside an event or to-do.
type Alarm struct {
	Action      AlarmAction `json:"action" yaml:"action"`
	Trigger     Trigger     `json:"trigger" yaml:"trigger"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Summary     string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Attendees   []string    `json:"attendees,omitempty" yaml:"attendees,omitempty"`
	Duration    *Duration   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Repeat      *int        `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	Attach      string      `json:"attach,omitempty" yaml:"attach,omitempty"`
}
