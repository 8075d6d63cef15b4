package model

import (
	"cmp"
	"time"
)

// Occurrence represents a single concrete instance of a calendar event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"` // configured source ID
	UID      string `json:"uid" yaml:"uid"`                                   // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the start time in the display timezone.
	InstanceKey string `json:"instance_key" yaml:"instance_key"`

	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`

	AllDay    bool `json:"all_day" yaml:"all_day"`
	Recurring bool `json:"recurring,omitempty" yaml:"recurring,omitempty"`
	Override  bool `json:"override,omitempty" yaml:"override,omitempty"` // replaced by a RECURRENCE-ID event

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// ByStart orders occurrences by start time, then UID.
func ByStart(a, b Occurrence) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.UID, b.UID)
}
