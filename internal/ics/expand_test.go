package ics

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, text string) *Calendar {
	t.Helper()
	cal, err := NewParser(WithFloatingLocation(time.UTC)).Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cal
}

func januaryConfig() ExpandConfig {
	return ExpandConfig{
		SourceID:        "team",
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpandRecurringWithExDate(t *testing.T) {
	cal := mustParse(t, readFixture(t, "team.ics"))

	res, err := Expand(cal, januaryConfig())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	// COUNT=6 on Mon/Wed/Fri from 2024-01-08, minus the EXDATE on the 10th.
	wantDays := []int{8, 12, 15, 17, 19}
	if len(res.Occurrences) != len(wantDays) {
		t.Fatalf("occurrences = %d, want %d: %+v", len(res.Occurrences), len(wantDays), res.Occurrences)
	}
	for i, occ := range res.Occurrences {
		if occ.Start.Day() != wantDays[i] {
			t.Errorf("occurrence %d starts %v", i, occ.Start)
		}
		// 09:30 Berlin is 08:30 UTC in winter.
		if occ.Start.Hour() != 8 || occ.Start.Minute() != 30 {
			t.Errorf("occurrence %d at %v", i, occ.Start)
		}
		if occ.End.Sub(occ.Start) != 15*time.Minute {
			t.Errorf("occurrence %d lasts %v", i, occ.End.Sub(occ.Start))
		}
		if occ.SourceID != "team" || !occ.Recurring || occ.UID != "standup@example.com" {
			t.Errorf("occurrence %d = %+v", i, occ)
		}
	}
}

func TestExpandOverride(t *testing.T) {
	cal := mustParse(t, minimal(append(
		event("UID:weekly", "DTSTAMP:20240101T000000Z", "DTSTART:20240102T100000Z", "DURATION:PT1H", "RRULE:FREQ=WEEKLY;COUNT=3", "SUMMARY:Weekly"),
		event("UID:weekly", "DTSTAMP:20240101T000000Z", "RECURRENCE-ID:20240109T100000Z", "DTSTART:20240109T150000Z", "DTEND:20240109T160000Z", "SUMMARY:Moved")...,
	)...))

	res, err := Expand(cal, januaryConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Occurrences) != 3 {
		t.Fatalf("occurrences = %+v", res.Occurrences)
	}
	moved := res.Occurrences[1]
	if moved.Summary != "Moved" || !moved.Override || moved.Start.Hour() != 15 {
		t.Fatalf("override not applied: %+v", moved)
	}
	if res.Occurrences[0].End.Sub(res.Occurrences[0].Start) != time.Hour {
		t.Fatalf("DURATION not applied: %+v", res.Occurrences[0])
	}
}

func TestExpandAllDayAndRDates(t *testing.T) {
	cal := mustParse(t, minimal(append(
		event("UID:holiday", "DTSTAMP:20240101T000000Z", "DTSTART;VALUE=DATE:20240101"),
		event("UID:rdates", "DTSTAMP:20240101T000000Z", "DTSTART:20240105T120000Z", "RDATE:20240110T120000Z,20240120T120000Z")...,
	)...))

	res, err := Expand(cal, januaryConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Occurrences) != 4 {
		t.Fatalf("occurrences = %+v", res.Occurrences)
	}
	holiday := res.Occurrences[0]
	if !holiday.AllDay || holiday.End.Sub(holiday.Start) != 24*time.Hour {
		t.Fatalf("all-day occurrence = %+v", holiday)
	}
	for i, day := range []int{5, 10, 20} {
		if got := res.Occurrences[i+1]; got.UID != "rdates" || got.Start.Day() != day {
			t.Errorf("rdate occurrence %d = %+v", i, got)
		}
	}
}

func TestExpandCapAndSkips(t *testing.T) {
	cal := mustParse(t, minimal(append(append(
		event("UID:daily", "DTSTAMP:20240101T000000Z", "DTSTART:20240101T080000Z", "RRULE:FREQ=DAILY"),
		event("UID:undated", "DTSTAMP:20240101T000000Z")...),
		event("UID:broken", "DTSTAMP:20240101T000000Z", "DTSTART:20240101T080000Z", "RRULE:FREQ=SOMETIMES")...,
	)...))

	cfg := januaryConfig()
	cfg.MaxOccurrencesPerEvent = 10
	res, err := Expand(cal, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Occurrences) != 10 {
		t.Fatalf("occurrences = %d, want 10", len(res.Occurrences))
	}
	if len(res.TruncatedEvents) != 1 || res.TruncatedEvents[0] != "daily" {
		t.Fatalf("truncated = %v", res.TruncatedEvents)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("skipped = %v", res.Skipped)
	}
}

func TestExpandOutOfRange(t *testing.T) {
	cal := mustParse(t, minimal(event("UID:old", "DTSTAMP:20240101T000000Z", "DTSTART:20230101T080000Z")...))
	res, err := Expand(cal, januaryConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Occurrences) != 0 {
		t.Fatalf("occurrences = %+v", res.Occurrences)
	}
}

func TestExpandInvalidRange(t *testing.T) {
	cfg := januaryConfig()
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart
	if _, err := Expand(&Calendar{}, cfg); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
