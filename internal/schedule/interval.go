package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight. Schedule windows are
// half-open [start, end): a window ending 09:00 does not collide with one
// starting 09:00.
type ClockTime int

// ParseClock accepts "HH:MM" and "HH:MM:SS" (Postgres time::text).
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Window is a same-day time window.
type Window struct {
	Start ClockTime
	End   ClockTime
}

func (w Window) Valid() bool {
	return w.End >= w.Start
}

// Overlaps reports whether two half-open windows on the same date collide.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// DaySlot is one concrete (date, time window) slot of a booking.
type DaySlot struct {
	Date time.Time
	Window
}

// SetupWindow is the optional pre-event access range. Unlike DaySlot it spans
// a date range; its time window applies on every day of the range.
type SetupWindow struct {
	DateStart time.Time
	DateEnd   time.Time
	Window
}

func (s SetupWindow) Valid() bool {
	return !s.DateEnd.Before(s.DateStart) && s.Window.Valid()
}

func (s SetupWindow) containsDate(d time.Time) bool {
	return !d.Before(s.DateStart) && !d.After(s.DateEnd)
}

// intersectsRange reports whether two inclusive date ranges share a day.
func (s SetupWindow) intersectsRange(o SetupWindow) bool {
	return !s.DateStart.After(o.DateEnd) && !o.DateStart.After(s.DateEnd)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ExpandRange produces one implicit DaySlot per day of [dateStart, dateEnd]
// using the booking's primary time window. Used when a booking carries no
// explicit per-day entries.
func ExpandRange(dateStart, dateEnd time.Time, w Window) []DaySlot {
	var out []DaySlot
	for d := dateStart; !d.After(dateEnd); d = d.AddDate(0, 0, 1) {
		out = append(out, DaySlot{Date: d, Window: w})
	}
	return out
}

// Candidate is the proposed reservation being checked: its event slots plus
// an optional setup window.
type Candidate struct {
	Entries []DaySlot
	Setup   *SetupWindow
}

// BookingWindows is the decoded schedule of one existing booking.
type BookingWindows struct {
	BookingID          string
	RequesterAccountID string
	RequesterRole      string
	Entries            []DaySlot
	Setup              *SetupWindow
}

type HitSource string

const (
	HitEvent HitSource = "event"
	HitSetup HitSource = "setup"
)

// Hit is one existing booking that collides with the candidate. Source names
// which window of the existing booking produced the collision.
type Hit struct {
	BookingID          string
	RequesterAccountID string
	RequesterRole      string
	Source             HitSource
}

// FindOverlaps returns one Hit per existing booking that collides with the
// candidate. Setup and event activity contend for the same physical space,
// so all four pairings are checked: event/event on equal dates, and any
// pairing involving a setup window on intersecting dates.
func FindOverlaps(cand Candidate, existing []BookingWindows) []Hit {
	var hits []Hit
	for _, b := range existing {
		if src, ok := collide(cand, b); ok {
			hits = append(hits, Hit{
				BookingID:          b.BookingID,
				RequesterAccountID: b.RequesterAccountID,
				RequesterRole:      b.RequesterRole,
				Source:             src,
			})
		}
	}
	return hits
}

func collide(cand Candidate, b BookingWindows) (HitSource, bool) {
	for _, ce := range cand.Entries {
		for _, be := range b.Entries {
			if SameDay(ce.Date, be.Date) && ce.Overlaps(be.Window) {
				return HitEvent, true
			}
		}
		if b.Setup != nil && b.Setup.containsDate(ce.Date) && ce.Overlaps(b.Setup.Window) {
			return HitSetup, true
		}
	}
	if cand.Setup != nil {
		for _, be := range b.Entries {
			if cand.Setup.containsDate(be.Date) && cand.Setup.Overlaps(be.Window) {
				return HitEvent, true
			}
		}
		if b.Setup != nil && cand.Setup.intersectsRange(*b.Setup) && cand.Setup.Overlaps(b.Setup.Window) {
			return HitSetup, true
		}
	}
	return "", false
}
