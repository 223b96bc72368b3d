package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"facilitybooking/internal/schedule"
)

// Booking is a reservation request for a facility. It is read as an
// immutable snapshot at the start of each operation; mutations go through
// the repository and return a fresh value.
type Booking struct {
	ID                 string
	RequesterAccountID string
	Organization       string
	Purpose            string
	FacilityID         string

	EventDateStart time.Time
	EventDateEnd   time.Time
	EventWindow    schedule.Window

	// Entries is the explicit per-day slot list for bookings spanning
	// non-contiguous days with different hours. Empty means the whole date
	// range runs on the primary window.
	Entries []ScheduleEntry

	Setup *schedule.SetupWindow

	Status Stage

	// Fee fields are opaque passthroughs; billing computation happens in the
	// finance office, not here.
	FacilityFee  decimal.Decimal
	EquipmentFee decimal.Decimal

	RequestedAt time.Time
	CreatedAt   time.Time
}

// ScheduleEntry is one concrete (date, time window) slot owned by its
// booking. Created atomically with the booking, never shared.
type ScheduleEntry struct {
	ID        string
	BookingID string
	Date      time.Time
	Window    schedule.Window
}

// Candidate decodes the booking's schedule into the conflict engine's value
// objects, expanding the date range when no explicit entries exist.
func (b *Booking) Candidate() schedule.Candidate {
	c := schedule.Candidate{Setup: b.Setup}
	if len(b.Entries) > 0 {
		for _, e := range b.Entries {
			c.Entries = append(c.Entries, schedule.DaySlot{Date: e.Date, Window: e.Window})
		}
		return c
	}
	c.Entries = schedule.ExpandRange(b.EventDateStart, b.EventDateEnd, b.EventWindow)
	return c
}

// DateDescription renders the booking's dates and primary hours for
// notification text.
func (b *Booking) DateDescription() string {
	const layout = "2006-01-02"
	dates := b.EventDateStart.Format(layout)
	if !schedule.SameDay(b.EventDateStart, b.EventDateEnd) {
		dates += " to " + b.EventDateEnd.Format(layout)
	}
	return fmt.Sprintf("%s %s-%s", dates, b.EventWindow.Start, b.EventWindow.End)
}
