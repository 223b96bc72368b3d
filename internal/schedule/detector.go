package schedule

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Detector is the storage adapter around FindOverlaps. It loads the decoded
// schedules of every still-active booking for a facility and runs the pure
// interval logic, so the overlap rule stays unit-testable without a database.
//
// This is a plain read: no lock is taken and two concurrent creations can
// both pass the check. Conflict detection here is advisory, enforcement is a
// human decision driven by the escalation alerts.
type Detector struct {
	db *pgxpool.Pool
}

func NewDetector(db *pgxpool.Pool) *Detector {
	return &Detector{db: db}
}

// FindOverlaps returns every active booking for the facility whose schedule
// collides with the candidate. excludeBookingID keeps a freshly persisted
// booking from matching itself.
func (d *Detector) FindOverlaps(ctx context.Context, facilityID, excludeBookingID string, cand Candidate) ([]Hit, error) {
	existing, err := d.loadActive(ctx, facilityID, excludeBookingID)
	if err != nil {
		return nil, err
	}
	return FindOverlaps(cand, existing), nil
}

// loaded pairs a booking's decoded windows with its primary date range, kept
// until we know whether explicit entries exist for it.
type loaded struct {
	bw        BookingWindows
	dateStart time.Time
	dateEnd   time.Time
	window    Window
}

func (d *Detector) loadActive(ctx context.Context, facilityID, excludeBookingID string) ([]BookingWindows, error) {
	const q = `
SELECT b.id, b.requester_account_id, COALESCE(a.role, ''),
       b.event_date_start, b.event_date_end,
       b.event_time_start::text, b.event_time_end::text,
       b.setup_date_start, b.setup_date_end,
       b.setup_time_start::text, b.setup_time_end::text
FROM bookings b
LEFT JOIN accounts a ON a.id = b.requester_account_id
WHERE b.facility_id = $1
  AND b.id <> $2
  AND b.status NOT IN ('Rejected', 'Cancelled')
`
	rows, err := d.db.Query(ctx, q, facilityID, excludeBookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []loaded
	for rows.Next() {
		var (
			it                 loaded
			timeStart, timeEnd string
			setupDateStart     *time.Time
			setupDateEnd       *time.Time
			setupTimeStart     *string
			setupTimeEnd       *string
		)
		if err := rows.Scan(
			&it.bw.BookingID, &it.bw.RequesterAccountID, &it.bw.RequesterRole,
			&it.dateStart, &it.dateEnd, &timeStart, &timeEnd,
			&setupDateStart, &setupDateEnd, &setupTimeStart, &setupTimeEnd,
		); err != nil {
			return nil, err
		}

		start, err := ParseClock(timeStart)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(timeEnd)
		if err != nil {
			return nil, err
		}
		it.window = Window{Start: start, End: end}

		if setupDateStart != nil && setupDateEnd != nil && setupTimeStart != nil && setupTimeEnd != nil {
			ss, err := ParseClock(*setupTimeStart)
			if err != nil {
				return nil, err
			}
			se, err := ParseClock(*setupTimeEnd)
			if err != nil {
				return nil, err
			}
			it.bw.Setup = &SetupWindow{
				DateStart: *setupDateStart,
				DateEnd:   *setupDateEnd,
				Window:    Window{Start: ss, End: se},
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	if err := d.attachEntries(ctx, facilityID, excludeBookingID, items); err != nil {
		return nil, err
	}

	// Bookings without explicit per-day entries are treated as one implicit
	// entry per day of their date range using the primary time window.
	out := make([]BookingWindows, 0, len(items))
	for _, it := range items {
		if len(it.bw.Entries) == 0 {
			it.bw.Entries = ExpandRange(it.dateStart, it.dateEnd, it.window)
		}
		out = append(out, it.bw)
	}
	return out, nil
}

func (d *Detector) attachEntries(ctx context.Context, facilityID, excludeBookingID string, items []loaded) error {
	const q = `
SELECT e.booking_id, e.entry_date, e.time_start::text, e.time_end::text
FROM schedule_entries e
JOIN bookings b ON b.id = e.booking_id
WHERE b.facility_id = $1
  AND b.id <> $2
  AND b.status NOT IN ('Rejected', 'Cancelled')
ORDER BY e.entry_date
`
	rows, err := d.db.Query(ctx, q, facilityID, excludeBookingID)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[string]*loaded, len(items))
	for i := range items {
		byID[items[i].bw.BookingID] = &items[i]
	}

	for rows.Next() {
		var (
			bookingID          string
			date               time.Time
			timeStart, timeEnd string
		)
		if err := rows.Scan(&bookingID, &date, &timeStart, &timeEnd); err != nil {
			return err
		}
		it, ok := byID[bookingID]
		if !ok {
			continue
		}
		start, err := ParseClock(timeStart)
		if err != nil {
			return err
		}
		end, err := ParseClock(timeEnd)
		if err != nil {
			return err
		}
		it.bw.Entries = append(it.bw.Entries, DaySlot{Date: date, Window: Window{Start: start, End: end}})
	}
	return rows.Err()
}
