package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"facilitybooking/internal/approval"
	"facilitybooking/internal/schedule"
	"facilitybooking/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateBooking persists the booking and its schedule entries in one
// transaction. There is deliberately no overlap guard here: two concurrent
// creations for the same slot can both land, and the escalation policy
// raises the alert afterwards.
func (r *Repository) CreateBooking(ctx context.Context, b *Booking) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO bookings (
  id, requester_account_id, organization, purpose, facility_id,
  event_date_start, event_date_end, event_time_start, event_time_end,
  setup_date_start, setup_date_end, setup_time_start, setup_time_end,
  status, facility_fee, equipment_fee, requested_at
) VALUES (
  $1, $2, $3, $4, $5,
  $6, $7, $8::time, $9::time,
  $10, $11, $12::time, $13::time,
  $14, $15, $16, $17
)
`
		var (
			setupDateStart, setupDateEnd *time.Time
			setupTimeStart, setupTimeEnd *string
		)
		if b.Setup != nil {
			ds, de := b.Setup.DateStart, b.Setup.DateEnd
			ts, te := b.Setup.Start.String(), b.Setup.End.String()
			setupDateStart, setupDateEnd = &ds, &de
			setupTimeStart, setupTimeEnd = &ts, &te
		}
		if _, err := tx.Exec(ctx, q,
			b.ID, b.RequesterAccountID, b.Organization, b.Purpose, b.FacilityID,
			b.EventDateStart, b.EventDateEnd, b.EventWindow.Start.String(), b.EventWindow.End.String(),
			setupDateStart, setupDateEnd, setupTimeStart, setupTimeEnd,
			string(b.Status), b.FacilityFee, b.EquipmentFee, b.RequestedAt,
		); err != nil {
			return err
		}

		const qe = `
INSERT INTO schedule_entries (id, booking_id, entry_date, time_start, time_end)
VALUES ($1, $2, $3, $4::time, $5::time)
`
		for _, e := range b.Entries {
			if _, err := tx.Exec(ctx, qe, e.ID, b.ID, e.Date, e.Window.Start.String(), e.Window.End.String()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	const q = `
SELECT id, requester_account_id, organization, purpose, facility_id,
       event_date_start, event_date_end,
       event_time_start::text, event_time_end::text,
       setup_date_start, setup_date_end,
       setup_time_start::text, setup_time_end::text,
       status, facility_fee, equipment_fee, requested_at, created_at
FROM bookings
WHERE id = $1
`
	b := &Booking{}
	var (
		timeStart, timeEnd           string
		setupDateStart, setupDateEnd *time.Time
		setupTimeStart, setupTimeEnd *string
		status                       string
	)
	err := r.db.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.RequesterAccountID, &b.Organization, &b.Purpose, &b.FacilityID,
		&b.EventDateStart, &b.EventDateEnd, &timeStart, &timeEnd,
		&setupDateStart, &setupDateEnd, &setupTimeStart, &setupTimeEnd,
		&status, &b.FacilityFee, &b.EquipmentFee, &b.RequestedAt, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if b.Status, err = ParseStage(status); err != nil {
		return nil, err
	}
	if b.EventWindow, err = parseWindow(timeStart, timeEnd); err != nil {
		return nil, err
	}
	if setupDateStart != nil && setupDateEnd != nil && setupTimeStart != nil && setupTimeEnd != nil {
		w, err := parseWindow(*setupTimeStart, *setupTimeEnd)
		if err != nil {
			return nil, err
		}
		b.Setup = &schedule.SetupWindow{DateStart: *setupDateStart, DateEnd: *setupDateEnd, Window: w}
	}

	if b.Entries, err = r.listEntries(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repository) listEntries(ctx context.Context, bookingID string) ([]ScheduleEntry, error) {
	const q = `
SELECT id, booking_id, entry_date, time_start::text, time_end::text
FROM schedule_entries
WHERE booking_id = $1
ORDER BY entry_date, time_start
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleEntry
	for rows.Next() {
		var (
			e                  ScheduleEntry
			timeStart, timeEnd string
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Date, &timeStart, &timeEnd); err != nil {
			return nil, err
		}
		if e.Window, err = parseWindow(timeStart, timeEnd); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListByFacility returns bookings for a facility, newest first.
func (r *Repository) ListByFacility(ctx context.Context, facilityID string) ([]Booking, error) {
	const q = `
SELECT id, requester_account_id, organization, purpose, facility_id,
       event_date_start, event_date_end,
       event_time_start::text, event_time_end::text,
       status, facility_fee, equipment_fee, requested_at, created_at
FROM bookings
WHERE facility_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var (
			b                  Booking
			timeStart, timeEnd string
			status             string
		)
		if err := rows.Scan(
			&b.ID, &b.RequesterAccountID, &b.Organization, &b.Purpose, &b.FacilityID,
			&b.EventDateStart, &b.EventDateEnd, &timeStart, &timeEnd,
			&status, &b.FacilityFee, &b.EquipmentFee, &b.RequestedAt, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if b.Status, err = ParseStage(status); err != nil {
			return nil, err
		}
		if b.EventWindow, err = parseWindow(timeStart, timeEnd); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TransitionCommit is everything the engine decided for one stage change:
// the compare-and-swap pair, accompanying field updates, and the audit row.
type TransitionCommit struct {
	BookingID string
	FromStage Stage
	ToStage   Stage
	Updates   *Updates
	Approval  approval.Record
}

// CommitTransition applies a stage transition atomically. The status write
// is conditional on the stage still holding the value read at the start of
// the operation; losing that race returns ErrConcurrentModification and the
// whole transaction rolls back, audit row included.
func (r *Repository) CommitTransition(ctx context.Context, c TransitionCommit) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
UPDATE bookings
SET status = $1, updated_at = NOW()
WHERE id = $2 AND status = $3
`
		tag, err := tx.Exec(ctx, q, string(c.ToStage), c.BookingID, string(c.FromStage))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			const qExists = `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`
			var exists bool
			if err := tx.QueryRow(ctx, qExists, c.BookingID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrConcurrentModification
		}

		if c.Updates != nil {
			if err := applyUpdates(ctx, tx, c.BookingID, c.Updates); err != nil {
				return err
			}
		}

		return approval.Insert(ctx, tx, c.Approval)
	})
}

func applyUpdates(ctx context.Context, tx pgx.Tx, bookingID string, u *Updates) error {
	const q = `
UPDATE bookings
SET facility_id      = COALESCE($1, facility_id),
    event_date_start = COALESCE($2, event_date_start),
    event_date_end   = COALESCE($3, event_date_end),
    event_time_start = COALESCE($4::time, event_time_start),
    event_time_end   = COALESCE($5::time, event_time_end)
WHERE id = $6
`
	var timeStart, timeEnd *string
	if u.EventTimeStart != nil {
		s := u.EventTimeStart.String()
		timeStart = &s
	}
	if u.EventTimeEnd != nil {
		s := u.EventTimeEnd.String()
		timeEnd = &s
	}
	_, err := tx.Exec(ctx, q,
		u.FacilityID, u.EventDateStart, u.EventDateEnd, timeStart, timeEnd, bookingID,
	)
	return err
}

func parseWindow(start, end string) (schedule.Window, error) {
	s, err := schedule.ParseClock(start)
	if err != nil {
		return schedule.Window{}, err
	}
	e, err := schedule.ParseClock(end)
	if err != nil {
		return schedule.Window{}, err
	}
	return schedule.Window{Start: s, End: e}, nil
}
