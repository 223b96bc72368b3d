package approval

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one immutable row of the approval trail: who acted, in which
// role, at which review step, and what they decided. Rows are only ever
// inserted by the transition engine; ordering by created_at ascending is the
// audit history.
type Record struct {
	ID                string    `json:"id"`
	BookingID         string    `json:"bookingId"`
	ApproverAccountID string    `json:"approverAccountId"`
	ApproverRole      string    `json:"approverRole"`
	Stage             string    `json:"stage"`
	Decision          string    `json:"decision"`
	Remarks           string    `json:"remarks,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert appends one approval record inside the caller's transaction so the
// audit row commits or rolls back with the status write it describes.
func Insert(ctx context.Context, tx pgx.Tx, rec Record) error {
	const q = `
INSERT INTO approval_records (id, booking_id, approver_account_id, approver_role, stage, decision, remarks)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := tx.Exec(ctx, q,
		rec.ID, rec.BookingID, rec.ApproverAccountID, rec.ApproverRole,
		rec.Stage, rec.Decision, rec.Remarks,
	)
	return err
}

// ListByBooking returns the booking's full approval history, oldest first.
func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Record, error) {
	const q = `
SELECT id, booking_id, approver_account_id, approver_role, stage, decision, COALESCE(remarks, ''), created_at
FROM approval_records
WHERE booking_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.BookingID, &rec.ApproverAccountID, &rec.ApproverRole,
			&rec.Stage, &rec.Decision, &rec.Remarks, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
