package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusUnread = "UNREAD"
	StatusRead   = "READ"
)

type Notification struct {
	ID              string    `json:"id"`
	TargetAccountID string    `json:"targetAccountId"`
	Message         string    `json:"message"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Repository stores notification rows for in-app display. It doubles as the
// default Sink; a push or email channel would be another Sink implementation.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Emit(ctx context.Context, n Notification) error {
	const q = `
INSERT INTO notifications (id, account_id, message, category, status)
VALUES ($1, $2, $3, $4, $5)
`
	id := n.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := n.Status
	if status == "" {
		status = StatusUnread
	}
	_, err := r.db.Exec(ctx, q, id, n.TargetAccountID, n.Message, n.Category, status)
	return err
}

func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]Notification, error) {
	const q = `
SELECT id, account_id, message, category, status, created_at
FROM notifications
WHERE account_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.TargetAccountID, &n.Message, &n.Category, &n.Status, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips a notification to READ, scoped to its owner.
func (r *Repository) MarkRead(ctx context.Context, accountID, id string) error {
	const q = `
UPDATE notifications
SET status = $1
WHERE id = $2 AND account_id = $3
`
	_, err := r.db.Exec(ctx, q, StatusRead, id, accountID)
	return err
}
