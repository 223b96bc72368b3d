package account

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Account struct {
	ID        string
	Name      string
	RoleName  string
	CreatedAt time.Time
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Account, error) {
	const q = `
SELECT id, name, role, created_at
FROM accounts
WHERE id = $1
`
	a := &Account{}
	if err := r.db.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &a.RoleName, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// ListIDsByRole returns the account ids holding the given approval-chain
// role, used for role-targeted notification broadcasts.
func (r *Repository) ListIDsByRole(ctx context.Context, role Role) ([]string, error) {
	const q = `
SELECT id
FROM accounts
WHERE role = $1
ORDER BY id
`
	rows, err := r.db.Query(ctx, q, role.DisplayName())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
