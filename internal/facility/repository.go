package facility

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Facility catalog CRUD lives in a separate admin surface; this core only
// needs names for notification text and existence checks on creation.
type Facility struct {
	ID   string
	Name string
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Name returns the facility's display name for notification text.
func (r *Repository) Name(ctx context.Context, id string) (string, error) {
	f, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return f.Name, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Facility, error) {
	const q = `
SELECT id, name
FROM facilities
WHERE id = $1
`
	f := &Facility{}
	if err := r.db.QueryRow(ctx, q, id).Scan(&f.ID, &f.Name); err != nil {
		return nil, err
	}
	return f, nil
}
