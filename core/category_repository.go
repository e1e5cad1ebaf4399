package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Category groups posts by topic.
type Category struct {
	ID     int64  `json:"id" yaml:"-"`
	Name   string `json:"name" yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
}

type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (*Category, error)
	Upsert(ctx context.Context, name string, active bool) (*Category, error)
}

type PgCategoryRepository struct {
	db *pgxpool.Pool
}

func NewPgCategoryRepository(db *pgxpool.Pool) *PgCategoryRepository {
	return &PgCategoryRepository{db: db}
}

func (r *PgCategoryRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, active FROM content_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PgCategoryRepository) Get(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if err := r.db.QueryRow(ctx, `SELECT id, name, active FROM content_categories WHERE id=$1`, id).Scan(&c.ID, &c.Name, &c.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Upsert inserts the category or updates its active flag when the name exists.
func (r *PgCategoryRepository) Upsert(ctx context.Context, name string, active bool) (*Category, error) {
	const q = `
INSERT INTO content_categories (name, active) VALUES ($1,$2)
ON CONFLICT (name) DO UPDATE SET active=EXCLUDED.active
RETURNING id, name, active`
	var c Category
	if err := r.db.QueryRow(ctx, q, name, active).Scan(&c.ID, &c.Name, &c.Active); err != nil {
		return nil, err
	}
	return &c, nil
}
