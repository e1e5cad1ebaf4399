package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxCommentLength bounds comment bodies in characters.
const MaxCommentLength = 2000

type Comment struct {
	ID        int64         `json:"id"`
	BlogID    int64         `json:"blog_id"`
	User      AuthorSummary `json:"user"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type CommentRepository interface {
	ListByPost(ctx context.Context, postID int64) ([]Comment, error)
	Get(ctx context.Context, id int64) (*Comment, error)
	Create(ctx context.Context, postID, userID int64, body string) (*Comment, error)
	Update(ctx context.Context, id int64, body string) (*Comment, error)
	Delete(ctx context.Context, id int64) error
}

type PgCommentRepository struct {
	db *pgxpool.Pool
}

func NewPgCommentRepository(db *pgxpool.Pool) *PgCommentRepository {
	return &PgCommentRepository{db: db}
}

const commentSelect = `
SELECT m.id, m.blog_id, u.id, u.username, u.email, u.first_name, m.content, m.created_at, m.updated_at
FROM comments m
JOIN users u ON u.id = m.user_id`

func scanComment(row pgx.Row) (*Comment, error) {
	var m Comment
	if err := row.Scan(&m.ID, &m.BlogID, &m.User.ID, &m.User.Username, &m.User.Email, &m.User.FirstName,
		&m.Content, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByPost returns the comments of a post, oldest first.
func (r *PgCommentRepository) ListByPost(ctx context.Context, postID int64) ([]Comment, error) {
	rows, err := r.db.Query(ctx, commentSelect+` WHERE m.blog_id=$1 ORDER BY m.created_at, m.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Comment{}
	for rows.Next() {
		m, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (r *PgCommentRepository) Get(ctx context.Context, id int64) (*Comment, error) {
	return scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE m.id=$1`, id))
}

func (r *PgCommentRepository) Create(ctx context.Context, postID, userID int64, body string) (*Comment, error) {
	const q = `INSERT INTO comments (blog_id, user_id, content) VALUES ($1,$2,$3) RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, postID, userID, strings.TrimSpace(body)).Scan(&id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *PgCommentRepository) Update(ctx context.Context, id int64, body string) (*Comment, error) {
	tag, err := r.db.Exec(ctx, `UPDATE comments SET content=$1, updated_at=now() WHERE id=$2`, strings.TrimSpace(body), id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *PgCommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
