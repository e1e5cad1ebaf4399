package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRecord represents a user row as stored in the persistence layer.
type UserRecord struct {
	ID           int64
	Email        string
	Username     string
	FirstName    string
	DateOfBirth  *time.Time
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

func (u *UserRecord) principal() User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// NewUser is the insert payload for UserRepository.Create.
type NewUser struct {
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

// AdminUserListItem is a projection for admin user listing (no password hash).
type AdminUserListItem struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Posts     int       `json:"posts"`
}

// UserFilter narrows the admin user listing. Zero values disable a filter.
type UserFilter struct {
	Active *bool
	Search string // matches first name or email
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByID(ctx context.Context, id int64) (*UserRecord, error)
	Create(ctx context.Context, u NewUser) (int64, error)
	HasAdmin(ctx context.Context) (bool, error)
	List(ctx context.Context, f UserFilter, page, perPage int) ([]AdminUserListItem, int, error)
	SetActive(ctx context.Context, id int64, active bool) (*AdminUserListItem, error)
	Interests(ctx context.Context, userID int64) ([]Category, error)
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, email, username, first_name, date_of_birth, password_hash, role, is_active, created_at`

func scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.DateOfBirth, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*UserRecord, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PgUserRepository) Create(ctx context.Context, u NewUser) (int64, error) {
	const q = `INSERT INTO users (email, username, password_hash, role) VALUES ($1,$2,$3,$4) RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, u.Email, u.Username, u.PasswordHash, u.Role).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

func (r *PgUserRepository) HasAdmin(ctx context.Context) (bool, error) {
	const q = `SELECT 1 FROM users WHERE role='admin' LIMIT 1`
	var one int
	if err := r.db.QueryRow(ctx, q).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns paginated users without password hash, newest first.
func (r *PgUserRepository) List(ctx context.Context, f UserFilter, page, perPage int) ([]AdminUserListItem, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}

	filters := []string{"TRUE"}
	var args []interface{}
	if f.Active != nil {
		args = append(args, *f.Active)
		filters = append(filters, fmt.Sprintf("u.is_active=$%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		filters = append(filters, fmt.Sprintf("(u.first_name ILIKE $%d OR u.email ILIKE $%d)", len(args), len(args)))
	}
	where := strings.Join(filters, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT u.id, u.first_name, u.username, u.email, u.role, u.is_active, u.created_at,
       (SELECT COUNT(*) FROM blog_posts p WHERE p.author_id = u.id)
FROM users u
WHERE %s
ORDER BY u.created_at DESC, u.id DESC
LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]AdminUserListItem, 0, perPage)
	for rows.Next() {
		var u AdminUserListItem
		if err := rows.Scan(&u.ID, &u.FirstName, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.Posts); err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

func (r *PgUserRepository) SetActive(ctx context.Context, id int64, active bool) (*AdminUserListItem, error) {
	const q = `
UPDATE users u SET is_active=$2 WHERE u.id=$1
RETURNING u.id, u.first_name, u.username, u.email, u.role, u.is_active, u.created_at,
          (SELECT COUNT(*) FROM blog_posts p WHERE p.author_id = u.id)`
	var u AdminUserListItem
	if err := r.db.QueryRow(ctx, q, id, active).Scan(&u.ID, &u.FirstName, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.Posts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) Interests(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := r.db.Query(ctx, `
SELECT c.id, c.name, c.active
FROM user_interests ui
JOIN content_categories c ON c.id = ui.category_id
WHERE ui.user_id=$1
ORDER BY c.name`, userID)
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
