package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms-platform/content"
)

// AuthorSummary is the public projection of a post or comment author.
type AuthorSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// Post is a blog post with its derived counters. Content is omitted in listings.
type Post struct {
	ID             int64          `json:"id"`
	Author         AuthorSummary  `json:"author"`
	Title          string         `json:"title"`
	Content        string         `json:"content,omitempty"`
	Excerpt        string         `json:"excerpt"`
	Category       *Category      `json:"category"`
	Status         content.Status `json:"status"`
	Tags           []string       `json:"tags"`
	Thumbnail      string         `json:"thumbnail"`
	Show           bool           `json:"show"`
	WordCount      int            `json:"word_count"`
	ReadingMinutes int            `json:"reading_minutes"`
	LikesCount     int            `json:"likes_count"`
	CommentsCount  int            `json:"comments_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	PublishedDate  *time.Time     `json:"published_date"`
	IndexedAt      *time.Time     `json:"indexed_at,omitempty"`
}

// Draft converts the stored post back into validator input.
func (p *Post) Draft() content.Draft {
	d := content.Draft{
		Title:     p.Title,
		Excerpt:   p.Excerpt,
		Content:   p.Content,
		Tags:      p.Tags,
		Thumbnail: p.Thumbnail,
		Status:    p.Status,
	}
	if p.Category != nil {
		d.CategoryID = p.Category.ID
	}
	return d
}

// PostInput is the full set of author-editable fields.
type PostInput struct {
	Title      string
	Content    string
	Excerpt    string
	CategoryID *int64
	Status     content.Status
	Tags       []string
	Thumbnail  string
}

// Explore sort orders.
const (
	SortLatest        = "latest"
	SortPopular       = "popular"
	SortMostCommented = "most-commented"
)

// ExploreFilter narrows the public listing of published, visible posts.
type ExploreFilter struct {
	Search   string // title or excerpt, case-insensitive
	Category string // category name, case-insensitive exact
	SortBy   string
}

// AdminPostFilter narrows the moderation listing.
type AdminPostFilter struct {
	Status *content.Status
	Show   *bool
	Search string // title or author first name
}

// PostRepository defines persistence operations for posts and likes.
type PostRepository interface {
	Create(ctx context.Context, authorID int64, in PostInput) (*Post, error)
	Update(ctx context.Context, id int64, in PostInput) (*Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	Delete(ctx context.Context, id int64) error
	ListByAuthor(ctx context.Context, authorID int64, status *content.Status) ([]Post, error)
	Explore(ctx context.Context, f ExploreFilter, page, perPage int) ([]Post, int, error)
	AdminList(ctx context.Context, f AdminPostFilter, page, perPage int) ([]Post, int, error)
	SetVisible(ctx context.Context, id int64, show bool) (*Post, error)
	ToggleLike(ctx context.Context, postID, userID int64) (liked bool, count int, err error)
	SaveMetrics(ctx context.Context, id int64, words, minutes int) error
}

// PgPostRepository is a pgx implementation.
type PgPostRepository struct {
	db *pgxpool.Pool
}

func NewPgPostRepository(db *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{db: db}
}

const postSelect = `
SELECT p.id, u.id, u.username, u.email, u.first_name,
       p.title, %s, p.excerpt, c.id, c.name, c.active,
       p.status, p.tags, p.thumbnail, p.show, p.word_count, p.reading_minutes,
       (SELECT COUNT(*) FROM blog_likes l WHERE l.blog_id = p.id) AS likes_count,
       (SELECT COUNT(*) FROM comments m WHERE m.blog_id = p.id) AS comments_count,
       p.created_at, p.updated_at, p.published_date, p.indexed_at
FROM blog_posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN content_categories c ON c.id = p.category_id`

// selectPosts renders postSelect with or without the content column.
func selectPosts(withContent bool) string {
	col := `''`
	if withContent {
		col = `p.content`
	}
	return fmt.Sprintf(postSelect, col)
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	var catID *int64
	var catName *string
	var catActive *bool
	var status string
	if err := row.Scan(&p.ID, &p.Author.ID, &p.Author.Username, &p.Author.Email, &p.Author.FirstName,
		&p.Title, &p.Content, &p.Excerpt, &catID, &catName, &catActive,
		&status, &p.Tags, &p.Thumbnail, &p.Show, &p.WordCount, &p.ReadingMinutes,
		&p.LikesCount, &p.CommentsCount,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedDate, &p.IndexedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = content.Status(status)
	if catID != nil {
		p.Category = &Category{ID: *catID}
		if catName != nil {
			p.Category.Name = *catName
		}
		if catActive != nil {
			p.Category.Active = *catActive
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows, capacity int) ([]Post, error) {
	defer rows.Close()
	out := make([]Post, 0, capacity)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgPostRepository) Create(ctx context.Context, authorID int64, in PostInput) (*Post, error) {
	const q = `
INSERT INTO blog_posts (author_id, title, content, excerpt, category_id, status, tags, thumbnail, published_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8, CASE WHEN $6='published' THEN now() ELSE NULL END)
RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, authorID, in.Title, in.Content, in.Excerpt, in.CategoryID, string(in.Status), in.Tags, in.Thumbnail).Scan(&id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update replaces the editable fields. published_date is stamped on the first
// transition to published and kept afterwards.
func (r *PgPostRepository) Update(ctx context.Context, id int64, in PostInput) (*Post, error) {
	const q = `
UPDATE blog_posts SET
    title=$2, content=$3, excerpt=$4, category_id=$5, status=$6, tags=$7, thumbnail=$8,
    updated_at=now(),
    published_date = CASE WHEN $6='published' AND published_date IS NULL THEN now() ELSE published_date END
WHERE id=$1`
	tag, err := r.db.Exec(ctx, q, id, in.Title, in.Content, in.Excerpt, in.CategoryID, string(in.Status), in.Tags, in.Thumbnail)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *PgPostRepository) Get(ctx context.Context, id int64) (*Post, error) {
	return scanPost(r.db.QueryRow(ctx, selectPosts(true)+` WHERE p.id=$1`, id))
}

func (r *PgPostRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blog_posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgPostRepository) ListByAuthor(ctx context.Context, authorID int64, status *content.Status) ([]Post, error) {
	filters := []string{"p.author_id=$1"}
	args := []interface{}{authorID}
	if status != nil {
		args = append(args, string(*status))
		filters = append(filters, fmt.Sprintf("p.status=$%d", len(args)))
	}
	rows, err := r.db.Query(ctx, selectPosts(false)+` WHERE `+strings.Join(filters, " AND ")+` ORDER BY p.updated_at DESC, p.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows, 16)
}

func exploreOrder(sortBy string) string {
	switch sortBy {
	case SortPopular:
		return "likes_count DESC, p.created_at DESC"
	case SortMostCommented:
		return "comments_count DESC, p.created_at DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

// Explore lists published posts that moderators have not hidden.
func (r *PgPostRepository) Explore(ctx context.Context, f ExploreFilter, page, perPage int) ([]Post, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	filters := []string{"p.status='published'", "p.show"}
	var args []interface{}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		filters = append(filters, fmt.Sprintf("(p.title ILIKE $%d OR p.excerpt ILIKE $%d)", len(args), len(args)))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		args = append(args, c)
		filters = append(filters, fmt.Sprintf("LOWER(c.name)=LOWER($%d)", len(args)))
	}
	return r.page(ctx, strings.Join(filters, " AND "), exploreOrder(f.SortBy), args, page, perPage)
}

// AdminList lists every post regardless of status or visibility.
func (r *PgPostRepository) AdminList(ctx context.Context, f AdminPostFilter, page, perPage int) ([]Post, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	filters := []string{"TRUE"}
	var args []interface{}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		filters = append(filters, fmt.Sprintf("p.status=$%d", len(args)))
	}
	if f.Show != nil {
		args = append(args, *f.Show)
		filters = append(filters, fmt.Sprintf("p.show=$%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		filters = append(filters, fmt.Sprintf("(p.title ILIKE $%d OR u.first_name ILIKE $%d)", len(args), len(args)))
	}
	return r.page(ctx, strings.Join(filters, " AND "), "p.created_at DESC, p.id DESC", args, page, perPage)
}

func (r *PgPostRepository) page(ctx context.Context, where, order string, args []interface{}, page, perPage int) ([]Post, int, error) {
	countQuery := `
SELECT COUNT(*) FROM blog_posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN content_categories c ON c.id = p.category_id
WHERE ` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`, selectPosts(false), where, order, len(args)+1, len(args)+2)
	argsWithPage := append(append([]interface{}{}, args...), perPage, (page-1)*perPage)
	rows, err := r.db.Query(ctx, query, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectPosts(rows, perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PgPostRepository) SetVisible(ctx context.Context, id int64, show bool) (*Post, error) {
	tag, err := r.db.Exec(ctx, `UPDATE blog_posts SET show=$2 WHERE id=$1`, id, show)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// ToggleLike adds the user's like, or removes it when already present.
func (r *PgPostRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blog_posts WHERE id=$1)`, postID).Scan(&exists); err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, ErrNotFound
	}

	tag, err := tx.Exec(ctx, `DELETE FROM blog_likes WHERE blog_id=$1 AND user_id=$2`, postID, userID)
	if err != nil {
		return false, 0, err
	}
	liked := tag.RowsAffected() == 0
	if liked {
		if _, err := tx.Exec(ctx, `INSERT INTO blog_likes (blog_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, postID, userID); err != nil {
			return false, 0, err
		}
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM blog_likes WHERE blog_id=$1`, postID).Scan(&count); err != nil {
		return false, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// SaveMetrics stores the indexer output and stamps indexed_at.
func (r *PgPostRepository) SaveMetrics(ctx context.Context, id int64, words, minutes int) error {
	tag, err := r.db.Exec(ctx, `UPDATE blog_posts SET word_count=$2, reading_minutes=$3, indexed_at=now() WHERE id=$1`, id, words, minutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
