package client

import "time"

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// LoginResult is returned by the user and admin login endpoints.
type LoginResult struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	User    User   `json:"user"`
}

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Profile is the current-user document.
type Profile struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Role        string     `json:"role"`
	Interests   []Category `json:"interests"`
}

type Author struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

type Post struct {
	ID             int64      `json:"id"`
	Author         Author     `json:"author"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Excerpt        string     `json:"excerpt"`
	Category       *Category  `json:"category"`
	Status         string     `json:"status"`
	Tags           []string   `json:"tags"`
	Thumbnail      string     `json:"thumbnail"`
	Show           bool       `json:"show"`
	WordCount      int        `json:"word_count"`
	ReadingMinutes int        `json:"reading_minutes"`
	LikesCount     int        `json:"likes_count"`
	CommentsCount  int        `json:"comments_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	PublishedDate  *time.Time `json:"published_date"`
}

// PostInput is the full editable state of a post. A nil Category keeps the
// stored one and zero clears it.
type PostInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt"`
	Category  *int64   `json:"category"`
	Status    string   `json:"status,omitempty"`
	Tags      []string `json:"tags"`
	Thumbnail string   `json:"thumbnail"`
}

type Comment struct {
	ID        int64     `json:"id"`
	BlogID    int64     `json:"blog_id"`
	User      Author    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Count      int `json:"count"`
	TotalPages int `json:"total_pages"`
	Page       int `json:"page"`
	Results    []T `json:"results"`
}

type LikeResult struct {
	Action     string `json:"action"`
	LikesCount int    `json:"likes_count"`
}

// Liked reports whether the toggle left the post liked.
func (r LikeResult) Liked() bool { return r.Action == "liked" }

type AdminUser struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Posts     int       `json:"posts"`
}

type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}
