package core

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cms-platform/content"
)

// memDB backs the in-memory repository fakes used by handler tests.
type memDB struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*UserRecord
	cats     map[int64]*Category
	posts    map[int64]*Post
	likes    map[[2]int64]struct{}
	comments map[int64]*Comment
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*UserRecord{},
		cats:     map[int64]*Category{},
		posts:    map[int64]*Post{},
		likes:    map[[2]int64]struct{}{},
		comments: map[int64]*Comment{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

type memUsers struct{ db *memDB }

func (r memUsers) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) FindByID(_ context.Context, id int64) (*UserRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) Create(_ context.Context, nu NewUser) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == nu.Email {
			return 0, ErrDuplicateEmail
		}
	}
	id := r.db.id()
	r.db.users[id] = &UserRecord{
		ID:           id,
		Email:        nu.Email,
		Username:     nu.Username,
		FirstName:    nu.Username,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	return id, nil
}

func (r memUsers) HasAdmin(context.Context) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Role == RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) item(u *UserRecord) AdminUserListItem {
	posts := 0
	for _, p := range r.db.posts {
		if p.Author.ID == u.ID {
			posts++
		}
	}
	return AdminUserListItem{ID: u.ID, FirstName: u.FirstName, Username: u.Username, Email: u.Email,
		Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt, Posts: posts}
}

func (r memUsers) List(_ context.Context, f UserFilter, page, perPage int) ([]AdminUserListItem, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []AdminUserListItem
	for _, u := range r.db.users {
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if s := strings.ToLower(f.Search); s != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), s) && !strings.Contains(strings.ToLower(u.Email), s) {
			continue
		}
		all = append(all, r.item(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, perPage), len(all), nil
}

func (r memUsers) SetActive(_ context.Context, id int64, active bool) (*AdminUserListItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsActive = active
	item := r.item(u)
	return &item, nil
}

func (r memUsers) Interests(context.Context, int64) ([]Category, error) {
	return []Category{}, nil
}

type memCategories struct{ db *memDB }

func (r memCategories) List(context.Context) ([]Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []Category{}
	for _, c := range r.db.cats {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) Get(_ context.Context, id int64) (*Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cats[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCategories) Upsert(_ context.Context, name string, active bool) (*Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.cats {
		if c.Name == name {
			c.Active = active
			cp := *c
			return &cp, nil
		}
	}
	c := &Category{ID: r.db.id(), Name: name, Active: active}
	r.db.cats[c.ID] = c
	cp := *c
	return &cp, nil
}

type memPosts struct{ db *memDB }

// view returns a detached copy with derived counters filled in. Callers hold the lock.
func (r memPosts) view(p *Post) Post {
	cp := *p
	cp.Tags = append([]string{}, p.Tags...)
	cp.LikesCount, cp.CommentsCount = 0, 0
	for k := range r.db.likes {
		if k[0] == p.ID {
			cp.LikesCount++
		}
	}
	for _, m := range r.db.comments {
		if m.BlogID == p.ID {
			cp.CommentsCount++
		}
	}
	return cp
}

func (r memPosts) apply(p *Post, in PostInput) {
	p.Title, p.Content, p.Excerpt = in.Title, in.Content, in.Excerpt
	p.Status, p.Tags, p.Thumbnail = in.Status, in.Tags, in.Thumbnail
	p.Category = nil
	if in.CategoryID != nil {
		if c, ok := r.db.cats[*in.CategoryID]; ok {
			cp := *c
			p.Category = &cp
		}
	}
	now := time.Now()
	p.UpdatedAt = now
	if p.Status == content.StatusPublished && p.PublishedDate == nil {
		p.PublishedDate = &now
	}
}

func (r memPosts) Create(_ context.Context, authorID int64, in PostInput) (*Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u := r.db.users[authorID]
	p := &Post{ID: r.db.id(), Show: true, CreatedAt: time.Now()}
	if u != nil {
		p.Author = AuthorSummary{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName}
	}
	r.apply(p, in)
	r.db.posts[p.ID] = p
	v := r.view(p)
	return &v, nil
}

func (r memPosts) Update(_ context.Context, id int64, in PostInput) (*Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.apply(p, in)
	v := r.view(p)
	return &v, nil
}

func (r memPosts) Get(_ context.Context, id int64) (*Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := r.view(p)
	return &v, nil
}

func (r memPosts) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.posts, id)
	return nil
}

func (r memPosts) filter(keep func(p *Post) bool) []Post {
	out := []Post{}
	for _, p := range r.db.posts {
		if keep(p) {
			out = append(out, r.view(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memPosts) ListByAuthor(_ context.Context, authorID int64, status *content.Status) ([]Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(func(p *Post) bool {
		return p.Author.ID == authorID && (status == nil || p.Status == *status)
	}), nil
}

func (r memPosts) Explore(_ context.Context, f ExploreFilter, page, perPage int) ([]Post, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	search := strings.ToLower(f.Search)
	all := r.filter(func(p *Post) bool {
		if p.Status != content.StatusPublished || !p.Show {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Excerpt), search) {
			return false
		}
		return f.Category == "" || (p.Category != nil && strings.EqualFold(p.Category.Name, f.Category))
	})
	switch f.SortBy {
	case SortPopular:
		sort.SliceStable(all, func(i, j int) bool { return all[i].LikesCount > all[j].LikesCount })
	case SortMostCommented:
		sort.SliceStable(all, func(i, j int) bool { return all[i].CommentsCount > all[j].CommentsCount })
	}
	return paginate(all, page, perPage), len(all), nil
}

func (r memPosts) AdminList(_ context.Context, f AdminPostFilter, page, perPage int) ([]Post, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := r.filter(func(p *Post) bool {
		return (f.Status == nil || p.Status == *f.Status) && (f.Show == nil || p.Show == *f.Show)
	})
	return paginate(all, page, perPage), len(all), nil
}

func (r memPosts) SetVisible(_ context.Context, id int64, show bool) (*Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Show = show
	v := r.view(p)
	return &v, nil
}

func (r memPosts) ToggleLike(_ context.Context, postID, userID int64) (bool, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[postID]
	if !ok {
		return false, 0, ErrNotFound
	}
	key := [2]int64{postID, userID}
	_, had := r.db.likes[key]
	if had {
		delete(r.db.likes, key)
	} else {
		r.db.likes[key] = struct{}{}
	}
	return !had, r.view(p).LikesCount, nil
}

func (r memPosts) SaveMetrics(_ context.Context, id int64, words, minutes int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	p.WordCount, p.ReadingMinutes, p.IndexedAt = words, minutes, &now
	return nil
}

type memComments struct{ db *memDB }

func (r memComments) ListByPost(_ context.Context, postID int64) ([]Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []Comment{}
	for _, m := range r.db.comments {
		if m.BlogID == postID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memComments) Get(_ context.Context, id int64) (*Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r memComments) Create(_ context.Context, postID, userID int64, body string) (*Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m := &Comment{ID: r.db.id(), BlogID: postID, Content: body, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if u := r.db.users[userID]; u != nil {
		m.User = AuthorSummary{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName}
	}
	r.db.comments[m.ID] = m
	cp := *m
	return &cp, nil
}

func (r memComments) Update(_ context.Context, id int64, body string) (*Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Content, m.UpdatedAt = body, time.Now()
	cp := *m
	return &cp, nil
}

func (r memComments) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.comments, id)
	return nil
}

func paginate[T any](all []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(all) {
		return []T{}
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// recordingQueue is a JobQueue that only remembers enqueued jobs.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *recordingQueue) Enqueue(_ context.Context, job string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Jobs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.jobs...)
}

func (q *recordingQueue) Reserve(context.Context, time.Duration) (string, error) { return "", nil }
func (q *recordingQueue) Ack(context.Context, string) error                      { return nil }
func (q *recordingQueue) RequeueExpired(context.Context, time.Time) ([]string, error) {
	return nil, nil
}
func (q *recordingQueue) Attempt(context.Context, string) (int64, error) { return 0, nil }
func (q *recordingQueue) Retry(context.Context, string) error            { return nil }
