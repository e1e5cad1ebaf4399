package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AdminQuery filters admin listings. Status is "active"/"inactive" for users and
// "draft"/"published" for posts. Show is ignored for users.
type AdminQuery struct {
	Search string
	Status string
	Show   *bool
	Page   int
}

func (q AdminQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Show != nil {
		v.Set("show", strconv.FormatBool(*q.Show))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

func (c *Client) AdminUsers(ctx context.Context, q AdminQuery) (Page[AdminUser], error) {
	q.Show = nil
	var out Page[AdminUser]
	err := c.do(ctx, http.MethodGet, "/admin/users", q.values(), nil, &out)
	return out, err
}

func (c *Client) SetUserActive(ctx context.Context, id int64, active bool) (AdminUser, error) {
	status := "Inactive"
	if active {
		status = "Active"
	}
	var out AdminUser
	body := map[string]string{"status": status}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/users/%d/status", id), nil, body, &out)
	return out, err
}

func (c *Client) AdminPosts(ctx context.Context, q AdminQuery) (Page[Post], error) {
	var out Page[Post]
	err := c.do(ctx, http.MethodGet, "/admin/posts", q.values(), nil, &out)
	return out, err
}

// HidePost removes a post from the public listing without deleting it.
func (c *Client) HidePost(ctx context.Context, id int64) (Post, error) {
	var out Post
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/posts/%d/delete", id), nil, nil, &out)
	return out, err
}

func (c *Client) RestorePost(ctx context.Context, id int64) (Post, error) {
	var out Post
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/posts/%d/restore", id), nil, nil, &out)
	return out, err
}

func (c *Client) AdminPost(ctx context.Context, id int64) (PostDetail, error) {
	var out PostDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/blog/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) AdminDeleteComment(ctx context.Context, postID, commentID int64) error {
	q := url.Values{"comment_id": {strconv.FormatInt(commentID, 10)}}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/blog/%d", postID), q, nil, nil)
}

// ExportPost downloads a post as a zip bundle.
func (c *Client) ExportPost(ctx context.Context, id int64) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, fmt.Sprintf("/admin/blog/%d/export", id), nil, nil, nil)
}
