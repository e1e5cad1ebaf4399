package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.do(ctx, http.MethodGet, "/user/content-categories", nil, nil, &out)
	return out, err
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	var out Post
	err := c.do(ctx, http.MethodPost, "/user/blogs", nil, in, &out)
	return out, err
}

func (c *Client) UpdatePost(ctx context.Context, id int64, in PostInput) (Post, error) {
	var out Post
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/user/blogs/%d", id), nil, in, &out)
	return out, err
}

// SavePost creates the post when id is zero and updates it otherwise.
func (c *Client) SavePost(ctx context.Context, id int64, in PostInput) (Post, error) {
	if id == 0 {
		return c.CreatePost(ctx, in)
	}
	return c.UpdatePost(ctx, id, in)
}

func (c *Client) GetPost(ctx context.Context, id int64) (Post, error) {
	var out Post
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/user/blogs/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/user/blogs/%d", id), nil, nil, nil)
}

// MyPosts lists the caller's posts. An empty status lists both drafts and published posts.
func (c *Client) MyPosts(ctx context.Context, status string) ([]Post, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out []Post
	err := c.do(ctx, http.MethodGet, "/user/blogs", q, nil, &out)
	return out, err
}

// ImportPost uploads a zip bundle and returns the draft created from it.
func (c *Client) ImportPost(ctx context.Context, filename string, bundle []byte) (Post, error) {
	var out Post
	err := c.upload(ctx, "/user/blogs/import", filename, bundle, &out)
	return out, err
}

// UploadImage stores an image through the backend proxy and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.upload(ctx, "/uploads/image", filename, data, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
