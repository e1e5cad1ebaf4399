package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ExploreQuery filters the public post listing. Zero values are omitted.
type ExploreQuery struct {
	Search   string
	Category string
	SortBy   string
	Page     int
	PageSize int
}

func (q ExploreQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

func (c *Client) Explore(ctx context.Context, q ExploreQuery) (Page[Post], error) {
	var out Page[Post]
	err := c.do(ctx, http.MethodGet, "/explore/blogs", q.values(), nil, &out)
	return out, err
}

func (c *Client) ExplorePost(ctx context.Context, id int64) (Post, error) {
	var out Post
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/explore/blogs/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) ToggleLike(ctx context.Context, id int64) (LikeResult, error) {
	var out LikeResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/explore/blogs/%d/like", id), nil, nil, &out)
	return out, err
}

func (c *Client) Comments(ctx context.Context, postID int64) ([]Comment, error) {
	var out []Comment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/explore/blogs/%d/comments", postID), nil, nil, &out)
	return out, err
}

type commentBody struct {
	Content string `json:"content"`
}

func (c *Client) AddComment(ctx context.Context, postID int64, text string) (Comment, error) {
	var out Comment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/explore/blogs/%d/comments", postID), nil, commentBody{text}, &out)
	return out, err
}

func (c *Client) EditComment(ctx context.Context, id int64, text string) (Comment, error) {
	var out Comment
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/explore/comments/%d", id), nil, commentBody{text}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/explore/comments/%d", id), nil, nil, nil)
}
