package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Post represents a blog post
type Post struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Published      bool      `json:"published"`
	PublishedAt    time.Time `json:"publishedAt"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
}

// Excerpt returns at most n runes of the content, with "..." appended when truncated
func (p Post) Excerpt(n int) string {
	runes := []rune(p.Content)
	if len(runes) <= n {
		return p.Content
	}
	return string(runes[:n]) + "..."
}

// PostInput is the body for creating or updating a post
type PostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// Page selects a window of the post listing. Zero values use the API defaults.
type Page struct {
	Limit int
	Skip  int
}

func (p Page) values() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Skip > 0 {
		q.Set("skip", strconv.Itoa(p.Skip))
	}
	return q
}

// ListPosts returns recent posts from all authors
func (c *Client) ListPosts(ctx context.Context, page Page) ([]Post, error) {
	var posts []Post
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/posts",
		query:  page.values(),
		auth:   true,
	}, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPostsByUser returns the posts written by one user
func (c *Client) ListPostsByUser(ctx context.Context, userID string) ([]Post, error) {
	var posts []Post
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/posts/user/" + pathID(userID),
		auth:   true,
	}, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/posts/" + pathID(id),
		auth:   true,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a new post as the current user
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	var post Post
	if _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/posts",
		body:   in,
		auth:   true,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces the title and content of a post
func (c *Client) UpdatePost(ctx context.Context, id string, in PostInput) (*Post, error) {
	var post Post
	if _, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/posts/" + pathID(id),
		body:   in,
		auth:   true,
	}, &post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		post.ID = id
	}
	return &post, nil
}

// DeletePost removes a post owned by the current user
func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/posts/" + pathID(id),
		auth:   true,
	}, nil)
	return err
}
