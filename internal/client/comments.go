package client

import (
	"context"
	"net/http"
	"time"
)

// Comment represents a comment on a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"authorId"`
	Email     string    `json:"email,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentInput is the body for creating a comment
type CommentInput struct {
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content" validate:"required,max=5000"`
}

// ListComments returns the comments of a post
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/comments/" + pathID(postID),
		auth:   true,
	}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment adds a comment to a post as the current user
func (c *Client) CreateComment(ctx context.Context, in CommentInput) (*Comment, error) {
	var comment Comment
	if _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/comments",
		body:   in,
		auth:   true,
	}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment written by the current user
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/comments/" + pathID(id),
		auth:   true,
	}, nil)
	return err
}
