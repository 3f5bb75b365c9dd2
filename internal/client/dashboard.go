package client

import (
	"context"
	"fmt"
)

// Dashboard is the landing view of an authenticated user
type Dashboard struct {
	UserPosts   []Post
	RecentPosts []Post
}

// LoadDashboard fetches the user's own posts and the recent posts of everyone
func (c *Client) LoadDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	mine, err := c.ListPostsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user posts: %w", err)
	}

	recent, err := c.ListPosts(ctx, Page{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent posts: %w", err)
	}

	return &Dashboard{UserPosts: mine, RecentPosts: recent}, nil
}
