package apitest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/inkwell-dev/inkwell/internal/client"
)

func (s *Server) login(c *gin.Context) {
	var req client.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acct := s.users[req.Username]
	s.mu.Unlock()
	if acct == nil || acct.Password != req.Password {
		c.String(http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.sign(acct, s.ttl)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) register(c *gin.Context) {
	var req client.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}
	acct := s.addUserLocked(req.Username, req.Password, req.Email)
	s.mu.Unlock()

	token, err := s.sign(acct, s.ttl)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) listPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	s.mu.Lock()
	defer s.mu.Unlock()

	start := skip
	if start > len(s.posts) {
		start = len(s.posts)
	}
	end := start + limit
	if end > len(s.posts) || limit <= 0 {
		end = len(s.posts)
	}
	out := append([]client.Post{}, s.posts[start:end]...)
	c.JSON(http.StatusOK, out)
}

func (s *Server) listPostsByUser(c *gin.Context) {
	userID := c.Param("userID")
	if claims := currentClaims(c); claims == nil || claims.UserID != userID {
		c.String(http.StatusForbidden, "You can only view your own posts")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []client.Post{}
	for _, p := range s.posts {
		if p.AuthorID == userID {
			out = append(out, p)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) findPostLocked(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) getPost(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findPostLocked(c.Param("id"))
	if i < 0 {
		c.String(http.StatusNotFound, "Post not found")
		return
	}
	c.JSON(http.StatusOK, s.posts[i])
}

func (s *Server) createPost(c *gin.Context) {
	var in client.PostInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title and content are required"})
		return
	}
	claims := currentClaims(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	post := client.Post{
		ID:             ulid.Make().String(),
		Title:          in.Title,
		Content:        in.Content,
		Published:      true,
		PublishedAt:    time.Now().UTC(),
		AuthorID:       claims.UserID,
		AuthorUsername: claims.Username,
	}
	s.posts = append(s.posts, post)
	c.JSON(http.StatusOK, post)
}

func (s *Server) updatePost(c *gin.Context) {
	var in client.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findPostLocked(c.Param("id"))
	if i < 0 {
		c.String(http.StatusNotFound, "Post not found")
		return
	}
	s.posts[i].Title = in.Title
	s.posts[i].Content = in.Content
	c.JSON(http.StatusOK, s.posts[i])
}

func (s *Server) deletePost(c *gin.Context) {
	claims := currentClaims(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findPostLocked(c.Param("id"))
	if i < 0 {
		c.String(http.StatusNotFound, "Post not found")
		return
	}
	if s.posts[i].AuthorID != claims.UserID {
		c.String(http.StatusForbidden, "You can only delete your own posts")
		return
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) listComments(c *gin.Context) {
	postID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []client.Comment{}
	for _, cm := range s.comments {
		if cm.PostID == postID {
			out = append(out, cm)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createComment(c *gin.Context) {
	var in client.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil || in.PostID == "" {
		c.String(http.StatusBadRequest, "Invalid comment data")
		return
	}
	claims := currentClaims(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findPostLocked(in.PostID) < 0 {
		c.String(http.StatusBadRequest, "Invalid post ID")
		return
	}
	comment := client.Comment{
		ID:        ulid.Make().String(),
		PostID:    in.PostID,
		Author:    claims.Username,
		AuthorID:  claims.UserID,
		Content:   in.Content,
		CreatedAt: time.Now().UTC(),
	}
	s.comments = append(s.comments, comment)
	c.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	claims := currentClaims(c)
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cm := range s.comments {
		if cm.ID == id {
			if cm.AuthorID != claims.UserID {
				c.String(http.StatusForbidden, "You can only delete your own comments")
				return
			}
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.String(http.StatusNotFound, "Comment not found")
}

func (s *Server) getProfile(c *gin.Context) {
	claims := currentClaims(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.users[claims.Username]
	if acct == nil {
		c.String(http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, acct.User)
}

func (s *Server) updateProfile(c *gin.Context) {
	var in client.Profile
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}
	claims := currentClaims(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.users[claims.Username]
	if acct == nil {
		c.String(http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	acct.Bio = in.Bio
	acct.ProfilePicURL = in.ProfilePicURL
	c.JSON(http.StatusOK, acct.User)
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []client.User{}
	for _, u := range s.users {
		out = append(out, u.User)
	}
	c.JSON(http.StatusOK, out)
}
