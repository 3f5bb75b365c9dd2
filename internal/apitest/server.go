// Package apitest runs an in-memory blog API for tests of the client, CLI and web UI.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/inkwell-dev/inkwell/internal/client"
)

const bearerPrefix = "Bearer "

// Claims match what the real API signs into its tokens
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type account struct {
	client.User
	Password string
}

// Server is a fake blog API
type Server struct {
	*httptest.Server

	secret []byte
	ttl    time.Duration

	mu       sync.Mutex
	users    map[string]*account // by username
	posts    []client.Post
	comments []client.Comment
	failures map[string]int // "METHOD /path" -> status
	requests []string
}

// New starts a fake API and closes it when the test ends
func New(t *testing.T) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:   []byte("apitest-secret"),
		ttl:      time.Hour,
		users:    make(map[string]*account),
		failures: make(map[string]int),
	}

	router := gin.New()
	router.Use(s.record, s.injectFailures)
	router.POST("/login", s.login)
	router.POST("/register", s.register)

	api := router.Group("/api")
	api.Use(s.requireAuth)
	{
		api.GET("/posts", s.listPosts)
		api.POST("/posts", s.createPost)
		api.GET("/posts/user/:userID", s.listPostsByUser)
		api.GET("/posts/:id", s.getPost)
		api.PUT("/posts/:id", s.updatePost)
		api.DELETE("/posts/:id", s.deletePost)

		api.GET("/comments/:id", s.listComments)
		api.POST("/comments", s.createComment)
		api.DELETE("/comments/:id", s.deleteComment)

		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.updateProfile)
		api.GET("/users", s.listUsers)
	}

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly and returns its id
func (s *Server) AddUser(username, password, email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, email).ID
}

func (s *Server) addUserLocked(username, password, email string) *account {
	acct := &account{
		User: client.User{
			ID:        ulid.Make().String(),
			Username:  username,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		},
		Password: password,
	}
	s.users[username] = acct
	return acct
}

// AddPost seeds a post and returns it
func (s *Server) AddPost(authorID, title, content string) client.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := client.Post{
		ID:          ulid.Make().String(),
		Title:       title,
		Content:     content,
		Published:   true,
		PublishedAt: time.Now().UTC(),
		AuthorID:    authorID,
	}
	for _, u := range s.users {
		if u.ID == authorID {
			post.AuthorUsername = u.Username
		}
	}
	s.posts = append(s.posts, post)
	return post
}

// AddComment seeds a comment and returns it
func (s *Server) AddComment(postID, author, content string) client.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment := client.Comment{
		ID:        ulid.Make().String(),
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if u, ok := s.users[author]; ok {
		comment.AuthorID = u.ID
	}
	s.comments = append(s.comments, comment)
	return comment
}

// Token issues a token for an existing user with the given lifetime
func (s *Server) Token(username string, ttl time.Duration) string {
	s.mu.Lock()
	acct := s.users[username]
	s.mu.Unlock()
	if acct == nil {
		panic(fmt.Sprintf("apitest: unknown user %s", username))
	}
	token, err := s.sign(acct, ttl)
	if err != nil {
		panic(err)
	}
	return token
}

// Fail makes the given route ("GET /api/posts") answer with status until cleared with 0
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Requests returns "METHOD /path" for every request received so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Posts returns the current post list
func (s *Server) Posts() []client.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.Post(nil), s.posts...)
}

// Comments returns the current comment list
func (s *Server) Comments() []client.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.Comment(nil), s.comments...)
}

// Profile returns a user's stored profile fields
func (s *Server) Profile(username string) client.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[username]
	if u == nil {
		return client.Profile{}
	}
	return client.Profile{Bio: u.Bio, ProfilePicURL: u.ProfilePicURL}
}

func (s *Server) sign(acct *account, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   acct.ID,
		Username: acct.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.Path)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailures(c *gin.Context) {
	s.mu.Lock()
	status, ok := s.failures[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Next()
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return
	}
	claims, err := s.validate(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	c.Set("claims", claims)
	c.Next()
}

func currentClaims(c *gin.Context) *Claims {
	v, _ := c.Get("claims")
	claims, _ := v.(*Claims)
	return claims
}
