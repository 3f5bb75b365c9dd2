package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dev/inkwell/internal/apitest"
	"github.com/inkwell-dev/inkwell/internal/client"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/session"
)

type testEnv struct {
	api    *apitest.Server
	userID string
	tokens *session.MemoryStore
	store  *session.Store
	server *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := apitest.New(t)
	userID := api.AddUser("alice", "secret", "alice@example.com")

	tokens := session.NewMemoryStore()
	store := session.New(tokens)

	cfg := &config.Config{
		API: config.APIConfig{URL: api.URL, Timeout: 5 * time.Second},
		Web: config.WebConfig{Addr: "127.0.0.1:0", AllowedOrigins: []string{"http://localhost:5173"}},
	}

	srv, err := New(cfg, store, client.New(api.URL, store, cfg.API.Timeout), zerolog.Nop())
	require.NoError(t, err)

	return &testEnv{api: api, userID: userID, tokens: tokens, store: store, server: srv}
}

func (e *testEnv) initialize(t *testing.T) {
	t.Helper()
	e.store.Initialize(context.Background())
}

func (e *testEnv) loginAsAlice(t *testing.T) {
	t.Helper()
	_, err := e.store.Login(e.api.Token("alice", time.Hour))
	require.NoError(t, err)
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if _, ok := form[csrfField]; !ok {
		form.Set(csrfField, e.server.csrfToken)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLoadingPlaceholder(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard", "/login", "/posts"} {
		rec := env.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Loading...", path)
		assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`, path)
		assert.Empty(t, rec.Header().Get("Location"), path)
	}

	env.initialize(t)
	rec := env.get("/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestUnauthenticatedRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	for _, path := range []string{"/", "/dashboard", "/posts", "/posts/abc", "/create-post", "/profile", "/users"} {
		rec := env.get(path)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec := env.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="username"`)

	rec = env.get("/register")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	t.Run("missing csrf token", func(t *testing.T) {
		rec := env.post("/login", url.Values{
			"username": {"alice"},
			"password": {"secret"},
			csrfField:  {"forged"},
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, env.store.State().IsAuthenticated)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.post("/login", url.Values{"username": {"alice"}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Login failed")
		assert.False(t, env.store.State().IsAuthenticated)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.post("/login", url.Values{"username": {"alice"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Password is required.")
	})

	t.Run("success", func(t *testing.T) {
		rec := env.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		state := env.store.State()
		require.True(t, state.IsAuthenticated)
		assert.Equal(t, "alice", state.User.Username)

		stored, err := env.tokens.Load()
		require.NoError(t, err)
		assert.NotEmpty(t, stored)
	})

	t.Run("login page redirects once authenticated", func(t *testing.T) {
		rec := env.get("/login")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	rec := env.post("/register", url.Values{"username": {"alice"}, "password": {"pw"}, "email": {"a@example.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration failed: Username already exists")

	rec = env.post("/register", url.Values{"username": {"bob"}, "password": {"pw"}, "email": {"not-an-email"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email must be a valid email address.")

	rec = env.post("/register", url.Values{"username": {"bob"}, "password": {"pw"}, "email": {"bob@example.com"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, "bob", env.store.State().User.Username)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	bobID := env.api.AddUser("bob", "pw", "")
	env.api.AddPost(env.userID, "Alice writes", "hello")
	env.api.AddPost(bobID, "Bob writes", "hi")

	rec := env.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Username: alice")
	assert.Contains(t, body, "User ID: "+env.userID)
	assert.Contains(t, body, "Alice writes")
	assert.Contains(t, body, "Bob writes")

	rec = env.get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	rec := env.post("/create-post", url.Values{"content": {"no title"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title is required.")

	rec = env.post("/create-post", url.Values{"title": {"First"}, "content": {strings.Repeat("x", 250)}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/posts", rec.Header().Get("Location"))

	posts := env.api.Posts()
	require.Len(t, posts, 1)
	id := posts[0].ID

	rec = env.get("/posts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), strings.Repeat("x", 200)+"...")
	assert.NotContains(t, rec.Body.String(), strings.Repeat("x", 201))

	rec = env.post("/posts/"+id+"/edit", url.Values{"title": {"First, edited"}, "content": {"short"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/posts/"+id, rec.Header().Get("Location"))

	rec = env.post("/posts/"+id+"/comments", url.Values{"content": {"nice post"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, env.api.Comments(), 1)

	rec = env.get("/posts/" + id)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "First, edited")
	assert.Contains(t, body, "nice post")
	assert.Contains(t, body, "/posts/"+id+"/delete")

	commentID := env.api.Comments()[0].ID
	rec = env.post("/posts/"+id+"/comments/"+commentID+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.api.Comments())

	rec = env.post("/posts/"+id+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Empty(t, env.api.Posts())

	rec = env.get("/posts/" + id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post not found")
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	rec := env.post("/profile", url.Values{"bio": {"writer"}, "profilePicUrl": {"not a url"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile picture URL must be a valid URL.")

	rec = env.post("/profile", url.Values{"bio": {"writer"}, "profilePicUrl": {"https://example.com/a.png"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile updated")
	assert.Equal(t, "writer", env.api.Profile("alice").Bio)

	rec = env.get("/users")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestRejectedTokenLogsOut(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	env.api.Fail("GET /api/users", http.StatusUnauthorized)

	rec := env.get("/users")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, env.store.State().IsAuthenticated)

	_, err := env.tokens.Load()
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func renderPostPage(t *testing.T, env *testEnv, state *session.State) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	c := gin.CreateTestContextOnly(rec, env.server.router)
	c.Request = httptest.NewRequest(http.MethodGet, "/posts/p1", nil)
	if state != nil {
		c.Set(sessionStateKey, *state)
	}

	env.server.render(c, http.StatusOK, "post.html", gin.H{
		"Title": "Hello",
		"Post":  client.Post{ID: "p1", Title: "Hello", Content: "body"},
		"Comments": []client.Comment{
			{ID: "c1", AuthorID: env.userID, Author: "alice", Content: "mine"},
		},
	})
	require.Empty(t, c.Errors)
	return rec
}

func TestRenderUsesAdmittedSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	admitted := env.store.State()
	env.store.Logout()

	// The session ended after the guard admitted the request; the page stays consistent
	body := renderPostPage(t, env, &admitted).Body.String()
	assert.Contains(t, body, "Logout")
	assert.Contains(t, body, "/posts/p1/comments/c1/delete")
	assert.Contains(t, body, `action="/posts/p1/comments"`)
}

func TestRenderPostWithoutUser(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	body := renderPostPage(t, env, nil).Body.String()
	assert.Contains(t, body, "mine")
	assert.NotContains(t, body, "/posts/p1/comments/c1/delete")
	assert.Contains(t, body, `action="/posts/p1/comments"`)
}

func TestUnreadableFormIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)
	post := env.api.AddPost(env.userID, "Hello", "content")

	tests := []struct {
		name    string
		path    string
		handler func(*gin.Context)
		want    string
	}{
		{"create post", "/create-post", env.server.createPost, "Create New Post"},
		{"update post", "/posts/" + post.ID + "/edit", env.server.updatePost, "Edit Post"},
		{"add comment", "/posts/" + post.ID + "/comments", env.server.createComment, "Hello"},
		{"update profile", "/profile", env.server.updateProfile, "Profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.api.Requests())

			rec := httptest.NewRecorder()
			c := gin.CreateTestContextOnly(rec, env.server.router)
			c.Request = httptest.NewRequest(http.MethodPost, tt.path, iotest.ErrReader(errors.New("connection reset")))
			c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			c.Params = gin.Params{{Key: "id", Value: post.ID}}

			tt.handler(c)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Contains(t, rec.Body.String(), "The form could not be read")
			for _, req := range env.api.Requests()[before:] {
				assert.NotContains(t, req, "POST ")
				assert.NotContains(t, req, "PUT ")
			}
		})
	}
}

func TestAPIFailureRendersError(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	env.api.Fail("GET /api/users", http.StatusInternalServerError)

	rec := env.get("/users")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
	assert.True(t, env.store.State().IsAuthenticated)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.loginAsAlice(t)

	rec := env.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, env.store.State().IsAuthenticated)

	_, err := env.tokens.Load()
	assert.ErrorIs(t, err, session.ErrNotFound)

	// Logging out twice is harmless
	rec = env.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var state session.State
	rec := env.get("/session")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Loading)

	env.initialize(t)
	env.loginAsAlice(t)

	rec = env.get("/session")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Loading)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "alice", state.User.Username)
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	rec := env.get("/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}
