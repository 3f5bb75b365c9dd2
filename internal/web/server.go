// Package web serves the browser UI of the blog on a local address. Every page is
// gated by the shared session store through the route guard.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/inkwell-dev/inkwell/internal/client"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/guard"
	"github.com/inkwell-dev/inkwell/internal/session"
)

const shutdownTimeout = 30 * time.Second

// Server represents the web UI server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	session   *session.Store
	guard     *guard.Guard
	api       *client.Client
	validator *validator.Validate
	csrfToken string
}

// New creates a web UI over an existing session store and API client
func New(cfg *config.Config, store *session.Store, api *client.Client, zlog zerolog.Logger) (*Server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	csrfToken, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF token: %w", err)
	}

	s := &Server{
		config:    cfg,
		logger:    zlog,
		session:   store,
		guard:     guard.New(store),
		api:       api,
		validator: newValidator(),
		csrfToken: csrfToken,
	}

	s.setupRouter(tmpl)

	return s, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter(tmpl *template.Template) {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(securityHeadersMiddleware())

	// Health check and session state (no guard, readable by a dev frontend)
	open := s.router.Group("")
	open.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Web.AllowedOrigins,
		AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	{
		open.GET("/health", s.healthCheck)
		open.GET("/session", s.sessionState)
		open.OPTIONS("/session", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}

	forms := s.router.Group("")
	forms.Use(s.csrfMiddleware())

	publicOnly := forms.Group("")
	publicOnly.Use(s.guardMiddleware(guard.PublicOnly))
	{
		publicOnly.GET("/login", s.loginPage)
		publicOnly.POST("/login", s.login)
		publicOnly.GET("/register", s.registerPage)
		publicOnly.POST("/register", s.register)
	}

	forms.POST("/logout", s.guardMiddleware(guard.Open), s.logout)

	protected := forms.Group("")
	protected.Use(s.guardMiddleware(guard.Protected))
	{
		protected.GET("/", s.home)
		protected.GET("/dashboard", s.dashboard)

		protected.GET("/posts", s.listPosts)
		protected.GET("/posts/:id", s.showPost)
		protected.GET("/create-post", s.createPostPage)
		protected.POST("/create-post", s.createPost)
		protected.GET("/posts/:id/edit", s.editPostPage)
		protected.POST("/posts/:id/edit", s.updatePost)
		protected.POST("/posts/:id/delete", s.deletePost)

		protected.POST("/posts/:id/comments", s.createComment)
		protected.POST("/posts/:id/comments/:commentId/delete", s.deleteComment)

		protected.GET("/profile", s.profilePage)
		protected.POST("/profile", s.updateProfile)
		protected.GET("/users", s.listUsers)
	}

	s.router.NoRoute(func(c *gin.Context) {
		s.render(c, http.StatusNotFound, "error.html", gin.H{
			"Title":   "Not found",
			"Message": "Page not found",
		})
	})
}

// Handler returns the HTTP handler serving the UI
func (s *Server) Handler() http.Handler {
	return s.router
}

// URL is the address a browser should open
func (s *Server) URL() string {
	return "http://" + s.config.Web.Addr
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "inkwell-web",
		"ready":     !s.session.State().Loading,
	})
}

// Start serves until ctx is done, then shuts down gracefully. If the session has not
// been initialized yet it is initialized in the background while pages show a
// loading placeholder.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-s.session.Ready():
	default:
		go s.session.Initialize(ctx)
	}

	srv := &http.Server{
		Addr:              s.config.Web.Addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Web.Addr).Msg("Starting web UI")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down web UI...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down web UI")
		return err
	}

	s.logger.Info().Msg("Web UI shutdown complete")
	return nil
}
