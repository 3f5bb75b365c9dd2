package web

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/inkwell-dev/inkwell/internal/guard"
)

const (
	requestIDHeader = "X-Request-ID"
	csrfField       = "csrf_token"
)

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// requestIDMiddleware tags every request with a ULID, keeping one supplied by a proxy
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; frame-ancestors 'none'; form-action 'self'")
		// Pages depend on the session; never serve them from cache
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// csrfMiddleware rejects state-changing requests that do not carry the form token
func (s *Server) csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token := c.PostForm(csrfField)
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.csrfToken)) != 1 {
			s.logger.Warn().Str("path", c.Request.URL.Path).Msg("Missing or invalid CSRF token")
			s.render(c, http.StatusForbidden, "error.html", gin.H{
				"Title":   "Forbidden",
				"Message": "The form has expired. Go back and try again.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// guardMiddleware applies the route guard to every page of a group
func (s *Server) guardMiddleware(p guard.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, d := s.guard.Evaluate(p)
		c.Set(sessionStateKey, state)
		switch d.Outcome {
		case guard.Defer:
			s.render(c, http.StatusOK, "loading.html", gin.H{"Title": "Loading"})
			c.Abort()
		case guard.Redirect:
			redirect(c, d.Location)
			c.Abort()
		default:
			c.Next()
		}
	}
}

// redirect answers GET with 302 and form posts with 303 so browsers follow with GET
func redirect(c *gin.Context, location string) {
	status := http.StatusFound
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	c.Redirect(status, location)
}
