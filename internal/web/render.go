package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-dev/inkwell/internal/client"
	"github.com/inkwell-dev/inkwell/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const excerptLength = 200

const sessionStateKey = "session_state"

// requestState returns the snapshot the guard admitted this request with,
// falling back to the live store for unguarded routes
func (s *Server) requestState(c *gin.Context) session.State {
	if v, ok := c.Get(sessionStateKey); ok {
		if state, ok := v.(session.State); ok {
			return state
		}
	}
	return s.session.State()
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("2006-01-02")
		},
		"excerpt": func(p client.Post) string {
			return p.Excerpt(excerptLength)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// render executes a page template with the values every layout needs
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	state := s.requestState(c)
	data["Session"] = state
	data["User"] = state.User
	data["CSRFToken"] = s.csrfToken
	c.HTML(status, name, data)
}

// fail turns an API error into a page. A rejected token ends the session.
func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotAuthenticated) {
		s.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("API rejected session")
		redirect(c, string(s.session.Logout()))
		return
	}

	status := http.StatusBadGateway
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusForbidden) {
		status = apiErr.StatusCode
	}

	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("API request failed")
	s.render(c, status, "error.html", gin.H{
		"Title":   "Error",
		"Message": apiMessage(err),
	})
}

// apiMessage returns the API's own message for display when there is one
func apiMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

const invalidForm = "The form could not be read. Please try again."

// formMessage describes a bind or validation failure for the form it came from
func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return validationMessage(err)
	}
	return invalidForm
}

// validationMessage renders validator errors as one sentence per field
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required.", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address.", fe.Field()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL.", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid.", fe.Field()))
		}
	}
	return strings.Join(msgs, " ")
}
