package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Username string `form:"username" label:"Username" validate:"required"`
	Password string `form:"password" label:"Password" validate:"required"`
}

type registerForm struct {
	Username string `form:"username" label:"Username" validate:"required,max=50"`
	Email    string `form:"email" label:"Email" validate:"omitempty,email"`
	Password string `form:"password" label:"Password" validate:"required"`
}

func (s *Server) loginPage(c *gin.Context) {
	s.render(c, http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Login", "Error": "Login failed"})
		return
	}
	if err := s.validator.Struct(&form); err != nil {
		s.render(c, http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login",
			"Error":    validationMessage(err),
			"Username": form.Username,
		})
		return
	}

	token, err := s.api.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", form.Username).Msg("Login failed")
		s.render(c, http.StatusUnauthorized, "login.html", gin.H{
			"Title":    "Login",
			"Error":    "Login failed",
			"Username": form.Username,
		})
		return
	}

	nav, err := s.session.Login(token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Login token rejected")
		s.render(c, http.StatusUnauthorized, "login.html", gin.H{
			"Title":    "Login",
			"Error":    "Login failed",
			"Username": form.Username,
		})
		return
	}

	redirect(c, string(nav))
}

func (s *Server) registerPage(c *gin.Context) {
	s.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

func (s *Server) register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "register.html", gin.H{"Title": "Register", "Error": "Registration failed"})
		return
	}

	view := gin.H{"Title": "Register", "Username": form.Username, "Email": form.Email}

	if err := s.validator.Struct(&form); err != nil {
		view["Error"] = "Registration failed: " + validationMessage(err)
		s.render(c, http.StatusBadRequest, "register.html", view)
		return
	}

	token, err := s.api.Register(c.Request.Context(), form.Username, form.Password, form.Email)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", form.Username).Msg("Registration failed")
		view["Error"] = "Registration failed: " + apiMessage(err)
		s.render(c, http.StatusBadRequest, "register.html", view)
		return
	}

	nav, err := s.session.Login(token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Registration token rejected")
		view["Error"] = "Registration failed: " + err.Error()
		s.render(c, http.StatusBadRequest, "register.html", view)
		return
	}

	redirect(c, string(nav))
}

func (s *Server) logout(c *gin.Context) {
	redirect(c, string(s.session.Logout()))
}

// sessionState exposes the store snapshot, e.g. for a separately served frontend
func (s *Server) sessionState(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.State())
}

func (s *Server) home(c *gin.Context) {
	redirect(c, s.session.Routes().Home)
}
