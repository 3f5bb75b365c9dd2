package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-dev/inkwell/internal/client"
)

type profileForm struct {
	Bio           string `form:"bio" label:"Bio" validate:"max=1000"`
	ProfilePicURL string `form:"profilePicUrl" label:"Profile picture URL" validate:"omitempty,url"`
}

func (s *Server) profilePage(c *gin.Context) {
	profile, err := s.api.GetProfile(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, http.StatusOK, "profile.html", gin.H{
		"Title": "Profile",
		"Form":  profileForm(*profile),
	})
}

func (s *Server) updateProfile(c *gin.Context) {
	var form profileForm
	err := c.ShouldBind(&form)
	if err == nil {
		err = s.validator.Struct(&form)
	}
	if err != nil {
		s.render(c, http.StatusBadRequest, "profile.html", gin.H{
			"Title": "Profile",
			"Form":  form,
			"Error": formMessage(err),
		})
		return
	}

	profile, err := s.api.UpdateProfile(c.Request.Context(), client.Profile(form))
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, http.StatusOK, "profile.html", gin.H{
		"Title":   "Profile",
		"Form":    profileForm(*profile),
		"Message": "Profile updated",
	})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.api.ListUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, http.StatusOK, "users.html", gin.H{
		"Title": "Users",
		"Users": users,
	})
}
