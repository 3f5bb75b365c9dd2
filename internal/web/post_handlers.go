package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-dev/inkwell/internal/client"
)

type postForm struct {
	Title   string `form:"title" label:"Title" validate:"required,max=200"`
	Content string `form:"content" label:"Content" validate:"required"`
}

type commentForm struct {
	Content string `form:"content" label:"Comment" validate:"required,max=5000"`
}

func postPath(id string) string {
	return "/posts/" + url.PathEscape(id)
}

func (s *Server) dashboard(c *gin.Context) {
	user := s.requestState(c).User
	if user == nil {
		redirect(c, s.session.Routes().Entry)
		return
	}

	dash, err := s.api.LoadDashboard(c.Request.Context(), user.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":       "My Dashboard",
		"UserPosts":   dash.UserPosts,
		"RecentPosts": dash.RecentPosts,
	})
}

func (s *Server) listPosts(c *gin.Context) {
	var page client.Page
	page.Limit, _ = strconv.Atoi(c.Query("limit"))
	page.Skip, _ = strconv.Atoi(c.Query("skip"))

	posts, err := s.api.ListPosts(c.Request.Context(), page)
	if err != nil {
		s.fail(c, err)
		return
	}

	view := gin.H{"Title": "Posts", "Posts": posts}
	if page.Limit > 0 {
		if page.Skip > 0 {
			prev := page.Skip - page.Limit
			if prev < 0 {
				prev = 0
			}
			view["Prev"] = pageQuery(page.Limit, prev)
		}
		if len(posts) == page.Limit {
			view["Next"] = pageQuery(page.Limit, page.Skip+page.Limit)
		}
	}

	s.render(c, http.StatusOK, "posts.html", view)
}

func pageQuery(limit, skip int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))
	return "/posts?" + q.Encode()
}

func (s *Server) showPost(c *gin.Context) {
	s.renderPost(c, http.StatusOK, gin.H{})
}

// renderPost shows a post with its comments, merging extra (e.g. a comment form error)
func (s *Server) renderPost(c *gin.Context, status int, extra gin.H) {
	ctx := c.Request.Context()
	id := c.Param("id")

	post, err := s.api.GetPost(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	comments, err := s.api.ListComments(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	extra["Title"] = post.Title
	extra["Post"] = post
	extra["Comments"] = comments
	if user := s.requestState(c).User; user != nil {
		extra["IsAuthor"] = user.UserID == post.AuthorID
	}
	s.render(c, status, "post.html", extra)
}

func (s *Server) createPostPage(c *gin.Context) {
	s.render(c, http.StatusOK, "post_form.html", gin.H{
		"Title":  "Create New Post",
		"Action": "/create-post",
		"Submit": "Create Post",
		"Form":   postForm{},
	})
}

func (s *Server) createPost(c *gin.Context) {
	var form postForm
	bindErr := c.ShouldBind(&form)

	view := gin.H{
		"Title":  "Create New Post",
		"Action": "/create-post",
		"Submit": "Create Post",
		"Form":   form,
	}

	if bindErr != nil {
		view["Error"] = invalidForm
		s.render(c, http.StatusBadRequest, "post_form.html", view)
		return
	}
	if err := s.validator.Struct(&form); err != nil {
		view["Error"] = validationMessage(err)
		s.render(c, http.StatusBadRequest, "post_form.html", view)
		return
	}

	if _, err := s.api.CreatePost(c.Request.Context(), client.PostInput(form)); err != nil {
		s.fail(c, err)
		return
	}

	redirect(c, "/posts")
}

func (s *Server) editPostPage(c *gin.Context) {
	id := c.Param("id")

	post, err := s.api.GetPost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, http.StatusOK, "post_form.html", gin.H{
		"Title":  "Edit Post",
		"Action": postPath(id) + "/edit",
		"Submit": "Update Post",
		"Form":   postForm{Title: post.Title, Content: post.Content},
	})
}

func (s *Server) updatePost(c *gin.Context) {
	id := c.Param("id")

	var form postForm
	err := c.ShouldBind(&form)
	if err == nil {
		err = s.validator.Struct(&form)
	}
	if err != nil {
		s.render(c, http.StatusBadRequest, "post_form.html", gin.H{
			"Title":  "Edit Post",
			"Action": postPath(id) + "/edit",
			"Submit": "Update Post",
			"Form":   form,
			"Error":  formMessage(err),
		})
		return
	}

	if _, err := s.api.UpdatePost(c.Request.Context(), id, client.PostInput(form)); err != nil {
		s.fail(c, err)
		return
	}

	redirect(c, postPath(id))
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.api.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	redirect(c, s.session.Routes().Home)
}

func (s *Server) createComment(c *gin.Context) {
	id := c.Param("id")

	var form commentForm
	err := c.ShouldBind(&form)
	if err == nil {
		err = s.validator.Struct(&form)
	}
	if err != nil {
		s.renderPost(c, http.StatusBadRequest, gin.H{
			"CommentError": formMessage(err),
			"CommentDraft": form.Content,
		})
		return
	}

	in := client.CommentInput{PostID: id, Content: form.Content}
	if _, err := s.api.CreateComment(c.Request.Context(), in); err != nil {
		s.fail(c, err)
		return
	}

	redirect(c, postPath(id))
}

func (s *Server) deleteComment(c *gin.Context) {
	if err := s.api.DeleteComment(c.Request.Context(), c.Param("commentId")); err != nil {
		s.fail(c, err)
		return
	}

	redirect(c, postPath(c.Param("id")))
}
