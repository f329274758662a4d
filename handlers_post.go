package inkwell

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// PostRequest is the body for creating and updating posts.
type PostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Body        string   `json:"body"`
}

func (a *App) handleCreatePost(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return notAuthenticated(c)
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	if req.Title == "" || req.Description == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Title, description, and body are required"})
	}
	readingTime, err := ReadingTime(req.Body, a.Config.ReadingSpeed)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body content"})
	}
	post, err := a.Store.CreatePost(Post{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Author:      user.ID,
		State:       StateDraft,
		ReadingTime: readingTime,
		Body:        req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "post created", "postId": post.ID, "post": post})
}

// handleListPosts is the public, cached list endpoint. Only published posts
// are visible; author, title, and tag filters plus ordering and pagination
// come from the query string.
func (a *App) handleListPosts(c echo.Context) error {
	key := CacheKey(c.Request().URL.Path, c.Request().URL.RawQuery)
	ctx := c.Request().Context()

	if a.Cache != nil {
		posts, hit, err := a.Cache.Lookup(ctx, key)
		if err != nil {
			// Cache trouble is never fatal; fall through to the store.
			c.Logger().Warnf("cache lookup failed: %v", err)
		} else if hit {
			return c.JSON(http.StatusOK, echo.Map{"posts": posts})
		}
	}

	f := PostFilter{
		State:     StatePublished,
		Author:    c.QueryParam("author"),
		Title:     c.QueryParam("title"),
		Tag:       c.QueryParam("tag"),
		TimeField: c.QueryParam("timeField"),
		Ascending: c.QueryParam("order") != "descending",
		Page:      queryInt(c, "page", 0),
		PerPage:   a.Config.PageSize,
	}
	posts, err := a.Store.ListPosts(f)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	if a.Cache != nil {
		if err := a.Cache.Store(ctx, key, posts); err != nil {
			c.Logger().Warnf("cache store failed: %v", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// handleGetPost returns a single published post and counts the read.
func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Store.GetPublishedPost(c.Param("id"))
	if err != nil {
		if err == ErrNotFound {
			return c.JSON(http.StatusNotFound, errorResponse{Message: "post not found or published"})
		}
		return err
	}
	readingTime, err := ReadingTime(post.Body, a.Config.ReadingSpeed)
	if err != nil {
		return err
	}
	if err := a.Store.IncrementReadCount(post.ID, readingTime); err != nil {
		return err
	}
	post.ReadCount++
	post.ReadingTime = readingTime
	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

// handleMyPosts lists the caller's own posts, drafts included, with an
// optional state filter.
func (a *App) handleMyPosts(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return notAuthenticated(c)
	}
	state := PostState(c.QueryParam("state"))
	if state != "" && !state.Valid() {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "state must be draft or published"})
	}
	posts, err := a.Store.ListPosts(PostFilter{
		Author:  user.ID,
		State:   state,
		Page:    queryInt(c, "page", 0),
		PerPage: a.Config.PageSize,
	})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return c.JSON(http.StatusNotFound, errorResponse{Message: "post not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Here are your blog posts", "posts": posts})
}

func (a *App) handleToggleState(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return notAuthenticated(c)
	}
	post, err := a.Store.GetPost(c.Param("id"))
	if err != nil {
		return err
	}
	if post.Author != user.ID {
		return ErrForbidden
	}
	post, err = a.Store.ToggleState(post.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post state updated successfully", "post": post})
}

func (a *App) handleUpdatePost(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return notAuthenticated(c)
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	post, err := a.Store.GetPost(c.Param("id"))
	if err != nil {
		return err
	}
	if post.Author != user.ID {
		return ErrForbidden
	}
	readingTime, err := ReadingTime(req.Body, a.Config.ReadingSpeed)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body content"})
	}
	post.Title = req.Title
	post.Description = req.Description
	post.Tags = req.Tags
	post.Body = req.Body
	post.ReadingTime = readingTime
	if err := a.Store.UpdatePost(post); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "post successfully updated", "post": post})
}

// DeleteRequest is the body for POST /blog/delete-post.
type DeleteRequest struct {
	PostID string `json:"postId"`
}

func (a *App) handleDeletePost(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return notAuthenticated(c)
	}
	var req DeleteRequest
	if err := c.Bind(&req); err != nil || req.PostID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "postId is required"})
	}
	if err := a.Store.DeletePostByAuthor(req.PostID, user.ID); err != nil {
		if err == ErrNotFound {
			return c.JSON(http.StatusNotFound, errorResponse{Message: "Post not found or unauthorized to delete post"})
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Deleted successfully"})
}

func queryInt(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
