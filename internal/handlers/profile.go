package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"yatube/internal/middleware"
	"yatube/internal/services"
)

type ProfileHandler struct {
	posts   *services.PostService
	follows *services.FollowService
}

func NewProfileHandler(posts *services.PostService, follows *services.FollowService) *ProfileHandler {
	return &ProfileHandler{posts: posts, follows: follows}
}

func (h *ProfileHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, page, err := h.posts.ProfilePosts(ctx, c.Param("username"), pageNumber(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	counts, err := h.follows.Counts(ctx, author.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	following := false
	user := middleware.CurrentUser(c)
	if user != nil && user.ID != author.ID {
		if following, err = h.follows.IsFollowing(ctx, user.ID, author.ID); err != nil {
			handleServiceError(c, err)
			return
		}
	}

	Render(c, http.StatusOK, tplProfile, gin.H{
		"Title":     "Профайл пользователя " + author.DisplayName(),
		"Author":    author,
		"Page":      page,
		"Counts":    counts,
		"Following": following,
		"IsSelf":    user != nil && user.ID == author.ID,
	})
}

func (h *ProfileHandler) Follow(c *gin.Context) {
	user := middleware.CurrentUser(c)
	username := c.Param("username")
	if _, _, err := h.follows.Follow(c.Request.Context(), user.ID, username); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *ProfileHandler) Unfollow(c *gin.Context) {
	user := middleware.CurrentUser(c)
	username := c.Param("username")
	if _, err := h.follows.Unfollow(c.Request.Context(), user.ID, username); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

// Feed lists posts by everyone the visitor follows.
func (h *ProfileHandler) Feed(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, err := h.follows.FeedFor(c.Request.Context(), user.ID, pageNumber(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, tplFollow, gin.H{
		"Title": "Избранные авторы",
		"Page":  page,
	})
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
