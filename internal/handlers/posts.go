package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"

	"yatube/internal/cache"
	"yatube/internal/logger"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"
)

type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	cache    *cache.PageCache
	views    multitemplate.Render
	indexTTL time.Duration
}

func NewPostHandler(posts *services.PostService, comments *services.CommentService, pageCache *cache.PageCache, views multitemplate.Render, indexTTL time.Duration) *PostHandler {
	return &PostHandler{
		posts:    posts,
		comments: comments,
		cache:    pageCache,
		views:    views,
		indexTTL: indexTTL,
	}
}

func indexCacheKey(page int) string {
	return fmt.Sprintf("index:page:%d", page)
}

// clampedPageError reports that the requested index page is out of range
// and names the page that would be shown instead.
type clampedPageError struct {
	number int
}

func (e *clampedPageError) Error() string {
	return fmt.Sprintf("index page clamped to %d", e.number)
}

// Index serves the home timeline. Only the listing is cached; the page
// around it is rendered per request so navigation reflects the visitor.
func (h *PostHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	number := pageNumber(c)
	if number < 1 {
		number = 1
	}

	listing, err := h.cache.GetOrRender(ctx, indexCacheKey(number), h.indexTTL, func() ([]byte, error) {
		page, err := h.posts.Index(ctx, number)
		if err != nil {
			return nil, err
		}
		if page.Number != number {
			// failed renders are not cached, so stray ?page= values add no entries
			return nil, &clampedPageError{number: page.Number}
		}
		return renderFragment(h.views, tplIndexList, gin.H{"Page": page})
	})
	var clamped *clampedPageError
	if errors.As(err, &clamped) {
		c.Redirect(http.StatusFound, fmt.Sprintf("/?page=%d", clamped.number))
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	Render(c, http.StatusOK, tplIndex, gin.H{
		"Title":   "Последние обновления на сайте",
		"Listing": template.HTML(listing),
	})
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	group, page, err := h.posts.GroupPosts(c.Request.Context(), c.Param("slug"), pageNumber(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, tplGroupList, gin.H{
		"Title": "Записи сообщества " + group.Title,
		"Group": group,
		"Page":  page,
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderNotFound(c)
		return
	}
	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	count, err := h.posts.AuthorPostCount(ctx, post.AuthorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	comments, err := h.comments.ListComments(ctx, post.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	Render(c, http.StatusOK, tplPostDetail, gin.H{
		"Title":     "Пост " + post.String(),
		"Post":      post,
		"PostCount": count,
		"Comments":  comments,
		"CanEdit":   user != nil && user.ID == post.AuthorID,
	})
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	h.renderForm(c, http.StatusOK, gin.H{"Text": "", "GroupID": uint(0)}, nil, nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	in, closeImage := readPostForm(c)
	defer closeImage()

	post, err := h.posts.CreatePost(c.Request.Context(), user.ID, in)
	if ve, ok := services.AsValidation(err); ok {
		h.renderForm(c, http.StatusBadRequest, formValues(in), nil, ve)
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	l := logger.Ctx(c.Request.Context())
	l.Debug().Uint("post_id", post.ID).Msg("redirecting to profile")
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// ShowEdit sends anyone but the author back to the read-only view.
func (h *PostHandler) ShowEdit(c *gin.Context) {
	post, ok := h.ownedPost(c)
	if !ok {
		return
	}
	values := gin.H{"Text": post.Text, "GroupID": uint(0)}
	if post.GroupID != nil {
		values["GroupID"] = *post.GroupID
	}
	h.renderForm(c, http.StatusOK, values, post, nil)
}

func (h *PostHandler) Update(c *gin.Context) {
	post, ok := h.ownedPost(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	in, closeImage := readPostForm(c)
	defer closeImage()

	_, err := h.posts.UpdatePost(c.Request.Context(), post.ID, user.ID, in)
	if ve, ok := services.AsValidation(err); ok {
		h.renderForm(c, http.StatusBadRequest, formValues(in), post, ve)
		return
	}
	if errors.Is(err, services.ErrForbidden) {
		c.Redirect(http.StatusFound, postURL(post.ID))
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(post.ID))
}

func (h *PostHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderNotFound(c)
		return
	}

	err := h.posts.DeletePost(ctx, id, user.ID)
	if errors.Is(err, services.ErrForbidden) {
		c.Redirect(http.StatusFound, postURL(id))
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if err := h.cache.Clear(ctx); err != nil {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Msg("clear page cache after delete")
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// AddComment always returns to the post; blank comments are dropped.
func (h *PostHandler) AddComment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderNotFound(c)
		return
	}

	_, err := h.comments.AddComment(c.Request.Context(), id, user.ID, c.PostForm("text"))
	if _, invalid := services.AsValidation(err); err != nil && !invalid {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

// ownedPost loads the :id post and redirects non-authors to it. It
// reports whether the caller may continue.
func (h *PostHandler) ownedPost(c *gin.Context) (*models.Post, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderNotFound(c)
		return nil, false
	}
	post, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	if user := middleware.CurrentUser(c); user == nil || user.ID != post.AuthorID {
		c.Redirect(http.StatusFound, postURL(post.ID))
		return nil, false
	}
	return post, true
}

func (h *PostHandler) renderForm(c *gin.Context, code int, values gin.H, post *models.Post, ve *services.ValidationError) {
	groups, err := h.posts.ListGroups(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	title := "Новый пост"
	if post != nil {
		title = "Редактировать пост"
	}
	Render(c, code, tplCreatePost, gin.H{
		"Title":  title,
		"Post":   post,
		"IsEdit": post != nil,
		"Groups": groups,
		"Form":   values,
		"Errors": ve,
	})
}

// readPostForm collects the post form. The returned func closes the
// uploaded file, if any.
func readPostForm(c *gin.Context) (services.PostInput, func()) {
	in := services.PostInput{Text: c.PostForm("text")}
	if raw := strings.TrimSpace(c.PostForm("group")); raw != "" {
		// an unparsable id becomes 0, which no group has
		id, _ := utils.ParseID(raw)
		in.GroupID = &id
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return in, func() {}
	}
	f, err := fh.Open()
	if err != nil {
		l := logger.Ctx(c.Request.Context())
		l.Warn().Err(err).Str("filename", fh.Filename).Msg("open upload")
		return in, func() {}
	}
	in.Image = &services.ImageUpload{Filename: fh.Filename, Reader: f}
	return in, func() { f.Close() }
}

func formValues(in services.PostInput) gin.H {
	values := gin.H{"Text": in.Text, "GroupID": uint(0)}
	if in.GroupID != nil {
		values["GroupID"] = *in.GroupID
	}
	return values
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}
