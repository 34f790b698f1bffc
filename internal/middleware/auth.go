package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"yatube/internal/logger"
	"yatube/internal/models"
	"yatube/internal/services"
)

const (
	CheckUserKey = "user"
	// SessionUserKey holds the logged-in user's id in the cookie session.
	SessionUserKey = "user_id"
	LoginPath      = "/auth/login/"
)

// AuthRequired redirects anonymous visitors to the login page, carrying
// the requested path in ?next=.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadUser resolves the session user and stores it in the context. A
// session pointing at a deleted user is cleared.
func LoadUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(SessionUserKey).(uint)
		if !ok {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(CheckUserKey, user)
			c.Set(logger.FieldUserID, user.ID)
			c.Set(logger.FieldUsername, user.Username)
		case errors.Is(err, services.ErrNotFound):
			session.Delete(SessionUserKey)
			session.Save()
		default:
			l := logger.Ctx(c.Request.Context())
			l.Error().Err(err).Uint("user_id", id).Msg("load session user")
		}
		c.Next()
	}
}

// CurrentUser is the logged-in user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
