package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"yatube/internal/logger"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/services"
)

type AuthHandler struct {
	users         *services.UserService
	googleEnabled bool
}

// NewAuthHandler serves the signup/login forms. googleEnabled shows the
// "sign in with Google" button on the login page.
func NewAuthHandler(users *services.UserService, googleEnabled bool) *AuthHandler {
	return &AuthHandler{users: users, googleEnabled: googleEnabled}
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	Render(c, http.StatusOK, tplSignup, gin.H{"Title": "Зарегистрироваться", "Form": services.SignupInput{}})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	in := services.SignupInput{
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
		Username:  c.PostForm("username"),
		Email:     c.PostForm("email"),
		Password:  c.PostForm("password"),
	}
	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		data := gin.H{"Title": "Зарегистрироваться"}
		if ve, ok := services.AsValidation(err); ok {
			data["Errors"] = ve
		} else if errors.Is(err, services.ErrUsernameTaken) {
			data["Errors"] = &services.ValidationError{Field: "username", Message: "Пользователь с таким именем уже существует."}
		} else {
			handleServiceError(c, err)
			return
		}
		in.Password = ""
		data["Form"] = in
		Render(c, http.StatusBadRequest, tplSignup, data)
		return
	}

	if err := startSession(c, user); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, tplLogin, gin.H{
		"Title":    "Войти",
		"Username": "",
		"Next":     c.Query("next"),
		"Google":   h.googleEnabled,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	next := c.PostForm("next")

	user, err := h.users.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if errors.Is(err, services.ErrInvalidCredentials) {
		Render(c, http.StatusBadRequest, tplLogin, gin.H{
			"Title":    "Войти",
			"Error":    "Введите правильные имя пользователя и пароль.",
			"Username": username,
			"Next":     next,
			"Google":   h.googleEnabled,
		})
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if err := startSession(c, user); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		l := logger.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("clear session")
	}
	c.Set(middleware.CheckUserKey, nil)
	Render(c, http.StatusOK, tplLoggedOut, gin.H{"Title": "Вы вышли из системы"})
}

func (h *AuthHandler) ShowPasswordChange(c *gin.Context) {
	Render(c, http.StatusOK, tplPasswordChange, gin.H{"Title": "Изменение пароля"})
}

func (h *AuthHandler) PasswordChange(c *gin.Context) {
	user := middleware.CurrentUser(c)
	err := h.users.ChangePassword(c.Request.Context(), user.ID, services.PasswordChangeInput{
		OldPassword:  c.PostForm("old_password"),
		NewPassword:  c.PostForm("new_password1"),
		NewPassword2: c.PostForm("new_password2"),
	})
	if ve, ok := services.AsValidation(err); ok {
		Render(c, http.StatusBadRequest, tplPasswordChange, gin.H{"Title": "Изменение пароля", "Errors": ve})
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	l := logger.Ctx(c.Request.Context())
	l.Info().Uint("user_id", user.ID).Msg("password changed")
	c.Redirect(http.StatusFound, "/auth/password_change/done/")
}

func (h *AuthHandler) PasswordChangeDone(c *gin.Context) {
	Render(c, http.StatusOK, tplPasswordChangeDone, gin.H{"Title": "Пароль изменён"})
}

func startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		return err
	}
	l := logger.Ctx(c.Request.Context())
	l.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("logged in")
	return nil
}

// safeNext only follows local paths, so ?next= can't bounce a fresh
// login to another site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
