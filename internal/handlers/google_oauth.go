package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"yatube/internal/logger"
	"yatube/internal/services"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateKey     = "oauth_state"
)

// GoogleAuthHandler signs users in with their Google account.
type GoogleAuthHandler struct {
	cfg         *oauth2.Config
	users       *services.UserService
	userInfoURL string
}

func NewGoogleAuthHandler(clientID, clientSecret, siteURL string, users *services.UserService) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  strings.TrimSuffix(siteURL, "/") + "/auth/google/callback/",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		users:       users,
		userInfoURL: googleUserInfoURL,
	}
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Login stores a one-time state in the session and sends the visitor to
// Google's consent screen.
func (h *GoogleAuthHandler) Login(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		handleServiceError(c, fmt.Errorf("generate oauth state: %w", err))
		return
	}
	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.cfg.AuthCodeURL(state))
}

func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	saved, _ := session.Get(oauthStateKey).(string)
	session.Delete(oauthStateKey)
	session.Save()

	if saved == "" || c.Query("state") != saved {
		h.fail(c, http.StatusBadRequest, "Недействительный запрос авторизации, попробуйте ещё раз.", nil)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.fail(c, http.StatusBadRequest, "Google не вернул код авторизации.", nil)
		return
	}

	token, err := h.cfg.Exchange(ctx, code)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "Не удалось получить токен Google.", err)
		return
	}
	profile, err := h.fetchProfile(c, token)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "Не удалось получить профиль Google.", err)
		return
	}

	user, err := h.users.LoginWithGoogle(ctx, *profile)
	if errors.Is(err, services.ErrUnverifiedEmail) {
		h.fail(c, http.StatusBadRequest, "Адрес почты в Google не подтверждён.", nil)
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
	c.Redirect(http.StatusFound, "/")
}

func (h *GoogleAuthHandler) fetchProfile(c *gin.Context, token *oauth2.Token) (*services.GoogleProfile, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.cfg.Client(c.Request.Context(), token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var p services.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &p, nil
}

func (h *GoogleAuthHandler) fail(c *gin.Context, code int, message string, err error) {
	if err != nil {
		l := logger.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("google sign-in failed")
	}
	Render(c, code, tplLogin, gin.H{
		"Title":    "Войти",
		"Error":    message,
		"Username": "",
		"Next":     "",
		"Google":   true,
	})
}
