package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/testutil"
)

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, profile services.GoogleProfile) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.ParseForm() != nil || r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGoogleEngine(t *testing.T, profile services.GoogleProfile) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutil.NewDB(t)
	srv := fakeGoogle(t, profile)

	h := NewGoogleAuthHandler("client-id", "client-secret", "https://yatube.example/", services.NewUserService(gdb))
	h.cfg.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	h.userInfoURL = srv.URL + "/userinfo"

	views, err := LoadTemplates("../../web/templates", func(string) string { return "" })
	require.NoError(t, err)

	r := gin.New()
	r.Use(sessions.Sessions("yatube_session", cookie.NewStore([]byte("test-secret"))))
	r.HTMLRender = views
	r.GET("/auth/google/login/", h.Login)
	r.GET("/auth/google/callback/", h.Callback)
	return r, gdb
}

func serve(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// startGoogleLogin returns the state Google would echo back and the
// session cookies carrying it.
func startGoogleLogin(t *testing.T, r *gin.Engine) (string, []*http.Cookie) {
	t.Helper()
	rec := serve(r, "/auth/google/login/", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://yatube.example/auth/google/callback/", loc.Query().Get("redirect_uri"))
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state, rec.Result().Cookies()
}

func TestGoogleCallbackCreatesUser(t *testing.T) {
	r, gdb := newGoogleEngine(t, services.GoogleProfile{
		ID: "g-1", Email: "leo@example.com", VerifiedEmail: true, GivenName: "Лев", FamilyName: "Толстой",
	})
	state, cookies := startGoogleLogin(t, r)

	rec := serve(r, "/auth/google/callback/?code=good-code&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var user models.User
	require.NoError(t, gdb.Where("google_id = ?", "g-1").First(&user).Error)
	assert.Equal(t, "leo", user.Username)
	assert.Equal(t, "Лев", user.FirstName)
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	r, _ := newGoogleEngine(t, services.GoogleProfile{ID: "g-1", Email: "leo@example.com", VerifiedEmail: true})
	_, cookies := startGoogleLogin(t, r)

	rec := serve(r, "/auth/google/callback/?code=good-code&state=forged", cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, "/auth/google/callback/?code=good-code&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleCallbackFailures(t *testing.T) {
	r, gdb := newGoogleEngine(t, services.GoogleProfile{ID: "g-2", Email: "ann@example.com"})

	state, cookies := startGoogleLogin(t, r)
	rec := serve(r, "/auth/google/callback/?code=bad-code&state="+url.QueryEscape(state), cookies)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	state, cookies = startGoogleLogin(t, r)
	rec = serve(r, "/auth/google/callback/?code=good-code&state="+url.QueryEscape(state), cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unverified email")

	var count int64
	gdb.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}
