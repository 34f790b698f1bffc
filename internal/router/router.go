package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yatube/internal/handlers"
	"yatube/internal/logger"
	"yatube/internal/middleware"
	"yatube/internal/services"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Posts   *handlers.PostHandler
	Profile *handlers.ProfileHandler
	SEO     *handlers.SEOHandler
	// Google is nil when Google sign-in is not configured.
	Google *handlers.GoogleAuthHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// Public routes
	r.GET("/", h.Posts.Index)                       // home timeline, cached
	r.GET("/group/:slug/", h.Posts.GroupPosts)      // posts of one group
	r.GET("/profile/:username/", h.Profile.Profile) // posts of one author
	r.GET("/posts/:id/", h.Posts.Detail)            // post with comments
	r.GET("/about/author/", handlers.AboutAuthor)   // static page
	r.GET("/about/tech/", handlers.AboutTech)       // static page
	r.GET("/health", handlers.Health)               // liveness probe
	r.GET("/feed.xml", h.SEO.RSSFeed)               // newest posts as RSS
	r.GET("/robots.txt", h.SEO.RobotsTxt)

	auth := r.Group("/auth")
	{
		auth.GET("/signup/", h.Auth.ShowSignup)
		auth.POST("/signup/", h.Auth.Signup)
		auth.GET("/login/", h.Auth.ShowLogin)
		auth.POST("/login/", h.Auth.Login)
		auth.GET("/logout/", h.Auth.Logout)
		if h.Google != nil {
			auth.GET("/google/login/", h.Google.Login)
			auth.GET("/google/callback/", h.Google.Callback)
		}
	}

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/create/", h.Posts.ShowCreate)
		authorized.POST("/create/", h.Posts.Create)
		authorized.GET("/posts/:id/edit/", h.Posts.ShowEdit)
		authorized.POST("/posts/:id/edit/", h.Posts.Update)
		authorized.POST("/posts/:id/delete/", h.Posts.Delete)
		authorized.POST("/posts/:id/comment/", h.Posts.AddComment)
		authorized.GET("/follow/", h.Profile.Feed)
		authorized.POST("/profile/:username/follow/", h.Profile.Follow)
		authorized.POST("/profile/:username/unfollow/", h.Profile.Unfollow)
		authorized.GET("/auth/password_change/", h.Auth.ShowPasswordChange)
		authorized.POST("/auth/password_change/", h.Auth.PasswordChange)
		authorized.GET("/auth/password_change/done/", h.Auth.PasswordChangeDone)
	}

	r.NoRoute(handlers.RenderNotFound)
}

// Options configures the engine around the routes.
type Options struct {
	Logger        zerolog.Logger
	SessionSecret string
	Views         multitemplate.Render
	Users         *services.UserService
	// MediaDir is served at MediaURL when images live on local disk.
	MediaDir string
	MediaURL string
}

// NewEngine builds the gin engine: request logging, recovery, cookie
// sessions, the session user and every route.
func NewEngine(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinMiddleware(opts.Logger), gin.Recovery())
	var gzipOpts []gzip.Option
	if opts.MediaURL != "" {
		// uploaded images are already compressed
		gzipOpts = append(gzipOpts, gzip.WithExcludedPaths([]string{opts.MediaURL}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzipOpts...))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("yatube_session", store))

	r.HTMLRender = opts.Views
	if opts.MediaDir != "" {
		r.Static(opts.MediaURL, opts.MediaDir)
	}

	r.Use(middleware.LoadUser(opts.Users))
	RegisterRoutes(r, h)
	return r
}
