package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"yatube/internal/services"
	"yatube/internal/utils"
)

const feedSize = 20

type SEOHandler struct {
	posts   *services.PostService
	siteURL string
}

func NewSEOHandler(posts *services.PostService, siteURL string) *SEOHandler {
	return &SEOHandler{posts: posts, siteURL: strings.TrimSuffix(siteURL, "/")}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /auth/
Disallow: /create/
Disallow: /follow/

# RSS: %s/feed.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// RSSFeed is an RSS 2.0 feed of the newest posts. Items carry no <author>:
// RSS wants an email there and addresses are not published.
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	posts, err := h.posts.Latest(c.Request.Context(), feedSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	feed := &feeds.Feed{
		Title:       "Yatube",
		Link:        &feeds.Link{Href: h.siteURL + "/"},
		Description: "Последние обновления на сайте",
		Updated:     time.Now(),
	}
	for _, post := range posts {
		link := h.siteURL + postURL(post.ID)
		body := string(utils.RenderMarkdown(post.Text))
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       utils.Truncate(utils.StripHTML(body), 60),
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: body,
			Created:     post.CreatedAt,
		})
	}

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = "ru-RU"
	for i, post := range posts {
		if post.Group != nil {
			rss.Items[i].Category = post.Group.Title
		}
	}

	out, err := feeds.ToXML(rss)
	if err != nil {
		handleServiceError(c, fmt.Errorf("encode rss: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(out))
}
