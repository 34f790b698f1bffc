package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/models"
	"yatube/internal/services"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/create/":             "/create/",
		"/posts/1/?page=2":     "/posts/1/?page=2",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"https://evil.example": "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), "next=%q", in)
	}
}

func TestLoadTemplatesMissingDir(t *testing.T) {
	_, err := LoadTemplates(t.TempDir(), func(string) string { return "" })
	assert.Error(t, err)
}

func TestIndexFragmentRenders(t *testing.T) {
	views, err := LoadTemplates("../../web/templates", func(key string) string { return "/media/" + key })
	require.NoError(t, err)

	group := &models.Group{Title: "Коты", Slug: "cats"}
	page := &services.Page[models.Post]{
		Items: []models.Post{{
			ID:        7,
			Text:      "hello <b>world</b>",
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Author:    models.User{Username: "leo", FirstName: "Лев"},
			Group:     group,
			Image:     "posts/x.png",
		}},
		Number:     1,
		TotalItems: 11,
		TotalPages: 2,
	}

	out, err := renderFragment(views, tplIndexList, map[string]any{"Page": page})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "/posts/7/")
	assert.Contains(t, html, "/group/cats/")
	assert.Contains(t, html, "/media/posts/x.png")
	assert.Contains(t, html, "1 марта 2024")
	assert.Contains(t, html, "?page=2")
	assert.Contains(t, html, "world")
	assert.False(t, strings.Contains(html, "<b>world</b>"), "raw html in post text is dropped")
	assert.NotContains(t, html, "<html", "fragment must not include the layout")
}

func TestRenderFragmentUnknownTemplate(t *testing.T) {
	views, err := LoadTemplates("../../web/templates", func(string) string { return "" })
	require.NoError(t, err)

	_, err = renderFragment(views, "nope.html", nil)
	assert.Error(t, err)
}
