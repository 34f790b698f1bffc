package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-contrib/multitemplate"

	"yatube/internal/utils"
)

var months = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func templateFuncs(mediaURL func(string) string) template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"date": func(t time.Time) string {
			return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
		},
		"timeAgo": func(t time.Time) string {
			seconds := int(time.Since(t).Seconds())
			switch {
			case seconds < 60:
				return "только что"
			case seconds < 3600:
				return fmt.Sprintf("%d мин. назад", seconds/60)
			case seconds < 86400:
				return fmt.Sprintf("%d ч. назад", seconds/3600)
			case seconds < 2592000:
				return fmt.Sprintf("%d дн. назад", seconds/86400)
			}
			return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
		},
		"markdown": utils.RenderMarkdown,
		"truncate": utils.Truncate,
		"media":    mediaURL,
	}
}

// LoadTemplates builds one template set per page: layouts, includes and
// components plus the view. Fragments rendered on their own (the cached
// index listing) get only the includes.
func LoadTemplates(templatesDir string, mediaURL func(string) string) (multitemplate.Render, error) {
	r := multitemplate.New()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		return nil, err
	}
	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts under %s", templatesDir)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, view)
		return files
	}

	funcMap := templateFuncs(mediaURL)
	views := templatesDir + "/views/"
	for _, name := range pageTemplates {
		if _, err := addFromFiles(r, name, funcMap, assemble(views+name)...); err != nil {
			return nil, err
		}
	}
	for _, name := range fragmentTemplates {
		files := append([]string{views + name}, includes...)
		if _, err := addFromFiles(r, name, funcMap, files...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

const (
	tplIndex              = "posts/index.html"
	tplIndexList          = "posts/index_list.html"
	tplGroupList          = "posts/group_list.html"
	tplProfile            = "posts/profile.html"
	tplPostDetail         = "posts/post_detail.html"
	tplCreatePost         = "posts/create_post.html"
	tplFollow             = "posts/follow.html"
	tplLogin              = "users/login.html"
	tplSignup             = "users/signup.html"
	tplLoggedOut          = "users/logged_out.html"
	tplPasswordChange     = "users/password_change.html"
	tplPasswordChangeDone = "users/password_change_done.html"
	tplError              = "core/error.html"
	tplAboutAuthor        = "about/author.html"
	tplAboutTech          = "about/tech.html"
)

var pageTemplates = []string{
	tplIndex, tplGroupList, tplProfile, tplPostDetail, tplCreatePost, tplFollow,
	tplLogin, tplSignup, tplLoggedOut, tplPasswordChange, tplPasswordChangeDone,
	tplError, tplAboutAuthor, tplAboutTech,
}

var fragmentTemplates = []string{tplIndexList}

// addFromFiles is multitemplate's AddFromFilesFuncs without the panic on a
// parse error.
func addFromFiles(r multitemplate.Render, name string, funcMap template.FuncMap, files ...string) (*template.Template, error) {
	tmpl, err := template.New(filepath.Base(files[0])).Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	r.Add(name, tmpl)
	return tmpl, nil
}

// renderFragment executes a named template set into memory.
func renderFragment(r multitemplate.Render, name string, data any) ([]byte, error) {
	tmpl, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("template %s not loaded", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
