// Package theme loads the active site theme and renders it with the
// helper set, including the labs-gated template helpers.
package theme

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/services/labs"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// DefaultName is the theme shipped with the server.
const DefaultName = "paperlight"

//go:embed paperlight/*.tmpl
var defaultTheme embed.FS

// Site carries the site-wide values templates render.
type Site struct {
	Title       string
	Description string
}

// RenderContext is the data handed to every template execution.
type RenderContext struct {
	Site  Site
	Post  *post.Post
	Posts []post.Post
	Labs  map[string]bool
}

// Engine renders templates of one loaded theme.
type Engine struct {
	name string
	tmpl *template.Template
	log  *logger.Logger
}

// NewEngine parses every *.tmpl under themesDir/name with the helper funcs.
func NewEngine(themesDir, name string, funcs template.FuncMap, log *logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.NewDefault("theme")
	}
	if name == "" {
		name = DefaultName
	}

	pattern := filepath.Join(themesDir, name, "*.tmpl")
	tmpl, err := template.New(name).Funcs(funcs).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to load theme %s: %w", name, err)
	}

	log.Infof("theme %s loaded", name)
	return &Engine{name: name, tmpl: tmpl, log: log}, nil
}

// Name returns the loaded theme's name.
func (e *Engine) Name() string {
	return e.name
}

// Render executes the named template ("index", "post") into w.
func (e *Engine) Render(w io.Writer, name string, data RenderContext) error {
	if err := e.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// Helpers assembles the template FuncMap. The search and comments helpers
// run through the labs gate; taggedLink honors the outbound link tagging
// flag. ref is the value appended to tagged outbound links.
func Helpers(svc *labs.Service, ref string) template.FuncMap {
	search := svc.EnabledHelper(labs.HelperOptions{
		HelperName: "search",
		FlagKey:    "search",
		FlagName:   "Search",
	}, func(args ...any) template.HTML {
		return `<div class="site-search"><input type="search" placeholder="Search"></div>`
	})

	comments := svc.EnabledHelper(labs.HelperOptions{
		HelperName: "comments",
		FlagKey:    "comments",
		FlagName:   "Comments",
	}, func(args ...any) template.HTML {
		return `<section class="post-comments" data-comments></section>`
	})

	return template.FuncMap{
		"search":   search,
		"comments": comments,
		"asHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"taggedLink": func(href, text string) template.HTML {
			return taggedLink(svc, ref, href, text)
		},
	}
}

// taggedLink renders an outbound anchor, appending the ref parameter while
// the outboundLinkTagging flag is on.
func taggedLink(svc *labs.Service, ref, href, text string) template.HTML {
	if svc.IsEnabled("outboundLinkTagging") && ref != "" {
		if u, err := url.Parse(href); err == nil && u.IsAbs() {
			q := u.Query()
			q.Set("ref", ref)
			u.RawQuery = q.Encode()
			href = u.String()
		}
	}
	return template.HTML(fmt.Sprintf(
		`<a href="%s" rel="noopener">%s</a>`,
		template.HTMLEscapeString(href),
		template.HTMLEscapeString(text),
	))
}

// CopyDefault writes the embedded default theme under themesDir, creating
// directories as needed. Existing files are overwritten.
func CopyDefault(themesDir string) error {
	return fs.WalkDir(defaultTheme, DefaultName, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := filepath.Join(themesDir, path)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := defaultTheme.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", path, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
		return nil
	})
}

// Installed reports whether themesDir already holds the named theme.
func Installed(themesDir, name string) bool {
	entries, err := os.ReadDir(filepath.Join(themesDir, name))
	return err == nil && len(entries) > 0
}
