package theme

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/services/labs"
)

type fakeSource map[string]string

func (f fakeSource) GetString(key string) string { return f[key] }

func newEngine(t *testing.T, src labs.Source) *Engine {
	t.Helper()
	dir := t.TempDir()
	if err := CopyDefault(dir); err != nil {
		t.Fatalf("copy default theme: %v", err)
	}

	svc := labs.New(src, labs.Config{}, nil)
	engine, err := NewEngine(dir, DefaultName, Helpers(svc, "wisp"), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestCopyDefaultInstallsTheme(t *testing.T) {
	dir := t.TempDir()
	if Installed(dir, DefaultName) {
		t.Fatalf("empty dir reported installed")
	}
	if err := CopyDefault(dir); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !Installed(dir, DefaultName) {
		t.Fatalf("theme missing after copy")
	}
}

func TestRenderIndexWithSearchEnabled(t *testing.T) {
	engine := newEngine(t, fakeSource{"labs": `{"search":true}`})

	var buf bytes.Buffer
	err := engine.Render(&buf, "index", RenderContext{
		Site:  Site{Title: "My Site", Description: "Words"},
		Posts: []post.Post{{Title: "Hello", Slug: "hello"}},
		Labs:  map[string]bool{"search": true},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "My Site") {
		t.Fatalf("site title missing:\n%s", out)
	}
	if !strings.Contains(out, `href="/hello"`) {
		t.Fatalf("post link missing:\n%s", out)
	}
	if !strings.Contains(out, "site-search") {
		t.Fatalf("search box missing while flag enabled:\n%s", out)
	}
	if !strings.Contains(out, "has-search") {
		t.Fatalf("labs snapshot not applied to body class:\n%s", out)
	}
}

func TestRenderIndexWithSearchDisabled(t *testing.T) {
	engine := newEngine(t, fakeSource{"labs": `{}`})

	var buf bytes.Buffer
	err := engine.Render(&buf, "index", RenderContext{
		Site: Site{Title: "My Site"},
		Labs: map[string]bool{},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "site-search") {
		t.Fatalf("search box rendered while flag disabled:\n%s", out)
	}
	if !strings.Contains(out, "console.error") {
		t.Fatalf("disabled helper fragment missing:\n%s", out)
	}
}

func TestRenderPostBody(t *testing.T) {
	engine := newEngine(t, fakeSource{"labs": `{"comments":true}`})

	p := post.Post{Title: "Post", HTML: "<p>body <strong>bold</strong></p>"}
	var buf bytes.Buffer
	err := engine.Render(&buf, "post", RenderContext{
		Site: Site{Title: "My Site"},
		Post: &p,
		Labs: map[string]bool{"comments": true},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<p>body <strong>bold</strong></p>") {
		t.Fatalf("post html escaped:\n%s", out)
	}
	if !strings.Contains(out, "post-comments") {
		t.Fatalf("comments section missing while enabled:\n%s", out)
	}
}

func TestTaggedLinkAppendsRef(t *testing.T) {
	svc := labs.New(fakeSource{"labs": `{}`}, labs.Config{}, nil)

	link := string(taggedLink(svc, "wisp", "https://example.com/article", "Read"))
	if !strings.Contains(link, "ref=wisp") {
		t.Fatalf("ref parameter missing: %s", link)
	}

	relative := string(taggedLink(svc, "wisp", "/about", "About"))
	if strings.Contains(relative, "ref=") {
		t.Fatalf("relative link tagged: %s", relative)
	}
}
