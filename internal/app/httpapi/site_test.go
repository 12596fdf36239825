package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSiteDisabledWithoutTheme(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without theme, got %d", rec.Code)
	}
}

func TestSiteIndexRenders(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Wisp") {
		t.Fatalf("site title missing:\n%s", body)
	}
	if !strings.Contains(body, `href="/welcome"`) {
		t.Fatalf("post link missing:\n%s", body)
	}
}

func TestSitePostRenders(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/welcome", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<p>hi</p>") {
		t.Fatalf("post body missing:\n%s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/no-such-post", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", rec.Code)
	}
}

func TestSiteDoesNotShadowAPI(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/wisp/api/content/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("API path shadowed by slug route: %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz shadowed: %d", rec.Code)
	}
}

func TestLoadRedirects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.yaml")
	content := "- from: /old\n  to: /welcome\n  permanent: true\n- from: /gone\n  to: https://example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	redirects, err := LoadRedirects(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(redirects) != 2 || !redirects[0].Permanent || redirects[1].Permanent {
		t.Fatalf("unexpected redirects: %+v", redirects)
	}

	missing, err := LoadRedirects(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil || missing != nil {
		t.Fatalf("missing file should be empty table, got %v %v", missing, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("- from: old\n  to: /x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRedirects(bad); err == nil {
		t.Fatalf("expected validation error for relative from")
	}
}

func TestRedirectRoute(t *testing.T) {
	f := newFixtureWithRedirects(t, []Redirect{{From: "/old", To: "/welcome", Permanent: true}})
	rec := f.do(t, http.MethodGet, "/old", "", nil)
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/welcome" {
		t.Fatalf("unexpected location: %q", got)
	}
}
