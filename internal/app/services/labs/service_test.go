package labs

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTierOf(t *testing.T) {
	cases := map[string]string{
		"lazyLoadImages": TierGA,
		"search":         TierBeta,
		"collections":    TierBeta,
		"urlCache":       TierAlpha,
		"madeUp":         "",
	}
	for key, want := range cases {
		if got := TierOf(key); got != want {
			t.Fatalf("TierOf(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestFilterWritable(t *testing.T) {
	raw := `{"search":true,"urlCache":true,"lazyLoadImages":false,"madeUp":true}`
	filtered, err := FilterWritable(raw)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	var flags map[string]bool
	if err := json.Unmarshal([]byte(filtered), &flags); err != nil {
		t.Fatalf("unmarshal filtered: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("expected 2 surviving flags, got %v", flags)
	}
	if !flags["search"] || !flags["urlCache"] {
		t.Fatalf("expected search and urlCache to survive, got %v", flags)
	}
}

func TestFilterWritableRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `["search"]`, `{"search":"yes"}`} {
		if _, err := FilterWritable(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestAllForcesGAFlags(t *testing.T) {
	svc := New(fakeSource{"labs": `{"lazyLoadImages":false}`}, Config{}, nil)

	flags := svc.All()
	for _, key := range GAFlags {
		if !flags[key] {
			t.Fatalf("expected GA flag %s enabled, got %v", key, flags)
		}
	}
}

func TestAllReadsBetaFromStore(t *testing.T) {
	svc := New(fakeSource{"labs": `{"search":true,"comments":false}`}, Config{}, nil)

	flags := svc.All()
	if !flags["search"] {
		t.Fatalf("expected search enabled")
	}
	if flags["comments"] {
		t.Fatalf("expected comments disabled")
	}
	if flags["collections"] {
		t.Fatalf("expected unset beta flag to read disabled")
	}
}

func TestAllAlphaVisibility(t *testing.T) {
	src := fakeSource{"labs": `{"urlCache":true}`}

	if New(src, Config{}, nil).IsEnabled("urlCache") {
		t.Fatalf("alpha flag visible without experiments or dev env")
	}
	if !New(src, Config{DeveloperExperiments: true}, nil).IsEnabled("urlCache") {
		t.Fatalf("alpha flag hidden despite developer experiments")
	}
	if !New(src, Config{DevOrTesting: true}, nil).IsEnabled("urlCache") {
		t.Fatalf("alpha flag hidden despite dev environment")
	}
}

func TestAllDropsUnknownKeys(t *testing.T) {
	svc := New(fakeSource{"labs": `{"madeUp":true}`}, Config{DeveloperExperiments: true}, nil)

	if _, ok := svc.All()["madeUp"]; ok {
		t.Fatalf("expected unknown key dropped")
	}
}

func TestAllToleratesMissingValue(t *testing.T) {
	flags := New(fakeSource{}, Config{}, nil).All()
	if len(flags) != len(GAFlags) {
		t.Fatalf("expected only GA flags, got %v", flags)
	}
}

func TestFlags(t *testing.T) {
	svc := New(fakeSource{"labs": `{"search":true}`}, Config{}, nil)

	flags := svc.Flags()
	if len(flags) != len(GAFlags)+len(BetaFlags)+len(AlphaFlags) {
		t.Fatalf("expected every registered flag listed, got %d", len(flags))
	}
	byKey := make(map[string]Flag, len(flags))
	for _, f := range flags {
		byKey[f.Key] = f
	}
	if f := byKey["lazyLoadImages"]; f.Tier != TierGA || !f.Enabled {
		t.Fatalf("unexpected GA entry: %+v", f)
	}
	if f := byKey["search"]; f.Tier != TierBeta || !f.Enabled {
		t.Fatalf("unexpected beta entry: %+v", f)
	}
	if f := byKey["urlCache"]; f.Tier != TierAlpha || f.Enabled {
		t.Fatalf("unexpected alpha entry: %+v", f)
	}
}

func TestEnabledHelper(t *testing.T) {
	src := fakeSource{"labs": `{"search":true}`}
	svc := New(src, Config{}, nil)

	helper := svc.EnabledHelper(HelperOptions{
		HelperName: "search",
		FlagKey:    "search",
		FlagName:   "Search",
	}, func(args ...any) template.HTML {
		return "<div>search box</div>"
	})
	if got := helper(); got != "<div>search box</div>" {
		t.Fatalf("enabled helper output: %q", got)
	}

	src["labs"] = `{"search":false}`
	out := string(helper())
	if !strings.Contains(out, "console.error") {
		t.Fatalf("expected error fragment, got %q", out)
	}
	if !strings.Contains(out, "search helper is not available") {
		t.Fatalf("expected helper name in fragment, got %q", out)
	}
}

func TestEnabledHelperCustomRender(t *testing.T) {
	svc := New(fakeSource{"labs": `{}`}, Config{}, nil)

	helper := svc.EnabledHelper(HelperOptions{
		HelperName:  "comments",
		FlagKey:     "comments",
		FlagName:    "Comments",
		ErrorRender: func(err error) template.HTML { return "<!-- off -->" },
	}, func(args ...any) template.HTML {
		t.Fatalf("wrapped helper must not run while disabled")
		return ""
	})
	if got := helper(); got != "<!-- off -->" {
		t.Fatalf("custom render output: %q", got)
	}
}

func TestEnabledMiddleware(t *testing.T) {
	src := fakeSource{"labs": `{}`}
	svc := New(src, Config{}, nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := svc.EnabledMiddleware("collections")(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 while disabled, got %d", rec.Code)
	}

	src["labs"] = `{"collections":true}`
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 while enabled, got %d", rec.Code)
	}
}

type fakeSource map[string]string

func (f fakeSource) GetString(key string) string { return f[key] }
