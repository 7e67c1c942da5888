package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dvd/internal/config"
	"dvd/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("space", dir, 1); !r.Passed {
		t.Fatalf("expected pass with a 1 byte minimum, got %s", r.Detail)
	}
	if r := CheckFreeSpace("space", dir, ^uint64(0)); r.Passed {
		t.Fatal("expected failure with an unreachable minimum")
	}
	if r := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); r.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckCookies(t *testing.T) {
	if r := CheckCookies(""); !r.Passed || !r.Optional {
		t.Fatalf("unset cookies should pass as optional, got %#v", r)
	}
	if r := CheckCookies(filepath.Join(t.TempDir(), "missing.txt")); r.Passed {
		t.Fatal("expected failure for missing cookie file")
	}

	path := filepath.Join(t.TempDir(), "cookies.txt")
	body := "# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tSID\tabc\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	r := CheckCookies(path)
	if !r.Passed || !strings.Contains(r.Detail, "1 cookies") {
		t.Fatalf("unexpected result %#v", r)
	}
}

func TestCheckYouTube(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default().YouTube
	result := CheckYouTube(context.Background(), srv.URL, cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if gotUA != cfg.UserAgent {
		t.Fatalf("user agent = %q", gotUA)
	}
}

func TestCheckYouTube_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	result := CheckYouTube(context.Background(), srv.URL, config.Default().YouTube)
	if result.Passed || !strings.Contains(result.Detail, "429") {
		t.Fatalf("expected rate limit failure, got %#v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DatabaseRoot = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Name == "Database free space" {
			continue
		}
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestBlockingIgnoresOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	blocking := Blocking(results)
	if len(blocking) != 1 || blocking[0].Name != "c" {
		t.Fatalf("unexpected blocking set %#v", blocking)
	}
}

func TestRunAll_WithCookies(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCookies())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	var cookies Result
	for _, r := range RunAll(context.Background(), cfg) {
		if r.Name == "YouTube cookies" {
			cookies = r
		}
	}
	if !cookies.Passed || !strings.Contains(cookies.Detail, "1 cookies") {
		t.Fatalf("configured cookie file should pass, got %#v", cookies)
	}
}
