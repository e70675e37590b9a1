package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/qarchsearch/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Setenv(cacheDirEnv, "")
	dir, err := cacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	if !strings.HasSuffix(dir, appName) {
		t.Errorf("cacheDir() = %q, should end with %q", dir, appName)
	}
}

func TestCacheDirEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "c")
	t.Setenv(cacheDirEnv, want+string(filepath.Separator))
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	c, err := newCache(ctx, backendOpts{noCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("noCache: got %T", c)
	}

	dir := t.TempDir()
	c, err = newCache(ctx, backendOpts{cacheDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok || fc.Dir() != dir {
		t.Fatalf("file cache: got %T", c)
	}
	if err := fc.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error(err)
	}

	if _, err := newCache(ctx, backendOpts{redisURL: "not a url"}); err == nil {
		t.Error("bad redis url: want error")
	}
}
