package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	c := Disabled()
	defer c.Close()

	if err := c.Set(ctx, "render:abc", []byte("png"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "render:abc")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "render:abc"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	png := []byte("\x89PNG")
	h := Hash(png)
	if h != Hash(png) {
		t.Error("Hash should be deterministic")
	}
	if h == Hash([]byte("GIF89a")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := RenderKeyOpts{Size: 1024, Samples: 4, Colors: [3]string{"#ffffff", "#30b0c7", "#32ade6"}, Fill: "none"}

	k1 := k.RenderKey("hash123", base)
	if k1 != k.RenderKey("hash123", base) {
		t.Error("RenderKey should be deterministic")
	}
	if !strings.HasPrefix(k1, "render:") {
		t.Errorf("RenderKey unexpected: %s", k1)
	}

	changed := []func(o *RenderKeyOpts){
		func(o *RenderKeyOpts) { o.Size = 512 },
		func(o *RenderKeyOpts) { o.Samples = 2 },
		func(o *RenderKeyOpts) { o.Colors[1] = "#000000" },
		func(o *RenderKeyOpts) { o.Rotation[1] = 0.5 },
		func(o *RenderKeyOpts) { o.Background = true },
		func(o *RenderKeyOpts) { o.Symbol = true },
	}
	for i, change := range changed {
		opts := base
		change(&opts)
		if k.RenderKey("hash123", opts) == k1 {
			t.Errorf("change %d should produce a different key", i)
		}
	}
	if k.RenderKey("hash456", base) == k1 {
		t.Error("different inputs should produce different keys")
	}
}

func TestScope(t *testing.T) {
	tests := []struct {
		name   string
		inner  Keyer
		prefix string
	}{
		{"explicit inner", NewDefaultKeyer(), "serve:"},
		{"nil inner", nil, "tweak:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := Scope(tt.inner, tt.prefix).RenderKey("abc", RenderKeyOpts{Size: 64})
			want := tt.prefix + NewDefaultKeyer().RenderKey("abc", RenderKeyOpts{Size: 64})
			if key != want {
				t.Errorf("key = %q, want %q", key, want)
			}
			if got := keyType(key); got != "render" {
				t.Errorf("keyType(%q) = %q, want render", key, got)
			}
		})
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "render:a"); hit || err != nil {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "render:a", []byte{0x89, 'P', 'N', 'G'}, time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "render:a")
	if err != nil || !hit || string(data) != "\x89PNG" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "render:b", []byte("old"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "render:b"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "render:a"); hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"render:a", "render:b", "render:c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the directory: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("render:x")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "render:x"); hit || err != nil {
		t.Errorf("corrupt entry Get = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}
