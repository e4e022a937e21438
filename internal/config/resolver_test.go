package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Aloroid/luau-lsp/internal/config"
)

func writeLayer(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInheritance(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(a, "b")
	writeLayer(t, a, `{"languageMode": "strict"}`)
	if err := os.MkdirAll(b, 0755); err != nil {
		t.Fatal(err)
	}

	r := config.NewResolver(root, config.Default())

	// No local layer in b: the parent's mode applies.
	if got := r.ConfigFor(b); got.LanguageMode != config.ModeStrict {
		t.Errorf("ConfigFor(a/b) mode = %q, want strict", got.LanguageMode)
	}

	// A local layer overrides the parent field-by-field.
	writeLayer(t, b, `{"languageMode": "nonstrict"}`)
	r.InvalidateAll()
	if got := r.ConfigFor(b); got.LanguageMode != config.ModeNonstrict {
		t.Errorf("ConfigFor(a/b) mode = %q, want nonstrict", got.LanguageMode)
	}
	// Parent is unaffected.
	if got := r.ConfigFor(a); got.LanguageMode != config.ModeStrict {
		t.Errorf("ConfigFor(a) mode = %q, want strict", got.LanguageMode)
	}
}

func TestAliasMerging(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "child")
	writeLayer(t, root, `{"aliases": {"std": "lib/std", "net": "lib/net"}}`)
	writeLayer(t, child, `{"aliases": {"net": "vendor/net"}}`)

	r := config.NewResolver(root, config.Default())
	got := r.ConfigFor(child)

	if got.Aliases["std"] != "lib/std" {
		t.Errorf("inherited alias std = %q", got.Aliases["std"])
	}
	if got.Aliases["net"] != "vendor/net" {
		t.Errorf("overridden alias net = %q", got.Aliases["net"])
	}

	// The parent's own entry must not have been mutated by the merge.
	if parent := r.ConfigFor(root); parent.Aliases["net"] != "lib/net" {
		t.Errorf("parent alias net = %q, want lib/net", parent.Aliases["net"])
	}
}

func TestBaselineWithoutLayers(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "x", "y", "z")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}

	r := config.NewResolver(root, config.Default())
	got := r.ConfigFor(deep)
	if got.LanguageMode != config.ModeNonstrict {
		t.Errorf("baseline mode = %q, want nonstrict", got.LanguageMode)
	}
	if len(got.Aliases) != 0 {
		t.Errorf("baseline aliases = %v, want empty", got.Aliases)
	}
}

func TestMalformedLayerDegrades(t *testing.T) {
	root := t.TempDir()
	writeLayer(t, root, `{"languageMode": "strict"}`)
	broken := filepath.Join(root, "broken")
	writeLayer(t, broken, `{not json`)

	r := config.NewResolver(root, config.Default())
	if got := r.ConfigFor(broken); got.LanguageMode != config.ModeStrict {
		t.Errorf("malformed layer should inherit, got mode %q", got.LanguageMode)
	}
}

func TestInvalidateAllRecomputes(t *testing.T) {
	root := t.TempDir()
	writeLayer(t, root, `{"languageMode": "strict"}`)

	r := config.NewResolver(root, config.Default())
	if got := r.ConfigFor(root); got.LanguageMode != config.ModeStrict {
		t.Fatalf("initial mode = %q", got.LanguageMode)
	}

	// Edit the layer on disk; the cached entry must not survive the flush.
	writeLayer(t, root, `{"languageMode": "nocheck"}`)
	if got := r.ConfigFor(root); got.LanguageMode != config.ModeStrict {
		t.Errorf("pre-invalidation read should come from cache, got %q", got.LanguageMode)
	}
	r.InvalidateAll()
	if got := r.ConfigFor(root); got.LanguageMode != config.ModeNoCheck {
		t.Errorf("post-invalidation mode = %q, want nocheck", got.LanguageMode)
	}
}
