package server

import (
	"os"
	"path/filepath"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Aloroid/luau-lsp/internal/config"
	"github.com/Aloroid/luau-lsp/internal/document"
	"github.com/Aloroid/luau-lsp/internal/workspace"
)

func newTestServer(t *testing.T, sourcemapFile string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	s := &Server{
		config: Config{
			Sourcemap: SourcemapConfig{Enabled: true, File: sourcemapFile},
		},
		rootPath: root,
		resolver: workspace.NewFileResolver(root),
	}
	return s, root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchedSourcemapInSubdirectory(t *testing.T) {
	s, root := newTestServer(t, "build/sourcemap.json")
	mapPath := filepath.Join(root, "build", "sourcemap.json")
	writeFile(t, mapPath, `{
		"name": "Project",
		"className": "Folder",
		"children": [
			{"name": "Foo", "className": "ModuleScript", "filePaths": ["src/Foo.luau"]}
		]
	}`)

	err := s.workspaceDidChangeWatchedFiles(nil, &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{
			{URI: document.PathToURI(mapPath), Type: protocol.FileChangeTypeChanged},
		},
	})
	if err != nil {
		t.Fatalf("watched-files handler failed: %v", err)
	}
	if _, ok := s.resolver.ResolveToRealPath("ProjectRoot/Foo"); !ok {
		t.Error("sourcemap change in a subdirectory did not trigger a reload")
	}
}

func TestWatchedConfigFlushesCache(t *testing.T) {
	s, root := newTestServer(t, "sourcemap.json")
	layer := filepath.Join(root, config.ConfigFileName)
	module := filepath.ToSlash(filepath.Join(root, "x.luau"))
	writeFile(t, filepath.FromSlash(module), "return 0")

	// Prime the cache with the baseline before a layer exists.
	if got := s.resolver.ConfigFor(module); got.LanguageMode != config.ModeNonstrict {
		t.Fatalf("baseline mode = %q", got.LanguageMode)
	}

	writeFile(t, layer, `{"languageMode": "strict"}`)
	err := s.workspaceDidChangeWatchedFiles(nil, &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{
			{URI: document.PathToURI(layer), Type: protocol.FileChangeTypeCreated},
		},
	})
	if err != nil {
		t.Fatalf("watched-files handler failed: %v", err)
	}
	if got := s.resolver.ConfigFor(module); got.LanguageMode != config.ModeStrict {
		t.Errorf("post-flush mode = %q, want strict", got.LanguageMode)
	}
}
