// Package server binds the editor transport onto the workspace resolver:
// document lifecycle events feed the overlay, watched-file events feed the
// sourcemap index and configuration cache.
package server

import (
	"encoding/json"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/Aloroid/luau-lsp/internal/analysis"
	"github.com/Aloroid/luau-lsp/internal/workspace"
)

const lsName = "luau-lsp"

// Config is the client-provided initialization options surface.
type Config struct {
	Sourcemap SourcemapConfig `json:"sourcemap"`
	Require   RequireConfig   `json:"require"`
}

type SourcemapConfig struct {
	// Whether Rojo sourcemap features are enabled at all.
	Enabled bool `json:"enabled"`
	// The sourcemap file to watch, relative to the workspace root.
	File string `json:"sourcemapFile"`
}

type RequireConfig struct {
	// Editor-level directory aliases, on top of .luaurc aliases.
	DirectoryAliases map[string]string `json:"directoryAliases"`
}

var defaultConfig = Config{
	Sourcemap: SourcemapConfig{
		Enabled: true,
		File:    "sourcemap.json",
	},
}

// loadConfig decodes initialization options over the defaults; only fields
// the client sends overwrite.
func loadConfig(v any) (Config, error) {
	cfg := defaultConfig

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal initialization options: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}
	return cfg, nil
}

type Server struct {
	handler  *protocol.Handler
	config   Config
	rootPath string
	resolver *workspace.FileResolver
	scanner  *analysis.Scanner
}

func NewServer() (*glspserver.Server, error) {
	s := &Server{
		scanner: analysis.NewScanner(),
	}
	s.handler = &protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.textDocumentDidOpen,
		TextDocumentDidChange:          s.textDocumentDidChange,
		TextDocumentDidSave:            s.textDocumentDidSave,
		TextDocumentDidClose:           s.textDocumentDidClose,
		WorkspaceDidChangeWatchedFiles: s.workspaceDidChangeWatchedFiles,
		WorkspaceExecuteCommand:        s.workspaceExecuteCommand,
	}

	return glspserver.NewServer(s.handler, lsName, false), nil
}
