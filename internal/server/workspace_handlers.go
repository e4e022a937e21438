package server

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Aloroid/luau-lsp/internal/config"
	"github.com/Aloroid/luau-lsp/internal/document"
	"github.com/Aloroid/luau-lsp/internal/sourcemap"
)

// setPluginInfoCommand carries DataModel information from the companion
// studio plugin.
const setPluginInfoCommand = "luau-lsp.setPluginInfo"

func (s *Server) workspaceDidChangeWatchedFiles(
	context *glsp.Context,
	params *protocol.DidChangeWatchedFilesParams,
) error {
	// The configured sourcemap file may carry a directory component, so
	// events are matched on the resolved path, not the base name.
	sourcemapPath := s.sourcemapPath()
	for _, event := range params.Changes {
		path, ok := document.URIToPath(string(event.URI))
		if !ok {
			continue
		}
		switch {
		case filepath.Base(path) == config.ConfigFileName:
			// A single layer edit can affect arbitrary descendants; flush
			// everything.
			log.Printf("Configuration changed (%s), flushing config cache", path)
			s.resolver.InvalidateConfig()
		case path == sourcemapPath:
			if s.config.Sourcemap.Enabled {
				log.Printf("Sourcemap changed (%s), rebuilding index", path)
				s.loadSourceMap()
			}
		}
	}
	return nil
}

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	switch params.Command {
	case setPluginInfoCommand:
		if len(params.Arguments) == 0 {
			s.resolver.SetPluginInfo(nil)
			return nil, nil
		}
		data, err := json.Marshal(params.Arguments[0])
		if err != nil {
			return nil, err
		}
		root, err := sourcemap.ParsePlugin(data)
		if err != nil {
			return nil, fmt.Errorf("plugin info rejected: %w", err)
		}
		s.resolver.SetPluginInfo(root)
		return nil, nil
	}
	return nil, nil
}
