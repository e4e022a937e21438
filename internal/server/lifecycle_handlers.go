package server

import (
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Aloroid/luau-lsp/internal/sourcemap"
	"github.com/Aloroid/luau-lsp/internal/workspace"
)

var version = "(dev) v0.0.0"

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	config, err := loadConfig(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	s.config = config
	log.Printf("Config: %+v", config)

	// Root
	if params.RootURI == nil {
		cwd, _ := os.Getwd()
		s.rootPath = cwd
	} else {
		rootUri, err := url.Parse(*params.RootURI)
		if err != nil {
			return nil, err
		}
		s.rootPath = rootUri.Path
	}

	// One resolver per workspace, torn down with the server.
	s.resolver = workspace.NewFileResolver(s.rootPath)
	s.resolver.SetDirectoryAliases(config.Require.DirectoryAliases)

	if config.Sourcemap.Enabled {
		s.loadSourceMap()
	}

	syncKind := protocol.TextDocumentSyncKindFull

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &protocol.False},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

// sourcemapPath resolves the configured sourcemap file, which may include
// a directory component, against the workspace root.
func (s *Server) sourcemapPath() string {
	return sourcemap.NormalizePath(filepath.Join(s.rootPath, s.config.Sourcemap.File))
}

// loadSourceMap reads the configured sourcemap file and rebuilds the
// index. A missing or malformed file leaves the current tree in place.
func (s *Server) loadSourceMap() {
	path := filepath.FromSlash(s.sourcemapPath())
	contents, err := os.ReadFile(path)
	if err != nil {
		log.Printf("No sourcemap at %s: %v", path, err)
		return
	}
	if err := s.resolver.UpdateSourceMap(contents); err != nil {
		log.Printf("Sourcemap rejected, keeping previous tree: %v", err)
		return
	}
	log.Printf("Sourcemap loaded from %s", path)
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Println("Client initialized.")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	log.Println("Server shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
