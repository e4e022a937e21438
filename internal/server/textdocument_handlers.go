package server

import (
	"fmt"
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	doc := params.TextDocument
	if err := s.resolver.Overlay().Open(doc.URI, doc.LanguageID, doc.Version, doc.Text); err != nil {
		return err
	}
	s.publishRequireDiagnostics(context, doc.URI)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			if err := s.resolver.Overlay().Change(uri, params.TextDocument.Version, change.Text); err != nil {
				return err
			}
		case protocol.TextDocumentContentChangeEvent:
			// Full sync is negotiated at initialize; a ranged change is a
			// client bug.
			if change.Range != nil {
				return fmt.Errorf("incremental change received under full sync for %s", uri)
			}
			if err := s.resolver.Overlay().Change(uri, params.TextDocument.Version, change.Text); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected change event type %T", raw)
		}
	}
	s.publishRequireDiagnostics(context, uri)
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	// The overlay already holds the saved content; just re-validate.
	s.publishRequireDiagnostics(context, params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	if err := s.resolver.Overlay().Close(params.TextDocument.URI); err != nil {
		return err
	}
	// Disk is authoritative again; retract diagnostics for the buffer.
	publishDiagnostics(context, params.TextDocument.URI, nil)
	return nil
}

// publishRequireDiagnostics runs the require scan over the open buffer and
// reports every require no resolution rule matches.
func (s *Server) publishRequireDiagnostics(context *glsp.Context, uri string) {
	doc, ok := s.resolver.Overlay().Get(uri)
	if !ok {
		return
	}
	moduleName := s.resolver.ModuleNameOf(uri)
	diagnostics, err := s.scanner.UnresolvedRequires(s.resolver, moduleName, []byte(doc.Text))
	if err != nil {
		log.Printf("Require scan failed for %s: %v", uri, err)
		return
	}
	publishDiagnostics(context, uri, diagnostics)
}

func publishDiagnostics(
	context *glsp.Context,
	uri string,
	diagnostics []protocol.Diagnostic,
) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	context.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
