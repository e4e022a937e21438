// Package analysis extracts require calls from Lua source and runs them
// through the workspace resolver, standing in for the typechecker's module
// resolution pass. The resolution core itself never parses source; all
// parsing lives here.
package analysis

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/lua"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Aloroid/luau-lsp/internal/workspace"
)

// Require is one require call found in a document. Node is the argument
// expression handed to the resolver: a string literal when one exists,
// otherwise the call itself (a computed require).
type Require struct {
	Node  *sitter.Node
	Range protocol.Range
}

// Scanner parses Lua documents and locates their require calls. A Scanner
// is not safe for concurrent use; the server keeps one per workspace
// behind its own lock.
type Scanner struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewScanner creates a Scanner for the Lua grammar.
func NewScanner() *Scanner {
	p := sitter.NewParser()
	p.SetLanguage(lua.GetLanguage())
	return &Scanner{parser: p}
}

// Scan parses src and returns every require call in document order. The
// returned nodes borrow from the parsed tree, which stays alive until the
// next Scan.
func (s *Scanner) Scan(src []byte) ([]Require, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("analysis: parse failed: %w", err)
	}

	var requires []Require
	walk(tree.RootNode(), func(node *sitter.Node) {
		if node.Type() != "identifier" || node.Content(src) != "require" {
			return
		}
		call, arg := findCall(node)
		if arg == nil {
			return
		}
		requires = append(requires, Require{
			Node:  arg,
			Range: nodeRange(call),
		})
	})
	return requires, nil
}

// findCall climbs from the callee identifier to the enclosing call.
// Identifying calls through the callee rather than grammar-specific field
// names keeps this independent of the exact Lua grammar revision; the
// climb is bounded because a callee sits at most a couple of wrapper nodes
// below its call.
func findCall(callee *sitter.Node) (*sitter.Node, *sitter.Node) {
	call := callee.Parent()
	for depth := 0; call != nil && depth < 3; depth++ {
		if arg := argumentOf(call); arg != nil {
			return call, arg
		}
		call = call.Parent()
	}
	return nil, nil
}

// argumentOf picks the argument expression of a require call: a string
// literal sitting directly in the call's argument list, or the call itself
// when the argument is computed.
func argumentOf(call *sitter.Node) *sitter.Node {
	var literal *sitter.Node
	walk(call, func(node *sitter.Node) {
		if literal == nil && node.Type() == "string" && isDirectArgument(call, node) {
			literal = node
		}
	})
	if literal != nil {
		return literal
	}
	if call.NamedChildCount() > 1 {
		return call
	}
	return nil
}

// isDirectArgument reports whether the literal is the call's argument
// rather than a literal buried inside one, as in require(getPath("./Bar")).
// Every node between the literal and the call must be a plain single-child
// wrapper; any node with siblings on that chain means the argument is a
// larger expression and the require is computed.
func isDirectArgument(call, literal *sitter.Node) bool {
	for node := literal.Parent(); node != nil && node != call; node = node.Parent() {
		if node.NamedChildCount() > 1 {
			return false
		}
	}
	return true
}

func walk(node *sitter.Node, visit func(*sitter.Node)) {
	visit(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), visit)
	}
}

func nodeRange(node *sitter.Node) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      node.StartPoint().Row,
			Character: node.StartPoint().Column,
		},
		End: protocol.Position{
			Line:      node.EndPoint().Row,
			Character: node.EndPoint().Column,
		},
	}
}

// UnresolvedRequires resolves every require in src against the workspace
// and reports a diagnostic for each one no resolution rule matches.
func (s *Scanner) UnresolvedRequires(r *workspace.FileResolver, moduleName string, src []byte) ([]protocol.Diagnostic, error) {
	requires, err := s.Scan(src)
	if err != nil {
		return nil, err
	}
	severity := protocol.DiagnosticSeverityWarning
	source := "luau-lsp"

	var diagnostics []protocol.Diagnostic
	for _, req := range requires {
		if _, err := r.ResolveModuleExpression(moduleName, req.Node, src); err != nil {
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    req.Range,
				Severity: &severity,
				Source:   &source,
				Message:  fmt.Sprintf("Unresolved require: %v", err),
			})
		}
	}
	return diagnostics, nil
}
