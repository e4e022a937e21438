package workspace

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Aloroid/luau-lsp/internal/document"
	"github.com/Aloroid/luau-lsp/internal/sourcemap"
)

// requireSuffixes are tried, in order, when a require string addresses a
// real path without an extension.
var requireSuffixes = []string{"", ".luau", ".lua", "/init.luau", "/init.lua"}

// ResolveRequire resolves a require string in the context of the module
// containing it. The grammar, tried in order: a dot-relative path against
// the context's directory, an @alias reference through the context's
// effective configuration, and an absolute virtual-root path. A string
// matching none of the three is ErrUnresolved; the resolver never guesses.
func (r *FileResolver) ResolveRequire(contextModule, required string) (string, error) {
	switch {
	case isRelativeRequire(required):
		return r.resolveRelative(contextModule, required)
	case strings.HasPrefix(required, "@"):
		return r.resolveAlias(contextModule, required)
	default:
		return r.resolveVirtualAbsolute(required)
	}
}

func isRelativeRequire(required string) bool {
	return required == "." || required == ".." ||
		strings.HasPrefix(required, "./") || strings.HasPrefix(required, "../")
}

func (r *FileResolver) resolveRelative(contextModule, required string) (string, error) {
	if IsVirtualName(contextModule) {
		// Join in the spelling the caller used; validate canonically.
		joined := path.Join(path.Dir(contextModule), required)
		if _, ok := r.index.ByVirtualPath(r.canonicalVirtual(joined)); ok {
			return joined, nil
		}
		return "", fmt.Errorf("%w: %s from %s", ErrUnresolved, required, contextModule)
	}

	base := path.Dir(sourcemap.NormalizePath(contextModule))
	return r.validateRealTarget(path.Join(base, required), required, contextModule)
}

func (r *FileResolver) resolveAlias(contextModule, required string) (string, error) {
	name, rest, _ := strings.Cut(strings.TrimPrefix(required, "@"), "/")

	// Alias tables are directory-scoped: the context module's resolved
	// configuration applies, not the workspace default.
	cfg := r.ConfigFor(contextModule)
	target, ok := cfg.Aliases[name]
	if !ok {
		r.mu.RLock()
		target, ok = r.directoryAliases[name]
		if !ok {
			target, ok = r.directoryAliases["@"+name]
		}
		r.mu.RUnlock()
	}
	if !ok {
		return "", fmt.Errorf("%w: unknown alias @%s", ErrUnresolved, name)
	}

	joined := strings.TrimSuffix(target, "/")
	if rest != "" {
		joined += "/" + rest
	}
	if IsVirtualName(joined) {
		if _, ok := r.index.ByVirtualPath(r.canonicalVirtual(joined)); ok {
			return joined, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnresolved, required)
	}
	return r.validateRealTarget(r.absPath(joined), required, contextModule)
}

func (r *FileResolver) resolveVirtualAbsolute(required string) (string, error) {
	if IsVirtualName(required) {
		if _, ok := r.index.ByVirtualPath(r.canonicalVirtual(required)); ok {
			return required, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnresolved, required)
	}
	// A bare path is read relative to the virtual root.
	full := sourcemap.RootToken(r.index.Root()) + "/" + required
	if _, ok := r.index.ByVirtualPath(full); ok {
		return full, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnresolved, required)
}

// validateRealTarget checks the joined path, with require suffixes, against
// the indices and the filesystem. A hit inside the sourcemap reports the
// node's virtual path so the typechecker sees the stable name.
func (r *FileResolver) validateRealTarget(joined, required, contextModule string) (string, error) {
	for _, suffix := range requireSuffixes {
		candidate := joined + suffix
		if node, ok := r.index.ByRealPath(candidate); ok {
			return sourcemap.VirtualPathOf(node), nil
		}
		if _, open := r.overlay.Get(document.PathToURI(candidate)); open {
			return candidate, nil
		}
		if info, err := os.Stat(filepath.FromSlash(candidate)); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s from %s", ErrUnresolved, required, contextModule)
}

// ResolveModuleExpression resolves the argument of a require call, handed
// over by the analysis pass as a syntax node. Only string literals can be
// resolved statically; any computed expression is an explicit resolution
// gap and reports ErrUnresolved rather than a guess.
func (r *FileResolver) ResolveModuleExpression(contextModule string, node *sitter.Node, src []byte) (string, error) {
	if node == nil {
		return "", fmt.Errorf("%w: no argument", ErrUnresolved)
	}
	if node.Type() != "string" {
		return "", fmt.Errorf("%w: non-literal require argument (%s)", ErrUnresolved, node.Type())
	}
	literal, ok := unquoteLuaString(node.Content(src))
	if !ok {
		return "", fmt.Errorf("%w: malformed string literal", ErrUnresolved)
	}
	return r.ResolveRequire(contextModule, literal)
}

func unquoteLuaString(s string) (string, bool) {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1], true
		}
	}
	if inner, ok := strings.CutPrefix(s, "[["); ok {
		if inner, ok := strings.CutSuffix(inner, "]]"); ok {
			return inner, true
		}
	}
	return "", false
}
