// Package workspace ties the sourcemap index, the configuration resolver,
// and the document overlay into the file resolver consumed by the
// typechecking frontend. One FileResolver exists per workspace; it is
// created when the workspace opens and passed explicitly to every query.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Aloroid/luau-lsp/internal/config"
	"github.com/Aloroid/luau-lsp/internal/document"
	"github.com/Aloroid/luau-lsp/internal/sourcemap"
)

// Predefined errors returned by resolver operations. Both are routine
// outcomes during editing, surfaced as values rather than failures.
var (
	ErrNotFound   = errors.New("workspace: module not found")
	ErrUnresolved = errors.New("workspace: unresolvable require")
)

// SourceMode tells the typechecker how to treat a module's source.
type SourceMode int

const (
	SourceModule SourceMode = iota
	SourceScript
	SourceLocal
)

// SourceCode is the result of loading a module.
type SourceCode struct {
	Text string
	Mode SourceMode
}

// FileResolver answers, for any module name or document URI, where its
// content and configuration come from right now.
type FileResolver struct {
	rootPath string
	index    *sourcemap.Index
	overlay  *document.Overlay
	configs  *config.Resolver

	mu               sync.RWMutex
	pluginInfo       *sourcemap.PluginNode
	directoryAliases map[string]string // client-configured, on top of .luaurc aliases
}

// NewFileResolver creates the resolver for a workspace rooted at rootPath.
func NewFileResolver(rootPath string) *FileResolver {
	root := filepath.ToSlash(filepath.Clean(rootPath))
	return &FileResolver{
		rootPath: root,
		index:    sourcemap.NewIndex(),
		overlay:  document.NewOverlay(),
		configs:  config.NewResolver(root, config.Default()),
	}
}

// Overlay exposes the managed-document set for the editor event stream.
func (r *FileResolver) Overlay() *document.Overlay {
	return r.overlay
}

// Index exposes the sourcemap index.
func (r *FileResolver) Index() *sourcemap.Index {
	return r.index
}

// UpdateSourceMap ingests new sourcemap bytes. On a parse failure the old
// tree is retained unchanged, since a partially applied rebuild would
// desynchronize the two indices.
func (r *FileResolver) UpdateSourceMap(contents []byte) error {
	root, err := sourcemap.Parse(contents)
	if err != nil {
		return fmt.Errorf("workspace: sourcemap rejected: %w", err)
	}
	r.absolutizePaths(root)
	r.index.Rebuild(root)
	return nil
}

// absolutizePaths rewrites every node's file paths relative to the
// workspace root, so index keys, disk reads, and URI translations all
// speak absolute paths.
func (r *FileResolver) absolutizePaths(node *sourcemap.SourceNode) {
	for i, p := range node.FilePaths {
		node.FilePaths[i] = r.absPath(p)
	}
	for _, child := range node.Children {
		r.absolutizePaths(child)
	}
}

func (r *FileResolver) absPath(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.FromSlash(r.rootPath), p)
	}
	return sourcemap.NormalizePath(p)
}

// SetPluginInfo replaces the plugin-provided DataModel tree.
func (r *FileResolver) SetPluginInfo(root *sourcemap.PluginNode) {
	r.mu.Lock()
	r.pluginInfo = root
	r.mu.Unlock()
}

// PluginNodeFor consults the plugin tree for a virtual path the sourcemap
// cannot explain.
func (r *FileResolver) PluginNodeFor(virtualPath string) (*sourcemap.PluginNode, bool) {
	r.mu.RLock()
	info := r.pluginInfo
	r.mu.RUnlock()
	if info == nil {
		return nil, false
	}
	// The plugin tree always describes a live DataModel.
	return info.FindDescendant(rewriteRoot(virtualPath, sourcemap.VirtualRootGame))
}

// SetDirectoryAliases replaces the client-configured directory aliases.
// These sit underneath .luaurc aliases: a .luaurc alias with the same name
// wins.
func (r *FileResolver) SetDirectoryAliases(aliases map[string]string) {
	r.mu.Lock()
	r.directoryAliases = aliases
	r.mu.Unlock()
}

// InvalidateConfig flushes the configuration cache; the next ConfigFor
// re-reads every layer from disk.
func (r *FileResolver) InvalidateConfig() {
	r.configs.InvalidateAll()
}

// IsVirtualName reports whether a module name lives in the sourcemap's
// virtual namespace rather than on disk.
func IsVirtualName(name string) bool {
	for _, token := range []string{sourcemap.VirtualRootGame, sourcemap.VirtualRootProject} {
		if name == token || strings.HasPrefix(name, token+"/") {
			return true
		}
	}
	return false
}

// canonicalVirtual rewrites either root spelling onto the token the index
// is keyed by. Names are validated in canonical form but returned to
// callers in the spelling they arrived in.
func (r *FileResolver) canonicalVirtual(name string) string {
	return rewriteRoot(name, sourcemap.RootToken(r.index.Root()))
}

func rewriteRoot(name, token string) string {
	for _, root := range []string{sourcemap.VirtualRootGame, sourcemap.VirtualRootProject} {
		if name == root {
			return token
		}
		if rest, ok := strings.CutPrefix(name, root+"/"); ok {
			return token + "/" + rest
		}
	}
	return name
}

// ModuleNameOf translates a document URI into the module name the
// typechecker should see: the stable virtual path for files inside the
// sourcemap, the plain real path for everything else (scratch files still
// need a workable identity).
func (r *FileResolver) ModuleNameOf(uri string) string {
	realPath, ok := document.URIToPath(uri)
	if !ok {
		return document.NormalizeURI(uri)
	}
	if node, ok := r.index.ByRealPath(realPath); ok {
		return sourcemap.VirtualPathOf(node)
	}
	return realPath
}

// ResolveToRealPath maps a module name onto the file backing it.
// Structural sourcemap nodes and names matching nothing on disk or in the
// overlay both miss.
func (r *FileResolver) ResolveToRealPath(name string) (string, bool) {
	if IsVirtualName(name) {
		node, ok := r.index.ByVirtualPath(r.canonicalVirtual(name))
		if !ok {
			return "", false
		}
		return sourcemap.RealPathOf(node)
	}
	realPath := sourcemap.NormalizePath(name)
	if _, open := r.overlay.Get(document.PathToURI(realPath)); open {
		return realPath, true
	}
	if _, err := os.Stat(filepath.FromSlash(realPath)); err == nil {
		return realPath, true
	}
	return "", false
}

// ResolveToVirtualPath is the inverse translation. A name already in the
// virtual scheme passes through unchanged.
func (r *FileResolver) ResolveToVirtualPath(name string) (string, bool) {
	if node, ok := r.index.ByRealPath(name); ok {
		return sourcemap.VirtualPathOf(node), true
	}
	if IsVirtualName(name) {
		return name, true
	}
	return "", false
}

// DocumentFor returns a handle on the module's current content: borrowed
// from the overlay when the file is open in the editor, otherwise an owned
// snapshot read from disk. Owned handles are scoped to the call and must
// not be retained.
func (r *FileResolver) DocumentFor(name string) (document.Handle, error) {
	realPath, ok := r.ResolveToRealPath(name)
	if !ok {
		return document.Handle{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	uri := document.PathToURI(realPath)
	if doc, open := r.overlay.Get(uri); open {
		return document.Borrow(doc), nil
	}
	text, err := os.ReadFile(filepath.FromSlash(realPath))
	if err != nil {
		return document.Handle{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return document.Own(uri, "luau", string(text)), nil
}

// ReadSource loads a module's text and language mode, overlay first, disk
// second. A miss is reported as ErrNotFound, never as a crash: modules go
// missing routinely mid-rename.
func (r *FileResolver) ReadSource(name string) (SourceCode, error) {
	handle, err := r.DocumentFor(name)
	if err != nil {
		return SourceCode{}, err
	}
	return SourceCode{
		Text: handle.Doc().Text,
		Mode: r.sourceModeOf(name),
	}, nil
}

func (r *FileResolver) sourceModeOf(name string) SourceMode {
	var node *sourcemap.SourceNode
	if IsVirtualName(name) {
		node, _ = r.index.ByVirtualPath(r.canonicalVirtual(name))
	} else {
		node, _ = r.index.ByRealPath(name)
	}
	if node == nil {
		return SourceModule
	}
	switch node.ClassName {
	case "Script":
		return SourceScript
	case "LocalScript":
		return SourceLocal
	}
	return SourceModule
}

// ConfigFor returns the effective configuration for a module, keyed by its
// containing directory. It never fails; modules outside any configured
// ancestry get the baseline.
func (r *FileResolver) ConfigFor(name string) config.Config {
	realPath, ok := r.ResolveToRealPath(name)
	if !ok {
		return config.Default()
	}
	return r.configs.ConfigFor(path.Dir(realPath))
}

// HumanReadableName formats a module name for display. Virtual paths
// become a dotted DataModel chain, with bracket quoting for segments that
// are not plain identifiers. Pure string formatting, no I/O.
func (r *FileResolver) HumanReadableName(name string) string {
	if !IsVirtualName(name) {
		return name
	}
	segments := strings.Split(name, "/")
	var b strings.Builder
	b.WriteString(segments[0])
	for _, segment := range segments[1:] {
		if isIdentifier(segment) {
			b.WriteString(".")
			b.WriteString(segment)
		} else {
			b.WriteString(`["`)
			b.WriteString(segment)
			b.WriteString(`"]`)
		}
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
