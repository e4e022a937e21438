package sourcemap

import (
	"path/filepath"
	"sync"
)

// Index provides O(1) bidirectional lookup between virtual paths and real
// file paths. Rebuild is the only mutator: both maps are filled off to the
// side and published together, so a reader never observes one map
// reflecting the old tree and the other the new one.
type Index struct {
	mu      sync.RWMutex
	root    *SourceNode
	virtual map[string]*SourceNode
	real    map[string]*SourceNode
}

// NewIndex creates an empty Index with no tree loaded.
func NewIndex() *Index {
	return &Index{
		virtual: make(map[string]*SourceNode),
		real:    make(map[string]*SourceNode),
	}
}

// Rebuild replaces the root wholesale and recomputes both indices in one
// depth-first pass. Prior entries are discarded entirely; a partial
// overlap between old and new trees never leaves ghost entries.
func (idx *Index) Rebuild(root *SourceNode) {
	virtual := make(map[string]*SourceNode)
	real := make(map[string]*SourceNode)

	if root != nil {
		root.VirtualPath = RootToken(root)
		writePaths(root, virtual, real)
	}

	idx.mu.Lock()
	idx.root = root
	idx.virtual = virtual
	idx.real = real
	idx.mu.Unlock()
}

// writePaths walks the tree assigning each node its virtual path and
// registering it in both maps. When two nodes claim the same real path the
// first registered node wins, so the reverse mapping is deterministic in
// document order.
func writePaths(node *SourceNode, virtual, real map[string]*SourceNode) {
	virtual[node.VirtualPath] = node
	for _, path := range node.FilePaths {
		normalized := NormalizePath(path)
		if _, claimed := real[normalized]; !claimed {
			real[normalized] = node
		}
	}
	for _, child := range node.Children {
		child.VirtualPath = node.VirtualPath + "/" + child.Name
		writePaths(child, virtual, real)
	}
}

// Root returns the current tree root, or nil before the first Rebuild.
func (idx *Index) Root() *SourceNode {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.root
}

// ByVirtualPath returns the node registered under the given virtual path.
func (idx *Index) ByVirtualPath(path string) (*SourceNode, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	node, ok := idx.virtual[path]
	return node, ok
}

// ByRealPath returns the node backed by the given file path.
func (idx *Index) ByRealPath(path string) (*SourceNode, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	node, ok := idx.real[NormalizePath(path)]
	return node, ok
}

// RealPathOf returns the node's first backing file, or false for
// structural nodes with no file behind them.
func RealPathOf(node *SourceNode) (string, bool) {
	if node == nil || len(node.FilePaths) == 0 {
		return "", false
	}
	return NormalizePath(node.FilePaths[0]), true
}

// VirtualPathOf reads the virtual path assigned at rebuild time.
func VirtualPathOf(node *SourceNode) string {
	return node.VirtualPath
}

// NormalizePath cleans a real path so that map lookups do not miss on
// separator or dot-segment differences.
func NormalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
