// Package sourcemap holds the Rojo-style project tree and the derived
// lookup indices between virtual DataModel paths and real file paths.
package sourcemap

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Virtual root tokens. A DataModel-rooted tree lives under "game"; any
// other project tree lives under "ProjectRoot". Both spellings are
// accepted in module names.
const (
	VirtualRootGame    = "game"
	VirtualRootProject = "ProjectRoot"
)

// RootToken returns the virtual path assigned to the root of a tree.
func RootToken(root *SourceNode) string {
	if root != nil && root.ClassName == "DataModel" {
		return VirtualRootGame
	}
	return VirtualRootProject
}

// ErrMalformed is returned when sourcemap bytes do not parse into a tree.
var ErrMalformed = errors.New("sourcemap: malformed sourcemap")

// SourceNode is one node of a parsed Rojo sourcemap. A node may be backed
// by zero, one, or more real files (a script and its accompanying meta
// file both map to the same node).
//
// VirtualPath is assigned exactly once, during Index.Rebuild, and is never
// recomputed by walking parents at query time.
type SourceNode struct {
	Name        string        `json:"name"`
	ClassName   string        `json:"className"`
	FilePaths   []string      `json:"filePaths,omitempty"`
	Children    []*SourceNode `json:"children,omitempty"`
	VirtualPath string        `json:"-"`
}

// Parse decodes raw sourcemap bytes into a tree.
func Parse(data []byte) (*SourceNode, error) {
	var root SourceNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if root.Name == "" {
		return nil, fmt.Errorf("%w: missing root name", ErrMalformed)
	}
	return &root, nil
}

// IsScript reports whether the node is a script instance rather than a
// structural container.
func (n *SourceNode) IsScript() bool {
	switch n.ClassName {
	case "Script", "LocalScript", "ModuleScript":
		return true
	}
	return false
}

// FindChild returns the first direct child with the given name.
func (n *SourceNode) FindChild(name string) (*SourceNode, bool) {
	for _, child := range n.Children {
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}
