package sourcemap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PluginNode describes DataModel instance information discovered at
// runtime by the companion studio plugin. The tree is not file-backed; it
// supplements the sourcemap when a name cannot be explained by project
// files alone.
type PluginNode struct {
	Name      string        `json:"Name"`
	ClassName string        `json:"ClassName"`
	Children  []*PluginNode `json:"Children,omitempty"`
}

// ParsePlugin decodes a plugin information feed into a tree.
func ParsePlugin(data []byte) (*PluginNode, error) {
	var root PluginNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &root, nil
}

// FindDescendant walks the tree along a virtual path rooted at
// VirtualRoot, e.g. "game/Workspace/Part".
func (n *PluginNode) FindDescendant(virtualPath string) (*PluginNode, bool) {
	segments := strings.Split(virtualPath, "/")
	if len(segments) == 0 || segments[0] != VirtualRootGame {
		return nil, false
	}
	current := n
	for _, segment := range segments[1:] {
		var next *PluginNode
		for _, child := range current.Children {
			if child.Name == segment {
				next = child
				break
			}
		}
		if next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}
