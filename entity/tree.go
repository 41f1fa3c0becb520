package entity

// TreeNode is a read-only snapshot of one path in a repository tree.
// Files never carry children; directories carry them only once loaded.
type TreeNode struct {
	Path           string      `json:"path"`
	Name           string      `json:"name"`
	Kind           EntryKind   `json:"kind"`
	ChildrenLoaded bool        `json:"children_loaded"`
	Children       []*TreeNode `json:"children,omitempty"`
}

func (n *TreeNode) IsDir() bool {
	return n.Kind == KindDirectory
}

// Find walks the snapshot for path.
func (n *TreeNode) Find(path string) *TreeNode {
	if n == nil {
		return nil
	}
	if n.Path == path {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}
