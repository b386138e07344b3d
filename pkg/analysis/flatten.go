package analysis

import (
	"github.com/grovetools/swarmstat/pkg/models"
)

// Flatten lists the tree depth-first, root first. Each entry is a copy of
// its node without children.
func Flatten(root *models.Node) []models.FlatNode {
	var out []models.FlatNode
	flattenInto(root, 0, &out)
	return out
}

func flattenInto(n *models.Node, depth int, out *[]models.FlatNode) {
	if n == nil {
		return
	}
	flat := models.FlatNode{Node: *n, Depth: depth, ChildCount: len(n.Children)}
	flat.Children = nil
	*out = append(*out, flat)
	for _, c := range n.Children {
		flattenInto(c, depth+1, out)
	}
}

// MaxDepth returns the deepest level in a flattened tree.
func MaxDepth(flat []models.FlatNode) int {
	depth := 0
	for _, n := range flat {
		depth = max(depth, n.Depth)
	}
	return depth
}
