// Package navtree groups emitted pages into the folder hierarchy that drives
// the site's navigation index.
package navtree

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/vaultsite/internal/models"
)

// Node is one folder level. Children and Notes keep first-seen order.
type Node struct {
	Label    string        `json:"label"`
	Children []*Node       `json:"children,omitempty"`
	Notes    []models.Note `json:"notes,omitempty"`
}

// Build folds notes into a tree rooted at outputRoot. Each note lands in the
// node for its containing folder; folders are created on first sight and
// reused afterwards, so a label appears at most once per level.
//
// Note paths may be relative to outputRoot or, when outputRoot is absolute,
// joined with it; either way the stored copy is relative to outputRoot. A
// relative outputRoot only names the root, since a vault folder of the same
// name would be indistinguishable from it.
func Build(notes []models.Note, outputRoot string) *Node {
	root := &Node{Label: rootLabel(outputRoot)}
	var prefix string
	if filepath.IsAbs(outputRoot) {
		prefix = filepath.ToSlash(filepath.Clean(outputRoot))
	}

	for _, n := range notes {
		rel := relative(n.Path, prefix)
		dir := path.Dir(rel)

		var chain []string
		if dir != "." && dir != "/" {
			chain = strings.Split(dir, "/")
		}

		node := root.descend(chain)
		node.Notes = append(node.Notes, models.Note{Title: n.Title, Path: rel})
	}
	return root
}

// descend walks the folder chain, creating missing children on the way.
func (n *Node) descend(chain []string) *Node {
	if len(chain) == 0 {
		return n
	}
	return n.child(chain[0]).descend(chain[1:])
}

func (n *Node) child(label string) *Node {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	c := &Node{Label: label}
	n.Children = append(n.Children, c)
	return c
}

// Walk visits n and its descendants depth first. depth is 0 for n itself.
// Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of notes in the subtree.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(node *Node, _ int) bool {
		total += len(node.Notes)
		return true
	})
	return total
}

// Depth returns the deepest folder level below n; a node without children has depth 0.
func (n *Node) Depth() int {
	deepest := 0
	n.Walk(func(_ *Node, d int) bool {
		if d > deepest {
			deepest = d
		}
		return true
	})
	return deepest
}

func relative(p, prefix string) string {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
	if prefix == "" {
		return p
	}
	if rest, ok := strings.CutPrefix(p, prefix+"/"); ok {
		return rest
	}
	return p
}

func rootLabel(outputRoot string) string {
	base := filepath.Base(filepath.Clean(outputRoot))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
