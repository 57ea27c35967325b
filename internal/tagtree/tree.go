// Package tagtree builds the tag hierarchy from the flat tag list and
// computes per-node usage counts against the live prompt set. Everything here
// is pure; the tree is rebuilt from scratch whenever tags or prompt tag
// assignments change.
package tagtree

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"promptvault/internal/storage"
)

// Node is one node of the derived tag hierarchy. It is never persisted.
type Node struct {
	Name        string           `json:"name"`
	FullPath    string           `json:"fullPath"`
	Level       int              `json:"level"`
	Color       string           `json:"color"`
	Description string           `json:"description"`
	DirectCount int              `json:"directCount"`
	Count       int              `json:"count"`
	Children    map[string]*Node `json:"-"`
}

// Build constructs the hierarchy tree from the flat tag list and computes
// direct and rollup counts against the prompt set. The returned root is a
// sentinel with an empty path; its Count is the total number of (prompt, tag)
// membership pairs whose tag path exists in the tree.
//
// Ancestor segments that were never registered as tags still materialize as
// structural nodes with empty color and description. Duplicate full paths
// collapse into one node, last writer winning.
func Build(tags []storage.Tag, prompts []storage.Prompt) *Node {
	root := &Node{Children: make(map[string]*Node)}

	for _, tag := range tags {
		parts := strings.Split(tag.Name, "/")
		current := root

		for i, part := range parts {
			child, ok := current.Children[part]
			if !ok {
				child = &Node{
					Name:     part,
					FullPath: strings.Join(parts[:i+1], "/"),
					Level:    i + 1,
					Children: make(map[string]*Node),
				}
				current.Children[part] = child
			}
			current = child

			// Only the leaf segment carries the tag's appearance.
			if i == len(parts)-1 {
				current.Color = tag.Color
				current.Description = tag.Description
			}
		}
	}

	updateCounts(root, prompts)
	return root
}

// updateCounts performs the post-order rollup: each node's Count is its
// DirectCount plus the sum of its children's Counts.
func updateCounts(node *Node, prompts []storage.Prompt) int {
	total := 0

	if node.FullPath != "" {
		for _, p := range prompts {
			for _, t := range p.Tags {
				if t == node.FullPath {
					node.DirectCount++
					break
				}
			}
		}
		total = node.DirectCount
	}

	for _, child := range node.Children {
		total += updateCounts(child, prompts)
	}

	node.Count = total
	return total
}

// SortedChildren returns a node's children ordered by segment name using a
// locale-aware compare. Ordering is applied at consumption time only; the
// tree itself keeps no order.
//
// A Collator carries mutable iterator state across CompareString calls, so
// each invocation gets its own rather than sharing one across goroutines.
func SortedChildren(node *Node) []*Node {
	collator := collate.New(language.Und)
	children := make([]*Node, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool {
		return collator.CompareString(children[i].Name, children[j].Name) < 0
	})
	return children
}
