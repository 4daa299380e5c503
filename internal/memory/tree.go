package memory

import "strings"

// Tree is a named and hierarchical composition of memory ranges that explains
// where the estimated memory goes. Trees are immutable once built.
type Tree struct {
	description  string
	usage        Range
	components   []Tree
	notEstimated bool
}

// NewTree returns a tree node with its own total range and its components.
func NewTree(description string, usage Range, components []Tree) Tree {
	cs := make([]Tree, len(components))
	copy(cs, components)
	return Tree{description: description, usage: usage, components: cs}
}

// LeafTree returns a tree without components.
func LeafTree(description string, usage Range) Tree {
	return Tree{description: description, usage: usage}
}

// SumTree returns a tree whose range is the sum of its components ranges.
func SumTree(description string, components []Tree) Tree {
	total := Empty()
	for _, c := range components {
		total = total.Add(c.usage)
	}
	t := NewTree(description, total, components)
	for _, c := range components {
		if c.notEstimated {
			t.notEstimated = true
		}
	}
	return t
}

// EmptyTree returns a tree without description and with 0 bytes.
func EmptyTree() Tree { return Tree{} }

// NotEstimatedTree returns a tree explicitly marked as not estimated. Its range
// is a placeholder and must not be used as a real bound.
func NotEstimatedTree(description string) Tree {
	return Tree{description: description, usage: Empty(), notEstimated: true}
}

// Description returns the tree node name.
func (t Tree) Description() string { return t.description }

// MemoryUsage returns the node own range.
func (t Tree) MemoryUsage() Range { return t.usage }

// Components returns a copy of the children of the node.
func (t Tree) Components() []Tree {
	cs := make([]Tree, len(t.components))
	copy(cs, t.components)
	return cs
}

// Estimated returns false when this node, or any of its components, has not
// been estimated.
func (t Tree) Estimated() bool { return !t.notEstimated }

// Render returns a human-readable breakdown of the tree.
func (t Tree) Render() string {
	var b strings.Builder
	t.render(&b, 0)
	return b.String()
}

func (t Tree) render(b *strings.Builder, depth int) {
	if depth > 1 {
		b.WriteString(strings.Repeat("    ", depth-1))
	}
	if depth > 0 {
		b.WriteString("|-- ")
	}
	b.WriteString(t.description)
	b.WriteString(": ")
	if t.notEstimated {
		b.WriteString("not estimated")
	} else {
		b.WriteString(t.usage.String())
	}
	b.WriteString("\n")

	for _, c := range t.components {
		c.render(b, depth+1)
	}
}
