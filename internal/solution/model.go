// Package solution defines the framework-independent solution tree that the
// stores persist.
package solution

import (
	"fmt"

	"github.com/maloquacious/soltool/internal/itemtype"
)

// Item is a node of a solution tree.
type Item struct {
	ID         int64
	Type       itemtype.Type
	Name       string
	IsExpanded bool
	Children   []*Item
}

// NewItem returns an item without an identifier; Renumber assigns one.
func NewItem(t itemtype.Type, name string, expanded bool) *Item {
	return &Item{Type: t, Name: name, IsExpanded: expanded}
}

// AddChild appends child and returns it.
func (i *Item) AddChild(child *Item) *Item {
	i.Children = append(i.Children, child)
	return child
}

// Model is the serializable form of a whole solution.
type Model struct {
	Root *Item
}

// New returns a model rooted at root.
func New(root *Item) *Model {
	return &Model{Root: root}
}

// Walk visits every item in pre-order. depth is 0 for the root and
// position is the index of the item among its siblings.
// Returning an error stops the walk.
func (m *Model) Walk(fn func(item, parent *Item, depth, position int) error) error {
	if m == nil || m.Root == nil {
		return nil
	}
	var visit func(item, parent *Item, depth, position int) error
	visit = func(item, parent *Item, depth, position int) error {
		if err := fn(item, parent, depth, position); err != nil {
			return err
		}
		for n, child := range item.Children {
			if err := visit(child, item, depth+1, n); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(m.Root, nil, 0, 0)
}

// Count returns the number of items in the tree.
func (m *Model) Count() int {
	n := 0
	_ = m.Walk(func(*Item, *Item, int, int) error {
		n++
		return nil
	})
	return n
}

// Renumber assigns pre-order identifiers starting at 1.
func (m *Model) Renumber() {
	var next int64
	_ = m.Walk(func(item, _ *Item, _, _ int) error {
		next++
		item.ID = next
		return nil
	})
}

// Validate checks that the model has a root, that no item is reachable twice,
// and that assigned identifiers are unique. An ID of 0 means unassigned.
func (m *Model) Validate() error {
	if m == nil || m.Root == nil {
		return fmt.Errorf("solution has no root item")
	}
	seen := make(map[*Item]bool)
	ids := make(map[int64]bool)
	var visit func(item *Item) error
	visit = func(item *Item) error {
		if item == nil {
			return fmt.Errorf("solution contains a nil item")
		}
		if seen[item] {
			return fmt.Errorf("item %d %q is reachable more than once", item.ID, item.Name)
		}
		seen[item] = true
		if item.ID != 0 {
			if ids[item.ID] {
				return fmt.Errorf("duplicate item id %d", item.ID)
			}
			ids[item.ID] = true
		}
		for _, child := range item.Children {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(m.Root)
}

// Equal reports whether two models have the same topology, sibling order,
// types, names and expansion flags. Identifiers are not compared.
func Equal(a, b *Model) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equalItem(a.Root, b.Root)
}

func equalItem(a, b *Item) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Name != b.Name || a.IsExpanded != b.IsExpanded {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for n := range a.Children {
		if !equalItem(a.Children[n], b.Children[n]) {
			return false
		}
	}
	return true
}
