// Package viewmodel is the UI-bound solution tree: items with parent links,
// expansion and selection state, owned by a Solution container.
package viewmodel

import (
	"sync"

	"github.com/google/uuid"
	"github.com/maloquacious/soltool/internal/itemtype"
)

// DefaultFileFilter lists the formats offered by open and save dialogs.
const DefaultFileFilter = "Solution Files (*.solxml)|*.solxml|SQLite Solution (*.soldb)|*.soldb|All Files (*.*)|*.*"

// Item is a node of the view-model tree.
type Item struct {
	ID             uuid.UUID
	Type           itemtype.Type
	Name           string
	IsItemExpanded bool
	IsSelected     bool

	parent   *Item
	children []*Item
}

// NewItem returns a detached item with a fresh identity.
func NewItem(t itemtype.Type, name string) *Item {
	return &Item{ID: uuid.New(), Type: t, Name: name}
}

// Parent returns the parent item, or nil for the root.
func (i *Item) Parent() *Item {
	return i.parent
}

// Children returns the child items in display order.
func (i *Item) Children() []*Item {
	return i.children
}

// AddChild creates a child item at the end of the child list.
func (i *Item) AddChild(t itemtype.Type, name string) *Item {
	child := NewItem(t, name)
	i.Attach(child)
	return child
}

// Attach appends an existing item, detaching it from its previous parent.
func (i *Item) Attach(child *Item) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = i
	i.children = append(i.children, child)
}

// RemoveChild detaches child. It reports whether child was found.
func (i *Item) RemoveChild(child *Item) bool {
	for n, c := range i.children {
		if c == child {
			i.children = append(i.children[:n], i.children[n+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Solution owns the root of a view-model tree.
type Solution struct {
	mu         sync.RWMutex
	root       *Item
	fileFilter string
}

// NewSolution returns an empty solution.
func NewSolution() *Solution {
	return &Solution{fileFilter: DefaultFileFilter}
}

// SolutionFileFilter returns the dialog filter for solution files.
func (s *Solution) SolutionFileFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileFilter
}

// SetFileFilter replaces the dialog filter.
func (s *Solution) SetFileFilter(filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileFilter = filter
}

// GetRootItem returns the root item, or nil for an empty solution.
func (s *Solution) GetRootItem() *Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// AddRootItem replaces the tree with a new root item.
func (s *Solution) AddRootItem(t itemtype.Type, name string) *Item {
	root := NewItem(t, name)
	s.SetRootItem(root)
	return root
}

// SetRootItem replaces the tree with root.
func (s *Solution) SetRootItem(root *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if root != nil {
		root.parent = nil
	}
	s.root = root
}

// ResetToDefaults removes every item.
func (s *Solution) ResetToDefaults() {
	s.SetRootItem(nil)
}

// Find returns the first item, in pre-order, for which match returns true.
func (s *Solution) Find(match func(*Item) bool) *Item {
	var found *Item
	var visit func(*Item) bool
	visit = func(i *Item) bool {
		if match(i) {
			found = i
			return true
		}
		for _, c := range i.children {
			if visit(c) {
				return true
			}
		}
		return false
	}
	if root := s.GetRootItem(); root != nil {
		visit(root)
	}
	return found
}
