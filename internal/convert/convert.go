// Package convert maps between the view-model tree and the solution model.
package convert

import (
	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/viewmodel"
)

// Converter converts trees in both directions, rejecting item types that
// are not in Registry.
type Converter struct {
	Registry *itemtype.Registry
}

// New returns a converter for reg. A nil reg means itemtype.Default.
func New(reg *itemtype.Registry) *Converter {
	if reg == nil {
		reg = itemtype.Default
	}
	return &Converter{Registry: reg}
}

// ToModel converts the tree of sol into a model with pre-order identifiers.
func (c *Converter) ToModel(sol *viewmodel.Solution) (*solution.Model, error) {
	root := sol.GetRootItem()
	if root == nil {
		return nil, solution.Errorf(solution.IOFailure, "to model", "", "solution has no root item")
	}
	var convert func(vm *viewmodel.Item) (*solution.Item, error)
	convert = func(vm *viewmodel.Item) (*solution.Item, error) {
		if !c.Registry.Contains(vm.Type) {
			return nil, solution.Errorf(solution.UnknownItemType, "to model", "",
				"item %q has type code %d", vm.Name, int64(vm.Type))
		}
		item := solution.NewItem(vm.Type, vm.Name, vm.IsItemExpanded)
		for _, child := range vm.Children() {
			converted, err := convert(child)
			if err != nil {
				return nil, err
			}
			item.AddChild(converted)
		}
		return item, nil
	}
	item, err := convert(root)
	if err != nil {
		return nil, err
	}
	m := solution.New(item)
	m.Renumber()
	return m, nil
}

// ToViewModel replaces the tree of sol with the items of m. sol is left
// untouched when m holds an unregistered type.
func (c *Converter) ToViewModel(m *solution.Model, sol *viewmodel.Solution) error {
	if m == nil || m.Root == nil {
		return solution.Errorf(solution.IOFailure, "to view model", "", "model has no root item")
	}
	var convert func(item *solution.Item) (*viewmodel.Item, error)
	convert = func(item *solution.Item) (*viewmodel.Item, error) {
		if !c.Registry.Contains(item.Type) {
			return nil, solution.Errorf(solution.UnknownItemType, "to view model", "",
				"item %d %q has type code %d", item.ID, item.Name, int64(item.Type))
		}
		vm := viewmodel.NewItem(item.Type, item.Name)
		vm.IsItemExpanded = item.IsExpanded
		for _, child := range item.Children {
			converted, err := convert(child)
			if err != nil {
				return nil, err
			}
			vm.Attach(converted)
		}
		return vm, nil
	}
	root, err := convert(m.Root)
	if err != nil {
		return err
	}
	sol.SetRootItem(root)
	return nil
}
