package convert

import (
	"testing"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSolution() *viewmodel.Solution {
	s := viewmodel.NewSolution()
	root := s.AddRootItem(itemtype.SolutionRoot, "Solution")
	root.IsItemExpanded = true
	p := root.AddChild(itemtype.Project, "app")
	p.IsItemExpanded = true
	p.AddChild(itemtype.File, "main.go")
	p.AddChild(itemtype.File, "go.mod")
	root.AddChild(itemtype.Folder, "docs").AddChild(itemtype.Document, "README")
	return s
}

func TestToModel(t *testing.T) {
	m, err := New(nil).ToModel(sampleSolution())
	require.NoError(t, err)

	require.NoError(t, m.Validate())
	assert.Equal(t, 6, m.Count())
	assert.Equal(t, int64(1), m.Root.ID)
	assert.True(t, m.Root.IsExpanded)

	app := m.Root.Children[0]
	assert.Equal(t, itemtype.Project, app.Type)
	assert.True(t, app.IsExpanded)
	assert.Equal(t, "main.go", app.Children[0].Name)
	assert.Equal(t, "go.mod", app.Children[1].Name)
	assert.False(t, app.Children[0].IsExpanded)
	assert.Equal(t, "README", m.Root.Children[1].Children[0].Name)
}

func TestRoundTrip(t *testing.T) {
	c := New(nil)
	m, err := c.ToModel(sampleSolution())
	require.NoError(t, err)

	target := viewmodel.NewSolution()
	require.NoError(t, c.ToViewModel(m, target))

	root := target.GetRootItem()
	require.NotNil(t, root)
	for _, child := range root.Children() {
		assert.Same(t, root, child.Parent())
	}

	again, err := c.ToModel(target)
	require.NoError(t, err)
	assert.True(t, solution.Equal(m, again))
}

func TestUnknownItemType(t *testing.T) {
	s := sampleSolution()
	s.GetRootItem().AddChild(itemtype.Type(77), "mystery")

	_, err := New(nil).ToModel(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, solution.ErrUnknownItemType)

	m := solution.New(solution.NewItem(itemtype.Folder, "root", true))
	m.Root.AddChild(solution.NewItem(itemtype.Type(77), "mystery", false))

	target := sampleSolution()
	before := target.GetRootItem()
	err = New(nil).ToViewModel(m, target)
	assert.ErrorIs(t, err, solution.ErrUnknownItemType)
	assert.Same(t, before, target.GetRootItem(), "failed conversion must not replace the tree")
}

func TestEmpty(t *testing.T) {
	_, err := New(nil).ToModel(viewmodel.NewSolution())
	assert.Error(t, err)
	assert.Error(t, New(nil).ToViewModel(&solution.Model{}, viewmodel.NewSolution()))
}
