package viewmodel

import (
	"testing"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeLinks(t *testing.T) {
	s := NewSolution()
	assert.Nil(t, s.GetRootItem())

	root := s.AddRootItem(itemtype.SolutionRoot, "Solution")
	a := root.AddChild(itemtype.Folder, "a")
	b := root.AddChild(itemtype.Folder, "b")
	doc := a.AddChild(itemtype.Document, "readme")

	require.Same(t, root, s.GetRootItem())
	assert.Nil(t, root.Parent())
	assert.Same(t, root, a.Parent())
	assert.Same(t, a, doc.Parent())
	assert.Equal(t, []*Item{a, b}, root.Children())
	assert.NotEqual(t, a.ID, b.ID)

	b.Attach(doc)
	assert.Empty(t, a.Children())
	assert.Same(t, b, doc.Parent())

	assert.True(t, b.RemoveChild(doc))
	assert.False(t, b.RemoveChild(doc))
	assert.Nil(t, doc.Parent())
}

func TestFind(t *testing.T) {
	s := NewSolution()
	root := s.AddRootItem(itemtype.SolutionRoot, "Solution")
	root.AddChild(itemtype.Project, "p").AddChild(itemtype.File, "main.go")

	got := s.Find(func(i *Item) bool { return i.Name == "main.go" })
	require.NotNil(t, got)
	assert.Equal(t, itemtype.File, got.Type)
	assert.Nil(t, s.Find(func(i *Item) bool { return i.Name == "nope" }))
}

func TestResetToDefaults(t *testing.T) {
	s := NewSolution()
	s.AddRootItem(itemtype.SolutionRoot, "Solution")
	s.ResetToDefaults()
	assert.Nil(t, s.GetRootItem())
	assert.Equal(t, DefaultFileFilter, s.SolutionFileFilter())
}
