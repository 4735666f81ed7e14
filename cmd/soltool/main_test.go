package main

import (
	"bytes"
	"testing"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		want    itemtype.Type
		wantErr bool
	}{
		{"SolutionRoot", itemtype.SolutionRoot, false},
		{"Folder", itemtype.Folder, false},
		{"Document", itemtype.Document, false},
		{"folder", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseType(itemtype.Default, tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "SolutionRoot, File, Folder, Project, Document")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindAndPrint(t *testing.T) {
	sol := viewmodel.NewSolution()
	root := sol.AddRootItem(itemtype.SolutionRoot, "Solution")
	root.IsItemExpanded = true
	docs := root.AddChild(itemtype.Folder, "docs")
	docs.AddChild(itemtype.Document, "README")
	root.AddChild(itemtype.Document, "README")

	found := findByName(sol, "README")
	require.NotNil(t, found)
	assert.Same(t, docs, found.Parent(), "pre-order finds the nested item first")
	assert.Nil(t, findByName(sol, "missing"))

	var buf bytes.Buffer
	printItem(&buf, root, 0)
	assert.Equal(t, "v Solution [SolutionRoot]\n  + docs [Folder]\n    - README [Document]\n  - README [Document]\n", buf.String())
}
