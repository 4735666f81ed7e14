package xmlfile

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *solution.Model {
	root := solution.NewItem(itemtype.SolutionRoot, "Solution & Co", true)
	app := root.AddChild(solution.NewItem(itemtype.Project, "app", true))
	app.AddChild(solution.NewItem(itemtype.File, "main.go", false))
	app.AddChild(solution.NewItem(itemtype.File, "<generated>.go", false))
	docs := root.AddChild(solution.NewItem(itemtype.Folder, "docs", false))
	docs.AddChild(solution.NewItem(itemtype.Document, "README", false))
	return solution.New(root)
}

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.solxml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// snapshotXML renders the ItemTypes element of the default registry.
func snapshotXML() string {
	var b strings.Builder
	b.WriteString("<ItemTypes>")
	for _, e := range itemtype.Default.Entries() {
		fmt.Fprintf(&b, `<ItemType code="%d" name="%s"/>`, e.Code, e.Name)
	}
	b.WriteString("</ItemTypes>")
	return b.String()
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sample.solxml")
	st := NewStore(itemtype.Default, logger.Discard{})
	m := sampleModel()

	counts, err := st.Save(ctx, path, m)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{ItemTypes: 5, Items: 6}, counts)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), xml.Header))
	assert.Less(t, strings.Index(string(raw), "<ItemTypes>"), strings.Index(string(raw), "<Item "))

	got, readCounts, err := st.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, counts, readCounts)
	assert.True(t, solution.Equal(m, got))
	assert.Equal(t, int64(1), got.Root.ID)
	assert.Equal(t, "<generated>.go", got.Root.Children[0].Children[1].Name)
}

func TestOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.solxml")
	_, err := Write(path, sampleModel(), itemtype.Default)
	require.NoError(t, err)

	small := solution.New(solution.NewItem(itemtype.Folder, "only", false))
	_, err = Write(path, small, itemtype.Default)
	require.NoError(t, err)

	got, counts, err := Read(path, itemtype.Default)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Items)
	assert.True(t, solution.Equal(small, got))
	_, err = os.Stat(store.StagingPath(path))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.solxml")
	m := sampleModel()
	m.Root.AddChild(solution.NewItem(itemtype.Type(31), "odd", false))

	_, err := Write(path, m, itemtype.Default)
	assert.ErrorIs(t, err, solution.ErrUnknownItemType)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing may be written")
}

func TestItemNames(t *testing.T) {
	tests := []struct {
		name string
		item string
		ok   bool
	}{
		{"plain", "notes", true},
		{"tab", "a\tb", true},
		{"crlf", "line1\r\nline2", true},
		{"surrounding spaces", "  padded  ", true},
		{"markup", `<a href="x">&amp;</a>`, true},
		{"non-ascii", "Grüße 日本 😀", true},
		{"bell", "bell\a", false},
		{"nul", "nul\x00x", false},
		{"invalid utf8", "bad\xffutf8", false},
		{"noncharacter", "end\uFFFE", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "names.solxml")
			_, err := Write(path, sampleModel(), itemtype.Default)
			require.NoError(t, err)

			m := sampleModel()
			m.Root.Children[1].AddChild(solution.NewItem(itemtype.Document, tt.item, false))
			_, err = Write(path, m, itemtype.Default)

			got, _, readErr := Read(path, itemtype.Default)
			require.NoError(t, readErr)
			if tt.ok {
				require.NoError(t, err)
				assert.True(t, solution.Equal(m, got))
				assert.Equal(t, tt.item, got.Root.Children[1].Children[1].Name)
				return
			}
			assert.ErrorIs(t, err, solution.ErrIO)
			assert.True(t, solution.Equal(sampleModel(), got), "a rejected write keeps the previous file")
			_, err = os.Stat(store.StagingPath(path))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestSnapshotGate(t *testing.T) {
	item := `<Item id="1" type="2" name="root" expanded="true"></Item>`
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "no snapshot",
			body: `<Solution>` + item + `</Solution>`,
			want: solution.ErrIncompatible,
		},
		{
			name: "items before snapshot",
			body: `<Solution>` + item + snapshotXML() + `</Solution>`,
			want: solution.ErrIncompatible,
		},
		{
			name: "renamed type",
			body: `<Solution>` + strings.Replace(snapshotXML(), `"Folder"`, `"Directory"`, 1) + item + `</Solution>`,
			want: solution.ErrIncompatible,
		},
		{
			name: "extra type",
			body: `<Solution>` + strings.Replace(snapshotXML(), "</ItemTypes>", `<ItemType code="9" name="Link"/></ItemTypes>`, 1) + item + `</Solution>`,
			want: solution.ErrIncompatible,
		},
		{
			// the broken item would be an io failure if it were decoded
			name: "gate precedes items",
			body: `<Solution><ItemTypes></ItemTypes><Item id="x"></Solution>`,
			want: solution.ErrIncompatible,
		},
		{
			name: "unknown item type",
			body: `<Solution>` + snapshotXML() + `<Item id="1" type="8" name="root"></Item></Solution>`,
			want: solution.ErrUnknownItemType,
		},
		{
			name: "two roots",
			body: `<Solution>` + snapshotXML() + item + item + `</Solution>`,
			want: solution.ErrIO,
		},
		{
			name: "no root",
			body: `<Solution>` + snapshotXML() + `</Solution>`,
			want: solution.ErrIO,
		},
		{
			name: "wrong document",
			body: `<Project></Project>`,
			want: solution.ErrIO,
		},
		{
			name: "empty file",
			body: ``,
			want: solution.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := Read(writeDoc(t, tt.body), itemtype.Default)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, m)
		})
	}
}

func TestReadMissing(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "none.solxml"), itemtype.Default)
	assert.ErrorIs(t, err, solution.ErrConnection)
}
