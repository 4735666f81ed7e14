package itemtype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{name: "valid", entries: []Entry{{0, "A"}, {1, "B"}}},
		{name: "duplicate code", entries: []Entry{{0, "A"}, {0, "B"}}, wantErr: true},
		{name: "duplicate name", entries: []Entry{{0, "A"}, {1, "A"}}, wantErr: true},
		{name: "empty name", entries: []Entry{{0, ""}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.entries...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.entries), r.Len())
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, 5, Default.Len())
	assert.Equal(t, []string{"SolutionRoot", "File", "Folder", "Project", "Document"}, Default.Names())
	assert.Equal(t, []Type{SolutionRoot, File, Folder, Project, Document}, Default.Values())

	code, ok := Default.Lookup("Folder")
	assert.True(t, ok)
	assert.Equal(t, Folder, code)

	assert.Equal(t, "Document", Document.String())
	assert.Equal(t, "Type(42)", Type(42).String())
	assert.False(t, Default.Contains(42))
}

func TestEntriesIsCopy(t *testing.T) {
	entries := Default.Entries()
	entries[0].Name = "changed"
	name, _ := Default.Name(SolutionRoot)
	assert.Equal(t, "SolutionRoot", name)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		snapshot    map[int64]string
		wantMissing int
		wantRenamed int
		wantExtra   int
	}{
		{
			name:     "exact match",
			snapshot: Default.Snapshot(),
		},
		{
			name:        "missing code",
			snapshot:    map[int64]string{0: "SolutionRoot", 1: "File", 2: "Folder", 3: "Project"},
			wantMissing: 1,
		},
		{
			name:        "renamed code",
			snapshot:    map[int64]string{0: "SolutionRoot", 1: "File", 2: "Directory", 3: "Project", 4: "Document"},
			wantRenamed: 1,
		},
		{
			name:      "extra code",
			snapshot:  map[int64]string{0: "SolutionRoot", 1: "File", 2: "Folder", 3: "Project", 4: "Document", 9: "Link"},
			wantExtra: 1,
		},
		{
			name:        "empty snapshot",
			snapshot:    map[int64]string{},
			wantMissing: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default.Check(tt.snapshot)
			if tt.wantMissing+tt.wantRenamed+tt.wantExtra == 0 {
				assert.NoError(t, err)
				return
			}
			var m *MismatchError
			require.True(t, errors.As(err, &m))
			assert.Len(t, m.Missing, tt.wantMissing)
			assert.Len(t, m.Renamed, tt.wantRenamed)
			assert.Len(t, m.Extra, tt.wantExtra)
			assert.Contains(t, err.Error(), "item type snapshot mismatch")
		})
	}
}
