// Package itemtype holds the closed set of solution item kinds and their
// stable integer codes.
package itemtype

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the stable integer code of an item kind.
// Codes are never reused or renumbered once released.
type Type int64

const (
	SolutionRoot Type = 0
	File         Type = 1
	Folder       Type = 2
	Project      Type = 3
	Document     Type = 4
)

// Entry is one (code, name) pair of a registry.
type Entry struct {
	Code Type
	Name string
}

// Registry is an immutable, ordered table of item types.
type Registry struct {
	entries []Entry
	byCode  map[Type]string
	byName  map[string]Type
}

// Default is the registry of this build. It is built once and only read afterwards.
var Default = MustRegistry(
	Entry{SolutionRoot, "SolutionRoot"},
	Entry{File, "File"},
	Entry{Folder, "Folder"},
	Entry{Project, "Project"},
	Entry{Document, "Document"},
)

// NewRegistry builds a registry. Codes and names must be unique and names non-empty.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[Type]string, len(entries)),
		byName:  make(map[string]Type, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("item type %d has no name", e.Code)
		}
		if name, ok := r.byCode[e.Code]; ok {
			return nil, fmt.Errorf("item type code %d already registered as %q", e.Code, name)
		}
		if code, ok := r.byName[e.Name]; ok {
			return nil, fmt.Errorf("item type %q already registered with code %d", e.Name, code)
		}
		r.entries = append(r.entries, e)
		r.byCode[e.Code] = e.Name
		r.byName[e.Name] = e.Code
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the registered pairs in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the registered names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// Values returns the registered codes in declaration order.
func (r *Registry) Values() []Type {
	out := make([]Type, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Code
	}
	return out
}

// Contains reports whether t is a registered code.
func (r *Registry) Contains(t Type) bool {
	_, ok := r.byCode[t]
	return ok
}

// Name returns the name registered for t.
func (r *Registry) Name(t Type) (string, bool) {
	name, ok := r.byCode[t]
	return name, ok
}

// Lookup returns the code registered for name.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Snapshot returns the code -> name mapping that is embedded in stored files.
func (r *Registry) Snapshot() map[int64]string {
	out := make(map[int64]string, len(r.entries))
	for _, e := range r.entries {
		out[int64(e.Code)] = e.Name
	}
	return out
}

// Check compares a stored snapshot against the registry. Every registered
// pair must be present with the same name, and the snapshot must not carry
// codes the registry does not know.
func (r *Registry) Check(snapshot map[int64]string) error {
	m := &MismatchError{}
	for _, e := range r.entries {
		name, ok := snapshot[int64(e.Code)]
		if !ok {
			m.Missing = append(m.Missing, e)
			continue
		}
		if name != e.Name {
			m.Renamed = append(m.Renamed, Renamed{Code: e.Code, Want: e.Name, Got: name})
		}
	}
	for code := range snapshot {
		if !r.Contains(Type(code)) {
			m.Extra = append(m.Extra, code)
		}
	}
	if len(m.Missing) == 0 && len(m.Renamed) == 0 && len(m.Extra) == 0 {
		return nil
	}
	sort.Slice(m.Extra, func(i, j int) bool { return m.Extra[i] < m.Extra[j] })
	return m
}

// String returns the name of t in the Default registry.
func (t Type) String() string {
	if name, ok := Default.Name(t); ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int64(t))
}

// Renamed describes a code that is stored under a different name.
type Renamed struct {
	Code Type
	Want string
	Got  string
}

// MismatchError lists every difference between a stored snapshot and a registry.
type MismatchError struct {
	Missing []Entry
	Renamed []Renamed
	Extra   []int64
}

func (e *MismatchError) Error() string {
	var parts []string
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("missing %d=%s", m.Code, m.Name))
	}
	for _, r := range e.Renamed {
		parts = append(parts, fmt.Sprintf("code %d is %q, want %q", r.Code, r.Got, r.Want))
	}
	for _, code := range e.Extra {
		parts = append(parts, fmt.Sprintf("unknown code %d", code))
	}
	return "item type snapshot mismatch: " + strings.Join(parts, ", ")
}
