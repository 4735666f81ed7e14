// Package xmlfile stores a solution as a single XML document.
//
// The document embeds the item type snapshot ahead of the item tree, and
// Read validates it before any item is decoded, exactly like the
// relational store does.
package xmlfile

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/store"
)

type solutionDoc struct {
	XMLName   xml.Name     `xml:"Solution"`
	Version   string       `xml:"version,attr,omitempty"`
	ItemTypes itemTypesDoc `xml:"ItemTypes"`
	Root      *itemDoc     `xml:"Item"`
}

type itemTypesDoc struct {
	Types []itemTypeDoc `xml:"ItemType"`
}

type itemTypeDoc struct {
	Code int64  `xml:"code,attr"`
	Name string `xml:"name,attr"`
}

type itemDoc struct {
	ID       int64      `xml:"id,attr"`
	Type     int64      `xml:"type,attr"`
	Name     string     `xml:"name,attr"`
	Expanded bool       `xml:"expanded,attr"`
	Children []*itemDoc `xml:"Item"`
}

// errEndOfParent is returned by nextStart when the enclosing element closes.
var errEndOfParent = errors.New("end of element")

// Store implements store.Store for tree-native documents.
type Store struct {
	reg *itemtype.Registry
	log logger.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a document store for reg.
func NewStore(reg *itemtype.Registry, log logger.Logger) *Store {
	if reg == nil {
		reg = itemtype.Default
	}
	if log == nil {
		log = logger.Default
	}
	return &Store{reg: reg, log: log}
}

// Save writes m to path via a staging file.
func (st *Store) Save(_ context.Context, path string, m *solution.Model) (store.Counts, error) {
	st.log.Info("writing solution into XML file %q", path)
	counts, err := Write(path, m, st.reg)
	if err != nil {
		return store.Counts{}, err
	}
	st.log.Info("%03d item types and %03d items written", counts.ItemTypes, counts.Items)
	return counts, nil
}

// Load reads path.
func (st *Store) Load(_ context.Context, path string) (*solution.Model, store.Counts, error) {
	st.log.Info("reading solution from XML file %q", path)
	m, counts, err := Read(path, st.reg)
	if err != nil {
		return nil, store.Counts{}, err
	}
	st.log.Info("%03d items read", counts.Items)
	return m, counts, nil
}

// Write encodes m, with the snapshot of reg, into path. The file is
// replaced only once the whole document has been written.
func Write(path string, m *solution.Model, reg *itemtype.Registry) (store.Counts, error) {
	const op = "write xml"
	if err := m.Validate(); err != nil {
		return store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}

	doc := solutionDoc{Version: store.Version.String()}
	for _, e := range reg.Entries() {
		doc.ItemTypes.Types = append(doc.ItemTypes.Types, itemTypeDoc{Code: int64(e.Code), Name: e.Name})
	}
	docs := make(map[*solution.Item]*itemDoc)
	var next int64
	err := m.Walk(func(item, parent *solution.Item, _, _ int) error {
		if !reg.Contains(item.Type) {
			return solution.Errorf(solution.UnknownItemType, op, path, "item %q has type code %d", item.Name, int64(item.Type))
		}
		if !encodable(item.Name) {
			return solution.Errorf(solution.IOFailure, op, path, "item name %q cannot be stored in XML", item.Name)
		}
		next++
		d := &itemDoc{ID: next, Type: int64(item.Type), Name: item.Name, Expanded: item.IsExpanded}
		docs[item] = d
		if parent == nil {
			doc.Root = d
		} else {
			docs[parent].Children = append(docs[parent].Children, d)
		}
		return nil
	})
	if err != nil {
		return store.Counts{}, err
	}

	if err := writeStaging(path, &doc); err != nil {
		_ = store.DiscardStaging(path)
		return store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	if err := store.Publish(path); err != nil {
		_ = store.DiscardStaging(path)
		return store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	return store.Counts{ItemTypes: len(doc.ItemTypes.Types), Items: int(next)}, nil
}

// encodable reports whether s survives an XML round trip unchanged: it must
// be valid UTF-8 and hold only runes of the XML Char production.
func encodable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

func writeStaging(path string, doc *solutionDoc) error {
	f, err := os.Create(store.StagingPath(path))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(xml.Header); err != nil {
		_ = f.Close()
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read decodes path. The ItemTypes element must come first and must match
// reg before the item tree is decoded.
func Read(path string, reg *itemtype.Registry) (*solution.Model, store.Counts, error) {
	const op = "read xml"
	exists, err := store.CheckExists(path)
	if err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.ConnectionFailure, op, path, err)
	}
	if !exists {
		return nil, store.Counts{}, solution.Errorf(solution.ConnectionFailure, op, path, "file does not exist")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.ConnectionFailure, op, path, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(bufio.NewReader(f))

	start, err := nextStart(dec)
	if err != nil {
		return nil, store.Counts{}, solution.Errorf(solution.IOFailure, op, path, "not a solution document: %v", err)
	}
	if start.Name.Local != "Solution" {
		return nil, store.Counts{}, solution.Errorf(solution.IOFailure, op, path, "not a solution document: root element is <%s>", start.Name.Local)
	}

	el, err := nextStart(dec)
	if err != nil && !errors.Is(err, errEndOfParent) {
		return nil, store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	if err != nil || el.Name.Local != "ItemTypes" {
		return nil, store.Counts{}, solution.Errorf(solution.IncompatibleSchema, op, path, "document does not start with an item type snapshot")
	}
	var types itemTypesDoc
	if err := dec.DecodeElement(&types, &el); err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	snapshot := make(map[int64]string, len(types.Types))
	for _, t := range types.Types {
		if _, dup := snapshot[t.Code]; dup {
			return nil, store.Counts{}, solution.Errorf(solution.IncompatibleSchema, op, path, "item type code %d listed twice", t.Code)
		}
		snapshot[t.Code] = t.Name
	}
	if err := reg.Check(snapshot); err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.IncompatibleSchema, op, path, err)
	}

	el, err = nextStart(dec)
	if errors.Is(err, errEndOfParent) {
		return nil, store.Counts{}, solution.Errorf(solution.IOFailure, op, path, "no root item")
	}
	if err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	if el.Name.Local != "Item" {
		return nil, store.Counts{}, solution.Errorf(solution.IOFailure, op, path, "unexpected element <%s>", el.Name.Local)
	}
	var rootDoc itemDoc
	if err := dec.DecodeElement(&rootDoc, &el); err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	if _, err := nextStart(dec); !errors.Is(err, errEndOfParent) {
		if err == nil {
			err = fmt.Errorf("more than one root item")
		}
		return nil, store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}

	count := 0
	var convert func(d *itemDoc) (*solution.Item, error)
	convert = func(d *itemDoc) (*solution.Item, error) {
		if !reg.Contains(itemtype.Type(d.Type)) {
			return nil, solution.Errorf(solution.UnknownItemType, op, path, "item %d has type code %d", d.ID, d.Type)
		}
		count++
		item := &solution.Item{ID: d.ID, Type: itemtype.Type(d.Type), Name: d.Name, IsExpanded: d.Expanded}
		for _, c := range d.Children {
			child, err := convert(c)
			if err != nil {
				return nil, err
			}
			item.AddChild(child)
		}
		return item, nil
	}
	root, err := convert(&rootDoc)
	if err != nil {
		return nil, store.Counts{}, err
	}
	m := solution.New(root)
	if err := m.Validate(); err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.IOFailure, op, path, err)
	}
	return m, store.Counts{ItemTypes: len(snapshot), Items: count}, nil
}

// nextStart skips to the next start element at the current level. It
// returns errEndOfParent when the enclosing element ends first.
func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, errEndOfParent
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.EndElement:
			return xml.StartElement{}, errEndOfParent
		}
	}
}
