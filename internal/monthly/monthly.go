// Package monthly merges the appliance's monthly aggregate document: the
// XML file holding one monthInfo entry per (year, month, type) with the
// consolidated usage figures for that month.
//
// Documents are modelled as an explicit tree with owned child lists, so an
// entry can be moved between documents without touching sibling links.
package monthly

import (
	"encoding/xml"
	"os"
	"strconv"
	"time"

	"github.com/marcelr/ringmigrate/internal/errors"
)

const entryTag = "monthInfo"

// Node is one XML element: its name, its text, and its owned children.
type Node struct {
	XMLName  xml.Name
	Text     string  `xml:",chardata"`
	Children []*Node `xml:",any"`
}

// Child returns the first child with the given local name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			return c
		}
	}
	return nil
}

func (n *Node) childText(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// Key identifies a monthly entry: the (year, month, type) triple.
type Key struct {
	Year  string
	Month string
	Type  string
}

func entryKey(n *Node) Key {
	return Key{
		Year:  n.childText("year"),
		Month: n.childText("month"),
		Type:  n.childText("type"),
	}
}

// entryStart returns the POSIX timestamp of the entry's month start. The
// document stores tm-style fields: years since 1900 and a zero-based month.
func entryStart(n *Node) int64 {
	year, _ := strconv.Atoi(n.childText("year"))
	month, _ := strconv.Atoi(n.childText("month"))
	return time.Date(1900+year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local).Unix()
}

// Load parses the monthly document at path.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read monthly document %s", path)
	}
	return Parse(data)
}

// Parse parses monthly document contents.
func Parse(data []byte) (*Node, error) {
	root := &Node{}
	if err := xml.Unmarshal(data, root); err != nil {
		return nil, errors.Wrap(err, "parse monthly document")
	}
	return root, nil
}

// WriteFile serializes the document to path, indented.
func WriteFile(path string, root *Node) error {
	data, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal monthly document")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write monthly document %s", path)
	}
	return nil
}

// Merge combines the previous unit's monthly document into the replacement
// unit's, returning a new document.
//
// An entry present in both documents takes the old unit's figures when its
// month starts before the cutoff, and keeps the replacement's otherwise
// (months at or past the cutoff were recorded after the import boundary).
// Old entries the replacement does not have yet are appended regardless of
// cutoff - they cannot conflict with anything. Entry order follows the
// replacement document, appended entries last; children that are not
// monthly entries are carried through unchanged.
func Merge(oldRoot, newRoot *Node, cutoff int64) *Node {
	oldEntries := make(map[Key]*Node)
	var oldOrder []*Node
	for _, c := range oldRoot.Children {
		if c.XMLName.Local == entryTag {
			oldEntries[entryKey(c)] = c
			oldOrder = append(oldOrder, c)
		}
	}

	out := &Node{XMLName: newRoot.XMLName, Text: newRoot.Text}
	matched := make(map[Key]bool)

	for _, c := range newRoot.Children {
		if c.XMLName.Local != entryTag {
			out.Children = append(out.Children, c)
			continue
		}
		key := entryKey(c)
		if old, ok := oldEntries[key]; ok {
			matched[key] = true
			if entryStart(old) < cutoff {
				out.Children = append(out.Children, old)
				continue
			}
		}
		out.Children = append(out.Children, c)
	}

	for _, old := range oldOrder {
		if !matched[entryKey(old)] {
			out.Children = append(out.Children, old)
		}
	}

	return out
}
