// Package docdata turns class-reference XML elements into documentation records
// and serializes them to the JSON layout consumed by editor tooling.
package docdata

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Attributes holds passthrough XML attributes in document order.
// Values are copied verbatim; the parser never interprets them.
type Attributes = orderedmap.OrderedMap[string, string]

// ClassRecord is one documented class.
type ClassRecord struct {
	Attributes       *Attributes
	BriefDescription string
	Description      string
	Methods          []MethodRecord
	Signals          []MethodRecord
	Constants        []ConstantRecord
	Properties       []PropertyRecord // from <members>
	ThemeProperties  []PropertyRecord // from <theme_items>
}

// Name returns the class name taken from the root element's name attribute.
func (c *ClassRecord) Name() string {
	name, _ := c.Attributes.Get("name")
	return name
}

// MethodRecord describes a method or a signal.
type MethodRecord struct {
	Attributes  *Attributes
	Description string
	ReturnType  string // "" when the element has no <return> child
	Qualifiers  string // "" when the element has no qualifiers attribute
	Arguments   []ArgumentRecord
}

// Name returns the method's name attribute.
func (m *MethodRecord) Name() string {
	name, _ := m.Attributes.Get("name")
	return name
}

// ArgumentRecord describes one method argument.
// The source default attribute is moved to DefaultValue and never kept in Attributes.
type ArgumentRecord struct {
	Attributes   *Attributes
	DefaultValue string
}

// ConstantRecord describes a constant or enum value.
type ConstantRecord struct {
	Attributes  *Attributes
	Description string
}

// PropertyRecord describes a member property or a theme item.
type PropertyRecord struct {
	Attributes  *Attributes
	Description string
}

// Document is the aggregate output: every class keyed by name plus a schema version.
type Document struct {
	Classes *orderedmap.OrderedMap[string, *ClassRecord]
	Version string
}

// NewDocument returns an empty document stamped with version.
func NewDocument(version string) *Document {
	return &Document{
		Classes: orderedmap.New[string, *ClassRecord](),
		Version: version,
	}
}

// Add inserts c keyed by its name and reports whether an earlier class with
// the same name was replaced. The key keeps the position of its first insertion.
func (d *Document) Add(c *ClassRecord) bool {
	_, replaced := d.Classes.Set(c.Name(), c)
	return replaced
}

// Class returns the class stored under name.
func (d *Document) Class(name string) (*ClassRecord, bool) {
	return d.Classes.Get(name)
}

// Len returns the number of classes in the document.
func (d *Document) Len() int {
	return d.Classes.Len()
}
