// Package xmldom provides the small element tree the documentation parser walks.
//
// The tree mirrors what the class-reference tooling expects from an XML
// document: ordered attributes, child elements, and the character data that
// appears before an element's first child.
package xmldom

// Attr is a single attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of a parsed document.
type Element struct {
	Name     string
	Space    string
	Attrs    []Attr
	Children []*Element
	Line     int

	// Text holds the character data preceding the first child element.
	// It is nil when no character data appears there, which is distinct
	// from an empty or whitespace-only string.
	Text *string
}

func (e *Element) appendText(s string) {
	if len(e.Children) > 0 {
		return
	}
	if e.Text == nil {
		e.Text = new(string)
	}
	*e.Text += s
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the first direct child with the given name, or nil.
func (e *Element) Find(name string) *Element {
	for _, child := range e.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Iter returns e and all of its descendants with the given name in document order.
func (e *Element) Iter(name string) []*Element {
	var out []*Element
	e.walk(func(el *Element) {
		if el.Name == name {
			out = append(out, el)
		}
	})
	return out
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, child := range e.Children {
		child.walk(fn)
	}
}
