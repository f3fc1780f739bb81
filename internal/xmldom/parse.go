package xmldom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"golang.org/x/net/html/charset"
)

// ErrMalformedXML indicates the input is not a well-formed XML document.
var ErrMalformedXML = errors.New("malformed XML")

// ParseFile opens path and parses it with Parse.
// Errors opening the file are returned unwrapped so callers can test them with os.IsNotExist.
func ParseFile(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse builds an element tree from XML input.
// Comments, processing instructions and directives are dropped.
func Parse(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var stack []*Element
	var root *Element
	rootClosed := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("%w: unexpected element <%s> after document end", ErrMalformedXML, t.Name.Local)
			}
			line, _ := decoder.InputPos()
			attrs, err := convertAttrs(t.Attr)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedXML, line, err)
			}
			elem := &Element{
				Name:  t.Name.Local,
				Space: t.Name.Space,
				Attrs: attrs,
				Line:  line,
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, elem)
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isIgnorableOutsideRoot(string(t)) {
					return nil, fmt.Errorf("%w: character data outside root element", ErrMalformedXML)
				}
				continue
			}
			stack[len(stack)-1].appendText(string(t))
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedXML, io.ErrUnexpectedEOF)
	}

	return root, nil
}

// convertAttrs keeps attributes in document order. Namespace declarations are
// dropped and namespaced names are rendered as {uri}local.
// encoding/xml does not enforce unique attribute names, so repeats are rejected here.
func convertAttrs(attrs []xml.Attr) ([]Attr, error) {
	out := make([]Attr, 0, len(attrs))
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		name := a.Name.Local
		if a.Name.Space != "" {
			name = "{" + a.Name.Space + "}" + a.Name.Local
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", name)
		}
		seen[name] = struct{}{}
		out = append(out, Attr{Name: name, Value: a.Value})
	}
	return out, nil
}

func isIgnorableOutsideRoot(data string) bool {
	for _, r := range data {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
