package docdata

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mvp-joe/xmldoc2json/internal/xmldom"
)

// ParseArgument builds an ArgumentRecord from an <argument> element.
func ParseArgument(el *xmldom.Element) ArgumentRecord {
	attrs := attributesOf(el)
	def, _ := attrs.Delete("default")
	return ArgumentRecord{
		Attributes:   attrs,
		DefaultValue: def,
	}
}

// ParseConstant builds a ConstantRecord from a <constant> element.
// The element's own text becomes the description.
func ParseConstant(el *xmldom.Element) (ConstantRecord, error) {
	return parseConstant(el, "")
}

// ParseProperty builds a PropertyRecord from a <member> or <theme_item> element.
func ParseProperty(el *xmldom.Element) (PropertyRecord, error) {
	return parseProperty(el, "")
}

// ParseMethod builds a MethodRecord from a <method> or <signal> element.
func ParseMethod(el *xmldom.Element) (MethodRecord, error) {
	return parseMethod(el, "")
}

func parseConstant(el *xmldom.Element, parent string) (ConstantRecord, error) {
	desc, err := ownText(el, parent)
	if err != nil {
		return ConstantRecord{}, err
	}
	return ConstantRecord{Attributes: attributesOf(el), Description: desc}, nil
}

func parseProperty(el *xmldom.Element, parent string) (PropertyRecord, error) {
	desc, err := ownText(el, parent)
	if err != nil {
		return PropertyRecord{}, err
	}
	return PropertyRecord{Attributes: attributesOf(el), Description: desc}, nil
}

func parseMethod(el *xmldom.Element, parent string) (MethodRecord, error) {
	path := elementPath(parent, el)

	desc, err := childText(el, "description", path)
	if err != nil {
		return MethodRecord{}, err
	}

	returnType := ""
	if ret := el.Find("return"); ret != nil {
		t, ok := ret.Attr("type")
		if !ok {
			return MethodRecord{}, contentError(path+"/return", ret.Line, ErrMissingAttribute, "type")
		}
		returnType = t
	}

	qualifiers, _ := el.Attr("qualifiers")

	// Arguments are collected from the whole subtree, not only direct children.
	args := []ArgumentRecord{}
	for _, a := range el.Iter("argument") {
		args = append(args, ParseArgument(a))
	}

	return MethodRecord{
		Attributes:  attributesOf(el),
		Description: desc,
		ReturnType:  returnType,
		Qualifiers:  qualifiers,
		Arguments:   args,
	}, nil
}

// attributesOf copies an element's attributes into a fresh ordered map.
func attributesOf(el *xmldom.Element) *Attributes {
	attrs := orderedmap.New[string, string]()
	for _, a := range el.Attrs {
		attrs.Set(a.Name, a.Value)
	}
	return attrs
}

// ownText returns the trimmed leading text of el.
func ownText(el *xmldom.Element, parent string) (string, error) {
	if el.Text == nil {
		return "", contentError(elementPath(parent, el), el.Line, ErrMissingText, "")
	}
	return strings.TrimSpace(*el.Text), nil
}

// childText returns the trimmed text of the first child named name.
func childText(el *xmldom.Element, name, path string) (string, error) {
	child := el.Find(name)
	if child == nil {
		return "", contentError(path, el.Line, ErrMissingElement, name)
	}
	return ownText(child, path)
}

// elementPath appends el to parent, qualified by its name attribute when present.
func elementPath(parent string, el *xmldom.Element) string {
	seg := el.Name
	if name, ok := el.Attr("name"); ok {
		seg += "[" + name + "]"
	}
	if parent == "" {
		return seg
	}
	return parent + "/" + seg
}
