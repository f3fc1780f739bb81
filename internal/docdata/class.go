package docdata

import (
	"github.com/mvp-joe/xmldoc2json/internal/xmldom"
)

// ParseClass builds a ClassRecord from a <class> element.
//
// The name attribute, brief_description, description and methods are
// required. The signals, constants, members and theme_items sections are
// optional; a missing section yields an empty list.
func ParseClass(el *xmldom.Element) (*ClassRecord, error) {
	path := elementPath("", el)

	if _, ok := el.Attr("name"); !ok {
		return nil, contentError(path, el.Line, ErrMissingAttribute, "name")
	}

	brief, err := childText(el, "brief_description", path)
	if err != nil {
		return nil, err
	}
	desc, err := childText(el, "description", path)
	if err != nil {
		return nil, err
	}

	methodsEl := el.Find("methods")
	if methodsEl == nil {
		return nil, contentError(path, el.Line, ErrMissingElement, "methods")
	}
	methods, err := parseSection(methodsEl, path, parseMethod)
	if err != nil {
		return nil, err
	}

	signals, err := parseSection(el.Find("signals"), path, parseMethod)
	if err != nil {
		return nil, err
	}
	constants, err := parseSection(el.Find("constants"), path, parseConstant)
	if err != nil {
		return nil, err
	}
	properties, err := parseSection(el.Find("members"), path, parseProperty)
	if err != nil {
		return nil, err
	}
	themeProperties, err := parseSection(el.Find("theme_items"), path, parseProperty)
	if err != nil {
		return nil, err
	}

	return &ClassRecord{
		Attributes:       attributesOf(el),
		BriefDescription: brief,
		Description:      desc,
		Methods:          methods,
		Signals:          signals,
		Constants:        constants,
		Properties:       properties,
		ThemeProperties:  themeProperties,
	}, nil
}

// parseSection maps every child of section through parse. A nil section
// produces an empty, non-nil slice.
func parseSection[T any](section *xmldom.Element, parent string, parse func(*xmldom.Element, string) (T, error)) ([]T, error) {
	out := []T{}
	if section == nil {
		return out, nil
	}
	path := elementPath(parent, section)
	for _, child := range section.Children {
		rec, err := parse(child, path)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
