package docdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mailru/easyjson/jwriter"
)

// Encode writes doc to out as indented JSON followed by a newline.
// Keys keep document order, indentation is two spaces, and HTML-sensitive
// and non-ASCII characters are written as-is.
func Encode(out io.Writer, doc *Document) error {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to indent output: %w", err)
	}
	buf.WriteByte('\n')

	_, err = buf.WriteTo(out)
	return err
}

// MarshalJSON implements json.Marshaler with compact output.
func (d *Document) MarshalJSON() ([]byte, error) {
	w := &jwriter.Writer{NoEscapeHTML: true}
	d.MarshalEasyJSON(w)
	return buildBytes(w)
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (d *Document) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"classes":{`)
	first := true
	for pair := d.Classes.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			w.RawByte(',')
		}
		first = false
		w.String(pair.Key)
		w.RawByte(':')
		pair.Value.MarshalEasyJSON(w)
	}
	w.RawString(`},"version":`)
	w.String(d.Version)
	w.RawByte('}')
}

// MarshalJSON implements json.Marshaler.
func (c *ClassRecord) MarshalJSON() ([]byte, error) {
	w := &jwriter.Writer{NoEscapeHTML: true}
	c.MarshalEasyJSON(w)
	return buildBytes(w)
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (c *ClassRecord) MarshalEasyJSON(w *jwriter.Writer) {
	writeObject(w, c.Attributes, []field{
		stringField("brief_description", c.BriefDescription),
		stringField("description", c.Description),
		listField("methods", c.Methods),
		listField("signals", c.Signals),
		listField("constants", c.Constants),
		listField("properties", c.Properties),
		listField("theme_properties", c.ThemeProperties),
	})
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (m MethodRecord) MarshalEasyJSON(w *jwriter.Writer) {
	writeObject(w, m.Attributes, []field{
		stringField("description", m.Description),
		stringField("return_type", m.ReturnType),
		stringField("qualifiers", m.Qualifiers),
		listField("arguments", m.Arguments),
	})
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (a ArgumentRecord) MarshalEasyJSON(w *jwriter.Writer) {
	writeObject(w, a.Attributes, []field{
		stringField("default_value", a.DefaultValue),
	})
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (c ConstantRecord) MarshalEasyJSON(w *jwriter.Writer) {
	writeObject(w, c.Attributes, []field{
		stringField("description", c.Description),
	})
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (p PropertyRecord) MarshalEasyJSON(w *jwriter.Writer) {
	writeObject(w, p.Attributes, []field{
		stringField("description", p.Description),
	})
}

type marshaler interface {
	MarshalEasyJSON(w *jwriter.Writer)
}

// field is a fixed output key written after the passthrough attributes.
type field struct {
	key   string
	write func(w *jwriter.Writer)
}

func stringField(key, value string) field {
	return field{key: key, write: func(w *jwriter.Writer) { w.String(value) }}
}

func listField[T marshaler](key string, items []T) field {
	return field{key: key, write: func(w *jwriter.Writer) {
		w.RawByte('[')
		for i, item := range items {
			if i > 0 {
				w.RawByte(',')
			}
			item.MarshalEasyJSON(w)
		}
		w.RawByte(']')
	}}
}

// writeObject emits attrs in order followed by fields. A field whose key
// matches an attribute replaces that attribute's value in place, so every key
// appears once.
func writeObject(w *jwriter.Writer, attrs *Attributes, fields []field) {
	byKey := make(map[string]int, len(fields))
	for i, f := range fields {
		byKey[f.key] = i
	}
	written := make([]bool, len(fields))

	first := true
	key := func(k string) {
		if !first {
			w.RawByte(',')
		}
		first = false
		w.String(k)
		w.RawByte(':')
	}

	w.RawByte('{')
	if attrs != nil {
		for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
			key(pair.Key)
			if i, ok := byKey[pair.Key]; ok {
				fields[i].write(w)
				written[i] = true
				continue
			}
			w.String(pair.Value)
		}
	}
	for i, f := range fields {
		if written[i] {
			continue
		}
		key(f.key)
		f.write(w)
	}
	w.RawByte('}')
}

// buildBytes returns w's output with U+2028 and U+2029 written raw.
// jwriter escapes both unconditionally, even with NoEscapeHTML set.
func buildBytes(w *jwriter.Writer) ([]byte, error) {
	raw, err := w.BuildBytes()
	if err != nil {
		return nil, err
	}
	return unescapeLineSeparators(raw), nil
}

// unescapeLineSeparators rewrites the \u2028 and \u2029 escapes in compact JSON
// as UTF-8. Outside string literals JSON has no backslashes, so every
// backslash starts an escape sequence and an escaped backslash is skipped whole.
func unescapeLineSeparators(raw []byte) []byte {
	if !bytes.Contains(raw, []byte(`\u202`)) {
		return raw
	}

	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		if i+5 < len(raw) && string(raw[i+1:i+5]) == "u202" && (raw[i+5] == '8' || raw[i+5] == '9') {
			if raw[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, raw[i], raw[i+1])
		i++
	}
	return out
}
