package docdata

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/xmldoc2json/internal/xmldom"
)

// loadFixture parses a document from testdata/.
func loadFixture(t *testing.T, name string) *xmldom.Element {
	t.Helper()
	root, err := xmldom.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return root
}

// parseXML parses an inline document.
func parseXML(t *testing.T, src string) *xmldom.Element {
	t.Helper()
	root, err := xmldom.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return root
}

// keys returns the attribute names in order.
func keys(attrs *Attributes) []string {
	var out []string
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func attr(attrs *Attributes, key string) string {
	v, _ := attrs.Get(key)
	return v
}
