package aggregator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/xmldoc2json/internal/docdata"
	"github.com/mvp-joe/xmldoc2json/internal/xmldom"
)

// Test Plan for Aggregator:
// - Directory mode selects only *.xml files under classes/ or doc_classes/
// - Directory mode stamps the directory version literal
// - File mode parses every class under the root element
// - File mode accepts a root that is itself a class
// - Auto mode picks by path type
// - Empty or missing path is a no-op in auto/dir mode and an error in file mode
// - Last write wins in sorted processing order
// - Any content, XML or filesystem error aborts with no document
// - Parallel parsing produces byte-identical output
// - Cache reuses unchanged files and reparses modified ones
// - Progress callbacks fire in order
// - Cancelled context aborts the run

func classXML(name, brief string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" ?>
<class name="%s" category="Core">
	<brief_description>
		%s
	</brief_description>
	<description>
		Description of %s.
	</description>
	<methods>
		<method name="length">
			<return type="float">
			</return>
			<description>
				Returns the length.
			</description>
		</method>
	</methods>
	<constants>
		<constant name="ZERO" value="0">
			Zero.
		</constant>
	</constants>
</class>
`, name, brief, name)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newAggregator(t *testing.T, cfg Config) *Aggregator {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func encode(t *testing.T, doc *docdata.Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, docdata.Encode(&buf, doc))
	return buf.String()
}

func TestRun_DirectoryMode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "classes", "Foo.xml"), classXML("Foo", "Foo brief."))
	writeFile(t, filepath.Join(root, "modules", "net", "doc_classes", "Bar.xml"), classXML("Bar", "Bar brief."))
	writeFile(t, filepath.Join(root, "other", "Baz.xml"), classXML("Baz", "Baz brief."))
	writeFile(t, filepath.Join(root, "classes", "readme.txt"), "not xml")

	doc, err := newAggregator(t, Config{}).Run(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, DirModeVersion, doc.Version)
	assert.Equal(t, 2, doc.Len())
	_, ok := doc.Class("Foo")
	assert.True(t, ok)
	_, ok = doc.Class("Bar")
	assert.True(t, ok)
	_, ok = doc.Class("Baz")
	assert.False(t, ok)
}

func TestRun_DirectoryModeEmptyTree(t *testing.T) {
	doc, err := newAggregator(t, Config{}).Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Len())
	assert.Equal(t, "{\n  \"classes\": {},\n  \"version\": \"3.0.4\"\n}\n", encode(t, doc))
}

func TestRun_FileModeMultipleClasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.xml")
	writeFile(t, path, `<?xml version="1.0" encoding="UTF-8" ?>
<doc version="2.1">
	<class name="A"><brief_description>a</brief_description><description>A.</description><methods/></class>
	<class name="B"><brief_description>b</brief_description><description>B.</description><methods/></class>
	<class name="A"><brief_description>a2</brief_description><description>A again.</description><methods/></class>
</doc>
`)

	doc, err := newAggregator(t, Config{}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, FileModeVersion, doc.Version)
	assert.Equal(t, 2, doc.Len())
	a, ok := doc.Class("A")
	require.True(t, ok)
	assert.Equal(t, "A again.", a.Description)
}

func TestRun_FileModeSingleClassRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Vector2.xml")
	writeFile(t, path, classXML("Vector2", "Vector used for 2D math."))

	doc, err := newAggregator(t, Config{Mode: ModeFile}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, FileModeVersion, doc.Version)
	v, ok := doc.Class("Vector2")
	require.True(t, ok)
	require.Len(t, v.Methods, 1)
	assert.Equal(t, "float", v.Methods[0].ReturnType)
	assert.Empty(t, v.Methods[0].Arguments)
	assert.Len(t, v.Constants, 1)
	assert.Empty(t, v.Properties)
	assert.Empty(t, v.Signals)
	assert.Empty(t, v.ThemeProperties)
}

func TestRun_DirModeWithFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Foo.xml")
	writeFile(t, path, classXML("Foo", "f"))

	doc, err := newAggregator(t, Config{Mode: ModeDir}).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, DirModeVersion, doc.Version)
	assert.Equal(t, 1, doc.Len())
}

func TestRun_NoOpInputs(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	for _, mode := range []Mode{ModeAuto, ModeDir} {
		t.Run(string(mode), func(t *testing.T) {
			a := newAggregator(t, Config{Mode: mode})

			doc, err := a.Run(context.Background(), "")
			assert.NoError(t, err)
			assert.Nil(t, doc)

			doc, err = a.Run(context.Background(), missing)
			assert.NoError(t, err)
			assert.Nil(t, doc)
		})
	}
}

func TestRun_FileModeMissingPathIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")

	doc, err := newAggregator(t, Config{Mode: ModeFile}).Run(context.Background(), missing)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, missing, fe.File)
}

func TestRun_FileModeRejectsDirectory(t *testing.T) {
	doc, err := newAggregator(t, Config{Mode: ModeFile}).Run(context.Background(), t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, doc)
}

func TestRun_LastWriteWinsInSortedOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "classes", "Foo.xml"), classXML("Foo", "From A."))
	writeFile(t, filepath.Join(root, "b", "classes", "Foo.xml"), classXML("Foo", "From B."))

	doc, err := newAggregator(t, Config{}).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Len())
	foo, ok := doc.Class("Foo")
	require.True(t, ok)
	assert.Equal(t, "From B.", foo.BriefDescription)
}

func TestRun_ErrorsAbortRun(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "malformed xml",
			content: `<class name="Broken"><brief_description>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, xmldom.ErrMalformedXML)
			},
		},
		{
			name:    "missing description",
			content: `<class name="NoDesc"><brief_description>b</brief_description><methods/></class>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, docdata.ErrMissingElement)
				var ce *docdata.ContentError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "class[NoDesc]", ce.Path)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, "classes", "A.xml"), classXML("A", "ok"))
			bad := filepath.Join(root, "classes", "B.xml")
			writeFile(t, bad, tt.content)
			writeFile(t, filepath.Join(root, "classes", "C.xml"), classXML("C", "ok"))

			for _, workers := range []int{1, 4} {
				doc, err := newAggregator(t, Config{Workers: workers}).Run(context.Background(), root)
				require.Error(t, err)
				assert.Nil(t, doc)

				var fe *FileError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, bad, fe.File)
				tt.check(t, err)
			}
		})
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		dir := "classes"
		if i%3 == 0 {
			dir = "doc_classes"
		}
		// Every fifth class name repeats to exercise last-write-wins ordering.
		name := fmt.Sprintf("Class%02d", i)
		if i%5 == 0 {
			name = "Shared"
		}
		writeFile(t, filepath.Join(root, fmt.Sprintf("m%02d", i), dir, fmt.Sprintf("F%02d.xml", i)), classXML(name, fmt.Sprintf("Brief %d.", i)))
	}

	seq, err := newAggregator(t, Config{Workers: 1}).Run(context.Background(), root)
	require.NoError(t, err)
	par, err := newAggregator(t, Config{Workers: 8}).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, encode(t, seq), encode(t, par))
	shared, ok := par.Class("Shared")
	require.True(t, ok)
	assert.Equal(t, "Brief 35.", shared.BriefDescription)
}

func TestRun_CacheReusesUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	foo := filepath.Join(root, "classes", "Foo.xml")
	writeFile(t, foo, classXML("Foo", "Original."))
	writeFile(t, filepath.Join(root, "classes", "Bar.xml"), classXML("Bar", "Bar."))

	cache, err := NewRecordCache(100)
	require.NoError(t, err)
	defer cache.Close()

	progress := &recordingProgress{}
	a := newAggregator(t, Config{Cache: cache, Progress: progress})

	first, err := a.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.lastStats().CacheHits)

	second, err := a.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.lastStats().CacheHits)
	f1, _ := first.Class("Foo")
	f2, _ := second.Class("Foo")
	assert.Same(t, f1, f2)

	// Rewrite with a different size and a later mtime
	writeFile(t, foo, classXML("Foo", "Changed brief description."))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(foo, later, later))

	third, err := a.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.lastStats().CacheHits)
	f3, _ := third.Class("Foo")
	assert.Equal(t, "Changed brief description.", f3.BriefDescription)
}

func TestRun_ProgressCallbacks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "classes", "A.xml"), classXML("A", "a"))
	writeFile(t, filepath.Join(root, "classes", "B.xml"), classXML("B", "b"))

	progress := &recordingProgress{}
	_, err := newAggregator(t, Config{Progress: progress}).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"discovery-start",
		"discovery-complete:2",
		"processing-start:2",
		"file:" + filepath.Join(root, "classes", "A.xml"),
		"file:" + filepath.Join(root, "classes", "B.xml"),
		"complete",
	}, progress.events)

	stats := progress.lastStats()
	assert.Equal(t, ModeDir, stats.Mode)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 2, stats.ClassesParsed)
	assert.Equal(t, 0, stats.DuplicatesReplaced)
}

func TestRun_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "classes", "A.xml"), classXML("A", "a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, err := newAggregator(t, Config{}).Run(ctx, root)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, doc)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Mode: "tree"})
	assert.Error(t, err)

	_, err = New(Config{Pattern: "[a-"})
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "FILE": ModeFile, " dir ": ModeDir} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("tree")
	assert.Error(t, err)

	assert.Equal(t, "2.1.4", ModeFile.Version())
	assert.Equal(t, "3.0.4", ModeDir.Version())
}

type recordingProgress struct {
	mu     sync.Mutex
	events []string
	stats  []*Stats
}

func (r *recordingProgress) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingProgress) lastStats() *Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stats) == 0 {
		return nil
	}
	return r.stats[len(r.stats)-1]
}

func (r *recordingProgress) OnDiscoveryStart(root string)  { r.add("discovery-start") }
func (r *recordingProgress) OnDiscoveryComplete(files int) { r.add(fmt.Sprintf("discovery-complete:%d", files)) }
func (r *recordingProgress) OnFileProcessingStart(total int) {
	r.add(fmt.Sprintf("processing-start:%d", total))
}
func (r *recordingProgress) OnFileProcessed(fileName string) { r.add("file:" + fileName) }
func (r *recordingProgress) OnComplete(stats *Stats) {
	r.add("complete")
	r.mu.Lock()
	r.stats = append(r.stats, stats)
	r.mu.Unlock()
}
