package aggregator

import (
	"os"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/xmldoc2json/internal/docdata"
)

// DefaultCacheCapacity bounds the number of files whose records are kept.
const DefaultCacheCapacity = 10_000

// RecordCache remembers the classes parsed from each file so repeated runs
// over an unchanged tree skip reparsing. An entry is valid only while the
// file's size and modification time are unchanged.
type RecordCache struct {
	cache otter.Cache[string, cacheEntry]
}

type cacheEntry struct {
	size    int64
	modTime int64
	classes []*docdata.ClassRecord
}

// NewRecordCache creates a cache holding up to capacity files.
func NewRecordCache(capacity int) (*RecordCache, error) {
	c, err := otter.MustBuilder[string, cacheEntry](capacity).Build()
	if err != nil {
		return nil, err
	}
	return &RecordCache{cache: c}, nil
}

// Get returns the cached classes for path if info still describes the cached file.
func (rc *RecordCache) Get(path string, info os.FileInfo) ([]*docdata.ClassRecord, bool) {
	entry, ok := rc.cache.Get(path)
	if !ok {
		return nil, false
	}
	if entry.size != info.Size() || entry.modTime != info.ModTime().UnixNano() {
		rc.cache.Delete(path)
		return nil, false
	}
	return entry.classes, true
}

// Put stores the classes parsed from path.
func (rc *RecordCache) Put(path string, info os.FileInfo, classes []*docdata.ClassRecord) {
	rc.cache.Set(path, cacheEntry{
		size:    info.Size(),
		modTime: info.ModTime().UnixNano(),
		classes: classes,
	})
}

// Invalidate drops any entry for path.
func (rc *RecordCache) Invalidate(path string) {
	rc.cache.Delete(path)
}

// Close releases the cache's background resources.
func (rc *RecordCache) Close() {
	rc.cache.Close()
}
