package pivot

import (
	"sort"
	"strings"
	"time"

	"excelcleaner/internal/table"
)

// KeySeparator joins the segments of a flattened key.
const KeySeparator = "."

// KeyPath is an ordered multi-level grouping key.
type KeyPath []table.Value

// Flatten joins the textual form of each segment with sep.
func (k KeyPath) Flatten(sep string) string {
	return strings.Join(segments(k), sep)
}

// keySegment is the textual form of one key level. Times use RFC 3339,
// matching how time cells are serialized.
func keySegment(v table.Value) string {
	if t, ok := v.TimeValue(); ok {
		return t.Format(time.RFC3339)
	}
	return v.String()
}

// hashKey is a collision-free map key for the path.
func (k KeyPath) hashKey() string {
	var buf []byte
	for _, v := range k {
		buf = v.AppendKey(buf)
	}
	return string(buf)
}

func (k KeyPath) hasNull() bool {
	for _, v := range k {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// keyIndex assigns dense ids to key paths in first-seen order.
type keyIndex struct {
	ids   map[string]int
	paths []KeyPath
}

func newKeyIndex() *keyIndex {
	return &keyIndex{ids: make(map[string]int)}
}

func (ki *keyIndex) id(k KeyPath) int {
	h := k.hashKey()
	if id, ok := ki.ids[h]; ok {
		return id
	}
	id := len(ki.paths)
	ki.ids[h] = id
	ki.paths = append(ki.paths, k)
	return id
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
