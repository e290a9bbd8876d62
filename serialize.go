package hotstate

import (
	"time"

	"github.com/goliatone/go-hotstate/reactive"
)

// Serialize flattens root into a snapshot. Every distinct object, array and
// cell is emitted once; each further route to it only adds a path. Callables
// and derived cells become keep entries holding nothing but their paths.
//
// The source graph is only read. Object keys are visited in sorted order so
// entry numbering is deterministic.
func Serialize(root map[string]any, opts ...Option) Entries {
	cfg := applyOptions(opts)
	start := time.Now()

	if root == nil {
		root = map[string]any{}
	}

	enc := &encoder{
		classifier: cfg.classifier,
		seen:       make(map[identity]int),
	}
	enc.encodeObject(root, Path{})
	enc.entries[0] = Entry{Tag: TagRoot, Fields: enc.entries[0].Fields}

	cfg.logger.Log(LogEvent{
		Op:       "serialize",
		Entries:  len(enc.entries),
		Duration: time.Since(start),
	})
	return enc.entries
}

type encoder struct {
	classifier Classifier
	entries    Entries
	seen       map[identity]int
}

func (e *encoder) encode(value any, path Path) int {
	if id, ok := identityOf(value); ok {
		if index, seen := e.seen[id]; seen {
			if e.entries[index].Tag.tracksPaths() {
				e.entries[index].Paths = append(e.entries[index].Paths, path)
			}
			return index
		}
	}

	switch classify(e.classifier, value) {
	case KindCallable, KindDerived:
		return e.push(Entry{Tag: TagKeep, Paths: []Path{path}})
	case KindCell:
		return e.encodeCell(value.(reactive.Writable), path)
	case KindArray:
		return e.encodeArray(value.(*[]any), path)
	case KindObject:
		return e.encodeObject(value.(map[string]any), path)
	default:
		return e.push(Entry{Tag: TagValue, Value: value})
	}
}

// encodeCell records the cell's contents at the cell's own path: unwrapping a
// cell does not add a path segment.
func (e *encoder) encodeCell(cell reactive.Writable, path Path) int {
	index := e.reserve(cell, Entry{Tag: TagCell, Paths: []Path{path}})
	target := e.encode(cell.Get(), path)
	e.entries[index].Target = target
	return index
}

func (e *encoder) encodeArray(array *[]any, path Path) int {
	index := e.reserve(array, Entry{Tag: TagArray, Paths: []Path{path}})
	items := *array
	stored := make([]int, len(items))
	for i, item := range items {
		stored[i] = e.encode(item, path.Append(Nested(Index(i))))
	}
	e.entries[index].Items = stored
	return index
}

// encodeObject records children relative to the object itself: a child's path
// is only its key.
func (e *encoder) encodeObject(object map[string]any, path Path) int {
	fields := make(map[string]int, len(object))
	index := e.reserve(object, Entry{Tag: TagObject, Fields: fields, Paths: []Path{path}})
	for _, key := range sortedKeys(object) {
		fields[key] = e.encode(object[key], Path{Key(key)})
	}
	return index
}

func (e *encoder) reserve(value any, entry Entry) int {
	index := e.push(entry)
	if id, ok := identityOf(value); ok {
		e.seen[id] = index
	}
	return index
}

func (e *encoder) push(entry Entry) int {
	e.entries = append(e.entries, entry)
	return len(e.entries) - 1
}
