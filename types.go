package hotstate

// Tag identifies the kind of a snapshot entry. The string values are the wire
// letters used by the tagged-tuple JSON form.
type Tag string

const (
	TagRoot   Tag = "_"
	TagValue  Tag = "v"
	TagArray  Tag = "a"
	TagObject Tag = "o"
	TagCell   Tag = "r"
	TagKeep   Tag = "k"
)

func (t Tag) String() string {
	switch t {
	case TagRoot:
		return "root"
	case TagValue:
		return "value"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagCell:
		return "cell"
	case TagKeep:
		return "keep"
	default:
		return "unknown(" + string(t) + ")"
	}
}

// tracksPaths reports whether entries of this tag record provenance paths.
func (t Tag) tracksPaths() bool {
	switch t {
	case TagArray, TagObject, TagCell, TagKeep:
		return true
	default:
		return false
	}
}

// Entry is one element of a snapshot. Which fields are meaningful depends on
// Tag:
//
//	TagRoot    Fields
//	TagValue   Value
//	TagArray   Items, Paths
//	TagObject  Fields, Paths
//	TagCell    Target, Paths
//	TagKeep    Paths
type Entry struct {
	Tag    Tag
	Value  any
	Items  []int
	Fields map[string]int
	Target int
	Paths  []Path
}

// Entries is a flattened snapshot. Entry 0 is always the root.
type Entries []Entry

// Root returns entry 0 when it is a root entry.
func (e Entries) Root() (Entry, bool) {
	if len(e) == 0 || e[0].Tag != TagRoot {
		return Entry{}, false
	}
	return e[0], true
}

// Keys returns the top-level keys recorded in the root entry, sorted.
func (e Entries) Keys() []string {
	root, ok := e.Root()
	if !ok {
		return nil
	}
	return sortedKeys(root.Fields)
}

// Clone returns a deep copy of the snapshot structure. Value payloads are
// copied shallowly; they only ever hold primitives.
func (e Entries) Clone() Entries {
	if e == nil {
		return nil
	}
	out := make(Entries, len(e))
	for i, entry := range e {
		out[i] = entry.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	out := Entry{
		Tag:    e.Tag,
		Value:  e.Value,
		Target: e.Target,
		Paths:  clonePaths(e.Paths),
	}
	if e.Items != nil {
		out.Items = append([]int(nil), e.Items...)
	}
	if e.Fields != nil {
		out.Fields = make(map[string]int, len(e.Fields))
		for key, index := range e.Fields {
			out.Fields[key] = index
		}
	}
	return out
}
