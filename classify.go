package hotstate

import (
	"reflect"
	"sort"
	"unsafe"

	"github.com/goliatone/go-hotstate/reactive"
)

// Kind is the capability class of a value in a state graph.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
	KindCell
	KindDerived
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindCell:
		return "cell"
	case KindDerived:
		return "derived"
	case KindCallable:
		return "callable"
	default:
		return "primitive"
	}
}

// Classifier maps a value to its Kind. Objects must be map[string]any, arrays
// *[]any and cells reactive.Writable; values claimed otherwise are treated as
// primitives.
type Classifier func(value any) Kind

// DefaultClassifier recognises the shapes this package works with. Derived
// cells are checked before mutable ones so they are never written.
func DefaultClassifier(value any) Kind {
	switch v := value.(type) {
	case nil:
		return KindPrimitive
	case map[string]any:
		if v == nil {
			return KindPrimitive
		}
		return KindObject
	case *[]any:
		if v == nil {
			return KindPrimitive
		}
		return KindArray
	case reactive.Derived:
		return KindDerived
	case reactive.Writable:
		return KindCell
	}
	if reflect.TypeOf(value).Kind() == reflect.Func {
		return KindCallable
	}
	return KindPrimitive
}

// NewArray builds an array value holding items.
func NewArray(items ...any) *[]any {
	out := make([]any, len(items))
	copy(out, items)
	return &out
}

// identity is the seen-set key for a reference: two values share an identity
// only when they have the same dynamic type and point at the same memory.
type identity struct {
	typ reflect.Type
	ptr unsafe.Pointer
}

func identityOf(value any) (identity, bool) {
	if value == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.UnsafePointer()}, true
	}
	return identity{}, false
}

// classify resolves kind and enforces the Go shape each kind requires.
func classify(classifier Classifier, value any) Kind {
	kind := classifier(value)
	switch kind {
	case KindObject:
		if m, ok := value.(map[string]any); !ok || m == nil {
			return KindPrimitive
		}
	case KindArray:
		if a, ok := value.(*[]any); !ok || a == nil {
			return KindPrimitive
		}
	case KindCell:
		if _, ok := value.(reactive.Writable); !ok {
			return KindPrimitive
		}
	}
	return kind
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
