package hotstate

import (
	"strconv"
	"strings"
)

// StepKind discriminates the variants of a path Step.
type StepKind uint8

const (
	// StepKey looks up a key on an object.
	StepKey StepKind = iota
	// StepIndex looks up a position on an array.
	StepIndex
	// StepNested walks a nested path from the current value. The encoder wraps
	// array positions this way so they stay distinct from object keys.
	StepNested
)

// Step is one accessor of a structural path.
type Step struct {
	Kind   StepKind
	Key    string
	Index  int
	Nested Path
}

// Path is a recorded route of steps from an anchor to a value.
type Path []Step

// Key returns a StepKey step.
func Key(key string) Step {
	return Step{Kind: StepKey, Key: key}
}

// Index returns a StepIndex step.
func Index(index int) Step {
	return Step{Kind: StepIndex, Index: index}
}

// Nested returns a StepNested step wrapping steps.
func Nested(steps ...Step) Step {
	return Step{Kind: StepNested, Nested: Path(steps)}
}

// Append returns a copy of p with steps appended; p is never aliased.
func (p Path) Append(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

// Clone deep copies the path, including nested paths.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	for i, step := range p {
		out[i] = step
		if step.Kind == StepNested {
			out[i].Nested = step.Nested.Clone()
		}
	}
	return out
}

// Equal reports whether p and other describe the same route.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		a, b := p[i], other[i]
		if a.Kind != b.Kind {
			return false
		}
		switch a.Kind {
		case StepKey:
			if a.Key != b.Key {
				return false
			}
		case StepIndex:
			if a.Index != b.Index {
				return false
			}
		case StepNested:
			if !a.Nested.Equal(b.Nested) {
				return false
			}
		}
	}
	return true
}

// String renders a debug form such as "items([0]).name". The empty path renders
// as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	p.write(&b)
	return b.String()
}

func (p Path) write(b *strings.Builder) {
	for i, step := range p {
		switch step.Kind {
		case StepKey:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(step.Key)
		case StepIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(step.Index))
			b.WriteByte(']')
		case StepNested:
			b.WriteByte('(')
			step.Nested.write(b)
			b.WriteByte(')')
		}
	}
}

func clonePaths(paths []Path) []Path {
	if paths == nil {
		return nil
	}
	out := make([]Path, len(paths))
	for i, path := range paths {
		out[i] = path.Clone()
	}
	return out
}
