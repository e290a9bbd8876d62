package hotstate

import "github.com/goliatone/go-hotstate/reactive"

// locate looks for a live value for entry index that satisfies cond. When
// the entry sits directly under the root, its root keys are tried first: those
// positions are known regardless of where the entry is reached from. Then each
// recorded path is tried, in recording order, against anchor only, since
// paths are relative to the object the entry was encoded under.
func (d *decoder) locate(index int, paths []Path, anchor map[string]any, cond func(any) bool) (any, Path, bool) {
	for _, key := range d.rootKeys[index] {
		path := Path{Key(key)}
		if value, ok := d.walk(d.dest, path); ok && cond(value) {
			return value, path, true
		}
	}
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		if value, ok := d.walk(anchor, path); ok && cond(value) {
			return value, path, true
		}
	}
	return nil, nil, false
}

// walk follows path from base. A step that cannot be taken means the value is
// not there. Cells met along the way are seen through; the final value is
// returned as found.
func (d *decoder) walk(base any, path Path) (any, bool) {
	current := base
	for _, step := range path {
		next, ok := d.step(d.seeThrough(current), step)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func (d *decoder) step(current any, step Step) (any, bool) {
	switch step.Kind {
	case StepKey:
		if classify(d.cfg.classifier, current) != KindObject {
			return nil, false
		}
		value, ok := current.(map[string]any)[step.Key]
		return value, ok
	case StepIndex:
		if classify(d.cfg.classifier, current) != KindArray {
			return nil, false
		}
		items := *current.(*[]any)
		if step.Index < 0 || step.Index >= len(items) {
			return nil, false
		}
		return items[step.Index], true
	case StepNested:
		return d.walk(current, step.Nested)
	default:
		return nil, false
	}
}

func (d *decoder) seeThrough(value any) any {
	if classify(d.cfg.classifier, value) == KindCell {
		return value.(reactive.Writable).Get()
	}
	return value
}
