package hotstate

import (
	"sort"
	"time"

	"github.com/goliatone/go-hotstate/reactive"
)

// Revive replays entries onto dest in place. Arrays, objects and cells that
// already live in dest at one of an entry's recorded paths are reused and
// refilled; anything that cannot be located is allocated fresh. Keep entries
// never reconstruct a value: they recover whatever dest already holds at a
// recorded path, or resolve to nothing.
//
// Afterwards dest holds exactly the snapshot's top-level keys: keys the
// snapshot lacks, or whose value could not be recovered, are deleted.
//
// entries is not modified and can be revived again. An error is returned for
// malformed snapshots, in which case dest may be partially updated.
func Revive(dest map[string]any, entries Entries, opts ...Option) error {
	_, err := revive(dest, entries, applyOptions(opts), false)
	return err
}

// ReviveWithTrace behaves like Revive and also reports, per entry, whether a
// live value was reused or allocated.
func ReviveWithTrace(dest map[string]any, entries Entries, opts ...Option) (Trace, error) {
	return revive(dest, entries, applyOptions(opts), true)
}

func revive(dest map[string]any, entries Entries, cfg config, tracing bool) (Trace, error) {
	start := time.Now()
	d := &decoder{
		cfg:     cfg,
		dest:    dest,
		entries: entries,
		slots:   make([]slot, len(entries)),
		tracing: tracing,
	}

	deleted, err := d.run()

	cfg.logger.Log(LogEvent{
		Op:        "revive",
		Entries:   len(entries),
		Reused:    d.reused,
		Allocated: d.allocated,
		Deleted:   deleted,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return Trace{}, err
	}
	if !tracing {
		return Trace{}, nil
	}
	return Trace{Decisions: d.decisions, Deleted: deleted}, nil
}

type slot struct {
	done    bool
	value   any
	defined bool
}

type decoder struct {
	cfg     config
	dest    map[string]any
	entries Entries
	slots   []slot

	// rootKeys lists, per entry index, the root keys that point at it.
	rootKeys map[int][]string

	tracing   bool
	decisions []Decision
	reused    int
	allocated int
}

func (d *decoder) run() ([]string, error) {
	if d.dest == nil {
		return nil, ErrNilDestination
	}
	root, ok := d.entries.Root()
	if !ok {
		return nil, malformed("revive", 0, "entry 0 is not a root")
	}

	// Values are assigned only once every key is resolved, so lookups keep
	// seeing the destination as it was handed in.
	keys := sortedKeys(root.Fields)
	d.rootKeys = make(map[int][]string, len(keys))
	for _, key := range keys {
		index := root.Fields[key]
		d.rootKeys[index] = append(d.rootKeys[index], key)
	}

	resolved := make(map[string]any, len(root.Fields))
	for _, key := range keys {
		value, defined, err := d.resolve(root.Fields[key], d.dest)
		if err != nil {
			return nil, err
		}
		if defined {
			resolved[key] = value
		}
	}

	for key, value := range resolved {
		d.dest[key] = value
	}

	var deleted []string
	for key := range d.dest {
		if _, ok := resolved[key]; !ok {
			delete(d.dest, key)
			deleted = append(deleted, key)
		}
	}
	sort.Strings(deleted)
	return deleted, nil
}

// resolve returns the live value for entry index. anchor is the nearest
// enclosing object being filled; object keys are recorded relative to it.
func (d *decoder) resolve(index int, anchor map[string]any) (any, bool, error) {
	if index < 0 || index >= len(d.entries) {
		return nil, false, malformed("resolve", index, "index out of range [0,%d)", len(d.entries))
	}
	if index == 0 {
		return d.dest, true, nil
	}
	if s := d.slots[index]; s.done {
		return s.value, s.defined, nil
	}

	entry := d.entries[index]
	switch entry.Tag {
	case TagValue:
		d.memo(index, entry.Value, true)
		return entry.Value, true, nil
	case TagArray:
		return d.resolveArray(index, entry, anchor)
	case TagObject:
		return d.resolveObject(index, entry, anchor)
	case TagCell:
		return d.resolveCell(index, entry, anchor)
	case TagKeep:
		value, path, ok := d.locate(index, entry.Paths, anchor, isDefined)
		d.memo(index, value, ok)
		if ok {
			d.decide(index, entry.Tag, OutcomeReused, path)
		} else {
			d.decide(index, entry.Tag, OutcomeMissing, nil)
		}
		return value, ok, nil
	default:
		return nil, false, malformed("resolve", index, "unexpected tag %q", string(entry.Tag))
	}
}

func (d *decoder) resolveArray(index int, entry Entry, anchor map[string]any) (any, bool, error) {
	var array *[]any
	if found, path, ok := d.locate(index, entry.Paths, anchor, d.is(KindArray)); ok {
		array = found.(*[]any)
		d.decide(index, entry.Tag, OutcomeReused, path)
	} else {
		array = &[]any{}
		d.decide(index, entry.Tag, OutcomeAllocated, nil)
	}
	d.memo(index, array, true)

	for i, child := range entry.Items {
		value, defined, err := d.resolve(child, anchor)
		if err != nil {
			return nil, false, err
		}
		if !defined {
			value = nil
		}
		setIndex(array, i, value)
	}

	// The array mirrors the encoded length exactly.
	if n := len(entry.Items); len(*array) > n {
		clear((*array)[n:])
		*array = (*array)[:n]
	}
	return array, true, nil
}

func (d *decoder) resolveObject(index int, entry Entry, anchor map[string]any) (any, bool, error) {
	var object map[string]any
	if found, path, ok := d.locate(index, entry.Paths, anchor, d.is(KindObject)); ok {
		object = found.(map[string]any)
		d.decide(index, entry.Tag, OutcomeReused, path)
	} else {
		object = make(map[string]any, len(entry.Fields))
		d.decide(index, entry.Tag, OutcomeAllocated, nil)
	}
	d.memo(index, object, true)

	for _, key := range sortedKeys(entry.Fields) {
		value, defined, err := d.resolve(entry.Fields[key], object)
		if err != nil {
			return nil, false, err
		}
		if defined {
			object[key] = value
		} else {
			delete(object, key)
		}
	}
	return object, true, nil
}

func (d *decoder) resolveCell(index int, entry Entry, anchor map[string]any) (any, bool, error) {
	var cell reactive.Writable
	if found, path, ok := d.locate(index, entry.Paths, anchor, d.is(KindCell)); ok {
		cell = found.(reactive.Writable)
		d.decide(index, entry.Tag, OutcomeReused, path)
	} else {
		cell = d.cfg.cellFactory()
		if cell == nil {
			cell = reactive.NewRef(nil)
		}
		d.decide(index, entry.Tag, OutcomeAllocated, nil)
	}
	d.memo(index, cell, true)

	value, defined, err := d.resolve(entry.Target, anchor)
	if err != nil {
		return nil, false, err
	}
	if !defined {
		value = nil
	}
	cell.Set(value)
	return cell, true, nil
}

func (d *decoder) memo(index int, value any, defined bool) {
	d.slots[index] = slot{done: true, value: value, defined: defined}
}

func (d *decoder) decide(index int, tag Tag, outcome Outcome, path Path) {
	switch outcome {
	case OutcomeReused:
		d.reused++
	case OutcomeAllocated:
		d.allocated++
	}
	if !d.tracing {
		return
	}
	decision := Decision{Index: index, Tag: tag, Outcome: outcome}
	if path != nil {
		decision.Path = path.String()
	}
	d.decisions = append(d.decisions, decision)
}

func (d *decoder) is(kind Kind) func(any) bool {
	return func(value any) bool {
		return classify(d.cfg.classifier, value) == kind
	}
}

func isDefined(any) bool {
	return true
}

func setIndex(array *[]any, i int, value any) {
	items := *array
	if i < len(items) {
		items[i] = value
		return
	}
	for len(items) < i {
		items = append(items, nil)
	}
	*array = append(items, value)
}
