package jsreload

import (
	"strconv"

	"github.com/dop251/goja"
	"github.com/goliatone/go-hotstate/reactive"
)

// bridge converts values between one goja runtime and hotstate's live state
// shapes. Cells cross as objects with a .value property, arrays become
// *[]any and JS functions stay callable.
type bridge struct {
	vm      *goja.Runtime
	objects map[reactive.Readable]*goja.Object
	onError func(error)
}

func newBridge(vm *goja.Runtime, onError func(error)) *bridge {
	b := &bridge{
		vm:      vm,
		objects: make(map[reactive.Readable]*goja.Object),
		onError: onError,
	}
	return b
}

// install binds ref and computed as globals.
func (b *bridge) install() error {
	if err := b.vm.Set("ref", b.ref); err != nil {
		return err
	}
	return b.vm.Set("computed", b.computed)
}

// ref(initial) returns a writable cell.
func (b *bridge) ref(call goja.FunctionCall) goja.Value {
	return b.wrap(reactive.NewRef(b.toGo(call.Argument(0))))
}

// computed(fn, [deps]) returns a read-only cell recomputed when one of the
// listed cells changes.
func (b *bridge) computed(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(b.vm.NewTypeError("computed expects a function"))
	}

	var deps []reactive.Watchable
	if list, ok := call.Argument(1).(*goja.Object); ok {
		for _, item := range *b.arrayOf(list) {
			watchable, ok := item.(reactive.Watchable)
			if !ok {
				panic(b.vm.NewTypeError("computed dependencies must be cells"))
			}
			deps = append(deps, watchable)
		}
	}

	cell := reactive.NewComputed(func() any {
		value, err := fn(goja.Undefined())
		if err != nil {
			b.onError(err)
			return nil
		}
		return b.toGo(value)
	}, deps...)
	return b.wrap(cell)
}

func (b *bridge) wrap(cell reactive.Readable) *goja.Object {
	if obj, ok := b.objects[cell]; ok {
		return obj
	}
	obj := b.vm.NewDynamicObject(&cellObject{bridge: b, cell: cell})
	b.objects[cell] = obj
	return obj
}

// close detaches every computed cell created by this runtime from its
// dependencies.
func (b *bridge) close() {
	for cell := range b.objects {
		if computed, ok := cell.(*reactive.Computed); ok {
			computed.Stop()
		}
	}
}

// toJS converts a Go value for use inside the runtime.
func (b *bridge) toJS(value any) goja.Value {
	if cell, ok := value.(reactive.Readable); ok {
		return b.wrap(cell)
	}
	return b.vm.ToValue(value)
}

// toGo converts a runtime value into live state. Objects reached twice map
// to the same Go value.
func (b *bridge) toGo(value goja.Value) any {
	return b.convert(value, make(map[*goja.Object]any))
}

func (b *bridge) convert(value goja.Value, seen map[*goja.Object]any) any {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}
	obj, ok := value.(*goja.Object)
	if !ok {
		return value.Export()
	}
	if out, ok := seen[obj]; ok {
		return out
	}

	if _, ok := goja.AssertFunction(obj); ok {
		return obj.Export()
	}
	exported := obj.Export()
	switch v := exported.(type) {
	case *cellObject:
		return v.cell
	case *[]any:
		return v
	}

	switch obj.ClassName() {
	case "Array":
		items := &[]any{}
		seen[obj] = items
		n := int(obj.Get("length").ToInteger())
		for i := 0; i < n; i++ {
			*items = append(*items, b.convert(obj.Get(strconv.Itoa(i)), seen))
		}
		return items
	case "Object":
		fields := make(map[string]any)
		seen[obj] = fields
		for _, key := range obj.Keys() {
			fields[key] = b.convert(obj.Get(key), seen)
		}
		return fields
	default:
		return exported
	}
}

func (b *bridge) arrayOf(obj *goja.Object) *[]any {
	if items, ok := b.toGo(obj).(*[]any); ok {
		return items
	}
	return &[]any{}
}

// cellObject exposes a cell to scripts as { value }.
type cellObject struct {
	bridge *bridge
	cell   reactive.Readable
}

func (c *cellObject) Get(key string) goja.Value {
	if key != "value" {
		return nil
	}
	return c.bridge.toJS(c.cell.Get())
}

func (c *cellObject) Set(key string, value goja.Value) bool {
	writable, ok := c.cell.(reactive.Writable)
	if key != "value" || !ok {
		return false
	}
	if _, derived := c.cell.(reactive.Derived); derived {
		return false
	}
	writable.Set(c.bridge.toGo(value))
	return true
}

func (c *cellObject) Has(key string) bool {
	return key == "value"
}

func (c *cellObject) Delete(string) bool {
	return false
}

func (c *cellObject) Keys() []string {
	return []string{"value"}
}
