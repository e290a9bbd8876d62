package derive

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a host callable exposed to expressions.
type Function func(args ...any) (any, error)

// Variadic is the arity of a function that accepts any number of arguments.
const Variadic = -1

// Definition is a registered function together with its arity.
type Definition struct {
	Name  string
	Arity int
	Fn    Function
}

func (d Definition) invoke(args []any) (any, error) {
	if d.Arity != Variadic && len(args) != d.Arity {
		return nil, fmt.Errorf("derive: function %q takes %d argument(s), got %d", d.Name, d.Arity, len(args))
	}
	return d.Fn(args...)
}

// FunctionRegistry holds the host functions evaluators expose to
// expressions. Names are case-insensitive and stored lower cased.
//
// Engines bind a definition according to its arity: expr and JavaScript
// pass arguments through as written, CEL declares one overload with Arity
// dyn parameters. A Variadic function is declared in CEL with a single dyn
// parameter and a list argument is spread, so coalesce([a, b]) calls the
// function with a and b.
type FunctionRegistry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{defs: make(map[string]Definition)}
}

// NewStandardRegistry returns a registry preloaded with the helpers every
// derived cell can rely on:
//
//	coalesce(a, b, ...)  first argument that is not nil, or nil
//	between(x, lo, hi)   lo <= x <= hi, comparing numerically
func NewStandardRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.Define("coalesce", Variadic, coalesce)
	_ = r.Define("between", 3, between)
	return r
}

// Register adds a variadic function.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	return r.Define(name, Variadic, fn)
}

// Define adds fn under name. Calls with a different argument count fail
// before fn runs unless arity is Variadic.
func (r *FunctionRegistry) Define(name string, arity int, fn Function) error {
	if name == "" {
		return fmt.Errorf("derive: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("derive: function %q is nil", name)
	}
	if arity < Variadic {
		return fmt.Errorf("derive: function %q has invalid arity %d", name, arity)
	}
	key := strings.ToLower(name)
	if reservedFunctions[key] {
		return fmt.Errorf("derive: function name %q is reserved", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs == nil {
		r.defs = make(map[string]Definition)
	}
	if _, exists := r.defs[key]; exists {
		return fmt.Errorf("derive: function %q already registered", name)
	}
	r.defs[key] = Definition{Name: key, Arity: arity, Fn: fn}
	return nil
}

// reservedFunctions are bound by every evaluator and cannot be shadowed.
var reservedFunctions = map[string]bool{"call": true, "now": true}

// Lookup returns the definition registered under name.
func (r *FunctionRegistry) Lookup(name string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[strings.ToLower(name)]
	return def, ok
}

// Definitions returns every definition sorted by name.
func (r *FunctionRegistry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	r.mu.RUnlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns the registered names, lower cased and sorted.
func (r *FunctionRegistry) Names() []string {
	defs := r.Definitions()
	if defs == nil {
		return nil
	}
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Clone returns a copy that can be extended without affecting r.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{defs: make(map[string]Definition, len(r.defs))}
	for name, def := range r.defs {
		clone.defs[name] = def
	}
	return clone
}

// Call runs the function registered under name after checking its arity.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("derive: function registry is nil")
	}
	def, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("derive: function %q not registered", name)
	}
	return def.invoke(args)
}

func (r *FunctionRegistry) bound(name string) Function {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

func coalesce(args ...any) (any, error) {
	for _, arg := range args {
		if arg != nil {
			return arg, nil
		}
	}
	return nil, nil
}

func between(args ...any) (any, error) {
	values := make([]float64, len(args))
	for i, arg := range args {
		n, ok := toNumber(arg)
		if !ok {
			return nil, fmt.Errorf("derive: between: argument %d is %T, not a number", i, arg)
		}
		values[i] = n
	}
	return values[1] <= values[0] && values[0] <= values[2], nil
}

// toNumber widens the numeric shapes the engines hand to host functions:
// expr passes int, CEL and goja int64 or float64, decoded snapshots
// json.Number.
func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
