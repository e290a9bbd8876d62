package derive

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

var (
	anySliceType = reflect.TypeOf([]any{})
	anyMapType   = reflect.TypeOf(map[string]any{})
)

// celEvaluator runs expressions with github.com/google/cel-go. CEL checks
// variables at compile time, so a program is built per distinct set of
// environment names.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := applyEvaluatorOptions(opts)
	return &celEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *celEvaluator) Evaluate(env map[string]any, expression string) (any, error) {
	program, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return program.Run(env)
}

// Compile parses expression eagerly so syntax errors surface early. Type
// checking happens on the first Run for each environment shape.
func (e *celEvaluator) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, emptyExpression("cel")
	}
	env, err := e.buildEnv(nil)
	if err != nil {
		return nil, engineError("cel", err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, compileError("cel", expression, issues.Err())
	}
	return &celHandle{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, activation map[string]any) (*celProgram, error) {
	names := make([]string, 0, len(activation))
	for name := range activation {
		names = append(names, name)
	}
	sort.Strings(names)
	key := "cel:" + strings.Join(names, ",") + ":" + expression

	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(activation)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{env: env, program: prg}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(activation map[string]any) (*celgo.Env, error) {
	var opts []celgo.EnvOption
	for name, value := range activation {
		if _, ok := value.(time.Time); ok {
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("derive_call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
		for _, def := range e.registry.Definitions() {
			opts = append(opts, e.function(def))
		}
	}
	return celgo.NewEnv(opts...)
}

// function declares def as a CEL overload with one dyn parameter per
// argument. Variadic definitions take a single dyn argument and spread it
// when it is a list.
func (e *celEvaluator) function(def Definition) celgo.EnvOption {
	name := def.Name
	if def.Arity == Variadic {
		return celgo.Function(name, celgo.Overload("derive_fn_"+name+"_variadic",
			[]*celgo.Type{celgo.DynType},
			celgo.DynType,
			celgo.UnaryBinding(func(arg ref.Val) ref.Val {
				list, ok := arg.(traits.Lister)
				if !ok {
					return celResult(e.registry.Call(name, celNative(arg)))
				}
				return celResult(e.registry.Call(name, celArgs(list)...))
			}),
		))
	}

	params := make([]*celgo.Type, def.Arity)
	for i := range params {
		params[i] = celgo.DynType
	}
	invoke := func(values ...ref.Val) ref.Val {
		args := make([]any, len(values))
		for i, value := range values {
			args[i] = celNative(value)
		}
		return celResult(e.registry.Call(name, args...))
	}

	var binding celgo.OverloadOpt
	switch def.Arity {
	case 1:
		binding = celgo.UnaryBinding(func(arg ref.Val) ref.Val { return invoke(arg) })
	case 2:
		binding = celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val { return invoke(lhs, rhs) })
	default:
		binding = celgo.FunctionBinding(invoke)
	}
	return celgo.Function(name, celgo.Overload(
		fmt.Sprintf("derive_fn_%s_%d", name, def.Arity),
		params,
		celgo.DynType,
		binding,
	))
}

func (e *celEvaluator) callBinding(name, args ref.Val) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("derive: call name must be a string")
	}
	list, ok := args.(traits.Lister)
	if !ok {
		return types.NewErr("derive: call arguments must be a list")
	}
	return celResult(e.registry.Call(fn, celArgs(list)...))
}

func celArgs(list traits.Lister) []any {
	var args []any
	for it := list.Iterator(); it.HasNext() == types.True; {
		args = append(args, celNative(it.Next()))
	}
	return args
}

type celHandle struct {
	evaluator  *celEvaluator
	expression string
}

func (h *celHandle) Run(env map[string]any) (any, error) {
	activation := plainEnv(withNow(env))
	program, err := h.evaluator.loadOrCompile(h.expression, activation)
	if err != nil {
		return nil, compileError("cel", h.expression, err)
	}
	out, _, err := program.program.Eval(activation)
	if err != nil {
		return nil, runError("cel", h.expression, err)
	}
	return celNative(out), nil
}

func celNative(value ref.Val) any {
	switch value.(type) {
	case types.Null:
		return nil
	case traits.Lister:
		if native, err := value.ConvertToNative(anySliceType); err == nil {
			return native
		}
	case traits.Mapper:
		if native, err := value.ConvertToNative(anyMapType); err == nil {
			return native
		}
	}
	return value.Value()
}

func celResult(result any, err error) ref.Val {
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
