// Package derive builds derived cells from expressions. Three engines are
// available: expr-lang/expr (NewExprEvaluator), cel-go (NewCELEvaluator) and
// goja (NewJSEvaluator). Expression wires an evaluator to a set of reactive
// dependencies and returns a *reactive.Computed that snapshots treat as a keep
// entry.
//
// Host functions reach expressions through a FunctionRegistry passed with
// WithFunctionRegistry. NewStandardRegistry starts from coalesce and between.
package derive
