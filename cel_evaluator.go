package hooks

import (
	"encoding/json"
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are reachable through call("name", args...).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. state and action
// are declared dyn; struct states are exposed as maps of their JSON form.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx ReduceContext, expression string) (any, error) {
	compiled, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledExpression, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "compile", err)
	}
	return &celCompiled{evaluator: e, program: program, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, prg)
	}
	return prg, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("state", celgo.DynType),
		celgo.Variable("action", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.DynType},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		), celgo.Overload(
			"call_dyn_dyn",
			[]*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		)))
	}
	return celgo.NewEnv(opts...)
}

type celCompiled struct {
	evaluator  *celEvaluator
	program    celgo.Program
	expression string
}

func (c *celCompiled) Evaluate(ctx ReduceContext) (any, error) {
	activation := map[string]any{
		"state":  celInput(ctx.State),
		"action": celInput(ctx.Action),
	}
	out, _, err := c.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", c.expression, "evaluate", err)
	}
	native, err := celNative(out)
	if err != nil {
		return nil, wrapEvaluationError("cel", c.expression, "evaluate", err)
	}
	return native, nil
}

// celInput exposes structs through their JSON form, since cel-go only
// understands registered or protobuf types.
func celInput(value any) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return value
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return value
	}
	return out
}

func celNative(val ref.Val) (any, error) {
	switch val.(type) {
	case traits.Mapper:
		return val.ConvertToNative(reflect.TypeOf(map[string]any{}))
	case traits.Lister:
		return val.ConvertToNative(reflect.TypeOf([]any{}))
	}
	if val == types.NullValue {
		return nil, nil
	}
	return val.Value(), nil
}

func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("hooks: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("hooks: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("hooks: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			native, err := celNative(val)
			if err != nil {
				return types.WrapErr(err)
			}
			args = append(args, native)
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.WrapErr(err)
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
