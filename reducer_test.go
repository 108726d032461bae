package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry))
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry))
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		},
	},
}

func TestExprReducerAcrossEngines(t *testing.T) {
	cases := []struct {
		name   string
		expr   string
		state  int
		action any
		want   int
	}{
		{name: "increment", expr: `action == "inc" ? state + 1 : state - 1`, state: 4, action: "inc", want: 5},
		{name: "decrement", expr: `action == "inc" ? state + 1 : state - 1`, state: 4, action: "dec", want: 3},
		{name: "numeric action", expr: `state + action`, state: 10, action: 5, want: 15},
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			for _, tc := range cases {
				tc := tc
				t.Run(tc.name, func(t *testing.T) {
					reducer, err := NewExprReducer[int](tc.expr, ReducerWithEvaluator(factory.new(NewMemoryProgramCache(), nil)))
					if err != nil {
						t.Fatalf("compile: %v", err)
					}
					got, err := reducer(tc.state, tc.action)
					if err != nil {
						t.Fatalf("reduce: %v", err)
					}
					if got != tc.want {
						t.Fatalf("expected %d, got %d", tc.want, got)
					}
				})
			}
		})
	}
}

func TestExprReducerCallsRegisteredFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("clamp", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("clamp expects 2 args")
		}
		value, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		limit, err := toInt(args[1])
		if err != nil {
			return nil, err
		}
		if value > limit {
			return limit, nil
		}
		return value, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			reducer, err := NewExprReducer[int](`call("clamp", state + action, 10)`, ReducerWithEvaluator(factory.new(nil, registry)))
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			got, err := reducer(8, 5)
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}
			if got != 10 {
				t.Fatalf("expected clamp to 10, got %d", got)
			}
		})
	}
}

func TestExprReducerKeepsRegistryErrors(t *testing.T) {
	errQuota := errors.New("quota at 100% for %s")
	registry := NewFunctionRegistry().MustRegister("quota", func(args ...any) (any, error) {
		return nil, errQuota
	})

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			reducer, err := NewExprReducer[int](`call("quota", state)`, ReducerWithEvaluator(factory.new(nil, registry)))
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			got, err := reducer(3, 1)
			if !errors.Is(err, errQuota) {
				t.Fatalf("expected registry error in chain, got %v", err)
			}
			if !strings.Contains(err.Error(), "quota at 100% for %s") {
				t.Fatalf("expected message to survive verbatim, got %q", err.Error())
			}
			if got != 3 {
				t.Fatalf("expected state to stay 3, got %d", got)
			}
		})
	}
}

func TestExprReducerStructState(t *testing.T) {
	type todo struct {
		Items []string `json:"items"`
		Done  int      `json:"done"`
	}
	reducer, err := NewExprReducer[todo](`{"items": state.Items, "done": state.Done + 1}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := reducer(todo{Items: []string{"a"}, Done: 1}, nil)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if got.Done != 2 || len(got.Items) != 1 || got.Items[0] != "a" {
		t.Fatalf("unexpected state %#v", got)
	}

	celReducer, err := NewExprReducer[todo](`{"items": state.items, "done": state.done + 1.0}`, ReducerWithEvaluator(NewCELEvaluator()))
	if err != nil {
		t.Fatalf("compile cel: %v", err)
	}
	got, err = celReducer(todo{Items: []string{"b"}, Done: 4}, nil)
	if err != nil {
		t.Fatalf("reduce cel: %v", err)
	}
	if got.Done != 5 || got.Items[0] != "b" {
		t.Fatalf("unexpected cel state %#v", got)
	}
}

func TestExprReducerErrorsKeepState(t *testing.T) {
	var events []LogEvent
	logger := LoggerFunc(func(event LogEvent) { events = append(events, event) })

	reducer, err := NewExprReducer[int](`state + action`, ReducerWithLogger(logger))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := reducer(3, "x")
	if err == nil {
		t.Fatalf("expected adding a string action to fail")
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if got != 3 {
		t.Fatalf("expected state to stay 3, got %d", got)
	}
	if len(events) != 1 || events[0].Kind != LogReduce || events[0].Err == nil {
		t.Fatalf("expected one failed reduce event, got %+v", events)
	}
}

func TestExprReducerRejectsInvalidExpression(t *testing.T) {
	if _, err := NewExprReducer[int](""); err == nil {
		t.Fatalf("expected empty expression to fail")
	}
	_, err := NewExprReducer[int](`state +`, ReducerWithEvaluator(NewCELEvaluator()))
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Phase != "compile" {
		t.Fatalf("expected compile EvaluationError, got %v", err)
	}
}

func TestProgramCacheReusesCompiledPrograms(t *testing.T) {
	cache := NewMemoryProgramCache()
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache))
	if _, err := evaluator.Compile("state * 2"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	first, ok := cache.Get("state * 2")
	if !ok {
		t.Fatalf("expected compiled program to be cached")
	}
	if _, err := evaluator.Compile("state * 2"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, _ := cache.Get("state * 2")
	if first != second {
		t.Fatalf("expected cached program to be reused")
	}
}

func TestFunctionRegistryValidatesNames(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(...any) (any, error) { return nil, nil }
	for _, name := range []string{"", "state", "call", "two words", "9lives"} {
		if err := registry.Register(name, noop); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	if err := registry.Register("Double", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("double", noop); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "double" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestExprReducerDrivesUseReducer(t *testing.T) {
	reducer, err := NewExprReducer[int](`action == "inc" ? state + 1 : state - 1`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var dispatch Dispatch[any]
	var rendered []int
	component := func(f *Frame) int {
		count, d := UseReducer(f, reducer, 0)
		dispatch = d
		return count
	}
	renderer := RendererFunc[int](func(_ context.Context, out int, _ string) error {
		rendered = append(rendered, out)
		return nil
	})
	if _, err := Mount(context.Background(), New(), component, renderer, "root"); err != nil {
		t.Fatalf("mount: %v", err)
	}
	for _, action := range []string{"inc", "inc", "dec", "inc"} {
		if err := dispatch.Dispatch(action); err != nil {
			t.Fatalf("dispatch %s: %v", action, err)
		}
	}
	want := []int{0, 1, 2, 1, 2}
	if fmt.Sprint(rendered) != fmt.Sprint(want) {
		t.Fatalf("expected renders %v, got %v", want, rendered)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
