package hooks

import (
	"fmt"
	"time"

	"github.com/goliatone/go-hooks/internal/hydrate"
)

// ReducerOption configures an expression reducer.
type ReducerOption func(*reducerConfig)

type reducerConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    Logger
}

// ReducerWithEvaluator selects the expression engine. Cache and registry
// options only apply to the default expr engine; configure other engines
// through their own options.
func ReducerWithEvaluator(evaluator Evaluator) ReducerOption {
	return func(cfg *reducerConfig) {
		cfg.evaluator = evaluator
	}
}

// ReducerWithProgramCache shares compiled programs between reducers.
func ReducerWithProgramCache(cache ProgramCache) ReducerOption {
	return func(cfg *reducerConfig) {
		cfg.cache = cache
	}
}

// ReducerWithFunctionRegistry exposes registry functions to the expression.
func ReducerWithFunctionRegistry(registry *FunctionRegistry) ReducerOption {
	return func(cfg *reducerConfig) {
		cfg.registry = registry
	}
}

// ReducerWithLogger logs each evaluation as a reduce event.
func ReducerWithLogger(logger Logger) ReducerOption {
	return func(cfg *reducerConfig) {
		cfg.logger = logger
	}
}

// NewExprReducer compiles expression into a Reducer. The expression sees the
// current state as `state` and the dispatched action as `action`; its result
// becomes the next state after conversion to S.
//
//	inc, _ := hooks.NewExprReducer[int](`action == "inc" ? state + 1 : state - 1`)
//	count, dispatch := hooks.UseReducer(f, inc, 0)
func NewExprReducer[S any](expression string, opts ...ReducerOption) (Reducer[S, any], error) {
	cfg := reducerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		exprOpts := []ExprEvaluatorOption{}
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.registry != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.registry))
		}
		cfg.evaluator = NewExprEvaluator(exprOpts...)
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}

	compiled, err := cfg.evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(cfg.evaluator)
	decoder := hydrate.NewDecoder[S]()

	return func(state S, action any) (S, error) {
		start := time.Now()
		result, err := compiled.Evaluate(ReduceContext{State: state, Action: action})
		if err == nil {
			var next S
			next, err = decoder.Decode(hydrate.Context{Instance: engine}, result)
			if err == nil {
				cfg.logger.Log(LogEvent{Kind: LogReduce, Duration: time.Since(start), Message: expression})
				return next, nil
			}
			err = wrapEvaluationError(engine, expression, "convert", fmt.Errorf("result %T: %w", result, err))
		}
		cfg.logger.Log(LogEvent{Kind: LogReduce, Duration: time.Since(start), Message: expression, Err: err})
		return state, err
	}, nil
}
