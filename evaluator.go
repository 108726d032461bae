package hooks

import "sync"

// ReduceContext is the environment an expression reducer evaluates against.
type ReduceContext struct {
	State  any
	Action any
}

// Evaluator runs reducer expressions. Implementations exist for expr-lang,
// cel-go and goja.
type Evaluator interface {
	Evaluate(ctx ReduceContext, expression string) (any, error)
	Compile(expression string) (CompiledExpression, error)
}

// CompiledExpression is an expression compiled once and evaluated per action.
type CompiledExpression interface {
	Evaluate(ctx ReduceContext) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type memoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMemoryProgramCache returns a ProgramCache backed by a guarded map. Each
// evaluator stores its own program type, so a cache should not be shared
// between engines.
func NewMemoryProgramCache() ProgramCache {
	return &memoryProgramCache{programs: map[string]any{}}
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	case *jsEvaluator:
		return "js"
	default:
		return "custom"
	}
}
