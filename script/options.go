package script

import (
	"github.com/dop251/goja"
	"github.com/goliatone/go-hooks"
)

// Option configures a script component.
type Option func(*config)

type config struct {
	contexts     map[string]*hooks.Context[any]
	globals      map[string]any
	errorHandler func(error)
	fieldMapper  goja.FieldNameMapper
}

func applyOptions(opts []Option) config {
	cfg := config{
		contexts: map[string]*hooks.Context[any]{},
		globals:  map[string]any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = func(error) {}
	}
	if cfg.fieldMapper == nil {
		cfg.fieldMapper = goja.TagFieldNameMapper("json", true)
	}
	return cfg
}

// WithContext makes ctx readable from the script as h.useContext(name).
func WithContext(name string, ctx *hooks.Context[any]) Option {
	return func(cfg *config) {
		if ctx == nil {
			return
		}
		if name == "" {
			name = ctx.Name()
		}
		cfg.contexts[name] = ctx
	}
}

// WithGlobal defines a global binding before the source runs.
func WithGlobal(name string, value any) Option {
	return func(cfg *config) {
		cfg.globals[name] = value
	}
}

// WithErrorHandler receives exceptions thrown by effects and cleanups, which
// run outside any render and have no caller to return to.
func WithErrorHandler(fn func(error)) Option {
	return func(cfg *config) {
		cfg.errorHandler = fn
	}
}

// WithFieldNameMapper controls how Go struct fields appear to scripts. The
// default maps json tags and uncapitalises methods.
func WithFieldNameMapper(mapper goja.FieldNameMapper) Option {
	return func(cfg *config) {
		cfg.fieldMapper = mapper
	}
}
