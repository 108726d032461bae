package hooks

import "github.com/goliatone/go-hooks/pkg/activity"

// WithActivityHooks attaches lifecycle activity hooks to the runtime. Mount,
// render, render failure and unmount events are fanned out to them.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *runtimeConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a copy of the hooks configured on the runtime.
func (rt *Runtime) ActivityHooks() activity.Hooks {
	if rt == nil {
		return nil
	}
	return cloneActivityHooks(rt.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
