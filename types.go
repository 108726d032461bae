package hooks

import (
	"context"
	"strings"

	"github.com/goliatone/go-hooks/pkg/activity"
	"github.com/goliatone/go-hooks/scheduler"
	"github.com/google/uuid"
)

// InstanceID identifies one mounted component instance and its slot store.
type InstanceID = uuid.UUID

// Component is a root function. It is invoked once per render pass, must call
// hooks in the same order and kind on every pass, and returns a description of
// the desired output.
type Component[O any] func(f *Frame) O

// Renderer commits an output description to a target. It is the only external
// operation the runtime performs per render.
type Renderer[O any] interface {
	RenderInto(ctx context.Context, output O, target string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc[O any] func(ctx context.Context, output O, target string) error

// RenderInto implements Renderer.
func (fn RendererFunc[O]) RenderInto(ctx context.Context, output O, target string) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, output, target)
}

// Scheduler is the host boundary for deferred effect execution. Both methods
// accept a callback that must run exactly once, later. Callbacks of the same
// class run in registration order.
type Scheduler interface {
	// ScheduleBeforePaint queues fn to complete before the next paint.
	ScheduleBeforePaint(fn func())
	// ScheduleAfterTask queues fn to run once the current task has unwound.
	ScheduleAfterTask(fn func())
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	scheduler       Scheduler
	logger          Logger
	activityHooks   activity.Hooks
	activityChannel string
	ctx             context.Context
}

func applyOptions(opts []Option) runtimeConfig {
	cfg := runtimeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.scheduler == nil {
		cfg.scheduler = scheduler.NewQueue()
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	return cfg
}

// WithScheduler configures the effect scheduler shared by every instance.
func WithScheduler(s Scheduler) Option {
	return func(cfg *runtimeConfig) {
		cfg.scheduler = s
	}
}

// WithContext sets the base context passed to renderers and activity hooks
// when a render is triggered by a setter rather than by Mount.
func WithContext(ctx context.Context) Option {
	return func(cfg *runtimeConfig) {
		cfg.ctx = ctx
	}
}

// WithActivityChannel overrides the default activity channel ("hooks").
func WithActivityChannel(channel string) Option {
	return func(cfg *runtimeConfig) {
		cfg.activityChannel = strings.TrimSpace(channel)
	}
}

// MountOption configures a single instance.
type MountOption func(*mountConfig)

type mountConfig struct {
	name         string
	hydration    *Snapshot
	fillDefaults bool
}

// WithName labels the instance's component in logs, errors and snapshots.
func WithName(name string) MountOption {
	return func(cfg *mountConfig) {
		cfg.name = strings.TrimSpace(name)
	}
}

// WithHydration seeds state slots on the first render from a snapshot.
func WithHydration(snapshot Snapshot) MountOption {
	return func(cfg *mountConfig) {
		snap := snapshot.clone()
		cfg.hydration = &snap
	}
}

// WithHydrationDefaults fills reference fields a hydrated state value left
// unset (nil pointers, maps, slices and interfaces) from the hook's initial
// value. It lets snapshots taken before a field existed restore cleanly.
func WithHydrationDefaults() MountOption {
	return func(cfg *mountConfig) {
		cfg.fillDefaults = true
	}
}

func applyMountOptions(opts []MountOption) mountConfig {
	cfg := mountConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
