package hooks

import "time"

// LogKind classifies runtime log events.
type LogKind string

const (
	LogRender             LogKind = "render"
	LogCommit             LogKind = "commit"
	LogEffect             LogKind = "effect"
	LogDependencyMismatch LogKind = "dependency_mismatch"
	LogUnmount            LogKind = "unmount"
	LogReduce             LogKind = "reduce"
)

// LogEvent describes a runtime occurrence for logging.
type LogEvent struct {
	Kind       LogKind
	InstanceID InstanceID
	Component  string
	Pass       uint64
	Slot       int
	Slots      int
	Duration   time.Duration
	Message    string
	Err        error
}

// Logger records runtime events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the runtime.
func WithLogger(logger Logger) Option {
	return func(cfg *runtimeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
