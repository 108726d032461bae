package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-hooks"
	"github.com/goliatone/go-hooks/pkg/activity"
	"github.com/goliatone/go-hooks/pkg/activity/promsink"
	"github.com/goliatone/go-hooks/pkg/state"
	"github.com/goliatone/go-hooks/scheduler"
	"github.com/goliatone/go-hooks/script"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type runConfig struct {
	invokes  []string
	stateDir string
	key      string
	verbose  bool
	metrics  bool
	context  []string
}

func newRunCmd() *cobra.Command {
	cfg := &runConfig{}
	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "mount a script component, invoke handlers and print its outputs",
		Long: `Mount a script component and print each committed output as one JSON
line. Handlers are invoked in flag order; an invocation is either "name" or
"name=<json array of arguments>". Effects are flushed after the mount and after
every invocation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg)
		},
	}
	cmd.Flags().StringArrayVarP(
		&cfg.invokes, "invoke", "i", nil, "handler to invoke, as name or name=<json args>")
	cmd.Flags().StringVar(
		&cfg.stateDir, "state-dir", "", "directory for persisted snapshots (disabled when empty)")
	cmd.Flags().StringVar(
		&cfg.key, "key", "default", "snapshot key within the state directory")
	cmd.Flags().BoolVarP(
		&cfg.verbose, "verbose", "v", false, "log runtime events to stderr")
	cmd.Flags().BoolVar(
		&cfg.metrics, "metrics", false, "print lifecycle counters after the run")
	cmd.Flags().StringArrayVar(
		&cfg.context, "context", nil, "context value as name=<json>, readable with h.useContext(name)")
	return cmd
}

func runScript(stdout, stderr io.Writer, path string, cfg *runConfig) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var effectErrs []error
	scriptOpts := []script.Option{
		script.WithErrorHandler(func(err error) { effectErrs = append(effectErrs, err) }),
		script.WithGlobal("print", func(args ...any) {
			fmt.Fprintln(stderr, args...)
		}),
	}
	for _, entry := range cfg.context {
		key, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("context %q: expected name=<json>", entry)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return fmt.Errorf("context %q: %w", key, err)
		}
		scriptOpts = append(scriptOpts, script.WithContext(key, hooks.NewNamedContext[any](key, value)))
	}
	component, err := script.Compile(name, string(source), scriptOpts...)
	if err != nil {
		return err
	}

	queue := scheduler.NewQueue()
	capture := &activity.CaptureHook{}
	runtimeOpts := []hooks.Option{
		hooks.WithScheduler(queue),
	}
	hooksList := activity.Hooks{capture}
	var (
		registry *prometheus.Registry
		counters *promsink.Hook
	)
	if cfg.metrics {
		registry = prometheus.NewRegistry()
		counters, err = promsink.New(registry, "hookscript")
		if err != nil {
			return err
		}
		hooksList = append(hooksList, counters)
	}
	runtimeOpts = append(runtimeOpts, hooks.WithActivityHooks(hooksList))
	if cfg.verbose {
		runtimeOpts = append(runtimeOpts, hooks.WithLogger(hooks.LoggerFunc(func(event hooks.LogEvent) {
			fmt.Fprintf(stderr, "%s pass=%d slots=%d %s %v\n", event.Kind, event.Pass, event.Slots, event.Message, errString(event.Err))
		})))
	}
	rt := hooks.New(runtimeOpts...)

	ctx := context.Background()
	mountOpts := []hooks.MountOption{hooks.WithName(name)}
	var manager state.Manager
	ref := state.Ref{Component: name, Key: cfg.key}
	if cfg.stateDir != "" {
		manager = state.Manager{Store: state.NewYAMLStore(cfg.stateDir)}
		restore, _, ok, err := manager.Restore(ctx, ref)
		if err != nil {
			return err
		}
		if ok {
			mountOpts = append(mountOpts, restore)
		}
	}

	encoder := json.NewEncoder(stdout)
	renderer := hooks.RendererFunc[any](func(_ context.Context, output any, _ string) error {
		return encoder.Encode(output)
	})
	inst, err := hooks.Mount(ctx, rt, component.Func(), renderer, "stdout", mountOpts...)
	if err != nil {
		return err
	}
	queue.Drain()

	for _, entry := range cfg.invokes {
		handler, args, err := parseInvocation(entry)
		if err != nil {
			return err
		}
		if _, err := component.Invoke(handler, args...); err != nil {
			return fmt.Errorf("invoke %s: %w", handler, err)
		}
		queue.Drain()
	}

	if cfg.stateDir != "" {
		if _, err := manager.Save(ctx, ref, inst, state.Meta{}); err != nil {
			return err
		}
	}
	if err := rt.UnmountAll(); err != nil {
		return err
	}

	if cfg.verbose {
		fmt.Fprintln(stderr, "activity:", strings.Join(capture.Verbs(), " "))
	}
	for _, err := range effectErrs {
		fmt.Fprintln(stderr, "effect error:", err)
	}
	if cfg.metrics {
		return printMetrics(stderr, registry)
	}
	return nil
}

func parseInvocation(entry string) (string, []any, error) {
	handler, raw, ok := strings.Cut(entry, "=")
	handler = strings.TrimSpace(handler)
	if handler == "" {
		return "", nil, fmt.Errorf("invoke %q: missing handler name", entry)
	}
	if !ok {
		return handler, nil, nil
	}
	var args []any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", nil, fmt.Errorf("invoke %s: arguments must be a JSON array: %w", handler, err)
	}
	return handler, args, nil
}

func printMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels = append(labels, label.GetName()+"="+label.GetValue())
			}
			value := metric.GetCounter().GetValue()
			if h := metric.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", family.GetName(), strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return "err=" + err.Error()
}
