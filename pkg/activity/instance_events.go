package activity

import (
	"strings"
	"time"
)

const (
	// ObjectTypeInstance is the object type of every lifecycle event.
	ObjectTypeInstance = "component.instance"

	VerbInstanceMounted   = "instance.mounted"
	VerbInstanceRendered  = "instance.rendered"
	VerbRenderFailed      = "instance.render_failed"
	VerbInstanceUnmounted = "instance.unmounted"
)

// InstanceEventInput describes the fields shared by lifecycle events.
type InstanceEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	InstanceID string
	Component  string
	Channel    string
	Pass       uint64
	Slots      int
	Duration   time.Duration
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildInstanceMountedEvent describes a successful first render.
func BuildInstanceMountedEvent(input InstanceEventInput) Event {
	return buildInstanceEvent(VerbInstanceMounted, input)
}

// BuildInstanceRenderedEvent describes a committed render pass.
func BuildInstanceRenderedEvent(input InstanceEventInput) Event {
	return buildInstanceEvent(VerbInstanceRendered, input)
}

// BuildRenderFailedEvent describes an aborted render pass.
func BuildRenderFailedEvent(input InstanceEventInput) Event {
	return buildInstanceEvent(VerbRenderFailed, input)
}

// BuildInstanceUnmountedEvent describes an instance teardown.
func BuildInstanceUnmountedEvent(input InstanceEventInput) Event {
	return buildInstanceEvent(VerbInstanceUnmounted, input)
}

func buildInstanceEvent(verb string, input InstanceEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if component := strings.TrimSpace(input.Component); component != "" {
		metadata = ensureMetadata(metadata)
		metadata["component"] = component
	}
	if input.Pass > 0 {
		metadata = ensureMetadata(metadata)
		metadata["pass"] = input.Pass
	}
	if input.Slots > 0 {
		metadata = ensureMetadata(metadata)
		metadata["slots"] = input.Slots
	}
	if input.Duration > 0 {
		metadata = ensureMetadata(metadata)
		metadata["duration_ms"] = float64(input.Duration) / float64(time.Millisecond)
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeInstance,
		ObjectID:   strings.TrimSpace(input.InstanceID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
