package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-hooks"
	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted snapshot.
type Ref struct {
	Component string
	Key       string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads, saves and deletes one snapshot per Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot hooks.Snapshot, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot hooks.Snapshot, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

// Mutator edits a stored snapshot in place.
type Mutator func(*hooks.Snapshot) error

func (r Ref) Identifier() (string, error) {
	component := strings.TrimSpace(r.Component)
	key := strings.TrimSpace(r.Key)
	if component == "" {
		return "", fmt.Errorf("state: component is required")
	}
	if key == "" {
		return "", fmt.Errorf("state: key is required for component %q", component)
	}
	for _, part := range []string{component, key} {
		if strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return "", fmt.Errorf("state: invalid ref segment %q", part)
		}
	}
	return component + "/" + key, nil
}

// Manager ties a Store to mounted instances.
type Manager struct {
	Store Store
}

// Save snapshots h and stores it under ref. A non-empty meta.ETag must match
// the stored ETag.
func (m Manager) Save(ctx context.Context, ref Ref, h hooks.Handle, meta Meta) (Meta, error) {
	if h == nil {
		return Meta{}, fmt.Errorf("state: handle is required")
	}
	return m.Mutate(ctx, ref, meta, func(snap *hooks.Snapshot) error {
		*snap = h.Snapshot()
		return nil
	})
}

// Restore loads the snapshot stored under ref as a hydration mount option.
// ok is false when nothing is stored.
func (m Manager) Restore(ctx context.Context, ref Ref) (opt hooks.MountOption, meta Meta, ok bool, err error) {
	if m.Store == nil {
		return nil, Meta{}, false, fmt.Errorf("state: store is required")
	}
	snap, meta, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: load %s/%s: %w", ref.Component, ref.Key, err)
	}
	if !ok {
		return nil, Meta{}, false, nil
	}
	return hooks.WithHydration(snap), meta, true, nil
}

// Mutate loads one snapshot, applies fn, then saves it with a fresh snapshot
// id and ETag.
func (m Manager) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (Meta, error) {
	if m.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return Meta{}, fmt.Errorf("state: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return Meta{}, err
	}

	snapshot, loadedMeta, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %s/%s: %w", ref.Component, ref.Key, err)
	}
	if !ok {
		snapshot = hooks.Snapshot{Component: ref.Component}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return loadedMeta, err
	}

	etag, err := ETag(snapshot)
	if err != nil {
		return loadedMeta, err
	}
	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = etag
	saveMeta.UpdatedAt = time.Now().UTC()

	savedMeta, err := m.Store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return loadedMeta, fmt.Errorf("state: save %s/%s: %w", ref.Component, ref.Key, err)
	}
	return savedMeta, nil
}

// ETag hashes the slot layout and values of snap.
func ETag(snap hooks.Snapshot) (string, error) {
	payload, err := json.Marshal(snap.Slots)
	if err != nil {
		return "", fmt.Errorf("state: etag: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8]), nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
