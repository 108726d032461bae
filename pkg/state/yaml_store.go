package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-hooks"
	"gopkg.in/yaml.v3"
)

// YAMLStore keeps one YAML document per Ref under a root directory, laid out
// as <root>/<component>/<key>.yaml.
type YAMLStore struct {
	root string
	mu   sync.Mutex
}

type yamlDocument struct {
	Meta     Meta           `yaml:"meta"`
	Snapshot hooks.Snapshot `yaml:"snapshot"`
}

// NewYAMLStore returns a store rooted at dir. The directory is created on the
// first Save.
func NewYAMLStore(dir string) *YAMLStore {
	return &YAMLStore{root: dir}
}

func (s *YAMLStore) path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)+".yaml"), nil
}

func (s *YAMLStore) Load(_ context.Context, ref Ref) (hooks.Snapshot, Meta, bool, error) {
	path, err := s.path(ref)
	if err != nil {
		return hooks.Snapshot{}, Meta{}, false, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return hooks.Snapshot{}, Meta{}, false, nil
	}
	if err != nil {
		return hooks.Snapshot{}, Meta{}, false, fmt.Errorf("state: read %s: %w", path, err)
	}
	var doc yamlDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return hooks.Snapshot{}, Meta{}, false, fmt.Errorf("state: decode %s: %w", path, err)
	}
	return doc.Snapshot, doc.Meta, true, nil
}

func (s *YAMLStore) Save(_ context.Context, ref Ref, snapshot hooks.Snapshot, meta Meta) (Meta, error) {
	path, err := s.path(ref)
	if err != nil {
		return Meta{}, err
	}
	raw, err := yaml.Marshal(yamlDocument{Meta: meta, Snapshot: snapshot})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Meta{}, fmt.Errorf("state: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.yaml")
	if err != nil {
		return Meta{}, fmt.Errorf("state: temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Meta{}, fmt.Errorf("state: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Meta{}, fmt.Errorf("state: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Meta{}, fmt.Errorf("state: rename %s: %w", path, err)
	}
	return cloneMeta(meta), nil
}

func (s *YAMLStore) Delete(_ context.Context, ref Ref) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("state: delete %s: %w", path, err)
	}
	return nil
}

// List returns the refs stored for component, sorted by key.
func (s *YAMLStore) List(component string) ([]Ref, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, component))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: list %s: %w", component, err)
	}
	var refs []Ref
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		refs = append(refs, Ref{Component: component, Key: strings.TrimSuffix(name, ".yaml")})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
	return refs, nil
}
