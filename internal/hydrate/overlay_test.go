package hydrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type overlayTheme struct {
	Mode   string  `json:"mode,omitempty"`
	Accent *string `json:"accent,omitempty"`
}

type overlayPanel struct {
	Open   bool     `json:"open"`
	Labels []string `json:"labels,omitempty"`
}

type overlayPrefs struct {
	Theme  *overlayTheme            `json:"theme,omitempty"`
	Limits map[string]int           `json:"limits,omitempty"`
	Tags   []string                 `json:"tags,omitempty"`
	Volume int                      `json:"volume"`
	Panels map[string]*overlayPanel `json:"panels,omitempty"`
}

type overlayFixture struct {
	Defaults overlayPrefs `json:"defaults"`
	Cases    []struct {
		Name   string          `json:"name"`
		Value  json.RawMessage `json:"value"`
		Expect overlayPrefs    `json:"expect"`
	} `json:"cases"`
}

func TestOverlayFromFixture(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", "hydrate_overlay.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var fx overlayFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			var payload any
			if err := json.Unmarshal(tc.Value, &payload); err != nil {
				t.Fatalf("payload: %v", err)
			}
			got, err := NewDecoder(WithDefaults(fx.Defaults)).Decode(Context{Instance: "prefs"}, payload)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, got) {
				t.Fatalf("overlay mismatch:\nwant: %#v\n got: %#v", tc.Expect, got)
			}
		})
	}
}

func TestOverlayDoesNotAliasDefaults(t *testing.T) {
	defaults := overlayPrefs{Tags: []string{"a"}, Theme: &overlayTheme{Mode: "light"}}
	got := Overlay(overlayPrefs{}, defaults)

	got.Tags[0] = "changed"
	got.Theme.Mode = "dark"
	if defaults.Tags[0] != "a" || defaults.Theme.Mode != "light" {
		t.Fatalf("overlay result shares memory with defaults: %+v", defaults)
	}
}

func TestOverlayScalarsAndInterfaces(t *testing.T) {
	if got := Overlay(0, 7); got != 0 {
		t.Fatalf("expected scalar value to win, got %d", got)
	}
	var empty any
	if got := Overlay(empty, any("fallback")); got != "fallback" {
		t.Fatalf("expected nil interface to take default, got %v", got)
	}
}
