// SPDX-License-Identifier: MIT
/*
Package registry holds the catalog of candidate audio output paths.

A Registry is immutable once built. Iteration order is ascending Priority with
ties kept in declaration order. Adding a path means adding a Descriptor; the
test harness never special-cases names.
*/
package registry

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"loopcheck/internal/config"
)

// Well-known path names used by the recommendation logic and --quick.
const (
	PlugHWDirect = "plughw_direct"
	ALSADefault  = "alsa_default"
)

// Registry is an ordered, read-only set of descriptors.
type Registry struct {
	paths []Descriptor
}

// New builds a registry from descriptors. Names must be unique and non-empty.
// Descriptors lacking a method or target are accepted so the failure can be
// reported against that path at test time.
func New(descs ...Descriptor) (*Registry, error) {
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("registry: descriptor without a name")
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate path name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}

	paths := slices.Clone(descs)
	slices.SortStableFunc(paths, func(a, b Descriptor) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return &Registry{paths: paths}, nil
}

// Default returns the built-in catalog for a ReSpeaker-style USB array on
// ALSA: direct hardware, raw hardware, the configured default chain, three
// software mixing chains, the media player's automatic device and the
// native API default.
func Default() *Registry {
	r, err := New(
		Descriptor{
			Name:        PlugHWDirect,
			Description: "Direct hardware (plughw:0,0), bypasses all ALSA plugins",
			Method:      MethodDevicePlayer,
			Target:      "plughw:0,0",
			Priority:    1,
		},
		Descriptor{
			Name:        "hw_direct",
			Description: "Raw hardware (hw:0,0), no conversion",
			Method:      MethodDevicePlayer,
			Target:      "hw:0,0",
			Priority:    2,
		},
		Descriptor{
			Name:        ALSADefault,
			Description: "ALSA default, uses the /etc/asound.conf chain",
			Method:      MethodDevicePlayer,
			Target:      "default",
			Priority:    3,
		},
		Descriptor{
			Name:        "respeaker_out",
			Description: "ReSpeaker softvol chain (softvol -> plug -> dmix)",
			Method:      MethodDevicePlayer,
			Target:      "respeaker_out",
			Priority:    4,
		},
		Descriptor{
			Name:        "respeaker_out_raw",
			Description: "ReSpeaker plug -> dmix (no softvol)",
			Method:      MethodDevicePlayer,
			Target:      "respeaker_out_raw",
			Priority:    5,
		},
		Descriptor{
			Name:        "respeaker_dmix",
			Description: "ReSpeaker dmix directly",
			Method:      MethodDevicePlayer,
			Target:      "respeaker_dmix",
			Priority:    6,
		},
		Descriptor{
			Name:        "mpv_auto",
			Description: "mpv automatic device selection",
			Method:      MethodStreamPlayer,
			Target:      "auto",
			Priority:    7,
		},
		Descriptor{
			Name:        "native_default",
			Description: "Native audio API default output",
			Method:      MethodNative,
			Target:      "default",
			Priority:    8,
		},
	)
	if err != nil {
		panic(err) // static data
	}
	return r
}

// FromConfig builds a registry from file entries.
func FromConfig(entries []config.PathConfig) (*Registry, error) {
	descs := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		m, err := ParseMethod(e.Method)
		if err != nil {
			return nil, fmt.Errorf("registry: path %q: %w", e.Name, err)
		}
		descs = append(descs, Descriptor{
			Name:        e.Name,
			Description: e.Description,
			Method:      m,
			Target:      e.Target,
			Priority:    e.Priority,
		})
	}
	return New(descs...)
}

// Load returns the registry described by cfg, or Default when the
// configuration does not list any paths.
func Load(cfg *config.Config) (*Registry, error) {
	if len(cfg.Paths) == 0 {
		return Default(), nil
	}
	return FromConfig(cfg.Paths)
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.paths)
}

// All iterates descriptors in test order.
func (r *Registry) All() iter.Seq2[int, Descriptor] {
	return func(yield func(int, Descriptor) bool) {
		for i, d := range r.paths {
			if !yield(i, d) {
				return
			}
		}
	}
}

// Descriptors returns a copy of the descriptors in test order.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.paths)
}

// Lookup returns the descriptor with the given name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i := slices.IndexFunc(r.paths, func(d Descriptor) bool { return d.Name == name })
	if i < 0 {
		return Descriptor{}, false
	}
	return r.paths[i], true
}

// Select returns a registry restricted to the named paths, keeping test order.
// Unknown names are an error.
func (r *Registry) Select(names ...string) (*Registry, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.Lookup(n); !ok {
			return nil, fmt.Errorf("registry: unknown path %q", n)
		}
		want[n] = true
	}

	var out []Descriptor
	for _, d := range r.paths {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return &Registry{paths: out}, nil
}

// Methods returns the distinct methods used by the registry.
func (r *Registry) Methods() []Method {
	var ms []Method
	for _, d := range r.paths {
		if !slices.Contains(ms, d.Method) {
			ms = append(ms, d.Method)
		}
	}
	return ms
}
