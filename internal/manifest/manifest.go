// Package manifest tracks the artifacts selected for migration or deletion
// during one extraction run, expands them to their transitive dependents and
// renders the result as LCM migration definitions and a deletion list.
package manifest

import (
	"sort"
)

// Flags are the per-artifact switches. Recording flags is a union: a flag
// that was set once stays set.
type Flags struct {
	Migrate     bool
	Delete      bool
	IsDependent bool
}

// Selected is the flag set recorded for an artifact picked directly by an extract.
var Selected = Flags{Migrate: true, Delete: true}

// Dependent is the flag set recorded for an artifact found by the closure walk.
var Dependent = Flags{Migrate: true, Delete: true, IsDependent: true}

func (f Flags) union(o Flags) Flags {
	return Flags{
		Migrate:     f.Migrate || o.Migrate,
		Delete:      f.Delete || o.Delete,
		IsDependent: f.IsDependent || o.IsDependent,
	}
}

// Artifact is one path-addressed manifest entry.
type Artifact struct {
	Path string
	Flags
}

// Manifest maps artifact paths to their flags. Entries are created on first
// reference and never removed. It is owned by one run and is not safe for
// concurrent use.
type Manifest struct {
	entries map[string]*Artifact
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]*Artifact)}
}

// GetOrInsert returns the entry for path, inserting it with all flags false
// when absent.
func (m *Manifest) GetOrInsert(path string) *Artifact {
	a, ok := m.entries[path]
	if !ok {
		a = &Artifact{Path: path}
		m.entries[path] = a
	}
	return a
}

// Record merges flags into the entry for path and returns the resulting entry.
func (m *Manifest) Record(path string, flags Flags) Artifact {
	a := m.GetOrInsert(path)
	a.Flags = a.Flags.union(flags)
	return *a
}

// Get returns a copy of the entry for path without inserting.
func (m *Manifest) Get(path string) (Artifact, bool) {
	a, ok := m.entries[path]
	if !ok {
		return Artifact{}, false
	}
	return *a, true
}

// Has reports whether path has been referenced.
func (m *Manifest) Has(path string) bool {
	_, ok := m.entries[path]
	return ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Paths returns every entry path in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Artifacts returns copies of all entries sorted by path.
func (m *Manifest) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(m.entries))
	for _, p := range m.Paths() {
		out = append(out, *m.entries[p])
	}
	return out
}
