package usage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Ref names another catalog object.
type Ref struct {
	Kind manifest.Kind `yaml:"kind"`
	Name string        `yaml:"name"`
}

// Entry is one business rules object of the catalog.
type Entry struct {
	Kind        manifest.Kind `yaml:"kind"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	// Local marks a variable scoped to a single rule. Local variables are
	// never migrated on their own.
	Local  bool  `yaml:"local,omitempty"`
	UsedBy []Ref `yaml:"used_by,omitempty"`
}

func (e Entry) object() manifest.Object {
	return manifest.Object{Kind: e.Kind, Name: e.Name}
}

type catalogFile struct {
	Objects []Entry `yaml:"objects"`
}

// Catalog is a snapshot of business rules objects and their usage, exported
// from the rules repository as YAML:
//
//	objects:
//	  - kind: rule
//	    name: Aggregate
//	    used_by:
//	      - {kind: sequence, name: Nightly}
type Catalog struct {
	entries []Entry
	byKey   map[string]int
}

// LoadCatalog reads a catalog file.
func LoadCatalog(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules catalog %s: %w", path, err)
	}
	return NewCatalog(file.Objects)
}

// NewCatalog builds a catalog from entries. Every entry must carry a
// business rules kind.
func NewCatalog(entries []Entry) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]int, len(entries))}
	for _, e := range entries {
		if !e.Kind.IsBusinessRule() {
			return nil, fmt.Errorf("catalog entry %q has unsupported kind %q", e.Name, e.Kind)
		}
		c.byKey[e.object().Key()] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Len returns the number of objects in the catalog.
func (c *Catalog) Len() int { return len(c.entries) }

// UsersOf implements manifest.UsageLookup.
func (c *Catalog) UsersOf(_ context.Context, obj manifest.Object) ([]manifest.Object, error) {
	i, ok := c.byKey[manifest.Object{Kind: obj.Kind, Name: obj.Name}.Key()]
	if !ok {
		return nil, nil
	}
	refs := c.entries[i].UsedBy
	out := make([]manifest.Object, 0, len(refs))
	for _, r := range refs {
		out = append(out, manifest.Object{Kind: r.Kind, Name: r.Name})
	}
	return out, nil
}

// Match returns the entries of kind whose name matches pattern, sorted by
// name. An empty pattern matches everything; matching ignores case.
func (c *Catalog) Match(kind manifest.Kind, pattern string) ([]Entry, error) {
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var out []Entry
	for _, e := range c.entries {
		if e.Kind == kind && g.Match(strings.ToLower(e.Name)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CatalogHeader is the column layout of Rows.
var CatalogHeader = rowsource.Header{"NAME", "KIND", "SCOPE", "DESCRIPTION", "USED_BY"}

// Rows lists entries for extraction. Users are sorted and one per line.
func Rows(entries []Entry) rowsource.Rows {
	rows := make([]rowsource.Row, 0, len(entries))
	for _, e := range entries {
		scope := "Global"
		if e.Local {
			scope = "Local"
		}
		users := make([]string, 0, len(e.UsedBy))
		for _, r := range e.UsedBy {
			users = append(users, r.Name)
		}
		sort.Strings(users)
		rows = append(rows, rowsource.Row{e.Name, string(e.Kind), scope, e.Description, strings.Join(users, "\n")})
	}
	return rowsource.NewSliceRows(CatalogHeader, rows)
}
