package manifest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"go.uber.org/zap"
)

// UsageLookup finds the objects that reference obj.
type UsageLookup interface {
	UsersOf(ctx context.Context, obj Object) ([]Object, error)
}

// ClosureWalker expands selected objects to everything that transitively
// uses them. Edges point from an object to its users. The usage graph also
// acts as the visited set, so each object is expanded at most once per
// walker regardless of how many times it is reached.
type ClosureWalker struct {
	manifest *Manifest
	lookup   UsageLookup
	usage    graph.Graph[string, Object]
	logger   *zap.Logger
}

// NewClosureWalker returns a walker recording dependents into m.
func NewClosureWalker(m *Manifest, lookup UsageLookup, logger *zap.Logger) *ClosureWalker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClosureWalker{
		manifest: m,
		lookup:   lookup,
		usage:    graph.New(Object.Key, graph.Directed()),
		logger:   logger,
	}
}

// ExpandDependents records every transitive user of obj as a dependent
// artifact and returns the objects whose artifacts this call inserted. An
// artifact already present in the manifest keeps its flags.
func (w *ClosureWalker) ExpandDependents(ctx context.Context, obj Object) ([]Object, error) {
	if _, err := w.visit(obj); err != nil {
		return nil, err
	}

	var added []Object
	queue := []Object{obj}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		cur := queue[0]
		queue = queue[1:]

		users, err := w.lookup.UsersOf(ctx, cur)
		if err != nil {
			return added, fmt.Errorf("failed to look up users of %s: %w", cur, err)
		}

		for _, u := range users {
			path := u.Path()
			if path == "" {
				w.logger.Warn("no artifact path for dependent",
					zap.String("kind", string(u.Kind)),
					zap.String("name", u.Name))
				continue
			}
			if !w.manifest.Has(path) {
				w.manifest.Record(path, Dependent)
				added = append(added, u)
			}

			fresh, err := w.visit(u)
			if err != nil {
				return added, err
			}
			if err := w.usage.AddEdge(cur.Key(), u.Key()); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return added, fmt.Errorf("failed to add usage edge %s -> %s: %w", cur, u, err)
			}
			if fresh {
				queue = append(queue, u)
			}
		}
	}

	if len(added) > 0 {
		w.logger.Debug("expanded dependents",
			zap.String("object", obj.String()),
			zap.Int("added", len(added)))
	}
	return added, nil
}

// visit adds obj to the usage graph, reporting whether it was new.
func (w *ClosureWalker) visit(obj Object) (bool, error) {
	err := w.usage.AddVertex(obj)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, graph.ErrVertexAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("failed to add %s to usage graph: %w", obj, err)
	}
}

// KnownUsers returns the users of obj discovered so far, ordered by identity.
func (w *ClosureWalker) KnownUsers(obj Object) ([]Object, error) {
	adj, err := w.usage.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	var out []Object
	for key := range adj[obj.Key()] {
		u, err := w.usage.Vertex(key)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// Visited returns the number of distinct objects seen by the walker.
func (w *ClosureWalker) Visited() int {
	n, err := w.usage.Order()
	if err != nil {
		return 0
	}
	return n
}
