// Package hierarchy walks parent/child trees (dimension members, tasks, menu
// items) depth first in sibling-position order.
package hierarchy

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Node is one member of a tree.
type Node struct {
	ID       int64
	ParentID int64
	Name     string
	Alias    string
	Position int
	Shared   bool
}

// Source supplies tree nodes. Lookup finds every node carrying name;
// Children returns the direct children of parent.
type Source interface {
	Lookup(ctx context.Context, tree, name string) ([]Node, error)
	Children(ctx context.Context, tree string, parent int64) ([]Node, error)
}

// Visit is one step of a traversal. Depth is 0 for the subtree root and
// Path runs from the subtree root to Node.
type Visit struct {
	Node  Node
	Depth int
	Path  []string
}

// Walker resolves top members and traverses their subtrees.
type Walker struct {
	src    Source
	logger *zap.Logger
}

// NewWalker creates a walker over src.
func NewWalker(src Source, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{src: src, logger: logger}
}

// Resolve maps top member names to subtree roots. Without names the tree's
// own root (the node named like the tree) is used. A name shared by several
// nodes yields all of them, non-shared first. A name with no match is logged
// and skipped.
func (w *Walker) Resolve(ctx context.Context, tree string, names []string) ([]Node, error) {
	if len(names) == 0 {
		names = []string{tree}
	}
	var roots []Node
	for _, name := range names {
		nodes, err := w.src.Lookup(ctx, tree, name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s member %q: %w", tree, name, err)
		}
		if len(nodes) == 0 {
			w.logger.Warn("no member found with name",
				zap.String("dimension", tree),
				zap.String("member", name))
			continue
		}
		sort.SliceStable(nodes, func(i, j int) bool {
			return !nodes[i].Shared && nodes[j].Shared
		})
		roots = append(roots, nodes...)
	}
	return roots, nil
}

// Walk visits root and its descendants in depth-first, sibling-position
// order. A node reached twice is only visited once.
func (w *Walker) Walk(ctx context.Context, tree string, root Node, fn func(Visit) error) error {
	it := newIterator(ctx, w.src, tree, root)
	for {
		v, ok, err := it.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

type frame struct {
	node  Node
	depth int
	path  []string
}

// iterator is an explicit-stack depth-first traversal. Children are fetched
// when their parent is visited, so memory stays proportional to the fringe.
type iterator struct {
	ctx     context.Context
	src     Source
	tree    string
	stack   []frame
	visited map[int64]bool
}

func newIterator(ctx context.Context, src Source, tree string, root Node) *iterator {
	return &iterator{
		ctx:     ctx,
		src:     src,
		tree:    tree,
		stack:   []frame{{node: root, path: []string{root.Name}}},
		visited: make(map[int64]bool),
	}
}

func (it *iterator) next() (Visit, bool, error) {
	for len(it.stack) > 0 {
		if err := it.ctx.Err(); err != nil {
			return Visit{}, false, err
		}
		f := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if it.visited[f.node.ID] {
			continue
		}
		it.visited[f.node.ID] = true

		children, err := it.src.Children(it.ctx, it.tree, f.node.ID)
		if err != nil {
			return Visit{}, false, fmt.Errorf("children of %s member %q: %w", it.tree, f.node.Name, err)
		}
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].Position < children[j].Position
		})
		// Push in reverse so the lowest position is popped first.
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			path := make([]string, len(f.path), len(f.path)+1)
			copy(path, f.path)
			it.stack = append(it.stack, frame{node: c, depth: f.depth + 1, path: append(path, c.Name)})
		}
		return Visit{Node: f.node, Depth: f.depth, Path: f.path}, true, nil
	}
	return Visit{}, false, nil
}
