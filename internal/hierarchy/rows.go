package hierarchy

import (
	"context"
	"strings"

	"github.com/agardiner/epm-utils/internal/rowsource"
)

// Projection turns a visit into an output row. Returning false skips the node.
type Projection func(v Visit) (rowsource.Row, bool, error)

// Rows streams the subtree under root as a result set, one row per visited
// node in traversal order.
func (w *Walker) Rows(ctx context.Context, tree string, root Node, header rowsource.Header, project Projection) rowsource.Rows {
	return &treeRows{it: newIterator(ctx, w.src, tree, root), header: header, project: project}
}

type treeRows struct {
	it      *iterator
	header  rowsource.Header
	project Projection
	cur     rowsource.Row
	err     error
}

func (r *treeRows) Header() rowsource.Header { return r.header }

func (r *treeRows) Next() bool {
	if r.err != nil {
		return false
	}
	for {
		v, ok, err := r.it.next()
		if err != nil {
			r.err = err
			return false
		}
		if !ok {
			return false
		}
		row, keep, err := r.project(v)
		if err != nil {
			r.err = err
			return false
		}
		if keep {
			r.cur = row
			return true
		}
	}
}

func (r *treeRows) Row() rowsource.Row { return r.cur }
func (r *treeRows) Err() error         { return r.err }
func (r *treeRows) Close() error       { return nil }

// IndentWidth is the number of spaces per level in level-based extracts.
const IndentWidth = 4

// LevelHeader is the header of level-based extracts. PATH holds the
// "|"-joined path from the subtree root.
var LevelHeader = rowsource.Header{"MEMBER_NAME", "DEFAULT_ALIAS", "GEN", "PATH"}

// LevelRow projects a visit onto LevelHeader: the name indented by depth,
// the default alias, the generation within the subtree and the path.
func LevelRow(v Visit) (rowsource.Row, bool, error) {
	var alias any
	if v.Node.Alias != "" {
		alias = v.Node.Alias
	}
	return rowsource.Row{
		strings.Repeat(" ", v.Depth*IndentWidth) + v.Node.Name,
		alias,
		int64(v.Depth + 1),
		strings.Join(v.Path, "|"),
	}, true, nil
}
