package planning

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/hierarchy"
	"github.com/agardiner/epm-utils/internal/rowsource"
)

const dataStorageShared = 3

// memberTree serves the members of a dimension; the tree name is the
// dimension name.
type memberTree struct {
	src rowsource.Source
}

func (t memberTree) Lookup(ctx context.Context, dim, name string) ([]hierarchy.Node, error) {
	return queryNodes(ctx, t.src, memberNodesQuery(dim).Where(squirrel.Eq{"o.OBJECT_NAME": name}))
}

func (t memberTree) Children(ctx context.Context, dim string, parent int64) ([]hierarchy.Node, error) {
	return queryNodes(ctx, t.src, memberNodesQuery(dim).
		Where(squirrel.Eq{"o.PARENT_ID": parent}).
		Where(squirrel.NotEq{"o.OBJECT_ID": parent}).
		OrderBy("o.POSITION"))
}

// objectTree serves the generic object hierarchy. Lookup only matches
// objects of its type; children may be of any type.
type objectTree struct {
	src        rowsource.Source
	objectType int
}

func (t objectTree) Lookup(ctx context.Context, _ string, name string) ([]hierarchy.Node, error) {
	return queryNodes(ctx, t.src, objectNodesQuery().
		Where(squirrel.Eq{"OBJECT_NAME": name, "OBJECT_TYPE": t.objectType}))
}

func (t objectTree) Children(ctx context.Context, _ string, parent int64) ([]hierarchy.Node, error) {
	return queryNodes(ctx, t.src, objectNodesQuery().
		Where(squirrel.Eq{"PARENT_ID": parent}).
		Where(squirrel.NotEq{"OBJECT_ID": parent}).
		OrderBy("POSITION"))
}

// queryNodes reads id, parent id, name and position, then the optional data
// storage and alias columns.
func queryNodes(ctx context.Context, src rowsource.Source, q squirrel.Sqlizer) ([]hierarchy.Node, error) {
	rows, err := src.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, err
	}
	nodes := make([]hierarchy.Node, 0, len(all))
	for _, r := range all {
		id, _ := asInt64(r[0])
		parent, _ := asInt64(r[1])
		pos, _ := asInt64(r[3])
		n := hierarchy.Node{ID: id, ParentID: parent, Name: asString(r[2]), Position: int(pos)}
		if len(r) > 4 {
			storage, _ := asInt64(r[4])
			n.Shared = storage == dataStorageShared
		}
		if len(r) > 5 {
			n.Alias = asString(r[5])
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
