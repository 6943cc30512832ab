package planning

import (
	"context"
	"fmt"
	"strings"

	"github.com/agardiner/epm-utils/internal/extract"
	"github.com/agardiner/epm-utils/internal/hierarchy"
	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
)

// taskNameCol is the position of TASK_NAME once TASK_ID is dropped.
const taskNameCol = 1

// ExtractTaskLists writes the tasks of the named task lists (all task lists
// when names is empty) in hierarchy order, each task name indented by its
// depth below the task list. fn, when set, receives each task list.
func (e *Extractor) ExtractTaskLists(ctx context.Context, target sink.Target, names []string, opts extract.Options, fn ObjectFunc) (int, error) {
	return e.run("task list", func() (int, error) {
		header, all, err := e.collect(ctx, taskPropertiesQuery())
		if err != nil {
			return 0, fmt.Errorf("failed to query tasks: %w", err)
		}
		props := make(map[int64]rowsource.Row, len(all))
		for _, r := range all {
			if id, ok := asInt64(r[0]); ok {
				props[id] = r[1:]
			}
		}

		var roots []hierarchy.Node
		if len(names) == 0 {
			roots, err = queryNodes(ctx, e.src, taskListsQuery())
		} else {
			roots, err = e.tasks.Resolve(ctx, "", names)
		}
		if err != nil {
			return 0, err
		}
		if fn != nil {
			for _, r := range roots {
				if err := fn(manifest.Object{Kind: manifest.KindTaskList, Name: r.Name}); err != nil {
					return 0, err
				}
			}
		}

		project := func(v hierarchy.Visit) (rowsource.Row, bool, error) {
			if v.Depth == 0 {
				return nil, false, nil
			}
			row, ok := props[v.Node.ID]
			if !ok {
				return nil, false, nil
			}
			row = row.Clone()
			row[taskNameCol] = strings.Repeat(" ", (v.Depth-1)*hierarchy.IndentWidth) + asString(row[taskNameCol])
			return row, true, nil
		}
		return e.runTrees(ctx, e.tasks, "task lists", roots, header[1:], project, target, opts, extract.Hooks{})
	})
}

// ExtractSmartLists writes smart list definitions in the import format.
func (e *Extractor) ExtractSmartLists(ctx context.Context, target sink.Target, opts extract.Options) (int, error) {
	return e.run("smart list", func() (int, error) {
		return e.execute(ctx, smartListsQuery(), target, opts, extract.Hooks{})
	})
}

// ExtractSmartListItems writes the entries of every smart list.
func (e *Extractor) ExtractSmartListItems(ctx context.Context, target sink.Target, opts extract.Options) (int, error) {
	return e.run("smart list entry", func() (int, error) {
		return e.execute(ctx, smartListItemsQuery(), target, opts, extract.Hooks{})
	})
}

// ExtractMenuItems writes the items of every right-click menu.
func (e *Extractor) ExtractMenuItems(ctx context.Context, target sink.Target, opts extract.Options) (int, error) {
	return e.run("menu item", func() (int, error) {
		return e.execute(ctx, menuItemsQuery(), target, opts, extract.Hooks{})
	})
}

// ExtractUserVariables writes user variables and their dimensions.
func (e *Extractor) ExtractUserVariables(ctx context.Context, target sink.Target, opts extract.Options) (int, error) {
	return e.run("user variable", func() (int, error) {
		return e.execute(ctx, userVariablesQuery(), target, opts, extract.Hooks{})
	})
}

var accessModes = map[int64]string{
	0: "NONE",
	1: "READ",
	2: "READWRITE",
	3: "READWRITE",
}

var accessFlags = map[int64]string{
	0: "MEMBER",
	5: "@CHILDREN",
	6: "@ICHILDREN",
	8: "@DESCENDANTS",
	9: "@IDESCENDANTS",
}

var securedObjectTypes = map[int64]string{
	objectTypeFolder:        "SL_FORMFOLDER",
	objectTypeForm:          "SL_FORM",
	objectTypeTaskList:      "SL_TASKLIST",
	objectTypeCompositeForm: "SL_COMPOSITE",
}

// Columns of the security extract that hold codes.
const (
	accessModeCol = 2
	accessFlagCol = 3
	objectTypeCol = 4
)

// decodeAccess turns the access mode, flag and object type codes of a
// security row into the secFile import keywords. Member grants (object types
// 30 to 50) carry no object type.
func decodeAccess(row rowsource.Row) (rowsource.Row, error) {
	mode, _ := asInt64(row[accessModeCol])
	if s, ok := accessModes[mode]; ok {
		row[accessModeCol] = s
	} else {
		row[accessModeCol] = fmt.Sprint(mode)
	}

	flag, _ := asInt64(row[accessFlagCol])
	if s, ok := accessFlags[flag]; ok {
		row[accessFlagCol] = s
	} else {
		row[accessFlagCol] = fmt.Sprintf("*** Unknown flag %d", flag)
	}

	typ, _ := asInt64(row[objectTypeCol])
	switch s, ok := securedObjectTypes[typ]; {
	case ok:
		row[objectTypeCol] = s
	case typ >= 30 && typ <= 50:
		row[objectTypeCol] = nil
	default:
		row[objectTypeCol] = fmt.Sprintf("*** Unknown object type %d", typ)
	}
	return row, nil
}

// ExtractSecurity writes the access control list. Text targets get the
// headerless secFile import layout.
func (e *Extractor) ExtractSecurity(ctx context.Context, target sink.Target, opts extract.Options) (int, error) {
	return e.run("security", func() (int, error) {
		if target.IsText() {
			opts.IncludeHeaders = false
			opts.FieldSeparator = ","
		}
		return e.execute(ctx, securityQuery(), target, opts, extract.Hooks{Enrich: decodeAccess})
	})
}
