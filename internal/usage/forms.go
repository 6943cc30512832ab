package usage

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/rowsource"
)

const (
	taskTypeForm     = 2
	resourceTypeForm = 2
)

// Forms finds the task lists and composite forms that reference a form, and
// the task lists that reference a composite form.
type Forms struct {
	src     rowsource.Source
	folders *Folders
}

// NewForms creates a lookup over the planning repository. Folder paths of
// composite forms are resolved through folders.
func NewForms(src rowsource.Source, folders *Folders) *Forms {
	return &Forms{src: src, folders: folders}
}

// UsersOf implements manifest.UsageLookup. Kinds other than forms and
// composite forms have no users in the repository.
func (f *Forms) UsersOf(ctx context.Context, obj manifest.Object) ([]manifest.Object, error) {
	var objType int
	switch obj.Kind {
	case manifest.KindForm:
		objType = ObjectTypeForm
	case manifest.KindCompositeForm:
		objType = ObjectTypeCompositeForm
	default:
		return nil, nil
	}

	ids, err := f.objectIDs(ctx, obj.Name, objType)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	users, err := f.taskLists(ctx, ids)
	if err != nil {
		return nil, err
	}
	if obj.Kind == manifest.KindForm {
		composites, err := f.composites(ctx, ids)
		if err != nil {
			return nil, err
		}
		users = append(users, composites...)
	}
	return users, nil
}

func (f *Forms) objectIDs(ctx context.Context, name string, objType int) ([]int64, error) {
	q := squirrel.Select("OBJECT_ID").
		From("HSP_OBJECT").
		Where(squirrel.Eq{"OBJECT_NAME": name, "OBJECT_TYPE": objType})
	rows, err := f.src.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(all))
	for _, r := range all {
		if id, ok := asInt64(r[0]); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *Forms) taskLists(ctx context.Context, ids []int64) ([]manifest.Object, error) {
	q := squirrel.Select("tl.OBJECT_NAME").Distinct().
		From("HSP_TASK t").
		Join("HSP_OBJECT tl ON t.TASK_LIST_ID = tl.OBJECT_ID").
		Where(squirrel.Eq{"t.TASK_TYPE": taskTypeForm, "t.INT_PROP1": ids}).
		OrderBy("tl.OBJECT_NAME")
	rows, err := f.src.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query task list usage: %w", err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, err
	}
	out := make([]manifest.Object, 0, len(all))
	for _, r := range all {
		out = append(out, manifest.Object{Kind: manifest.KindTaskList, Name: asString(r[0])})
	}
	return out, nil
}

func (f *Forms) composites(ctx context.Context, ids []int64) ([]manifest.Object, error) {
	q := squirrel.Select("co.OBJECT_NAME", "co.PARENT_ID").Distinct().
		From("HSP_COMPOSITE_BLOCK cb").
		Join("HSP_OBJECT co ON cb.FORM_ID = co.OBJECT_ID").
		Where(squirrel.Eq{"cb.RESOURCE_TYPE": resourceTypeForm, "cb.RESOURCE_ID": ids}).
		OrderBy("co.OBJECT_NAME")
	rows, err := f.src.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query composite form usage: %w", err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, err
	}
	out := make([]manifest.Object, 0, len(all))
	for _, r := range all {
		parent, _ := asInt64(r[1])
		out = append(out, manifest.Object{
			Kind:   manifest.KindCompositeForm,
			Name:   asString(r[0]),
			Folder: f.folders.Path(parent),
		})
	}
	return out, nil
}
