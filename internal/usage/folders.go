// Package usage answers "who uses this object" for the dependency closure:
// forms and composite forms from the planning repository, business rules
// objects from a YAML catalog.
package usage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/rowsource"
)

// Planning object types referenced by the usage queries.
const (
	ObjectTypeFolder        = 1
	ObjectTypeForm          = 7
	ObjectTypeTaskList      = 24
	ObjectTypeCompositeForm = 107
)

// FormRootFolder is the object id of the top-level form folder. Folder paths
// are relative to it.
const FormRootFolder = 9

type folder struct {
	name   string
	parent int64
}

// Folders resolves form folder ids to paths such as "/Finance/Input".
type Folders struct {
	byID map[int64]folder
}

// LoadFolders reads every form folder from the repository.
func LoadFolders(ctx context.Context, src rowsource.Source) (*Folders, error) {
	q := squirrel.Select("OBJECT_ID", "OBJECT_NAME", "PARENT_ID").
		From("HSP_OBJECT").
		Where(squirrel.Eq{"OBJECT_TYPE": ObjectTypeFolder})
	rows, err := src.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query form folders: %w", err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read form folders: %w", err)
	}

	f := &Folders{byID: make(map[int64]folder, len(all))}
	for _, r := range all {
		id, _ := asInt64(r[0])
		parent, _ := asInt64(r[2])
		f.byID[id] = folder{name: asString(r[1]), parent: parent}
	}
	return f, nil
}

// Path returns the path of folder id below the root form folder. The root
// itself, and any id outside the folder tree, yields "".
func (f *Folders) Path(id int64) string {
	var segs []string
	seen := make(map[int64]bool)
	for id != FormRootFolder && !seen[id] {
		seen[id] = true
		fo, ok := f.byID[id]
		if !ok {
			break
		}
		segs = append(segs, fo.name)
		id = fo.parent
	}
	if len(segs) == 0 {
		return ""
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return "/" + strings.Join(segs, "/")
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		var i int64
		_, err := fmt.Sscan(n, &i)
		return i, err == nil
	}
	return 0, false
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
