package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileName derives an extract file path from the logical extract name, the
// selected top members and whether the extract is level based:
//
//	<dir>/<name><selection><levels>_Extract.<ext>
//
// selection is empty when no top members were chosen or the only one is the
// name itself, "_<member>" for a single member and "_Subset" otherwise.
func FileName(dir, name string, topMembers []string, levelBased bool, ext string) string {
	var selection string
	switch {
	case len(topMembers) == 0, len(topMembers) == 1 && topMembers[0] == name:
	case len(topMembers) == 1:
		selection = "_" + topMembers[0]
	default:
		selection = "_Subset"
	}
	var levels string
	if levelBased {
		levels = "_Levels"
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "csv"
	}
	return filepath.Join(dir, fmt.Sprintf("%s%s%s_Extract.%s", name, selection, levels, ext))
}
