package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DeletionList maps an artifact kind, as understood by the deletion tool, to
// the sorted leaf names to delete.
type DeletionList map[string][]string

// deletionKinds are tried in order; a pattern with a capture group takes the
// kind from the path.
var deletionKinds = []struct {
	pattern *regexp.Regexp
	kind    string
}{
	{regexp.MustCompile(`^/Global Artifacts/Business Rules/([^/]+)/`), ""},
	{regexp.MustCompile(`^/Global Artifacts/Task Lists/`), "Task Lists"},
	{regexp.MustCompile(`^/Global Artifacts/Composite Forms/`), "Composite Forms"},
	{regexp.MustCompile(`^/Plan Type/[^/]+/Data Forms/`), "Data Forms"},
}

// DeletionKind infers the deletion kind of an artifact path.
func DeletionKind(path string) (string, bool) {
	for _, dk := range deletionKinds {
		m := dk.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		if dk.kind == "" {
			return m[1], true
		}
		return dk.kind, true
	}
	return "", false
}

// Classify groups every delete-flagged artifact by kind. Paths of unknown
// shape are logged and skipped. The returned count is the number of entries
// included, before duplicate leaf names are collapsed.
func Classify(m *Manifest, logger *zap.Logger) (DeletionList, int) {
	if logger == nil {
		logger = zap.NewNop()
	}

	list := make(DeletionList)
	count := 0
	for _, a := range m.Artifacts() {
		if !a.Delete {
			continue
		}
		kind, ok := DeletionKind(a.Path)
		if !ok {
			logger.Warn("unknown artifact type for deletion", zap.String("path", a.Path))
			continue
		}
		list[kind] = append(list[kind], leaf(a.Path))
		count++
	}

	for kind, names := range list {
		list[kind] = sortedUnique(names)
	}
	return list, count
}

// WriteDeletionList writes list as YAML to path.
func WriteDeletionList(fs afero.Fs, path string, list DeletionList) error {
	data, err := yaml.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode deletion list: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write deletion list %s: %w", path, err)
	}
	return nil
}

// ReadDeletionList loads a list written by WriteDeletionList.
func ReadDeletionList(fs afero.Fs, path string) (DeletionList, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var list DeletionList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse deletion list %s: %w", path, err)
	}
	return list, nil
}

func leaf(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func sortedUnique(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	for _, n := range names {
		if len(out) > 0 && out[len(out)-1] == n {
			continue
		}
		out = append(out, n)
	}
	return out
}
