package manifest

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a migratable object.
type Kind string

const (
	KindForm          Kind = "form"
	KindCompositeForm Kind = "composite_form"
	KindTaskList      Kind = "task_list"
	KindProject       Kind = "project"
	KindSequence      Kind = "sequence"
	KindRule          Kind = "rule"
	KindMacro         Kind = "macro"
	KindVariable      Kind = "variable"
)

// business rule kinds and the LCM folder each lives under
var ruleFolders = map[Kind]string{
	KindProject:  "Projects",
	KindSequence: "Sequences",
	KindRule:     "Rules",
	KindMacro:    "Macros",
	KindVariable: "Global Variables",
}

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindForm, KindCompositeForm, KindTaskList, KindProject, KindSequence, KindRule, KindMacro, KindVariable}
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown object kind %q", s)
}

// IsBusinessRule reports whether k is one of the business rules kinds.
func (k Kind) IsBusinessRule() bool {
	_, ok := ruleFolders[k]
	return ok
}

// Object is a migratable object. Folder is the form folder path ("/A/B" or
// empty) and Scope the plan type owning a simple form; both are ignored by
// kinds that have neither.
type Object struct {
	Kind   Kind
	Name   string
	Folder string
	Scope  string
}

// Key is the stable identity of the object, independent of its artifact path.
func (o Object) Key() string {
	return strings.Join([]string{string(o.Kind), o.Scope, o.Folder, o.Name}, "\x00")
}

// Path returns the LCM artifact path of the object, or "" for an unknown kind.
func (o Object) Path() string {
	switch o.Kind {
	case KindForm:
		return "/Plan Type/" + o.Scope + "/Data Forms" + o.Folder + "/" + o.Name
	case KindCompositeForm:
		return "/Global Artifacts/Composite Forms" + o.Folder + "/" + o.Name
	case KindTaskList:
		return "/Global Artifacts/Task Lists/" + o.Name
	}
	if folder, ok := ruleFolders[o.Kind]; ok {
		return "/Global Artifacts/Business Rules/" + folder + "/" + o.Name
	}
	return ""
}

func (o Object) String() string {
	return string(o.Kind) + " " + o.Name
}
