package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrMissingProject     = errors.New("shared services project must be specified")
	ErrMissingApplication = errors.New("application name must be specified")
)

// Direction selects which side of a migration the application is on.
type Direction int

const (
	// Export copies from the application into the file system.
	Export Direction = iota
	// Import copies from the file system into the application.
	Import
)

func (d Direction) String() string {
	if d == Import {
		return "import"
	}
	return "export"
}

const (
	appConnection = "AppConnection"
	fsConnection  = "FileSystemConnection"
	hssConnection = "HSSConnection"
)

// Definition holds the connection details of an LCM migration definition.
type Definition struct {
	Project     string
	Application string
	User        string
	Password    string
	// ExtractPath is the LCM extract folder; only its base name is written.
	ExtractPath string
	// Recursive selects whole artifact type folders rather than single
	// artifacts.
	Recursive bool
}

// Validate checks the fields LCM cannot default.
func (d Definition) Validate() error {
	if d.Project == "" {
		return ErrMissingProject
	}
	if d.Application == "" {
		return ErrMissingApplication
	}
	return nil
}

type lcmPackage struct {
	XMLName     xml.Name        `xml:"Package"`
	Name        string          `xml:"name,attr"`
	Description string          `xml:"description,attr"`
	Locale      string          `xml:"LOCALE"`
	Connections []lcmConnection `xml:"Connections>ConnectionInfo"`
	Tasks       []lcmTask       `xml:"Tasks>Task"`
}

type lcmConnection struct {
	Name          string `xml:"name,attr"`
	Type          string `xml:"type,attr"`
	Description   string `xml:"description,attr"`
	User          string `xml:"user,attr,omitempty"`
	Password      string `xml:"password,attr,omitempty"`
	Product       string `xml:"product,attr,omitempty"`
	Project       string `xml:"project,attr,omitempty"`
	Application   string `xml:"application,attr,omitempty"`
	HSSConnection string `xml:"HSSConnection,attr,omitempty"`
	FilePath      string `xml:"filePath,attr,omitempty"`
}

type lcmTask struct {
	SeqID  string      `xml:"seqID,attr"`
	Source lcmEndpoint `xml:"Source"`
	Target lcmEndpoint `xml:"Target"`
}

type lcmEndpoint struct {
	Connection string        `xml:"connection,attr"`
	Options    struct{}      `xml:"Options"`
	Artifacts  []lcmArtifact `xml:"Artifact"`
}

type lcmArtifact struct {
	Recursive  bool   `xml:"recursive,attr"`
	ParentPath string `xml:"parentPath,attr"`
	Pattern    string `xml:"pattern,attr"`
}

// BuildDefinition renders the migration definition for every migrate-flagged
// artifact of m, in path order, and returns the document with the number of
// artifacts it selects.
func BuildDefinition(m *Manifest, def Definition, dir Direction, description string) ([]byte, int, error) {
	if err := def.Validate(); err != nil {
		return nil, 0, err
	}

	source, target := appConnection, fsConnection
	if dir == Import {
		source, target = fsConnection, appConnection
	}

	task := lcmTask{
		SeqID:  "-1",
		Source: lcmEndpoint{Connection: source},
		Target: lcmEndpoint{Connection: target},
	}
	for _, a := range m.Artifacts() {
		if !a.Migrate {
			continue
		}
		task.Source.Artifacts = append(task.Source.Artifacts, lcmArtifact{
			Recursive:  def.Recursive,
			ParentPath: parentPath(a.Path, def.Recursive),
			Pattern:    leaf(a.Path),
		})
	}

	pkg := lcmPackage{
		Name:        "web-migration",
		Description: description,
		Locale:      "en_GB",
		Connections: []lcmConnection{
			{
				Name:        hssConnection,
				Type:        "HSS",
				Description: "Hyperion Shared Service connection",
				User:        def.User,
				Password:    def.Password,
			},
			{
				Name:          fsConnection,
				Type:          "FileSystem",
				Description:   "File system connection",
				HSSConnection: hssConnection,
				FilePath:      filepath.Base(def.ExtractPath),
			},
			{
				Name:          appConnection,
				Type:          "Application",
				Description:   "Planning Application connection",
				Product:       "HP",
				Project:       def.Project,
				Application:   def.Application,
				HSSConnection: hssConnection,
			},
		},
		Tasks: []lcmTask{task},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(pkg); err != nil {
		return nil, 0, fmt.Errorf("failed to encode %s definition: %w", dir, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), len(task.Source.Artifacts), nil
}

// WriteDefinition writes the definition to path as UTF-8 with a byte order
// mark. The package description is derived from the file name.
func WriteDefinition(fs afero.Fs, path string, m *Manifest, def Definition, dir Direction) (int, error) {
	data, count, err := BuildDefinition(m, def, dir, describe(path))
	if err != nil {
		return 0, err
	}
	out := append([]byte("\xEF\xBB\xBF"), data...)
	if err := afero.WriteFile(fs, path, out, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s definition %s: %w", dir, path, err)
	}
	return count, nil
}

// describe turns "out/LCM_Export.xml" into "LCM Export".
func describe(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

// parentPath is the folder holding an artifact. In recursive mode it is the
// artifact type folder: "/Global Artifacts/<type>" or "/Plan Type/<pt>/<type>".
func parentPath(path string, recursive bool) string {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if recursive {
		switch {
		case segs[0] == "Global Artifacts" && len(segs) > 2:
			return "/" + strings.Join(segs[:2], "/")
		case segs[0] == "Plan Type" && len(segs) > 3:
			return "/" + strings.Join(segs[:3], "/")
		}
	}
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}
