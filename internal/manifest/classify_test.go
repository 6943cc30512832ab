package manifest

// Test Plan for Deletion Classification and LCM Definitions:
// - two rules and one task list group under "Rules" and "Task Lists", sorted
// - entries without the delete flag are ignored
// - unknown path shapes are logged and excluded from the count
// - duplicate leaf names collapse but are counted
// - the deletion list round-trips through YAML
// - export definition: AppConnection source, FileSystemConnection target, one Artifact per migrated path
// - import definition swaps the connections
// - recursive definitions select artifact type folders
// - special characters in names are escaped
// - definitions are written with a UTF-8 byte order mark and a file-derived description
// - a missing project or application is rejected

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClassifyGroupsByKind(t *testing.T) {
	t.Parallel()

	m := New()
	m.Record("/Global Artifacts/Business Rules/Rules/Zeta", Selected)
	m.Record("/Global Artifacts/Business Rules/Rules/Alpha", Selected)
	m.Record("/Global Artifacts/Task Lists/Budget", Dependent)
	m.Record("/Global Artifacts/Business Rules/Macros/Keep", Flags{Migrate: true})

	list, count := Classify(m, nil)
	assert.Equal(t, 3, count)
	assert.Equal(t, DeletionList{
		"Rules":      {"Alpha", "Zeta"},
		"Task Lists": {"Budget"},
	}, list)
}

func TestClassifyUnknownAndDuplicates(t *testing.T) {
	t.Parallel()

	m := New()
	m.Record("/Plan Type/Plan1/Data Forms/A/Input", Selected)
	m.Record("/Plan Type/Plan2/Data Forms/Input", Selected)
	m.Record("/Global Artifacts/Composite Forms/Dash", Selected)
	m.Record("/Somewhere/Else", Selected)

	core, logs := observer.New(zapcore.WarnLevel)
	list, count := Classify(m, zap.New(core))

	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"Input"}, list["Data Forms"])
	assert.Equal(t, []string{"Dash"}, list["Composite Forms"])

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/Somewhere/Else", logs.All()[0].ContextMap()["path"])
}

func TestDeletionListYAML(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	list := DeletionList{"Rules": {"A", "B"}, "Task Lists": {"T"}}
	require.NoError(t, WriteDeletionList(fs, "LCM_Delete.yaml", list))

	data, err := afero.ReadFile(fs, "LCM_Delete.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Rules:\n    - A\n    - B\nTask Lists:\n    - T\n", string(data))

	got, err := ReadDeletionList(fs, "LCM_Delete.yaml")
	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func lcmManifest() *Manifest {
	m := New()
	m.Record("/Plan Type/Plan1/Data Forms/Finance/Input & Review", Selected)
	m.Record("/Global Artifacts/Task Lists/Budget", Dependent)
	m.Record("/Global Artifacts/Business Rules/Rules/Delete Only", Flags{Delete: true})
	return m
}

func lcmDefinition() Definition {
	return Definition{
		Project:     "Planning",
		Application: "FINPLAN",
		User:        "admin",
		Password:    "secret",
		ExtractPath: "out/LCM_Extract",
	}
}

func decode(t *testing.T, data []byte) lcmPackage {
	t.Helper()
	var pkg lcmPackage
	require.NoError(t, xml.Unmarshal(data, &pkg))
	return pkg
}

func TestBuildExportDefinition(t *testing.T) {
	t.Parallel()

	data, count, err := BuildDefinition(lcmManifest(), lcmDefinition(), Export, "LCM Export")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, string(data), `pattern="Input &amp; Review"`)

	pkg := decode(t, data)
	assert.Equal(t, "web-migration", pkg.Name)
	assert.Equal(t, "LCM Export", pkg.Description)
	assert.Equal(t, "en_GB", pkg.Locale)
	require.Len(t, pkg.Connections, 3)
	assert.Equal(t, "LCM_Extract", pkg.Connections[1].FilePath)
	assert.Equal(t, "FINPLAN", pkg.Connections[2].Application)

	require.Len(t, pkg.Tasks, 1)
	task := pkg.Tasks[0]
	assert.Equal(t, "-1", task.SeqID)
	assert.Equal(t, appConnection, task.Source.Connection)
	assert.Equal(t, fsConnection, task.Target.Connection)
	assert.Equal(t, []lcmArtifact{
		{ParentPath: "/Global Artifacts/Task Lists", Pattern: "Budget"},
		{ParentPath: "/Plan Type/Plan1/Data Forms/Finance", Pattern: "Input & Review"},
	}, task.Source.Artifacts)
}

func TestBuildImportDefinitionSwapsConnections(t *testing.T) {
	t.Parallel()

	data, _, err := BuildDefinition(lcmManifest(), lcmDefinition(), Import, "LCM Import")
	require.NoError(t, err)
	task := decode(t, data).Tasks[0]
	assert.Equal(t, fsConnection, task.Source.Connection)
	assert.Equal(t, appConnection, task.Target.Connection)
}

func TestBuildRecursiveDefinition(t *testing.T) {
	t.Parallel()

	def := lcmDefinition()
	def.Recursive = true
	data, _, err := BuildDefinition(lcmManifest(), def, Export, "d")
	require.NoError(t, err)

	arts := decode(t, data).Tasks[0].Source.Artifacts
	require.Len(t, arts, 2)
	assert.True(t, arts[0].Recursive)
	assert.Equal(t, "/Global Artifacts/Task Lists", arts[0].ParentPath)
	assert.Equal(t, "/Plan Type/Plan1/Data Forms", arts[1].ParentPath)
}

func TestWriteDefinition(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	count, err := WriteDefinition(fs, "out/LCM_Export.xml", lcmManifest(), lcmDefinition(), Export)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := afero.ReadFile(fs, "out/LCM_Export.xml")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\xEF\xBB\xBF<?xml")))
	assert.Equal(t, "LCM Export", decode(t, data[3:]).Description)
}

func TestDefinitionRequiresProjectAndApplication(t *testing.T) {
	t.Parallel()

	def := lcmDefinition()
	def.Project = ""
	_, _, err := BuildDefinition(New(), def, Export, "d")
	assert.ErrorIs(t, err, ErrMissingProject)

	def = lcmDefinition()
	def.Application = ""
	_, err = WriteDefinition(afero.NewMemMapFs(), "x.xml", New(), def, Import)
	assert.ErrorIs(t, err, ErrMissingApplication)
}
