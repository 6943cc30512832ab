package planning

// Test Plan for Planning Extractor:
// - DimensionNames lists standard dimensions before attribute dimensions and skips HSP_Rates
// - PlanTypes are ordered by plan type id and read once
// - ExtractDimension writes members depth first with aliases, plan type usage,
//   aggregation operators, UDAs and attribute values spliced in
// - ExtractDimension escapes formulas for non-text targets only
// - ExtractDimension to a text file uses commas, a BOM and keeps generated headers verbatim
// - top members shared by several nodes yield one subtree each, non-shared first
// - attribute dimensions omit the dimension member and carry no packed columns
// - unknown dimensions fail with ErrUnknownDimension; missing top members are warned and skipped
// - ExtractDimensionLevels indents names, numbers generations and splits the path
// - ExtractDimensionLevels to a text file uses commas, a BOM and strips line breaks from aliases
// - ExtractForms merges simple and composite forms by name with folder paths and reports objects
// - form patterns are case-insensitive wildcards
// - FormUsage reports task lists and composite forms referencing matched forms
// - ExtractFormLayout expands the packed style into flag columns
// - ExtractFormMembers numbers axis segments, labels formula rows and prefixes substitution variables
// - ExtractFormCalcs names the default calculation and composite pane rules
// - ExtractCompositeForms, ExtractFormMenus list panes and menus
// - ExtractTaskLists indents tasks below their task list and honours a name selection
// - smart lists, smart list entries, menu items and user variables
// - ExtractSecurity decodes grants and drops the header for text targets

import (
	"context"
	"strings"
	"testing"

	"github.com/agardiner/epm-utils/internal/extract"
	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func records(t *testing.T) (*sink.Records, sink.Target) {
	t.Helper()
	r := sink.NewRecords()
	return r, sink.ToRecords(r)
}

func column(rows []rowsource.Row, i int) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[i])
	}
	return out
}

func TestDimensionNames(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	dims, err := e.DimensionNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Dimension{
		{Name: "Entity", Type: "Dimension"},
		{Name: "Region", Type: "Attribute Dimension"},
	}, dims)
	assert.True(t, dims[1].IsAttribute())

	planTypes, err := e.PlanTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan1", "Plan2"}, planTypes)
}

func TestExtractDimension(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractDimension(context.Background(), target, "entity", nil, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rows := r.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, rowsource.Row{
		"Entity", "Parent", "Alias: Default", "Data Storage", "Two Pass Calculation", "Description",
		"Formula", "Smart List", "Data Type", "Operation",
		"Plan Type (Plan1)", "Plan Type (Plan2)", "Aggregation (Plan1)", "Aggregation (Plan2)",
		"Uda", "Region",
	}, rows[0])
	assert.Equal(t, []any{"Total", "West", "East", "West"}, column(rows[1:], 0))
	assert.Equal(t, []any{"Entity", "Total", "Total", "Entity"}, column(rows[1:], 1))

	assert.Equal(t, rowsource.Row{
		"East", "Total", "Eastern", "Dynamic Calc", int64(1), "", "", "", "Currency", "Update",
		"True", "False", "-", "*", "Coastal,HSP_NOLINK", "North",
	}, rows[3])

	// Non-text targets get formulas escaped.
	assert.Equal(t, "'=East*2", rows[2][6])
	assert.Equal(t, "Shared", rows[4][3])
}

func TestExtractDimensionToText(t *testing.T) {
	t.Parallel()

	e, fs := newTestExtractor(t, nil)
	path := extract.FileName("/out", "Entity", nil, false, "csv")

	n, err := e.ExtractDimension(context.Background(), sink.ToFile(path), "Entity", nil, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "\xEF\xBB\xBF"))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "\xEF\xBB\xBF"), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Entity,Parent,Alias: Default,Data Storage,Two Pass Calculation,Description,Formula,"+
		"Smart List,Data Type,Operation,Plan Type (Plan1),Plan Type (Plan2),Aggregation (Plan1),"+
		"Aggregation (Plan2),Uda,Region", lines[0])
	assert.Equal(t, "Total,Entity,Total Entity,Store,0,,,,Unspecified,Update,True,True,+,+,,", lines[1])
	assert.Contains(t, lines[2], ",=East*2,")
}

func TestExtractDimensionSharedTopMember(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractDimension(context.Background(), target, "Entity", []string{"West"}, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := r.Rows()
	require.Len(t, rows, 3, "one header for both subtrees")
	assert.Equal(t, "Store", rows[1][3])
	assert.Equal(t, "Shared", rows[2][3])
}

func TestExtractAttributeDimension(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractDimension(context.Background(), target, "Region", nil, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []rowsource.Row{
		{"Region", "Parent", "Operation"},
		{"North", "Region", "Update"},
		{"South", "Region", "Update"},
	}, r.Rows())
}

func TestExtractDimensionErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	e, _ := newTestExtractor(t, zap.New(core))
	_, target := records(t)

	_, err := e.ExtractDimension(context.Background(), target, "Nope", nil, extract.DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownDimension)

	n, err := e.ExtractDimension(context.Background(), target, "Entity", []string{"Nowhere"}, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	warnings := logs.FilterMessage("no member found with name").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Nowhere", warnings[0].ContextMap()["member"])
	assert.Equal(t, "Entity", warnings[0].ContextMap()["dimension"])
}

func TestExtractDimensionLevels(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractDimensionLevels(context.Background(), target, "Entity", nil, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []rowsource.Row{
		{"Member Name", "Default Alias", "Gen", "Path"},
		{"Entity", nil, int64(1), "Entity"},
		{"    Total", "Total Entity", int64(2), "Entity", "Total"},
		{"        West", nil, int64(3), "Entity", "Total", "West"},
		{"        East", "Eastern", int64(3), "Entity", "Total", "East"},
		{"    West", nil, int64(2), "Entity", "West"},
	}, r.Rows())
}

func TestExtractDimensionLevelsToText(t *testing.T) {
	t.Parallel()

	e, fs := newTestExtractor(t, nil,
		"INSERT INTO HSP_OBJECT VALUES (62, 'Western' || char(13) || char(10) || 'Region', 11, 50, 3)",
		"INSERT INTO HSP_ALIAS VALUES (103, 50, 62)")
	path := extract.FileName("/out", "Entity", nil, true, "csv")

	n, err := e.ExtractDimensionLevels(context.Background(), sink.ToFile(path), "Entity", nil, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "\xEF\xBB\xBF"))
	assert.Equal(t, []string{
		"Member Name,Default Alias,Gen,Path",
		"Entity,,1,Entity",
		"    Total,Total Entity,2,Entity,Total",
		"        West,Western Region,3,Entity,Total,West",
		"        East,Eastern,3,Entity,Total,East",
		"    West,,2,Entity,West",
	}, strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "\xEF\xBB\xBF"), "\n"), "\n"))
}

func TestExtractForms(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	var objects []manifest.Object
	n, err := e.ExtractForms(context.Background(), target, "", extract.DefaultOptions(), func(obj manifest.Object) error {
		objects = append(objects, obj)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows := r.Rows()
	assert.Equal(t, rowsource.Row{
		"FORM_NAME", "FORM_TYPE", "FOLDER", "PLAN_TYPE", "FORM_OPT", "COLUMN_WIDTH",
		"CURRENCY_PRECISION_MIN", "CURRENCY_PRECISION_MAX", "GLOBAL_SCOPE",
	}, rows[0])
	assert.Equal(t, rowsource.Row{"Costs", "Simple", "", "Plan2", int64(0), "Medium", int64(0), int64(2), nil}, rows[1])
	assert.Equal(t, rowsource.Row{"Dashboard", "Composite", "/Finance", nil, int64(0), nil, nil, nil, int64(1)}, rows[2])
	assert.Equal(t, "Size-to-Fit", rows[3][5])

	require.Len(t, objects, 3)
	assert.Equal(t, "/Plan Type/Plan2/Data Forms/Costs", objects[0].Path())
	assert.Equal(t, "/Global Artifacts/Composite Forms/Finance/Dashboard", objects[1].Path())
	assert.Equal(t, "/Plan Type/Plan1/Data Forms/Finance/Revenue", objects[2].Path())
}

func TestExtractFormsPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		want    []any
	}{
		{"rev*", []any{"Revenue"}},
		{"*O*", []any{"Costs", "Dashboard"}},
		{"C?sts", []any{"Costs"}},
		{"none", []any{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			e, _ := newTestExtractor(t, nil)
			r, target := records(t)
			_, err := e.ExtractForms(context.Background(), target, tt.pattern, extract.DefaultOptions(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, column(r.Rows()[1:], 0))
		})
	}
}

func TestFormUsage(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)

	var users []manifest.Object
	collect := func(obj manifest.Object) error {
		users = append(users, obj)
		return nil
	}

	n, err := e.FormUsage(context.Background(), "revenue", collect)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []manifest.Object{
		{Kind: manifest.KindTaskList, Name: "Budget"},
		{Kind: manifest.KindCompositeForm, Name: "Dashboard", Folder: "/Finance"},
	}, users)

	users = nil
	_, err = e.FormUsage(context.Background(), "Dashboard", collect)
	require.NoError(t, err)
	assert.Equal(t, []manifest.Object{{Kind: manifest.KindTaskList, Name: "Forecast"}}, users)
}

func TestExtractFormLayout(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractFormLayout(context.Background(), target, "Revenue", extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []rowsource.Row{
		{"FORM_NAME", "AXIS", "DIM_NAME", "START_EXPANDED", "DISPLAY_NAME", "DISPLAY_ALIAS", "BIT4",
			"HIDE_DIMENSION", "DISPLAY_FORMULA", "SHOW_CONSOL_OPERATORS"},
		{"Revenue", "POV", "Region", "False", "False", "False", "False", "True", "False", "False"},
		{"Revenue", "Rows", "Entity", "True", "False", "True", "False", "False", "False", "False"},
	}, r.Rows())
}

func TestExtractFormMembers(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractFormMembers(context.Background(), target, "revenue", extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []rowsource.Row{
		{"FORM_NAME", "AXIS", "NUM", "SEQ", "MEMBER_NAME", "QUERY_TYPE", "FORMULA", "STYLE"},
		{"Revenue", "POV", int64(1), "1.1", "North", "Member", nil, int64(0)},
		{"Revenue", "Row", int64(1), "1.1", "Total", "IDescendants", nil, int64(0)},
		{"Revenue", "Row", int64(1), "1.2", "West", "Member", nil, int64(0)},
		{"Revenue", "Row", int64(2), "1.1", "Growth", "Formula", "=East*2", int64(1)},
		{"Revenue", "Column", int64(1), "1.1", "&CurYear", "Member", nil, int64(0)},
	}, r.Rows())

	costs, costsTarget := records(t)
	_, err = e.ExtractFormMembers(context.Background(), costsTarget, "Cost?", extract.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, costs.Rows(), 2)
	assert.Equal(t, rowsource.Row{"Costs", "Row", int64(1), "1.1", "East", "Unknown: 7", nil, int64(0)}, costs.Rows()[1])
}

func TestExtractFormCalcs(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractFormCalcs(context.Background(), target, "*", extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []rowsource.Row{
		{"FORM_NAME", "CALC_NAME", "RUN_ON_LOAD", "RUN_ON_SAVE", "USE_FORM_MBRS", "HIDE_PROMPT"},
		{"Dashboard", "<Business rules for Revenue>", int64(0), int64(1), int64(0), int64(0)},
		{"Dashboard", "COMPONENT_9", int64(0), int64(0), int64(0), int64(0)},
		{"Revenue", "<Calculate Data Form>", int64(1), int64(0), int64(0), int64(1)},
		{"Revenue", "Allocate", int64(0), int64(1), int64(1), int64(0)},
	}, r.Rows())
}

func TestExtractCompositeFormsAndMenus(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	_, err := e.ExtractCompositeForms(context.Background(), target, "*", extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []rowsource.Row{
		{"COMPOSITE_FORM", "PANE", "TAB_LABEL", "RESOURCE_TYPE", "RESOURCE_NAME"},
		{"Dashboard", int64(1), "Revenue", "Form", "Revenue"},
		{"Dashboard", int64(2), "Cost tab", "Form", "Costs"},
	}, r.Rows())

	menus, menuTarget := records(t)
	_, err = e.ExtractFormMenus(context.Background(), menuTarget, "", extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []rowsource.Row{{"FORM_NAME", "MENU_NAME"}, {"Revenue", "Drill"}}, menus.Rows())
}

func TestExtractTaskLists(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	var lists []string
	n, err := e.ExtractTaskLists(context.Background(), target, nil, extract.DefaultOptions(), func(obj manifest.Object) error {
		assert.Equal(t, manifest.KindTaskList, obj.Kind)
		lists = append(lists, obj.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"Budget", "Forecast"}, lists)

	rows := r.Rows()
	assert.Equal(t, "TASK_LIST", rows[0][0])
	assert.Equal(t, []any{"Budget", "Budget", "Budget", "Forecast"}, column(rows[1:], 0))
	assert.Equal(t, []any{"Prepare", "    Enter revenue", "Review", "Open dashboard"}, column(rows[1:], 1))

	entry := rows[2]
	assert.Equal(t, "Data Form", entry[3])
	assert.Equal(t, "Finance", entry[4])
	assert.Equal(t, "Revenue", entry[5])
	assert.Equal(t, "Start here", rows[1][9])
	assert.Equal(t, "http://intranet/review", rows[3][8])
}

func TestExtractTaskListsByName(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractTaskLists(context.Background(), target, []string{"Forecast"}, extract.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Open dashboard", r.Rows()[1][1])
}

func TestExtractSmartListsMenusAndVariables(t *testing.T) {
	t.Parallel()

	e, _ := newTestExtractor(t, nil)
	ctx := context.Background()
	opts := extract.DefaultOptions()

	lists, target := records(t)
	_, err := e.ExtractSmartLists(ctx, target, opts)
	require.NoError(t, err)
	assert.Equal(t, rowsource.Row{"Status", "addSmartList", "Status", "Name", "LABEL_NONE", "FALSE"}, lists.Rows()[1])

	entries, target := records(t)
	n, err := e.ExtractSmartListItems(ctx, target, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{"Open", "Closed"}, column(entries.Rows()[1:], 3))

	menus, target := records(t)
	n, err = e.ExtractMenuItems(ctx, target, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{"Header", "To Costs"}, column(menus.Rows()[1:], 1))
	assert.Equal(t, rowsource.Row{"Drill", "To Costs", "Costs", nil, "Data Form", "Page", int64(1), "Costs", nil, nil}, menus.Rows()[2])

	vars, target := records(t)
	_, err = e.ExtractUserVariables(ctx, target, opts)
	require.NoError(t, err)
	assert.Equal(t, []rowsource.Row{{"VARIABLE_NAME", "DIMENSION_NAME"}, {"MyEntity", "Entity"}}, vars.Rows())
}

func TestExtractSecurity(t *testing.T) {
	t.Parallel()

	e, fs := newTestExtractor(t, nil)
	r, target := records(t)

	n, err := e.ExtractSecurity(context.Background(), target, extract.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []rowsource.Row{
		{"NAME", "OBJECT_NAME", "ACCESS_MODE", "FLAGS", "OBJECT_TYPE"},
		{"alice", "East", "READ", "@IDESCENDANTS", nil},
		{"alice", "Finance", "NONE", "*** Unknown flag 7", "SL_FORMFOLDER"},
		{"alice", "Revenue", "READWRITE", "MEMBER", "SL_FORM"},
	}, r.Rows())

	_, err = e.ExtractSecurity(context.Background(), sink.ToFile("/out/Security.txt"), extract.DefaultOptions())
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "/out/Security.txt")
	require.NoError(t, err)
	assert.Equal(t, "alice,East,READ,@IDESCENDANTS,\n"+
		"alice,Finance,NONE,*** Unknown flag 7,SL_FORMFOLDER\n"+
		"alice,Revenue,READWRITE,MEMBER,SL_FORM\n", string(data))
}

func TestLikePattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "%", likePattern(""))
	assert.Equal(t, "REV%", likePattern("rev*"))
	assert.Equal(t, "C_STS", likePattern("c?sts"))
}
