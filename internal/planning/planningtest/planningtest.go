// Package planningtest seeds small planning repositories for tests.
package planningtest

import (
	"database/sql"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

// Schema is a cut-down planning repository: one standard dimension
// (Entity) with an associated attribute dimension (Region), two plan types,
// a form folder tree with axis members and form rules, two task lists, a
// smart list, a menu and some grants.
const Schema = `
CREATE TABLE HSP_OBJECT (OBJECT_ID INTEGER, OBJECT_NAME TEXT, OBJECT_TYPE INTEGER, PARENT_ID INTEGER, POSITION INTEGER);
CREATE TABLE HSP_OBJECT_TYPE (OBJECT_TYPE INTEGER, TYPE_NAME TEXT);
CREATE TABLE HSP_PLAN_TYPE (PLAN_TYPE INTEGER, TYPE_NAME TEXT);
CREATE TABLE HSP_MEMBER (MEMBER_ID INTEGER, DIM_ID INTEGER, DATA_STORAGE INTEGER, TWOPASS_CALC INTEGER, DATA_TYPE INTEGER, CONSOL_OP INTEGER, ENUMERATION_ID INTEGER);
CREATE TABLE HSP_MEMBER_FORMULA (MEMBER_ID INTEGER, FORMULA TEXT);
CREATE TABLE HSP_ALIAS (MEMBER_ID INTEGER, ALIASTBL_ID INTEGER, ALIAS_ID INTEGER);
CREATE TABLE HSP_UDA (UDA_ID INTEGER, UDA_VALUE TEXT);
CREATE TABLE HSP_MEMBER_TO_UDA (MEMBER_ID INTEGER, UDA_ID INTEGER);
CREATE TABLE HSP_ATTRIBUTE_DIM (ATTR_ID INTEGER, DIM_ID INTEGER);
CREATE TABLE HSP_MEMBER_TO_ATTRIBUTE (MEMBER_ID INTEGER, ATTR_ID INTEGER, ATTR_MEM_ID INTEGER);
CREATE TABLE HSP_ACCOUNT (ACCOUNT_ID INTEGER, ACCOUNT_TYPE INTEGER, TIME_BALANCE INTEGER, SRC_PLAN_TYPE INTEGER, USED_IN INTEGER);
CREATE TABLE HSP_ENTITY (ENTITY_ID INTEGER, USED_IN INTEGER);
CREATE TABLE HSP_TIME_PERIOD (TP_ID INTEGER, TYPE INTEGER);
CREATE TABLE HSP_ENUMERATION (ENUMERATION_ID INTEGER, NAME TEXT, LABEL TEXT, DISPLAY_ORDER INTEGER, MISSING_LABEL TEXT, OVERRIDE_GRID_MISSING INTEGER);
CREATE TABLE HSP_ENUMERATION_ENTRY (ENUMERATION_ID INTEGER, ENTRY_ID INTEGER, NAME TEXT, LABEL TEXT);
CREATE TABLE HSP_FORM (FORM_ID INTEGER, PLAN_TYPE INTEGER, FORM_OPT INTEGER, COLUMN_WIDTH INTEGER, PRECISION_MIN1 INTEGER, PRECISION_MAX1 INTEGER);
CREATE TABLE HSP_COMPOSITE_FORM (FORM_ID INTEGER, FORM_OPT INTEGER, GLOBAL_SCOPE INTEGER);
CREATE TABLE HSP_COMPOSITE_BLOCK (FORM_ID INTEGER, PANE_ID INTEGER, POSITION INTEGER, RESOURCE_ID INTEGER, RESOURCE_TYPE INTEGER, RESOURCE_LABEL TEXT);
CREATE TABLE HSP_FORM_LAYOUT (FORM_ID INTEGER, LAYOUT_TYPE INTEGER, ORDINAL INTEGER, DIM_ID INTEGER, STYLE INTEGER);
CREATE TABLE HSP_FORM_MENUS (FORM_ID INTEGER, MENU_ID INTEGER, POSITION INTEGER);
CREATE TABLE HSP_FORMOBJ_DEF (OBJDEF_ID INTEGER, FORM_ID INTEGER, OBJDEF_TYPE INTEGER, LOCATION INTEGER, FORMULA TEXT, LABEL TEXT, SUBST_VAR TEXT, STYLE INTEGER);
CREATE TABLE HSP_FORMOBJ_DEF_MBR (OBJDEF_ID INTEGER, MBR_ID INTEGER, ORDINAL INTEGER, SEQUENCE INTEGER, QUERY_TYPE INTEGER);
CREATE TABLE HSP_FORM_CALCS (CALC_ID INTEGER, FORM_ID INTEGER, CALC_NAME TEXT, CALC_TYPE INTEGER, RUN_ON_LOAD INTEGER, RUN_ON_SAVE INTEGER, USE_MRU INTEGER, HIDE_PROMPT INTEGER);
CREATE TABLE HSP_TASK (TASK_ID INTEGER, TASK_LIST_ID INTEGER, TASK_TYPE INTEGER, INT_PROP1 INTEGER, STR_PROP1 TEXT, INSTRUCTIONS TEXT);
CREATE TABLE HSP_MENU_ITEM (MENU_ITEM_ID INTEGER, MENU_ID INTEGER, MENU_ITEM_TYPE INTEGER, LABEL TEXT, ICON TEXT, REQUIRED_DIM_ID INTEGER, OPEN_IN_NEW_WINDOW INTEGER, INT_PROP1 INTEGER, STR_PROP1 TEXT);
CREATE TABLE HSP_USER_VARIABLE (VARIABLE_NAME TEXT, DIM_ID INTEGER);
CREATE TABLE HSP_ACCESS_CONTROL (USER_ID INTEGER, OBJECT_ID INTEGER, ACCESS_MODE INTEGER, FLAGS INTEGER);

INSERT INTO HSP_OBJECT_TYPE VALUES (1, 'Folder'), (2, 'Dimension'), (7, 'Form'), (24, 'Task List'),
	(32, 'Member'), (38, 'Attribute Dimension'), (39, 'Attribute Member'), (107, 'Composite Form');
INSERT INTO HSP_PLAN_TYPE VALUES (1, 'Plan1'), (2, 'Plan2');

-- Entity: Total (West, East), shared West under the root
INSERT INTO HSP_OBJECT VALUES (100, 'Entity', 2, 0, 1);
INSERT INTO HSP_OBJECT VALUES (101, 'Total', 32, 100, 1);
INSERT INTO HSP_OBJECT VALUES (102, 'East', 32, 101, 2);
INSERT INTO HSP_OBJECT VALUES (103, 'West', 32, 101, 1);
INSERT INTO HSP_OBJECT VALUES (104, 'West', 32, 100, 2);
INSERT INTO HSP_OBJECT VALUES (105, 'HSP_Rates', 2, 0, 9);
INSERT INTO HSP_MEMBER VALUES (100, 100, 0, 0, 0, 0, NULL);
INSERT INTO HSP_MEMBER VALUES (101, 100, 0, 0, 0, 0, NULL);
INSERT INTO HSP_MEMBER VALUES (102, 100, 5, 1, 1, 129, NULL);
INSERT INTO HSP_MEMBER VALUES (103, 100, 0, 0, 0, 0, NULL);
INSERT INTO HSP_MEMBER VALUES (104, 100, 3, 0, 0, 0, NULL);
INSERT INTO HSP_ENTITY VALUES (101, 3), (102, 1), (103, 2), (104, 3);
INSERT INTO HSP_MEMBER_FORMULA VALUES (103, '=East*2');

-- Default alias table
INSERT INTO HSP_OBJECT VALUES (50, 'Default', 10, 0, 1);
INSERT INTO HSP_OBJECT VALUES (60, 'Total Entity', 11, 50, 1);
INSERT INTO HSP_OBJECT VALUES (61, 'Eastern', 11, 50, 2);
INSERT INTO HSP_ALIAS VALUES (101, 50, 60), (102, 50, 61);

INSERT INTO HSP_UDA VALUES (70, 'HSP_NOLINK'), (71, 'Coastal');
INSERT INTO HSP_MEMBER_TO_UDA VALUES (102, 71), (102, 70);

-- Region attribute dimension associated with Entity
INSERT INTO HSP_OBJECT VALUES (200, 'Region', 38, 0, 2);
INSERT INTO HSP_OBJECT VALUES (201, 'North', 39, 200, 1);
INSERT INTO HSP_OBJECT VALUES (202, 'South', 39, 200, 2);
INSERT INTO HSP_MEMBER VALUES (200, 200, 0, 0, 0, 0, NULL), (201, 200, 0, 0, 0, 0, NULL), (202, 200, 0, 0, 0, 0, NULL);
INSERT INTO HSP_ATTRIBUTE_DIM VALUES (200, 100);
INSERT INTO HSP_MEMBER_TO_ATTRIBUTE VALUES (102, 200, 201);

-- Forms under the root form folder (9)
INSERT INTO HSP_OBJECT VALUES (9, 'Forms', 1, 0, 0);
INSERT INTO HSP_OBJECT VALUES (20, 'Finance', 1, 9, 1);
INSERT INTO HSP_OBJECT VALUES (300, 'Revenue', 7, 20, 1);
INSERT INTO HSP_OBJECT VALUES (301, 'Costs', 7, 9, 2);
INSERT INTO HSP_OBJECT VALUES (310, 'Dashboard', 107, 20, 3);
INSERT INTO HSP_FORM VALUES (300, 1, 0, 0, 2, 4), (301, 2, 0, 75, 0, 2);
INSERT INTO HSP_COMPOSITE_FORM VALUES (310, 0, 1);
INSERT INTO HSP_COMPOSITE_BLOCK VALUES (310, 1, 1, 300, 2, NULL), (310, 2, 2, 301, 2, 'Cost tab');
INSERT INTO HSP_FORM_LAYOUT VALUES (300, 2, 1, 100, 5), (300, 0, 1, 200, 16);

-- Form axis members: Revenue has a POV, two row segments (the second a
-- formula row) and a substitution variable column
INSERT INTO HSP_FORMOBJ_DEF VALUES (1, 300, 2, 1, NULL, NULL, NULL, 0);
INSERT INTO HSP_FORMOBJ_DEF VALUES (2, 300, 2, 2, '=East*2', 'Growth', NULL, 1);
INSERT INTO HSP_FORMOBJ_DEF VALUES (3, 300, 3, 1, NULL, NULL, 'CurYear', 0);
INSERT INTO HSP_FORMOBJ_DEF VALUES (4, 300, 0, 1, NULL, NULL, NULL, 0);
INSERT INTO HSP_FORMOBJ_DEF VALUES (5, 301, 2, 1, NULL, NULL, NULL, 0);
INSERT INTO HSP_FORMOBJ_DEF_MBR VALUES (1, 101, 1, 1, 9), (1, 103, 1, 2, 0), (2, 102, 1, 1, -1002),
	(3, 200, 1, 1, 0), (4, 201, 1, 1, 0), (5, 102, 1, 1, 7);

-- Form business rules
INSERT INTO HSP_FORM_CALCS VALUES (1, 300, 'DEFAULT', 1, 1, 0, 0, 1), (2, 300, 'Allocate', 0, 0, 1, 1, 0),
	(3, 310, 'COMPONENT_1', 1, 0, 1, 0, 0), (4, 310, 'COMPONENT_9', 1, 0, 0, 0, 0);

-- Task lists
INSERT INTO HSP_OBJECT VALUES (400, 'Budget', 24, 0, 1);
INSERT INTO HSP_OBJECT VALUES (401, 'Prepare', 25, 400, 1);
INSERT INTO HSP_OBJECT VALUES (402, 'Enter revenue', 25, 401, 1);
INSERT INTO HSP_OBJECT VALUES (403, 'Review', 25, 400, 2);
INSERT INTO HSP_OBJECT VALUES (410, 'Forecast', 24, 0, 2);
INSERT INTO HSP_OBJECT VALUES (411, 'Open dashboard', 25, 410, 1);
INSERT INTO HSP_TASK VALUES (401, 400, 0, NULL, NULL, ' Start here ');
INSERT INTO HSP_TASK VALUES (402, 400, 2, 300, NULL, NULL);
INSERT INTO HSP_TASK VALUES (403, 400, 1, NULL, 'http://intranet/review', NULL);
INSERT INTO HSP_TASK VALUES (411, 410, 2, 310, NULL, NULL);

-- Smart lists
INSERT INTO HSP_ENUMERATION VALUES (1, 'Status', 'Status', 1, NULL, 0);
INSERT INTO HSP_ENUMERATION_ENTRY VALUES (1, 2, 'Closed', 'Closed'), (1, 1, 'Open', 'Open');

-- Menus
INSERT INTO HSP_OBJECT VALUES (500, 'Drill', 40, 0, 1);
INSERT INTO HSP_OBJECT VALUES (501, 'To Costs', 41, 500, 2);
INSERT INTO HSP_OBJECT VALUES (502, 'Header', 41, 500, 1);
INSERT INTO HSP_MENU_ITEM VALUES (500, 500, 0, 'Drill', NULL, NULL, 0, NULL, NULL);
INSERT INTO HSP_MENU_ITEM VALUES (501, 500, 2, 'Costs', NULL, 1, 1, 301, NULL);
INSERT INTO HSP_MENU_ITEM VALUES (502, 500, 0, 'Drill down', NULL, NULL, 0, NULL, NULL);
INSERT INTO HSP_FORM_MENUS VALUES (300, 500, 1);

INSERT INTO HSP_USER_VARIABLE VALUES ('MyEntity', 100);

-- Users and grants
INSERT INTO HSP_OBJECT VALUES (600, 'alice', 5, 0, 1);
INSERT INTO HSP_ACCESS_CONTROL VALUES (600, 300, 2, 0), (600, 102, 1, 9), (600, 20, 0, 7);
`

// NewRepository returns a source over an in-memory copy of Schema with
// the extra statements applied after it.
func NewRepository(t testing.TB, extra ...string) rowsource.Source {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range append([]string{Schema}, extra...) {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return rowsource.NewSQL(db, squirrel.Question)
}

// WriteDatabase creates a sqlite database file at path holding Schema and
// returns its DSN.
func WriteDatabase(t testing.TB, path string) string {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return path
}
