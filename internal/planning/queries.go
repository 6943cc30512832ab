package planning

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

// Planning repository object types.
const (
	objectTypeFolder        = 1
	objectTypeDimension     = 2
	objectTypeForm          = 7
	objectTypeTaskList      = 24
	objectTypeCompositeForm = 107
)

const (
	dimensionType          = "Dimension"
	attributeDimensionType = "Attribute Dimension"
	defaultAliasTable      = "Default"
)

// likePattern turns a "*"/"?" wildcard pattern into an upper-cased SQL LIKE
// pattern. An empty pattern matches everything.
func likePattern(pattern string) string {
	if pattern == "" {
		return "%"
	}
	r := strings.NewReplacer("*", "%", "?", "_")
	return strings.ToUpper(r.Replace(pattern))
}

func nameLike(column, pattern string) squirrel.Sqlizer {
	return squirrel.Expr("UPPER("+column+") LIKE ?", likePattern(pattern))
}

func dimensionsQuery() squirrel.SelectBuilder {
	return squirrel.Select("o.OBJECT_NAME AS DIMENSION_NAME", "ot.TYPE_NAME AS DIMENSION_TYPE").
		From("HSP_OBJECT_TYPE ot").
		Join("HSP_OBJECT o ON ot.OBJECT_TYPE = o.OBJECT_TYPE").
		Where(squirrel.Eq{"ot.TYPE_NAME": []string{dimensionType, attributeDimensionType}}).
		Where(squirrel.NotEq{"o.OBJECT_NAME": []string{"HSP_Rates", "HSP_XCRNCY"}}).
		OrderBy("ot.TYPE_NAME DESC", "o.OBJECT_NAME")
}

func planTypesQuery() squirrel.SelectBuilder {
	return squirrel.Select("TYPE_NAME AS PLAN_TYPE").
		From("HSP_PLAN_TYPE").
		OrderBy("PLAN_TYPE")
}

func aliasQuery(dim string) squirrel.SelectBuilder {
	return squirrel.Select("atbl.OBJECT_NAME AS ALIAS_TBL_NAME", "m.MEMBER_ID AS MBR_ID", "al.OBJECT_NAME AS ALIAS").
		From("HSP_OBJECT d").
		Join("HSP_MEMBER m ON d.OBJECT_ID = m.DIM_ID").
		Join("HSP_ALIAS a ON m.MEMBER_ID = a.MEMBER_ID").
		Join("HSP_OBJECT atbl ON a.ALIASTBL_ID = atbl.OBJECT_ID").
		Join("HSP_OBJECT al ON a.ALIAS_ID = al.OBJECT_ID").
		Where(squirrel.Eq{"d.OBJECT_NAME": dim}).
		OrderBy("a.ALIASTBL_ID", "m.MEMBER_ID")
}

func udaQuery(dim string) squirrel.SelectBuilder {
	return squirrel.Select("m.MEMBER_ID", "u.UDA_VALUE").
		Distinct().
		From("HSP_OBJECT d").
		Join("HSP_MEMBER m ON d.OBJECT_ID = m.DIM_ID").
		Join("HSP_MEMBER_TO_UDA mu ON mu.MEMBER_ID = m.MEMBER_ID").
		Join("HSP_UDA u ON u.UDA_ID = mu.UDA_ID").
		Where(squirrel.Eq{"d.OBJECT_NAME": dim}).
		OrderBy("m.MEMBER_ID", "u.UDA_VALUE")
}

func attributeQuery(dim string) squirrel.SelectBuilder {
	return squirrel.Select("ad.OBJECT_NAME AS ATTR_DIM_NAME", "m.MEMBER_ID AS MBR_ID", "av.OBJECT_NAME AS ATTR_NAME").
		From("HSP_OBJECT d").
		Join("HSP_MEMBER m ON d.OBJECT_ID = m.DIM_ID").
		Join("HSP_ATTRIBUTE_DIM adl ON adl.DIM_ID = d.OBJECT_ID").
		Join("HSP_OBJECT ad ON adl.ATTR_ID = ad.OBJECT_ID").
		Join("HSP_MEMBER_TO_ATTRIBUTE ma ON ma.ATTR_ID = adl.ATTR_ID AND ma.MEMBER_ID = m.MEMBER_ID").
		Join("HSP_OBJECT av ON ma.ATTR_MEM_ID = av.OBJECT_ID").
		Where(squirrel.Eq{"d.OBJECT_NAME": dim}).
		OrderBy("ad.OBJECT_NAME", "m.MEMBER_ID")
}

// memberNodesQuery selects the tree shape of a dimension with each member's
// default alias. Columns: id, parent id, name, position, data storage, alias.
func memberNodesQuery(dim string) squirrel.SelectBuilder {
	return squirrel.Select("o.OBJECT_ID", "o.PARENT_ID", "o.OBJECT_NAME", "o.POSITION", "m.DATA_STORAGE", "da.ALIAS").
		From("HSP_MEMBER m").
		Join("HSP_OBJECT d ON m.DIM_ID = d.OBJECT_ID").
		Join("HSP_OBJECT o ON m.MEMBER_ID = o.OBJECT_ID").
		LeftJoin(`(SELECT a.MEMBER_ID, n.OBJECT_NAME AS ALIAS
			FROM HSP_ALIAS a
			JOIN HSP_OBJECT t ON t.OBJECT_ID = a.ALIASTBL_ID
			JOIN HSP_OBJECT n ON n.OBJECT_ID = a.ALIAS_ID
			WHERE t.OBJECT_NAME = ?) da ON da.MEMBER_ID = m.MEMBER_ID`, defaultAliasTable).
		Where(squirrel.Eq{"d.OBJECT_NAME": dim})
}

const dataStorageCase = `CASE m.DATA_STORAGE
	WHEN 0 THEN 'Store'
	WHEN 1 THEN 'Never Share'
	WHEN 2 THEN 'Label Only'
	WHEN 3 THEN 'Shared'
	WHEN 4 THEN 'Dynamic Calc and Store'
	WHEN 5 THEN 'Dynamic Calc'
END AS DATA_STORAGE`

const dataTypeCase = `CASE m.DATA_TYPE
	WHEN 1 THEN 'Currency'
	WHEN 2 THEN 'Non-currency'
	WHEN 3 THEN 'Percentage'
	WHEN 4 THEN 'Smart List'
	WHEN 5 THEN 'Date'
	WHEN 6 THEN 'Text'
	ELSE 'Unspecified'
END AS DATA_TYPE`

const accountTypeCase = `CASE acc.ACCOUNT_TYPE
	WHEN 1 THEN 'Expense'
	WHEN 2 THEN 'Revenue'
	WHEN 3 THEN 'Asset'
	WHEN 4 THEN 'Liability'
	WHEN 5 THEN 'Equity'
	WHEN 6 THEN 'Statistical'
	WHEN 7 THEN 'Saved Assumption'
END AS ACCOUNT_TYPE`

const timeBalanceCase = `CASE acc.TIME_BALANCE
	WHEN 0 THEN 'Flow'
	WHEN 1 THEN 'First'
	WHEN 2 THEN 'Balance'
	WHEN 3 THEN 'Average'
	WHEN 4 THEN 'Avg_Actual'
	WHEN 5 THEN 'Avg_365'
	WHEN 6 THEN 'Fill'
END AS TIME_BALANCE`

const periodTypeCase = `CASE per.TYPE
	WHEN 0 THEN 'base'
	WHEN 1 THEN 'rollup'
	WHEN 2 THEN 'year'
	WHEN 3 THEN 'alternate'
	WHEN 4 THEN 'DTS'
END AS PERIOD_TYPE`

// memberPropertiesQuery selects the outline load properties of every member
// of a standard dimension except the dimension itself. The first column is
// the member id; CONSOL_OP, USED_IN and UDA are rewritten by the dimension
// enricher.
func memberPropertiesQuery(dim string) squirrel.SelectBuilder {
	cols := []string{
		"o.OBJECT_ID",
		"o.OBJECT_NAME AS MEMBER_NAME",
		"p.OBJECT_NAME AS PARENT",
		dataStorageCase,
		"m.TWOPASS_CALC AS TWO_PASS_CALCULATION",
		"'' AS DESCRIPTION",
		"COALESCE(mf.FORMULA, '') AS FORMULA",
		"COALESCE(e.NAME, '') AS SMART_LIST",
		dataTypeCase,
		"'Update' AS OPERATION",
	}

	q := squirrel.Select().
		From("HSP_MEMBER m").
		Join("HSP_OBJECT d ON m.DIM_ID = d.OBJECT_ID").
		Join("HSP_OBJECT o ON m.MEMBER_ID = o.OBJECT_ID").
		LeftJoin("HSP_OBJECT p ON o.PARENT_ID = p.OBJECT_ID").
		LeftJoin("HSP_MEMBER_FORMULA mf ON mf.MEMBER_ID = o.OBJECT_ID").
		LeftJoin("HSP_ENUMERATION e ON m.ENUMERATION_ID = e.ENUMERATION_ID").
		Where(squirrel.Eq{"d.OBJECT_NAME": dim}).
		Where(squirrel.NotEq{"o.OBJECT_TYPE": objectTypeDimension})

	upper := strings.ToUpper(dim)
	switch {
	case strings.Contains(upper, "ACCOUNT"):
		cols = append(cols, accountTypeCase, timeBalanceCase, "pt.TYPE_NAME AS SOURCE_PLAN_TYPE", "acc.USED_IN")
		q = q.LeftJoin("HSP_ACCOUNT acc ON acc.ACCOUNT_ID = o.OBJECT_ID").
			LeftJoin("HSP_PLAN_TYPE pt ON pt.PLAN_TYPE = acc.SRC_PLAN_TYPE")
	case strings.Contains(upper, "ENTITY"):
		cols = append(cols, "ent.USED_IN")
		q = q.LeftJoin("HSP_ENTITY ent ON ent.ENTITY_ID = o.OBJECT_ID")
	case strings.Contains(upper, "PERIOD"):
		cols = append(cols, periodTypeCase)
		q = q.LeftJoin("HSP_TIME_PERIOD per ON per.TP_ID = o.OBJECT_ID")
	}
	cols = append(cols, "m.CONSOL_OP", "'UDA_Placeholder' AS UDA")
	return q.Columns(cols...)
}

// attributeMemberPropertiesQuery is the attribute dimension counterpart of
// memberPropertiesQuery.
func attributeMemberPropertiesQuery(dim string) squirrel.SelectBuilder {
	return squirrel.Select("o.OBJECT_ID", "o.OBJECT_NAME AS MEMBER_NAME", "p.OBJECT_NAME AS PARENT", "'Update' AS OPERATION").
		From("HSP_MEMBER m").
		Join("HSP_OBJECT d ON m.DIM_ID = d.OBJECT_ID").
		Join("HSP_OBJECT o ON m.MEMBER_ID = o.OBJECT_ID").
		LeftJoin("HSP_OBJECT p ON o.PARENT_ID = p.OBJECT_ID").
		Where(squirrel.Eq{"d.OBJECT_NAME": dim}).
		Where(squirrel.NotEq{"o.OBJECT_TYPE": objectTypeDimension})
}

// objectNodesQuery selects the generic object tree used for task lists.
func objectNodesQuery() squirrel.SelectBuilder {
	return squirrel.Select("OBJECT_ID", "PARENT_ID", "OBJECT_NAME", "POSITION").
		From("HSP_OBJECT")
}

func taskListsQuery() squirrel.SelectBuilder {
	return objectNodesQuery().
		Where(squirrel.Eq{"OBJECT_TYPE": objectTypeTaskList}).
		OrderBy("POSITION", "OBJECT_NAME")
}

const taskTypeCase = `CASE t.TASK_TYPE
	WHEN 0 THEN 'Descriptive'
	WHEN 1 THEN 'URL'
	WHEN 2 THEN 'Data Form'
	WHEN 3 THEN 'Business Rule'
	WHEN 4 THEN 'Manage Process'
END AS TASK_TYPE`

// taskPropertiesQuery selects every task keyed by task id. TASK_NAME is
// replaced by the indented name during the tree walk.
func taskPropertiesQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"t.TASK_ID",
		"tl.OBJECT_NAME AS TASK_LIST",
		"o.OBJECT_NAME AS TASK_NAME",
		"p.OBJECT_NAME AS PARENT_TASK",
		taskTypeCase,
		"fp.OBJECT_NAME AS FORM_FOLDER",
		"fo.OBJECT_NAME AS FORM_NAME",
		"CASE WHEN t.TASK_TYPE = 3 THEN t.STR_PROP1 END AS BUSINESS_RULE_NAME",
		"pt.TYPE_NAME AS PLAN_TYPE",
		"CASE WHEN t.TASK_TYPE = 1 THEN t.STR_PROP1 END AS URL",
		"TRIM(t.INSTRUCTIONS) AS INSTRUCTIONS",
	).
		From("HSP_TASK t").
		Join("HSP_OBJECT o ON t.TASK_ID = o.OBJECT_ID").
		Join("HSP_OBJECT p ON o.PARENT_ID = p.OBJECT_ID").
		Join("HSP_OBJECT tl ON t.TASK_LIST_ID = tl.OBJECT_ID").
		LeftJoin("HSP_OBJECT fo ON t.TASK_TYPE = 2 AND t.INT_PROP1 = fo.OBJECT_ID").
		LeftJoin("HSP_OBJECT fp ON fo.PARENT_ID = fp.OBJECT_ID").
		LeftJoin("HSP_PLAN_TYPE pt ON t.TASK_TYPE = 3 AND t.INT_PROP1 = pt.PLAN_TYPE")
}

const columnWidthCase = `CASE f.COLUMN_WIDTH
	WHEN 0 THEN 'Size-to-Fit'
	WHEN 50 THEN 'Small'
	WHEN 75 THEN 'Medium'
	WHEN 100 THEN 'Large'
	ELSE 'Custom'
END AS COLUMN_WIDTH`

// simpleFormsQuery and compositeFormsQuery share one column layout. FOLDER
// holds the folder id until it is resolved to a path.
func simpleFormsQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select(
		"o.OBJECT_NAME AS FORM_NAME",
		"'Simple' AS FORM_TYPE",
		"o.PARENT_ID AS FOLDER",
		"pt.TYPE_NAME AS PLAN_TYPE",
		"f.FORM_OPT",
		columnWidthCase,
		"f.PRECISION_MIN1 AS CURRENCY_PRECISION_MIN",
		"f.PRECISION_MAX1 AS CURRENCY_PRECISION_MAX",
		"NULL AS GLOBAL_SCOPE",
	).
		From("HSP_FORM f").
		Join("HSP_OBJECT o ON f.FORM_ID = o.OBJECT_ID").
		LeftJoin("HSP_PLAN_TYPE pt ON f.PLAN_TYPE = pt.PLAN_TYPE").
		Where(nameLike("o.OBJECT_NAME", pattern)).
		OrderBy("o.OBJECT_NAME")
}

func compositeFormsQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select(
		"o.OBJECT_NAME AS FORM_NAME",
		"'Composite' AS FORM_TYPE",
		"o.PARENT_ID AS FOLDER",
		"NULL AS PLAN_TYPE",
		"cf.FORM_OPT",
		"NULL AS COLUMN_WIDTH",
		"NULL AS CURRENCY_PRECISION_MIN",
		"NULL AS CURRENCY_PRECISION_MAX",
		"cf.GLOBAL_SCOPE",
	).
		From("HSP_COMPOSITE_FORM cf").
		Join("HSP_OBJECT o ON cf.FORM_ID = o.OBJECT_ID").
		Where(nameLike("o.OBJECT_NAME", pattern)).
		OrderBy("o.OBJECT_NAME")
}

func compositeLayoutQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select(
		"co.OBJECT_NAME AS COMPOSITE_FORM",
		"cb.PANE_ID AS PANE",
		"COALESCE(cb.RESOURCE_LABEL, r.OBJECT_NAME) AS TAB_LABEL",
		"CASE cb.RESOURCE_TYPE WHEN 2 THEN 'Form' ELSE 'Unknown' END AS RESOURCE_TYPE",
		"r.OBJECT_NAME AS RESOURCE_NAME",
	).
		From("HSP_COMPOSITE_BLOCK cb").
		Join("HSP_OBJECT co ON cb.FORM_ID = co.OBJECT_ID").
		LeftJoin("HSP_OBJECT r ON cb.RESOURCE_ID = r.OBJECT_ID").
		Where(nameLike("co.OBJECT_NAME", pattern)).
		OrderBy("co.OBJECT_NAME", "cb.PANE_ID", "cb.POSITION")
}

// formLayoutQuery leaves STYLE packed; it is expanded into flag columns.
func formLayoutQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select(
		"fo.OBJECT_NAME AS FORM_NAME",
		`CASE l.LAYOUT_TYPE
			WHEN 0 THEN 'POV'
			WHEN 1 THEN 'Page'
			WHEN 2 THEN 'Rows'
			WHEN 3 THEN 'Columns'
			ELSE 'UNKNOWN AXIS'
		END AS AXIS`,
		"dm.OBJECT_NAME AS DIM_NAME",
		"l.STYLE",
	).
		From("HSP_FORM f").
		Join("HSP_OBJECT fo ON f.FORM_ID = fo.OBJECT_ID").
		Join("HSP_FORM_LAYOUT l ON f.FORM_ID = l.FORM_ID").
		Join("HSP_OBJECT dm ON l.DIM_ID = dm.OBJECT_ID").
		Where(nameLike("fo.OBJECT_NAME", pattern)).
		OrderBy("fo.OBJECT_NAME", "l.LAYOUT_TYPE", "l.ORDINAL")
}

const queryTypeCase = `CASE fdm.QUERY_TYPE
	WHEN 0 THEN 'Member'
	WHEN 3 THEN 'Ancestors'
	WHEN 4 THEN 'IAncestors'
	WHEN 5 THEN 'Children'
	WHEN 6 THEN 'IChildren'
	WHEN 8 THEN 'Descendants'
	WHEN 9 THEN 'IDescendants'
	WHEN 12 THEN 'Siblings'
	WHEN 21 THEN 'Parents'
	WHEN 22 THEN 'IParents'
	WHEN -9 THEN 'ILvl0Descendants'
	WHEN -1002 THEN 'Formula'
	ELSE CONCAT('Unknown: ', fdm.QUERY_TYPE)
END AS QUERY_TYPE`

// formMembersQuery lists the member selections on each axis of the forms
// matching pattern. NUM numbers the segments of an axis; SEQ is
// "ordinal.sequence" within a segment. Formula rows show their label and
// substitution variables their "&" reference.
func formMembersQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select(
		"fo.OBJECT_NAME AS FORM_NAME",
		`CASE fd.OBJDEF_TYPE
			WHEN 0 THEN 'POV'
			WHEN 1 THEN 'Page'
			WHEN 2 THEN 'Row'
			WHEN 3 THEN 'Column'
			ELSE CONCAT('Unknown: ', fd.OBJDEF_TYPE)
		END AS AXIS`,
		"DENSE_RANK() OVER (PARTITION BY fo.OBJECT_NAME, fd.OBJDEF_TYPE ORDER BY fd.LOCATION) AS NUM",
		"CONCAT(fdm.ORDINAL, '.', fdm.SEQUENCE) AS SEQ",
		`CASE
			WHEN fd.FORMULA IS NOT NULL THEN fd.LABEL
			WHEN fd.SUBST_VAR IS NOT NULL THEN CONCAT('&', fd.SUBST_VAR)
			ELSE mo.OBJECT_NAME
		END AS MEMBER_NAME`,
		queryTypeCase,
		"fd.FORMULA",
		"fd.STYLE",
	).
		From("HSP_FORMOBJ_DEF fd").
		Join("HSP_OBJECT fo ON fd.FORM_ID = fo.OBJECT_ID").
		Join("HSP_FORMOBJ_DEF_MBR fdm ON fd.OBJDEF_ID = fdm.OBJDEF_ID").
		Join("HSP_OBJECT mo ON fdm.MBR_ID = mo.OBJECT_ID").
		Where(nameLike("fo.OBJECT_NAME", pattern)).
		OrderBy("fo.OBJECT_NAME", "fd.OBJDEF_TYPE", "fd.LOCATION", "fdm.ORDINAL", "fdm.SEQUENCE")
}

// formCalcsQuery lists the business rules attached to the forms matching
// pattern. The default calculation and the per-pane rules of composite
// forms get descriptive names.
func formCalcsQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select(
		"fo.OBJECT_NAME AS FORM_NAME",
		`CASE
			WHEN c.CALC_TYPE = 0 THEN c.CALC_NAME
			WHEN c.CALC_NAME = 'DEFAULT' THEN '<Calculate Data Form>'
			WHEN c.CALC_NAME LIKE 'COMPONENT_%' AND cfo.OBJECT_NAME IS NOT NULL
				THEN CONCAT('<Business rules for ', cfo.OBJECT_NAME, '>')
			ELSE c.CALC_NAME
		END AS CALC_NAME`,
		"c.RUN_ON_LOAD",
		"c.RUN_ON_SAVE",
		"c.USE_MRU AS USE_FORM_MBRS",
		"c.HIDE_PROMPT",
	).
		From("HSP_FORM_CALCS c").
		Join("HSP_OBJECT fo ON c.FORM_ID = fo.OBJECT_ID").
		LeftJoin("HSP_COMPOSITE_BLOCK cb ON c.FORM_ID = cb.FORM_ID AND CONCAT('COMPONENT_', cb.POSITION) = c.CALC_NAME").
		LeftJoin("HSP_OBJECT cfo ON cb.RESOURCE_ID = cfo.OBJECT_ID").
		Where(nameLike("fo.OBJECT_NAME", pattern)).
		OrderBy("fo.OBJECT_NAME", "c.CALC_ID")
}

func formMenusQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select("fo.OBJECT_NAME AS FORM_NAME", "mo.OBJECT_NAME AS MENU_NAME").
		From("HSP_FORM_MENUS fm").
		Join("HSP_OBJECT fo ON fm.FORM_ID = fo.OBJECT_ID").
		Join("HSP_OBJECT mo ON fm.MENU_ID = mo.OBJECT_ID").
		Where(nameLike("fo.OBJECT_NAME", pattern)).
		OrderBy("fo.OBJECT_NAME", "fm.POSITION")
}

// formTaskUsageQuery finds task lists opening a matching form or composite
// form; formCompositeUsageQuery finds composite forms embedding a matching
// form. Both return TASK_LIST, COMPOSITE_FORM, FOLDER.
func formTaskUsageQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select("tl.OBJECT_NAME AS TASK_LIST", "NULL AS COMPOSITE_FORM", "NULL AS FOLDER").
		Distinct().
		From("HSP_TASK t").
		Join("HSP_OBJECT fo ON t.INT_PROP1 = fo.OBJECT_ID").
		Join("HSP_OBJECT tl ON t.TASK_LIST_ID = tl.OBJECT_ID").
		Where(squirrel.Eq{"t.TASK_TYPE": 2, "fo.OBJECT_TYPE": []int{objectTypeForm, objectTypeCompositeForm}}).
		Where(nameLike("fo.OBJECT_NAME", pattern)).
		OrderBy("tl.OBJECT_NAME")
}

func formCompositeUsageQuery(pattern string) squirrel.SelectBuilder {
	return squirrel.Select("NULL AS TASK_LIST", "co.OBJECT_NAME AS COMPOSITE_FORM", "co.PARENT_ID AS FOLDER").
		Distinct().
		From("HSP_COMPOSITE_BLOCK cb").
		Join("HSP_OBJECT f ON cb.RESOURCE_ID = f.OBJECT_ID").
		Join("HSP_OBJECT co ON cb.FORM_ID = co.OBJECT_ID").
		Where(squirrel.Eq{"cb.RESOURCE_TYPE": 2, "f.OBJECT_TYPE": objectTypeForm}).
		Where(nameLike("f.OBJECT_NAME", pattern)).
		OrderBy("co.OBJECT_NAME")
}

func smartListsQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"e.NAME AS SMARTLIST_NAME",
		"'addSmartList' AS OPERATION",
		"e.LABEL",
		"CASE e.DISPLAY_ORDER WHEN 0 THEN 'ID' WHEN 1 THEN 'Name' WHEN 2 THEN 'Label' END AS DISPLAY_ORDER",
		"COALESCE(e.MISSING_LABEL, 'LABEL_NONE') AS MISSING_LABEL",
		"CASE e.OVERRIDE_GRID_MISSING WHEN 0 THEN 'FALSE' WHEN 1 THEN 'TRUE' END AS USE_FORM_MISSING_LABEL",
	).
		From("HSP_ENUMERATION e").
		OrderBy("e.NAME")
}

func smartListItemsQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"sl.NAME AS SMARTLIST_NAME",
		"'addEntry' AS OPERATION",
		"sle.ENTRY_ID",
		"sle.NAME AS ENTRY_NAME",
		"sle.LABEL AS ENTRY_LABEL",
	).
		From("HSP_ENUMERATION sl").
		Join("HSP_ENUMERATION_ENTRY sle ON sl.ENUMERATION_ID = sle.ENUMERATION_ID").
		OrderBy("sl.NAME", "sle.ENTRY_ID")
}

func menuItemsQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"mo.OBJECT_NAME AS MENU",
		"mio.OBJECT_NAME AS MENU_ITEM",
		"mi.LABEL",
		"mi.ICON",
		`CASE mi.MENU_ITEM_TYPE
			WHEN 0 THEN 'Menu Header'
			WHEN 1 THEN 'URL'
			WHEN 2 THEN 'Data Form'
			WHEN 3 THEN 'Business Rule'
			WHEN 4 THEN 'Manage Process'
			WHEN 5 THEN 'Previous Form'
		END AS MENU_ITEM_TYPE`,
		`CASE mi.REQUIRED_DIM_ID
			WHEN 1 THEN 'Page'
			WHEN 2 THEN 'Row'
			WHEN 3 THEN 'Column'
			WHEN 4 THEN 'Point of View'
			WHEN -1 THEN 'Members only'
			WHEN -2 THEN 'Cell Only'
			ELSE dm.OBJECT_NAME
		END AS REQUIRED_PARAMETERS`,
		"mi.OPEN_IN_NEW_WINDOW",
		"CASE WHEN mi.MENU_ITEM_TYPE = 2 THEN fo.OBJECT_NAME END AS FORM_NAME",
		"CASE WHEN mi.MENU_ITEM_TYPE = 3 THEN pt.TYPE_NAME END AS PLAN_TYPE",
		"CASE WHEN mi.MENU_ITEM_TYPE = 3 THEN mi.STR_PROP1 END AS BUSINESS_RULE",
	).
		From("HSP_MENU_ITEM mi").
		Join("HSP_OBJECT mio ON mi.MENU_ITEM_ID = mio.OBJECT_ID").
		Join("HSP_OBJECT mo ON mi.MENU_ID = mo.OBJECT_ID").
		LeftJoin("HSP_OBJECT dm ON mi.REQUIRED_DIM_ID = dm.OBJECT_ID").
		LeftJoin("HSP_PLAN_TYPE pt ON mi.INT_PROP1 = pt.PLAN_TYPE").
		LeftJoin("HSP_OBJECT fo ON mi.INT_PROP1 = fo.OBJECT_ID").
		Where("mi.MENU_ID <> mi.MENU_ITEM_ID").
		OrderBy("mo.OBJECT_NAME", "mio.POSITION")
}

func userVariablesQuery() squirrel.SelectBuilder {
	return squirrel.Select("uv.VARIABLE_NAME", "dm.OBJECT_NAME AS DIMENSION_NAME").
		From("HSP_USER_VARIABLE uv").
		Join("HSP_OBJECT dm ON uv.DIM_ID = dm.OBJECT_ID").
		OrderBy("uv.VARIABLE_NAME")
}

// securityQuery leaves ACCESS_MODE, FLAGS and OBJECT_TYPE as codes; they are
// decoded row by row.
func securityQuery() squirrel.SelectBuilder {
	return squirrel.Select("u.OBJECT_NAME AS NAME", "o.OBJECT_NAME", "ac.ACCESS_MODE", "ac.FLAGS", "o.OBJECT_TYPE").
		From("HSP_ACCESS_CONTROL ac").
		Join("HSP_OBJECT o ON ac.OBJECT_ID = o.OBJECT_ID").
		Join("HSP_OBJECT u ON ac.USER_ID = u.OBJECT_ID").
		OrderBy("u.OBJECT_NAME", "o.OBJECT_NAME", "ac.ACCESS_MODE")
}
