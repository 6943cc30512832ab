package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agardiner/epm-utils/internal/config"
	"github.com/agardiner/epm-utils/internal/extract"
	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/planning"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
	"github.com/agardiner/epm-utils/internal/usage"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNoRulesCatalog is returned when business rules extracts are requested
// for an application without a rules catalog.
var ErrNoRulesCatalog = errors.New("no business rules catalog configured")

// Names of the LCM files written at the end of a run.
const (
	lcmExportFile  = "LCM_Export.xml"
	lcmImportFile  = "LCM_Import.xml"
	lcmDeleteFile  = "LCM_Delete.yaml"
	lcmExtractPath = "LCM_Extract"
)

// Workbook labels.
const (
	dimensionsBook    = "Dimensions"
	levelsBook        = "Levels"
	planningBook      = "Planning"
	businessRulesBook = "Business_Rules"
)

// ruleExtract describes the extract of one business rules kind.
type ruleExtract struct {
	kind  manifest.Kind
	sheet string
	file  string
}

var ruleExtracts = []ruleExtract{
	{manifest.KindProject, "Projects", "Business_Rule_Projects"},
	{manifest.KindSequence, "Sequences", "Business_Rule_Sequences"},
	{manifest.KindRule, "Rules", "Business_Rules"},
	{manifest.KindMacro, "Macros", "Business_Rule_Macros"},
	{manifest.KindVariable, "Variables", "Business_Rule_Variables"},
}

// JobOptions selects what one run extracts.
type JobOptions struct {
	Application   string
	OutlineLoad   bool
	Levels        bool
	TaskLists     bool
	SmartLists    bool
	MenuItems     bool
	UserVariables bool
	Security      bool
	// Forms is the form name pattern; nil skips the forms extracts.
	Forms *string
	// Rules maps each requested business rules kind to its name pattern.
	Rules      map[manifest.Kind]string
	Dimensions []DimensionSelection

	OutputDir            string
	Format               string
	LCM                  bool
	LCMIncludeDependents bool
}

// Any reports whether at least one extract is selected.
func (o JobOptions) Any() bool {
	return o.OutlineLoad || o.Levels || o.TaskLists || o.SmartLists || o.MenuItems ||
		o.UserVariables || o.Security || o.Forms != nil || len(o.Rules) > 0
}

func (o JobOptions) steps() int {
	n := 0
	for _, on := range []bool{o.OutlineLoad, o.Levels, o.Forms != nil, o.TaskLists, o.SmartLists,
		o.MenuItems, o.UserVariables, o.Security} {
		if on {
			n++
		}
	}
	n += len(o.Rules)
	if o.LCM {
		n++
	}
	return n
}

// Job runs the selected extracts of one application.
type Job struct {
	opts       JobOptions
	cfg        *config.Config
	app        config.ApplicationConfig
	fs         afero.Fs
	extractor  *planning.Extractor
	dispatcher *extract.Dispatcher
	progress   *StepReporter
	logger     *zap.Logger

	manifest *manifest.Manifest
	closure  *manifest.ClosureWalker
	catalog  *usage.Catalog
	books    map[string]*sink.Workbook
	files    []string
}

// NewJob creates a job reading the repository through src and writing to
// fs.
func NewJob(src rowsource.Source, fs afero.Fs, cfg *config.Config, app config.ApplicationConfig,
	opts JobOptions, progress *StepReporter, logger *zap.Logger) (*Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = NewStepReporter(nil, true)
	}
	ex, err := planning.NewExtractor(src, fs, logger)
	if err != nil {
		return nil, err
	}
	return &Job{
		opts:       opts,
		cfg:        cfg,
		app:        app,
		fs:         fs,
		extractor:  ex,
		dispatcher: extract.NewDispatcher(src, fs, logger),
		progress:   progress,
		logger:     logger,
		manifest:   manifest.New(),
		books:      make(map[string]*sink.Workbook),
	}, nil
}

// Close releases the extractor and any unsaved workbooks.
func (j *Job) Close() {
	for _, wb := range j.books {
		wb.Close()
	}
	j.extractor.Close()
}

// Files returns the paths written so far.
func (j *Job) Files() []string { return j.files }

// Manifest returns the artifacts recorded for migration.
func (j *Job) Manifest() *manifest.Manifest { return j.manifest }

func (j *Job) xlsx() bool { return j.opts.Format == config.FormatXLSX }

// Run executes every selected extract in a fixed order.
func (j *Job) Run(ctx context.Context) error {
	j.logger.Info("Configuration settings",
		zap.String("output_dir", j.opts.OutputDir),
		zap.String("format", strings.ToUpper(j.opts.Format)),
		zap.Bool("lcm", j.opts.LCM),
		zap.Bool("outline_load", j.opts.OutlineLoad),
		zap.Bool("levels", j.opts.Levels),
		zap.Bool("forms", j.opts.Forms != nil),
		zap.Bool("task_lists", j.opts.TaskLists),
		zap.Bool("smart_lists", j.opts.SmartLists),
		zap.Bool("menu_items", j.opts.MenuItems),
		zap.Bool("user_variables", j.opts.UserVariables),
		zap.Bool("security_access", j.opts.Security),
		zap.Int("business_rule_kinds", len(j.opts.Rules)))

	j.progress.Start(j.opts.steps())

	steps := []struct {
		on   bool
		name string
		fn   func(context.Context) error
	}{
		{j.opts.OutlineLoad, "Outline load", j.outlineLoad},
		{j.opts.Levels, "Levels", j.levels},
		{j.opts.Forms != nil, "Forms", j.forms},
		{j.opts.TaskLists, "Task lists", j.taskLists},
		{j.opts.SmartLists, "Smart lists", j.smartLists},
		{j.opts.MenuItems, "Menu items", j.menuItems},
		{j.opts.UserVariables, "User variables", j.userVariables},
		{j.opts.Security, "Security", j.security},
	}
	for _, s := range steps {
		if !s.on {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		j.progress.Step(s.name)
		if err := s.fn(ctx); err != nil {
			return err
		}
		j.progress.Done()
	}
	if err := j.saveWorkbook(planningBook); err != nil {
		return err
	}

	for _, re := range ruleExtracts {
		pattern, ok := j.opts.Rules[re.kind]
		if !ok {
			continue
		}
		j.progress.Step(re.sheet)
		if err := j.businessRules(ctx, re, pattern); err != nil {
			return err
		}
		j.progress.Done()
	}
	if err := j.saveWorkbook(businessRulesBook); err != nil {
		return err
	}

	if j.opts.LCM {
		j.progress.Step("LCM")
		if err := j.migrationScripts(); err != nil {
			return err
		}
		j.progress.Done()
	}
	j.progress.Finish(len(j.files))
	return nil
}

// options returns the extract options for a sheet or text file.
func (j *Job) options() extract.Options {
	opts := extract.DefaultOptions()
	opts.Encoding = j.cfg.Output.Encoding
	if j.xlsx() {
		opts.HeaderMap = extract.TitleHeader
		return opts
	}
	opts.FieldSeparator = j.cfg.Output.FieldSeparator
	return opts
}

// target opens a sheet of the named workbook or names a text file.
func (j *Job) target(book, sheet, file string, topMembers []string, levels bool, freeze int) (sink.Target, error) {
	if !j.xlsx() {
		path := extract.FileName(j.opts.OutputDir, file, topMembers, levels, config.FormatCSV)
		return sink.ToFile(path), nil
	}
	wb, ok := j.books[book]
	if !ok {
		var err error
		wb, err = sink.NewWorkbook(sink.WorkbookOptions{
			MaxColumnWidth: j.cfg.Spreadsheet.MaxColumnWidth,
			TitleFill:      j.cfg.Spreadsheet.TitleFill,
		})
		if err != nil {
			return sink.Target{}, err
		}
		j.books[book] = wb
	}
	s, err := wb.AddSheet(sheet, freeze)
	if err != nil {
		return sink.Target{}, err
	}
	return sink.ToSheet(s), nil
}

// wrote records the file of a text target after its extract succeeded.
// Extracts that selected nothing never create their file and are skipped.
func (j *Job) wrote(target sink.Target) error {
	if !target.IsText() {
		return nil
	}
	ok, err := afero.Exists(j.fs, target.Path)
	if err != nil {
		return err
	}
	if ok {
		j.files = append(j.files, target.Path)
	}
	return nil
}

// saveWorkbook writes the named workbook if anything was added to it.
func (j *Job) saveWorkbook(book string) error {
	wb, ok := j.books[book]
	if !ok {
		return nil
	}
	delete(j.books, book)
	defer wb.Close()
	path := extract.FileName(j.opts.OutputDir, book, nil, false, config.FormatXLSX)
	if err := wb.Save(j.fs, path); err != nil {
		return fmt.Errorf("failed to save %s workbook: %w", book, err)
	}
	j.files = append(j.files, path)
	j.logger.Info("Saved workbook", zap.String("path", path))
	return nil
}

func (j *Job) selectedDimensions(ctx context.Context) ([]DimensionSelection, error) {
	dims, err := j.extractor.DimensionNames(ctx)
	if err != nil {
		return nil, err
	}
	return selectDimensions(dims, j.opts.Dimensions, j.logger)
}

func (j *Job) outlineLoad(ctx context.Context) error {
	sels, err := j.selectedDimensions(ctx)
	if err != nil {
		return err
	}
	for _, sel := range sels {
		target, err := j.target(dimensionsBook, sel.Pattern, sel.Pattern, sel.TopMembers, false, 2)
		if err != nil {
			return err
		}
		if _, err := j.extractor.ExtractDimension(ctx, target, sel.Pattern, sel.TopMembers, j.options()); err != nil {
			return err
		}
		if err := j.wrote(target); err != nil {
			return err
		}
	}
	return j.saveWorkbook(dimensionsBook)
}

func (j *Job) levels(ctx context.Context) error {
	sels, err := j.selectedDimensions(ctx)
	if err != nil {
		return err
	}
	for _, sel := range sels {
		target, err := j.target(levelsBook, sel.Pattern, sel.Pattern, sel.TopMembers, true, 2)
		if err != nil {
			return err
		}
		if _, err := j.extractor.ExtractDimensionLevels(ctx, target, sel.Pattern, sel.TopMembers, j.options()); err != nil {
			return err
		}
		if err := j.wrote(target); err != nil {
			return err
		}
	}
	return j.saveWorkbook(levelsBook)
}

// record adds a selected object to the manifest and, when dependents are
// wanted, everything that uses it.
func (j *Job) record(ctx context.Context, obj manifest.Object) error {
	path := obj.Path()
	if path == "" {
		return fmt.Errorf("no artifact path for %s", obj)
	}
	j.manifest.Record(path, manifest.Selected)
	if !j.opts.LCMIncludeDependents {
		return nil
	}
	walker, err := j.closureWalker(ctx)
	if err != nil {
		return err
	}
	_, err = walker.ExpandDependents(ctx, obj)
	return err
}

// closureWalker builds the walker over form usage and, when configured, the
// business rules catalog.
func (j *Job) closureWalker(ctx context.Context) (*manifest.ClosureWalker, error) {
	if j.closure != nil {
		return j.closure, nil
	}
	forms, err := j.extractor.UsageLookup(ctx)
	if err != nil {
		return nil, err
	}
	lookup := usage.Multi{forms}
	if j.app.RulesCatalog != "" {
		catalog, err := j.rulesCatalog()
		if err != nil {
			return nil, err
		}
		lookup = append(lookup, catalog)
	}
	j.closure = manifest.NewClosureWalker(j.manifest, lookup, j.logger)
	return j.closure, nil
}

func (j *Job) forms(ctx context.Context) error {
	pattern := *j.opts.Forms
	var lcm planning.ObjectFunc
	if j.opts.LCM {
		lcm = func(obj manifest.Object) error {
			return j.record(ctx, obj)
		}
	}

	target, err := j.target(planningBook, "Forms", "Forms", nil, false, 3)
	if err != nil {
		return err
	}
	if _, err := j.extractor.ExtractForms(ctx, target, pattern, j.options(), lcm); err != nil {
		return err
	}
	if err := j.wrote(target); err != nil {
		return err
	}

	others := []struct {
		sheet  string
		file   string
		freeze int
		fn     func(context.Context, sink.Target, string, extract.Options) (int, error)
	}{
		{"Composite Form Layout", "Form_Composite_Layout", 3, j.extractor.ExtractCompositeForms},
		{"Form Layout", "Form_Layout", 3, j.extractor.ExtractFormLayout},
		{"Form Members", "Form_Members", 3, j.extractor.ExtractFormMembers},
		{"Form Calcs", "Form_Calcs", 2, j.extractor.ExtractFormCalcs},
		{"Form Menus", "Form_Menus", 1, j.extractor.ExtractFormMenus},
	}
	for _, o := range others {
		target, err := j.target(planningBook, o.sheet, o.file, nil, false, o.freeze)
		if err != nil {
			return err
		}
		if _, err := o.fn(ctx, target, pattern, j.options()); err != nil {
			return err
		}
		if err := j.wrote(target); err != nil {
			return err
		}
	}

	if j.opts.LCM && j.opts.LCMIncludeDependents {
		j.logger.Info("Locating form dependents...")
		walker, err := j.closureWalker(ctx)
		if err != nil {
			return err
		}
		// Collected first: expanding runs queries of its own.
		var users []manifest.Object
		_, err = j.extractor.FormUsage(ctx, pattern, func(obj manifest.Object) error {
			users = append(users, obj)
			return nil
		})
		if err != nil {
			return err
		}
		for _, obj := range users {
			if !j.manifest.Has(obj.Path()) {
				j.manifest.Record(obj.Path(), manifest.Dependent)
			}
			if _, err := walker.ExpandDependents(ctx, obj); err != nil {
				return err
			}
		}
	}
	return nil
}

func (j *Job) taskLists(ctx context.Context) error {
	target, err := j.target(planningBook, "Task Lists", "Task_Lists", nil, false, 3)
	if err != nil {
		return err
	}
	opts := j.options()
	opts.StripLineBreaks = !j.xlsx()
	var lcm planning.ObjectFunc
	if j.opts.LCM {
		lcm = func(obj manifest.Object) error {
			return j.record(ctx, obj)
		}
	}
	if _, err := j.extractor.ExtractTaskLists(ctx, target, nil, opts, lcm); err != nil {
		return err
	}
	return j.wrote(target)
}

func (j *Job) smartLists(ctx context.Context) error {
	target, err := j.target(planningBook, "Smart Lists", "Smart_Lists", nil, false, 1)
	if err != nil {
		return err
	}
	if _, err := j.extractor.ExtractSmartLists(ctx, target, j.options()); err != nil {
		return err
	}
	if err := j.wrote(target); err != nil {
		return err
	}
	target, err = j.target(planningBook, "Smart List Items", "Smart_List_Items", nil, false, 1)
	if err != nil {
		return err
	}
	if _, err := j.extractor.ExtractSmartListItems(ctx, target, j.options()); err != nil {
		return err
	}
	return j.wrote(target)
}

func (j *Job) menuItems(ctx context.Context) error {
	target, err := j.target(planningBook, "Menu Items", "Menu_Items", nil, false, 3)
	if err != nil {
		return err
	}
	if _, err := j.extractor.ExtractMenuItems(ctx, target, j.options()); err != nil {
		return err
	}
	return j.wrote(target)
}

func (j *Job) userVariables(ctx context.Context) error {
	target, err := j.target(planningBook, "User Variables", "User_Variables", nil, false, 1)
	if err != nil {
		return err
	}
	if _, err := j.extractor.ExtractUserVariables(ctx, target, j.options()); err != nil {
		return err
	}
	return j.wrote(target)
}

func (j *Job) security(ctx context.Context) error {
	target, err := j.target(planningBook, "Security Access", "Security_Access", nil, false, 3)
	if err != nil {
		return err
	}
	if _, err := j.extractor.ExtractSecurity(ctx, target, j.options()); err != nil {
		return err
	}
	return j.wrote(target)
}

func (j *Job) rulesCatalog() (*usage.Catalog, error) {
	if j.catalog != nil {
		return j.catalog, nil
	}
	if j.app.RulesCatalog == "" {
		return nil, fmt.Errorf("%w for application %s", ErrNoRulesCatalog, j.opts.Application)
	}
	catalog, err := usage.LoadCatalog(j.fs, j.app.RulesCatalog)
	if err != nil {
		return nil, err
	}
	j.logger.Debug("Loaded rules catalog",
		zap.String("path", j.app.RulesCatalog),
		zap.Int("objects", catalog.Len()))
	j.catalog = catalog
	return catalog, nil
}

// businessRules extracts the catalog objects of one kind matching pattern
// and records the global ones for migration.
func (j *Job) businessRules(ctx context.Context, re ruleExtract, pattern string) error {
	what := strings.ToLower(re.sheet)
	j.logger.Info(fmt.Sprintf("Extracting business rule %s...", what))

	catalog, err := j.rulesCatalog()
	if err != nil {
		return err
	}
	entries, err := catalog.Match(re.kind, pattern)
	if err != nil {
		return err
	}

	if j.opts.LCM {
		for _, e := range entries {
			if e.Local {
				continue
			}
			if err := j.record(ctx, manifest.Object{Kind: e.Kind, Name: e.Name}); err != nil {
				return err
			}
		}
	}

	target, err := j.target(businessRulesBook, re.sheet, re.file, nil, false, 1)
	if err != nil {
		return err
	}
	n, err := j.dispatcher.Run(ctx, usage.Rows(entries), target, j.options(), extract.Hooks{})
	if err != nil {
		return fmt.Errorf("failed to extract business rule %s: %w", what, err)
	}
	if err := j.wrote(target); err != nil {
		return err
	}
	j.logger.Info(fmt.Sprintf("Output %d business rule %s", n, what),
		zap.String("extract", what),
		zap.Int("records", n))
	return nil
}

// migrationScripts writes the LCM export and import definitions and the
// deletion list for every artifact recorded during the run.
func (j *Job) migrationScripts() error {
	if j.manifest.Len() == 0 {
		j.logger.Info("No artifacts selected for migration")
		return nil
	}
	j.logger.Info("Generating LCM migration and deletion scripts...")

	def := manifest.Definition{
		Project:     j.app.Project,
		Application: j.opts.Application,
		User:        j.cfg.Migration.User,
		Password:    j.cfg.Migration.Password,
		ExtractPath: filepath.Join(j.opts.OutputDir, lcmExtractPath),
		Recursive:   j.cfg.Migration.Recursive,
	}
	for _, d := range []struct {
		file string
		dir  manifest.Direction
	}{
		{lcmExportFile, manifest.Export},
		{lcmImportFile, manifest.Import},
	} {
		path := filepath.Join(j.opts.OutputDir, d.file)
		n, err := manifest.WriteDefinition(j.fs, path, j.manifest, def, d.dir)
		if err != nil {
			return err
		}
		j.files = append(j.files, path)
		j.logger.Info("Wrote migration definition",
			zap.String("path", path),
			zap.Int("artifacts", n))
	}

	list, n := manifest.Classify(j.manifest, j.logger)
	path := filepath.Join(j.opts.OutputDir, lcmDeleteFile)
	if err := manifest.WriteDeletionList(j.fs, path, list); err != nil {
		return err
	}
	j.files = append(j.files, path)
	j.logger.Info("Wrote deletion list",
		zap.String("path", path),
		zap.Int("artifacts", n))
	return nil
}
