package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agardiner/epm-utils/internal/config"
	"github.com/agardiner/epm-utils/internal/logging"
	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrNoExtracts is returned when no extract flag was given.
var ErrNoExtracts = errors.New("at least one extract must be selected")

// allPattern is the value of a pattern flag given without a pattern.
const allPattern = "*"

type extractFlags struct {
	outlineLoad   bool
	levels        bool
	taskLists     bool
	forms         string
	smartLists    bool
	menuItems     bool
	userVariables bool
	security      bool
	rules         map[manifest.Kind]*string
	businessRules bool

	dimensions []string
	outputDir  string
	format     string
	lcm        bool
	dependents bool
	quiet      bool
}

// ruleFlags names the pattern flag of each business rules kind.
var ruleFlags = []struct {
	kind manifest.Kind
	name string
	what string
}{
	{manifest.KindProject, "projects", "projects"},
	{manifest.KindSequence, "sequences", "sequences"},
	{manifest.KindRule, "rules", "rules"},
	{manifest.KindMacro, "macros", "macros"},
	{manifest.KindVariable, "variables", "global and local variables"},
}

func newExtractFlags() *extractFlags {
	return &extractFlags{rules: make(map[manifest.Kind]*string)}
}

// newExtractCmd builds the extract command parsing into f.
func newExtractCmd(f *extractFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract APPLICATION",
		Short: "Extract metadata from a Planning application",
		Long: `Extract metadata from the repository of a Planning application.

Each selected extract is written to its own CSV file, or to a sheet of the
Dimensions, Levels, Planning or Business_Rules workbook when --format is xlsx.
Pattern flags take an optional value (-f=Rev*); without one every object of
that type is extracted.`,
		Example: `  planning-extractor extract Plan1App -o -d Entity:Total~East,Acc*
  planning-extractor extract Plan1App --forms=Rev* --lcm --lcm-include-dependents
  planning-extractor extract Plan1App -b --format xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, f, args[0])
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.outlineLoad, "outline-load", "o", false, "extract dimensions in OutlineLoad format")
	flags.BoolVarP(&f.levels, "levels", "l", false, "extract dimensions as indented level trees")
	flags.BoolVarP(&f.taskLists, "task-lists", "t", false, "extract task lists")
	flags.StringVarP(&f.forms, "forms", "f", "", "extract forms matching `PATTERN` with their layouts and menus")
	flags.Lookup("forms").NoOptDefVal = allPattern
	flags.BoolVarP(&f.smartLists, "smart-lists", "L", false, "extract smart lists and their entries")
	flags.BoolVarP(&f.menuItems, "menu-items", "M", false, "extract right-click menu items")
	flags.BoolVarP(&f.userVariables, "user-variables", "V", false, "extract user variables")
	flags.BoolVarP(&f.security, "security-access", "S", false, "extract access grants (secFile format when writing CSV)")
	for _, rf := range ruleFlags {
		p := new(string)
		f.rules[rf.kind] = p
		flags.StringVar(p, rf.name, "", "extract business rules "+rf.what+" matching `PATTERN`")
		flags.Lookup(rf.name).NoOptDefVal = allPattern
	}
	flags.BoolVarP(&f.businessRules, "business-rules", "b", false, "extract every business rules object")

	flags.StringSliceVarP(&f.dimensions, "dimensions", "d", nil,
		"dimensions to extract as `DIM[:M1~M2|:FILE]`; names may be glob patterns")
	flags.StringVarP(&f.outputDir, "output-dir", "p", "", "directory for the extracts (default <output.dir>/APPLICATION)")
	flags.StringVar(&f.format, "format", "", "output format, csv or xlsx (default from config)")
	flags.BoolVar(&f.lcm, "lcm", false, "generate LCM migration definitions and a deletion list")
	flags.BoolVar(&f.dependents, "lcm-include-dependents", false, "add the users of migrated objects to the LCM definitions")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

func init() {
	rootCmd.AddCommand(newExtractCmd(newExtractFlags()))
}

// jobOptions turns the parsed flags into job options. Flags left unset fall
// back to cfg.
func (f *extractFlags) jobOptions(cmd *cobra.Command, fs afero.Fs, application string, cfg *config.Config) (JobOptions, error) {
	opts := JobOptions{
		Application:          application,
		OutlineLoad:          f.outlineLoad,
		Levels:               f.levels,
		TaskLists:            f.taskLists,
		SmartLists:           f.smartLists,
		MenuItems:            f.menuItems,
		UserVariables:        f.userVariables,
		Security:             f.security,
		Rules:                make(map[manifest.Kind]string),
		OutputDir:            f.outputDir,
		Format:               strings.ToLower(f.format),
		LCM:                  f.lcm || f.dependents,
		LCMIncludeDependents: f.dependents,
	}

	if cmd.Flags().Changed("forms") {
		pattern := f.forms
		opts.Forms = &pattern
	}
	for _, rf := range ruleFlags {
		switch {
		case cmd.Flags().Changed(rf.name):
			opts.Rules[rf.kind] = *f.rules[rf.kind]
		case f.businessRules:
			opts.Rules[rf.kind] = allPattern
		}
	}

	dims, err := parseDimensions(fs, f.dimensions)
	if err != nil {
		return JobOptions{}, err
	}
	opts.Dimensions = dims

	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(cfg.Output.Dir, application)
	}
	switch opts.Format {
	case "":
		opts.Format = strings.ToLower(cfg.Output.Format)
	case "xls", config.FormatXLSX:
		opts.Format = config.FormatXLSX
	case "text", config.FormatCSV:
		opts.Format = config.FormatCSV
	default:
		return JobOptions{}, fmt.Errorf("%w: must be 'csv' or 'xlsx', got '%s'", config.ErrInvalidFormat, f.format)
	}

	if !opts.Any() {
		return JobOptions{}, ErrNoExtracts
	}
	return opts, nil
}

func runExtract(cmd *cobra.Command, f *extractFlags, application string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := cfg.Application(application)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	opts, err := f.jobOptions(cmd, fs, application, cfg)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	lock := NewOutputLock(opts.OutputDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("application", application))

	src, err := rowsource.Open(app.Driver, app.DSN)
	if err != nil {
		return err
	}
	defer src.DB().Close()

	job, err := NewJob(src, fs, cfg, app, opts, NewStepReporter(cmd.ErrOrStderr(), f.quiet), logger)
	if err != nil {
		return err
	}
	defer job.Close()

	return job.Run(cmd.Context())
}
