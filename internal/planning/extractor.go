package planning

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/enrich"
	"github.com/agardiner/epm-utils/internal/extract"
	"github.com/agardiner/epm-utils/internal/hierarchy"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
	"github.com/agardiner/epm-utils/internal/usage"
	"github.com/maypok86/otter"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// lookupCacheSize bounds the number of dimensions whose lookups are kept.
const lookupCacheSize = 64

// Extractor runs the planning extracts of one application.
type Extractor struct {
	src        rowsource.Source
	dispatcher *extract.Dispatcher
	members    *hierarchy.Walker
	tasks      *hierarchy.Walker
	lookups    otter.Cache[string, *enrich.Lookups]
	logger     *zap.Logger

	mu        sync.Mutex
	dims      []Dimension
	planTypes []string
	folders   *usage.Folders
}

// NewExtractor creates an extractor reading the repository through src and
// writing text extracts to fs.
func NewExtractor(src rowsource.Source, fs afero.Fs, logger *zap.Logger) (*Extractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := otter.MustBuilder[string, *enrich.Lookups](lookupCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}
	return &Extractor{
		src:        src,
		dispatcher: extract.NewDispatcher(src, fs, logger),
		members:    hierarchy.NewWalker(memberTree{src: src}, logger),
		tasks:      hierarchy.NewWalker(objectTree{src: src, objectType: objectTypeTaskList}, logger),
		lookups:    cache,
		logger:     logger,
	}, nil
}

// Close releases the lookup cache.
func (e *Extractor) Close() {
	e.lookups.Close()
}

// DimensionNames returns the application's dimensions, standard dimensions
// first. The list is read once per extractor.
func (e *Extractor) DimensionNames(ctx context.Context) ([]Dimension, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims != nil {
		return e.dims, nil
	}

	rows, err := e.src.Query(ctx, dimensionsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query dimensions: %w", err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read dimensions: %w", err)
	}
	dims := make([]Dimension, 0, len(all))
	for _, r := range all {
		dims = append(dims, Dimension{Name: asString(r[0]), Type: asString(r[1])})
	}
	e.dims = dims
	return dims, nil
}

// PlanTypes returns the application's plan type names.
func (e *Extractor) PlanTypes(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.planTypes != nil {
		return e.planTypes, nil
	}

	rows, err := e.src.Query(ctx, planTypesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query plan types: %w", err)
	}
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan types: %w", err)
	}
	planTypes := make([]string, 0, len(all))
	for _, r := range all {
		planTypes = append(planTypes, asString(r[0]))
	}
	e.planTypes = planTypes
	return planTypes, nil
}

// dimension finds a dimension by name, ignoring case.
func (e *Extractor) dimension(ctx context.Context, name string) (Dimension, error) {
	dims, err := e.DimensionNames(ctx)
	if err != nil {
		return Dimension{}, err
	}
	for _, d := range dims {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Dimension{}, unknownDimension(name)
}

func (e *Extractor) formFolders(ctx context.Context) (*usage.Folders, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.folders != nil {
		return e.folders, nil
	}
	folders, err := usage.LoadFolders(ctx, e.src)
	if err != nil {
		return nil, err
	}
	e.folders = folders
	return folders, nil
}

// UsageLookup returns the form usage lookup over the same repository.
func (e *Extractor) UsageLookup(ctx context.Context) (*usage.Forms, error) {
	folders, err := e.formFolders(ctx)
	if err != nil {
		return nil, err
	}
	return usage.NewForms(e.src, folders), nil
}

// run logs the start and outcome of one extract.
func (e *Extractor) run(what string, fn func() (int, error)) (int, error) {
	e.logger.Info("Extracting "+what+"...", zap.String("extract", what))
	n, err := fn()
	if err != nil {
		return n, fmt.Errorf("failed to extract %s: %w", what, err)
	}
	e.logger.Info(fmt.Sprintf("Output %d %s records", n, what),
		zap.String("extract", what),
		zap.Int("records", n))
	return n, nil
}

// runTrees writes the subtree of every root to target in turn. Rows of all
// but the first root are appended without a header.
func (e *Extractor) runTrees(ctx context.Context, w *hierarchy.Walker, tree string, roots []hierarchy.Node,
	header rowsource.Header, project hierarchy.Projection, target sink.Target, opts extract.Options, hooks extract.Hooks) (int, error) {
	total := 0
	for i, root := range roots {
		o := opts
		if i > 0 {
			o.Append = true
		}
		n, err := e.dispatcher.Run(ctx, w.Rows(ctx, tree, root, header, project), target, o, hooks)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// execute runs q into target with the extractor's dispatcher.
func (e *Extractor) execute(ctx context.Context, q squirrel.Sqlizer, target sink.Target,
	opts extract.Options, hooks extract.Hooks) (int, error) {
	return e.dispatcher.Execute(ctx, q, target, opts, hooks)
}
