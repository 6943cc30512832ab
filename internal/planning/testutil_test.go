package planning

import (
	"testing"

	"github.com/agardiner/epm-utils/internal/planning/planningtest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor(t *testing.T, logger *zap.Logger, extra ...string) (*Extractor, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	e, err := NewExtractor(planningtest.NewRepository(t, extra...), fs, logger)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, fs
}
