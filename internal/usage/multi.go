package usage

import (
	"context"

	"github.com/agardiner/epm-utils/internal/manifest"
)

// Multi asks every lookup in turn and concatenates their answers.
type Multi []manifest.UsageLookup

// UsersOf implements manifest.UsageLookup.
func (m Multi) UsersOf(ctx context.Context, obj manifest.Object) ([]manifest.Object, error) {
	var out []manifest.Object
	for _, l := range m {
		if l == nil {
			continue
		}
		users, err := l.UsersOf(ctx, obj)
		if err != nil {
			return nil, err
		}
		out = append(out, users...)
	}
	return out, nil
}
