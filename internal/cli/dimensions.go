package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/agardiner/epm-utils/internal/planning"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DimensionSelection is one -d argument: a dimension name or glob pattern
// and the members to extract from (the whole dimension when empty).
type DimensionSelection struct {
	Pattern    string
	TopMembers []string
}

// parseDimensions parses DIM, DIM:M1~M2 and DIM:FILE arguments. A member
// list naming an existing file is read from it, one member per line.
func parseDimensions(fs afero.Fs, args []string) ([]DimensionSelection, error) {
	var out []DimensionSelection
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		name, top, found := strings.Cut(arg, ":")
		if name == "" {
			return nil, fmt.Errorf("invalid dimension argument %q", arg)
		}
		sel := DimensionSelection{Pattern: name}
		if found && top != "" {
			members, err := topMembers(fs, top)
			if err != nil {
				return nil, err
			}
			sel.TopMembers = members
		}
		out = append(out, sel)
	}
	return out, nil
}

func topMembers(fs afero.Fs, list string) ([]string, error) {
	if ok, _ := afero.Exists(fs, list); !ok {
		return strings.Split(list, "~"), nil
	}
	data, err := afero.ReadFile(fs, list)
	if err != nil {
		return nil, fmt.Errorf("failed to read member list: %w", err)
	}
	var members []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if m := strings.TrimSpace(scanner.Text()); m != "" {
			members = append(members, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read member list %s: %w", list, err)
	}
	return members, nil
}

// selectDimensions matches selections against the application's dimensions,
// ignoring case. Every dimension is returned at most once, with the top
// members of the first selection that matched it, in the order dims lists
// them. No selections means every dimension.
func selectDimensions(dims []planning.Dimension, sels []DimensionSelection, logger *zap.Logger) ([]DimensionSelection, error) {
	if len(sels) == 0 {
		out := make([]DimensionSelection, 0, len(dims))
		for _, d := range dims {
			out = append(out, DimensionSelection{Pattern: d.Name})
		}
		return out, nil
	}

	chosen := make(map[string]DimensionSelection)
	for _, sel := range sels {
		g, err := glob.Compile(strings.ToLower(sel.Pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid dimension pattern %q: %w", sel.Pattern, err)
		}
		matched := false
		for _, d := range dims {
			if !g.Match(strings.ToLower(d.Name)) {
				continue
			}
			matched = true
			if _, ok := chosen[d.Name]; !ok {
				chosen[d.Name] = DimensionSelection{Pattern: d.Name, TopMembers: sel.TopMembers}
			}
		}
		if !matched {
			logger.Warn("no dimension matches pattern", zap.String("dimension", sel.Pattern))
		}
	}

	var out []DimensionSelection
	for _, d := range dims {
		if sel, ok := chosen[d.Name]; ok {
			out = append(out, sel)
		}
	}
	return out, nil
}
