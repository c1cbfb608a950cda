package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pkgtrack/internal/lifecycle"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// selector holds the flags that name one package.
type selector struct {
	toolKit   string
	component string
	platform  string
	level     string
}

func (s *selector) register(cmd *cobra.Command, withLevel bool) {
	cmd.Flags().StringVar(&s.toolKit, "toolkit", "", "tool kit name")
	cmd.Flags().StringVar(&s.component, "component", "", "component name")
	cmd.Flags().StringVar(&s.platform, "platform", "", "platform name")
	if withLevel {
		cmd.Flags().StringVar(&s.level, "level", "", "maintenance.patch level, e.g. 3.1")
	}
}

func (s *selector) key() (types.PackageKey, error) {
	if s.toolKit == "" || s.component == "" || s.platform == "" {
		return types.PackageKey{}, usagef("--toolkit, --component and --platform are required")
	}
	return types.PackageKey{ToolKit: s.toolKit, Component: s.component, Platform: s.platform}, nil
}

// resolve finds the selected package.
func (s *selector) resolve(m *lifecycle.Manager) (*types.Package, error) {
	key, err := s.key()
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(s.level)
	if err != nil {
		return nil, err
	}
	pkg, found, err := m.Find(key, level)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("package %s@%s: %w", key, level, types.ErrNotFound)
	}
	return pkg, nil
}

// parseLevel accepts "M" or "M.P".
func parseLevel(s string) (types.Level, error) {
	if s == "" {
		return types.Level{}, usagef("--level is required")
	}
	maint, patch, hasPatch := strings.Cut(s, ".")
	m, err := strconv.Atoi(maint)
	if err != nil || m < 0 {
		return types.Level{}, usagef("invalid level %q", s)
	}
	p := 0
	if hasPatch {
		p, err = strconv.Atoi(patch)
		if err != nil || p < 0 {
			return types.Level{}, usagef("invalid level %q", s)
		}
	}
	return types.Level{Maintenance: m, Patch: p}, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
