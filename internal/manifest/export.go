package manifest

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// document is the YAML shape of an exported manifest.
type document struct {
	Package      header              `yaml:"package"`
	Summary      map[string]int      `yaml:"summary"`
	Deliverables []types.Deliverable `yaml:"deliverables"`
}

type header struct {
	ID          string    `yaml:"id"`
	ToolKit     string    `yaml:"tool_kit"`
	Component   string    `yaml:"component"`
	Platform    string    `yaml:"platform"`
	Maintenance int       `yaml:"maintenance"`
	Patch       int       `yaml:"patch"`
	CreatedBy   string    `yaml:"created_by,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// WriteYAML writes pkg and its manifest to w as a YAML document.
func WriteYAML(w io.Writer, pkg *types.Package, ds []types.Deliverable) error {
	summary := make(map[string]int)
	for a, n := range Summarize(ds) {
		summary[string(a)] = n
	}
	doc := document{
		Package: header{
			ID:          pkg.PackageID,
			ToolKit:     pkg.ToolKit,
			Component:   pkg.Component,
			Platform:    pkg.Platform,
			Maintenance: pkg.Maintenance,
			Patch:       pkg.Patch,
			CreatedBy:   pkg.CreatedBy,
			CreatedAt:   pkg.CreatedAt,
		},
		Summary:      summary,
		Deliverables: ds,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return enc.Close()
}
