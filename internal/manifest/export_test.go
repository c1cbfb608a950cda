package manifest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

func TestWriteYAML(t *testing.T) {
	p := pkg("pkg-1", 2, 1)
	p.CreatedBy = "builder"
	p.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ds := []types.Deliverable{
		withAction(del("bin/tool", 120, 77), types.ActionUpdate),
		withAction(del("lib/old.so", 50, 9), types.ActionDelete),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, p, ds))

	var doc struct {
		Package struct {
			ID          string `yaml:"id"`
			Maintenance int    `yaml:"maintenance"`
		} `yaml:"package"`
		Summary      map[string]int `yaml:"summary"`
		Deliverables []struct {
			Path   string `yaml:"path"`
			Action string `yaml:"action"`
		} `yaml:"deliverables"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "pkg-1", doc.Package.ID)
	assert.Equal(t, 2, doc.Package.Maintenance)
	assert.Equal(t, map[string]int{"UPDATE": 1, "DELETE": 1}, doc.Summary)
	require.Len(t, doc.Deliverables, 2)
	assert.Equal(t, "lib/old.so", doc.Deliverables[1].Path)
	assert.Equal(t, "DELETE", doc.Deliverables[1].Action)
	assert.NotContains(t, buf.String(), "deliverable_id")
}
