package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// cli runs pkgtrack commands against one temp config and data dir.
type cli struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", c.configDir, "--data-dir", c.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "pkgtrack %v", args)
	return out
}

var pkgFlags = []string{"--toolkit", "tk1", "--component", "compA", "--platform", "linux"}

func withPkg(level string, args ...string) []string {
	out := append([]string{}, args...)
	out = append(out, pkgFlags...)
	return append(out, "--level", level)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func TestInitWritesConfigAndDatabase(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("init")
	assert.Contains(t, out, "initialized")

	_, err := os.Stat(filepath.Join(c.configDir, configFileExt))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(c.dataDir, "pkgtrack.db"))
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "pkgtrack "+version+"\n", c.mustRun("version"))
}

func TestPackageWorkflow(t *testing.T) {
	c := newCLI(t)

	c.mustRun(withPkg("1.0", "package", "create", "--comment", "first")...)
	v1 := writeTree(t, map[string]string{
		"bin/tool":   "tool v1",
		"lib/old.so": "old",
		".dont_ship": "scratch\n",
		"scratch":    "ignored",
	})
	out := c.mustRun(withPkg("1.0", "package", "attach", "--dir", v1)...)
	assert.Contains(t, out, "attached 2 deliverables")
	assert.Contains(t, out, "NEW=2")

	c.mustRun(withPkg("1.1", "package", "create")...)
	v2 := writeTree(t, map[string]string{
		"bin/tool": "tool v2, longer",
		"bin/new":  "new",
	})
	out = c.mustRun(withPkg("1.1", "package", "attach", "--dir", v2)...)
	assert.Contains(t, out, "NEW=1 UPDATE=1 DELETE=1")

	yamlOut := c.mustRun(withPkg("1.1", "package", "show", "--yaml")...)
	var doc struct {
		Deliverables []types.Deliverable `yaml:"deliverables"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(yamlOut), &doc))
	got := map[string]types.Action{}
	for _, d := range doc.Deliverables {
		got[d.Path] = d.Action
	}
	assert.Equal(t, map[string]types.Action{
		"bin/new":    types.ActionNew,
		"bin/tool":   types.ActionUpdate,
		"lib/old.so": types.ActionDelete,
	}, got)

	out = c.mustRun(append([]string{"package", "list"}, pkgFlags...)...)
	assert.Regexp(t, `(?s)1\.1.*1\.0`, out, "highest level first")

	out = c.mustRun(withPkg("1.1", "package", "link-cr", "CR-1", "CR-2")...)
	assert.Contains(t, out, "linked 2 change requests")

	out = c.mustRun(withPkg("1.1", "--json", "event", "show")...)
	var history []types.Event
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 3)
	assert.Equal(t, types.PackageStateChangesLinked, history[2].State)

	out = c.mustRun(withPkg("1.1", "package", "delete", "--revert-crs")...)
	assert.Contains(t, out, "change requests reverted: 2")
	assert.Contains(t, out, "deleted tk1/compA/linux@1.1")

	_, err := c.run(withPkg("1.1", "package", "show")...)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestAttachWithPriorManifest(t *testing.T) {
	c := newCLI(t)
	c.mustRun(withPkg("2", "package", "create")...)

	tree := writeTree(t, map[string]string{"bin/tool": "tool"})
	prior := filepath.Join(t.TempDir(), "prior.txt")
	require.NoError(t, os.WriteFile(prior, []byte(
		"# hand delivered\n42 x 1700000000 x x x x etc/site.conf\n"), 0o644))

	out := c.mustRun(withPkg("2", "package", "attach", "--dir", tree, "--prior-manifest", prior, "--dry-run")...)
	assert.Contains(t, out, "etc/site.conf")
	assert.Contains(t, out, string(types.ActionManualAdd))

	out = c.mustRun(withPkg("2", "package", "show")...)
	assert.Contains(t, out, "manifest: empty", "dry run attaches nothing")
}

func TestEventRecord(t *testing.T) {
	c := newCLI(t)
	c.mustRun(withPkg("1", "package", "create")...)

	out := c.mustRun(withPkg("1", "event", "record", "--state", "released", "--comment", "GA")...)
	assert.Contains(t, out, "is now released")

	out = c.mustRun(withPkg("1", "package", "show")...)
	assert.Contains(t, out, "state: released")
}

func TestUserErrors(t *testing.T) {
	c := newCLI(t)
	c.mustRun(withPkg("1.0", "package", "create")...)

	tests := []struct {
		name string
		args []string
	}{
		{"missing key", []string{"package", "create", "--level", "1"}},
		{"bad level", withPkg("one", "package", "create")},
		{"duplicate", withPkg("1.0", "package", "create")},
		{"missing dir", withPkg("1.0", "package", "attach")},
		{"unknown package", withPkg("9.9", "package", "show")},
		{"missing state", withPkg("1.0", "event", "record")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err), fmt.Sprint(err))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Level
		wantErr bool
	}{
		{"3", types.Level{Maintenance: 3}, false},
		{"3.1", types.Level{Maintenance: 3, Patch: 1}, false},
		{"", types.Level{}, true},
		{"3.x", types.Level{}, true},
		{"-1", types.Level{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
