package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelCompare(t *testing.T) {
	tests := []struct {
		a, b Level
		want int
	}{
		{Level{1, 0}, Level{1, 0}, 0},
		{Level{1, 0}, Level{1, 1}, -1},
		{Level{2, 0}, Level{1, 9}, 1},
		{Level{0, 5}, Level{1, 0}, -1},
		{Level{3, 2}, Level{3, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"_vs_"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
}

func TestPackageKeyAndString(t *testing.T) {
	p := &Package{ToolKit: "tk7", Component: "compiler", Platform: "aix", Maintenance: 2, Patch: 1}
	assert.Equal(t, PackageKey{"tk7", "compiler", "aix"}, p.Key())
	assert.Equal(t, Level{2, 1}, p.Level())
	assert.Equal(t, "tk7/compiler/aix@2.1", p.String())
}

func TestDeliverableSignature(t *testing.T) {
	d := Deliverable{Path: "bin/tool", Size: 100, Checksum: 55, ModTime: 1700000000, Action: ActionNew}
	assert.Equal(t, Signature{Size: 100, Checksum: 55, ModTime: 1700000000}, d.Signature())

	e := d
	e.Action = ActionUnchanged
	e.DeliverableID = "other"
	assert.Equal(t, d.Signature(), e.Signature(), "signature ignores identity and action")
}
