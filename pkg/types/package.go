package types

import (
	"fmt"
	"time"
)

// Package is a snapshot of one component's deliverables for a tool kit and
// platform at a maintenance/patch level. Its manifest lives in the
// deliverables table and its history in an events collection.
type Package struct {
	PackageID   string    `json:"package_id"`
	ToolKit     string    `json:"tool_kit"`
	Component   string    `json:"component"`
	Platform    string    `json:"platform"`
	Maintenance int       `json:"maintenance"`
	Patch       int       `json:"patch"`
	EventsID    string    `json:"events_id"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// PackageKey groups packages whose manifests build on one another.
type PackageKey struct {
	ToolKit   string
	Component string
	Platform  string
}

// String renders the key as toolkit/component/platform.
func (k PackageKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ToolKit, k.Component, k.Platform)
}

// Level is a maintenance/patch level.
type Level struct {
	Maintenance int
	Patch       int
}

// Compare orders levels by maintenance, then patch. It returns -1, 0 or +1.
func (l Level) Compare(o Level) int {
	switch {
	case l.Maintenance < o.Maintenance:
		return -1
	case l.Maintenance > o.Maintenance:
		return 1
	case l.Patch < o.Patch:
		return -1
	case l.Patch > o.Patch:
		return 1
	}
	return 0
}

// String renders the level as M.P.
func (l Level) String() string {
	return fmt.Sprintf("%d.%d", l.Maintenance, l.Patch)
}

// Key returns the package's serialization key.
func (p *Package) Key() PackageKey {
	return PackageKey{ToolKit: p.ToolKit, Component: p.Component, Platform: p.Platform}
}

// Level returns the package's maintenance/patch level.
func (p *Package) Level() Level {
	return Level{Maintenance: p.Maintenance, Patch: p.Patch}
}

// String identifies the package in logs and errors.
func (p *Package) String() string {
	return fmt.Sprintf("%s@%s", p.Key(), p.Level())
}
