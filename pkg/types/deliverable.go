package types

// DeliverableType records how a filesystem entry is shipped.
type DeliverableType string

// Deliverable types. REAL covers every entry that is not a symbolic link.
const (
	TypeReal           DeliverableType = "REAL"
	TypeLinkNutshell   DeliverableType = "LINK_NUTSHELL"
	TypeLinkFollow     DeliverableType = "LINK_FOLLOW"
	TypeLinkDontFollow DeliverableType = "LINK_DONT_FOLLOW"
)

// ValidDeliverableType reports whether t is a recognized deliverable type.
func ValidDeliverableType(t DeliverableType) bool {
	switch t {
	case TypeReal, TypeLinkNutshell, TypeLinkFollow, TypeLinkDontFollow:
		return true
	}
	return false
}

// Action is the classification of a deliverable relative to the baseline.
// It is always computed by the manifest builder, never supplied by callers.
type Action string

// Deliverable actions.
const (
	ActionNew       Action = "NEW"
	ActionUpdate    Action = "UPDATE"
	ActionDelete    Action = "DELETE"
	ActionManualAdd Action = "MANUAL_ADD"
	ActionUnchanged Action = "UNCHANGED"
	ActionUnknown   Action = "UNKNOWN"
)

// ValidAction reports whether a is a recognized action.
func ValidAction(a Action) bool {
	switch a {
	case ActionNew, ActionUpdate, ActionDelete, ActionManualAdd, ActionUnchanged, ActionUnknown:
		return true
	}
	return false
}

// Deliverable is one file or symlink tracked as part of a package manifest.
type Deliverable struct {
	DeliverableID string `json:"deliverable_id" yaml:"-"`
	PackageID     string `json:"package_id" yaml:"-"`

	// Path is relative to the component's top-level directory.
	Path string `json:"path" yaml:"path"`

	// Size is in bytes; Checksum is the POSIX cksum CRC; ModTime is in
	// unix seconds.
	Size     int64  `json:"size" yaml:"size"`
	Checksum uint32 `json:"checksum" yaml:"checksum"`
	ModTime  int64  `json:"mod_time" yaml:"mod_time"`

	Type   DeliverableType `json:"type" yaml:"type"`
	Action Action          `json:"action" yaml:"action"`
}

// Signature is the (size, checksum, mtime) triple that decides whether a
// path changed between two manifests.
type Signature struct {
	Size     int64
	Checksum uint32
	ModTime  int64
}

// Signature returns the comparison key for d.
func (d Deliverable) Signature() Signature {
	return Signature{Size: d.Size, Checksum: d.Checksum, ModTime: d.ModTime}
}
