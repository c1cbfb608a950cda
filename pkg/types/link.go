package types

import "time"

// Link type constants. Links are the join rows between packages and the
// entities that reference them.
const (
	LinkTypePackageChangeRequest = "package_change_request" // package -> change request
	LinkTypeToolKitPackage       = "toolkit_package"        // tool-kit package -> package
	LinkTypeComponentVersion     = "component_version"      // component version -> package
)

// ValidLinkType reports whether t is a recognized link type.
func ValidLinkType(t string) bool {
	switch t {
	case LinkTypePackageChangeRequest, LinkTypeToolKitPackage, LinkTypeComponentVersion:
		return true
	}
	return false
}

// Link represents a directed edge between two entities.
type Link struct {
	// LinkID is a UUID v7, generated on creation.
	LinkID string `json:"link_id"`

	// LinkType is the relationship type.
	LinkType string `json:"link_type"`

	// FromID is the source entity ID.
	FromID string `json:"from_id"`

	// ToID is the target entity ID.
	ToID string `json:"to_id"`

	// CreatedAt is the timestamp of creation.
	CreatedAt time.Time `json:"created_at"`
}
