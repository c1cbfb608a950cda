package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL for all tables, in dependency order.
const (
	createEventsCollections = `CREATE TABLE IF NOT EXISTS events_collections (
    events_id TEXT PRIMARY KEY,
    owner_table TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createEvents = `CREATE TABLE IF NOT EXISTS events (
    event_id TEXT PRIMARY KEY,
    events_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    state TEXT NOT NULL,
    comment TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    expires_at TEXT,
    FOREIGN KEY (events_id) REFERENCES events_collections(events_id)
);`

	createPackages = `CREATE TABLE IF NOT EXISTS packages (
    package_id TEXT PRIMARY KEY,
    tool_kit TEXT NOT NULL,
    component TEXT NOT NULL,
    platform TEXT NOT NULL,
    maintenance INTEGER NOT NULL,
    patch INTEGER NOT NULL,
    events_id TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (events_id) REFERENCES events_collections(events_id)
);`

	createDeliverables = `CREATE TABLE IF NOT EXISTS deliverables (
    deliverable_id TEXT PRIMARY KEY,
    package_id TEXT NOT NULL,
    path TEXT NOT NULL,
    size INTEGER NOT NULL,
    checksum INTEGER NOT NULL,
    mod_time INTEGER NOT NULL,
    type TEXT NOT NULL,
    action TEXT NOT NULL,
    FOREIGN KEY (package_id) REFERENCES packages(package_id)
);`

	createChangeRequests = `CREATE TABLE IF NOT EXISTS change_requests (
    change_request_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    events_id TEXT
);`

	createLinks = `CREATE TABLE IF NOT EXISTS links (
    link_id TEXT PRIMARY KEY,
    link_type TEXT NOT NULL,
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    created_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxPackagesLevel        = `CREATE UNIQUE INDEX IF NOT EXISTS idx_packages_level ON packages(tool_kit, component, platform, maintenance, patch);`
	idxDeliverablesPackage  = `CREATE UNIQUE INDEX IF NOT EXISTS idx_deliverables_package_path ON deliverables(package_id, path);`
	idxEventsCollection     = `CREATE UNIQUE INDEX IF NOT EXISTS idx_events_collection_seq ON events(events_id, seq);`
	idxLinksUnique          = `CREATE UNIQUE INDEX IF NOT EXISTS idx_links_unique ON links(link_type, from_id, to_id);`
	idxLinksTypeTo          = `CREATE INDEX IF NOT EXISTS idx_links_type_to ON links(link_type, to_id);`
	idxChangeRequestsStatus = `CREATE INDEX IF NOT EXISTS idx_change_requests_status ON change_requests(status);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createEventsCollections,
	createEvents,
	createPackages,
	createDeliverables,
	createChangeRequests,
	createLinks,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPackagesLevel,
	idxDeliverablesPackage,
	idxEventsCollection,
	idxLinksUnique,
	idxLinksTypeTo,
	idxChangeRequestsStatus,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
