package types

// Standard table names for Store.GetTable.
const (
	TablePackages          = "packages"
	TableDeliverables      = "deliverables"
	TableEventsCollections = "events_collections"
	TableEvents            = "events"
	TableChangeRequests    = "change_requests"
	TableLinks             = "links"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TablePackages,
	TableDeliverables,
	TableEventsCollections,
	TableEvents,
	TableChangeRequests,
	TableLinks,
}

// FilterCurrent is an events filter key selecting events by whether they
// are still current. Its value must be a bool.
const FilterCurrent = "current"
