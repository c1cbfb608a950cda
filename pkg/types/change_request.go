package types

// Change request statuses this ledger writes. Other statuses are owned by
// the external tracker and passed through untouched.
const (
	ChangeRequestComplete = "complete"
	ChangeRequestPackaged = "packaged"
)

// ChangeRequest is the local record of an externally tracked change.
// Name is the tracker's identifier and is unique.
type ChangeRequest struct {
	ChangeRequestID string `json:"change_request_id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EventsID        string `json:"events_id"`
}
