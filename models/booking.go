package models

import "time"

// Booking statuses. A booking starts out pending and is driven to exactly one
// terminal status by the fulfillment engine (or by an external cancellation).
const (
	StatusPending   = "pending"
	StatusMatched   = "matched"
	StatusBooked    = "booked"
	StatusNotFound  = "not_found"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// StatusTimeout is a legacy alias for StatusNotFound kept for records written by
// older versions; both mean the bounded search exhausted without a match.
const StatusTimeout = "timeout"

// Booking represents one fulfillment attempt for one requester and one location.
type Booking struct {
	ID           string `bson:"id" json:"id"`
	RequesterRef string `bson:"requester_ref" json:"requester_ref"` // requesting identity, not owned by the booking
	RawQuery     string `bson:"raw_query" json:"raw_query"`         // free-text address as submitted

	// Set once by address resolution, immutable afterwards.
	ResolvedAddress string  `bson:"resolved_address,omitempty" json:"resolved_address,omitempty"`
	Latitude        float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude       float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`

	// Set only when a qualifying bike was found.
	MatchedBikeID      string `bson:"matched_bike_id,omitempty" json:"matched_bike_id,omitempty"`
	MatchedBikeAddress string `bson:"matched_bike_address,omitempty" json:"matched_bike_address,omitempty"`
	MatchedBikeLabel   string `bson:"matched_bike_label,omitempty" json:"matched_bike_label,omitempty"`

	Status        string `bson:"status" json:"status"`
	FailureDetail string `bson:"failure_detail,omitempty" json:"failure_detail,omitempty"` // diagnostics for error outcomes

	// When false the engine stops after locating a match without reserving it.
	AutoBook bool `bson:"auto_book" json:"auto_book"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Terminal reports whether the fulfillment engine takes no further action for
// this booking.
func (b *Booking) Terminal() bool {
	switch b.Status {
	case StatusMatched, StatusBooked, StatusNotFound, StatusTimeout, StatusError, StatusCancelled:
		return true
	}
	return false
}
