package models

import "time"

// BookingEvent is published on the real-time channel once per booking outcome.
type BookingEvent struct {
	BookingID          string    `json:"booking_id"`
	Status             string    `json:"status"`
	MatchedBikeID      string    `json:"matched_bike_id,omitempty"`
	MatchedBikeAddress string    `json:"matched_bike_address,omitempty"`
	MatchedBikeLabel   string    `json:"matched_bike_label,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewBookingEvent builds the outcome event for a booking snapshot.
func NewBookingEvent(b *Booking) BookingEvent {
	return BookingEvent{
		BookingID:          b.ID,
		Status:             b.Status,
		MatchedBikeID:      b.MatchedBikeID,
		MatchedBikeAddress: b.MatchedBikeAddress,
		MatchedBikeLabel:   b.MatchedBikeLabel,
		OccurredAt:         time.Now().UTC(),
	}
}
