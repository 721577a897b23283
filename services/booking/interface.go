package booking

import (
	"context"

	"bikebooker/models"
)

// BookingService defines the booking operations exposed to the web layer.
type BookingService interface {
	// CreateBooking resolves the address, persists the booking and hands it
	// to the fulfillment workers. It returns as soon as the record exists;
	// matching and reservation happen asynchronously. A booking whose address
	// could not be resolved is persisted directly in error status and never
	// enters fulfillment.
	CreateBooking(ctx context.Context, requesterRef, rawQuery string, autoBook bool) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, requesterRef string) ([]models.Booking, error)
	// CancelBooking cancels the requester's active rental on the rental
	// network and marks a non-terminal booking cancelled. A waiting
	// fulfillment task observes the status at its next wake-up and stops.
	CancelBooking(ctx context.Context, id string) (*models.Booking, error)
}
