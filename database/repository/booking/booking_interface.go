package bookingRepo

import "bikebooker/models"

// BookingRepository defines the interface for booking data access.
// Update operations apply their fields atomically as one record update so that
// concurrent readers always observe a consistent snapshot.
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id string) (*models.Booking, error)
	ListByRequester(requesterRef string) ([]models.Booking, error)
	// UpdateFields applies the given fields to the booking in a single atomic
	// write and refreshes updated_at.
	UpdateFields(id string, fields map[string]interface{}) error
}
