package booking

import (
	"context"
	"fmt"

	bookingRepo "bikebooker/database/repository/booking"
	"bikebooker/models"
	"bikebooker/services/geocode"
	"bikebooker/services/rental"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo     bookingRepo.BookingRepository
	Resolver geocode.Resolver
	Rental   rental.Client
	Queue    FulfillmentQueue
	Logger   *zap.Logger
}

func (s *DefaultBookingService) CreateBooking(ctx context.Context, requesterRef, rawQuery string, autoBook bool) (*models.Booking, error) {
	b := &models.Booking{
		ID:           uuid.New().String(),
		RequesterRef: requesterRef,
		RawQuery:     rawQuery,
		AutoBook:     autoBook,
		Status:       models.StatusPending,
	}

	loc, err := s.Resolver.Resolve(ctx, rawQuery)
	if err != nil {
		// Resolution failures are terminal before fulfillment ever starts;
		// an over-quota booking in particular must never enter the loop.
		s.Logger.Warn("address resolution failed",
			zap.String("bookingID", b.ID), zap.String("query", rawQuery), zap.Error(err))
		b.Status = models.StatusError
		b.FailureDetail = err.Error()
		if createErr := s.Repo.Create(b); createErr != nil {
			return nil, createErr
		}
		return b, nil
	}

	b.ResolvedAddress = loc.FormattedAddress
	b.Latitude = loc.Latitude
	b.Longitude = loc.Longitude

	if err := s.Repo.Create(b); err != nil {
		return nil, err
	}

	if err := s.Queue.Enqueue(b.ID); err != nil {
		// The booking exists but no worker will ever pick it up; surface
		// that in the record rather than leaving it pending forever.
		s.Logger.Error("failed to enqueue fulfillment",
			zap.String("bookingID", b.ID), zap.Error(err))
		detail := fmt.Sprintf("failed to schedule fulfillment: %v", err)
		if updErr := s.Repo.UpdateFields(b.ID, map[string]interface{}{
			"status":         models.StatusError,
			"failure_detail": detail,
		}); updErr != nil {
			s.Logger.Error("failed to mark booking as errored",
				zap.String("bookingID", b.ID), zap.Error(updErr))
		}
		b.Status = models.StatusError
		b.FailureDetail = detail
		return b, nil
	}

	s.Logger.Info("booking created and queued for fulfillment",
		zap.String("bookingID", b.ID),
		zap.String("address", b.ResolvedAddress),
		zap.Bool("autoBook", b.AutoBook))
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.Repo.GetByID(id)
}

func (s *DefaultBookingService) ListBookings(ctx context.Context, requesterRef string) ([]models.Booking, error) {
	return s.Repo.ListByRequester(requesterRef)
}

func (s *DefaultBookingService) CancelBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	// The cancellation is network-API-scoped: it releases the requester's
	// single active rental regardless of which booking it belongs to.
	if err := s.Rental.CancelActiveRental(ctx); err != nil {
		return nil, fmt.Errorf("failed to cancel active rental: %w", err)
	}

	if !b.Terminal() {
		if err := s.Repo.UpdateFields(id, map[string]interface{}{
			"status": models.StatusCancelled,
		}); err != nil {
			return nil, err
		}
		b.Status = models.StatusCancelled
	}

	s.Logger.Info("rental cancelled", zap.String("bookingID", b.ID))
	return b, nil
}
