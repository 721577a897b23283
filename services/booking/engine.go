package booking

import (
	"context"
	"strconv"
	"time"

	bookingRepo "bikebooker/database/repository/booking"
	"bikebooker/models"
	"bikebooker/services/notification"
	"bikebooker/services/rental"

	"go.uber.org/zap"
)

// EngineConfig holds the fulfillment loop tunables.
type EngineConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	Selection   SelectionCriteria
}

// FulfillmentEngine drives a booking from pending to a terminal status. It is
// the only writer of a booking's mutable fields once fulfillment starts; each
// transition is persisted as one atomic update and the notification dispatcher
// is invoked exactly once per terminal outcome.
type FulfillmentEngine struct {
	Repo       bookingRepo.BookingRepository
	Rental     rental.Client
	Dispatcher notification.Dispatcher
	Config     EngineConfig
	Logger     *zap.Logger
}

// Fulfill runs the bounded search-and-reserve loop for one booking. A booking
// that is no longer pending (already fulfilled, or cancelled while queued) is
// skipped. The returned error is non-nil only when the booking could not be
// loaded; every outcome of the loop itself is terminal and reported through
// the booking record and the dispatcher, not the error return.
func (e *FulfillmentEngine) Fulfill(ctx context.Context, bookingID string) error {
	b, err := e.Repo.GetByID(bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.StatusPending {
		e.Logger.Info("skipping fulfillment for non-pending booking",
			zap.String("bookingID", b.ID), zap.String("status", b.Status))
		return nil
	}
	if b.ResolvedAddress == "" {
		e.finish(ctx, b, models.StatusError, map[string]interface{}{
			"failure_detail": "booking has no resolved coordinates",
		})
		return nil
	}

	maxAttempts := e.Config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	e.Logger.Info("searching bikes",
		zap.String("bookingID", b.ID),
		zap.String("address", b.ResolvedAddress),
		zap.Int("maxAttempts", maxAttempts))

	failedOnce := false
	for attempt := 1; attempt <= maxAttempts; {
		candidates, err := e.Rental.ListNearby(ctx, b.Latitude, b.Longitude)
		if err != nil {
			// A failure caused by our own context being cancelled is not an
			// upstream outage: leave the booking pending for re-delivery.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if failedOnce {
				e.Logger.Error("bike search failed twice in a row, giving up",
					zap.String("bookingID", b.ID), zap.Error(err))
				e.finish(ctx, b, models.StatusError, map[string]interface{}{
					"failure_detail": err.Error(),
				})
				return nil
			}
			// One immediate retry; an I/O failure does not consume an attempt.
			e.Logger.Warn("bike search failed, retrying immediately",
				zap.String("bookingID", b.ID), zap.Error(err))
			failedOnce = true
			continue
		}
		failedOnce = false

		if best := SelectBest(candidates, e.Config.Selection); best != nil {
			e.Logger.Info("found qualifying bike",
				zap.String("bookingID", b.ID),
				zap.String("bike", best.Label),
				zap.Float64("distance", best.DistanceMeters))
			e.completeMatch(ctx, b, best)
			return nil
		}

		if attempt >= maxAttempts {
			e.Logger.Warn("no bikes found after final attempt",
				zap.String("bookingID", b.ID), zap.Int("attempts", attempt))
			e.finish(ctx, b, models.StatusNotFound, nil)
			return nil
		}

		e.Logger.Debug("no qualifying bikes yet, backing off",
			zap.String("bookingID", b.ID), zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.Config.Backoff):
		}

		// Pick up an external cancellation before the next attempt. The
		// cancellation path already wrote the terminal status, so stop
		// without dispatching a second outcome.
		if current, err := e.Repo.GetByID(b.ID); err == nil && current.Status != models.StatusPending {
			e.Logger.Info("booking left pending during backoff, stopping",
				zap.String("bookingID", b.ID), zap.String("status", current.Status))
			return nil
		}
		attempt++
	}
	return nil
}

// completeMatch records the match, optionally reserves the bike, and finishes
// the booking. A failed reservation ends in error status but the matched bike
// fields are kept for diagnostics.
func (e *FulfillmentEngine) completeMatch(ctx context.Context, b *models.Booking, bike *models.BikeCandidate) {
	matchFields := map[string]interface{}{
		"matched_bike_id":      strconv.Itoa(bike.ID),
		"matched_bike_address": bike.Address,
		"matched_bike_label":   bike.Label,
	}
	b.MatchedBikeID = strconv.Itoa(bike.ID)
	b.MatchedBikeAddress = bike.Address
	b.MatchedBikeLabel = bike.Label

	if !b.AutoBook {
		e.finish(ctx, b, models.StatusMatched, matchFields)
		return
	}

	e.transition(b, models.StatusMatched, matchFields)

	if err := e.Rental.Reserve(ctx, bike.ID); err != nil {
		resErr := &ReservationError{BikeID: bike.ID, Err: err}
		e.Logger.Error("reservation failed after match",
			zap.String("bookingID", b.ID), zap.Error(resErr))
		e.finish(ctx, b, models.StatusError, map[string]interface{}{
			"failure_detail": resErr.Error(),
		})
		return
	}

	e.Logger.Info("successfully booked bike",
		zap.String("bookingID", b.ID), zap.String("bike", bike.Label))
	e.finish(ctx, b, models.StatusBooked, nil)
}

// finish performs the terminal transition and dispatches the outcome once.
func (e *FulfillmentEngine) finish(ctx context.Context, b *models.Booking, status string, fields map[string]interface{}) {
	e.transition(b, status, fields)
	e.Dispatcher.Notify(ctx, b)
}

// transition persists a status change together with its associated fields as
// one atomic record update and mirrors it onto the in-memory snapshot.
func (e *FulfillmentEngine) transition(b *models.Booking, status string, fields map[string]interface{}) {
	update := map[string]interface{}{"status": status}
	for k, v := range fields {
		update[k] = v
	}
	if err := e.Repo.UpdateFields(b.ID, update); err != nil {
		e.Logger.Error("failed to persist booking transition",
			zap.String("bookingID", b.ID),
			zap.String("status", status),
			zap.Error(err))
	}
	b.Status = status
	if detail, ok := fields["failure_detail"].(string); ok {
		b.FailureDetail = detail
	}
	b.UpdatedAt = time.Now()
}
