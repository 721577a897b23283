package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"bikebooker/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventChannelPrefix is the pub/sub channel prefix for per-booking events.
// The firehose channel EventChannelAll carries every outcome.
const (
	EventChannelPrefix = "bookings:events:"
	EventChannelAll    = "bookings:events"
)

// eventPublisher is the slice of the Redis client the dispatcher uses.
type eventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// DefaultDispatcher publishes booking events over Redis pub/sub and emails the
// requester. Absence of a subscriber on the event channel is not an error.
type DefaultDispatcher struct {
	Events eventPublisher
	Mailer Mailer
	Logger *zap.Logger
}

func NewDefaultDispatcher(events *redis.Client, mailer Mailer, logger *zap.Logger) *DefaultDispatcher {
	return &DefaultDispatcher{Events: events, Mailer: mailer, Logger: logger}
}

func (d *DefaultDispatcher) Notify(ctx context.Context, booking *models.Booking) {
	d.publishEvent(ctx, booking)
	d.sendEmail(ctx, booking)
}

func (d *DefaultDispatcher) publishEvent(ctx context.Context, booking *models.Booking) {
	event := models.NewBookingEvent(booking)
	payload, err := json.Marshal(event)
	if err != nil {
		d.Logger.Error("failed to marshal booking event",
			zap.String("bookingID", booking.ID), zap.Error(err))
		return
	}

	for _, channel := range []string{EventChannelPrefix + booking.ID, EventChannelAll} {
		if err := d.Events.Publish(ctx, channel, payload).Err(); err != nil {
			d.Logger.Error("failed to publish booking event",
				zap.String("bookingID", booking.ID),
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
}

func (d *DefaultDispatcher) sendEmail(ctx context.Context, booking *models.Booking) {
	recipient := booking.RequesterRef
	if recipient == "" {
		d.Logger.Warn("booking has no requester address, skipping email",
			zap.String("bookingID", booking.ID))
		return
	}

	if err := d.Mailer.Send(ctx, recipient, "Your bike booking update", Summarize(booking)); err != nil {
		d.Logger.Error("failed to send booking email",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}
}

// Summarize renders the one-line outcome summary sent to the requester.
func Summarize(b *models.Booking) string {
	switch b.Status {
	case models.StatusBooked:
		return fmt.Sprintf("Bike %s at %s is booked and waiting for you.", b.MatchedBikeLabel, b.MatchedBikeAddress)
	case models.StatusMatched:
		return fmt.Sprintf("Found bike %s at %s; auto-booking was off, so grab it yourself.", b.MatchedBikeLabel, b.MatchedBikeAddress)
	case models.StatusNotFound, models.StatusTimeout:
		return fmt.Sprintf("No bikes matched your criteria near %s.", b.ResolvedAddress)
	case models.StatusCancelled:
		return "Your booking was cancelled."
	default:
		return fmt.Sprintf("Your booking could not be completed (status: %s).", b.Status)
	}
}
