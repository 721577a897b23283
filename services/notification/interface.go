package notification

import (
	"context"

	"bikebooker/models"
)

// Dispatcher fans out a booking's terminal outcome to the real-time channel
// and the email notifier. Dispatch is best-effort: channel failures are logged
// and never surface to the caller, so a finished booking can never be turned
// into an error by its own notification.
type Dispatcher interface {
	Notify(ctx context.Context, booking *models.Booking)
}

// Mailer sends a short human-readable summary to a recipient address.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
