package handlers

import (
	"io"
	"time"

	"bikebooker/services/notification"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventsHandler relays booking outcome events to the presentation layer as
// server-sent events.
type EventsHandler struct {
	Events *redis.Client
	Logger *zap.Logger
}

func NewEventsHandler(events *redis.Client, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{Events: events, Logger: logger}
}

// StreamBookingEvents subscribes to the booking's event channel and streams
// every published outcome until the client disconnects. Heartbeats keep
// intermediaries from closing the idle connection during long searches.
func (h *EventsHandler) StreamBookingEvents(c *gin.Context) {
	bookingID := c.Param("id")
	ctx := c.Request.Context()

	sub := h.Events.Subscribe(ctx, notification.EventChannelPrefix+bookingID)
	defer sub.Close()
	events := sub.Channel()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("booking", msg.Payload)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
}
