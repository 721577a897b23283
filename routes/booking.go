package routes

import (
	"bikebooker/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler, eh *handlers.EventsHandler) {
	api := r.Group("/api/bookings")
	{
		api.POST("", h.CreateBooking)
		api.GET("", h.ListBookings)
		api.GET("/:id", h.GetBooking)
		api.GET("/:id/events", eh.StreamBookingEvents)
		api.DELETE("/:id/rental", h.CancelBooking)
	}
}
