package handlers

import (
	"net/http"

	"bikebooker/models"
	"bikebooker/services/booking"
	"bikebooker/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(service booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: service, Logger: logger}
}

// CreateBookingRequest is the inbound payload for a new booking.
type CreateBookingRequest struct {
	RequesterRef string `json:"requester_ref" binding:"required,email"`
	Address      string `json:"address" binding:"required"`
	AutoBook     bool   `json:"auto_book"`
}

// CreateBooking resolves the address, persists the booking and schedules
// fulfillment. It responds as soon as the record exists; the caller follows
// progress through the events endpoint or by polling.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input CreateBookingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), input.RequesterRef, input.Address, input.AutoBook)
	if err != nil {
		h.Logger.Error("failed to create booking", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to create booking", err.Error())
		return
	}

	// A booking whose address could not be resolved is persisted in error
	// status and never fulfilled; tell the caller right away.
	if b.Status != models.StatusPending {
		c.JSON(http.StatusUnprocessableEntity, b)
		return
	}
	c.JSON(http.StatusAccepted, b)
}

// GetBooking returns one booking by ID.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookings returns all bookings for a requester, newest first.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	requester := c.Query("requester")
	if requester == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing required query parameter: requester", "")
		return
	}

	bookings, err := h.Service.ListBookings(c.Request.Context(), requester)
	if err != nil {
		h.Logger.Error("failed to list bookings", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list bookings", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CancelBooking cancels the requester's active rental and marks the booking
// cancelled when it has not already finished.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	b, err := h.Service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Logger.Error("failed to cancel booking", zap.String("bookingID", c.Param("id")), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "failed to cancel rental", err.Error())
		return
	}
	c.JSON(http.StatusOK, b)
}
