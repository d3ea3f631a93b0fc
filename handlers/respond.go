package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/booking"
)

// Envelope is the response shape the portal frontends expect. Domain
// outcomes always travel as HTTP 200 with the success flag; status codes
// are reserved for transport-level failures (auth, panics).
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Envelope{Success: true, Message: message, Data: data})
}

func respondFail(c *fiber.Ctx, message string) error {
	return c.JSON(Envelope{Success: false, Message: message})
}

// domainMessage maps a booking error to its user-facing message. The
// second return is false for unexpected (infrastructure) errors.
func domainMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, booking.ErrSlotUnavailable):
		return "Slot not available, choose another time", true
	case errors.Is(err, booking.ErrDoctorUnavailable):
		return "Doctor not accepting appointments", true
	case errors.Is(err, booking.ErrDoctorNotFound):
		return "Doctor not found", true
	case errors.Is(err, booking.ErrPatientNotFound):
		return "Patient not found", true
	case errors.Is(err, booking.ErrAppointmentNotFound):
		return "Appointment not found", true
	case errors.Is(err, booking.ErrUnauthorized):
		return "Not authorized to modify this appointment", true
	case errors.Is(err, booking.ErrInvalidTransition):
		return "Appointment is already cancelled or completed", true
	case errors.Is(err, booking.ErrInvalidSlotKey):
		return "Invalid slot date or time format", true
	default:
		return "", false
	}
}

func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if message, ok := domainMessage(err); ok {
		return respondFail(c, message)
	}
	logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err))
	return respondFail(c, "Something went wrong, please try again")
}
