package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/audit"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/booking"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/cache"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/notify"
)

// BookingHandler exposes the book/cancel/complete operations and the
// appointment listings to the portal frontends.
type BookingHandler struct {
	service  *booking.Service
	cache    *cache.Cache
	audit    *audit.Recorder
	notifier notify.Notifier
	logger   *zap.Logger
	validate *validator.Validate
}

type bookAppointmentRequest struct {
	DocID    string `json:"docId" validate:"required"`
	SlotDate string `json:"slotDate" validate:"required,slotdate"`
	SlotTime string `json:"slotTime" validate:"required,slottime"`
}

type cancelAppointmentRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required,len=24,hexadecimal"`
}

type completeAppointmentRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required,len=24,hexadecimal"`
}

func NewBookingHandler(service *booking.Service, cacheClient *cache.Cache, recorder *audit.Recorder, notifier notify.Notifier, logger *zap.Logger) *BookingHandler {
	validate := validator.New()
	validate.RegisterValidation("slotdate", func(fl validator.FieldLevel) bool {
		return booking.ValidDateKey(fl.Field().String())
	})
	validate.RegisterValidation("slottime", func(fl validator.FieldLevel) bool {
		return booking.ValidTimeKey(fl.Field().String())
	})
	return &BookingHandler{
		service:  service,
		cache:    cacheClient,
		audit:    recorder,
		notifier: notifier,
		logger:   logger,
		validate: validate,
	}
}

func (h *BookingHandler) actorID(c *fiber.Ctx) (string, error) {
	actorID, ok := c.Locals("userID").(string)
	if !ok || actorID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return actorID, nil
}

// BookAppointment handles POST /api/user/book-appointment.
func (h *BookingHandler) BookAppointment(c *fiber.Ctx) error {
	patientID, err := h.actorID(c)
	if err != nil {
		h.logger.Error("userID not found in context", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(Envelope{Success: false, Message: "Authentication required"})
	}

	var req bookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("failed to parse booking request", zap.Error(err))
		return respondFail(c, "Invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		h.logger.Warn("invalid booking request",
			zap.String("doc_id", req.DocID),
			zap.String("slot_date", req.SlotDate),
			zap.String("slot_time", req.SlotTime),
			zap.Error(err))
		return respondFail(c, "Invalid booking request: check docId, slotDate (DD_MM_YYYY) and slotTime (HH:MM)")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	appointment, err := h.service.Book(ctx, patientID, req.DocID, req.SlotDate, req.SlotTime)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.invalidateSlotListing(req.DocID, req.SlotDate)
	h.recordEvent(appointment, patientID, audit.ActionBooked)
	if h.notifier != nil {
		go h.notifier.BookingConfirmed(context.Background(), appointment)
	}

	return respondOK(c, "Appointment booked", appointment)
}

// CancelAppointment returns the cancellation handler for one portal.
// Patients cancel their own appointments; the doctor and admin portals
// carry wider capabilities, enforced by the lifecycle.
func (h *BookingHandler) CancelAppointment(role booking.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := h.actorID(c)
		if err != nil {
			h.logger.Error("userID not found in context", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(Envelope{Success: false, Message: "Authentication required"})
		}

		var req cancelAppointmentRequest
		if err := c.BodyParser(&req); err != nil {
			h.logger.Warn("failed to parse cancel request", zap.Error(err))
			return respondFail(c, "Invalid request payload")
		}
		if err := h.validate.Struct(req); err != nil {
			return respondFail(c, "Invalid appointment ID")
		}

		ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
		defer cancel()

		appointment, err := h.service.Cancel(ctx, req.AppointmentID, booking.Actor{ID: actorID, Role: role})
		if err != nil {
			return respondError(c, h.logger, err)
		}

		h.invalidateSlotListing(appointment.DoctorID, appointment.SlotDate)
		h.recordEvent(appointment, actorID, audit.ActionCancelled)
		if h.notifier != nil {
			go h.notifier.BookingCancelled(context.Background(), appointment)
		}

		return respondOK(c, "Appointment cancelled", appointment)
	}
}

// CompleteAppointment handles POST /api/doctor/complete-appointment.
func (h *BookingHandler) CompleteAppointment(c *fiber.Ctx) error {
	doctorID, err := h.actorID(c)
	if err != nil {
		h.logger.Error("userID not found in context", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(Envelope{Success: false, Message: "Authentication required"})
	}

	var req completeAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("failed to parse complete request", zap.Error(err))
		return respondFail(c, "Invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondFail(c, "Invalid appointment ID")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	appointment, err := h.service.Complete(ctx, req.AppointmentID, doctorID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.recordEvent(appointment, doctorID, audit.ActionCompleted)

	return respondOK(c, "Appointment completed", appointment)
}

// ListOwnAppointments returns the listing handler for the user or doctor
// portal: the caller only ever sees their own appointments.
func (h *BookingHandler) ListOwnAppointments(role booking.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := h.actorID(c)
		if err != nil {
			h.logger.Error("userID not found in context", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(Envelope{Success: false, Message: "Authentication required"})
		}

		filter := parseListQuery(c)
		switch role {
		case booking.RoleDoctor:
			filter.DoctorID = actorID
		default:
			filter.PatientID = actorID
		}

		return h.listAppointments(c, filter)
	}
}

// AdminListAppointments handles GET /api/admin/appointments with
// doctor/patient/status filters.
func (h *BookingHandler) AdminListAppointments(c *fiber.Ctx) error {
	filter := parseListQuery(c)
	filter.DoctorID = c.Query("doctor_id")
	filter.PatientID = c.Query("patient_id")
	return h.listAppointments(c, filter)
}

func (h *BookingHandler) listAppointments(c *fiber.Ctx, filter booking.AppointmentFilter) error {
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	appointments, total, err := h.service.Store().Appointments(ctx, filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}

	return respondOK(c, "Appointments retrieved", fiber.Map{
		"appointments": appointments,
		"pagination": fiber.Map{
			"total":  total,
			"limit":  filter.Limit,
			"offset": filter.Offset,
		},
	})
}

// parseListQuery reads the shared pagination/sort/status query params
// and applies defaults for anything missing or out of range.
func parseListQuery(c *fiber.Ctx) booking.AppointmentFilter {
	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	offset, err := strconv.ParseInt(c.Query("offset", "0"), 10, 64)
	if err != nil || offset < 0 {
		offset = 0
	}

	sortBy := c.Query("sort_by", "created_at")
	switch sortBy {
	case "created_at", "slotDate", "slotTime", "amount":
	default:
		sortBy = "created_at"
	}

	var status booking.Status
	switch booking.Status(c.Query("status")) {
	case booking.StatusBooked, booking.StatusCancelled, booking.StatusCompleted:
		status = booking.Status(c.Query("status"))
	}

	return booking.AppointmentFilter{
		Status:   status,
		Limit:    limit,
		Offset:   offset,
		SortBy:   sortBy,
		SortDesc: c.Query("sort_order", "desc") != "asc",
	}
}

// recordEvent appends to the audit trail without blocking the request;
// audit failures are logged and never surfaced to the caller.
func (h *BookingHandler) recordEvent(appointment *models.Appointment, actorID string, action audit.Action) {
	if h.audit == nil {
		return
	}
	event := audit.Event{
		AppointmentID: appointment.ID.Hex(),
		BookingRef:    appointment.BookingRef,
		DoctorID:      appointment.DoctorID,
		PatientID:     appointment.PatientID,
		ActorID:       actorID,
		Action:        action,
		SlotDate:      appointment.SlotDate,
		SlotTime:      appointment.SlotTime,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.audit.Record(ctx, event); err != nil {
			h.logger.Error("failed to record booking event",
				zap.String("appointment_id", event.AppointmentID),
				zap.String("action", string(action)),
				zap.Error(err))
		}
	}()
}

func (h *BookingHandler) invalidateSlotListing(doctorID, dateKey string) {
	if h.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.cache.Delete(ctx, cache.SlotsKey(doctorID, dateKey)); err != nil {
		h.logger.Warn("failed to invalidate slot cache",
			zap.String("doctor_id", doctorID),
			zap.String("slot_date", dateKey),
			zap.Error(err))
	}
}
