package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/booking"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/cache"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/config"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

// DoctorHandler serves the public doctor directory and per-date free
// slot listings the booking UI renders.
type DoctorHandler struct {
	config *config.Config
	store  booking.Store
	cache  *cache.Cache
	logger *zap.Logger
}

func NewDoctorHandler(cfg *config.Config, store booking.Store, cacheClient *cache.Cache, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		config: cfg,
		store:  store,
		cache:  cacheClient,
		logger: logger,
	}
}

// ListDoctors handles GET /api/doctors.
func (h *DoctorHandler) ListDoctors(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var doctors []models.Doctor
	if h.cache != nil {
		if err := h.cache.Get(ctx, cache.DoctorsKey(), &doctors); err == nil {
			return respondOK(c, "Doctors retrieved", fiber.Map{"doctors": doctors})
		} else if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("doctors cache read failed", zap.Error(err))
		}
	}

	doctors, err := h.store.Doctors(ctx)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cache.DoctorsKey(), doctors, cache.DoctorsTTL); err != nil {
			h.logger.Warn("doctors cache write failed", zap.Error(err))
		}
	}

	return respondOK(c, "Doctors retrieved", fiber.Map{"doctors": doctors})
}

// DoctorSlots handles GET /api/doctors/:id/slots?date=DD_MM_YYYY. It
// derives the free time keys for the date from the clinic booking window
// minus the doctor's reserved slots.
func (h *DoctorHandler) DoctorSlots(c *fiber.Ctx) error {
	doctorID := c.Params("id")
	if doctorID == "" {
		return respondFail(c, "Doctor ID is required")
	}

	dateKey := c.Query("date")
	if !booking.ValidDateKey(dateKey) {
		return respondFail(c, "Invalid or missing date, expected DD_MM_YYYY")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	slotsKey := cache.SlotsKey(doctorID, dateKey)
	var free []string
	if h.cache != nil {
		if err := h.cache.Get(ctx, slotsKey, &free); err == nil {
			return respondOK(c, "Slots retrieved", fiber.Map{"date": dateKey, "slots": free})
		} else if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("slots cache read failed", zap.Error(err))
		}
	}

	doctor, err := h.store.DoctorByID(ctx, doctorID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !doctor.Available {
		return respondFail(c, "Doctor not accepting appointments")
	}

	grid, err := booking.Grid(h.config.WorkdayStart, h.config.WorkdayEnd, h.config.SlotMinutes)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	free = booking.SlotMap(doctor.SlotsBooked).FreeWithin(dateKey, grid)

	if h.cache != nil {
		if err := h.cache.Set(ctx, slotsKey, free, cache.SlotsTTL); err != nil {
			h.logger.Warn("slots cache write failed", zap.Error(err))
		}
	}

	return respondOK(c, "Slots retrieved", fiber.Map{"date": dateKey, "slots": free})
}
