package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/utils"
)

// Service is the operation surface consumed by the HTTP layer. It
// orchestrates the reservation store and the appointment lifecycle and
// returns domain errors for the handlers to translate.
type Service struct {
	store     Store
	lifecycle *Lifecycle
	refs      *utils.RefGenerator
	logger    *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		lifecycle: NewLifecycle(store, logger),
		refs:      utils.NewRefGenerator(),
		logger:    logger,
	}
}

// Book reserves (dateKey, timeKey) with the doctor and records the
// appointment. The reservation happens first; any failure afterwards
// releases the slot again before the error is returned, so a failed
// booking never leaks a permanently-unavailable slot.
func (s *Service) Book(ctx context.Context, patientID, doctorID, dateKey, timeKey string) (*models.Appointment, error) {
	if !ValidDateKey(dateKey) || !ValidTimeKey(timeKey) {
		return nil, ErrInvalidSlotKey
	}

	doctor, err := s.store.DoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Available {
		return nil, ErrDoctorUnavailable
	}

	amount, payment := priceFor(doctor)

	if err := s.store.ReserveSlot(ctx, doctorID, dateKey, timeKey); err != nil {
		return nil, err
	}

	patient, err := s.store.PatientByID(ctx, patientID)
	if err != nil {
		s.compensateReserve(ctx, doctorID, dateKey, timeKey)
		return nil, err
	}

	appointment, err := s.lifecycle.Create(ctx, doctor.Snapshot(), patient.Snapshot(), dateKey, timeKey, s.refs.Next(), amount, payment)
	if err != nil {
		s.compensateReserve(ctx, doctorID, dateKey, timeKey)
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appointment.ID.Hex()),
		zap.String("booking_ref", appointment.BookingRef),
		zap.String("doctor_id", doctorID),
		zap.String("patient_id", patientID),
		zap.String("slot_date", dateKey),
		zap.String("slot_time", timeKey))

	return appointment, nil
}

// Cancel cancels the appointment on behalf of requester and frees its slot.
func (s *Service) Cancel(ctx context.Context, appointmentID string, requester Actor) (*models.Appointment, error) {
	appointment, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.lifecycle.Cancel(ctx, appointment, requester)
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment cancelled",
		zap.String("appointment_id", cancelled.ID.Hex()),
		zap.String("requester_id", requester.ID),
		zap.String("requester_role", string(requester.Role)))

	return cancelled, nil
}

// Complete marks the appointment completed. The slot stays reserved so
// the historical booking can never be taken again.
func (s *Service) Complete(ctx context.Context, appointmentID, requesterDoctorID string) (*models.Appointment, error) {
	appointment, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	completed, err := s.lifecycle.Complete(ctx, appointment, requesterDoctorID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment completed",
		zap.String("appointment_id", completed.ID.Hex()),
		zap.String("doctor_id", requesterDoctorID))

	return completed, nil
}

// Store exposes the underlying store for read-only listings.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) compensateReserve(ctx context.Context, doctorID, dateKey, timeKey string) {
	if err := s.store.ReleaseSlot(ctx, doctorID, dateKey, timeKey); err != nil {
		s.logger.Error("failed to release slot after aborted booking",
			zap.String("doctor_id", doctorID),
			zap.String("slot_date", dateKey),
			zap.String("slot_time", timeKey),
			zap.Error(err))
	}
}

// priceFor computes the appointment amount and initial payment status.
// Government doctors are free of charge and their bookings count as paid
// immediately, whatever their fees field says.
func priceFor(doctor *models.Doctor) (int, models.PaymentStatus) {
	if doctor.Type == models.DoctorGovernment {
		return 0, models.PaymentComplete
	}
	return doctor.Fees, models.PaymentPending
}
