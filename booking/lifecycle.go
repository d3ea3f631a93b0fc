package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

// Status is the appointment state. The persisted document still carries
// the legacy cancelled/isCompleted boolean pair; StatusOf folds them into
// this tagged form so illegal combinations cannot leak into domain code.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// StatusOf derives the state of a persisted appointment. A document with
// both flags set (unreachable through this package) reads as cancelled,
// the safe interpretation for a record whose slot was already released.
func StatusOf(a *models.Appointment) Status {
	switch {
	case a.Cancelled:
		return StatusCancelled
	case a.IsCompleted:
		return StatusCompleted
	default:
		return StatusBooked
	}
}

// CanTransition reports whether from -> to is a legal state change.
// Cancelled and Completed are terminal.
func CanTransition(from, to Status) bool {
	return from == StatusBooked && (to == StatusCancelled || to == StatusCompleted)
}

// Role of the actor driving a lifecycle transition.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Actor identifies who is asking for a transition.
type Actor struct {
	ID   string
	Role Role
}

// Lifecycle owns appointment state transitions. It persists the state
// flip through the store's conditional update so that racing cancel and
// complete calls produce exactly one winner, and it releases the slot
// after a successful cancellation.
type Lifecycle struct {
	store  Store
	logger *zap.Logger
}

func NewLifecycle(store Store, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{store: store, logger: logger}
}

// Create persists a freshly booked appointment. Callers must have
// reserved the slot first; a crash between reserve and create leaves an
// orphaned reservation, never a double booking.
func (l *Lifecycle) Create(ctx context.Context, doc models.DoctorSnapshot, patient models.PatientSnapshot, dateKey, timeKey, bookingRef string, amount int, payment models.PaymentStatus) (*models.Appointment, error) {
	appointment := &models.Appointment{
		BookingRef: bookingRef,
		PatientID:  patient.PatientID,
		DoctorID:   doc.DoctorID,
		SlotDate:   dateKey,
		SlotTime:   timeKey,
		UserData:   patient,
		DocData:    doc,
		Amount:     amount,
		Payment:    payment,
	}
	return l.store.InsertAppointment(ctx, appointment)
}

// Cancel transitions Booked -> Cancelled and releases the slot. Patients
// may cancel their own appointments; the appointment's doctor and admins
// may cancel any. The release happens after the state flip and is not
// part of one transaction: a late release only causes a transient false
// "unavailable", never a double booking.
func (l *Lifecycle) Cancel(ctx context.Context, appointment *models.Appointment, requester Actor) (*models.Appointment, error) {
	if err := authorizeCancel(appointment, requester); err != nil {
		return nil, err
	}

	updated, err := l.store.TransitionAppointment(ctx, appointment.ID.Hex(), StatusBooked, StatusCancelled)
	if err != nil {
		return nil, err
	}

	if err := l.store.ReleaseSlot(ctx, updated.DoctorID, updated.SlotDate, updated.SlotTime); err != nil {
		// The appointment is cancelled either way; an unreleased slot is
		// reconciled out-of-band.
		l.logger.Error("failed to release slot after cancellation",
			zap.String("appointment_id", updated.ID.Hex()),
			zap.String("doctor_id", updated.DoctorID),
			zap.String("slot_date", updated.SlotDate),
			zap.String("slot_time", updated.SlotTime),
			zap.Error(err))
	}

	return updated, nil
}

// Complete transitions Booked -> Completed. Only the appointment's doctor
// may complete it. The slot map is left untouched so a completed slot
// stays historically reserved.
func (l *Lifecycle) Complete(ctx context.Context, appointment *models.Appointment, requesterDoctorID string) (*models.Appointment, error) {
	if requesterDoctorID != appointment.DoctorID {
		return nil, ErrUnauthorized
	}
	return l.store.TransitionAppointment(ctx, appointment.ID.Hex(), StatusBooked, StatusCompleted)
}

func authorizeCancel(appointment *models.Appointment, requester Actor) error {
	switch requester.Role {
	case RoleAdmin:
		return nil
	case RoleDoctor:
		if requester.ID == appointment.DoctorID {
			return nil
		}
	case RolePatient:
		if requester.ID == appointment.PatientID {
			return nil
		}
	}
	return ErrUnauthorized
}
