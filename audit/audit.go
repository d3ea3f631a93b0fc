package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Action recorded in the booking event log.
type Action string

const (
	ActionBooked    Action = "booked"
	ActionCancelled Action = "cancelled"
	ActionCompleted Action = "completed"
)

// Event is one row of the booking audit trail. The trail is append-only
// and lives in Postgres next to the rest of the relational reporting
// data; the booking documents themselves stay in MongoDB.
type Event struct {
	EventID       uuid.UUID
	AppointmentID string
	BookingRef    string
	DoctorID      string
	PatientID     string
	ActorID       string
	Action        Action
	SlotDate      string
	SlotTime      string
	CreatedAt     time.Time
}

// Recorder appends booking events. Handlers call it fire-and-forget: a
// failed audit write never rolls back the booking it describes.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewRecorder(pool *pgxpool.Pool, logger *zap.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// EnsureSchema creates the event table when missing.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS booking_events (
			event_id       UUID PRIMARY KEY,
			appointment_id TEXT NOT NULL,
			booking_ref    TEXT NOT NULL,
			doctor_id      TEXT NOT NULL,
			patient_id     TEXT NOT NULL,
			actor_id       TEXT NOT NULL,
			action         TEXT NOT NULL,
			slot_date      TEXT NOT NULL,
			slot_time      TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return errors.Wrap(err, "failed to create booking_events table")
}

// Record appends one event.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events
			(event_id, appointment_id, booking_ref, doctor_id, patient_id, actor_id, action, slot_date, slot_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, event.EventID, event.AppointmentID, event.BookingRef, event.DoctorID,
		event.PatientID, event.ActorID, string(event.Action), event.SlotDate,
		event.SlotTime, event.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert booking event")
	}

	r.logger.Debug("booking event recorded",
		zap.String("event_id", event.EventID.String()),
		zap.String("appointment_id", event.AppointmentID),
		zap.String("action", string(event.Action)))
	return nil
}
