package booking

import "github.com/pkg/errors"

// Domain conditions surfaced to callers. All of these are expected,
// user-facing outcomes rather than defects; handlers translate them into
// the response envelope and they are never retried automatically.
var (
	ErrSlotUnavailable     = errors.New("slot not available")
	ErrDoctorUnavailable   = errors.New("doctor not accepting appointments")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrUnauthorized        = errors.New("not authorized to modify this appointment")
	ErrInvalidTransition   = errors.New("appointment is already cancelled or completed")
	ErrInvalidSlotKey      = errors.New("malformed slot date or time")
)
