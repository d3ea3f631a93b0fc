package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

// Notifier is invoked by the HTTP layer after a successful booking or
// cancellation. Implementations must not block the request path and a
// failed notification never affects the booking itself.
type Notifier interface {
	BookingConfirmed(ctx context.Context, appointment *models.Appointment)
	BookingCancelled(ctx context.Context, appointment *models.Appointment)
}

// LogNotifier is the default implementation: it records what an email
// notifier would send. The real mail dispatch lives outside this service.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, appointment *models.Appointment) {
	n.logger.Info("booking confirmation notification",
		zap.String("booking_ref", appointment.BookingRef),
		zap.String("patient_email", appointment.UserData.Email),
		zap.String("doctor_name", appointment.DocData.Name),
		zap.String("slot_date", appointment.SlotDate),
		zap.String("slot_time", appointment.SlotTime))
}

func (n *LogNotifier) BookingCancelled(_ context.Context, appointment *models.Appointment) {
	n.logger.Info("booking cancellation notification",
		zap.String("booking_ref", appointment.BookingRef),
		zap.String("patient_email", appointment.UserData.Email),
		zap.String("doctor_name", appointment.DocData.Name),
		zap.String("slot_date", appointment.SlotDate),
		zap.String("slot_time", appointment.SlotTime))
}
