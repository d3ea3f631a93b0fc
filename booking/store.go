package booking

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Status    Status
	Limit     int64
	Offset    int64
	SortBy    string
	SortDesc  bool
}

// Store is the persistence boundary of the booking core. ReserveSlot and
// ReleaseSlot are the only durable mutators of a doctor's slot map, and
// ReserveSlot must be atomic across concurrent callers: of two racing
// reservations for the same (doctor, date, time), exactly one succeeds.
type Store interface {
	DoctorByID(ctx context.Context, doctorID string) (*models.Doctor, error)
	PatientByID(ctx context.Context, patientID string) (*models.Patient, error)
	Doctors(ctx context.Context) ([]models.Doctor, error)

	ReserveSlot(ctx context.Context, doctorID, dateKey, timeKey string) error
	ReleaseSlot(ctx context.Context, doctorID, dateKey, timeKey string) error

	InsertAppointment(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error)
	AppointmentByID(ctx context.Context, appointmentID string) (*models.Appointment, error)
	Appointments(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, int64, error)

	// TransitionAppointment flips the appointment state with a conditional
	// update keyed on the current state, so concurrent transitions on the
	// same appointment resolve to exactly one winner.
	TransitionAppointment(ctx context.Context, appointmentID string, from, to Status) (*models.Appointment, error)
}

// MongoStore is the MongoDB-backed Store. Slot reservation is a single
// conditional UpdateOne whose filter requires the slot to be absent at
// write time, which is what makes reserve-or-fail atomic without any
// application-level locking.
type MongoStore struct {
	doctors      *mongo.Collection
	patients     *mongo.Collection
	appointments *mongo.Collection
	logger       *zap.Logger
}

func NewMongoStore(client *mongo.Client, dbName string, logger *zap.Logger) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		doctors:      db.Collection("doctors"),
		patients:     db.Collection("patients"),
		appointments: db.Collection("appointments"),
		logger:       logger,
	}
}

func slotsField(dateKey string) string {
	return "slots_booked." + dateKey
}

func (s *MongoStore) DoctorByID(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.doctors.FindOne(ctx, bson.M{"_id": doctorID}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDoctorNotFound
		}
		return nil, errors.Wrap(err, "failed to fetch doctor")
	}
	return &doctor, nil
}

func (s *MongoStore) PatientByID(ctx context.Context, patientID string) (*models.Patient, error) {
	var patient models.Patient
	err := s.patients.FindOne(ctx, bson.M{"_id": patientID}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatientNotFound
		}
		return nil, errors.Wrap(err, "failed to fetch patient")
	}
	return &patient, nil
}

func (s *MongoStore) Doctors(ctx context.Context) ([]models.Doctor, error) {
	cursor, err := s.doctors.Find(ctx, bson.M{"available": true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query doctors")
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, errors.Wrap(err, "failed to decode doctors")
	}
	return doctors, nil
}

// ReserveSlot books (dateKey, timeKey) for the doctor in one conditional
// write: the update only matches when the doctor is available and the
// time key is not yet present under the date key. With MongoDB's
// single-document atomicity, two concurrent reservations for the same
// slot can never both match.
func (s *MongoStore) ReserveSlot(ctx context.Context, doctorID, dateKey, timeKey string) error {
	if !ValidDateKey(dateKey) || !ValidTimeKey(timeKey) {
		return ErrInvalidSlotKey
	}

	field := slotsField(dateKey)
	result, err := s.doctors.UpdateOne(ctx,
		bson.M{
			"_id":       doctorID,
			"available": true,
			field:       bson.M{"$ne": timeKey},
		},
		bson.M{"$push": bson.M{field: timeKey}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to reserve slot")
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// The guarded update matched nothing; look at the doctor once to tell
	// the caller which precondition failed.
	doctor, err := s.DoctorByID(ctx, doctorID)
	if err != nil {
		return err
	}
	if !doctor.Available {
		return ErrDoctorUnavailable
	}
	return ErrSlotUnavailable
}

// ReleaseSlot frees (dateKey, timeKey). Pulling a time key that is not
// reserved matches the doctor but modifies nothing, which keeps release
// idempotent under racing cancellations and retries.
func (s *MongoStore) ReleaseSlot(ctx context.Context, doctorID, dateKey, timeKey string) error {
	result, err := s.doctors.UpdateOne(ctx,
		bson.M{"_id": doctorID},
		bson.M{"$pull": bson.M{slotsField(dateKey): timeKey}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to release slot")
	}
	if result.MatchedCount == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (s *MongoStore) InsertAppointment(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error) {
	appointment.CreatedAt = time.Now()
	result, err := s.appointments.InsertOne(ctx, appointment)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert appointment")
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		appointment.ID = id
	}
	return appointment, nil
}

func (s *MongoStore) AppointmentByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	objectID, err := bson.ObjectIDFromHex(appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	var appointment models.Appointment
	err = s.appointments.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAppointmentNotFound
		}
		return nil, errors.Wrap(err, "failed to fetch appointment")
	}
	return &appointment, nil
}

func (s *MongoStore) Appointments(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, int64, error) {
	query := bson.M{}
	if filter.PatientID != "" {
		query["userId"] = filter.PatientID
	}
	if filter.DoctorID != "" {
		query["docId"] = filter.DoctorID
	}
	switch filter.Status {
	case StatusBooked:
		query["cancelled"] = false
		query["isCompleted"] = false
	case StatusCancelled:
		query["cancelled"] = true
	case StatusCompleted:
		query["isCompleted"] = true
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortDirection := 1
	if filter.SortDesc {
		sortDirection = -1
	}

	findOptions := options.Find()
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		findOptions.SetSkip(filter.Offset)
	}
	findOptions.SetSort(bson.D{{Key: sortBy, Value: sortDirection}})

	cursor, err := s.appointments.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query appointments")
	}
	defer cursor.Close(ctx)

	var appointments []models.Appointment
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, 0, errors.Wrap(err, "failed to decode appointments")
	}

	total, err := s.appointments.CountDocuments(ctx, query)
	if err != nil {
		s.logger.Error("failed to count appointments", zap.Error(err))
		total = int64(len(appointments))
	}

	return appointments, total, nil
}

func (s *MongoStore) TransitionAppointment(ctx context.Context, appointmentID string, from, to Status) (*models.Appointment, error) {
	if !CanTransition(from, to) {
		return nil, ErrInvalidTransition
	}
	objectID, err := bson.ObjectIDFromHex(appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	// The filter pins the current state; of two racing transitions only
	// one can match the still-Booked document.
	query := bson.M{
		"_id":         objectID,
		"cancelled":   false,
		"isCompleted": false,
	}
	set := bson.M{"updated_at": time.Now()}
	switch to {
	case StatusCancelled:
		set["cancelled"] = true
	case StatusCompleted:
		set["isCompleted"] = true
	}

	var updated models.Appointment
	err = s.appointments.FindOneAndUpdate(ctx, query, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "failed to update appointment state")
	}

	// No still-Booked document matched: either it never existed or it has
	// already reached a terminal state.
	if _, err := s.AppointmentByID(ctx, appointmentID); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}
