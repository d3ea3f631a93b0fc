package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

// MemStore is an in-memory Store with the same reserve-or-fail and
// conditional-transition semantics as MongoStore, guarded by a single
// mutex instead of storage-layer conditional updates. It backs the test
// suite and local development without a database.
type MemStore struct {
	mu           sync.Mutex
	doctors      map[string]*models.Doctor
	patients     map[string]*models.Patient
	appointments map[string]*models.Appointment
}

func NewMemStore() *MemStore {
	return &MemStore{
		doctors:      make(map[string]*models.Doctor),
		patients:     make(map[string]*models.Patient),
		appointments: make(map[string]*models.Appointment),
	}
}

// AddDoctor seeds a doctor record.
func (s *MemStore) AddDoctor(doctor *models.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doctor.SlotsBooked == nil {
		doctor.SlotsBooked = NewSlotMap()
	}
	s.doctors[doctor.ID] = doctor
}

// AddPatient seeds a patient record.
func (s *MemStore) AddPatient(patient *models.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.ID] = patient
}

func (s *MemStore) DoctorByID(_ context.Context, doctorID string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, ok := s.doctors[doctorID]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *doctor
	return &copied, nil
}

func (s *MemStore) PatientByID(_ context.Context, patientID string) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patient, ok := s.patients[patientID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *patient
	return &copied, nil
}

func (s *MemStore) Doctors(_ context.Context) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doctors []models.Doctor
	for _, d := range s.doctors {
		if d.Available {
			doctors = append(doctors, *d)
		}
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

func (s *MemStore) ReserveSlot(_ context.Context, doctorID, dateKey, timeKey string) error {
	if !ValidDateKey(dateKey) || !ValidTimeKey(timeKey) {
		return ErrInvalidSlotKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, ok := s.doctors[doctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	if !doctor.Available {
		return ErrDoctorUnavailable
	}
	return SlotMap(doctor.SlotsBooked).Reserve(dateKey, timeKey)
}

func (s *MemStore) ReleaseSlot(_ context.Context, doctorID, dateKey, timeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, ok := s.doctors[doctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	SlotMap(doctor.SlotsBooked).Release(dateKey, timeKey)
	return nil
}

func (s *MemStore) InsertAppointment(_ context.Context, appointment *models.Appointment) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment.ID = bson.NewObjectID()
	appointment.CreatedAt = time.Now()
	stored := *appointment
	s.appointments[appointment.ID.Hex()] = &stored
	return appointment, nil
}

func (s *MemStore) AppointmentByID(_ context.Context, appointmentID string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment, ok := s.appointments[appointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appointment
	return &copied, nil
}

func (s *MemStore) Appointments(_ context.Context, filter AppointmentFilter) ([]models.Appointment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Appointment
	for _, a := range s.appointments {
		if filter.PatientID != "" && a.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && StatusOf(a) != filter.Status {
			continue
		}
		matched = append(matched, *a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.SortDesc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return nil, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && int64(len(matched)) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *MemStore) TransitionAppointment(_ context.Context, appointmentID string, from, to Status) (*models.Appointment, error) {
	if !CanTransition(from, to) {
		return nil, ErrInvalidTransition
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	appointment, ok := s.appointments[appointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if StatusOf(appointment) != from {
		return nil, ErrInvalidTransition
	}

	switch to {
	case StatusCancelled:
		appointment.Cancelled = true
	case StatusCompleted:
		appointment.IsCompleted = true
	}
	appointment.UpdatedAt = time.Now()

	copied := *appointment
	return &copied, nil
}
