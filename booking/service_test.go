package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

const (
	testDate = "15_12_2024"
	testTime = "10:00"
)

func newTestService(t *testing.T) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore()
	store.AddDoctor(&models.Doctor{
		ID:         "doc-1",
		Name:       "Dr. Silva",
		Speciality: "General physician",
		Fees:       500,
		Type:       models.DoctorPrivate,
		Available:  true,
	})
	store.AddDoctor(&models.Doctor{
		ID:        "doc-gov",
		Name:      "Dr. Perera",
		Fees:      750,
		Type:      models.DoctorGovernment,
		Available: true,
	})
	store.AddDoctor(&models.Doctor{
		ID:        "doc-off",
		Name:      "Dr. Fernando",
		Type:      models.DoctorPrivate,
		Available: false,
	})
	store.AddPatient(&models.Patient{ID: "PAT00001", Name: "Pasindu", Email: "p@example.com"})
	store.AddPatient(&models.Patient{ID: "PAT00002", Name: "Qadira", Email: "q@example.com"})
	return NewService(store, zap.NewNop()), store
}

func TestBook(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	appointment, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	assert.Equal(t, "PAT00001", appointment.PatientID)
	assert.Equal(t, "doc-1", appointment.DoctorID)
	assert.Equal(t, testDate, appointment.SlotDate)
	assert.Equal(t, testTime, appointment.SlotTime)
	assert.Equal(t, 500, appointment.Amount)
	assert.Equal(t, models.PaymentPending, appointment.Payment)
	assert.Equal(t, StatusBooked, StatusOf(appointment))
	assert.Len(t, appointment.BookingRef, 8)
	assert.Equal(t, "Dr. Silva", appointment.DocData.Name)
	assert.Equal(t, "Pasindu", appointment.UserData.Name)
	assert.False(t, appointment.ID.IsZero())

	doctor, err := store.DoctorByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, SlotMap(doctor.SlotsBooked).IsFree(testDate, testTime))
}

func TestBookSameSlotTwice(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	_, err = service.Book(ctx, "PAT00002", "doc-1", testDate, testTime)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// adjacent slots are unaffected
	_, err = service.Book(ctx, "PAT00002", "doc-1", testDate, "10:30")
	assert.NoError(t, err)
}

func TestBookConcurrentExactlyOneWins(t *testing.T) {
	service, _ := newTestService(t)

	const callers = 16
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Book(context.Background(), "PAT00001", "doc-1", testDate, testTime)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var booked, unavailable int
	for err := range results {
		switch {
		case err == nil:
			booked++
		case assert.ErrorIs(t, err, ErrSlotUnavailable):
			unavailable++
		}
	}
	assert.Equal(t, 1, booked)
	assert.Equal(t, callers-1, unavailable)
}

func TestBookErrors(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Book(ctx, "PAT00001", "missing", testDate, testTime)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = service.Book(ctx, "PAT00001", "doc-off", testDate, testTime)
	assert.ErrorIs(t, err, ErrDoctorUnavailable)

	_, err = service.Book(ctx, "PAT00001", "doc-1", "15/12/2024", testTime)
	assert.ErrorIs(t, err, ErrInvalidSlotKey)

	_, err = service.Book(ctx, "PAT00001", "doc-1", testDate, "25:00")
	assert.ErrorIs(t, err, ErrInvalidSlotKey)
}

func TestBookUnknownPatientReleasesSlot(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.Book(ctx, "missing", "doc-1", testDate, testTime)
	assert.ErrorIs(t, err, ErrPatientNotFound)

	// the compensating release freed the slot again
	doctor, err := store.DoctorByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, SlotMap(doctor.SlotsBooked).IsFree(testDate, testTime))

	_, err = service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	assert.NoError(t, err)
}

func TestGovernmentDoctorBookingIsFree(t *testing.T) {
	service, _ := newTestService(t)

	appointment, err := service.Book(context.Background(), "PAT00001", "doc-gov", testDate, testTime)
	require.NoError(t, err)

	assert.Equal(t, 0, appointment.Amount)
	assert.Equal(t, models.PaymentComplete, appointment.Payment)
}

func TestCancelReleasesSlot(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	appointment, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	cancelled, err := service.Cancel(ctx, appointment.ID.Hex(), Actor{ID: "PAT00001", Role: RolePatient})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, StatusOf(cancelled))

	// the slot is bookable again
	_, err = service.Book(ctx, "PAT00002", "doc-1", testDate, testTime)
	assert.NoError(t, err)
}

func TestCancelTwiceDoesNotReleaseTwice(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	_, err = service.Cancel(ctx, first.ID.Hex(), Actor{ID: "PAT00001", Role: RolePatient})
	require.NoError(t, err)

	// another patient takes the freed slot
	_, err = service.Book(ctx, "PAT00002", "doc-1", testDate, testTime)
	require.NoError(t, err)

	// re-cancelling the first appointment must not free the new booking
	_, err = service.Cancel(ctx, first.ID.Hex(), Actor{ID: "PAT00001", Role: RolePatient})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	doctor, err := store.DoctorByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, SlotMap(doctor.SlotsBooked).IsFree(testDate, testTime))
}

func TestCancelUnauthorizedLeavesStateUntouched(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	appointment, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	_, err = service.Cancel(ctx, appointment.ID.Hex(), Actor{ID: "PAT00002", Role: RolePatient})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = service.Cancel(ctx, appointment.ID.Hex(), Actor{ID: "doc-gov", Role: RoleDoctor})
	assert.ErrorIs(t, err, ErrUnauthorized)

	unchanged, err := store.AppointmentByID(ctx, appointment.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, StatusOf(unchanged))

	doctor, err := store.DoctorByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, SlotMap(doctor.SlotsBooked).IsFree(testDate, testTime))
}

func TestCancelCapabilities(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	byDoctor, err := service.Book(ctx, "PAT00001", "doc-1", testDate, "11:00")
	require.NoError(t, err)
	_, err = service.Cancel(ctx, byDoctor.ID.Hex(), Actor{ID: "doc-1", Role: RoleDoctor})
	assert.NoError(t, err)

	byAdmin, err := service.Book(ctx, "PAT00001", "doc-1", testDate, "11:30")
	require.NoError(t, err)
	_, err = service.Cancel(ctx, byAdmin.ID.Hex(), Actor{ID: "admin-1", Role: RoleAdmin})
	assert.NoError(t, err)
}

func TestCompleteKeepsSlotReserved(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	appointment, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	completed, err := service.Complete(ctx, appointment.ID.Hex(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, StatusOf(completed))

	// a completed slot stays historically reserved
	_, err = service.Book(ctx, "PAT00002", "doc-1", testDate, testTime)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCompleteErrors(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	appointment, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	_, err = service.Complete(ctx, appointment.ID.Hex(), "doc-gov")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = service.Complete(ctx, "aaaaaaaaaaaaaaaaaaaaaaaa", "doc-1")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = service.Cancel(ctx, appointment.ID.Hex(), Actor{ID: "PAT00001", Role: RolePatient})
	require.NoError(t, err)

	// completing a cancelled appointment is forbidden
	_, err = service.Complete(ctx, appointment.ID.Hex(), "doc-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConcurrentCancelAndCompleteOneWinner(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	appointment, err := service.Book(ctx, "PAT00001", "doc-1", testDate, testTime)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = service.Cancel(ctx, appointment.ID.Hex(), Actor{ID: "PAT00001", Role: RolePatient})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = service.Complete(ctx, appointment.ID.Hex(), "doc-1")
	}()
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, won)

	final, err := store.AppointmentByID(ctx, appointment.ID.Hex())
	require.NoError(t, err)
	assert.NotEqual(t, StatusBooked, StatusOf(final))
	assert.False(t, final.Cancelled && final.IsCompleted)
}

// Walks the end-to-end scenario: P books doc-1's 10:00, Q races and
// loses, P cancels, the doctor then tries to complete the cancelled
// booking.
func TestBookingScenario(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	booked, err := service.Book(ctx, "PAT00001", "doc-1", "15_12_2024", "10:00")
	require.NoError(t, err)
	assert.Equal(t, 500, booked.Amount)
	assert.Equal(t, models.PaymentPending, booked.Payment)

	_, err = service.Book(ctx, "PAT00002", "doc-1", "15_12_2024", "10:00")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = service.Cancel(ctx, booked.ID.Hex(), Actor{ID: "PAT00001", Role: RolePatient})
	require.NoError(t, err)

	_, err = service.Complete(ctx, booked.ID.Hex(), "doc-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
