package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/models"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name        string
		cancelled   bool
		isCompleted bool
		expected    Status
	}{
		{name: "fresh booking", expected: StatusBooked},
		{name: "cancelled", cancelled: true, expected: StatusCancelled},
		{name: "completed", isCompleted: true, expected: StatusCompleted},
		// Both flags set cannot be produced through this package; a legacy
		// document in that shape reads as cancelled.
		{name: "both flags", cancelled: true, isCompleted: true, expected: StatusCancelled},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := &models.Appointment{Cancelled: c.cancelled, IsCompleted: c.isCompleted}
			assert.Equal(t, c.expected, StatusOf(a))
		})
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{from: StatusBooked, to: StatusCancelled, allowed: true},
		{from: StatusBooked, to: StatusCompleted, allowed: true},
		{from: StatusCancelled, to: StatusCompleted, allowed: false},
		{from: StatusCompleted, to: StatusCancelled, allowed: false},
		{from: StatusCancelled, to: StatusCancelled, allowed: false},
		{from: StatusCompleted, to: StatusCompleted, allowed: false},
		{from: StatusBooked, to: StatusBooked, allowed: false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestAuthorizeCancel(t *testing.T) {
	appointment := &models.Appointment{PatientID: "PAT00001", DoctorID: "doc-1"}

	cases := []struct {
		name      string
		requester Actor
		allowed   bool
	}{
		{name: "owning patient", requester: Actor{ID: "PAT00001", Role: RolePatient}, allowed: true},
		{name: "other patient", requester: Actor{ID: "PAT00002", Role: RolePatient}, allowed: false},
		{name: "appointment doctor", requester: Actor{ID: "doc-1", Role: RoleDoctor}, allowed: true},
		{name: "other doctor", requester: Actor{ID: "doc-2", Role: RoleDoctor}, allowed: false},
		{name: "admin", requester: Actor{ID: "admin-1", Role: RoleAdmin}, allowed: true},
		{name: "unknown role", requester: Actor{ID: "PAT00001", Role: Role("guest")}, allowed: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := authorizeCancel(appointment, c.requester)
			if c.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnauthorized)
			}
		})
	}
}
