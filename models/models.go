package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DoctorType distinguishes fee handling: Government doctors are free of
// charge and their bookings are marked paid immediately.
type DoctorType string

const (
	DoctorGovernment DoctorType = "Government"
	DoctorPrivate    DoctorType = "Private"
)

// PaymentStatus of an appointment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentRejected PaymentStatus = "rejected"
	PaymentComplete PaymentStatus = "complete"
)

// Address mirrors the nested address object on doctor and patient profiles.
type Address struct {
	Line1 string `json:"line1" bson:"line1"`
	Line2 string `json:"line2,omitempty" bson:"line2,omitempty"`
}

// Doctor is the persisted doctor document. SlotsBooked maps a date key
// ("DD_MM_YYYY") to the time keys ("HH:MM") already reserved on that date.
// It is only ever written through the reservation store.
type Doctor struct {
	ID          string              `json:"doctor_id" bson:"_id"`
	Name        string              `json:"name" bson:"name"`
	Email       string              `json:"email" bson:"email"`
	Speciality  string              `json:"speciality" bson:"speciality"`
	Degree      string              `json:"degree,omitempty" bson:"degree,omitempty"`
	Experience  string              `json:"experience,omitempty" bson:"experience,omitempty"`
	About       string              `json:"about,omitempty" bson:"about,omitempty"`
	Fees        int                 `json:"fees" bson:"fees"`
	Type        DoctorType          `json:"type" bson:"type"`
	Available   bool                `json:"available" bson:"available"`
	Address     Address             `json:"address" bson:"address"`
	SlotsBooked map[string][]string `json:"slots_booked" bson:"slots_booked"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

// Patient is the persisted patient document.
type Patient struct {
	ID        string    `json:"patient_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Mobile    string    `json:"mobile,omitempty" bson:"mobile,omitempty"`
	Gender    string    `json:"gender,omitempty" bson:"gender,omitempty"`
	DOB       string    `json:"dob,omitempty" bson:"dob,omitempty"`
	Address   Address   `json:"address" bson:"address"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// DoctorSnapshot is the subset of doctor fields denormalized onto an
// appointment at booking time. Later profile edits never alter it.
type DoctorSnapshot struct {
	DoctorID   string     `json:"doctor_id" bson:"doctor_id"`
	Name       string     `json:"name" bson:"name"`
	Speciality string     `json:"speciality" bson:"speciality"`
	Fees       int        `json:"fees" bson:"fees"`
	Type       DoctorType `json:"type" bson:"type"`
	Address    Address    `json:"address" bson:"address"`
}

// PatientSnapshot is the patient counterpart of DoctorSnapshot.
type PatientSnapshot struct {
	PatientID string  `json:"patient_id" bson:"patient_id"`
	Name      string  `json:"name" bson:"name"`
	Email     string  `json:"email" bson:"email"`
	Mobile    string  `json:"mobile,omitempty" bson:"mobile,omitempty"`
	Address   Address `json:"address" bson:"address"`
}

// Appointment is the persisted appointment document. The cancelled and
// isCompleted booleans are kept for structural compatibility with the
// surrounding system; domain code works with booking.Status instead and
// the store maps between the two representations.
type Appointment struct {
	ID          bson.ObjectID   `json:"_id,omitempty" bson:"_id,omitempty"`
	BookingRef  string          `json:"booking_ref" bson:"booking_ref"`
	PatientID   string          `json:"userId" bson:"userId"`
	DoctorID    string          `json:"docId" bson:"docId"`
	SlotDate    string          `json:"slotDate" bson:"slotDate"`
	SlotTime    string          `json:"slotTime" bson:"slotTime"`
	UserData    PatientSnapshot `json:"userData" bson:"userData"`
	DocData     DoctorSnapshot  `json:"docData" bson:"docData"`
	Amount      int             `json:"amount" bson:"amount"`
	Payment     PaymentStatus   `json:"payment" bson:"payment"`
	Cancelled   bool            `json:"cancelled" bson:"cancelled"`
	IsCompleted bool            `json:"isCompleted" bson:"isCompleted"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Snapshot copies the booking-relevant doctor fields.
func (d *Doctor) Snapshot() DoctorSnapshot {
	return DoctorSnapshot{
		DoctorID:   d.ID,
		Name:       d.Name,
		Speciality: d.Speciality,
		Fees:       d.Fees,
		Type:       d.Type,
		Address:    d.Address,
	}
}

// Snapshot copies the booking-relevant patient fields.
func (p *Patient) Snapshot() PatientSnapshot {
	return PatientSnapshot{
		PatientID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Mobile:    p.Mobile,
		Address:   p.Address,
	}
}
