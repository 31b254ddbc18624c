package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusBooked, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

func (p PaymentStatus) Toggle() PaymentStatus {
	if p == PaymentStatusPaid {
		return PaymentStatusUnpaid
	}
	return PaymentStatusPaid
}

func (p PaymentStatus) Valid() bool {
	return p == PaymentStatusPaid || p == PaymentStatusUnpaid
}

type Appointment struct {
	Base
	PatientID            uuid.UUID         `db:"patient_id" json:"patient_id"`
	PatientName          string            `db:"patient_name" json:"patient_name"`
	DoctorID             uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	DoctorName           string            `db:"doctor_name" json:"doctor_name"`
	DoctorSpecialization string            `db:"doctor_specialization" json:"doctor_specialization"`
	Date                 Date              `db:"date" json:"date"`
	Problem              string            `db:"problem" json:"problem"`
	ConsultationFee      decimal.Decimal   `db:"consultation_fee" json:"consultation_fee"`
	Status               AppointmentStatus `db:"status" json:"status"`
	PaymentStatus        PaymentStatus     `db:"payment_status" json:"payment_status"`
	CompletedAt          *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt          *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// OwnedByPatient and OwnedByDoctor gate lifecycle writes.
func (a *Appointment) OwnedByPatient(id uuid.UUID) bool { return a.PatientID == id }
func (a *Appointment) OwnedByDoctor(id uuid.UUID) bool  { return a.DoctorID == id }

// BookAppointmentRequest is the patient-facing booking payload. Date stays a
// raw string so malformed input surfaces as a validation error from the
// service rather than a binding error.
type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required,uuid"`
	Date     string `json:"date" binding:"required"`
	Problem  string `json:"problem" binding:"required"`
}

type UpdatePaymentRequest struct {
	// Empty toggles the current value.
	PaymentStatus PaymentStatus `json:"payment_status" binding:"omitempty,oneof=paid unpaid"`
}

// AppointmentFilters drives repository.AppointmentRepository.List. Zero
// values are ignored.
type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    []AppointmentStatus
	Date      *Date
	// Ascending sorts by date soonest first; otherwise latest first.
	Ascending bool
}
