package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types written to the outbox by the appointment services.
const (
	EventAppointmentBooked         = "appointment.booked"
	EventAppointmentCancelled      = "appointment.cancelled"
	EventAppointmentCompleted      = "appointment.completed"
	EventAppointmentPaymentUpdated = "appointment.payment_updated"
	EventPrescriptionReceived      = "prescription.received"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// AppointmentEvent is the payload published for every appointment change.
type AppointmentEvent struct {
	AppointmentID uuid.UUID         `json:"appointment_id"`
	PatientID     uuid.UUID         `json:"patient_id"`
	PatientName   string            `json:"patient_name"`
	DoctorID      uuid.UUID         `json:"doctor_id"`
	DoctorName    string            `json:"doctor_name"`
	Date          Date              `json:"date"`
	Status        AppointmentStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	ActorID       uuid.UUID         `json:"actor_id"`
	ActorRole     Role              `json:"actor_role"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewAppointmentEvent(apt *Appointment, actor Caller, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		PatientName:   apt.PatientName,
		DoctorID:      apt.DoctorID,
		DoctorName:    apt.DoctorName,
		Date:          apt.Date,
		Status:        apt.Status,
		PaymentStatus: apt.PaymentStatus,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		OccurredAt:    at,
	}
}
