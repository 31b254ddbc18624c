package model

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionStatusActive    PrescriptionStatus = "active"
	PrescriptionStatusCompleted PrescriptionStatus = "completed"
)

type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type Prescription struct {
	Base
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	Medicines     Medicines          `db:"medicines" json:"medicines"`
	Notes         string             `db:"notes" json:"notes,omitempty"`
	Status        PrescriptionStatus `db:"status" json:"status"`
}

// Document is an uploaded file's metadata. Older uploads were only tied to a
// patient/doctor pair, so AppointmentID may be nil.
type Document struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	FileName      string     `db:"file_name" json:"file_name"`
	Description   string     `db:"description" json:"description,omitempty"`
	UploadedAt    time.Time  `db:"uploaded_at" json:"uploaded_at"`
}

// BelongsTo reports whether d attaches to apt, falling back to the
// patient/doctor pair when the document carries no appointment id.
func (d *Document) BelongsTo(apt *Appointment) bool {
	if d.AppointmentID != nil {
		return *d.AppointmentID == apt.ID
	}
	return d.PatientID == apt.PatientID && d.DoctorID == apt.DoctorID
}
