package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup by id/key matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write trips a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleStatus is returned by conditional updates whose expected prior
	// status no longer holds.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// UpdateStatus moves id from `from` to appointment.Status and writes the
		// matching timestamp. Returns ErrStaleStatus when the row is not in `from`.
		UpdateStatus(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error
		UpdatePaymentStatus(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		FindBooked(ctx context.Context, patientID, doctorID uuid.UUID, date model.Date) (*model.Appointment, error)
	}

	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
	}

	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	PrescriptionRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrescriptionStatus) error
		ListByAppointments(ctx context.Context, appointmentIDs []uuid.UUID) ([]*model.Prescription, error)
		ExistsForAppointments(ctx context.Context, appointmentIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	}

	DocumentRepository interface {
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Document, error)
		CountByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
