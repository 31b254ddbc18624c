// Package clinical builds read-only views that join appointments with the
// prescriptions and documents attached to them.
package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/pkg/logger"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

type Service struct {
	appointments  repository.AppointmentRepository
	patients      repository.PatientRepository
	doctors       repository.DoctorRepository
	prescriptions repository.PrescriptionRepository
	documents     repository.DocumentRepository
	logger        *logger.Logger
}

func NewService(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	prescriptions repository.PrescriptionRepository,
	documents repository.DocumentRepository,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		appointments:  appointments,
		patients:      patients,
		doctors:       doctors,
		prescriptions: prescriptions,
		documents:     documents,
		logger:        log,
	}
}

// DoctorQueue lists the doctor's booked appointments, soonest first.
func (s *Service) DoctorQueue(ctx context.Context, caller model.Caller) ([]*model.QueueEntry, error) {
	return s.doctorView(ctx, caller, model.AppointmentStatusBooked, true)
}

// DoctorHistory lists the doctor's completed appointments, latest first.
func (s *Service) DoctorHistory(ctx context.Context, caller model.Caller) ([]*model.QueueEntry, error) {
	return s.doctorView(ctx, caller, model.AppointmentStatusCompleted, false)
}

func (s *Service) doctorView(ctx context.Context, caller model.Caller, status model.AppointmentStatus, ascending bool) ([]*model.QueueEntry, error) {
	if !caller.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors have an appointment queue")
	}
	if _, err := s.doctors.Get(ctx, caller.ID); err != nil {
		return nil, lookupError("doctor", err)
	}

	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{
		DoctorID:  caller.ID,
		Status:    []model.AppointmentStatus{status},
		Ascending: ascending,
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list appointments: %w", err))
	}

	entries := make([]*model.QueueEntry, 0, len(appointments))
	if len(appointments) == 0 {
		return entries, nil
	}

	ids := make([]uuid.UUID, 0, len(appointments))
	patientIDs := make([]uuid.UUID, 0, len(appointments))
	seen := make(map[uuid.UUID]bool)
	for _, apt := range appointments {
		ids = append(ids, apt.ID)
		if !seen[apt.PatientID] {
			seen[apt.PatientID] = true
			patientIDs = append(patientIDs, apt.PatientID)
		}
	}

	hasPrescription, err := s.prescriptions.ExistsForAppointments(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("check prescriptions: %w", err))
	}
	documentCounts, err := s.documents.CountByPatients(ctx, patientIDs)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("count documents: %w", err))
	}

	for _, apt := range appointments {
		entries = append(entries, &model.QueueEntry{
			Appointment:     apt,
			HasPrescription: hasPrescription[apt.ID],
			DocumentCount:   documentCounts[apt.PatientID],
		})
	}
	return entries, nil
}

// PatientTimeline lists the patient's appointments, latest first, each with
// its prescription and documents. A nil status includes every status.
func (s *Service) PatientTimeline(ctx context.Context, caller model.Caller, status *model.AppointmentStatus) ([]*model.TimelineEntry, error) {
	if !caller.IsPatient() {
		return nil, apperrors.Forbidden("only patients have a timeline")
	}
	if status != nil && !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", *status), nil)
	}
	if _, err := s.patients.Get(ctx, caller.ID); err != nil {
		return nil, lookupError("patient", err)
	}

	filters := &model.AppointmentFilters{PatientID: caller.ID}
	if status != nil {
		filters.Status = []model.AppointmentStatus{*status}
	}
	appointments, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list appointments: %w", err))
	}

	entries := make([]*model.TimelineEntry, 0, len(appointments))
	if len(appointments) == 0 {
		return entries, nil
	}

	ids := make([]uuid.UUID, 0, len(appointments))
	for _, apt := range appointments {
		ids = append(ids, apt.ID)
	}

	prescriptions, err := s.prescriptions.ListByAppointments(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list prescriptions: %w", err))
	}
	latest := latestPrescriptions(prescriptions)

	documents, err := s.documents.ListByPatient(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list documents: %w", err))
	}

	for _, apt := range appointments {
		entry := &model.TimelineEntry{
			Appointment:  apt,
			Prescription: latest[apt.ID],
			Documents:    []*model.Document{},
		}
		for _, doc := range documents {
			if doc.BelongsTo(apt) {
				entry.Documents = append(entry.Documents, doc)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DoctorPatientSearch lists completed appointments between the calling
// doctor and the patient registered under email, latest first.
func (s *Service) DoctorPatientSearch(ctx context.Context, caller model.Caller, email string) ([]*model.PatientHistoryEntry, error) {
	if !caller.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors can search patient history")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.Validation("email is required", nil)
	}
	if _, err := s.doctors.Get(ctx, caller.ID); err != nil {
		return nil, lookupError("doctor", err)
	}
	patient, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError("patient", err)
	}

	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{
		PatientID: patient.ID,
		DoctorID:  caller.ID,
		Status:    []model.AppointmentStatus{model.AppointmentStatusCompleted},
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list appointments: %w", err))
	}

	entries := make([]*model.PatientHistoryEntry, 0, len(appointments))
	if len(appointments) == 0 {
		return entries, nil
	}

	documents, err := s.documents.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list documents: %w", err))
	}

	for _, apt := range appointments {
		entry := &model.PatientHistoryEntry{Appointment: apt}
		for _, doc := range documents {
			if doc.BelongsTo(apt) {
				entry.HasDocuments = true
				break
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// latestPrescriptions keeps one prescription per appointment, the most
// recently created, regardless of input order.
func latestPrescriptions(prescriptions []*model.Prescription) map[uuid.UUID]*model.Prescription {
	out := make(map[uuid.UUID]*model.Prescription, len(prescriptions))
	for _, p := range prescriptions {
		if cur, ok := out[p.AppointmentID]; !ok || p.CreatedAt.After(cur.CreatedAt) {
			out[p.AppointmentID] = p
		}
	}
	return out
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(fmt.Errorf("get %s: %w", resource, err))
}
