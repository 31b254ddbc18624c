package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

// Cancel moves the caller's booked appointment to cancelled. The row is kept.
func (s *Service) Cancel(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error) {
	if !caller.IsPatient() {
		return nil, apperrors.Forbidden("only patients can cancel appointments")
	}
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.OwnedByPatient(caller.ID) {
		return nil, apperrors.Forbidden("appointment belongs to another patient")
	}
	if apt.Status.Terminal() {
		return nil, terminalConflict(apt.Status)
	}

	now := s.now().UTC()
	apt.Status = model.AppointmentStatusCancelled
	apt.CancelledAt = &now
	if err := s.appointments.UpdateStatus(ctx, apt, model.AppointmentStatusBooked); err != nil {
		return nil, s.staleOr(ctx, id, err, "cancel appointment")
	}

	s.logger.Info("appointment cancelled", "appointment_id", apt.ID.String())
	s.record(ctx, caller, apt, model.EventAppointmentCancelled, model.AuditActionCancel)
	return apt, nil
}

// MarkDone completes a booked appointment owned by the calling doctor.
// Completing an already completed appointment succeeds without a write.
func (s *Service) MarkDone(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error) {
	if !caller.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors can complete appointments")
	}
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.OwnedByDoctor(caller.ID) {
		return nil, apperrors.Forbidden("appointment belongs to another doctor")
	}

	switch apt.Status {
	case model.AppointmentStatusCompleted:
		return apt, nil
	case model.AppointmentStatusCancelled:
		return nil, terminalConflict(apt.Status)
	}

	now := s.now().UTC()
	apt.Status = model.AppointmentStatusCompleted
	apt.CompletedAt = &now
	if err := s.appointments.UpdateStatus(ctx, apt, model.AppointmentStatusBooked); err != nil {
		if !errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.Internal(fmt.Errorf("complete appointment: %w", err))
		}
		current, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		if current.Status == model.AppointmentStatusCompleted {
			return current, nil
		}
		return nil, terminalConflict(current.Status)
	}

	s.logger.Info("appointment completed", "appointment_id", apt.ID.String())
	s.record(ctx, caller, apt, model.EventAppointmentCompleted, model.AuditActionComplete)
	return apt, nil
}

// MarkPrescriptionReceived lets a patient acknowledge a prescription. Only
// the prescription's status changes; the appointment is untouched.
func (s *Service) MarkPrescriptionReceived(ctx context.Context, caller model.Caller, prescriptionID uuid.UUID) (*model.Prescription, error) {
	if !caller.IsPatient() {
		return nil, apperrors.Forbidden("only patients can acknowledge prescriptions")
	}
	prescription, err := s.prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("get prescription: %w", err))
	}
	if prescription.PatientID != caller.ID {
		return nil, apperrors.Forbidden("prescription belongs to another patient")
	}
	if prescription.Status == model.PrescriptionStatusCompleted {
		return prescription, nil
	}

	if err := s.prescriptions.UpdateStatus(ctx, prescription.ID, model.PrescriptionStatusCompleted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("update prescription: %w", err))
	}
	prescription.Status = model.PrescriptionStatusCompleted
	prescription.Touch(s.now().UTC())

	if err := s.events.Emit(ctx, model.EventPrescriptionReceived, prescription); err != nil {
		s.logger.Error(err, "failed to emit prescription event", "prescription_id", prescription.ID.String())
	}
	if err := s.auditor.Log(ctx, caller, model.AuditActionComplete, model.AuditEntityPrescription, prescription.ID,
		map[string]interface{}{"status": prescription.Status}); err != nil {
		s.logger.Error(err, "failed to write audit log", "prescription_id", prescription.ID.String())
	}
	return prescription, nil
}

// SetPaymentStatus sets payment on a booked or completed appointment owned by
// the calling doctor. A nil status flips the current value.
func (s *Service) SetPaymentStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status *model.PaymentStatus) (*model.Appointment, error) {
	if !caller.IsDoctor() {
		return nil, apperrors.Forbidden("only doctors can update payment status")
	}
	if status != nil && !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid payment status %q", *status), nil)
	}
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.OwnedByDoctor(caller.ID) {
		return nil, apperrors.Forbidden("appointment belongs to another doctor")
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, terminalConflict(apt.Status)
	}

	target := apt.PaymentStatus.Toggle()
	if status != nil {
		target = *status
	}
	if target == apt.PaymentStatus {
		return apt, nil
	}

	apt.PaymentStatus = target
	if err := s.appointments.UpdatePaymentStatus(ctx, apt); err != nil {
		return nil, s.staleOr(ctx, id, err, "update payment status")
	}

	s.logger.Info("payment status updated",
		"appointment_id", apt.ID.String(),
		"payment_status", string(apt.PaymentStatus))
	s.record(ctx, caller, apt, model.EventAppointmentPaymentUpdated, model.AuditActionPayment)
	return apt, nil
}

// Get returns an appointment to either of its parties.
func (s *Service) Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if (caller.IsPatient() && apt.OwnedByPatient(caller.ID)) || (caller.IsDoctor() && apt.OwnedByDoctor(caller.ID)) {
		return apt, nil
	}
	return nil, apperrors.Forbidden("not a party to this appointment")
}

// ListActive returns the calling patient's booked appointments, latest date
// first.
func (s *Service) ListActive(ctx context.Context, caller model.Caller) ([]*model.Appointment, error) {
	if !caller.IsPatient() {
		return nil, apperrors.Forbidden("only patients have appointment lists")
	}
	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{
		PatientID: caller.ID,
		Status:    []model.AppointmentStatus{model.AppointmentStatusBooked},
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list appointments: %w", err))
	}
	return appointments, nil
}

// staleOr turns a lost conditional update into a Conflict naming the status
// that won, and anything else into an internal error.
func (s *Service) staleOr(ctx context.Context, id uuid.UUID, err error, op string) error {
	if !errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.Internal(fmt.Errorf("%s: %w", op, err))
	}
	current, loadErr := s.load(ctx, id)
	if loadErr != nil {
		return loadErr
	}
	return terminalConflict(current.Status)
}

func terminalConflict(status model.AppointmentStatus) error {
	return apperrors.Conflict(fmt.Sprintf("appointment is already %s", status))
}
