package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/internal/service/availability"
	"github.com/jwalitptl/consult-api/pkg/lock"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

const alreadyBooked = "appointment already booked with this doctor on this date"

// Book creates a booked, unpaid appointment for the calling patient. Input is
// validated before anything is read.
func (s *Service) Book(ctx context.Context, caller model.Caller, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.book(ctx, caller, req)
	s.metrics.Bookings.WithLabelValues(bookingOutcome(err)).Inc()
	return apt, err
}

func (s *Service) book(ctx context.Context, caller model.Caller, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	problem := strings.TrimSpace(req.Problem)
	if problem == "" {
		return nil, apperrors.Validation("problem is required", nil)
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.Validation("invalid doctor id", err)
	}
	date, err := availability.ParseDate(req.Date, s.config.Location)
	if err != nil {
		return nil, err
	}
	if date.Before(model.Today(s.now(), s.config.Location)) {
		return nil, apperrors.Validation("appointment date cannot be in the past", nil)
	}

	if !caller.IsPatient() {
		return nil, apperrors.Forbidden("only patients can book appointments")
	}

	patient, err := s.patients.Get(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("get patient: %w", err))
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("get doctor: %w", err))
	}

	if err := availability.Check(doctor.AvailableDays, date); err != nil {
		return nil, err
	}

	key := bookingKey(patient.ID, doctor.ID, date)
	token, err := s.locker.Acquire(ctx, key, s.config.LockTTL)
	switch {
	case errors.Is(err, lock.ErrNotObtained):
		s.metrics.LockWaits.Inc()
		return nil, apperrors.Conflict(alreadyBooked)
	case err != nil:
		// The partial unique index still rejects duplicates without the lock.
		s.logger.Warn("booking lock unavailable, relying on storage constraint",
			"key", key, "error", err.Error())
	default:
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				s.logger.Error(err, "failed to release booking lock", "key", key)
			}
		}()
	}

	existing, err := s.appointments.FindBooked(ctx, patient.ID, doctor.ID, date)
	switch {
	case err == nil && existing != nil:
		return nil, apperrors.Conflict(alreadyBooked)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(fmt.Errorf("check existing booking: %w", err))
	}

	apt := &model.Appointment{
		PatientID:            patient.ID,
		PatientName:          patient.Name,
		DoctorID:             doctor.ID,
		DoctorName:           doctor.Name,
		DoctorSpecialization: doctor.Specialization,
		Date:                 date,
		Problem:              problem,
		ConsultationFee:      doctor.ConsultationFee,
		Status:               model.AppointmentStatusBooked,
		PaymentStatus:        model.PaymentStatusUnpaid,
	}
	if err := s.appointments.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(alreadyBooked)
		}
		return nil, apperrors.Internal(fmt.Errorf("create appointment: %w", err))
	}

	s.logger.Info("appointment booked",
		"appointment_id", apt.ID.String(),
		"doctor_id", apt.DoctorID.String(),
		"date", apt.Date.String())
	s.record(ctx, caller, apt, model.EventAppointmentBooked, model.AuditActionCreate)

	return apt, nil
}

func bookingKey(patientID, doctorID uuid.UUID, date model.Date) string {
	return fmt.Sprintf("booking:%s:%s:%s", patientID, doctorID, date)
}

func bookingOutcome(err error) string {
	if err == nil {
		return "booked"
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrValidation:
		return "invalid"
	case apperrors.ErrNotFound:
		return "not_found"
	case apperrors.ErrUnavailable:
		return "unavailable"
	case apperrors.ErrConflict:
		return "conflict"
	case apperrors.ErrForbidden:
		return "forbidden"
	default:
		return "error"
	}
}
