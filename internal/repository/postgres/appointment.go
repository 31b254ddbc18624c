package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, patient_name, doctor_id, doctor_name, doctor_specialization,
	date, problem, consultation_fee, status, payment_status,
	completed_at, cancelled_at, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.Touch(r.now())

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.PatientName,
		appointment.DoctorID,
		appointment.DoctorName,
		appointment.DoctorSpecialization,
		appointment.Date,
		appointment.Problem,
		appointment.ConsultationFee,
		appointment.Status,
		appointment.PaymentStatus,
		appointment.CompletedAt,
		appointment.CancelledAt,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", mapError(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, completed_at = $2, cancelled_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	appointment.Touch(r.now())

	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.CompletedAt,
		appointment.CancelledAt,
		appointment.UpdatedAt,
		appointment.ID,
		from,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", mapError(err))
	}
	return checkAffected(result, repository.ErrStaleStatus)
}

// UpdatePaymentStatus never touches a cancelled row.
func (r *appointmentRepository) UpdatePaymentStatus(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET payment_status = $1, updated_at = $2
		WHERE id = $3 AND status <> $4
	`
	appointment.Touch(r.now())

	result, err := r.db.ExecContext(ctx, query,
		appointment.PaymentStatus,
		appointment.UpdatedAt,
		appointment.ID,
		model.AppointmentStatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", mapError(err))
	}
	return checkAffected(result, repository.ErrStaleStatus)
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	var conditions []string
	var args []interface{}

	if filters.PatientID != uuid.Nil {
		args = append(args, filters.PatientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if filters.DoctorID != uuid.Nil {
		args = append(args, filters.DoctorID)
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if len(filters.Status) > 0 {
		statuses := make(pq.StringArray, 0, len(filters.Status))
		for _, s := range filters.Status {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filters.Date != nil {
		args = append(args, *filters.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filters.Ascending {
		query += " ORDER BY date ASC, created_at ASC"
	} else {
		query += " ORDER BY date DESC, created_at DESC"
	}

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindBooked(ctx context.Context, patientID, doctorID uuid.UUID, date model.Date) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1 AND doctor_id = $2 AND date = $3 AND status = $4
		LIMIT 1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, patientID, doctorID, date, model.AppointmentStatusBooked)
	if err != nil {
		return nil, fmt.Errorf("failed to find booked appointment: %w", mapError(err))
	}
	return &appointment, nil
}
