package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
)

const prescriptionColumns = `
	id, appointment_id, patient_id, doctor_id, medicines, notes, status,
	created_at, updated_at`

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	var prescription model.Prescription
	if err := r.db.GetContext(ctx, &prescription, query, id); err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", mapError(err))
	}
	return &prescription, nil
}

func (r *prescriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrescriptionStatus) error {
	query := `UPDATE prescriptions SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update prescription status: %w", err)
	}
	return checkAffected(result, repository.ErrNotFound)
}

// ListByAppointments returns newest first so callers keeping the first match
// per appointment keep the latest one.
func (r *prescriptionRepository) ListByAppointments(ctx context.Context, appointmentIDs []uuid.UUID) ([]*model.Prescription, error) {
	prescriptions := []*model.Prescription{}
	if len(appointmentIDs) == 0 {
		return prescriptions, nil
	}

	query := `
		SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE appointment_id = ANY($1::uuid[])
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &prescriptions, query, uuidArray(appointmentIDs)); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) ExistsForAppointments(ctx context.Context, appointmentIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	exists := make(map[uuid.UUID]bool, len(appointmentIDs))
	if len(appointmentIDs) == 0 {
		return exists, nil
	}

	query := `SELECT DISTINCT appointment_id FROM prescriptions WHERE appointment_id = ANY($1::uuid[])`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, uuidArray(appointmentIDs)); err != nil {
		return nil, fmt.Errorf("failed to check prescriptions: %w", err)
	}
	for _, id := range ids {
		exists[id] = true
	}
	return exists, nil
}

func (r *documentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Document, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, file_name, description, uploaded_at
		FROM documents
		WHERE patient_id = $1
		ORDER BY uploaded_at DESC
	`
	documents := []*model.Document{}
	if err := r.db.SelectContext(ctx, &documents, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (r *documentRepository) CountByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(patientIDs))
	if len(patientIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT patient_id, COUNT(*) AS count
		FROM documents
		WHERE patient_id = ANY($1::uuid[])
		GROUP BY patient_id
	`
	var rows []struct {
		PatientID uuid.UUID `db:"patient_id"`
		Count     int       `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(patientIDs)); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	for _, row := range rows {
		counts[row.PatientID] = row.Count
	}
	return counts, nil
}
