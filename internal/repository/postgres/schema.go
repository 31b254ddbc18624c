package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		specialization TEXT NOT NULL DEFAULT '',
		consultation_fee NUMERIC(12, 2) NOT NULL DEFAULT 0,
		available_days TEXT[] NOT NULL DEFAULT '{}',
		available_timings TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL REFERENCES patients(id),
		patient_name TEXT NOT NULL,
		doctor_id UUID NOT NULL REFERENCES doctors(id),
		doctor_name TEXT NOT NULL,
		doctor_specialization TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL,
		problem TEXT NOT NULL CHECK (problem <> ''),
		consultation_fee NUMERIC(12, 2) NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('booked', 'completed', 'cancelled')),
		payment_status TEXT NOT NULL CHECK (payment_status IN ('paid', 'unpaid')),
		completed_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_one_booked_per_day
		ON appointments (patient_id, doctor_id, date)
		WHERE status = 'booked'`,
	`CREATE INDEX IF NOT EXISTS appointments_doctor_status_date
		ON appointments (doctor_id, status, date)`,
	`CREATE INDEX IF NOT EXISTS appointments_patient_status_date
		ON appointments (patient_id, status, date)`,
	`CREATE TABLE IF NOT EXISTS prescriptions (
		id UUID PRIMARY KEY,
		appointment_id UUID NOT NULL UNIQUE REFERENCES appointments(id),
		patient_id UUID NOT NULL REFERENCES patients(id),
		doctor_id UUID NOT NULL REFERENCES doctors(id),
		medicines JSONB NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		appointment_id UUID REFERENCES appointments(id),
		patient_id UUID NOT NULL REFERENCES patients(id),
		doctor_id UUID NOT NULL REFERENCES doctors(id),
		file_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_patient ON documents (patient_id)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		retry_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		processed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_events_status_created
		ON outbox_events (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		actor_id UUID NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		changes JSONB,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables and indexes the repositories rely on.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
