package clinical

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/consult-api/internal/model"
)

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, apt *model.Appointment) error {
	return m.Called(ctx, apt).Error(0)
}

func (m *mockAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, apt *model.Appointment, from model.AppointmentStatus) error {
	return m.Called(ctx, apt, from).Error(0)
}

func (m *mockAppointmentRepo) UpdatePaymentStatus(ctx context.Context, apt *model.Appointment) error {
	return m.Called(ctx, apt).Error(0)
}

func (m *mockAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) FindBooked(ctx context.Context, patientID, doctorID uuid.UUID, date model.Date) (*model.Appointment, error) {
	args := m.Called(ctx, patientID, doctorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

type mockPatientRepo struct {
	mock.Mock
}

func (m *mockPatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *mockPatientRepo) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

type mockDoctorRepo struct {
	mock.Mock
}

func (m *mockDoctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doctor), args.Error(1)
}

func (m *mockDoctorRepo) List(ctx context.Context) ([]*model.Doctor, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.Doctor), args.Error(1)
}

type mockPrescriptionRepo struct {
	mock.Mock
}

func (m *mockPrescriptionRepo) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Prescription), args.Error(1)
}

func (m *mockPrescriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrescriptionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockPrescriptionRepo) ListByAppointments(ctx context.Context, ids []uuid.UUID) ([]*model.Prescription, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*model.Prescription), args.Error(1)
}

func (m *mockPrescriptionRepo) ExistsForAppointments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

type mockDocumentRepo struct {
	mock.Mock
}

func (m *mockDocumentRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Document, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).([]*model.Document), args.Error(1)
}

func (m *mockDocumentRepo) CountByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, patientIDs)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}
