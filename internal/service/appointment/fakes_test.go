package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/pkg/lock"
)

// memAppointments mimics the postgres repository, including the partial
// unique index on booked rows and the conditional status update.
type memAppointments struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]model.Appointment
	createErr error
	// beforeUpdate runs inside UpdateStatus before the status check.
	beforeUpdate func(rows map[uuid.UUID]model.Appointment)
}

func newMemAppointments() *memAppointments {
	return &memAppointments{rows: make(map[uuid.UUID]model.Appointment)}
}

func (m *memAppointments) Create(ctx context.Context, apt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, row := range m.rows {
		if row.Status == model.AppointmentStatusBooked && apt.Status == model.AppointmentStatusBooked &&
			row.PatientID == apt.PatientID && row.DoctorID == apt.DoctorID && row.Date == apt.Date {
			return repository.ErrDuplicate
		}
	}
	apt.ID = uuid.New()
	apt.Touch(time.Now())
	m.rows[apt.ID] = *apt
	return nil
}

func (m *memAppointments) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (m *memAppointments) UpdateStatus(ctx context.Context, apt *model.Appointment, from model.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeUpdate != nil {
		m.beforeUpdate(m.rows)
	}
	row, ok := m.rows[apt.ID]
	if !ok || row.Status != from {
		return repository.ErrStaleStatus
	}
	row.Status = apt.Status
	row.CompletedAt = apt.CompletedAt
	row.CancelledAt = apt.CancelledAt
	m.rows[apt.ID] = row
	return nil
}

func (m *memAppointments) UpdatePaymentStatus(ctx context.Context, apt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[apt.ID]
	if !ok || row.Status == model.AppointmentStatusCancelled {
		return repository.ErrStaleStatus
	}
	row.PaymentStatus = apt.PaymentStatus
	m.rows[apt.ID] = row
	return nil
}

func (m *memAppointments) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Appointment{}
	for _, row := range m.rows {
		row := row
		if filters.PatientID != uuid.Nil && row.PatientID != filters.PatientID {
			continue
		}
		if filters.DoctorID != uuid.Nil && row.DoctorID != filters.DoctorID {
			continue
		}
		if len(filters.Status) > 0 && !containsStatus(filters.Status, row.Status) {
			continue
		}
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool {
		if filters.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[j].Date.Before(out[i].Date)
	})
	return out, nil
}

func (m *memAppointments) FindBooked(ctx context.Context, patientID, doctorID uuid.UUID, date model.Date) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Status == model.AppointmentStatusBooked && row.PatientID == patientID &&
			row.DoctorID == doctorID && row.Date == date {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAppointments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func containsStatus(list []model.AppointmentStatus, s model.AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memPatients struct {
	rows  map[uuid.UUID]*model.Patient
	calls int
}

func (m *memPatients) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	m.calls++
	if p, ok := m.rows[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memPatients) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	for _, p := range m.rows {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memDoctors struct {
	rows map[uuid.UUID]*model.Doctor
}

func (m *memDoctors) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if d, ok := m.rows[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memDoctors) List(ctx context.Context) ([]*model.Doctor, error) {
	out := []*model.Doctor{}
	for _, d := range m.rows {
		out = append(out, d)
	}
	return out, nil
}

type memPrescriptions struct {
	rows    map[uuid.UUID]*model.Prescription
	updates int
}

func (m *memPrescriptions) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	if p, ok := m.rows[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memPrescriptions) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrescriptionStatus) error {
	p, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.updates++
	p.Status = status
	return nil
}

func (m *memPrescriptions) ListByAppointments(ctx context.Context, ids []uuid.UUID) ([]*model.Prescription, error) {
	return nil, nil
}

func (m *memPrescriptions) ExistsForAppointments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return map[uuid.UUID]bool{}, nil
}

// memLocker is a process-local Locker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]string)}
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", lock.ErrNotObtained
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *memLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockLocker) Release(ctx context.Context, key, token string) error {
	return m.Called(ctx, key, token).Error(0)
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{Type: eventType, Payload: payload})
	return nil
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, evt := range e.events {
		out = append(out, evt.Type)
	}
	return out
}

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) Log(ctx context.Context, actor model.Caller, action, entityType string, entityID uuid.UUID, changes interface{}) error {
	return m.Called(ctx, actor, action, entityType, entityID, changes).Error(0)
}
