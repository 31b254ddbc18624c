// Package appointment books consultations and moves them through their
// lifecycle: booked, then completed or cancelled.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/pkg/lock"
	"github.com/jwalitptl/consult-api/pkg/logger"
	"github.com/jwalitptl/consult-api/pkg/metrics"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

const defaultLockTTL = 10 * time.Second

// Emitter records domain events for asynchronous delivery.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Auditor records who changed what.
type Auditor interface {
	Log(ctx context.Context, actor model.Caller, action, entityType string, entityID uuid.UUID, changes interface{}) error
}

type Config struct {
	LockTTL time.Duration
	// Location decides which calendar day "today" is.
	Location *time.Location
}

type Service struct {
	appointments  repository.AppointmentRepository
	patients      repository.PatientRepository
	doctors       repository.DoctorRepository
	prescriptions repository.PrescriptionRepository
	locker        lock.Locker
	events        Emitter
	auditor       Auditor
	metrics       *metrics.Metrics
	logger        *logger.Logger
	config        Config
	now           func() time.Time
}

type Dependencies struct {
	Appointments  repository.AppointmentRepository
	Patients      repository.PatientRepository
	Doctors       repository.DoctorRepository
	Prescriptions repository.PrescriptionRepository
	Locker        lock.Locker
	Events        Emitter
	Auditor       Auditor
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

func NewService(deps Dependencies, config Config) *Service {
	if config.LockTTL <= 0 {
		config.LockTTL = defaultLockTTL
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	return &Service{
		appointments:  deps.Appointments,
		patients:      deps.Patients,
		doctors:       deps.Doctors,
		prescriptions: deps.Prescriptions,
		locker:        deps.Locker,
		events:        deps.Events,
		auditor:       deps.Auditor,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		config:        config,
		now:           time.Now,
	}
}

// record publishes the outbox event and audit row for a committed write.
// Both are best effort: the write already happened, so failures are logged
// rather than returned.
func (s *Service) record(ctx context.Context, actor model.Caller, apt *model.Appointment, eventType, action string) {
	now := s.now()
	if err := s.events.Emit(ctx, eventType, model.NewAppointmentEvent(apt, actor, now)); err != nil {
		s.logger.Error(err, "failed to emit appointment event",
			"appointment_id", apt.ID.String(),
			"event_type", eventType)
	}

	changes := map[string]interface{}{
		"status":         apt.Status,
		"payment_status": apt.PaymentStatus,
	}
	if err := s.auditor.Log(ctx, actor, action, model.AuditEntityAppointment, apt.ID, changes); err != nil {
		s.logger.Error(err, "failed to write audit log",
			"appointment_id", apt.ID.String(),
			"action", action)
	}
	s.metrics.Transitions.WithLabelValues(action).Inc()
}

// load fetches an appointment, translating a miss into NotFound.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("get appointment: %w", err))
	}
	return apt, nil
}
