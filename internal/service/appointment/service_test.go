package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/pkg/lock"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

// Saturday 17 October 2026, noon UTC.
var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

const (
	nextThursday = "2026-10-22"
	nextTuesday  = "2026-10-20"
	nextMonday   = "2026-10-19"
)

type fixture struct {
	svc           *Service
	appointments  *memAppointments
	patients      *memPatients
	doctors       *memDoctors
	prescriptions *memPrescriptions
	events        *recordingEmitter
	auditor       *mockAuditor

	patient model.Caller
	doctorD model.Caller
	doctorE model.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		appointments:  newMemAppointments(),
		patients:      &memPatients{rows: map[uuid.UUID]*model.Patient{}},
		doctors:       &memDoctors{rows: map[uuid.UUID]*model.Doctor{}},
		prescriptions: &memPrescriptions{rows: map[uuid.UUID]*model.Prescription{}},
		events:        &recordingEmitter{},
		auditor:       new(mockAuditor),
	}
	f.auditor.On("Log", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	patientID := uuid.New()
	f.patients.rows[patientID] = &model.Patient{Base: model.Base{ID: patientID}, Name: "Priya", Email: "priya@example.com"}
	f.patient = model.Caller{ID: patientID, Role: model.RolePatient}

	d := &model.Doctor{
		Base:            model.Base{ID: uuid.New()},
		Name:            "Dr. D",
		Specialization:  "General Medicine",
		ConsultationFee: decimal.NewFromInt(500),
		AvailableDays:   []string{"Monday", "Thursday"},
	}
	e := &model.Doctor{
		Base:            model.Base{ID: uuid.New()},
		Name:            "Dr. E",
		Specialization:  "Dermatology",
		ConsultationFee: decimal.NewFromInt(800),
		AvailableDays:   []string{"Mon", "Wed", "Fri"},
	}
	f.doctors.rows[d.ID] = d
	f.doctors.rows[e.ID] = e
	f.doctorD = model.Caller{ID: d.ID, Role: model.RoleDoctor}
	f.doctorE = model.Caller{ID: e.ID, Role: model.RoleDoctor}

	f.svc = NewService(Dependencies{
		Appointments:  f.appointments,
		Patients:      f.patients,
		Doctors:       f.doctors,
		Prescriptions: f.prescriptions,
		Locker:        newMemLocker(),
		Events:        f.events,
		Auditor:       f.auditor,
	}, Config{Location: time.UTC})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) book(t *testing.T, doctor model.Caller, date string) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: doctor.ID.String(),
		Date:     date,
		Problem:  "fever",
	})
	require.NoError(t, err)
	return apt
}

func TestBookScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 1. Thursday booking with a Monday/Thursday doctor.
	apt := f.book(t, f.doctorD, nextThursday)
	assert.Equal(t, model.AppointmentStatusBooked, apt.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, apt.PaymentStatus)
	assert.True(t, decimal.NewFromInt(500).Equal(apt.ConsultationFee))
	assert.Equal(t, "Priya", apt.PatientName)
	assert.Equal(t, "Dr. D", apt.DoctorName)
	assert.Equal(t, []string{model.EventAppointmentBooked}, f.events.types())

	// 2. Same triple again while booked.
	_, err := f.svc.Book(ctx, f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctorD.ID.String(), Date: nextThursday, Problem: "still fever",
	})
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, f.appointments.count())

	// 3. Mark done twice.
	done, err := f.svc.MarkDone(ctx, f.doctorD, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	again, err := f.svc.MarkDone(ctx, f.doctorD, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, again.Status)
	assert.Equal(t, []string{model.EventAppointmentBooked, model.EventAppointmentCompleted}, f.events.types())

	// 4. Payment after completion.
	paid, err := f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, model.AppointmentStatusCompleted, paid.Status)

	stored, err := f.svc.Get(ctx, f.doctorD, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)

	// 5. Cancel a separate booking with doctor E.
	other := f.book(t, f.doctorE, nextMonday)
	active, err := f.svc.ListActive(ctx, f.patient)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, other.ID, active[0].ID)

	cancelled, err := f.svc.Cancel(ctx, f.patient, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	active, err = f.svc.ListActive(ctx, f.patient)
	require.NoError(t, err)
	assert.Empty(t, active)

	kept, err := f.appointments.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, kept.Status)
}

func TestBookValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   model.BookAppointmentRequest
		check func(error) bool
	}{
		{"blank problem", model.BookAppointmentRequest{Date: nextThursday, Problem: "   "}, apperrors.IsValidation},
		{"malformed date", model.BookAppointmentRequest{Date: "22/10/2026", Problem: "fever"}, apperrors.IsValidation},
		{"past date", model.BookAppointmentRequest{Date: "2026-10-15", Problem: "fever"}, apperrors.IsValidation},
		{"bad doctor id", model.BookAppointmentRequest{DoctorID: "nope", Date: nextThursday, Problem: "fever"}, apperrors.IsValidation},
		{"tuesday", model.BookAppointmentRequest{Date: nextTuesday, Problem: "fever"}, apperrors.IsUnavailable},
		{"unknown doctor", model.BookAppointmentRequest{DoctorID: uuid.NewString(), Date: nextThursday, Problem: "fever"}, apperrors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := tt.req
			if req.DoctorID == "" {
				req.DoctorID = f.doctorD.ID.String()
			}
			_, err := f.svc.Book(context.Background(), f.patient, &req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, 0, f.appointments.count())
			assert.Empty(t, f.events.types())
		})
	}
}

func TestBookRejectsBeforeAnyRead(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctorD.ID.String(), Date: "garbage", Problem: "fever",
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, f.patients.calls)
}

func TestBookUnavailableNamesDay(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctorE.ID.String(), Date: nextTuesday, Problem: "rash",
	})

	var unavailable *apperrors.UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "Tuesday", unavailable.Day)
}

func TestBookSameDayAllowed(t *testing.T) {
	f := newFixture(t)
	f.doctors.rows[f.doctorD.ID].AvailableDays = []string{"Saturday"}

	apt := f.book(t, f.doctorD, "2026-10-17")
	assert.Equal(t, model.NewDate(2026, time.October, 17), apt.Date)
}

func TestBookTodayFollowsClinicLocation(t *testing.T) {
	f := newFixture(t)
	f.svc.config.Location = time.FixedZone("UTC+14", 14*3600)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	f.doctors.rows[f.doctorD.ID].AvailableDays = []string{"Saturday", "Sunday"}

	// Already Sunday the 18th in the clinic's zone, so Saturday is the past.
	_, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctorD.ID.String(), Date: "2026-10-17", Problem: "fever",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookRequiresPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Book(context.Background(), f.doctorD, &model.BookAppointmentRequest{
		DoctorID: f.doctorE.ID.String(), Date: nextMonday, Problem: "fever",
	})
	assert.True(t, apperrors.IsForbidden(err))

	stranger := model.Caller{ID: uuid.New(), Role: model.RolePatient}
	_, err = f.svc.Book(context.Background(), stranger, &model.BookAppointmentRequest{
		DoctorID: f.doctorE.ID.String(), Date: nextMonday, Problem: "fever",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFeeFixedAtBooking(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, f.doctorD, nextThursday)

	f.doctors.rows[f.doctorD.ID].ConsultationFee = decimal.NewFromInt(900)

	stored, err := f.svc.Get(context.Background(), f.patient, apt.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(stored.ConsultationFee))
}

func TestRebookAfterResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("after cancel", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.doctorD, nextThursday)
		_, err := f.svc.Cancel(ctx, f.patient, apt.ID)
		require.NoError(t, err)

		again := f.book(t, f.doctorD, nextThursday)
		assert.NotEqual(t, apt.ID, again.ID)
	})

	t.Run("after completion", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.doctorD, nextThursday)
		_, err := f.svc.MarkDone(ctx, f.doctorD, apt.ID)
		require.NoError(t, err)

		f.book(t, f.doctorD, nextThursday)
		assert.Equal(t, 2, f.appointments.count())
	})
}

func TestBookLockContention(t *testing.T) {
	f := newFixture(t)
	locker := new(mockLocker)
	locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), defaultLockTTL).Return("", lock.ErrNotObtained)
	f.svc.locker = locker

	_, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctorD.ID.String(), Date: nextThursday, Problem: "fever",
	})
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 0, f.appointments.count())
	locker.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookLockKeyAndRelease(t *testing.T) {
	f := newFixture(t)
	locker := new(mockLocker)
	key := "booking:" + f.patient.ID.String() + ":" + f.doctorD.ID.String() + ":" + nextThursday
	locker.On("Acquire", mock.Anything, key, defaultLockTTL).Return("tok", nil)
	locker.On("Release", mock.Anything, key, "tok").Return(nil)
	f.svc.locker = locker

	f.book(t, f.doctorD, nextThursday)
	locker.AssertExpectations(t)
}

func TestBookLockBackendDownFallsBackToConstraint(t *testing.T) {
	f := newFixture(t)
	locker := new(mockLocker)
	locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("redis: connection refused"))
	f.svc.locker = locker

	f.book(t, f.doctorD, nextThursday)

	f.appointments.createErr = repository.ErrDuplicate
	_, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctorD.ID.String(), Date: nextMonday, Problem: "fever",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestCancelRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Cancel(ctx, f.patient, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	apt := f.book(t, f.doctorD, nextThursday)
	otherPatient := model.Caller{ID: uuid.New(), Role: model.RolePatient}
	_, err = f.svc.Cancel(ctx, otherPatient, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.Cancel(ctx, f.doctorD, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.MarkDone(ctx, f.doctorD, apt.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.patient, apt.ID)
	assert.True(t, apperrors.IsConflict(err))

	stored, err := f.appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
}

func TestMarkDoneRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.doctorD, nextThursday)

	_, err := f.svc.MarkDone(ctx, f.doctorE, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.MarkDone(ctx, f.doctorD, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Cancel(ctx, f.patient, apt.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkDone(ctx, f.doctorD, apt.ID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestConcurrentTerminalTransitionIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.doctorD, nextThursday)

	// The patient cancels between the doctor's read and write.
	f.appointments.beforeUpdate = func(rows map[uuid.UUID]model.Appointment) {
		row := rows[apt.ID]
		row.Status = model.AppointmentStatusCancelled
		rows[apt.ID] = row
	}

	_, err := f.svc.MarkDone(ctx, f.doctorD, apt.ID)
	assert.True(t, apperrors.IsConflict(err))

	stored, err := f.appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestSetPaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.doctorD, nextThursday)

	paid, err := f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, model.AppointmentStatusBooked, paid.Status)

	unpaid, err := f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, unpaid.PaymentStatus)

	explicit := model.PaymentStatusPaid
	set, err := f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, &explicit)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, set.PaymentStatus)

	again, err := f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, &explicit)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, again.PaymentStatus)

	bogus := model.PaymentStatus("refunded")
	_, err = f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, &bogus)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.SetPaymentStatus(ctx, f.doctorE, apt.ID, nil)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.SetPaymentStatus(ctx, f.patient, apt.ID, nil)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.Cancel(ctx, f.patient, apt.ID)
	require.NoError(t, err)
	_, err = f.svc.SetPaymentStatus(ctx, f.doctorD, apt.ID, nil)
	assert.True(t, apperrors.IsConflict(err))
}

func TestMarkPrescriptionReceived(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.doctorD, nextThursday)
	_, err := f.svc.MarkDone(ctx, f.doctorD, apt.ID)
	require.NoError(t, err)

	rx := &model.Prescription{
		Base:          model.Base{ID: uuid.New()},
		AppointmentID: apt.ID,
		PatientID:     f.patient.ID,
		DoctorID:      f.doctorD.ID,
		Status:        model.PrescriptionStatusActive,
	}
	f.prescriptions.rows[rx.ID] = rx

	_, err = f.svc.MarkPrescriptionReceived(ctx, model.Caller{ID: uuid.New(), Role: model.RolePatient}, rx.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.MarkPrescriptionReceived(ctx, f.patient, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	got, err := f.svc.MarkPrescriptionReceived(ctx, f.patient, rx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusCompleted, got.Status)

	_, err = f.svc.MarkPrescriptionReceived(ctx, f.patient, rx.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.prescriptions.updates)

	stored, err := f.appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
	assert.Contains(t, f.events.types(), model.EventPrescriptionReceived)
}

func TestGetIsPartyScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.doctorD, nextThursday)

	_, err := f.svc.Get(ctx, f.patient, apt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.doctorD, apt.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, f.doctorE, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))

	// A doctor id presented with the patient role is not the patient.
	_, err = f.svc.Get(ctx, model.Caller{ID: f.doctorD.ID, Role: model.RolePatient}, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestWritesAreAudited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auditor := new(mockAuditor)
	auditor.On("Log", mock.Anything, f.patient, model.AuditActionCreate, model.AuditEntityAppointment, mock.Anything, mock.Anything).Return(nil).Once()
	auditor.On("Log", mock.Anything, f.patient, model.AuditActionCancel, model.AuditEntityAppointment, mock.Anything, mock.Anything).Return(errors.New("audit down")).Once()
	f.svc.auditor = auditor

	apt := f.book(t, f.doctorD, nextThursday)
	_, err := f.svc.Cancel(ctx, f.patient, apt.ID)
	require.NoError(t, err, "audit failures must not fail the write")

	auditor.AssertExpectations(t)
}
