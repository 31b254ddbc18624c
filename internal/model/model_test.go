package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name    string
		raw     string
		loc     *time.Location
		want    Date
		wantErr bool
	}{
		{name: "calendar date", raw: "2026-10-22", want: NewDate(2026, time.October, 22)},
		{name: "padded", raw: " 2026-10-22 ", want: NewDate(2026, time.October, 22)},
		{name: "rfc3339 shifted into clinic zone", raw: "2026-10-21T20:00:00Z", loc: kolkata, want: NewDate(2026, time.October, 22)},
		{name: "rfc3339 utc", raw: "2026-10-21T20:00:00Z", loc: time.UTC, want: NewDate(2026, time.October, 21)},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "next thursday", wantErr: true},
		{name: "impossible day", raw: "2026-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw, tt.loc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateJSONAndScan(t *testing.T) {
	d := NewDate(2026, time.October, 22)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-22"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, d, scanned)
	require.NoError(t, scanned.Scan([]byte("2026-10-23T00:00:00Z")))
	assert.Equal(t, NewDate(2026, time.October, 23), scanned)
}

func TestTodayUsesLocation(t *testing.T) {
	now := time.Date(2026, 10, 17, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2026, time.October, 17), Today(now, time.UTC))
	assert.Equal(t, NewDate(2026, time.October, 18), Today(now, time.FixedZone("JST", 9*3600)))
}

func TestStatusHelpers(t *testing.T) {
	assert.False(t, AppointmentStatusBooked.Terminal())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
	assert.False(t, AppointmentStatus("pending").Valid())

	assert.Equal(t, PaymentStatusPaid, PaymentStatusUnpaid.Toggle())
	assert.Equal(t, PaymentStatusUnpaid, PaymentStatusPaid.Toggle())
}

func TestDocumentBelongsTo(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	apt := &Appointment{Base: Base{ID: uuid.New()}, PatientID: patientID, DoctorID: doctorID}
	other := uuid.New()

	linked := &Document{AppointmentID: &apt.ID, PatientID: patientID, DoctorID: doctorID}
	linkedElsewhere := &Document{AppointmentID: &other, PatientID: patientID, DoctorID: doctorID}
	legacy := &Document{PatientID: patientID, DoctorID: doctorID}
	legacyOtherDoctor := &Document{PatientID: patientID, DoctorID: uuid.New()}

	assert.True(t, linked.BelongsTo(apt))
	assert.False(t, linkedElsewhere.BelongsTo(apt))
	assert.True(t, legacy.BelongsTo(apt))
	assert.False(t, legacyOtherDoctor.BelongsTo(apt))
}

func TestMedicinesValue(t *testing.T) {
	var empty Medicines
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var m Medicines
	require.NoError(t, m.Scan([]byte(`[{"name":"Paracetamol","dosage":"500mg"}]`)))
	require.Len(t, m, 1)
	assert.Equal(t, "Paracetamol", m[0].Name)
}
