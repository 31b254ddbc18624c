package model

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Patient struct {
	Base
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// Doctor is read-only from this service's point of view. AvailableDays holds
// whatever free text was entered at registration ("Mon", "wednesday ", ...).
type Doctor struct {
	Base
	Name             string          `db:"name" json:"name"`
	Email            string          `db:"email" json:"email"`
	Specialization   string          `db:"specialization" json:"specialization"`
	ConsultationFee  decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
	AvailableDays    pq.StringArray  `db:"available_days" json:"available_days"`
	AvailableTimings string          `db:"available_timings" json:"available_timings"`
}

// DoctorListing is the directory view handed to patients choosing a doctor.
type DoctorListing struct {
	*Doctor
	Weekdays []string `json:"weekdays"`
}
