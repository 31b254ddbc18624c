package model

// QueueEntry is one row of a doctor's queue or history view.
type QueueEntry struct {
	*Appointment
	HasPrescription bool `json:"has_prescription"`
	DocumentCount   int  `json:"document_count"`
}

// TimelineEntry is one row of a patient's timeline.
type TimelineEntry struct {
	*Appointment
	Prescription *Prescription `json:"prescription,omitempty"`
	Documents    []*Document   `json:"documents"`
}

// PatientHistoryEntry is what a doctor sees when looking up a patient they
// have treated.
type PatientHistoryEntry struct {
	*Appointment
	HasDocuments bool `json:"has_documents"`
}
