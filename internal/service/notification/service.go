// Package notification emails patients when their appointments change.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/consult-api/internal/email"
	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/pkg/logger"
	"github.com/jwalitptl/consult-api/pkg/messaging"
)

// Topics the consumer subscribes to.
var Topics = []string{
	model.EventAppointmentBooked,
	model.EventAppointmentCancelled,
	model.EventAppointmentCompleted,
}

type Consumer struct {
	patients repository.PatientRepository
	emailSvc email.Service
	logger   *logger.Logger
}

func NewConsumer(patients repository.PatientRepository, emailSvc email.Service, log *logger.Logger) *Consumer {
	return &Consumer{patients: patients, emailSvc: emailSvc, logger: log}
}

// Subscribe attaches the consumer to every topic in Topics.
func (c *Consumer) Subscribe(ctx context.Context, broker messaging.MessageBroker) error {
	for _, topic := range Topics {
		if err := broker.Subscribe(ctx, topic, func(raw []byte) error {
			return c.Handle(ctx, raw)
		}); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	return nil
}

// Handle decodes one published message and emails the patient.
func (c *Consumer) Handle(ctx context.Context, raw []byte) error {
	var msg messaging.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	var evt model.AppointmentEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", msg.Type, err)
	}

	subject, body, ok := compose(msg.Type, &evt)
	if !ok {
		return nil
	}

	patient, err := c.patients.Get(ctx, evt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to resolve patient %s: %w", evt.PatientID, err)
	}

	if err := c.emailSvc.Send(ctx, patient.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Type, err)
	}

	c.logger.Debug("notification sent",
		"event_type", msg.Type,
		"appointment_id", evt.AppointmentID.String())
	return nil
}

func compose(eventType string, evt *model.AppointmentEvent) (subject, body string, ok bool) {
	switch eventType {
	case model.EventAppointmentBooked:
		return "Appointment booked",
			fmt.Sprintf("Hello %s,\n\nYour appointment with %s on %s is booked.\n", evt.PatientName, evt.DoctorName, evt.Date),
			true
	case model.EventAppointmentCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Hello %s,\n\nYour appointment with %s on %s has been cancelled.\n", evt.PatientName, evt.DoctorName, evt.Date),
			true
	case model.EventAppointmentCompleted:
		return "Consultation completed",
			fmt.Sprintf("Hello %s,\n\n%s has marked your consultation on %s as completed.\n", evt.PatientName, evt.DoctorName, evt.Date),
			true
	}
	return "", "", false
}
