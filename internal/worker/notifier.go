package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/email"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/pkg/messaging"
	"github.com/jwalitptl/clinicare-api/pkg/metrics"
)

// Notifier mails booking confirmations for appointment events published by
// the outbox processor.
type Notifier struct {
	broker  messaging.Broker
	users   repository.UserRepository
	clinics repository.ClinicRepository
	mailer  email.Service
	metrics *metrics.Metrics
}

func NewNotifier(
	broker messaging.Broker,
	users repository.UserRepository,
	clinics repository.ClinicRepository,
	mailer email.Service,
	m *metrics.Metrics,
) *Notifier {
	return &Notifier{
		broker:  broker,
		users:   users,
		clinics: clinics,
		mailer:  mailer,
		metrics: m,
	}
}

// Start subscribes and handles messages until ctx is done or the
// subscription closes.
func (n *Notifier) Start(ctx context.Context) error {
	messages, err := n.broker.Subscribe(ctx, model.EventAppointmentBooked)
	if err != nil {
		return fmt.Errorf("failed to subscribe notifier: %w", err)
	}

	log.Info().Str("channel", model.EventAppointmentBooked).Msg("Notifier subscribed")
	for msg := range messages {
		status := "sent"
		if err := n.Handle(ctx, msg); err != nil {
			status = "failed"
			log.Error().Err(err).Str("channel", msg.Channel).Msg("Failed to send notification")
		}
		if n.metrics != nil {
			n.metrics.NotificationsSent.WithLabelValues(msg.Channel, status).Inc()
		}
	}
	return nil
}

// Handle sends the confirmation for one message.
func (n *Notifier) Handle(ctx context.Context, msg messaging.Message) error {
	var evt model.AppointmentEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", msg.Channel, err)
	}

	patient, err := n.users.Get(ctx, evt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to load patient %d: %w", evt.PatientID, err)
	}
	doctor, err := n.users.Get(ctx, evt.DoctorID)
	if err != nil {
		return fmt.Errorf("failed to load doctor %d: %w", evt.DoctorID, err)
	}
	clinic, err := n.clinics.Get(ctx, evt.ClinicID)
	if err != nil {
		return fmt.Errorf("failed to load clinic %d: %w", evt.ClinicID, err)
	}

	return n.mailer.SendAppointmentBooked(ctx, patient.Email, email.AppointmentNotice{
		PatientName: patient.FullName(),
		DoctorName:  doctor.FullName(),
		ClinicName:  clinic.Name,
		Date:        evt.AppointmentDate,
		StartTime:   evt.StartTime,
	})
}
