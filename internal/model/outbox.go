package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Event types written to the outbox.
const (
	EventClinicCreated      = "clinic.created"
	EventClinicDeleted      = "clinic.deleted"
	EventSessionsChanged    = "doctor_sessions.changed"
	EventLeaveCreated       = "leave.created"
	EventAppointmentBooked  = "appointment.booked"
	EventAppointmentUpdated = "appointment.status_changed"
	EventStaffCreated       = "staff.created"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// AppointmentEvent is the payload of appointment events.
type AppointmentEvent struct {
	AppointmentID   int64             `json:"appointment_id"`
	ClinicID        int64             `json:"clinic_id"`
	DoctorID        int64             `json:"doctor_id"`
	PatientID       int64             `json:"patient_id"`
	AppointmentDate string            `json:"appointment_date"`
	StartTime       string            `json:"start_time"`
	Status          AppointmentStatus `json:"status"`
}
