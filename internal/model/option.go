package model

import (
	"encoding/json"
	"time"
)

// Option is one key of the configuration store.
type Option struct {
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

type OptionRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// Well-known option keys.
const (
	OptionTimeFormat          = "time_format"
	OptionDateFormat          = "date_format"
	OptionAppointmentRestrict = "appointment_restrict"
)

// AppointmentRestriction bounds how far ahead patients may book.
type AppointmentRestriction struct {
	BookBeforeDays int `json:"book_before_days"`
	BookAfterDays  int `json:"book_after_days"`
}
