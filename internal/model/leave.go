package model

import (
	"github.com/lib/pq"
)

type LeaveModule string

const (
	LeaveModuleDoctor LeaveModule = "doctor"
	LeaveModuleClinic LeaveModule = "clinic"
)

type SelectionMode string

const (
	SelectionSingle   SelectionMode = "single"
	SelectionRange    SelectionMode = "range"
	SelectionMultiple SelectionMode = "multiple"
)

const (
	StatusInactive = 0
	StatusActive   = 1
)

// Leave marks a doctor or a whole clinic unavailable. Time-specific leaves
// block only part of a day.
type Leave struct {
	Base
	ModuleType    LeaveModule    `json:"module_type" db:"module_type"`
	ModuleID      int64          `json:"module_id" db:"module_id"`
	SelectionMode SelectionMode  `json:"selection_mode" db:"selection_mode"`
	StartDate     Date           `json:"start_date" db:"start_date"`
	EndDate       Date           `json:"end_date" db:"end_date"`
	SelectedDates pq.StringArray `json:"selected_dates" db:"selected_dates"`
	TimeSpecific  bool           `json:"time_specific" db:"time_specific"`
	StartTime     *ClockTime     `json:"start_time,omitempty" db:"start_time"`
	EndTime       *ClockTime     `json:"end_time,omitempty" db:"end_time"`
	Description   string         `json:"description" db:"description"`
	Status        int            `json:"status" db:"status"`
}

type LeaveRequest struct {
	ModuleType    LeaveModule   `json:"module_type" binding:"required,oneof=doctor clinic"`
	ModuleID      int64         `json:"module_id" binding:"required"`
	SelectionMode SelectionMode `json:"selection_mode" binding:"required,oneof=single range multiple"`
	StartDate     Date          `json:"start_date"`
	EndDate       Date          `json:"end_date"`
	SelectedDates []string      `json:"selected_dates" binding:"omitempty,dive,isodate"`
	TimeSpecific  bool          `json:"time_specific"`
	StartTime     *ClockTime    `json:"start_time"`
	EndTime       *ClockTime    `json:"end_time"`
	Description   string        `json:"description" binding:"max=1000"`
	Status        *int          `json:"status" binding:"omitempty,oneof=0 1"`
}

type LeaveFilters struct {
	ModuleType LeaveModule `form:"module_type"`
	ModuleID   int64       `form:"module_id"`
	Status     *int        `form:"status"`
	// ClinicID restricts results to the clinic and the doctors mapped to it.
	ClinicID int64 `form:"-"`
	Pagination
}

// Unavailability is the answer of the availability query.
type Unavailability struct {
	OffDays        []Weekday `json:"off_days"`
	Holidays       []string  `json:"holidays"`
	ClinicHolidays []string  `json:"clinic_holidays"`
	DoctorHolidays []string  `json:"doctor_holidays"`
}
