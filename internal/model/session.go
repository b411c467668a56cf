package model

// Session is one bookable window of a doctor at a clinic on a weekday.
// A day schedule with breaks is stored as several rows sharing a group:
// the first row is the parent and the rest point at it through ParentID.
type Session struct {
	Base
	ParentID  *int64    `json:"parent_id,omitempty" db:"parent_id"`
	DoctorID  int64     `json:"doctor_id" db:"doctor_id"`
	ClinicID  int64     `json:"clinic_id" db:"clinic_id"`
	Day       Weekday   `json:"day" db:"day"`
	StartTime ClockTime `json:"start_time" db:"start_time"`
	EndTime   ClockTime `json:"end_time" db:"end_time"`
	TimeSlot  int       `json:"time_slot" db:"time_slot"`
}

// GroupID is the id shared by every row produced from the same day schedule.
func (s *Session) GroupID() int64 {
	if s.ParentID != nil {
		return *s.ParentID
	}
	return s.ID
}

// Duration in minutes.
func (s *Session) Duration() int {
	return int(s.EndTime) - int(s.StartTime)
}

// Interval is a half-open [Start, End) clock window.
type Interval struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Overlaps reports whether the two windows share any minute.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

// DaySchedule is the per-day input of the session editor.
type DaySchedule struct {
	Day         Weekday    `json:"day" binding:"required,weekday"`
	Enabled     bool       `json:"enabled"`
	MainSession Interval   `json:"main_session"`
	Breaks      []Interval `json:"breaks"`
}

// SessionScheduleRequest creates or replaces the weekly sessions of a doctor at a clinic.
type SessionScheduleRequest struct {
	DoctorID int64         `json:"doctor_id"`
	ClinicID int64         `json:"clinic_id"`
	TimeSlot int           `json:"time_slot" binding:"required,min=5,max=120"`
	Days     []DaySchedule `json:"days" binding:"required,len=7,dive"`
}

type SessionFilters struct {
	DoctorID int64 `form:"doctor_id"`
	ClinicID int64 `form:"clinic_id"`
}

// SessionGroup is the API view of one day schedule.
type SessionGroup struct {
	ID          int64      `json:"id"`
	DoctorID    int64      `json:"doctor_id"`
	ClinicID    int64      `json:"clinic_id"`
	Day         Weekday    `json:"day"`
	TimeSlot    int        `json:"time_slot"`
	MainSession Interval   `json:"main_session"`
	Breaks      []Interval `json:"breaks"`
	Rows        []*Session `json:"rows"`
}

// UpdateSessionRequest edits one day schedule in place.
type UpdateSessionRequest struct {
	TimeSlot    int        `json:"time_slot" binding:"required,min=5,max=120"`
	Day         Weekday    `json:"day" binding:"required,weekday"`
	MainSession Interval   `json:"main_session"`
	Breaks      []Interval `json:"breaks"`
}
