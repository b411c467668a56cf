package model

type AppointmentStatus string

const (
	AppointmentStatusBooked     AppointmentStatus = "booked"
	AppointmentStatusCheckedIn  AppointmentStatus = "checked_in"
	AppointmentStatusCheckedOut AppointmentStatus = "checked_out"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// CanTransition encodes booked -> checked_in -> checked_out, with cancel
// allowed from any state that is not finished.
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	switch to {
	case AppointmentStatusCancelled:
		return s == AppointmentStatusBooked || s == AppointmentStatusCheckedIn
	case AppointmentStatusCheckedIn:
		return s == AppointmentStatusBooked
	case AppointmentStatusCheckedOut:
		return s == AppointmentStatusCheckedIn
	}
	return false
}

type Appointment struct {
	Base
	ClinicID        int64             `db:"clinic_id" json:"clinic_id"`
	DoctorID        int64             `db:"doctor_id" json:"doctor_id"`
	PatientID       int64             `db:"patient_id" json:"patient_id"`
	AppointmentDate Date              `db:"appointment_date" json:"appointment_date"`
	StartTime       ClockTime         `db:"start_time" json:"start_time"`
	EndTime         ClockTime         `db:"end_time" json:"end_time"`
	VisitType       string            `db:"visit_type" json:"visit_type"`
	Description     string            `db:"description" json:"description"`
	Status          AppointmentStatus `db:"status" json:"status"`
}

func (a *Appointment) Window() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

type CreateAppointmentRequest struct {
	ClinicID        int64     `json:"clinic_id"`
	DoctorID        int64     `json:"doctor_id" binding:"required"`
	PatientID       int64     `json:"patient_id"`
	AppointmentDate string    `json:"appointment_date" binding:"required,isodate"`
	StartTime       ClockTime `json:"start_time"`
	VisitType       string    `json:"visit_type" binding:"max=100"`
	Description     string    `json:"description" binding:"max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=checked_in checked_out cancelled"`
}

type AppointmentFilters struct {
	ClinicID  int64             `form:"clinic_id"`
	DoctorID  int64             `form:"doctor_id"`
	PatientID int64             `form:"patient_id"`
	Status    AppointmentStatus `form:"status"`
	From      string            `form:"from" binding:"omitempty,isodate"`
	To        string            `form:"to" binding:"omitempty,isodate"`
	Pagination
}

// DateCount is the number of active appointments on a date.
type DateCount struct {
	Date  Date `db:"appointment_date"`
	Count int  `db:"count"`
}
