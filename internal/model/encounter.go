package model

type EncounterStatus string

const (
	EncounterStatusOpen   EncounterStatus = "open"
	EncounterStatusClosed EncounterStatus = "closed"
)

// Encounter is a clinical visit record linking patient, doctor, clinic and
// optionally the appointment it came from.
type Encounter struct {
	Base
	ClinicID      int64           `db:"clinic_id" json:"clinic_id"`
	DoctorID      int64           `db:"doctor_id" json:"doctor_id"`
	PatientID     int64           `db:"patient_id" json:"patient_id"`
	AppointmentID *int64          `db:"appointment_id" json:"appointment_id,omitempty"`
	EncounterDate Date            `db:"encounter_date" json:"encounter_date"`
	Description   string          `db:"description" json:"description"`
	Status        EncounterStatus `db:"status" json:"status"`
	DoctorName    string          `db:"doctor_name" json:"doctor_name"`
	PatientName   string          `db:"patient_name" json:"patient_name"`
	ClinicName    string          `db:"clinic_name" json:"clinic_name"`
}

type EncounterRequest struct {
	ClinicID      int64  `json:"clinic_id"`
	DoctorID      int64  `json:"doctor_id"`
	PatientID     int64  `json:"patient_id"`
	AppointmentID *int64 `json:"appointment_id"`
	EncounterDate string `json:"encounter_date" binding:"omitempty,isodate"`
	Description   string `json:"description" binding:"max=2000"`
}

type UpdateEncounterRequest struct {
	EncounterDate *string          `json:"encounter_date" binding:"omitempty,isodate"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
	Status        *EncounterStatus `json:"status" binding:"omitempty,oneof=open closed"`
}

type EncounterFilters struct {
	ClinicID  int64           `form:"clinic_id"`
	DoctorID  int64           `form:"doctor_id"`
	PatientID int64           `form:"patient_id"`
	Status    EncounterStatus `form:"status"`
	From      string          `form:"from" binding:"omitempty,isodate"`
	To        string          `form:"to" binding:"omitempty,isodate"`
	Pagination
}

type EncounterExport struct {
	Encounters []*Encounter `json:"encounters"`
}
