package model

// Service is an entry of the clinical service catalogue.
type Service struct {
	Base
	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category"`
}

// DoctorService prices a catalogue service for one doctor at one clinic.
type DoctorService struct {
	Base
	ServiceID   int64   `db:"service_id" json:"service_id"`
	DoctorID    int64   `db:"doctor_id" json:"doctor_id"`
	ClinicID    int64   `db:"clinic_id" json:"clinic_id"`
	Charges     float64 `db:"charges" json:"charges"`
	Duration    int     `db:"duration" json:"duration"`
	Status      int     `db:"status" json:"status"`
	ServiceName string  `db:"service_name" json:"service_name"`
	Category    string  `db:"category" json:"category"`
	DoctorName  string  `db:"doctor_name" json:"doctor_name"`
	ClinicName  string  `db:"clinic_name" json:"clinic_name"`
}

type DoctorServiceRequest struct {
	ServiceID   int64   `json:"service_id"`
	ServiceName string  `json:"service_name" binding:"max=191"`
	Category    string  `json:"category" binding:"max=100"`
	DoctorID    int64   `json:"doctor_id" binding:"required"`
	ClinicID    int64   `json:"clinic_id"`
	Charges     float64 `json:"charges" binding:"min=0"`
	Duration    int     `json:"duration" binding:"omitempty,min=5,max=480"`
	Status      *int    `json:"status" binding:"omitempty,oneof=0 1"`
}

type UpdateDoctorServiceRequest struct {
	Charges  *float64 `json:"charges" binding:"omitempty,min=0"`
	Duration *int     `json:"duration" binding:"omitempty,min=5,max=480"`
	Status   *int     `json:"status" binding:"omitempty,oneof=0 1"`
}

type DoctorServiceFilters struct {
	ClinicID int64  `form:"clinic_id"`
	DoctorID int64  `form:"doctor_id"`
	Status   *int   `form:"status"`
	Search   string `form:"search"`
	Pagination
}

// ServiceExport is the payload of the export endpoint.
type ServiceExport struct {
	Services []*DoctorService `json:"services"`
}
