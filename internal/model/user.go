package model

// Role names
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleClinicAdmin   Role = "clinic_admin"
	RoleDoctor        Role = "doctor"
	RoleReceptionist  Role = "receptionist"
	RolePatient       Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleClinicAdmin, RoleDoctor, RoleReceptionist, RolePatient:
		return true
	}
	return false
}

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a system user
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Phone        string `json:"phone" db:"phone"`
	Role         Role   `json:"role" db:"role"`
	Status       string `json:"status" db:"status"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Staff is a doctor or receptionist together with the clinic it works at.
type Staff struct {
	User
	ClinicID   int64  `json:"clinic_id" db:"clinic_id"`
	ClinicName string `json:"clinic_name" db:"clinic_name"`
}

type StaffRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=30"`
	ClinicID  int64  `json:"clinic_id"`
	Status    string `json:"status" binding:"omitempty,oneof=active inactive"`
}

type UpdateStaffRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	ClinicID  *int64  `json:"clinic_id"`
	Status    *string `json:"status" binding:"omitempty,oneof=active inactive"`
}

type StaffFilters struct {
	Role     Role   `form:"-"`
	ClinicID int64  `form:"clinic_id"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Pagination
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID int64
	Email  string
	Role   Role
	// ClinicID is set for roles bound to a single clinic.
	ClinicID int64
}

func (a *Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

type StaffStatusRequest struct {
	// Status is optional; an empty value toggles the current one.
	Status string `json:"status" binding:"omitempty,oneof=active inactive"`
}

type StaffExport struct {
	Staff []*Staff `json:"staff"`
}
