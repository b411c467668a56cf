package rbac

import (
	"github.com/jwalitptl/clinicare-api/internal/model"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type Permission string

const (
	PermClinicRead        Permission = "clinic:read"
	PermClinicWrite       Permission = "clinic:write"
	PermClinicAdmin       Permission = "clinic:admin"
	PermServiceRead       Permission = "doctor_service:read"
	PermServiceWrite      Permission = "doctor_service:write"
	PermSessionRead       Permission = "doctor_session:read"
	PermSessionWrite      Permission = "doctor_session:write"
	PermLeaveRead         Permission = "clinic_schedule:read"
	PermLeaveWrite        Permission = "clinic_schedule:write"
	PermReceptionistRead  Permission = "receptionist:read"
	PermReceptionistWrite Permission = "receptionist:write"
	PermDoctorRead        Permission = "doctor:read"
	PermDoctorWrite       Permission = "doctor:write"
	PermAppointmentRead   Permission = "appointment:read"
	PermAppointmentBook   Permission = "appointment:book"
	PermAppointmentManage Permission = "appointment:manage"
	PermEncounterRead     Permission = "encounter:read"
	PermEncounterWrite    Permission = "encounter:write"
	PermConfigRead        Permission = "config:read"
	PermConfigWrite       Permission = "config:write"
)

// Policy is the static role to permission table.
type Policy struct {
	grants map[model.Role]map[Permission]bool
}

func grant(perms ...Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

func NewPolicy() *Policy {
	return &Policy{grants: map[model.Role]map[Permission]bool{
		model.RoleClinicAdmin: grant(
			PermClinicRead, PermClinicWrite,
			PermServiceRead, PermServiceWrite,
			PermSessionRead, PermSessionWrite,
			PermLeaveRead, PermLeaveWrite,
			PermReceptionistRead, PermReceptionistWrite,
			PermDoctorRead, PermDoctorWrite,
			PermAppointmentRead, PermAppointmentBook, PermAppointmentManage,
			PermEncounterRead, PermEncounterWrite,
			PermConfigRead,
		),
		model.RoleReceptionist: grant(
			PermClinicRead,
			PermServiceRead, PermServiceWrite,
			PermSessionRead, PermSessionWrite,
			PermLeaveRead, PermLeaveWrite,
			PermDoctorRead,
			PermAppointmentRead, PermAppointmentBook, PermAppointmentManage,
			PermEncounterRead, PermEncounterWrite,
			PermConfigRead,
		),
		model.RoleDoctor: grant(
			PermClinicRead,
			PermServiceRead, PermServiceWrite,
			PermSessionRead, PermSessionWrite,
			PermLeaveRead, PermLeaveWrite,
			PermAppointmentRead, PermAppointmentManage,
			PermEncounterRead, PermEncounterWrite,
			PermConfigRead,
		),
		model.RolePatient: grant(
			PermClinicRead,
			PermServiceRead,
			PermLeaveRead,
			PermAppointmentRead, PermAppointmentBook,
			PermEncounterRead,
			PermConfigRead,
		),
	}}
}

// Allows reports whether role holds perm. Administrators hold everything.
func (p *Policy) Allows(role model.Role, perm Permission) bool {
	if role == model.RoleAdministrator {
		return true
	}
	return p.grants[role][perm]
}

// ResolveClinic returns the clinic an actor operates on. Clinic-bound roles
// are pinned to their own clinic whatever they asked for.
func ResolveClinic(actor *model.Actor, requested int64) int64 {
	if actor.Is(model.RoleClinicAdmin, model.RoleReceptionist) {
		return actor.ClinicID
	}
	return requested
}

// ResolveDoctor returns the doctor an actor operates on. Doctors may only
// act on themselves.
func ResolveDoctor(actor *model.Actor, requested int64) (int64, error) {
	if actor.Role != model.RoleDoctor {
		return requested, nil
	}
	if requested != 0 && requested != actor.UserID {
		return 0, apperrors.Forbidden("doctors can only manage their own records")
	}
	return actor.UserID, nil
}

// CanAccessClinic reports whether the actor may touch records of clinicID.
func CanAccessClinic(actor *model.Actor, clinicID int64) bool {
	if actor.Is(model.RoleClinicAdmin, model.RoleReceptionist) {
		return actor.ClinicID == clinicID
	}
	return true
}
