package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

func TestPolicy_Allows(t *testing.T) {
	p := NewPolicy()

	tests := []struct {
		role model.Role
		perm Permission
		want bool
	}{
		{model.RoleAdministrator, PermClinicAdmin, true},
		{model.RoleAdministrator, PermConfigWrite, true},
		{model.RoleClinicAdmin, PermClinicAdmin, false},
		{model.RoleClinicAdmin, PermReceptionistWrite, true},
		{model.RoleReceptionist, PermReceptionistWrite, false},
		{model.RoleReceptionist, PermAppointmentBook, true},
		{model.RoleDoctor, PermSessionWrite, true},
		{model.RoleDoctor, PermDoctorWrite, false},
		{model.RolePatient, PermAppointmentBook, true},
		{model.RolePatient, PermLeaveWrite, false},
		{model.Role("ghost"), PermClinicRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allows(tt.role, tt.perm))
		})
	}
}

func TestResolveClinic_PinsClinicBoundRoles(t *testing.T) {
	receptionist := &model.Actor{UserID: 3, Role: model.RoleReceptionist, ClinicID: 7}
	admin := &model.Actor{UserID: 1, Role: model.RoleAdministrator}

	assert.Equal(t, int64(7), ResolveClinic(receptionist, 99))
	assert.Equal(t, int64(7), ResolveClinic(receptionist, 0))
	assert.Equal(t, int64(99), ResolveClinic(admin, 99))

	assert.True(t, CanAccessClinic(receptionist, 7))
	assert.False(t, CanAccessClinic(receptionist, 8))
	assert.True(t, CanAccessClinic(admin, 8))
}

func TestResolveDoctor(t *testing.T) {
	doctor := &model.Actor{UserID: 5, Role: model.RoleDoctor}

	id, err := ResolveDoctor(doctor, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	_, err = ResolveDoctor(doctor, 6)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	id, err = ResolveDoctor(&model.Actor{Role: model.RoleClinicAdmin, ClinicID: 2}, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
}
