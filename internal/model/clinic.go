package model

import (
	"github.com/lib/pq"
)

type Clinic struct {
	Base
	Name        string         `db:"name" json:"name"`
	Email       string         `db:"email" json:"email"`
	Phone       string         `db:"phone" json:"phone"`
	Address     string         `db:"address" json:"address"`
	City        string         `db:"city" json:"city"`
	Country     string         `db:"country" json:"country"`
	Specialties pq.StringArray `db:"specialties" json:"specialties"`
	Status      int            `db:"status" json:"status"`
	AdminID     *int64         `db:"admin_id" json:"admin_id,omitempty"`
}

type ClinicRequest struct {
	Name        string   `json:"name" binding:"required,max=191"`
	Email       string   `json:"email" binding:"required,email"`
	Phone       string   `json:"phone" binding:"max=30"`
	Address     string   `json:"address" binding:"max=500"`
	City        string   `json:"city" binding:"max=100"`
	Country     string   `json:"country" binding:"max=100"`
	Specialties []string `json:"specialties"`
	Status      *int     `json:"status" binding:"omitempty,oneof=0 1"`
	AdminID     *int64   `json:"admin_id"`
}

type ClinicFilters struct {
	Search string `form:"search"`
	Status *int   `form:"status"`
	// IDs restricts the result; empty means no restriction.
	IDs []int64 `form:"-"`
	Pagination
}

type BulkStatusRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1"`
	Status *int    `json:"status" binding:"required,oneof=0 1"`
}

type ClinicExport struct {
	Clinics []*Clinic `json:"clinics"`
}
