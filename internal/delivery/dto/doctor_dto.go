package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

type OnboardDoctorRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FullName  string `json:"full_name" validate:"required,min=2,max=255"`
	Specialty string `json:"specialty" validate:"required,min=2,max=100"`
}

// Response DTOs

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Specialty string    `json:"specialty"`
	Status    string    `json:"status"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}

type DoctorStatusResponse struct {
	Status string `json:"status"`
}
