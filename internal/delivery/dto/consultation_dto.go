package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type StartTriageRequest struct {
	Specialty string `json:"specialty" validate:"required,min=2,max=100"`
	Symptoms  string `json:"symptoms" validate:"required,min=2"`
}

type ResolveBillingRequest struct {
	ConsultationID uuid.UUID `json:"consultation_id" validate:"required"`
	Outcome        string    `json:"outcome" validate:"required,oneof=success fail"`
}

type SaveNotesRequest struct {
	Notes string `json:"notes" validate:"required"`
}

type TransferRequest struct {
	NewDoctorID uuid.UUID `json:"new_doctor_id" validate:"required"`
	Reason      string    `json:"reason" validate:"max=300"`
}

// Response DTOs

type ConsultationResponse struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	Specialty string     `json:"specialty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ConsultationHistoryItem is one completed past encounter, decrypted for the
// treating doctor. Fields that cannot be decrypted carry a placeholder.
type ConsultationHistoryItem struct {
	ID         uuid.UUID `json:"id"`
	Date       time.Time `json:"date"`
	DoctorName string    `json:"doctor_name"`
	Specialty  string    `json:"specialty"`
	Symptoms   string    `json:"symptoms"`
	Notes      string    `json:"notes"`
	Transcript string    `json:"transcript,omitempty"`
}

// RoomViewResponse is what a participant receives on entering the secure
// consultation room.
type RoomViewResponse struct {
	Consultation ConsultationResponse      `json:"consultation"`
	PatientName  string                    `json:"patient_name"`
	DoctorName   string                    `json:"doctor_name"`
	Symptoms     string                    `json:"symptoms"`
	Notes        string                    `json:"notes,omitempty"`
	History      []ConsultationHistoryItem `json:"history,omitempty"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}
