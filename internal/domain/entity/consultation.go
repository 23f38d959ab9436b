package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationStatus represents the lifecycle state of a consultation
type ConsultationStatus string

const (
	ConsultationStatusPendingPayment ConsultationStatus = "pending_payment"
	ConsultationStatusActive         ConsultationStatus = "active"
	ConsultationStatusCompleted      ConsultationStatus = "completed"
	ConsultationStatusCancelled      ConsultationStatus = "cancelled"
)

// Consultation represents one telehealth encounter between a patient and the
// currently assigned doctor. The doctor reference is mutable (transfer); all
// free-text clinical fields are stored as opaque encrypted tokens.
type Consultation struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Specialty string             `gorm:"type:varchar(100);not null" json:"specialty"`
	Status    ConsultationStatus `gorm:"type:varchar(20);not null;default:'pending_payment';index" json:"status"`

	// Encrypted PHI fields (opaque tokens, never decrypted by the storage layer)
	SymptomsEnc   string `gorm:"type:text;not null" json:"-"`
	NotesEnc      string `gorm:"type:text" json:"-"`
	TranscriptEnc string `gorm:"type:text" json:"-"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Consultation) TableName() string {
	return "consultations"
}

// IsPendingPayment checks if the consultation awaits billing resolution
func (c *Consultation) IsPendingPayment() bool {
	return c.Status == ConsultationStatusPendingPayment
}

// IsActive checks if the consultation room is open
func (c *Consultation) IsActive() bool {
	return c.Status == ConsultationStatusActive
}

// IsTerminal checks if no further transitions are possible
func (c *Consultation) IsTerminal() bool {
	return c.Status == ConsultationStatusCompleted || c.Status == ConsultationStatusCancelled
}

// IsParticipant checks if the given user is the patient or the currently
// assigned doctor of this consultation
func (c *Consultation) IsParticipant(userID uuid.UUID) bool {
	return c.PatientID == userID || c.DoctorID == userID
}
