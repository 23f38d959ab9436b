package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DoctorStatus represents a doctor's availability state.
// Status is mutated exclusively through the availability service; nothing
// else in the system writes this column.
type DoctorStatus string

const (
	DoctorStatusOffline DoctorStatus = "offline"
	DoctorStatusOnline  DoctorStatus = "online"
	DoctorStatusBusy    DoctorStatus = "busy"
)

// ParseDoctorStatus parses a raw status string at the boundary. Statuses are
// never compared on loose string forms internally.
func ParseDoctorStatus(s string) (DoctorStatus, error) {
	switch DoctorStatus(strings.ToLower(s)) {
	case DoctorStatusOffline:
		return DoctorStatusOffline, nil
	case DoctorStatusOnline:
		return DoctorStatusOnline, nil
	case DoctorStatusBusy:
		return DoctorStatusBusy, nil
	default:
		return "", fmt.Errorf("unknown doctor status %q", s)
	}
}

// DoctorProfile holds the doctor-specific attributes: clinical specialty and
// the availability status consultations reserve against.
type DoctorProfile struct {
	UserID    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialty string       `gorm:"type:varchar(100);not null;index" json:"specialty"`
	Status    DoctorStatus `gorm:"type:varchar(20);not null;default:'offline';index" json:"status"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// IsOnline checks if the doctor can be selected for a new consultation
func (d *DoctorProfile) IsOnline() bool {
	return d.Status == DoctorStatusOnline
}

// IsBusy checks if the doctor is currently assigned to a consultation
func (d *DoctorProfile) IsBusy() bool {
	return d.Status == DoctorStatusBusy
}
