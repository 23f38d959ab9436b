package entity

import (
	"time"

	"github.com/google/uuid"
)

// TargetSystemInternal marks ledger entries that are hidden from the
// patient-facing privacy timeline.
const TargetSystemInternal = "System Internal"

// PrivacyLog is one entry of the append-only privacy audit trail. Entries are
// never mutated; deletion happens only through an out-of-band admin purge.
type PrivacyLog struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConsultationID *uuid.UUID `gorm:"type:uuid;index" json:"consultation_id,omitempty"`
	ActorID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorName      string     `gorm:"type:varchar(300);not null" json:"actor_name"`
	Action         string     `gorm:"type:varchar(100);not null;index" json:"action"`
	TargetData     string     `gorm:"type:varchar(300);not null" json:"target_data"`
	Purpose        string     `gorm:"type:varchar(300);not null" json:"purpose"`
	Timestamp      time.Time  `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (PrivacyLog) TableName() string {
	return "privacy_logs"
}

// Ledger actions recorded by the consultation workflow
const (
	AuditActionSubmittedTriage   = "Submitted Triage Form"
	AuditActionSystemAssigned    = "System Assigned Patient"
	AuditActionAuthorizedAccess  = "Authorized Access"
	AuditActionPaymentDeclined   = "Payment Declined"
	AuditActionEnteredRoom       = "Entered Secure Room"
	AuditActionAppendedNotes     = "Appended Clinical Notes"
	AuditActionTransferred       = "Transferred Patient"
	AuditActionReceivedTransfer  = "Received Patient Transfer"
	AuditActionEndedConsultation = "Ended Consultation"
	AuditActionOnboardedDoctor   = "Onboarded New Doctor"
	AuditActionRemovedDoctor     = "Removed Doctor"
)
