package dto

import (
	"time"

	"github.com/google/uuid"
)

type PrivacyLogResponse struct {
	ID             int64      `json:"id"`
	ConsultationID *uuid.UUID `json:"consultation_id,omitempty"`
	ActorID        uuid.UUID  `json:"actor_id"`
	ActorName      string     `json:"actor_name"`
	Action         string     `json:"action"`
	TargetData     string     `json:"target_data"`
	Purpose        string     `json:"purpose"`
	Timestamp      time.Time  `json:"timestamp"`
}

type PrivacyLogListResponse struct {
	Entries []PrivacyLogResponse `json:"entries"`
	Total   int                  `json:"total"`
}
