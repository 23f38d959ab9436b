package converter

import (
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/entity"
)

// PrivacyLogsToResponses converts ledger entries to DTOs
func PrivacyLogsToResponses(logs []entity.PrivacyLog) []dto.PrivacyLogResponse {
	responses := make([]dto.PrivacyLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = dto.PrivacyLogResponse{
			ID:             log.ID,
			ConsultationID: log.ConsultationID,
			ActorID:        log.ActorID,
			ActorName:      log.ActorName,
			Action:         log.Action,
			TargetData:     log.TargetData,
			Purpose:        log.Purpose,
			Timestamp:      log.Timestamp,
		}
	}
	return responses
}
