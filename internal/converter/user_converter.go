package converter

import (
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      entity.RoleName(user.RoleID),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		response.Specialty = user.DoctorProfile.Specialty
		response.Status = string(user.DoctorProfile.Status)
	}

	return response
}

// DoctorToResponse converts a doctor User entity to DoctorResponse DTO
func DoctorToResponse(user *entity.User) *dto.DoctorResponse {
	if user == nil {
		return nil
	}

	response := &dto.DoctorResponse{
		ID:       user.ID,
		FullName: user.FullName,
	}
	if user.DoctorProfile != nil {
		response.Specialty = user.DoctorProfile.Specialty
		response.Status = string(user.DoctorProfile.Status)
	}

	return response
}

// DoctorsToResponses converts a slice of doctor User entities to DTOs
func DoctorsToResponses(users []entity.User) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(users))
	for i, user := range users {
		resp := DoctorToResponse(&user)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// DoctorProfilesToResponses converts profile rows (with preloaded users) to DTOs
func DoctorProfilesToResponses(profiles []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i, profile := range profiles {
		responses[i] = dto.DoctorResponse{
			ID:        profile.UserID,
			FullName:  profile.User.FullName,
			Specialty: profile.Specialty,
			Status:    string(profile.Status),
		}
	}
	return responses
}
