package handler

import (
	"encoding/json"
	"net/http"

	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/delivery/http/middleware"
	"telehealth-consultation-service/internal/service"
	"telehealth-consultation-service/internal/usecase"
	"telehealth-consultation-service/pkg/response"
	"telehealth-consultation-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
	validator     *validator.CustomValidator
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase, validator *validator.CustomValidator) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		validator:     validator,
	}
}

// ToggleStatus flips the calling doctor between offline and online. Busy
// doctors must finish or hand off their consultation first.
func (h *DoctorHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	status, err := h.doctorUsecase.ToggleStatus(r.Context(), doctorID)
	if err != nil {
		switch err {
		case service.ErrDoctorProfileNotFound:
			response.NotFound(w, "Doctor profile not found")
		case service.ErrDoctorBusy:
			response.Conflict(w, "You cannot change availability during an active consultation")
		default:
			response.InternalServerError(w, "Failed to toggle status")
		}
		return
	}

	response.Success(w, http.StatusOK, "Status updated successfully", status)
}

func (h *DoctorHandler) OnboardDoctor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.OnboardDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.OnboardDoctor(r.Context(), adminID, &req)
	if err != nil {
		switch err {
		case usecase.ErrEmailAlreadyExists:
			response.Conflict(w, "Email already exists")
		default:
			response.InternalServerError(w, "Failed to onboard doctor")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Doctor onboarded successfully", doctor)
}

func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.ListDoctors(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) RemoveDoctor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	if err := h.doctorUsecase.RemoveDoctor(r.Context(), adminID, doctorID); err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrDoctorHasConsultations:
			response.Conflict(w, "Doctor has consultations in progress")
		default:
			response.InternalServerError(w, "Failed to remove doctor")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor removed successfully", nil)
}
