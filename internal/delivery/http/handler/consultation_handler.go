package handler

import (
	"encoding/json"
	"net/http"

	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/delivery/http/middleware"
	"telehealth-consultation-service/internal/usecase"
	"telehealth-consultation-service/pkg/response"
	"telehealth-consultation-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ConsultationHandler struct {
	consultationUsecase usecase.ConsultationUsecase
	validator           *validator.CustomValidator
}

func NewConsultationHandler(consultationUsecase usecase.ConsultationUsecase, validator *validator.CustomValidator) *ConsultationHandler {
	return &ConsultationHandler{
		consultationUsecase: consultationUsecase,
		validator:           validator,
	}
}

// StartTriage opens a consultation: the patient states a specialty and
// symptoms, the system assigns an available doctor.
func (h *ConsultationHandler) StartTriage(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.StartTriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	consultation, err := h.consultationUsecase.StartTriage(r.Context(), patientID, &req)
	if err != nil {
		switch err {
		case usecase.ErrConsultationInProgress:
			response.Conflict(w, "You already have a consultation in progress")
		case usecase.ErrNoDoctorAvailableForSpecialty:
			response.Conflict(w, "No doctor is currently available for this specialty")
		default:
			response.InternalServerError(w, "Failed to start triage")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Consultation created, awaiting payment", consultation)
}

func (h *ConsultationHandler) ResolveBilling(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.ResolveBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	consultation, err := h.consultationUsecase.ResolveBilling(r.Context(), patientID, &req)
	if err != nil {
		switch err {
		case usecase.ErrConsultationNotFound:
			response.NotFound(w, "Consultation not found")
		case usecase.ErrNotConsultationOwner:
			response.Forbidden(w, "Consultation does not belong to you")
		case usecase.ErrAlreadyResolved:
			response.Conflict(w, "Billing has already been resolved for this consultation")
		default:
			response.InternalServerError(w, "Failed to resolve billing")
		}
		return
	}

	response.Success(w, http.StatusOK, "Billing resolved", consultation)
}

func (h *ConsultationHandler) EnterRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	view, err := h.consultationUsecase.EnterRoom(r.Context(), userID, consultationID)
	if err != nil {
		writeRoomError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Room retrieved successfully", view)
}

func (h *ConsultationHandler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	var req dto.SaveNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.consultationUsecase.SaveNotes(r.Context(), doctorID, consultationID, &req); err != nil {
		switch err {
		case usecase.ErrConsultationNotFound:
			response.NotFound(w, "Consultation not found")
		case usecase.ErrNotAssignedDoctor:
			response.Forbidden(w, "You are not the assigned doctor")
		default:
			response.InternalServerError(w, "Failed to save notes")
		}
		return
	}

	response.Success(w, http.StatusOK, "Notes saved successfully", nil)
}

func (h *ConsultationHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	consultation, err := h.consultationUsecase.Transfer(r.Context(), doctorID, consultationID, &req)
	if err != nil {
		switch err {
		case usecase.ErrConsultationNotFound:
			response.NotFound(w, "Consultation not found")
		case usecase.ErrNotAssignedDoctor:
			response.Forbidden(w, "You are not the assigned doctor")
		case usecase.ErrConsultationNotActive:
			response.Conflict(w, "Consultation is not active")
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Target doctor not found")
		case usecase.ErrTargetNotDoctor:
			response.Error(w, http.StatusBadRequest, "Transfer target is not a doctor", nil)
		case usecase.ErrTargetNotOnline:
			response.Conflict(w, "Transfer target is not online")
		default:
			response.InternalServerError(w, "Failed to transfer consultation")
		}
		return
	}

	response.Success(w, http.StatusOK, "Consultation transferred successfully", consultation)
}

func (h *ConsultationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	consultation, err := h.consultationUsecase.EndSession(r.Context(), userID, consultationID)
	if err != nil {
		switch err {
		case usecase.ErrConsultationNotFound:
			response.NotFound(w, "Consultation not found")
		case usecase.ErrNotParticipant:
			response.Forbidden(w, "You are not a participant of this consultation")
		default:
			response.InternalServerError(w, "Failed to end consultation")
		}
		return
	}

	response.Success(w, http.StatusOK, "Consultation ended", consultation)
}

func (h *ConsultationHandler) AvailableDoctors(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	doctors, err := h.consultationUsecase.AvailableDoctors(r.Context(), doctorID, consultationID)
	if err != nil {
		switch err {
		case usecase.ErrConsultationNotFound:
			response.NotFound(w, "Consultation not found")
		case usecase.ErrNotAssignedDoctor:
			response.Forbidden(w, "You are not the assigned doctor")
		default:
			response.InternalServerError(w, "Failed to list available doctors")
		}
		return
	}

	response.Success(w, http.StatusOK, "Available doctors retrieved successfully", doctors)
}

func parseConsultationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	consultationID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid consultation ID", nil)
		return uuid.Nil, false
	}
	return consultationID, true
}

func writeRoomError(w http.ResponseWriter, err error) {
	switch err {
	case usecase.ErrConsultationNotFound:
		response.NotFound(w, "Consultation not found")
	case usecase.ErrNotParticipant:
		response.Forbidden(w, "You are not a participant of this consultation")
	case usecase.ErrConsultationNotActive:
		response.Conflict(w, "Consultation is not active")
	default:
		response.InternalServerError(w, "Failed to access room")
	}
}
