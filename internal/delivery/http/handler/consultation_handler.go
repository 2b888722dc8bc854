package handler

import (
	"encoding/json"
	"net/http"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
	"clinic-practice-api/pkg/validator"
)

// ConsultationHandler exposes the consultation flow of a single appointment:
// arrival, identity validation, start, notes and end.
type ConsultationHandler struct {
	consultationUsecase usecase.ConsultationUsecase
	identityUsecase     usecase.IdentityUsecase
	noteUsecase         usecase.ConsultationNoteUsecase
	validator           *validator.CustomValidator
}

func NewConsultationHandler(
	consultationUsecase usecase.ConsultationUsecase,
	identityUsecase usecase.IdentityUsecase,
	noteUsecase usecase.ConsultationNoteUsecase,
	validator *validator.CustomValidator,
) *ConsultationHandler {
	return &ConsultationHandler{
		consultationUsecase: consultationUsecase,
		identityUsecase:     identityUsecase,
		noteUsecase:         noteUsecase,
		validator:           validator,
	}
}

// MarkArrived checks the patient in and moves the consultation to waiting
// @Summary Mark patient arrived
// @Tags Consultation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/arrive [post]
func (h *ConsultationHandler) MarkArrived(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.consultationUsecase.MarkArrived(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to mark patient as arrived")
		return
	}

	response.Success(w, http.StatusOK, "Patient marked as arrived", appointment)
}

// StartConsultation requires a validated identity
// @Summary Start consultation
// @Tags Consultation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 428 {object} response.Response
// @Router /appointments/{id}/start [post]
func (h *ConsultationHandler) StartConsultation(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.consultationUsecase.StartConsultation(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to start consultation")
		return
	}

	response.Success(w, http.StatusOK, "Consultation started", appointment)
}

// EndConsultation requires a note with a diagnosis
// @Summary End consultation
// @Tags Consultation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /appointments/{id}/end [post]
func (h *ConsultationHandler) EndConsultation(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.consultationUsecase.EndConsultation(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to end consultation")
		return
	}

	response.Success(w, http.StatusOK, "Consultation completed", appointment)
}

func (h *ConsultationHandler) GetStartEligibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	decision, err := h.identityUsecase.CanStartConsultation(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to evaluate start eligibility")
		return
	}

	response.Success(w, http.StatusOK, "Start eligibility evaluated", decision)
}

// ValidateIdentity records that staff checked the patient's identity
// @Summary Validate patient identity
// @Tags Consultation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.ValidateIdentityRequest false "Validation notes"
// @Success 201 {object} response.Response
// @Router /appointments/{id}/identity-validations [post]
func (h *ConsultationHandler) ValidateIdentity(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	// the body is optional
	var req dto.ValidateIdentityRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.identityUsecase.ValidateIdentity(r.Context(), appointmentID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to validate identity")
		return
	}

	response.Success(w, http.StatusCreated, "Identity validated successfully", record)
}

func (h *ConsultationHandler) GetIdentityEvidence(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	evidence, err := h.identityUsecase.GetIdentityEvidence(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to get identity evidence")
		return
	}

	response.Success(w, http.StatusOK, "Identity evidence retrieved successfully", evidence)
}

// SaveNote creates or replaces the consultation note
// @Summary Save consultation note
// @Tags Consultation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.SaveNoteRequest true "Note"
// @Success 200 {object} response.Response
// @Router /appointments/{id}/note [put]
func (h *ConsultationHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	note, err := h.noteUsecase.SaveNote(r.Context(), appointmentID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to save consultation note")
		return
	}

	response.Success(w, http.StatusOK, "Consultation note saved successfully", note)
}

func (h *ConsultationHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	note, err := h.noteUsecase.GetNote(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to get consultation note")
		return
	}

	response.Success(w, http.StatusOK, "Consultation note retrieved successfully", note)
}
