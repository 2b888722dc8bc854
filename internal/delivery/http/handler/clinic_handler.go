package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
	"clinic-practice-api/pkg/validator"
)

const defaultSlotInterval = 30

type ClinicHandler struct {
	clinicUsecase       usecase.ClinicUsecase
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewClinicHandler(
	clinicUsecase usecase.ClinicUsecase,
	availabilityUsecase usecase.AvailabilityUsecase,
	validator *validator.CustomValidator,
) *ClinicHandler {
	return &ClinicHandler{
		clinicUsecase:       clinicUsecase,
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

// CreateClinic handles clinic creation
// @Summary Create a clinic
// @Tags Clinics
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateClinicRequest true "Create Clinic Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /clinics [post]
func (h *ClinicHandler) CreateClinic(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateClinicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	clinic, err := h.clinicUsecase.CreateClinic(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to create clinic")
		return
	}

	response.Success(w, http.StatusCreated, "Clinic created successfully", clinic)
}

// ListClinics handles getting all clinics
// @Summary List clinics
// @Tags Clinics
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Router /clinics [get]
func (h *ClinicHandler) ListClinics(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	result, err := h.clinicUsecase.ListClinics(r.Context(), page, limit)
	if err != nil {
		writeError(w, err, "Failed to get clinics")
		return
	}

	meta := response.NewMeta(page, limit, result.Total)
	response.SuccessWithMeta(w, http.StatusOK, "Clinics retrieved successfully", result.Clinics, meta)
}

func (h *ClinicHandler) GetClinic(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	clinic, err := h.clinicUsecase.GetClinic(r.Context(), clinicID)
	if err != nil {
		writeError(w, err, "Failed to get clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic retrieved successfully", clinic)
}

func (h *ClinicHandler) UpdateClinic(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	var req dto.UpdateClinicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	clinic, err := h.clinicUsecase.UpdateClinic(r.Context(), clinicID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to update clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic updated successfully", clinic)
}

// GenerateSlots lists bookable slots for one day
// @Summary Available slots
// @Tags Clinics
// @Produce json
// @Param id path string true "Clinic ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param interval query int false "Slot length in minutes (30 or 60)" default(30)
// @Success 200 {object} response.Response
// @Router /clinics/{id}/slots [get]
func (h *ClinicHandler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	query := r.URL.Query()
	req := dto.GenerateSlotsRequest{
		Date:            query.Get("date"),
		IntervalMinutes: defaultSlotInterval,
	}
	if raw := query.Get("interval"); raw != "" {
		interval, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, usecase.ErrInvalidInterval.Error())
			return
		}
		req.IntervalMinutes = interval
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slots, err := h.availabilityUsecase.GenerateSlots(r.Context(), clinicID, req.Date, req.IntervalMinutes)
	if err != nil {
		writeError(w, err, "Failed to generate slots")
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", slots)
}

func (h *ClinicHandler) AssignAssistant(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	var req dto.AssignAssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	assignment, err := h.clinicUsecase.AssignAssistant(r.Context(), clinicID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to assign assistant")
		return
	}

	response.Success(w, http.StatusCreated, "Assistant assigned successfully", assignment)
}

func (h *ClinicHandler) ListAssistants(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	assistants, err := h.clinicUsecase.ListAssistants(r.Context(), clinicID, actor)
	if err != nil {
		writeError(w, err, "Failed to get assistants")
		return
	}

	response.Success(w, http.StatusOK, "Assistants retrieved successfully", assistants)
}
