package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
	"clinic-practice-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AvailabilityHandler manages the weekly availability rules of a clinic
type AvailabilityHandler struct {
	clinicUsecase usecase.ClinicUsecase
	validator     *validator.CustomValidator
}

func NewAvailabilityHandler(clinicUsecase usecase.ClinicUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		clinicUsecase: clinicUsecase,
		validator:     validator,
	}
}

func (h *AvailabilityHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	var req dto.CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	rule, err := h.clinicUsecase.CreateAvailability(r.Context(), clinicID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to create availability rule")
		return
	}

	response.Success(w, http.StatusCreated, "Availability rule created successfully", rule)
}

func (h *AvailabilityHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	rules, err := h.clinicUsecase.ListAvailability(r.Context(), clinicID)
	if err != nil {
		writeError(w, err, "Failed to get availability rules")
		return
	}

	response.Success(w, http.StatusOK, "Availability rules retrieved successfully", rules)
}

func (h *AvailabilityHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ruleID, ok := ruleParams(w, r)
	if !ok {
		return
	}

	var req dto.UpdateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	rule, err := h.clinicUsecase.UpdateAvailability(r.Context(), clinicID, ruleID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to update availability rule")
		return
	}

	response.Success(w, http.StatusOK, "Availability rule updated successfully", rule)
}

func (h *AvailabilityHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ruleID, ok := ruleParams(w, r)
	if !ok {
		return
	}

	if err := h.clinicUsecase.DeleteAvailability(r.Context(), clinicID, ruleID, actor); err != nil {
		writeError(w, err, "Failed to delete availability rule")
		return
	}

	response.Success(w, http.StatusOK, "Availability rule deleted successfully", nil)
}

func ruleParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return uuid.Nil, 0, false
	}
	ruleID, err := strconv.Atoi(mux.Vars(r)["ruleId"])
	if err != nil {
		response.BadRequest(w, "Invalid availability rule ID")
		return uuid.Nil, 0, false
	}
	return clinicID, ruleID, true
}
