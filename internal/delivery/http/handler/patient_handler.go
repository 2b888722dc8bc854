package handler

import (
	"encoding/json"
	"net/http"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
	"clinic-practice-api/pkg/validator"
)

// PatientHandler serves the identity documents of a patient
type PatientHandler struct {
	documentUsecase usecase.PatientDocumentUsecase
	validator       *validator.CustomValidator
}

func NewPatientHandler(documentUsecase usecase.PatientDocumentUsecase, validator *validator.CustomValidator) *PatientHandler {
	return &PatientHandler{
		documentUsecase: documentUsecase,
		validator:       validator,
	}
}

func (h *PatientHandler) RegisterDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.RegisterDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doc, err := h.documentUsecase.RegisterDocument(r.Context(), patientID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to register document")
		return
	}

	response.Success(w, http.StatusCreated, "Document registered successfully", doc)
}

func (h *PatientHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	docs, err := h.documentUsecase.ListDocuments(r.Context(), patientID, actor)
	if err != nil {
		writeError(w, err, "Failed to get documents")
		return
	}

	response.Success(w, http.StatusOK, "Documents retrieved successfully", docs)
}
