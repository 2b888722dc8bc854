package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
	"clinic-practice-api/pkg/validator"

	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// BookAppointment reserves a generated slot
// @Summary Book an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BookAppointmentRequest true "Book Appointment Request"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.BookAppointment(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to book appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

func (h *BookingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	// the body is optional
	var req dto.CancelAppointmentRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.CancelAppointment(r.Context(), appointmentID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.bookingUsecase.MarkNoShow(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to mark appointment as no-show")
		return
	}

	response.Success(w, http.StatusOK, "Appointment marked as no-show", appointment)
}

// ListAppointments handles the filtered appointment query
// @Summary List appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param clinic_id query string false "Clinic ID"
// @Param status query string false "Appointment status"
// @Param consultation_status query string false "Consultation status"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *BookingHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := dto.ListAppointmentsRequest{
		Status:             query.Get("status"),
		ConsultationStatus: query.Get("consultation_status"),
		From:               query.Get("from"),
		To:                 query.Get("to"),
	}

	var err error
	if req.ClinicID, err = optionalUUID(query, "clinic_id"); err != nil {
		response.BadRequest(w, "Invalid clinic ID")
		return
	}
	if req.DoctorID, err = optionalUUID(query, "doctor_id"); err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}
	if req.PatientID, err = optionalUUID(query, "patient_id"); err != nil {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	req.Page, _ = strconv.Atoi(query.Get("page"))
	req.Limit, _ = strconv.Atoi(query.Get("limit"))
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.ListAppointments(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to get appointments")
		return
	}

	meta := response.NewMeta(req.Page, req.Limit, result.Total)
	response.SuccessWithMeta(w, http.StatusOK, "Appointments retrieved successfully", result.Appointments, meta)
}

func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.bookingUsecase.GetAppointment(r.Context(), appointmentID, actor)
	if err != nil {
		writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// GetWaitingRoom lists today's (or ?date=) waiting patients in arrival order
func (h *BookingHandler) GetWaitingRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	room, err := h.bookingUsecase.GetWaitingRoom(r.Context(), clinicID, actor, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err, "Failed to get waiting room")
		return
	}

	response.Success(w, http.StatusOK, "Waiting room retrieved successfully", room)
}

func (h *BookingHandler) GetClinicMetrics(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	clinicID, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	req := dto.ClinicMetricsRequest{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.GetClinicMetrics(r.Context(), clinicID, actor, &req)
	if err != nil {
		writeError(w, err, "Failed to compute clinic metrics")
		return
	}

	response.Success(w, http.StatusOK, "Clinic metrics retrieved successfully", result)
}

func optionalUUID(query url.Values, key string) (*uuid.UUID, error) {
	raw := query.Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
