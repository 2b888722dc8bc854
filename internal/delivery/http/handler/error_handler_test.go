package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
)

func TestWriteError_StatusByKind(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "precondition", err: entity.PreconditionFailed("patient has not arrived"), wantStatus: http.StatusConflict, wantKind: "precondition_failed"},
		{name: "validation required", err: entity.ValidationRequired("validation required"), wantStatus: http.StatusPreconditionRequired, wantKind: "validation_required"},
		{name: "missing field", err: entity.MissingRequiredField("diagnosis is required"), wantStatus: http.StatusUnprocessableEntity, wantKind: "missing_required_field"},
		{name: "conflict", err: usecase.ErrSlotTaken, wantStatus: http.StatusConflict, wantKind: "conflict"},
		{name: "not found", err: usecase.ErrClinicNotFound, wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{name: "persistence", err: entity.PersistenceFailure(errors.New("connection reset")), wantStatus: http.StatusServiceUnavailable, wantKind: "persistence_error"},
		{name: "wrapped flow error", err: fmt.Errorf("start: %w", entity.PreconditionFailed("already started")), wantStatus: http.StatusConflict, wantKind: "precondition_failed"},
		{name: "access denied", err: usecase.ErrAppointmentAccessDenied, wantStatus: http.StatusForbidden},
		{name: "bad credentials", err: usecase.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "duplicate email", err: usecase.ErrEmailAlreadyExists, wantStatus: http.StatusConflict},
		{name: "bad interval", err: usecase.ErrInvalidInterval, wantStatus: http.StatusBadRequest},
		{name: "unknown user", err: usecase.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err, "Failed")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantKind == "" {
				return
			}

			var body struct {
				Success bool                 `json:"success"`
				Error   response.ErrorDetail `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success || body.Error.Kind != tt.wantKind || body.Error.Reason == "" {
				t.Errorf("body = %+v, want kind %s with a reason", body, tt.wantKind)
			}
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: password authentication failed"), "Failed to start consultation")

	var body response.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Failed to start consultation" {
		t.Errorf("message = %q", body.Message)
	}
}
