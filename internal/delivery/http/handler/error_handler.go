package handler

import (
	"errors"
	"net/http"

	"clinic-practice-api/internal/delivery/http/middleware"
	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var flowStatus = map[entity.FlowErrorKind]int{
	entity.KindPreconditionFailed:   http.StatusConflict,
	entity.KindValidationRequired:   http.StatusPreconditionRequired,
	entity.KindMissingRequiredField: http.StatusUnprocessableEntity,
	entity.KindConflict:             http.StatusConflict,
	entity.KindNotFound:             http.StatusNotFound,
	entity.KindPersistence:          http.StatusServiceUnavailable,
}

var (
	forbiddenErrors = []error{
		usecase.ErrAppointmentAccessDenied,
		usecase.ErrClinicAccessDenied,
		usecase.ErrDocumentAccessDenied,
		usecase.ErrAdminOnly,
		usecase.ErrBookingNotAllowed,
		usecase.ErrUserInactive,
	}
	unauthorizedErrors = []error{
		usecase.ErrInvalidCredentials,
		usecase.ErrInvalidToken,
		usecase.ErrTokenRevoked,
	}
	conflictErrors = []error{
		usecase.ErrEmailAlreadyExists,
		usecase.ErrNationalIDExists,
		usecase.ErrLicenseAlreadyExists,
		usecase.ErrAssistantAlreadyAssigned,
		usecase.ErrClinicInactive,
	}
	notFoundErrors = []error{
		usecase.ErrUserNotFound,
		usecase.ErrAuditLogNotFound,
		usecase.ErrDoctorNotFound,
		usecase.ErrAssistantNotFound,
	}
	badRequestErrors = []error{
		usecase.ErrInvalidInterval,
		usecase.ErrInvalidDate,
		usecase.ErrInvalidDateFormat,
		usecase.ErrInvalidDateRange,
		usecase.ErrSlotUnavailable,
		usecase.ErrPatientRequired,
		usecase.ErrClinicIDRequired,
		usecase.ErrDoctorRequired,
		usecase.ErrInvalidTimezone,
		usecase.ErrNegativeFee,
		usecase.ErrInvalidTimeRange,
		usecase.ErrInvalidTimeFormat,
		usecase.ErrInvalidWeekday,
		usecase.ErrFollowUpBeforeVisit,
		usecase.ErrRoleNotFound,
	}
)

// writeError renders err with the status that matches its kind. Anything
// unrecognised becomes a 500 carrying fallback as the message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var flowErr *entity.FlowError
	if errors.As(err, &flowErr) {
		status, ok := flowStatus[flowErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		response.Kind(w, status, string(flowErr.Kind), flowErr.Reason)
		return
	}

	switch {
	case isAny(err, forbiddenErrors):
		response.Forbidden(w, err.Error())
	case isAny(err, unauthorizedErrors):
		response.Unauthorized(w, err.Error())
	case isAny(err, conflictErrors):
		response.Conflict(w, err.Error())
	case isAny(err, notFoundErrors):
		response.NotFound(w, err.Error())
	case isAny(err, badRequestErrors):
		response.BadRequest(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// currentActor reads the authenticated caller and writes a 401 when absent
func currentActor(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
	}
	return actor, ok
}

func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}
