package converter

import (
	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"
)

func GateDecisionToResponse(a *entity.Appointment, decision entity.GateDecision) *dto.StartEligibilityResponse {
	return &dto.StartEligibilityResponse{
		AppointmentID:     a.ID,
		IdentityValidated: a.IdentityValidated,
		Allowed:           decision.Allowed,
		Reason:            decision.Reason,
		CanSelfValidate:   decision.CanSelfValidate,
	}
}

func IdentityValidationToResponse(v *entity.IdentityValidation) *dto.IdentityValidationResponse {
	if v == nil {
		return nil
	}

	return &dto.IdentityValidationResponse{
		ID:              v.ID,
		AppointmentID:   v.AppointmentID,
		PatientID:       v.PatientID,
		ValidatedBy:     v.ValidatedBy,
		ValidatorRole:   v.ValidatorRole,
		ValidationNotes: v.ValidationNotes,
		IsAuthoritative: v.IsAuthoritative,
		ValidatedAt:     v.ValidatedAt,
	}
}

func IdentityEvidenceToResponse(e *entity.IdentityEvidence) *dto.IdentityEvidenceResponse {
	history := make([]dto.IdentityValidationResponse, len(e.History))
	for i := range e.History {
		history[i] = *IdentityValidationToResponse(&e.History[i])
	}

	return &dto.IdentityEvidenceResponse{
		AppointmentID:     e.AppointmentID,
		PatientID:         e.PatientID,
		IdentityValidated: e.IdentityValidated,
		HasProfilePhoto:   e.HasProfilePhoto,
		HasIDDocument:     e.HasIDDocument,
		Ready:             e.Ready(),
		History:           history,
	}
}

// ConsultationNoteToResponse converts a ConsultationNote entity to its DTO
func ConsultationNoteToResponse(n *entity.ConsultationNote) *dto.ConsultationNoteResponse {
	if n == nil {
		return nil
	}

	response := &dto.ConsultationNoteResponse{
		ID:              n.ID,
		AppointmentID:   n.AppointmentID,
		DoctorID:        n.DoctorID,
		PatientID:       n.PatientID,
		Diagnosis:       n.Diagnosis,
		Prescription:    n.Prescription,
		Recommendations: n.Recommendations,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
	if n.FollowUpDate != nil {
		response.FollowUpDate = n.FollowUpDate.Format(dateLayout)
	}
	return response
}
