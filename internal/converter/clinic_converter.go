package converter

import (
	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"
)

// ClinicToResponse converts a Clinic entity to ClinicResponse DTO
func ClinicToResponse(c *entity.Clinic) *dto.ClinicResponse {
	if c == nil {
		return nil
	}

	return &dto.ClinicResponse{
		ID:              c.ID,
		DoctorID:        c.DoctorID,
		Name:            c.Name,
		Address:         c.Address,
		Phone:           c.Phone,
		Timezone:        c.Timezone,
		ConsultationFee: c.ConsultationFee,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func ClinicsToResponses(clinics []entity.Clinic) []dto.ClinicResponse {
	responses := make([]dto.ClinicResponse, len(clinics))
	for i := range clinics {
		responses[i] = *ClinicToResponse(&clinics[i])
	}
	return responses
}

func ClinicAssistantsToResponses(assignments []entity.ClinicAssistant) []dto.ClinicAssistantResponse {
	responses := make([]dto.ClinicAssistantResponse, len(assignments))
	for i, a := range assignments {
		responses[i] = dto.ClinicAssistantResponse{
			ClinicID:    a.ClinicID,
			AssistantID: a.AssistantID,
			Assistant:   UserToResponse(a.Assistant),
			CreatedAt:   a.CreatedAt,
		}
	}
	return responses
}

// AvailabilityToResponse converts an AvailabilitySlot rule to its DTO
func AvailabilityToResponse(s *entity.AvailabilitySlot) *dto.AvailabilityResponse {
	if s == nil {
		return nil
	}

	return &dto.AvailabilityResponse{
		ID:        s.ID,
		ClinicID:  s.ClinicID,
		Weekday:   int(s.Weekday),
		DayName:   s.Weekday.String(),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func AvailabilitiesToResponses(slots []entity.AvailabilitySlot) []dto.AvailabilityResponse {
	responses := make([]dto.AvailabilityResponse, len(slots))
	for i := range slots {
		responses[i] = *AvailabilityToResponse(&slots[i])
	}
	return responses
}

func TimeSlotsToResponses(slots []entity.TimeSlot) []dto.TimeSlotResponse {
	responses := make([]dto.TimeSlotResponse, len(slots))
	for i, s := range slots {
		responses[i] = dto.TimeSlotResponse{
			StartsAt: s.StartsAt,
			EndsAt:   s.EndsAt,
			Weekday:  int(s.Weekday),
		}
	}
	return responses
}

func PatientDocumentToResponse(d *entity.PatientDocument) *dto.PatientDocumentResponse {
	if d == nil {
		return nil
	}

	return &dto.PatientDocumentResponse{
		ID:          d.ID,
		PatientID:   d.PatientID,
		Kind:        string(d.Kind),
		StoragePath: d.StoragePath,
		ContentType: d.ContentType,
		UploadedBy:  d.UploadedBy,
		UploadedAt:  d.UploadedAt,
	}
}
