package converter

import (
	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:                          a.ID,
		ClinicID:                    a.ClinicID,
		DoctorID:                    a.DoctorID,
		PatientID:                   a.PatientID,
		StartsAt:                    a.StartsAt,
		EndsAt:                      a.EndsAt,
		Status:                      string(a.Status),
		ConsultationStatus:          string(a.ConsultationStatus),
		Reason:                      a.Reason,
		IdentityValidated:           a.IdentityValidated,
		IdentityValidatedAt:         a.IdentityValidatedAt,
		IdentityValidatedBy:         a.IdentityValidatedBy,
		PatientArrivedAt:            a.PatientArrivedAt,
		MarkedArrivedBy:             a.MarkedArrivedBy,
		QueueNumber:                 a.QueueNumber,
		ConsultationStartedAt:       a.ConsultationStartedAt,
		ConsultationStartedBy:       a.ConsultationStartedBy,
		ConsultationEndedAt:         a.ConsultationEndedAt,
		ConsultationEndedBy:         a.ConsultationEndedBy,
		WaitingTimeMinutes:          a.WaitingTimeMinutes,
		ConsultationDurationMinutes: a.ConsultationDurationMinutes,
		TotalClinicTimeMinutes:      a.TotalClinicTimeMinutes,
		CancelledAt:                 a.CancelledAt,
		CancellationReason:          a.CancellationReason,
		CreatedAt:                   a.CreatedAt,
		UpdatedAt:                   a.UpdatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

func ClinicMetricsToResponse(m *entity.ClinicMetrics, from, to string) *dto.ClinicMetricsResponse {
	return &dto.ClinicMetricsResponse{
		ClinicID:                  m.ClinicID,
		From:                      from,
		To:                        to,
		CompletedCount:            m.CompletedCount,
		AvgWaitingMinutes:         m.AvgWaitingMinutes,
		AvgConsultationMinutes:    m.AvgConsultationMinutes,
		AvgTotalClinicTimeMinutes: m.AvgTotalClinicTimeMinutes,
	}
}
