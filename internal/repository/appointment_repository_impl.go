package repository

import (
	"context"
	"errors"
	"time"

	"clinic-practice-api/internal/domain/entity"
	domainRepo "clinic-practice-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) domainRepo.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	return r.db.WithContext(ctx).Omit("Clinic").Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := r.db.WithContext(ctx).Preload("Clinic").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Find(ctx context.Context, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	var appointments []entity.Appointment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Appointment{})
	if filter != nil {
		if filter.ClinicID != nil {
			query = query.Where("clinic_id = ?", *filter.ClinicID)
		}
		if filter.DoctorID != nil {
			query = query.Where("doctor_id = ?", *filter.DoctorID)
		}
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.ConsultationStatus != "" {
			query = query.Where("consultation_status = ?", filter.ConsultationStatus)
		}
		if filter.From != nil {
			query = query.Where("starts_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("starts_at < ?", *filter.To)
		}
		if filter.ExcludeCancelled {
			query = query.Where("status <> ?", entity.AppointmentStatusCancelled)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "starts_at ASC"
	if filter != nil && filter.ConsultationStatus == entity.ConsultationStatusWaiting {
		order = "patient_arrived_at ASC"
	}
	query = query.Order(order)
	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := query.Find(&appointments).Error; err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) FindActiveInRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND status <> ?", clinicID, entity.AppointmentStatusCancelled).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Order("starts_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateIfState is the compare-and-swap used by every appointment
// transition. Zero affected rows means another request moved the
// appointment first, including a cancel or no-show that left
// consultation_status untouched.
func (r *appointmentRepository) UpdateIfState(ctx context.Context, appointment *entity.Appointment, expected entity.AppointmentState, columns ...string) error {
	result := r.db.WithContext(ctx).
		Model(appointment).
		Where("consultation_status = ? AND status = ?", expected.ConsultationStatus, expected.Status).
		Select(columns).
		Updates(appointment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entity.Conflict("appointment was modified by another request, reload and try again")
	}
	return nil
}

func (r *appointmentRepository) ApplyIdentityValidation(ctx context.Context, appointment *entity.Appointment, record *entity.IdentityValidation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if record.IsAuthoritative {
			result := tx.Model(appointment).
				Where("identity_validated = ?", false).
				Select(entity.IdentityColumns).
				Updates(appointment)
			if result.Error != nil {
				return result.Error
			}
			// a concurrent validator flipped the flag first
			if result.RowsAffected == 0 {
				record.IsAuthoritative = false
			}
		}
		return tx.Create(record).Error
	})
}

func (r *appointmentRepository) Metrics(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*entity.ClinicMetrics, error) {
	var metrics entity.ClinicMetrics
	err := r.db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Select(`COUNT(*) AS completed_count,
			COALESCE(AVG(waiting_time_minutes), 0) AS avg_waiting_minutes,
			COALESCE(AVG(consultation_duration_minutes), 0) AS avg_consultation_minutes,
			COALESCE(AVG(total_clinic_time_minutes), 0) AS avg_total_clinic_time_minutes`).
		Where("clinic_id = ? AND consultation_status = ?", clinicID, entity.ConsultationStatusCompleted).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Scan(&metrics).Error
	if err != nil {
		return nil, err
	}
	metrics.ClinicID = clinicID
	return &metrics, nil
}
