package repository

import (
	"context"
	"errors"

	"clinic-practice-api/internal/domain/entity"
	domainRepo "clinic-practice-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type consultationNoteRepository struct {
	db *gorm.DB
}

func NewConsultationNoteRepository(db *gorm.DB) domainRepo.ConsultationNoteRepository {
	return &consultationNoteRepository{db: db}
}

// Upsert keeps one note per appointment; created_at survives edits. An
// empty diagnosis never overwrites a stored one.
func (r *consultationNoteRepository) Upsert(ctx context.Context, note *entity.ConsultationNote) error {
	updates := clause.AssignmentColumns([]string{"doctor_id", "prescription", "recommendations", "follow_up_date", "updated_at"})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "diagnosis"},
		Value:  gorm.Expr("COALESCE(NULLIF(EXCLUDED.diagnosis, ''), consultation_notes.diagnosis)"),
	})
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}},
		DoUpdates: updates,
	}).Create(note).Error
}

func (r *consultationNoteRepository) FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*entity.ConsultationNote, error) {
	var note entity.ConsultationNote
	err := r.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}
