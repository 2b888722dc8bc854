package entity

import (
	"fmt"
	"time"

	"clinic-practice-api/pkg/weekday"

	"github.com/google/uuid"
)

// AvailabilitySlot is a recurring weekly opening window of a clinic.
// Weekday uses the Monday=0 convention.
type AvailabilitySlot struct {
	ID        int              `gorm:"primaryKey;autoIncrement" json:"id"`
	ClinicID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_availability_clinic_weekday" json:"clinic_id"`
	Weekday   weekday.Internal `gorm:"type:smallint;not null;index:idx_availability_clinic_weekday" json:"weekday"`
	StartTime string           `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string           `gorm:"type:varchar(5);not null" json:"end_time"`
	IsActive  bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}

// ClockLayout is the wall-clock format of StartTime and EndTime
const ClockLayout = "15:04"

// Window resolves the rule's wall-clock bounds on the given day in loc
func (s *AvailabilitySlot) Window(day time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.Parse(ClockLayout, s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_time %q: %w", s.StartTime, err)
	}
	end, err := time.Parse(ClockLayout, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_time %q: %w", s.EndTime, err)
	}

	y, m, d := day.Date()
	from := time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, loc)
	to := time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, loc)
	return from, to, nil
}

// TimeSlot is a bookable sub-interval produced on demand, never stored
type TimeSlot struct {
	ClinicID uuid.UUID        `json:"clinic_id"`
	StartsAt time.Time        `json:"starts_at"`
	EndsAt   time.Time        `json:"ends_at"`
	Weekday  weekday.Internal `json:"weekday"`
}

// Overlaps reports whether [start, end) intersects the slot
func (t TimeSlot) Overlaps(start, end time.Time) bool {
	return start.Before(t.EndsAt) && end.After(t.StartsAt)
}
