package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"clinic-practice-api/internal/converter"
	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/domain/repository"
	"clinic-practice-api/pkg/tracer"
	"clinic-practice-api/pkg/weekday"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidInterval = errors.New("interval must be 30 or 60 minutes")
	ErrInvalidDate     = errors.New("invalid date format, use YYYY-MM-DD")
	ErrClinicNotFound  = entity.NotFound("clinic not found")
)

type AvailabilityUsecase interface {
	GenerateSlots(ctx context.Context, clinicID uuid.UUID, date string, intervalMinutes int) (*dto.SlotListResponse, error)
}

type availabilityUsecase struct {
	log        *logrus.Logger
	clinicRepo repository.ClinicRepository
	slots      *slotGenerator
}

func NewAvailabilityUsecase(
	log *logrus.Logger,
	clinicRepo repository.ClinicRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	defaultLoc *time.Location,
) AvailabilityUsecase {
	return &availabilityUsecase{
		log:        log,
		clinicRepo: clinicRepo,
		slots:      newSlotGenerator(log, availabilityRepo, appointmentRepo, defaultLoc),
	}
}

func (u *availabilityUsecase) GenerateSlots(ctx context.Context, clinicID uuid.UUID, date string, intervalMinutes int) (*dto.SlotListResponse, error) {
	ctx, span := tracer.Start(ctx, "availability.GenerateSlots")
	defer span.End()

	if !validInterval(intervalMinutes) {
		return nil, ErrInvalidInterval
	}

	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}

	day, err := u.slots.parseDay(clinic, date)
	if err != nil {
		return nil, err
	}

	slots, err := u.slots.generate(ctx, clinic, day, intervalMinutes)
	if err != nil {
		return nil, err
	}

	return &dto.SlotListResponse{
		ClinicID:        clinic.ID,
		Date:            date,
		IntervalMinutes: intervalMinutes,
		Slots:           converter.TimeSlotsToResponses(slots),
	}, nil
}

func validInterval(minutes int) bool {
	return minutes == 30 || minutes == 60
}

func findClinic(ctx context.Context, log *logrus.Logger, repo repository.ClinicRepository, id uuid.UUID) (*entity.Clinic, error) {
	var clinic *entity.Clinic
	err := withRetry(ctx, log, "find clinic", func(ctx context.Context) error {
		var err error
		clinic, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, ErrClinicNotFound
	}
	return clinic, nil
}

// slotGenerator expands weekly availability rules into concrete bookable
// slots for one day. Booking uses it too, so a slot is bookable exactly
// when it is listed.
type slotGenerator struct {
	log              *logrus.Logger
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	defaultLoc       *time.Location
	now              func() time.Time
}

func newSlotGenerator(log *logrus.Logger, availabilityRepo repository.AvailabilityRepository, appointmentRepo repository.AppointmentRepository, defaultLoc *time.Location) *slotGenerator {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &slotGenerator{
		log:              log,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		defaultLoc:       defaultLoc,
		now:              time.Now,
	}
}

// parseDay reads date as midnight in the clinic's time zone
func (g *slotGenerator) parseDay(clinic *entity.Clinic, date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, clinic.Location(g.defaultLoc))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

// generate returns the free slots of day, sorted by start. Slots that have
// already begun, that overlap an earlier slot from another rule, or that
// overlap a non-cancelled appointment are left out.
func (g *slotGenerator) generate(ctx context.Context, clinic *entity.Clinic, day time.Time, intervalMinutes int) ([]entity.TimeSlot, error) {
	slots := make([]entity.TimeSlot, 0)
	if !clinic.IsActive {
		return slots, nil
	}

	loc := day.Location()
	wd := weekday.Of(day)

	var rules []entity.AvailabilitySlot
	err := withRetry(ctx, g.log, "read availability rules", func(ctx context.Context) error {
		var err error
		rules, err = g.availabilityRepo.FindActiveByClinic(ctx, clinic.ID, wd)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return slots, nil
	}

	step := time.Duration(intervalMinutes) * time.Minute
	now := g.now()
	for i := range rules {
		from, to, err := rules[i].Window(day, loc)
		if err != nil {
			g.log.Warnf("Skipping availability rule %d: %+v", rules[i].ID, err)
			continue
		}
		for start := from; !start.Add(step).After(to); start = start.Add(step) {
			if start.Before(now) {
				continue
			}
			slots = append(slots, entity.TimeSlot{
				ClinicID: clinic.ID,
				StartsAt: start,
				EndsAt:   start.Add(step),
				Weekday:  wd,
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartsAt.Before(slots[j].StartsAt)
	})
	slots = dropOverlapping(slots)

	var booked []entity.Appointment
	err = withRetry(ctx, g.log, "read booked appointments", func(ctx context.Context) error {
		var err error
		booked, err = g.appointmentRepo.FindActiveInRange(ctx, clinic.ID, day, day.AddDate(0, 0, 1))
		return err
	})
	if err != nil {
		return nil, err
	}

	free := slots[:0]
	for _, slot := range slots {
		if !overlapsAny(slot, booked) {
			free = append(free, slot)
		}
	}
	return free, nil
}

// contains reports whether a slot starting at startsAt with the given
// width is currently offered.
func (g *slotGenerator) contains(ctx context.Context, clinic *entity.Clinic, startsAt time.Time, intervalMinutes int) (bool, error) {
	local := startsAt.In(clinic.Location(g.defaultLoc))
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	slots, err := g.generate(ctx, clinic, day, intervalMinutes)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.StartsAt.Equal(startsAt) {
			return true, nil
		}
	}
	return false, nil
}

// dropOverlapping keeps the earliest of any overlapping slots; input must
// be sorted by start.
func dropOverlapping(slots []entity.TimeSlot) []entity.TimeSlot {
	kept := slots[:0]
	for _, slot := range slots {
		if n := len(kept); n > 0 && kept[n-1].Overlaps(slot.StartsAt, slot.EndsAt) {
			continue
		}
		kept = append(kept, slot)
	}
	return kept
}

func overlapsAny(slot entity.TimeSlot, appointments []entity.Appointment) bool {
	for i := range appointments {
		if slot.Overlaps(appointments[i].StartsAt, appointments[i].EndsAt) {
			return true
		}
	}
	return false
}
