package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
	"time"

	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/pkg/jwt"
	"clinic-practice-api/pkg/metrics"
	"clinic-practice-api/pkg/weekday"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/schema"
)

var (
	adminID     = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	doctorID    = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")
	otherDocID  = uuid.MustParse("00000000-0000-0000-0000-0000000000d2")
	assistantID = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	patientID   = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	otherPatID  = uuid.MustParse("00000000-0000-0000-0000-0000000000c2")
	clinicID    = uuid.MustParse("00000000-0000-0000-0000-0000000000e1")

	admin     = Actor{UserID: adminID, RoleID: entity.RoleIDAdmin}
	doctor    = Actor{UserID: doctorID, RoleID: entity.RoleIDDoctor}
	otherDoc  = Actor{UserID: otherDocID, RoleID: entity.RoleIDDoctor}
	assistant = Actor{UserID: assistantID, RoleID: entity.RoleIDAssistant}
	patient   = Actor{UserID: patientID, RoleID: entity.RoleIDPatient}
)

var errStorage = errors.New("connection reset by peer")

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testCollector() *metrics.Collector {
	return metrics.NewCollector("test", prometheus.NewRegistry())
}

// at returns 2024-03-04 (a Monday) at hh:mm UTC
func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 4, hh, mm, 0, 0, time.UTC)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

// Appointments

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	items        map[uuid.UUID]*entity.Appointment
	history      []entity.IdentityValidation
	updateErrs   []error
	createErrs   []error
	beforeUpdate func(stored *entity.Appointment)
	lostReplies  int
	updateCalls  int
	createCalls  int
	lastFilter   *entity.AppointmentFilter
	metrics      *entity.ClinicMetrics
}

func newFakeAppointmentRepo(seed ...*entity.Appointment) *fakeAppointmentRepo {
	r := &fakeAppointmentRepo{items: map[uuid.UUID]*entity.Appointment{}}
	for _, a := range seed {
		r.put(a)
	}
	return r
}

func (r *fakeAppointmentRepo) put(a *entity.Appointment) {
	cp := *a
	r.items[a.ID] = &cp
}

func (r *fakeAppointmentRepo) get(id uuid.UUID) *entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.items[id]
	return &cp
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return err
	}
	appointment.ID = uuid.New()
	r.put(appointment)
	return nil
}

func (r *fakeAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) Find(ctx context.Context, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter

	var out []entity.Appointment
	for _, a := range r.items {
		if filter.ClinicID != nil && a.ClinicID != *filter.ClinicID {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.ConsultationStatus != "" && a.ConsultationStatus != filter.ConsultationStatus {
			continue
		}
		if filter.ExcludeCancelled && a.Status == entity.AppointmentStatusCancelled {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, int64(len(out)), nil
}

func (r *fakeAppointmentRepo) FindActiveInRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.items {
		if a.ClinicID != clinicID || a.Status == entity.AppointmentStatusCancelled {
			continue
		}
		if a.StartsAt.Before(to) && a.EndsAt.After(from) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateIfState(ctx context.Context, appointment *entity.Appointment, expected entity.AppointmentState, columns ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if len(r.updateErrs) > 0 {
		err := r.updateErrs[0]
		r.updateErrs = r.updateErrs[1:]
		return err
	}
	stored, ok := r.items[appointment.ID]
	if !ok {
		return entity.NotFound("appointment not found")
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(stored)
	}
	if stored.State() != expected {
		return entity.Conflict("appointment was modified concurrently")
	}
	if err := copyColumns(stored, appointment, columns); err != nil {
		return err
	}
	if r.lostReplies > 0 {
		r.lostReplies--
		return errStorage
	}
	return nil
}

// copyColumns mirrors a selective UPDATE: only the named columns of src
// reach dst, resolved through gorm's own column naming.
func copyColumns(dst, src *entity.Appointment, columns []string) error {
	namer := schema.NamingStrategy{}
	to := reflect.ValueOf(dst).Elem()
	from := reflect.ValueOf(src).Elem()
	for _, column := range columns {
		copied := false
		for i := 0; i < to.NumField(); i++ {
			if namer.ColumnName("", to.Type().Field(i).Name) == column {
				to.Field(i).Set(from.Field(i))
				copied = true
				break
			}
		}
		if !copied {
			return fmt.Errorf("appointments has no column %q", column)
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) ApplyIdentityValidation(ctx context.Context, appointment *entity.Appointment, record *entity.IdentityValidation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.items[appointment.ID]
	if record.IsAuthoritative {
		if stored.IdentityValidated {
			record.IsAuthoritative = false
		} else {
			stored.IdentityValidated = true
			stored.IdentityValidatedAt = appointment.IdentityValidatedAt
			stored.IdentityValidatedBy = appointment.IdentityValidatedBy
		}
	}
	record.ID = int64(len(r.history) + 1)
	r.history = append(r.history, *record)
	return nil
}

func (r *fakeAppointmentRepo) Metrics(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*entity.ClinicMetrics, error) {
	if r.metrics == nil {
		return &entity.ClinicMetrics{ClinicID: clinicID}, nil
	}
	return r.metrics, nil
}

// FindByAppointmentID lets the same fake serve as the validation history
func (r *fakeAppointmentRepo) FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) ([]entity.IdentityValidation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.IdentityValidation
	for _, v := range r.history {
		if v.AppointmentID == appointmentID {
			out = append(out, v)
		}
	}
	return out, nil
}

// Clinics

type fakeClinicRepo struct {
	clinics    map[uuid.UUID]*entity.Clinic
	assistants map[uuid.UUID][]entity.ClinicAssistant
	addErr     error
}

func newFakeClinicRepo(seed ...*entity.Clinic) *fakeClinicRepo {
	r := &fakeClinicRepo{
		clinics:    map[uuid.UUID]*entity.Clinic{},
		assistants: map[uuid.UUID][]entity.ClinicAssistant{},
	}
	for _, c := range seed {
		cp := *c
		r.clinics[c.ID] = &cp
	}
	return r
}

func (r *fakeClinicRepo) Create(ctx context.Context, clinic *entity.Clinic) error {
	clinic.ID = uuid.New()
	cp := *clinic
	r.clinics[clinic.ID] = &cp
	return nil
}

func (r *fakeClinicRepo) FindAll(ctx context.Context, limit, offset int) ([]entity.Clinic, int64, error) {
	var out []entity.Clinic
	for _, c := range r.clinics {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeClinicRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error) {
	c, ok := r.clinics[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClinicRepo) Update(ctx context.Context, clinic *entity.Clinic) error {
	cp := *clinic
	r.clinics[clinic.ID] = &cp
	return nil
}

func (r *fakeClinicRepo) AddAssistant(ctx context.Context, assignment *entity.ClinicAssistant) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.assistants[assignment.ClinicID] = append(r.assistants[assignment.ClinicID], *assignment)
	return nil
}

func (r *fakeClinicRepo) FindAssistants(ctx context.Context, clinicID uuid.UUID) ([]entity.ClinicAssistant, error) {
	return r.assistants[clinicID], nil
}

func (r *fakeClinicRepo) IsAssistant(ctx context.Context, clinicID, userID uuid.UUID) (bool, error) {
	for _, a := range r.assistants[clinicID] {
		if a.AssistantID == userID {
			return true, nil
		}
	}
	return false, nil
}

// Availability rules

type fakeAvailabilityRepo struct {
	rules  []entity.AvailabilitySlot
	nextID int
}

func (r *fakeAvailabilityRepo) Create(ctx context.Context, slot *entity.AvailabilitySlot) error {
	r.nextID++
	slot.ID = r.nextID + 100
	r.rules = append(r.rules, *slot)
	return nil
}

func (r *fakeAvailabilityRepo) FindByID(ctx context.Context, id int) (*entity.AvailabilitySlot, error) {
	for i := range r.rules {
		if r.rules[i].ID == id {
			cp := r.rules[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAvailabilityRepo) FindByClinic(ctx context.Context, clinicID uuid.UUID) ([]entity.AvailabilitySlot, error) {
	var out []entity.AvailabilitySlot
	for _, rule := range r.rules {
		if rule.ClinicID == clinicID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) FindActiveByClinic(ctx context.Context, clinicID uuid.UUID, day weekday.Internal) ([]entity.AvailabilitySlot, error) {
	var out []entity.AvailabilitySlot
	for _, rule := range r.rules {
		if rule.ClinicID == clinicID && rule.Weekday == day && rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) Update(ctx context.Context, slot *entity.AvailabilitySlot) error {
	for i := range r.rules {
		if r.rules[i].ID == slot.ID {
			r.rules[i] = *slot
		}
	}
	return nil
}

func (r *fakeAvailabilityRepo) Delete(ctx context.Context, id int) (int64, error) {
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// Notes

type fakeNoteRepo struct {
	notes map[uuid.UUID]*entity.ConsultationNote
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: map[uuid.UUID]*entity.ConsultationNote{}}
}

func (r *fakeNoteRepo) Upsert(ctx context.Context, note *entity.ConsultationNote) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	cp := *note
	r.notes[note.AppointmentID] = &cp
	return nil
}

func (r *fakeNoteRepo) FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*entity.ConsultationNote, error) {
	n, ok := r.notes[appointmentID]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

// Documents

type fakeDocumentRepo struct {
	docs []entity.PatientDocument
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.PatientDocument) error {
	doc.ID = uuid.New()
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *fakeDocumentRepo) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.PatientDocument, error) {
	var out []entity.PatientDocument
	for _, d := range r.docs {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Users and roles

type fakeUserRepo struct {
	users     map[uuid.UUID]*entity.User
	createErr error
}

func newFakeUserRepo(seed ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) create(user *entity.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) CreatePatient(ctx context.Context, user *entity.User, profile *entity.PatientProfile) error {
	if err := r.create(user); err != nil {
		return err
	}
	profile.UserID = user.ID
	return nil
}

func (r *fakeUserRepo) CreateStaff(ctx context.Context, user *entity.User, profile *entity.DoctorProfile) error {
	if err := r.create(user); err != nil {
		return err
	}
	if profile != nil {
		profile.UserID = user.ID
	}
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.users[id], nil
}

type fakeRoleRepo struct{}

func (fakeRoleRepo) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	for id := entity.RoleIDAdmin; id <= entity.RoleIDPatient; id++ {
		if entity.RoleNameByID(id) == name {
			return &entity.Role{ID: id, RoleName: name}, nil
		}
	}
	return nil, nil
}

// Side effects

type auditEntry struct {
	action   string
	entity   string
	oldValue interface{}
	newValue interface{}
}

type fakeAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (s *fakeAuditService) record(action, entityName string, oldValue, newValue interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, auditEntry{action: action, entity: entityName, oldValue: oldValue, newValue: newValue})
	return nil
}

func (s *fakeAuditService) LogCreate(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return s.record(action, entityName, nil, newValue)
}

func (s *fakeAuditService) LogUpdate(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return s.record(action, entityName, oldValue, newValue)
}

func (s *fakeAuditService) LogDelete(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	return s.record(action, entityName, oldValue, nil)
}

func (s *fakeAuditService) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.action
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.AppointmentEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event entity.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeQueue struct {
	n   int
	err error
}

func (q *fakeQueue) NextTicket(ctx context.Context, clinicID uuid.UUID, day time.Time) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	q.n++
	return q.n, nil
}

type fakeTokenStore struct {
	tokens map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]bool{}}
}

func (s *fakeTokenStore) key(userID uuid.UUID, tokenID string, tokenType jwt.TokenType) string {
	return string(tokenType) + ":" + userID.String() + ":" + tokenID
}

func (s *fakeTokenStore) Store(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) error {
	s.tokens[s.key(userID, tokenID, tokenType)] = true
	return nil
}

func (s *fakeTokenStore) Exists(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error) {
	return s.tokens[s.key(userID, tokenID, tokenType)], nil
}

func (s *fakeTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error {
	delete(s.tokens, s.key(userID, tokenID, tokenType))
	return nil
}

func (s *fakeTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	for k := range s.tokens {
		delete(s.tokens, k)
	}
	return nil
}

type fakeAuditLogRepo struct {
	logs       []entity.AuditLog
	lastAction string
	lastLimit  int
	lastOffset int
}

func (r *fakeAuditLogRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditLogRepo) FindAll(ctx context.Context, action string, limit, offset int) ([]entity.AuditLog, int64, error) {
	r.lastAction, r.lastLimit, r.lastOffset = action, limit, offset
	return r.logs, int64(len(r.logs)), nil
}

func (r *fakeAuditLogRepo) FindByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	for i := range r.logs {
		if r.logs[i].ID == id {
			return &r.logs[i], nil
		}
	}
	return nil, nil
}

// Fixtures

func testClinic() *entity.Clinic {
	return &entity.Clinic{
		ID:       clinicID,
		DoctorID: doctorID,
		Name:     "Riverside Family Practice",
		Timezone: "UTC",
		IsActive: true,
	}
}

func scheduledAppointment() *entity.Appointment {
	return &entity.Appointment{
		ID:                 uuid.MustParse("00000000-0000-0000-0000-0000000000f1"),
		DoctorID:           doctorID,
		PatientID:          patientID,
		ClinicID:           clinicID,
		StartsAt:           at(9, 0),
		EndsAt:             at(9, 30),
		Status:             entity.AppointmentStatusScheduled,
		ConsultationStatus: entity.ConsultationStatusScheduled,
	}
}

func arrivedAppointment(validated bool) *entity.Appointment {
	a := scheduledAppointment()
	arrived := at(9, 10)
	a.PatientArrivedAt = &arrived
	a.ConsultationStatus = entity.ConsultationStatusWaiting
	if validated {
		a.IdentityValidated = true
		a.IdentityValidatedAt = &arrived
		a.IdentityValidatedBy = &assistantID
	}
	return a
}

func inProgressAppointment() *entity.Appointment {
	a := arrivedAppointment(true)
	started := at(9, 25)
	waiting := 15
	a.ConsultationStartedAt = &started
	a.ConsultationStatus = entity.ConsultationStatusInProgress
	a.Status = entity.AppointmentStatusInProgress
	a.WaitingTimeMinutes = &waiting
	return a
}

func withAssistant(r *fakeClinicRepo) *fakeClinicRepo {
	r.assistants[clinicID] = append(r.assistants[clinicID], entity.ClinicAssistant{ClinicID: clinicID, AssistantID: assistantID})
	return r
}

// flowFixture wires the consultation, identity and note usecases over
// shared in-memory repositories.
type flowFixture struct {
	clock        *fakeClock
	appointments *fakeAppointmentRepo
	clinics      *fakeClinicRepo
	notes        *fakeNoteRepo
	documents    *fakeDocumentRepo
	audit        *fakeAuditService
	publisher    *fakePublisher
	queue        *fakeQueue
	collector    *metrics.Collector

	consultation *consultationUsecase
	identity     *identityUsecase
	noteUC       *consultationNoteUsecase
}

func newFlowFixture(seed ...*entity.Appointment) *flowFixture {
	f := &flowFixture{
		clock:        &fakeClock{t: at(9, 0)},
		appointments: newFakeAppointmentRepo(seed...),
		clinics:      withAssistant(newFakeClinicRepo(testClinic())),
		notes:        newFakeNoteRepo(),
		documents:    &fakeDocumentRepo{},
		audit:        &fakeAuditService{},
		publisher:    &fakePublisher{},
		queue:        &fakeQueue{},
		collector:    testCollector(),
	}
	log := testLogger()

	f.consultation = NewConsultationUsecase(log, f.appointments, f.notes, f.clinics, f.queue, f.publisher, f.audit, f.collector, time.UTC).(*consultationUsecase)
	f.consultation.now = f.clock.Now

	f.identity = NewIdentityUsecase(log, f.appointments, f.appointments, f.documents, f.clinics, f.publisher, f.audit, f.collector).(*identityUsecase)
	f.identity.now = f.clock.Now

	f.noteUC = NewConsultationNoteUsecase(log, f.appointments, f.notes, f.clinics, f.audit, time.UTC).(*consultationNoteUsecase)
	return f
}
