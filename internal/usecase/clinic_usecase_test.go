package usecase

import (
	"context"
	"errors"
	"testing"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type clinicFixture struct {
	clinics *fakeClinicRepo
	rules   *fakeAvailabilityRepo
	users   *fakeUserRepo
	audit   *fakeAuditService
	uc      *clinicUsecase
}

func newClinicFixture() *clinicFixture {
	active := true
	f := &clinicFixture{
		clinics: newFakeClinicRepo(testClinic()),
		rules:   &fakeAvailabilityRepo{},
		users: newFakeUserRepo(
			&entity.User{ID: doctorID, RoleID: entity.RoleIDDoctor, IsActive: &active},
			&entity.User{ID: assistantID, RoleID: entity.RoleIDAssistant, IsActive: &active},
			&entity.User{ID: patientID, RoleID: entity.RoleIDPatient, IsActive: &active},
		),
		audit: &fakeAuditService{},
	}
	f.uc = NewClinicUsecase(testLogger(), f.clinics, f.rules, f.users, f.audit).(*clinicUsecase)
	return f
}

func intPtr(n int) *int {
	return &n
}

func TestCreateClinic(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture()

	req := &dto.CreateClinicRequest{
		Name:            "  Hillside Clinic ",
		Timezone:        "UTC",
		ConsultationFee: decimal.RequireFromString("150000.00"),
	}
	resp, err := f.uc.CreateClinic(ctx, doctor, req)
	if err != nil {
		t.Fatalf("CreateClinic: %v", err)
	}
	if resp.DoctorID != doctorID || resp.Name != "Hillside Clinic" {
		t.Errorf("clinic = %+v", resp)
	}

	if _, err := f.uc.CreateClinic(ctx, admin, req); !errors.Is(err, ErrDoctorRequired) {
		t.Errorf("admin without doctor err = %v, want ErrDoctorRequired", err)
	}
	notDoctor := patientID
	req.DoctorID = &notDoctor
	if _, err := f.uc.CreateClinic(ctx, admin, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("admin with patient id err = %v, want ErrDoctorNotFound", err)
	}
	if _, err := f.uc.CreateClinic(ctx, assistant, req); !errors.Is(err, ErrClinicAccessDenied) {
		t.Errorf("assistant err = %v, want ErrClinicAccessDenied", err)
	}

	req.DoctorID = nil
	req.Timezone = "Mars/Olympus_Mons"
	if _, err := f.uc.CreateClinic(ctx, doctor, req); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("timezone err = %v, want ErrInvalidTimezone", err)
	}
	req.Timezone = ""
	req.ConsultationFee = decimal.NewFromInt(-1)
	if _, err := f.uc.CreateClinic(ctx, doctor, req); !errors.Is(err, ErrNegativeFee) {
		t.Errorf("fee err = %v, want ErrNegativeFee", err)
	}
}

func TestUpdateClinic_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture()
	inactive := false

	if _, err := f.uc.UpdateClinic(ctx, clinicID, otherDoc, &dto.UpdateClinicRequest{IsActive: &inactive}); !errors.Is(err, ErrClinicAccessDenied) {
		t.Fatalf("err = %v, want ErrClinicAccessDenied", err)
	}

	resp, err := f.uc.UpdateClinic(ctx, clinicID, doctor, &dto.UpdateClinicRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateClinic: %v", err)
	}
	if resp.IsActive {
		t.Error("clinic should be inactive")
	}
	if f.clinics.clinics[clinicID].IsActive {
		t.Error("stored clinic should be inactive")
	}
}

func TestCreateAvailability_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.CreateAvailabilityRequest
		wantErr error
	}{
		{name: "valid", req: dto.CreateAvailabilityRequest{Weekday: intPtr(0), StartTime: "09:00", EndTime: "12:00"}},
		{name: "sunday", req: dto.CreateAvailabilityRequest{Weekday: intPtr(6), StartTime: "08:00", EndTime: "10:00"}},
		{name: "end before start", req: dto.CreateAvailabilityRequest{Weekday: intPtr(1), StartTime: "12:00", EndTime: "09:00"}, wantErr: ErrInvalidTimeRange},
		{name: "empty window", req: dto.CreateAvailabilityRequest{Weekday: intPtr(1), StartTime: "09:00", EndTime: "09:00"}, wantErr: ErrInvalidTimeRange},
		{name: "weekday out of range", req: dto.CreateAvailabilityRequest{Weekday: intPtr(7), StartTime: "09:00", EndTime: "10:00"}, wantErr: ErrInvalidWeekday},
		{name: "missing weekday", req: dto.CreateAvailabilityRequest{StartTime: "09:00", EndTime: "10:00"}, wantErr: ErrInvalidWeekday},
		{name: "bad clock", req: dto.CreateAvailabilityRequest{Weekday: intPtr(2), StartTime: "9am", EndTime: "10:00"}, wantErr: ErrInvalidTimeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newClinicFixture()
			resp, err := f.uc.CreateAvailability(context.Background(), clinicID, doctor, &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateAvailability: %v", err)
			}
			if resp.Weekday != *tt.req.Weekday {
				t.Errorf("weekday = %d, want %d", resp.Weekday, *tt.req.Weekday)
			}
		})
	}
}

func TestUpdateAndDeleteAvailability(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture()
	otherClinic := uuid.New()
	f.rules.rules = []entity.AvailabilitySlot{
		mondayRule(1, "09:00", "12:00"),
		{ID: 2, ClinicID: otherClinic, StartTime: "09:00", EndTime: "12:00", IsActive: true},
	}

	resp, err := f.uc.UpdateAvailability(ctx, clinicID, 1, doctor, &dto.UpdateAvailabilityRequest{EndTime: "13:00"})
	if err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if resp.EndTime != "13:00" || resp.StartTime != "09:00" {
		t.Errorf("window = %s-%s, want 09:00-13:00", resp.StartTime, resp.EndTime)
	}

	if _, err := f.uc.UpdateAvailability(ctx, clinicID, 1, doctor, &dto.UpdateAvailabilityRequest{StartTime: "14:00"}); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("inverted update err = %v, want ErrInvalidTimeRange", err)
	}

	if err := f.uc.DeleteAvailability(ctx, clinicID, 2, doctor); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Errorf("foreign rule err = %v, want ErrAvailabilityNotFound", err)
	}
	if err := f.uc.DeleteAvailability(ctx, clinicID, 1, doctor); err != nil {
		t.Fatalf("DeleteAvailability: %v", err)
	}
	if len(f.rules.rules) != 1 {
		t.Errorf("rules left = %d, want 1", len(f.rules.rules))
	}

	actions := f.audit.actions()
	want := []string{entity.AuditActionAvailabilityUpdate, entity.AuditActionAvailabilityDelete}
	if len(actions) != len(want) || actions[0] != want[0] || actions[1] != want[1] {
		t.Errorf("audit actions = %v, want %v", actions, want)
	}
}

func TestAssignAssistant(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture()

	if _, err := f.uc.AssignAssistant(ctx, clinicID, doctor, &dto.AssignAssistantRequest{AssistantID: patientID}); !errors.Is(err, ErrAssistantNotFound) {
		t.Fatalf("non-assistant err = %v, want ErrAssistantNotFound", err)
	}

	if _, err := f.uc.AssignAssistant(ctx, clinicID, doctor, &dto.AssignAssistantRequest{AssistantID: assistantID}); err != nil {
		t.Fatalf("AssignAssistant: %v", err)
	}
	list, err := f.uc.ListAssistants(ctx, clinicID, assistant)
	if err != nil {
		t.Fatalf("ListAssistants: %v", err)
	}
	if len(list) != 1 || list[0].AssistantID != assistantID {
		t.Errorf("assistants = %+v", list)
	}

	f.clinics.addErr = &pgconn.PgError{Code: "23505", ConstraintName: "clinic_assistants_pkey"}
	if _, err := f.uc.AssignAssistant(ctx, clinicID, doctor, &dto.AssignAssistantRequest{AssistantID: assistantID}); !errors.Is(err, ErrAssistantAlreadyAssigned) {
		t.Errorf("duplicate err = %v, want ErrAssistantAlreadyAssigned", err)
	}
}

func TestListClinics_Paging(t *testing.T) {
	f := newClinicFixture()

	resp, err := f.uc.ListClinics(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ListClinics: %v", err)
	}
	if resp.Total != 1 || len(resp.Clinics) != 1 {
		t.Errorf("clinics = %d/%d, want 1/1", len(resp.Clinics), resp.Total)
	}

	if _, err := f.uc.GetClinic(context.Background(), uuid.New()); !errors.Is(err, ErrClinicNotFound) {
		t.Errorf("err = %v, want ErrClinicNotFound", err)
	}
}

func TestPatientDocuments(t *testing.T) {
	ctx := context.Background()
	active := true
	docs := &fakeDocumentRepo{}
	users := newFakeUserRepo(
		&entity.User{ID: patientID, RoleID: entity.RoleIDPatient, IsActive: &active},
		&entity.User{ID: doctorID, RoleID: entity.RoleIDDoctor, IsActive: &active},
	)
	audit := &fakeAuditService{}
	uc := NewPatientDocumentUsecase(testLogger(), docs, users, audit)

	req := &dto.RegisterDocumentRequest{Kind: string(entity.DocumentKindIDDocument), StoragePath: "patients/c1/id.pdf", ContentType: "application/pdf"}
	if _, err := uc.RegisterDocument(ctx, patientID, patient, req); err != nil {
		t.Fatalf("own document: %v", err)
	}
	if _, err := uc.RegisterDocument(ctx, patientID, assistant, req); err != nil {
		t.Fatalf("staff document: %v", err)
	}
	if _, err := uc.RegisterDocument(ctx, otherPatID, patient, req); !errors.Is(err, ErrDocumentAccessDenied) {
		t.Errorf("foreign patient err = %v, want ErrDocumentAccessDenied", err)
	}
	if _, err := uc.RegisterDocument(ctx, doctorID, assistant, req); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("non-patient err = %v, want ErrPatientNotFound", err)
	}

	list, err := uc.ListDocuments(ctx, patientID, doctor)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("documents = %d, want 2", len(list))
	}
	if n := len(audit.actions()); n != 2 {
		t.Errorf("audit entries = %d, want 2", n)
	}
}
