package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/delivery/http/middleware"
	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/usecase"
	"clinic-practice-api/pkg/response"
	"clinic-practice-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type fakeConsultationUsecase struct {
	err       error
	gotID     uuid.UUID
	gotActor  usecase.Actor
	lastCall  string
	returning *dto.AppointmentResponse
}

func (f *fakeConsultationUsecase) record(name string, id uuid.UUID, actor usecase.Actor) (*dto.AppointmentResponse, error) {
	f.lastCall, f.gotID, f.gotActor = name, id, actor
	if f.err != nil {
		return nil, f.err
	}
	if f.returning != nil {
		return f.returning, nil
	}
	return &dto.AppointmentResponse{ID: id}, nil
}

func (f *fakeConsultationUsecase) MarkArrived(_ context.Context, id uuid.UUID, actor usecase.Actor) (*dto.AppointmentResponse, error) {
	return f.record("arrive", id, actor)
}

func (f *fakeConsultationUsecase) StartConsultation(_ context.Context, id uuid.UUID, actor usecase.Actor) (*dto.AppointmentResponse, error) {
	return f.record("start", id, actor)
}

func (f *fakeConsultationUsecase) EndConsultation(_ context.Context, id uuid.UUID, actor usecase.Actor) (*dto.AppointmentResponse, error) {
	return f.record("end", id, actor)
}

type fakeIdentityUsecase struct {
	err      error
	gotNotes string
}

func (f *fakeIdentityUsecase) CanStartConsultation(_ context.Context, id uuid.UUID, actor usecase.Actor) (*dto.StartEligibilityResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.StartEligibilityResponse{
		AppointmentID:   id,
		Allowed:         false,
		Reason:          entity.ReasonDoctorMustValidate,
		CanSelfValidate: actor.RoleID == entity.RoleIDDoctor,
	}, nil
}

func (f *fakeIdentityUsecase) ValidateIdentity(_ context.Context, id uuid.UUID, actor usecase.Actor, req *dto.ValidateIdentityRequest) (*dto.IdentityValidationResponse, error) {
	f.gotNotes = req.Notes
	if f.err != nil {
		return nil, f.err
	}
	return &dto.IdentityValidationResponse{AppointmentID: id, ValidatedBy: actor.UserID, ValidationNotes: req.Notes}, nil
}

func (f *fakeIdentityUsecase) GetIdentityEvidence(_ context.Context, id uuid.UUID, _ usecase.Actor) (*dto.IdentityEvidenceResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.IdentityEvidenceResponse{AppointmentID: id}, nil
}

type fakeNoteUsecase struct {
	err error
	got *dto.SaveNoteRequest
}

func (f *fakeNoteUsecase) SaveNote(_ context.Context, id uuid.UUID, _ usecase.Actor, req *dto.SaveNoteRequest) (*dto.ConsultationNoteResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ConsultationNoteResponse{AppointmentID: id, Diagnosis: req.Diagnosis}, nil
}

func (f *fakeNoteUsecase) GetNote(_ context.Context, id uuid.UUID, _ usecase.Actor) (*dto.ConsultationNoteResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ConsultationNoteResponse{AppointmentID: id}, nil
}

type consultationRig struct {
	flow     *fakeConsultationUsecase
	identity *fakeIdentityUsecase
	notes    *fakeNoteUsecase
	router   *mux.Router
}

func newConsultationRig() *consultationRig {
	rig := &consultationRig{
		flow:     &fakeConsultationUsecase{},
		identity: &fakeIdentityUsecase{},
		notes:    &fakeNoteUsecase{},
	}
	h := NewConsultationHandler(rig.flow, rig.identity, rig.notes, validator.NewValidator())

	r := mux.NewRouter()
	r.HandleFunc("/appointments/{id}/arrive", h.MarkArrived).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/start", h.StartConsultation).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/end", h.EndConsultation).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/start-eligibility", h.GetStartEligibility).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}/identity-validations", h.ValidateIdentity).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/note", h.SaveNote).Methods(http.MethodPut)
	r.HandleFunc("/appointments/{id}/note", h.GetNote).Methods(http.MethodGet)
	rig.router = r
	return rig
}

var (
	testDoctor    = usecase.Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000d1"), RoleID: entity.RoleIDDoctor}
	testAssistant = usecase.Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), RoleID: entity.RoleIDAssistant}
)

func (rig *consultationRig) do(t *testing.T, actor *usecase.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	rig.router.ServeHTTP(rec, req)
	return rec
}

func decodeKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error response.ErrorDetail `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Error.Kind
}

func TestConsultationHandler_PassesActorAndID(t *testing.T) {
	rig := newConsultationRig()
	id := uuid.New()

	rec := rig.do(t, &testAssistant, http.MethodPost, "/appointments/"+id.String()+"/arrive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rig.flow.lastCall != "arrive" || rig.flow.gotID != id || rig.flow.gotActor != testAssistant {
		t.Errorf("call = %s %s %+v", rig.flow.lastCall, rig.flow.gotID, rig.flow.gotActor)
	}
}

func TestConsultationHandler_FlowErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "start without validation", path: "start", err: entity.ValidationRequired(entity.ReasonValidationRequired), wantStatus: http.StatusPreconditionRequired, wantKind: "validation_required"},
		{name: "start before arrival", path: "start", err: entity.PreconditionFailed("patient has not arrived yet"), wantStatus: http.StatusConflict, wantKind: "precondition_failed"},
		{name: "end without diagnosis", path: "end", err: entity.MissingRequiredField("diagnosis is required"), wantStatus: http.StatusUnprocessableEntity, wantKind: "missing_required_field"},
		{name: "concurrent writer", path: "arrive", err: entity.Conflict("appointment was modified concurrently"), wantStatus: http.StatusConflict, wantKind: "conflict"},
		{name: "storage down", path: "end", err: entity.PersistenceFailure(context.DeadlineExceeded), wantStatus: http.StatusServiceUnavailable, wantKind: "persistence_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newConsultationRig()
			rig.flow.err = tt.err

			rec := rig.do(t, &testDoctor, http.MethodPost, "/appointments/"+uuid.NewString()+"/"+tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if kind := decodeKind(t, rec); kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

func TestConsultationHandler_RejectsBadInput(t *testing.T) {
	rig := newConsultationRig()

	if rec := rig.do(t, &testDoctor, http.MethodPost, "/appointments/not-a-uuid/start", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	if rig.flow.lastCall != "" {
		t.Errorf("usecase called with bad id")
	}

	if rec := rig.do(t, nil, http.MethodPost, "/appointments/"+uuid.NewString()+"/start", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec := rig.do(t, &testDoctor, http.MethodPut, "/appointments/"+uuid.NewString()+"/note", `{"follow_up_date":"next week"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad follow up status = %d, want 400", rec.Code)
	}
	if rig.notes.got != nil {
		t.Error("note usecase reached despite validation failure")
	}
}

func TestConsultationHandler_SaveNote(t *testing.T) {
	rig := newConsultationRig()
	id := uuid.New()

	rec := rig.do(t, &testDoctor, http.MethodPut, "/appointments/"+id.String()+"/note",
		`{"diagnosis":"Acute bronchitis","prescription":"Rest","follow_up_date":"2024-03-18"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rig.notes.got.Diagnosis != "Acute bronchitis" || rig.notes.got.FollowUpDate != "2024-03-18" {
		t.Errorf("request = %+v", rig.notes.got)
	}
}

func TestConsultationHandler_ValidateIdentity(t *testing.T) {
	rig := newConsultationRig()

	rec := rig.do(t, &testAssistant, http.MethodPost, "/appointments/"+uuid.NewString()+"/identity-validations", `{"notes":"checked national ID card"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rig.identity.gotNotes != "checked national ID card" {
		t.Errorf("notes = %q", rig.identity.gotNotes)
	}

	// notes are optional, an empty body is fine
	rec = rig.do(t, &testAssistant, http.MethodPost, "/appointments/"+uuid.NewString()+"/identity-validations", "")
	if rec.Code != http.StatusCreated {
		t.Errorf("empty body status = %d, want 201", rec.Code)
	}
}

func TestConsultationHandler_StartEligibility(t *testing.T) {
	rig := newConsultationRig()

	rec := rig.do(t, &testDoctor, http.MethodGet, "/appointments/"+uuid.NewString()+"/start-eligibility", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data dto.StartEligibilityResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Allowed || !body.Data.CanSelfValidate {
		t.Errorf("decision = %+v", body.Data)
	}
}
