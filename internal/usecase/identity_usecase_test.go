package usecase

import (
	"context"
	"errors"
	"testing"

	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestValidateIdentity_LaterCallsOnlyAddHistory(t *testing.T) {
	ctx := context.Background()
	a := arrivedAppointment(false)
	f := newFlowFixture(a)

	f.clock.t = at(9, 11)
	first, err := f.identity.ValidateIdentity(ctx, a.ID, assistant, &dto.ValidateIdentityRequest{Notes: "  passport  "})
	if err != nil {
		t.Fatalf("first ValidateIdentity: %v", err)
	}
	if !first.IsAuthoritative {
		t.Fatal("first validation should be authoritative")
	}
	if first.ValidationNotes != "passport" {
		t.Errorf("notes = %q, want trimmed", first.ValidationNotes)
	}

	f.clock.t = at(9, 14)
	second, err := f.identity.ValidateIdentity(ctx, a.ID, doctor, nil)
	if err != nil {
		t.Fatalf("second ValidateIdentity: %v", err)
	}
	if second.IsAuthoritative {
		t.Error("second validation should not be authoritative")
	}

	stored := f.appointments.get(a.ID)
	if !stored.IdentityValidated || stored.IdentityValidatedBy == nil || *stored.IdentityValidatedBy != assistantID {
		t.Errorf("validated by = %v, want the assistant", stored.IdentityValidatedBy)
	}
	if !stored.IdentityValidatedAt.Equal(at(9, 11)) {
		t.Errorf("validated at = %v, want 09:11", stored.IdentityValidatedAt)
	}

	evidence, err := f.identity.GetIdentityEvidence(ctx, a.ID, doctor)
	if err != nil {
		t.Fatalf("GetIdentityEvidence: %v", err)
	}
	if len(evidence.History) != 2 {
		t.Fatalf("history = %d entries, want 2", len(evidence.History))
	}

	var validatedEvents int
	for _, typ := range f.publisher.types() {
		if typ == entity.EventIdentityValidated {
			validatedEvents++
		}
	}
	if validatedEvents != 1 {
		t.Errorf("identity events = %d, want 1", validatedEvents)
	}
	if got := testutil.ToFloat64(f.collector.IdentityValidations.WithLabelValues(entity.RoleDoctor)); got != 1 {
		t.Errorf("doctor validations = %v, want 1", got)
	}
}

func TestValidateIdentity_CompletedConsultation(t *testing.T) {
	a := inProgressAppointment()
	a.ConsultationStatus = entity.ConsultationStatusCompleted
	a.Status = entity.AppointmentStatusCompleted
	f := newFlowFixture(a)

	_, err := f.identity.ValidateIdentity(context.Background(), a.ID, doctor, nil)
	if !errors.Is(err, entity.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failed", err)
	}
	if len(f.appointments.history) != 0 {
		t.Errorf("history = %d entries, want none", len(f.appointments.history))
	}
}

func TestValidateIdentity_UnassignedAssistant(t *testing.T) {
	a := arrivedAppointment(false)
	f := newFlowFixture(a)
	f.clinics.assistants[clinicID] = nil

	_, err := f.identity.ValidateIdentity(context.Background(), a.ID, assistant, nil)
	if !errors.Is(err, ErrAppointmentAccessDenied) {
		t.Fatalf("err = %v, want access denied", err)
	}
}

func TestGetIdentityEvidence_DocumentsAreAdvisory(t *testing.T) {
	ctx := context.Background()
	a := arrivedAppointment(false)
	f := newFlowFixture(a)
	f.documents.docs = []entity.PatientDocument{
		{PatientID: patientID, Kind: entity.DocumentKindProfilePhoto, StoragePath: "patients/c1/photo.jpg"},
		{PatientID: otherPatID, Kind: entity.DocumentKindIDDocument, StoragePath: "patients/c2/id.pdf"},
	}

	evidence, err := f.identity.GetIdentityEvidence(ctx, a.ID, assistant)
	if err != nil {
		t.Fatalf("GetIdentityEvidence: %v", err)
	}
	if !evidence.HasProfilePhoto || evidence.HasIDDocument || evidence.Ready {
		t.Errorf("evidence = %+v, want photo only and not ready", evidence)
	}

	// missing documents never block validation
	if _, err := f.identity.ValidateIdentity(ctx, a.ID, assistant, nil); err != nil {
		t.Fatalf("ValidateIdentity: %v", err)
	}
}
