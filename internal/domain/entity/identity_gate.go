package entity

// GateDecision is the outcome of the identity validation gate
type GateDecision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	CanSelfValidate bool   `json:"can_self_validate"`
}

const (
	ReasonDoctorMustValidate = "identity validation required: validate the patient's identity first"
	ReasonValidationRequired = "validation required"
)

// CanStartConsultation decides whether actorRole may start the consultation
// for a. A doctor facing an unvalidated patient may validate the identity
// personally and retry; nobody else can override the gate.
func CanStartConsultation(a *Appointment, actorRole string) GateDecision {
	if a.IdentityValidated {
		return GateDecision{Allowed: true}
	}
	if actorRole == RoleDoctor {
		return GateDecision{Reason: ReasonDoctorMustValidate, CanSelfValidate: true}
	}
	return GateDecision{Reason: ReasonValidationRequired}
}
