// Package care holds the per-tab view session of the nurse dashboard: the
// authentication gate, the selected patient, the care forms and the read
// views built from the ward collections.
//
// A session's State is an immutable snapshot. It only changes through Reduce,
// which is pure; Session serializes the events that feed it.
package care

import (
	"github.com/google/uuid"

	"github.com/ehr/nursestation/internal/domain/ward"
)

// Phase is the authentication gate position.
type Phase string

const (
	PhaseLoggedOut Phase = "logged_out"
	PhaseNurse     Phase = "nurse"
	PhaseOther     Phase = "other"
)

// Screen selects the logged-out form.
type Screen string

const (
	ScreenLogin    Screen = "login"
	ScreenRegister Screen = "register"
)

type Tab string

const (
	TabOverview Tab = "overview"
	TabPatients Tab = "patients"
	TabCare     Tab = "care"
)

func (t Tab) Valid() bool {
	return t == TabOverview || t == TabPatients || t == TabCare
}

// Form names a care action. Notices and pending flags are keyed by it.
type Form string

const (
	FormVitals     Form = "vitals"
	FormMedication Form = "medication"
	FormNote       Form = "note"
	FormCondition  Form = "condition"
	FormSelection  Form = "selection"
	FormRegister   Form = "register"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the message the dashboard shows after an action.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Form Form       `json:"form"`
	Text string     `json:"text"`
}

// User is the logged-in staff member. It lives only in the session.
type User struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

const RoleNurse = "nurse"

type VitalsForm struct {
	Temperature     string `json:"temperature"`
	BloodPressure   string `json:"blood_pressure"`
	HeartRate       string `json:"heart_rate"`
	RespiratoryRate string `json:"respiratory_rate"`
}

type MedicationForm struct {
	Medication string `json:"medication"`
	Dose       string `json:"dose"`
	Frequency  string `json:"frequency"`
	Notes      string `json:"notes"`
}

type NoteForm struct {
	Body string `json:"note"`
}

// Pending marks forms whose mutation is in flight.
type Pending struct {
	Vitals     bool `json:"vitals"`
	Medication bool `json:"medication"`
	Note       bool `json:"note"`
	Condition  bool `json:"condition"`
}

func (p Pending) Is(f Form) bool {
	switch f {
	case FormVitals:
		return p.Vitals
	case FormMedication:
		return p.Medication
	case FormNote:
		return p.Note
	case FormCondition:
		return p.Condition
	}
	return false
}

func (p Pending) with(f Form, v bool) Pending {
	switch f {
	case FormVitals:
		p.Vitals = v
	case FormMedication:
		p.Medication = v
	case FormNote:
		p.Note = v
	case FormCondition:
		p.Condition = v
	}
	return p
}

// State is one snapshot of a view session.
type State struct {
	Phase  Phase  `json:"phase"`
	Screen Screen `json:"screen,omitempty"`
	User   *User  `json:"user,omitempty"`

	Tab             Tab            `json:"tab,omitempty"`
	SelectedPatient uuid.NullUUID  `json:"selected_patient_id"`
	Vitals          VitalsForm     `json:"vitals"`
	Medication      MedicationForm `json:"medication"`
	Note            NoteForm       `json:"note"`
	Condition       ward.Condition `json:"condition"`
	Pending         Pending        `json:"pending"`
	Notice          *Notice        `json:"notice,omitempty"`
}

// Initial is the state of a new session: logged out on the login screen.
func Initial() State {
	return State{Phase: PhaseLoggedOut, Screen: ScreenLogin}
}

// dashboard is the fresh dashboard state after login.
func dashboard(u User) State {
	phase := PhaseOther
	if u.Role == RoleNurse {
		phase = PhaseNurse
	}
	return State{Phase: phase, User: &u, Tab: TabOverview}
}

func (s State) LoggedIn() bool {
	return s.Phase == PhaseNurse || s.Phase == PhaseOther
}

// CareReady reports whether the care view shows its forms.
func (s State) CareReady() bool {
	return s.Phase == PhaseNurse && s.SelectedPatient.Valid
}
