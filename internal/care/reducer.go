package care

import (
	"github.com/google/uuid"

	"github.com/ehr/nursestation/internal/domain/ward"
)

// Action is an event applied to a State by Reduce.
type Action interface {
	isAction()
}

type (
	ShowRegister      struct{}
	ShowLogin         struct{}
	RegisterSucceeded struct{}
	LoginSucceeded    struct{ User User }
	Logout            struct{}

	SelectTab     struct{ Tab Tab }
	SelectPatient struct{ ID uuid.NullUUID }
	ManageCare    struct{ ID uuid.UUID }

	// Edits to a form whose submit is pending are dropped, so the success
	// that clears the form never erases unsent input.
	EditVitals      struct{ Form VitalsForm }
	EditMedication  struct{ Form MedicationForm }
	EditNote        struct{ Form NoteForm }
	ChooseCondition struct{ Condition ward.Condition }

	SubmitStarted struct{ Form Form }
	// SubmitSucceeded clears the form's fields and shows Message.
	SubmitSucceeded struct {
		Form    Form
		Message string
	}
	// SubmitFailed keeps the fields for a manual retry.
	SubmitFailed struct {
		Form    Form
		Message string
	}
	// SubmitRejected reports a validation failure. Nothing else changes.
	SubmitRejected struct {
		Form    Form
		Message string
	}
	// SubmitAbandoned ends a pending submit without a notice.
	SubmitAbandoned struct{ Form Form }
	DismissNotice   struct{}
)

func (ShowRegister) isAction()      {}
func (ShowLogin) isAction()         {}
func (RegisterSucceeded) isAction() {}
func (LoginSucceeded) isAction()    {}
func (Logout) isAction()            {}
func (SelectTab) isAction()         {}
func (SelectPatient) isAction()     {}
func (ManageCare) isAction()        {}
func (EditVitals) isAction()        {}
func (EditMedication) isAction()    {}
func (EditNote) isAction()          {}
func (ChooseCondition) isAction()   {}
func (SubmitStarted) isAction()     {}
func (SubmitSucceeded) isAction()   {}
func (SubmitFailed) isAction()      {}
func (SubmitRejected) isAction()    {}
func (SubmitAbandoned) isAction()   {}
func (DismissNotice) isAction()     {}

const registeredMessage = "Cuenta creada correctamente. Por favor inicie sesión."

// Reduce returns the state that follows s after a. Actions that do not apply
// to the current phase return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ShowRegister:
		if s.Phase == PhaseLoggedOut && s.Screen == ScreenLogin {
			s.Screen = ScreenRegister
			s.Notice = nil
		}
	case ShowLogin:
		if s.Phase == PhaseLoggedOut && s.Screen == ScreenRegister {
			s.Screen = ScreenLogin
			s.Notice = nil
		}
	case RegisterSucceeded:
		if s.Phase == PhaseLoggedOut && s.Screen == ScreenRegister {
			s.Screen = ScreenLogin
			s.Notice = &Notice{Kind: NoticeSuccess, Form: FormRegister, Text: registeredMessage}
		}
	case LoginSucceeded:
		if s.Phase == PhaseLoggedOut {
			return dashboard(a.User)
		}
	case Logout:
		if s.LoggedIn() {
			return Initial()
		}
	}

	if s.Phase != PhaseNurse {
		return s
	}
	return reduceDashboard(s, a)
}

func reduceDashboard(s State, a Action) State {
	switch a := a.(type) {
	case SelectTab:
		if a.Tab.Valid() {
			s.Tab = a.Tab
		}
	case SelectPatient:
		s = selectPatient(s, a.ID)
	case ManageCare:
		s = selectPatient(s, uuid.NullUUID{UUID: a.ID, Valid: true})
		s.Tab = TabCare
	case EditVitals:
		if !s.Pending.Vitals {
			s.Vitals = a.Form
		}
	case EditMedication:
		if !s.Pending.Medication {
			s.Medication = a.Form
		}
	case EditNote:
		if !s.Pending.Note {
			s.Note = a.Form
		}
	case ChooseCondition:
		s.Condition = a.Condition
	case SubmitStarted:
		s.Pending = s.Pending.with(a.Form, true)
		s.Notice = nil
	case SubmitSucceeded:
		s.Pending = s.Pending.with(a.Form, false)
		s = clearForm(s, a.Form)
		s.Notice = &Notice{Kind: NoticeSuccess, Form: a.Form, Text: a.Message}
	case SubmitFailed:
		s.Pending = s.Pending.with(a.Form, false)
		s.Notice = &Notice{Kind: NoticeError, Form: a.Form, Text: a.Message}
	case SubmitRejected:
		s.Notice = &Notice{Kind: NoticeError, Form: a.Form, Text: a.Message}
	case SubmitAbandoned:
		s.Pending = s.Pending.with(a.Form, false)
	case DismissNotice:
		s.Notice = nil
	}
	return s
}

// selectPatient changes the selection. A different patient drops the pending
// condition choice so it is never applied to the wrong record.
func selectPatient(s State, id uuid.NullUUID) State {
	if s.SelectedPatient != id {
		s.Condition = ""
	}
	s.SelectedPatient = id
	return s
}

func clearForm(s State, f Form) State {
	switch f {
	case FormVitals:
		s.Vitals = VitalsForm{}
	case FormMedication:
		s.Medication = MedicationForm{}
	case FormNote:
		s.Note = NoteForm{}
	}
	return s
}
