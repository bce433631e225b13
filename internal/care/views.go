package care

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/nursestation/internal/domain/ward"
)

const (
	RecentNotesLimit    = 5
	UnknownPatientLabel = "Paciente desconocido"
)

// Overview is the dashboard summary.
type Overview struct {
	TotalPatients     int         `json:"total_patients"`
	CriticalPatients  int         `json:"critical_patients"`
	TotalTreatments   int         `json:"total_treatments"`
	AppointmentsToday int         `json:"appointments_today"`
	RecentNotes       []NoteEntry `json:"recent_notes"`
}

// NoteEntry is a nursing note with its patient resolved for display.
type NoteEntry struct {
	ID           uuid.UUID `json:"id"`
	PatientID    uuid.UUID `json:"patient_id"`
	PatientLabel string    `json:"patient_label"`
	RecordedAt   time.Time `json:"recorded_at"`
	Note         string    `json:"note"`
	NurseName    string    `json:"nurse_name"`
}

// Summarize computes the overview from the collections as returned by the
// store. today is an ISO date compared as a string against appointment dates.
func Summarize(patients []*ward.Patient, treatments []*ward.TreatmentRecord, appointments []*ward.Appointment, notes []*ward.NurseNote, today string) Overview {
	o := Overview{
		TotalPatients:   len(patients),
		TotalTreatments: len(treatments),
		RecentNotes:     []NoteEntry{},
	}
	for _, p := range patients {
		if p.Condition == ward.ConditionCritical {
			o.CriticalPatients++
		}
	}
	for _, a := range appointments {
		if a.Date == today {
			o.AppointmentsToday++
		}
	}
	for i, n := range notes {
		if i == RecentNotesLimit {
			break
		}
		o.RecentNotes = append(o.RecentNotes, NoteEntry{
			ID:           n.ID,
			PatientID:    n.PatientID,
			PatientLabel: PatientLabel(patients, n.PatientID),
			RecordedAt:   n.RecordedAt,
			Note:         n.Note,
			NurseName:    n.NurseName,
		})
	}
	return o
}

// PatientLabel is the patient's name, or UnknownPatientLabel when the id does
// not resolve.
func PatientLabel(patients []*ward.Patient, id uuid.UUID) string {
	if p, ok := ward.FindPatient(patients, id); ok {
		return p.Name
	}
	return UnknownPatientLabel
}

// Badge classes for the patient directory.
const (
	BadgeCritical   = "critical"
	BadgeStable     = "stable"
	BadgeRecovering = "recovering"
	BadgeNeutral    = "neutral"
)

func BadgeFor(c ward.Condition) string {
	switch c {
	case ward.ConditionCritical:
		return BadgeCritical
	case ward.ConditionStable:
		return BadgeStable
	case ward.ConditionRecovering:
		return BadgeRecovering
	}
	return BadgeNeutral
}

type DirectoryEntry struct {
	ward.Patient
	Badge string `json:"badge"`
}

func Directory(patients []*ward.Patient) []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(patients))
	for _, p := range patients {
		out = append(out, DirectoryEntry{Patient: *p, Badge: BadgeFor(p.Condition)})
	}
	return out
}

// PatientOption is one entry of the care view's patient picker.
type PatientOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Room string    `json:"room"`
}

// CareView is the care tab. Without a selected patient only the picker and
// the prompt are set.
type CareView struct {
	Prompt     string                   `json:"prompt,omitempty"`
	Options    []PatientOption          `json:"patients"`
	Patient    *ward.Patient            `json:"patient,omitempty"`
	Conditions []ward.Condition         `json:"conditions"`
	Vitals     []*ward.VitalSignsRecord `json:"vital_signs,omitempty"`
	Treatments []*ward.TreatmentRecord  `json:"treatments,omitempty"`
	Notes      []*ward.NurseNote        `json:"nurse_notes,omitempty"`
	State      State                    `json:"state"`
}

const selectPatientPrompt = "Seleccione un paciente para registrar cuidados."

// Overview reads the collections and summarizes them for today's date.
func (s *Session) Overview(ctx context.Context) (Overview, error) {
	if s.State().Phase != PhaseNurse {
		return Overview{}, ErrNotNurse
	}
	patients, err := s.data.Patients(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load patients: %w", err)
	}
	treatments, err := s.data.Treatments(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load treatments: %w", err)
	}
	appointments, err := s.data.Appointments(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load appointments: %w", err)
	}
	notes, err := s.data.NurseNotes(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load nurse notes: %w", err)
	}
	today := s.now().UTC().Format(ward.DateLayout)
	return Summarize(patients, treatments, appointments, notes, today), nil
}

func (s *Session) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	if s.State().Phase != PhaseNurse {
		return nil, ErrNotNurse
	}
	patients, err := s.data.Patients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	return Directory(patients), nil
}

// CareView builds the care tab for the current selection.
func (s *Session) CareView(ctx context.Context) (CareView, error) {
	st := s.State()
	if st.Phase != PhaseNurse {
		return CareView{}, ErrNotNurse
	}
	patients, err := s.data.Patients(ctx)
	if err != nil {
		return CareView{}, fmt.Errorf("load patients: %w", err)
	}

	view := CareView{
		Options:    make([]PatientOption, 0, len(patients)),
		Conditions: ward.Conditions(),
		State:      st,
	}
	for _, p := range patients {
		view.Options = append(view.Options, PatientOption{ID: p.ID, Name: p.Name, Room: p.Room})
	}
	if !st.SelectedPatient.Valid {
		view.Prompt = selectPatientPrompt
		return view, nil
	}

	pid := st.SelectedPatient.UUID
	if p, ok := ward.FindPatient(patients, pid); ok {
		view.Patient = &p
	}

	vitals, err := s.data.VitalSigns(ctx)
	if err != nil {
		return CareView{}, fmt.Errorf("load vital signs: %w", err)
	}
	treatments, err := s.data.Treatments(ctx)
	if err != nil {
		return CareView{}, fmt.Errorf("load treatments: %w", err)
	}
	notes, err := s.data.NurseNotes(ctx)
	if err != nil {
		return CareView{}, fmt.Errorf("load nurse notes: %w", err)
	}
	view.Vitals = forPatient(vitals, pid, func(v *ward.VitalSignsRecord) uuid.UUID { return v.PatientID })
	view.Treatments = forPatient(treatments, pid, func(t *ward.TreatmentRecord) uuid.UUID { return t.PatientID })
	view.Notes = forPatient(notes, pid, func(n *ward.NurseNote) uuid.UUID { return n.PatientID })
	return view, nil
}

func forPatient[T any](items []*T, pid uuid.UUID, patientOf func(*T) uuid.UUID) []*T {
	var out []*T
	for _, it := range items {
		if patientOf(it) == pid {
			out = append(out, it)
		}
	}
	return out
}
