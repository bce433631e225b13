package care

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/nursestation/internal/domain/ward"
)

// Notice texts shown on the dashboard.
const (
	msgSelectPatient  = "Por favor seleccione un paciente primero."
	msgMissingFields  = "Complete los campos obligatorios: "
	msgInvalidPatient = "Identificador de paciente inválido."
	msgInvalidState   = "Estado de paciente inválido."

	msgVitalsSaved     = "Signos vitales registrados."
	msgMedicationSaved = "Medicamento registrado."
	msgNoteSaved       = "Nota guardada."
	msgConditionSaved  = "Estado actualizado a: "

	msgVitalsFailed     = "Error al registrar signos vitales: "
	msgMedicationFailed = "Error al registrar medicamento: "
	msgNoteFailed       = "Error al guardar nota: "
	msgConditionFailed  = "Error al actualizar estado: "
)

var failurePrefix = map[Form]string{
	FormVitals:     msgVitalsFailed,
	FormMedication: msgMedicationFailed,
	FormNote:       msgNoteFailed,
	FormCondition:  msgConditionFailed,
}

// noticeText renders a validation error for the dashboard.
func noticeText(err error) string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	switch {
	case errors.Is(ve.Err, ErrNoPatientSelected):
		return msgSelectPatient
	case errors.Is(ve.Err, ErrMissingField):
		return msgMissingFields + strings.Join(ve.Fields, ", ")
	case errors.Is(ve.Err, ErrInvalidPatientID):
		return msgInvalidPatient
	case errors.Is(ve.Err, ErrInvalidCondition):
		return msgInvalidState
	}
	return ve.Error()
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func missing(form Form, pairs ...string) error {
	var fields []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if blank(pairs[i+1]) {
			fields = append(fields, pairs[i])
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Form: form, Err: ErrMissingField, Fields: fields}
}

func requireSelection(s State, form Form) (uuid.UUID, error) {
	if !s.SelectedPatient.Valid {
		return uuid.Nil, &ValidationError{Form: form, Err: ErrNoPatientSelected}
	}
	return s.SelectedPatient.UUID, nil
}

func userName(s State) string {
	if s.User == nil {
		return ""
	}
	return s.User.Name
}

// vitalsRecord validates the vitals form and builds the record to append.
func vitalsRecord(s State, now time.Time) (*ward.VitalSignsRecord, error) {
	pid, err := requireSelection(s, FormVitals)
	if err != nil {
		return nil, err
	}
	f := s.Vitals
	if err := missing(FormVitals,
		"temperature", f.Temperature,
		"blood_pressure", f.BloodPressure,
		"heart_rate", f.HeartRate,
		"respiratory_rate", f.RespiratoryRate,
	); err != nil {
		return nil, err
	}
	return &ward.VitalSignsRecord{
		PatientID:       pid,
		RecordedAt:      now,
		Temperature:     f.Temperature,
		BloodPressure:   f.BloodPressure,
		HeartRate:       f.HeartRate,
		RespiratoryRate: f.RespiratoryRate,
		RegisteredBy:    userName(s),
	}, nil
}

// treatmentRecord validates the medication form. Start date and last
// application are both the submission time.
func treatmentRecord(s State, now time.Time) (*ward.TreatmentRecord, error) {
	pid, err := requireSelection(s, FormMedication)
	if err != nil {
		return nil, err
	}
	f := s.Medication
	if err := missing(FormMedication,
		"medication", f.Medication,
		"dose", f.Dose,
		"frequency", f.Frequency,
	); err != nil {
		return nil, err
	}
	return &ward.TreatmentRecord{
		PatientID:       pid,
		Medication:      f.Medication,
		Dose:            f.Dose,
		Frequency:       f.Frequency,
		Notes:           f.Notes,
		StartDate:       now.UTC().Format(ward.DateLayout),
		AppliedBy:       userName(s),
		LastApplication: now,
	}, nil
}

func nurseNote(s State, now time.Time) (*ward.NurseNote, error) {
	pid, err := requireSelection(s, FormNote)
	if err != nil {
		return nil, err
	}
	if err := missing(FormNote, "note", s.Note.Body); err != nil {
		return nil, err
	}
	return &ward.NurseNote{
		PatientID:  pid,
		RecordedAt: now,
		Note:       s.Note.Body,
		NurseName:  userName(s),
	}, nil
}

// withCondition returns the full patient record with only the condition
// replaced.
func withCondition(p ward.Patient, c ward.Condition) *ward.Patient {
	p.Condition = c
	return &p
}

// ParsePatientID parses an identifier from a request. An empty string
// clears the selection.
func ParsePatientID(raw string) (uuid.NullUUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.NullUUID{}, &ValidationError{Form: FormSelection, Err: ErrInvalidPatientID}
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}
