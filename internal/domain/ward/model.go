package ward

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Condition is the categorical clinical status of a patient.
type Condition string

const (
	ConditionStable      Condition = "Estable"
	ConditionCritical    Condition = "Crítico"
	ConditionRecovering  Condition = "Recuperación"
	ConditionObservation Condition = "Observación"
)

// Conditions lists the valid condition values in display order.
func Conditions() []Condition {
	return []Condition{ConditionStable, ConditionCritical, ConditionRecovering, ConditionObservation}
}

func (c Condition) Valid() bool {
	switch c {
	case ConditionStable, ConditionCritical, ConditionRecovering, ConditionObservation:
		return true
	}
	return false
}

// ParseCondition returns the Condition for s or an error when s is not one of
// the known values. Matching is exact.
func ParseCondition(s string) (Condition, error) {
	c := Condition(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid condition: %q", s)
	}
	return c, nil
}

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Age       int       `db:"age" json:"age"`
	Room      string    `db:"room" json:"room"`
	BloodType string    `db:"blood_type" json:"blood_type"`
	Allergies *string   `db:"allergies" json:"allergies,omitempty"`
	Condition Condition `db:"condition" json:"condition"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VitalSignsRecord maps to the vital_signs table. Rows are append-only.
type VitalSignsRecord struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	RecordedAt      time.Time `db:"recorded_at" json:"recorded_at"`
	Temperature     string    `db:"temperature" json:"temperature"`
	BloodPressure   string    `db:"blood_pressure" json:"blood_pressure"`
	HeartRate       string    `db:"heart_rate" json:"heart_rate"`
	RespiratoryRate string    `db:"respiratory_rate" json:"respiratory_rate"`
	RegisteredBy    string    `db:"registered_by" json:"registered_by"`
}

// TreatmentRecord maps to the treatment table. Rows are append-only.
type TreatmentRecord struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	Medication      string    `db:"medication" json:"medication"`
	Dose            string    `db:"dose" json:"dose"`
	Frequency       string    `db:"frequency" json:"frequency"`
	Notes           string    `db:"notes" json:"notes"`
	StartDate       string    `db:"start_date" json:"start_date"`
	AppliedBy       string    `db:"applied_by" json:"applied_by"`
	LastApplication time.Time `db:"last_application" json:"last_application"`
}

// NurseNote maps to the nurse_note table. Rows are append-only.
type NurseNote struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	Note       string    `db:"note" json:"note"`
	NurseName  string    `db:"nurse_name" json:"nurse_name"`
}

// Appointment maps to the appointment table. Date is an ISO calendar date
// (YYYY-MM-DD).
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Date      string    `db:"scheduled_date" json:"date"`
	Time      string    `db:"scheduled_time" json:"time"`
	Reason    string    `db:"reason" json:"reason"`
}

// DateLayout is the layout of Appointment.Date and TreatmentRecord.StartDate.
const DateLayout = "2006-01-02"

// FindPatient returns the patient with the given id from an in-memory
// collection.
func FindPatient(patients []*Patient, id uuid.UUID) (Patient, bool) {
	for _, p := range patients {
		if p != nil && p.ID == id {
			return *p, true
		}
	}
	return Patient{}, false
}
