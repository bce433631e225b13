package care

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/nursestation/internal/domain/ward"
)

func TestSummarize(t *testing.T) {
	juan := patient("Juan Pérez", ward.ConditionStable)
	maria := patient("María García", ward.ConditionCritical)
	carlos := patient("Carlos López", ward.ConditionCritical)
	patients := []*ward.Patient{juan, maria, carlos}

	treatments := []*ward.TreatmentRecord{{PatientID: juan.ID}, {PatientID: maria.ID}}
	appointments := []*ward.Appointment{
		{PatientID: juan.ID, Date: "2024-05-14"},
		{PatientID: maria.ID, Date: "2024-05-14"},
		{PatientID: carlos.ID, Date: "2024-05-15"},
	}

	var notes []*ward.NurseNote
	for i := 0; i < 7; i++ {
		notes = append(notes, &ward.NurseNote{ID: uuid.New(), PatientID: juan.ID, Note: fmt.Sprintf("nota %d", i)})
	}
	notes[1].PatientID = uuid.New()

	o := Summarize(patients, treatments, appointments, notes, "2024-05-14")
	if o.TotalPatients != 3 || o.CriticalPatients != 2 || o.TotalTreatments != 2 || o.AppointmentsToday != 2 {
		t.Errorf("unexpected counts: %+v", o)
	}
	if len(o.RecentNotes) != RecentNotesLimit {
		t.Fatalf("expected %d recent notes, got %d", RecentNotesLimit, len(o.RecentNotes))
	}
	for i, n := range o.RecentNotes {
		if n.Note != fmt.Sprintf("nota %d", i) {
			t.Errorf("recent note %d out of store order: %q", i, n.Note)
		}
	}
	if o.RecentNotes[0].PatientLabel != "Juan Pérez" {
		t.Errorf("expected resolved name, got %q", o.RecentNotes[0].PatientLabel)
	}
	if o.RecentNotes[1].PatientLabel != UnknownPatientLabel {
		t.Errorf("expected placeholder label, got %q", o.RecentNotes[1].PatientLabel)
	}
}

func TestSummarize_Empty(t *testing.T) {
	o := Summarize(nil, nil, nil, nil, "2024-05-14")
	if o.TotalPatients != 0 || o.CriticalPatients != 0 || o.AppointmentsToday != 0 {
		t.Errorf("expected zero counts, got %+v", o)
	}
	if o.RecentNotes == nil {
		t.Error("recent notes must be an empty list, not nil")
	}
}

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		condition ward.Condition
		want      string
	}{
		{ward.ConditionCritical, BadgeCritical},
		{ward.ConditionStable, BadgeStable},
		{ward.ConditionRecovering, BadgeRecovering},
		{ward.ConditionObservation, BadgeNeutral},
		{ward.Condition(""), BadgeNeutral},
	}
	for _, tt := range tests {
		if got := BadgeFor(tt.condition); got != tt.want {
			t.Errorf("BadgeFor(%q) = %q, want %q", tt.condition, got, tt.want)
		}
	}
}

func TestDirectory(t *testing.T) {
	patients := []*ward.Patient{
		patient("Juan Pérez", ward.ConditionStable),
		patient("Lucía Fernández", ward.ConditionObservation),
	}
	entries := Directory(patients)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "Juan Pérez" || entries[0].Badge != BadgeStable {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Badge != BadgeNeutral {
		t.Errorf("expected neutral badge for observation, got %q", entries[1].Badge)
	}
}

func TestSession_Overview(t *testing.T) {
	juan := patient("Juan Pérez", ward.ConditionCritical)
	data := newFakeWard(juan)
	data.appointments = []*ward.Appointment{
		{PatientID: juan.ID, Date: testNow.Format(ward.DateLayout)},
		{PatientID: juan.ID, Date: testNow.Add(24 * time.Hour).Format(ward.DateLayout)},
	}
	s := nurseSession(data, "Ana")

	o, err := s.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.CriticalPatients != 1 || o.AppointmentsToday != 1 {
		t.Errorf("unexpected overview: %+v", o)
	}
}

func TestSession_OverviewFollowsConditionChange(t *testing.T) {
	juan := patient("Juan Pérez", ward.ConditionStable)
	maria := patient("María García", ward.ConditionCritical)
	data := newFakeWard(juan, maria)
	s := nurseSession(data, "Ana")
	ctx := context.Background()

	before, err := s.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if before.CriticalPatients != 1 {
		t.Fatalf("expected 1 critical patient, got %d", before.CriticalPatients)
	}

	s.ManageCare(juan.ID.String())
	s.ChooseCondition(string(ward.ConditionCritical))
	if _, err := s.UpdateCondition(ctx); err != nil {
		t.Fatalf("update condition: %v", err)
	}

	after, err := s.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if after.CriticalPatients != 2 {
		t.Errorf("expected 2 critical patients after the update, got %d", after.CriticalPatients)
	}
	if after.TotalPatients != 2 {
		t.Errorf("expected 2 patients, got %d", after.TotalPatients)
	}
}

func TestSession_CareView(t *testing.T) {
	juan := patient("Juan Pérez", ward.ConditionStable)
	maria := patient("María García", ward.ConditionCritical)
	data := newFakeWard(juan, maria)
	data.vitals = []*ward.VitalSignsRecord{{PatientID: maria.ID}, {PatientID: juan.ID, Temperature: "36.5"}}
	data.notes = []*ward.NurseNote{{PatientID: juan.ID, Note: "Descansa"}}
	s := nurseSession(data, "Ana")
	ctx := context.Background()

	view, err := s.CareView(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Prompt != selectPatientPrompt || view.Patient != nil {
		t.Errorf("expected prompt only, got %+v", view)
	}
	if len(view.Options) != 2 || len(view.Conditions) != 4 {
		t.Errorf("expected picker and conditions, got %d options %d conditions", len(view.Options), len(view.Conditions))
	}

	s.ManageCare(juan.ID.String())
	view, err = s.CareView(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Prompt != "" || view.Patient == nil || view.Patient.ID != juan.ID {
		t.Fatalf("expected Juan's care view, got %+v", view)
	}
	if len(view.Vitals) != 1 || view.Vitals[0].Temperature != "36.5" {
		t.Errorf("expected only Juan's vitals, got %+v", view.Vitals)
	}
	if len(view.Notes) != 1 || len(view.Treatments) != 0 {
		t.Errorf("unexpected history: %d notes %d treatments", len(view.Notes), len(view.Treatments))
	}
	if view.State.Tab != TabCare {
		t.Errorf("expected care tab, got %q", view.State.Tab)
	}
}
