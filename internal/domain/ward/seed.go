package ward

import (
	"context"
	"fmt"
)

func strPtr(s string) *string { return &s }

// Seed loads the demo ward: four patients, one note and today's appointments.
func (s *Service) Seed(ctx context.Context) error {
	now := s.now()
	today := now.UTC().Format(DateLayout)
	tomorrow := now.UTC().AddDate(0, 0, 1).Format(DateLayout)

	patients := []*Patient{
		{Name: "Juan Pérez", Age: 67, Room: "101", BloodType: "O+", Allergies: strPtr("Penicilina"), Condition: ConditionStable},
		{Name: "María García", Age: 45, Room: "102", BloodType: "A-", Condition: ConditionCritical},
		{Name: "Carlos López", Age: 52, Room: "103", BloodType: "B+", Allergies: strPtr("Látex"), Condition: ConditionRecovering},
		{Name: "Lucía Fernández", Age: 30, Room: "104", BloodType: "AB+", Condition: ConditionObservation},
	}
	for _, p := range patients {
		if err := s.CreatePatient(ctx, p); err != nil {
			return fmt.Errorf("seed patient %q: %w", p.Name, err)
		}
	}

	appointments := []*Appointment{
		{PatientID: patients[0].ID, Date: today, Time: "09:00", Reason: "Control de presión arterial"},
		{PatientID: patients[1].ID, Date: today, Time: "11:30", Reason: "Revisión cardiológica"},
		{PatientID: patients[2].ID, Date: tomorrow, Time: "10:00", Reason: "Curación de herida"},
	}
	for _, a := range appointments {
		if err := s.CreateAppointment(ctx, a); err != nil {
			return fmt.Errorf("seed appointment: %w", err)
		}
	}

	note := &NurseNote{
		PatientID:  patients[1].ID,
		RecordedAt: now,
		Note:       "Paciente con saturación baja durante la noche, se notificó al médico de guardia.",
		NurseName:  "Turno noche",
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return fmt.Errorf("seed note: %w", err)
	}
	return nil
}
