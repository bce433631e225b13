package ward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/nursestation/internal/platform/websocket"
)

// Change topics published after a successful mutation.
const (
	TopicPatients   = "patients"
	TopicVitalSigns = "vital-signs"
	TopicTreatments = "treatments"
	TopicNurseNotes = "nurse-notes"
)

type Service struct {
	patients     PatientRepository
	vitals       VitalSignsRepository
	treatments   TreatmentRepository
	notes        NurseNoteRepository
	appointments AppointmentRepository
	publisher    websocket.EventPublisher
	logger       zerolog.Logger
	seedDemo     bool
	now          func() time.Time
}

func NewService(
	patients PatientRepository,
	vitals VitalSignsRepository,
	treatments TreatmentRepository,
	notes NurseNoteRepository,
	appointments AppointmentRepository,
) *Service {
	return &Service{
		patients:     patients,
		vitals:       vitals,
		treatments:   treatments,
		notes:        notes,
		appointments: appointments,
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
}

// NewMemoryService wires a Service to a fresh MemoryStore.
func NewMemoryService() *Service {
	m := NewMemoryStore()
	return NewService(m.Patients(), m.VitalSigns(), m.Treatments(), m.NurseNotes(), m.Appointments())
}

// SetPublisher attaches an optional change publisher.
func (s *Service) SetPublisher(p websocket.EventPublisher) {
	s.publisher = p
}

func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// SetSeedDemoData controls whether Initialize seeds an empty store.
func (s *Service) SetSeedDemoData(enabled bool) {
	s.seedDemo = enabled
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Initialize prepares the store for the dashboard. It verifies the store is
// reachable and seeds the demo ward when the store is empty and seeding is on.
func (s *Service) Initialize(ctx context.Context) error {
	existing, err := s.patients.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("initialize ward: %w", err)
	}
	if len(existing) > 0 || !s.seedDemo {
		s.logger.Info().Int("patients", len(existing)).Msg("ward store ready")
		return nil
	}
	if err := s.Seed(ctx); err != nil {
		return fmt.Errorf("initialize ward: %w", err)
	}
	s.logger.Info().Msg("ward store seeded with demo data")
	return nil
}

// -- Patients --

func (s *Service) Patients(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListAll(ctx)
}

func (s *Service) Patient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Condition == "" {
		p.Condition = ConditionObservation
	}
	if !p.Condition.Valid() {
		return fmt.Errorf("invalid condition: %q", p.Condition)
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, "created", TopicPatients, p.ID, p)
	return nil
}

// UpdatePatient replaces the stored record for id with p. The caller sends
// the full merged record; only the condition is expected to differ.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, p *Patient) error {
	if id == uuid.Nil {
		return fmt.Errorf("patient id is required")
	}
	if p.ID != uuid.Nil && p.ID != id {
		return fmt.Errorf("patient id mismatch")
	}
	if !p.Condition.Valid() {
		return fmt.Errorf("invalid condition: %q", p.Condition)
	}
	p.ID = id
	if err := s.patients.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("patient %s: %w", id, err)
		}
		return err
	}
	s.publish(ctx, "updated", TopicPatients, id, p)
	return nil
}

// -- Vital signs --

func (s *Service) VitalSigns(ctx context.Context) ([]*VitalSignsRecord, error) {
	return s.vitals.ListAll(ctx)
}

func (s *Service) ListVitalSigns(ctx context.Context, limit, offset int) ([]*VitalSignsRecord, int, error) {
	return s.vitals.List(ctx, limit, offset)
}

func (s *Service) VitalSignsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error) {
	return s.vitals.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AddVitalSigns(ctx context.Context, v *VitalSignsRecord) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.Temperature == "" || v.BloodPressure == "" || v.HeartRate == "" || v.RespiratoryRate == "" {
		return fmt.Errorf("temperature, blood_pressure, heart_rate and respiratory_rate are required")
	}
	if err := s.requirePatient(ctx, v.PatientID); err != nil {
		return err
	}
	if v.RecordedAt.IsZero() {
		v.RecordedAt = s.now()
	}
	if err := s.vitals.Create(ctx, v); err != nil {
		return err
	}
	s.publish(ctx, "created", TopicVitalSigns, v.ID, v)
	return nil
}

// -- Treatments --

func (s *Service) Treatments(ctx context.Context) ([]*TreatmentRecord, error) {
	return s.treatments.ListAll(ctx)
}

func (s *Service) ListTreatments(ctx context.Context, limit, offset int) ([]*TreatmentRecord, int, error) {
	return s.treatments.List(ctx, limit, offset)
}

func (s *Service) TreatmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TreatmentRecord, int, error) {
	return s.treatments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AddTreatment(ctx context.Context, t *TreatmentRecord) error {
	if t.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if t.Medication == "" || t.Dose == "" || t.Frequency == "" {
		return fmt.Errorf("medication, dose and frequency are required")
	}
	if err := s.requirePatient(ctx, t.PatientID); err != nil {
		return err
	}
	now := s.now()
	if t.LastApplication.IsZero() {
		t.LastApplication = now
	}
	if t.StartDate == "" {
		t.StartDate = now.UTC().Format(DateLayout)
	}
	if err := s.treatments.Create(ctx, t); err != nil {
		return err
	}
	s.publish(ctx, "created", TopicTreatments, t.ID, t)
	return nil
}

// -- Nurse notes --

func (s *Service) NurseNotes(ctx context.Context) ([]*NurseNote, error) {
	return s.notes.ListAll(ctx)
}

func (s *Service) ListNurseNotes(ctx context.Context, limit, offset int) ([]*NurseNote, int, error) {
	return s.notes.List(ctx, limit, offset)
}

func (s *Service) NurseNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*NurseNote, int, error) {
	return s.notes.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AddNurseNote(ctx context.Context, n *NurseNote) error {
	if n.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if n.Note == "" {
		return fmt.Errorf("note is required")
	}
	if err := s.requirePatient(ctx, n.PatientID); err != nil {
		return err
	}
	if n.RecordedAt.IsZero() {
		n.RecordedAt = s.now()
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, "created", TopicNurseNotes, n.ID, n)
	return nil
}

// -- Appointments --

func (s *Service) Appointments(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.ListAll(ctx)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("patient %s: %w", id, err)
		}
		return err
	}
	return nil
}

func (s *Service) publish(ctx context.Context, kind, topic string, id uuid.UUID, payload any) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("encode change event")
		return
	}
	event := websocket.Event{
		Type:       kind,
		Topic:      topic,
		ResourceID: id.String(),
		Timestamp:  s.now(),
		Data:       data,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("publish change event")
	}
}
