package care

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ehr/nursestation/internal/domain/ward"
)

// fakeWard is an in-memory DataAccess that records every mutation call.
type fakeWard struct {
	mu sync.Mutex

	patients     []*ward.Patient
	appointments []*ward.Appointment
	treatments   []*ward.TreatmentRecord
	vitals       []*ward.VitalSignsRecord
	notes        []*ward.NurseNote

	updates   []ward.Patient
	mutations int

	failWith error
	// block, when set, holds mutations until it is closed.
	block   chan struct{}
	started chan struct{}
}

func newFakeWard(patients ...*ward.Patient) *fakeWard {
	return &fakeWard{patients: patients}
}

func patient(name string, c ward.Condition) *ward.Patient {
	return &ward.Patient{ID: uuid.New(), Name: name, Age: 70, Room: "101", BloodType: "O+", Condition: c}
}

func (f *fakeWard) mutate() error {
	f.mu.Lock()
	f.mutations++
	block, started, err := f.block, f.started, f.failWith
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeWard) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutations
}

func (f *fakeWard) Patients(context.Context) ([]*ward.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ward.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWard) UpdatePatient(_ context.Context, id uuid.UUID, p *ward.Patient) error {
	if err := f.mutate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, *p)
	for i, existing := range f.patients {
		if existing.ID == id {
			cp := *p
			f.patients[i] = &cp
		}
	}
	return nil
}

func (f *fakeWard) Appointments(context.Context) ([]*ward.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appointments, nil
}

func (f *fakeWard) Treatments(context.Context) ([]*ward.TreatmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.treatments, nil
}

func (f *fakeWard) AddTreatment(_ context.Context, t *ward.TreatmentRecord) error {
	if err := f.mutate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.New()
	f.treatments = append([]*ward.TreatmentRecord{t}, f.treatments...)
	return nil
}

func (f *fakeWard) VitalSigns(context.Context) ([]*ward.VitalSignsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vitals, nil
}

func (f *fakeWard) AddVitalSigns(_ context.Context, v *ward.VitalSignsRecord) error {
	if err := f.mutate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = uuid.New()
	f.vitals = append([]*ward.VitalSignsRecord{v}, f.vitals...)
	return nil
}

func (f *fakeWard) NurseNotes(context.Context) ([]*ward.NurseNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes, nil
}

func (f *fakeWard) AddNurseNote(_ context.Context, n *ward.NurseNote) error {
	if err := f.mutate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	f.notes = append([]*ward.NurseNote{n}, f.notes...)
	return nil
}
