package ward

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the ward collections in process memory. It backs the
// development mode and the tests of packages that need a real store.
type MemoryStore struct {
	mu           sync.RWMutex
	patients     []*Patient
	vitals       []*VitalSignsRecord
	treatments   []*TreatmentRecord
	notes        []*NurseNote
	appointments []*Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Patients() PatientRepository         { return &memPatientRepo{m} }
func (m *MemoryStore) VitalSigns() VitalSignsRepository    { return &memVitalsRepo{m} }
func (m *MemoryStore) Treatments() TreatmentRepository     { return &memTreatmentRepo{m} }
func (m *MemoryStore) NurseNotes() NurseNoteRepository     { return &memNoteRepo{m} }
func (m *MemoryStore) Appointments() AppointmentRepository { return &memAppointmentRepo{m} }

// page slices items for limit/offset and returns the total count.
func page[T any](items []T, limit, offset int) ([]T, int) {
	total := len(items)
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return items[offset:end], total
}

// newestFirst copies records in reverse insertion order.
func newestFirst[T any](items []*T, keep func(*T) bool) []*T {
	out := make([]*T, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if keep == nil || keep(items[i]) {
			cp := *items[i]
			out = append(out, &cp)
		}
	}
	return out
}

// =========== Patient ===========

type memPatientRepo struct{ m *MemoryStore }

func (r *memPatientRepo) Create(_ context.Context, p *Patient) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.m.patients = append(r.m.patients, &cp)
	return nil
}

func (r *memPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, p := range r.m.patients {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memPatientRepo) Update(_ context.Context, p *Patient) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, existing := range r.m.patients {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now()
			cp := *p
			r.m.patients[i] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (r *memPatientRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	all, _ := r.ListAll(ctx)
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memPatientRepo) ListAll(_ context.Context) ([]*Patient, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*Patient, 0, len(r.m.patients))
	for _, p := range r.m.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// =========== Vital signs ===========

type memVitalsRepo struct{ m *MemoryStore }

func (r *memVitalsRepo) Create(_ context.Context, v *VitalSignsRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v.ID = uuid.New()
	cp := *v
	r.m.vitals = append(r.m.vitals, &cp)
	return nil
}

func (r *memVitalsRepo) List(ctx context.Context, limit, offset int) ([]*VitalSignsRecord, int, error) {
	all, _ := r.ListAll(ctx)
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memVitalsRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	all := newestFirst(r.m.vitals, func(v *VitalSignsRecord) bool { return v.PatientID == patientID })
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memVitalsRepo) ListAll(_ context.Context) ([]*VitalSignsRecord, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return newestFirst(r.m.vitals, nil), nil
}

// =========== Treatment ===========

type memTreatmentRepo struct{ m *MemoryStore }

func (r *memTreatmentRepo) Create(_ context.Context, t *TreatmentRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = uuid.New()
	cp := *t
	r.m.treatments = append(r.m.treatments, &cp)
	return nil
}

func (r *memTreatmentRepo) List(ctx context.Context, limit, offset int) ([]*TreatmentRecord, int, error) {
	all, _ := r.ListAll(ctx)
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memTreatmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*TreatmentRecord, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	all := newestFirst(r.m.treatments, func(t *TreatmentRecord) bool { return t.PatientID == patientID })
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memTreatmentRepo) ListAll(_ context.Context) ([]*TreatmentRecord, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return newestFirst(r.m.treatments, nil), nil
}

// =========== Nurse note ===========

type memNoteRepo struct{ m *MemoryStore }

func (r *memNoteRepo) Create(_ context.Context, n *NurseNote) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n.ID = uuid.New()
	cp := *n
	r.m.notes = append(r.m.notes, &cp)
	return nil
}

func (r *memNoteRepo) List(ctx context.Context, limit, offset int) ([]*NurseNote, int, error) {
	all, _ := r.ListAll(ctx)
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memNoteRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*NurseNote, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	all := newestFirst(r.m.notes, func(n *NurseNote) bool { return n.PatientID == patientID })
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memNoteRepo) ListAll(_ context.Context) ([]*NurseNote, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return newestFirst(r.m.notes, nil), nil
}

// =========== Appointment ===========

type memAppointmentRepo struct{ m *MemoryStore }

func (r *memAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a.ID = uuid.New()
	cp := *a
	r.m.appointments = append(r.m.appointments, &cp)
	return nil
}

func (r *memAppointmentRepo) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	all, _ := r.ListAll(ctx)
	items, total := page(all, limit, offset)
	return items, total, nil
}

func (r *memAppointmentRepo) ListAll(_ context.Context) ([]*Appointment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*Appointment, 0, len(r.m.appointments))
	for _, a := range r.m.appointments {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
