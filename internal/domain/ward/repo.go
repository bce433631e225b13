package ward

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListAll(ctx context.Context) ([]*Patient, error)
}

// The append-only repositories list newest records first.

type VitalSignsRepository interface {
	Create(ctx context.Context, v *VitalSignsRecord) error
	List(ctx context.Context, limit, offset int) ([]*VitalSignsRecord, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error)
	ListAll(ctx context.Context) ([]*VitalSignsRecord, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, t *TreatmentRecord) error
	List(ctx context.Context, limit, offset int) ([]*TreatmentRecord, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TreatmentRecord, int, error)
	ListAll(ctx context.Context) ([]*TreatmentRecord, error)
}

type NurseNoteRepository interface {
	Create(ctx context.Context, n *NurseNote) error
	List(ctx context.Context, limit, offset int) ([]*NurseNote, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*NurseNote, int, error)
	ListAll(ctx context.Context) ([]*NurseNote, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListAll(ctx context.Context) ([]*Appointment, error)
}
