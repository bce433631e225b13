package ward

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// collect drains rows through scan, closing rows when done.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func count(ctx context.Context, q queryable, sql string, args ...interface{}) (int, error) {
	var total int
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool queryable }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, age, room, blood_type, allergies, condition, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var condition string
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Room, &p.BloodType, &p.Allergies, &condition, &p.CreatedAt, &p.UpdatedAt)
	p.Condition = Condition(condition)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient (id, name, age, room, blood_type, allergies, condition)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Age, p.Room, p.BloodType, p.Allergies, string(p.Condition)).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE patient SET name=$2, age=$3, room=$4, blood_type=$5, allergies=$6, condition=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Age, p.Room, p.BloodType, p.Allergies, string(p.Condition)).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	total, err := count(ctx, r.pool, `SELECT COUNT(*) FROM patient`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at, name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, scanPatient)
	return items, total, err
}

func (r *patientRepoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPatient)
}

// =========== Append-only record repositories ===========

// appendOnlyPG holds the shared listing queries for tables that are only
// ever inserted into. Every such table carries a seq column that orders rows
// by insertion.
type appendOnlyPG[T any] struct {
	pool  queryable
	table string
	cols  string
	scan  func(pgx.Row) (*T, error)
}

func (r *appendOnlyPG[T]) list(ctx context.Context, limit, offset int) ([]*T, int, error) {
	total, err := count(ctx, r.pool, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table))
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq DESC LIMIT $1 OFFSET $2`, r.cols, r.table), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, r.scan)
	return items, total, err
}

func (r *appendOnlyPG[T]) listByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*T, int, error) {
	total, err := count(ctx, r.pool, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE patient_id = $1`, r.table), patientID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE patient_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`, r.cols, r.table),
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, r.scan)
	return items, total, err
}

func (r *appendOnlyPG[T]) listAll(ctx context.Context) ([]*T, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq DESC`, r.cols, r.table))
	if err != nil {
		return nil, err
	}
	return collect(rows, r.scan)
}

// -- Vital signs --

type vitalSignsRepoPG struct {
	appendOnlyPG[VitalSignsRecord]
}

func NewVitalSignsRepoPG(pool *pgxpool.Pool) VitalSignsRepository {
	return &vitalSignsRepoPG{appendOnlyPG[VitalSignsRecord]{
		pool:  pool,
		table: "vital_signs",
		cols:  `id, patient_id, recorded_at, temperature, blood_pressure, heart_rate, respiratory_rate, registered_by`,
		scan: func(row pgx.Row) (*VitalSignsRecord, error) {
			var v VitalSignsRecord
			err := row.Scan(&v.ID, &v.PatientID, &v.RecordedAt, &v.Temperature, &v.BloodPressure,
				&v.HeartRate, &v.RespiratoryRate, &v.RegisteredBy)
			return &v, err
		},
	}}
}

func (r *vitalSignsRepoPG) Create(ctx context.Context, v *VitalSignsRecord) error {
	v.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vital_signs (id, patient_id, recorded_at, temperature, blood_pressure, heart_rate, respiratory_rate, registered_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.PatientID, v.RecordedAt, v.Temperature, v.BloodPressure, v.HeartRate, v.RespiratoryRate, v.RegisteredBy)
	return err
}

func (r *vitalSignsRepoPG) List(ctx context.Context, limit, offset int) ([]*VitalSignsRecord, int, error) {
	return r.list(ctx, limit, offset)
}

func (r *vitalSignsRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error) {
	return r.listByPatient(ctx, patientID, limit, offset)
}

func (r *vitalSignsRepoPG) ListAll(ctx context.Context) ([]*VitalSignsRecord, error) {
	return r.listAll(ctx)
}

// -- Treatment --

type treatmentRepoPG struct {
	appendOnlyPG[TreatmentRecord]
}

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{appendOnlyPG[TreatmentRecord]{
		pool:  pool,
		table: "treatment",
		cols:  `id, patient_id, medication, dose, frequency, notes, start_date, applied_by, last_application`,
		scan: func(row pgx.Row) (*TreatmentRecord, error) {
			var t TreatmentRecord
			err := row.Scan(&t.ID, &t.PatientID, &t.Medication, &t.Dose, &t.Frequency, &t.Notes,
				&t.StartDate, &t.AppliedBy, &t.LastApplication)
			return &t, err
		},
	}}
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *TreatmentRecord) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO treatment (id, patient_id, medication, dose, frequency, notes, start_date, applied_by, last_application)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.PatientID, t.Medication, t.Dose, t.Frequency, t.Notes, t.StartDate, t.AppliedBy, t.LastApplication)
	return err
}

func (r *treatmentRepoPG) List(ctx context.Context, limit, offset int) ([]*TreatmentRecord, int, error) {
	return r.list(ctx, limit, offset)
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TreatmentRecord, int, error) {
	return r.listByPatient(ctx, patientID, limit, offset)
}

func (r *treatmentRepoPG) ListAll(ctx context.Context) ([]*TreatmentRecord, error) {
	return r.listAll(ctx)
}

// -- Nurse note --

type nurseNoteRepoPG struct {
	appendOnlyPG[NurseNote]
}

func NewNurseNoteRepoPG(pool *pgxpool.Pool) NurseNoteRepository {
	return &nurseNoteRepoPG{appendOnlyPG[NurseNote]{
		pool:  pool,
		table: "nurse_note",
		cols:  `id, patient_id, recorded_at, note, nurse_name`,
		scan: func(row pgx.Row) (*NurseNote, error) {
			var n NurseNote
			err := row.Scan(&n.ID, &n.PatientID, &n.RecordedAt, &n.Note, &n.NurseName)
			return &n, err
		},
	}}
}

func (r *nurseNoteRepoPG) Create(ctx context.Context, n *NurseNote) error {
	n.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO nurse_note (id, patient_id, recorded_at, note, nurse_name)
		VALUES ($1,$2,$3,$4,$5)`,
		n.ID, n.PatientID, n.RecordedAt, n.Note, n.NurseName)
	return err
}

func (r *nurseNoteRepoPG) List(ctx context.Context, limit, offset int) ([]*NurseNote, int, error) {
	return r.list(ctx, limit, offset)
}

func (r *nurseNoteRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*NurseNote, int, error) {
	return r.listByPatient(ctx, patientID, limit, offset)
}

func (r *nurseNoteRepoPG) ListAll(ctx context.Context) ([]*NurseNote, error) {
	return r.listAll(ctx)
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool queryable }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, patient_id, scheduled_date, scheduled_time, reason`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Date, &a.Time, &a.Reason)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment (id, patient_id, scheduled_date, scheduled_time, reason)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.PatientID, a.Date, a.Time, a.Reason)
	return err
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	total, err := count(ctx, r.pool, `SELECT COUNT(*) FROM appointment`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentCols+` FROM appointment ORDER BY scheduled_date, scheduled_time LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, scanAppointment)
	return items, total, err
}

func (r *appointmentRepoPG) ListAll(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentCols+` FROM appointment ORDER BY scheduled_date, scheduled_time`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}
