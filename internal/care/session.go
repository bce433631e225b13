package care

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/nursestation/internal/domain/ward"
)

// DataAccess is what the dashboard needs from the ward store.
type DataAccess interface {
	Patients(ctx context.Context) ([]*ward.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, p *ward.Patient) error
	Appointments(ctx context.Context) ([]*ward.Appointment, error)
	Treatments(ctx context.Context) ([]*ward.TreatmentRecord, error)
	AddTreatment(ctx context.Context, t *ward.TreatmentRecord) error
	VitalSigns(ctx context.Context) ([]*ward.VitalSignsRecord, error)
	AddVitalSigns(ctx context.Context, v *ward.VitalSignsRecord) error
	NurseNotes(ctx context.Context) ([]*ward.NurseNote, error)
	AddNurseNote(ctx context.Context, n *ward.NurseNote) error
}

// Session is one dashboard tab. Events are applied one at a time; store
// mutations run outside the lock with the form marked pending.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	epoch    uint64 // bumped on login and logout
	lastSeen time.Time

	data   DataAccess
	now    func() time.Time
	logger zerolog.Logger
}

func newSession(id string, data DataAccess, now func() time.Time, logger zerolog.Logger) *Session {
	return &Session{
		ID:       id,
		state:    Initial(),
		lastSeen: now(),
		data:     data,
		now:      now,
		logger:   logger.With().Str("session_id", id).Logger(),
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the session and returns the new snapshot.
func (s *Session) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(a)
}

func (s *Session) applyLocked(a Action) State {
	before := s.state
	s.state = Reduce(s.state, a)
	if before.Phase != s.state.Phase {
		s.epoch++
	}
	return s.state
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SelectTab switches the dashboard tab.
func (s *Session) SelectTab(raw string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseNurse {
		return s.state, ErrNotNurse
	}
	tab := Tab(raw)
	if !tab.Valid() {
		return s.state, fmt.Errorf("%w: %q", ErrInvalidTab, raw)
	}
	return s.applyLocked(SelectTab{Tab: tab}), nil
}

// SelectPatient changes the care view's patient. An empty id clears it.
func (s *Session) SelectPatient(raw string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseNurse {
		return s.state, ErrNotNurse
	}
	id, err := ParsePatientID(raw)
	if err != nil {
		return s.applyLocked(SubmitRejected{Form: FormSelection, Message: noticeText(err)}), err
	}
	return s.applyLocked(SelectPatient{ID: id}), nil
}

// ManageCare selects the patient and opens the care tab in one step.
func (s *Session) ManageCare(raw string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseNurse {
		return s.state, ErrNotNurse
	}
	id, err := ParsePatientID(raw)
	if err == nil && !id.Valid {
		err = &ValidationError{Form: FormSelection, Err: ErrInvalidPatientID}
	}
	if err != nil {
		return s.applyLocked(SubmitRejected{Form: FormSelection, Message: noticeText(err)}), err
	}
	return s.applyLocked(ManageCare{ID: id.UUID}), nil
}

// ChooseCondition records the condition picked for the selected patient.
// An empty value clears the choice.
func (s *Session) ChooseCondition(raw string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseNurse {
		return s.state, ErrNotNurse
	}
	if raw == "" {
		return s.applyLocked(ChooseCondition{}), nil
	}
	c, err := ward.ParseCondition(raw)
	if err != nil {
		verr := &ValidationError{Form: FormCondition, Err: ErrInvalidCondition}
		return s.applyLocked(SubmitRejected{Form: FormCondition, Message: noticeText(verr)}), verr
	}
	return s.applyLocked(ChooseCondition{Condition: c}), nil
}

// EditVitals replaces the vitals draft. It fails with ErrSubmitPending while
// the form's submit is in flight.
func (s *Session) EditVitals(f VitalsForm) (State, error) {
	return s.edit(FormVitals, EditVitals{Form: f})
}

func (s *Session) EditMedication(f MedicationForm) (State, error) {
	return s.edit(FormMedication, EditMedication{Form: f})
}

func (s *Session) EditNote(f NoteForm) (State, error) {
	return s.edit(FormNote, EditNote{Form: f})
}

func (s *Session) edit(form Form, a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Phase != PhaseNurse:
		return s.state, ErrNotNurse
	case s.state.Pending.Is(form):
		return s.state, ErrSubmitPending
	}
	return s.applyLocked(a), nil
}

// SubmitVitals appends a vital signs record for the selected patient.
func (s *Session) SubmitVitals(ctx context.Context) (State, error) {
	return s.submit(ctx, FormVitals, func(st State, now time.Time) (mutation, string, error) {
		rec, err := vitalsRecord(st, now)
		if err != nil {
			return nil, "", err
		}
		return func(ctx context.Context) error { return s.data.AddVitalSigns(ctx, rec) }, msgVitalsSaved, nil
	})
}

// SubmitMedication appends a treatment record for the selected patient.
func (s *Session) SubmitMedication(ctx context.Context) (State, error) {
	return s.submit(ctx, FormMedication, func(st State, now time.Time) (mutation, string, error) {
		rec, err := treatmentRecord(st, now)
		if err != nil {
			return nil, "", err
		}
		return func(ctx context.Context) error { return s.data.AddTreatment(ctx, rec) }, msgMedicationSaved, nil
	})
}

// SubmitNote appends a nursing note for the selected patient.
func (s *Session) SubmitNote(ctx context.Context) (State, error) {
	return s.submit(ctx, FormNote, func(st State, now time.Time) (mutation, string, error) {
		rec, err := nurseNote(st, now)
		if err != nil {
			return nil, "", err
		}
		return func(ctx context.Context) error { return s.data.AddNurseNote(ctx, rec) }, msgNoteSaved, nil
	})
}

// UpdateCondition writes the chosen condition onto the selected patient's
// full record. Without a selection or a choice, or when the patient is no
// longer in the collection, it does nothing.
func (s *Session) UpdateCondition(ctx context.Context) (State, error) {
	s.mu.Lock()
	st := s.state
	switch {
	case st.Phase != PhaseNurse:
		s.mu.Unlock()
		return st, ErrNotNurse
	case st.Pending.Condition:
		s.mu.Unlock()
		return st, ErrSubmitPending
	case !st.SelectedPatient.Valid || st.Condition == "":
		s.mu.Unlock()
		return st, nil
	}
	epoch := s.epoch
	s.applyLocked(SubmitStarted{Form: FormCondition})
	s.mu.Unlock()

	pid, choice := st.SelectedPatient.UUID, st.Condition
	err := s.updateCondition(ctx, pid, choice)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return s.state, err
	}
	switch {
	case errors.Is(err, errPatientGone):
		return s.applyLocked(SubmitAbandoned{Form: FormCondition}), nil
	case err != nil:
		s.logger.Warn().Err(err).Str("form", string(FormCondition)).Msg("care mutation failed")
		return s.applyLocked(SubmitFailed{Form: FormCondition, Message: msgConditionFailed + err.Error()}),
			&MutationError{Form: FormCondition, Err: err}
	}
	return s.applyLocked(SubmitSucceeded{Form: FormCondition, Message: msgConditionSaved + string(choice)}), nil
}

var errPatientGone = errors.New("selected patient not found")

func (s *Session) updateCondition(ctx context.Context, pid uuid.UUID, c ward.Condition) error {
	patients, err := s.data.Patients(ctx)
	if err != nil {
		return fmt.Errorf("load patients: %w", err)
	}
	p, ok := ward.FindPatient(patients, pid)
	if !ok {
		return errPatientGone
	}
	return s.data.UpdatePatient(ctx, p.ID, withCondition(p, c))
}

type mutation func(ctx context.Context) error

// submit runs the shared form workflow: validate under the lock, mark the
// form pending, call the store without the lock, then record the outcome.
func (s *Session) submit(ctx context.Context, form Form, prepare func(State, time.Time) (mutation, string, error)) (State, error) {
	s.mu.Lock()
	st := s.state
	if st.Phase != PhaseNurse {
		s.mu.Unlock()
		return st, ErrNotNurse
	}
	if st.Pending.Is(form) {
		s.mu.Unlock()
		return st, ErrSubmitPending
	}
	run, okMsg, err := prepare(st, s.now())
	if err != nil {
		next := s.applyLocked(SubmitRejected{Form: form, Message: noticeText(err)})
		s.mu.Unlock()
		return next, err
	}
	epoch := s.epoch
	s.applyLocked(SubmitStarted{Form: form})
	s.mu.Unlock()

	err = run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		// The user logged out while the call was in flight.
		return s.state, err
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("form", string(form)).Msg("care mutation failed")
		return s.applyLocked(SubmitFailed{Form: form, Message: failurePrefix[form] + err.Error()}),
			&MutationError{Form: form, Err: err}
	}
	s.logger.Info().Str("form", string(form)).Msg("care record saved")
	return s.applyLocked(SubmitSucceeded{Form: form, Message: okMsg}), nil
}
