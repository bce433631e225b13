package care

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/nursestation/internal/domain/identity"
	"github.com/ehr/nursestation/internal/platform/auth"
)

// Accounts registers staff and checks logins.
type Accounts interface {
	Register(ctx context.Context, r identity.Registration) (*identity.StaffUser, error)
	Authenticate(ctx context.Context, c identity.Credentials) (identity.Principal, error)
}

type Handler struct {
	sessions *Registry
	accounts Accounts
	tokens   *auth.TokenIssuer
}

func NewHandler(sessions *Registry, accounts Accounts, tokens *auth.TokenIssuer) *Handler {
	return &Handler{sessions: sessions, accounts: accounts, tokens: tokens}
}

// RegisterRoutes mounts the session and care routes. mw wraps the /care
// group, e.g. the readiness gate.
func (h *Handler) RegisterRoutes(api *echo.Group, mw ...echo.MiddlewareFunc) {
	sessions := api.Group("/sessions")
	sessions.POST("", h.OpenSession)
	sessions.GET("/:sid", h.GetSession, h.loadSession)
	sessions.DELETE("/:sid", h.CloseSession, h.loadSession)
	sessions.POST("/:sid/show-register", h.ShowRegister, h.loadSession)
	sessions.POST("/:sid/show-login", h.ShowLogin, h.loadSession)
	sessions.POST("/:sid/register", h.Register, h.loadSession)
	sessions.POST("/:sid/login", h.Login, h.loadSession)

	mw = append([]echo.MiddlewareFunc{auth.SessionMiddleware(h.tokens), h.loadTokenSession}, mw...)
	careGroup := api.Group("/care", mw...)
	careGroup.GET("/state", h.GetState)
	careGroup.POST("/logout", h.Logout)

	nurse := careGroup.Group("", auth.RequireRole(auth.RoleNurse))
	nurse.POST("/tab", h.SelectTab)
	nurse.POST("/select", h.SelectPatient)
	nurse.POST("/manage/:patient_id", h.ManageCare)
	nurse.GET("/overview", h.Overview)
	nurse.GET("/patients", h.Directory)
	nurse.GET("/view", h.CareView)
	nurse.PUT("/vitals", h.EditVitals)
	nurse.POST("/vitals", h.SubmitVitals)
	nurse.PUT("/medication", h.EditMedication)
	nurse.POST("/medication", h.SubmitMedication)
	nurse.PUT("/note", h.EditNote)
	nurse.POST("/note", h.SubmitNote)
	nurse.POST("/condition", h.UpdateCondition)
	nurse.DELETE("/notice", h.DismissNotice)
}

type stateResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Token     string `json:"token,omitempty"`
	Error     string `json:"error,omitempty"`
	State     State  `json:"state"`
}

const sessionKey = "care_session"

func sessionFrom(c echo.Context) *Session {
	s, _ := c.Get(sessionKey).(*Session)
	return s
}

func (h *Handler) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, ok := h.sessions.Get(c.Param("sid"))
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		c.Set(sessionKey, s)
		return next(c)
	}
}

// loadTokenSession resolves the session named by the bearer token.
func (h *Handler) loadTokenSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, ok := h.sessions.Get(auth.SessionIDFromContext(c.Request().Context()))
		if !ok || !s.State().LoggedIn() {
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		c.Set(sessionKey, s)
		return next(c)
	}
}

// respond writes the snapshot with a status derived from err.
func respond(c echo.Context, st State, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, stateResponse{State: st})
	}

	var (
		verr *ValidationError
		merr *MutationError
		herr *echo.HTTPError
	)
	if errors.As(err, &herr) {
		return herr
	}
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrInvalidTab):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrSubmitPending):
		status = http.StatusConflict
	case errors.As(err, &merr):
		status = http.StatusBadGateway
	case errors.Is(err, ErrNotNurse):
		status = http.StatusForbidden
	default:
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(status, stateResponse{State: st, Error: err.Error()})
}

// -- Gate --

func (h *Handler) OpenSession(c echo.Context) error {
	s := h.sessions.Open()
	return c.JSON(http.StatusCreated, stateResponse{SessionID: s.ID, State: s.State()})
}

// GetSession answers without a token, so a logged-in session only reveals
// its gate position. The dashboard state is read from /care/state.
func (h *Handler) GetSession(c echo.Context) error {
	s := sessionFrom(c)
	return c.JSON(http.StatusOK, stateResponse{SessionID: s.ID, State: gateState(s.State())})
}

func gateState(st State) State {
	if !st.LoggedIn() {
		return st
	}
	return State{Phase: st.Phase}
}

// CloseSession drops the view session. Care routes reject tokens issued for
// it from then on.
func (h *Handler) CloseSession(c echo.Context) error {
	h.sessions.Close(sessionFrom(c).ID)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ShowRegister(c echo.Context) error {
	return respond(c, sessionFrom(c).Dispatch(ShowRegister{}), nil)
}

func (h *Handler) ShowLogin(c echo.Context) error {
	return respond(c, sessionFrom(c).Dispatch(ShowLogin{}), nil)
}

func (h *Handler) Register(c echo.Context) error {
	s := sessionFrom(c)
	if st := s.State(); st.Phase != PhaseLoggedOut || st.Screen != ScreenRegister {
		return echo.NewHTTPError(http.StatusConflict, ErrNotRegistering.Error())
	}

	var r identity.Registration
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.accounts.Register(c.Request().Context(), r); err != nil {
		switch {
		case errors.Is(err, identity.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, identity.ErrInvalidRegistration):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, s.Dispatch(RegisterSucceeded{}), nil)
}

func (h *Handler) Login(c echo.Context) error {
	s := sessionFrom(c)
	if s.State().Phase != PhaseLoggedOut {
		return echo.NewHTTPError(http.StatusConflict, ErrLoggedIn.Error())
	}

	var creds identity.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.accounts.Authenticate(c.Request().Context(), creds)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, _, err := h.tokens.Issue(s.ID, p.Name, p.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	st := s.Dispatch(LoginSucceeded{User: User{Name: p.Name, Role: p.Role}})
	return c.JSON(http.StatusOK, stateResponse{SessionID: s.ID, Token: token, State: st})
}

// -- Care --

func (h *Handler) GetState(c echo.Context) error {
	return respond(c, sessionFrom(c).State(), nil)
}

func (h *Handler) Logout(c echo.Context) error {
	if claims, ok := auth.ClaimsFromEcho(c); ok {
		h.tokens.Revoke(claims)
	}
	return respond(c, sessionFrom(c).Dispatch(Logout{}), nil)
}

func (h *Handler) SelectTab(c echo.Context) error {
	var body struct {
		Tab string `json:"tab"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := sessionFrom(c).SelectTab(body.Tab)
	return respond(c, st, err)
}

func (h *Handler) SelectPatient(c echo.Context) error {
	var body struct {
		PatientID string `json:"patient_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := sessionFrom(c).SelectPatient(body.PatientID)
	return respond(c, st, err)
}

func (h *Handler) ManageCare(c echo.Context) error {
	st, err := sessionFrom(c).ManageCare(c.Param("patient_id"))
	return respond(c, st, err)
}

func (h *Handler) Overview(c echo.Context) error {
	o, err := sessionFrom(c).Overview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Directory(c echo.Context) error {
	entries, err := sessionFrom(c).Directory(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) CareView(c echo.Context) error {
	view, err := sessionFrom(c).CareView(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

// bindDraft binds a partial body onto the current draft of form and applies
// it. Nothing is bound while the form's submit is pending.
func bindDraft[F any](c echo.Context, form Form, draft func(State) F, edit func(*Session, F) (State, error)) (*Session, State, error) {
	s := sessionFrom(c)
	st := s.State()
	if st.Pending.Is(form) {
		return s, st, ErrSubmitPending
	}
	f := draft(st)
	if err := c.Bind(&f); err != nil {
		return s, st, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := edit(s, f)
	return s, st, err
}

func vitalsDraft(st State) VitalsForm         { return st.Vitals }
func medicationDraft(st State) MedicationForm { return st.Medication }
func noteDraft(st State) NoteForm             { return st.Note }

func (h *Handler) EditVitals(c echo.Context) error {
	_, st, err := bindDraft(c, FormVitals, vitalsDraft, (*Session).EditVitals)
	return respond(c, st, err)
}

func (h *Handler) SubmitVitals(c echo.Context) error {
	s, st, err := bindDraft(c, FormVitals, vitalsDraft, (*Session).EditVitals)
	if err != nil {
		return respond(c, st, err)
	}
	st, err = s.SubmitVitals(c.Request().Context())
	return respond(c, st, err)
}

func (h *Handler) EditMedication(c echo.Context) error {
	_, st, err := bindDraft(c, FormMedication, medicationDraft, (*Session).EditMedication)
	return respond(c, st, err)
}

func (h *Handler) SubmitMedication(c echo.Context) error {
	s, st, err := bindDraft(c, FormMedication, medicationDraft, (*Session).EditMedication)
	if err != nil {
		return respond(c, st, err)
	}
	st, err = s.SubmitMedication(c.Request().Context())
	return respond(c, st, err)
}

func (h *Handler) EditNote(c echo.Context) error {
	_, st, err := bindDraft(c, FormNote, noteDraft, (*Session).EditNote)
	return respond(c, st, err)
}

func (h *Handler) SubmitNote(c echo.Context) error {
	s, st, err := bindDraft(c, FormNote, noteDraft, (*Session).EditNote)
	if err != nil {
		return respond(c, st, err)
	}
	st, err = s.SubmitNote(c.Request().Context())
	return respond(c, st, err)
}

// UpdateCondition picks the condition from the body, if any, and applies it
// to the selected patient.
func (h *Handler) UpdateCondition(c echo.Context) error {
	var body struct {
		Condition *string `json:"condition"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s := sessionFrom(c)
	if body.Condition != nil {
		if st, err := s.ChooseCondition(*body.Condition); err != nil {
			return respond(c, st, err)
		}
	}
	st, err := s.UpdateCondition(c.Request().Context())
	return respond(c, st, err)
}

func (h *Handler) DismissNotice(c echo.Context) error {
	return respond(c, sessionFrom(c).Dispatch(DismissNotice{}), nil)
}
