package account

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/autherr"
	"github.com/metisnation/registry/pkg/binder"
	"github.com/metisnation/registry/pkg/form"
	"github.com/metisnation/registry/pkg/logger"
	"github.com/metisnation/registry/pkg/password"
	"github.com/metisnation/registry/pkg/ratelimiter"
	"github.com/metisnation/registry/pkg/sanitizer"
	"github.com/metisnation/registry/svc/auth"
)

const MessageCodeResent = "A new code has been sent to your email."

var countdownActions = []string{ActionResendSignupCode, ActionResendResetCode}

func wrap[R any](s *Service, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](s.errorHandler),
	)
}

// Handle returns the flow routes, to be mounted at Config.BasePath.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(DeviceMiddleware(s.cookies, s.cfg.DeviceCookie), withTrackers)

	r.Get("/", wrap(s, s.show, binder.Query()))

	r.Post("/login", wrap(s, s.login, binder.Form()))
	r.Post("/signup", wrap(s, s.signup, binder.Form()))
	r.Post("/forgot-password", wrap(s, s.forgotPassword, binder.Form()))
	r.Post("/confirm-signup", wrap(s, s.confirmSignup, binder.Form()))
	r.Post("/confirm-password-reset", wrap(s, s.confirmReset, binder.Form()))
	r.Post("/totp", wrap(s, s.verifyTOTP, binder.Form()))

	r.Post("/show/signup", wrap(s, s.showSignup))
	r.Post("/show/forgot-password", wrap(s, s.showForgotPassword, binder.Form()))
	r.Post("/back", wrap(s, s.back))
	r.Post("/dismiss", wrap(s, s.dismiss))
	r.Post("/resend-code", wrap(s, s.resendCode))
	r.Post("/password-strength", wrap(s, s.passwordStrength, binder.Form()))
	r.Get("/countdown/{action}", wrap(s, s.countdown))
	r.Post("/signout", wrap(s, s.signOut))

	return r
}

type showRequest struct {
	Step  string `query:"step"`
	Email string `query:"email"`
}

type emailRequest struct {
	Email string `form:"email"`
}

type passwordRequest struct {
	Password string `form:"password"`
}

// show always starts a fresh flow, replacing the browser's previous one.
func (s *Service) show(ctx handler.Context, req showRequest) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()

	step, ok := ParseStep(req.Step)
	if !ok || (step == StepConfirmSignup || step == StepConfirmPasswordReset) && req.Email == "" {
		step = StepLogin
	}

	if old, err := s.cookies.GetSigned(r, s.cfg.FlowCookie); err == nil {
		s.flows.Delete(old)
	}

	m, err := s.newMount(step, sanitizer.NormalizeEmail(req.Email))
	if err != nil {
		return handler.Error(err)
	}
	if notice := auth.PopNotice(w, r, s.cookies); notice != "" {
		m.flow.SetMessage(notice)
	}
	s.flows.Put(m.flow.ID(), m)
	s.cookies.SetSigned(w, s.cfg.FlowCookie, m.flow.ID())

	s.log.DebugContext(ctx, "flow started", logger.FlowID(m.flow.ID()), logger.Step(string(step)))
	return s.render(ctx, m)
}

// current returns the browser's flow. Without one, the response restarts
// the flow.
func (s *Service) current(ctx handler.Context) (*mount, handler.Response) {
	id, err := s.cookies.GetSigned(ctx.Request(), s.cfg.FlowCookie)
	if err != nil {
		return nil, handler.Redirect(s.cfg.BasePath)
	}
	m, ok := s.flows.Get(id)
	if !ok {
		return nil, handler.Redirect(s.cfg.BasePath)
	}
	return m, nil
}

// submit runs fn when the flow shows step. A post from a form the flow has
// left just re-renders the current step.
func (s *Service) submit(ctx handler.Context, step Step, fn func(m *mount) error) handler.Response {
	m, resp := s.current(ctx)
	if resp != nil {
		return resp
	}
	if m.flow.Step() != step {
		return s.render(ctx, m)
	}

	err := fn(m)
	if errors.Is(err, form.ErrInFlight) {
		return handler.Error(handler.NewHTTPError(http.StatusConflict, "submission_in_flight"))
	}
	if _, _, ok := m.signedIn(); ok {
		return s.finishSignIn(ctx, m)
	}
	return s.render(ctx, m)
}

func (s *Service) login(ctx handler.Context, req LoginInput) handler.Response {
	return s.submit(ctx, StepLogin, func(m *mount) error {
		return m.login.Submit(ctx, req)
	})
}

func (s *Service) signup(ctx handler.Context, req SignupInput) handler.Response {
	return s.submit(ctx, StepSignup, func(m *mount) error {
		return m.signup.Submit(ctx, req)
	})
}

// forgotPassword advances to the reset step even when the provider failed
// with a suppressed error, so unknown addresses look like known ones.
func (s *Service) forgotPassword(ctx handler.Context, req ForgotPasswordInput) handler.Response {
	return s.submit(ctx, StepForgotPassword, func(m *mount) error {
		t := s.tracker(ctx.ResponseWriter(), ctx.Request(), ActionResendResetCode)
		err := s.guarded(ctx, t, func() error { return m.forgot.Submit(ctx, req) })
		switch {
		case errors.Is(err, form.ErrSuppressed):
			s.transition(ctx, m, m.flow.ResetRequested(ctx, sanitizer.NormalizeEmail(req.Email)))
		case errors.Is(err, ratelimiter.ErrLimited):
			m.forgot.SetError(autherr.Message(err))
		}
		return err
	})
}

func (s *Service) confirmSignup(ctx handler.Context, req ConfirmSignupInput) handler.Response {
	return s.submit(ctx, StepConfirmSignup, func(m *mount) error {
		return m.confirmSignup.Submit(ctx, req)
	})
}

func (s *Service) confirmReset(ctx handler.Context, req ConfirmResetInput) handler.Response {
	return s.submit(ctx, StepConfirmPasswordReset, func(m *mount) error {
		return m.confirmReset.Submit(ctx, req)
	})
}

func (s *Service) verifyTOTP(ctx handler.Context, req TOTPInput) handler.Response {
	return s.submit(ctx, StepTOTP, func(m *mount) error {
		return m.totp.Submit(ctx, req)
	})
}

// resendCode sends a new code for the confirmation step the flow is on.
func (s *Service) resendCode(ctx handler.Context, _ struct{}) handler.Response {
	m, resp := s.current(ctx)
	if resp != nil {
		return resp
	}

	var (
		action string
		send   func(context.Context, string) error
		fail   func(string)
	)
	switch m.flow.Step() {
	case StepConfirmSignup:
		action, send, fail = ActionResendSignupCode, s.idp.ResendConfirmationCode, m.confirmSignup.SetError
	case StepConfirmPasswordReset:
		action, send, fail = ActionResendResetCode, s.idp.ForgotPassword, m.confirmReset.SetError
	default:
		return s.render(ctx, m)
	}

	t := s.tracker(ctx.ResponseWriter(), ctx.Request(), action)
	addr := m.flow.Context().Email
	err := s.guarded(ctx, t, func() error {
		return s.call(ctx, m, "resend_code", func(ctx context.Context) error {
			return send(ctx, addr)
		})
	})
	switch {
	case err == nil:
		fail("")
		m.flow.SetMessage(MessageCodeResent)
	case isAbandoned(err):
	case action == ActionResendResetCode && !autherr.IsRateLimit(err):
		// Same answer as for a known address.
		fail("")
		m.flow.SetMessage(MessageCodeResent)
	default:
		m.flow.DismissMessage()
		fail(autherr.Message(err))
	}
	return s.render(ctx, m)
}

func (s *Service) showSignup(ctx handler.Context, _ struct{}) handler.Response {
	return s.navigate(ctx, func(m *mount) error { return m.flow.ShowSignup(ctx) })
}

func (s *Service) showForgotPassword(ctx handler.Context, req emailRequest) handler.Response {
	return s.navigate(ctx, func(m *mount) error {
		addr := sanitizer.NormalizeEmail(req.Email)
		if addr == "" {
			addr = m.login.State().Values.Email
		}
		return m.flow.ShowForgotPassword(ctx, addr)
	})
}

func (s *Service) back(ctx handler.Context, _ struct{}) handler.Response {
	return s.navigate(ctx, func(m *mount) error { return m.flow.Back(ctx) })
}

// navigate applies a user-initiated transition. Transitions the current step
// does not offer are ignored.
func (s *Service) navigate(ctx handler.Context, fn func(m *mount) error) handler.Response {
	m, resp := s.current(ctx)
	if resp != nil {
		return resp
	}
	if err := fn(m); err != nil && !errors.Is(err, ErrInvalidTransition) {
		return handler.Error(err)
	}
	return s.render(ctx, m)
}

// dismiss clears the banners of the current step.
func (s *Service) dismiss(ctx handler.Context, _ struct{}) handler.Response {
	m, resp := s.current(ctx)
	if resp != nil {
		return resp
	}
	m.flow.DismissMessage()
	switch m.flow.Step() {
	case StepLogin:
		m.login.Dismiss()
	case StepSignup:
		m.signup.Dismiss()
	case StepForgotPassword:
		m.forgot.Dismiss()
	case StepConfirmSignup:
		m.confirmSignup.Dismiss()
	case StepConfirmPasswordReset:
		m.confirmReset.Dismiss()
	case StepTOTP:
		m.totp.Dismiss()
	}
	return s.render(ctx, m)
}

// passwordStrength renders the requirement checklist for the typed password.
func (s *Service) passwordStrength(_ handler.Context, req passwordRequest) handler.Response {
	return handler.Templ(
		s.views.Requirements(RequirementsParams{Requirements: password.Evaluate(req.Password)}),
		handler.WithTarget("#"+requirementsElementID),
	)
}

// countdown streams the remaining cooldown of an action once per second.
func (s *Service) countdown(ctx handler.Context, _ struct{}) handler.Response {
	action := chi.URLParam(ctx.Request(), "action")
	if !slices.Contains(countdownActions, action) {
		return handler.Error(handler.ErrNotFound)
	}
	t := s.tracker(ctx.ResponseWriter(), ctx.Request(), action)

	return handler.SSE(func(sc handler.StreamContext) error {
		watchCtx, cancel := context.WithCancel(sc)
		defer cancel()

		var sendErr error
		t.Watch(watchCtx, func(st ratelimiter.State) {
			if err := sc.SendSignals(map[string]any{"countdown": st.Countdown}); err != nil {
				sendErr = err
				cancel()
			}
		})
		if errors.Is(sendErr, context.Canceled) {
			return nil
		}
		return sendErr
	})
}

func (s *Service) signOut(ctx handler.Context, _ struct{}) handler.Response {
	auth.SignOut(ctx, ctx.ResponseWriter(), ctx.Request(), s.sessions, s.idp, s.log)
	return handler.Redirect(s.cfg.BasePath)
}

// finishSignIn stores the session, drops the flow and leaves the auth pages.
func (s *Service) finishSignIn(ctx handler.Context, m *mount) handler.Response {
	tokens, user, _ := m.signedIn()
	err := s.sessions.Save(ctx.ResponseWriter(), auth.Session{
		AccessToken: tokens.AccessToken,
		Subject:     user.Subject,
		Email:       user.Email,
		ExpiresAt:   tokens.ExpiresAt,
	})
	if err != nil {
		return handler.Error(err)
	}

	s.flows.Delete(m.flow.ID())
	s.cookies.Delete(ctx.ResponseWriter(), s.cfg.FlowCookie)
	s.log.InfoContext(ctx, "signed in", logger.UserID(user.Subject), logger.FlowID(m.flow.ID()))
	return handler.Redirect(s.cfg.AfterLoginPath)
}
