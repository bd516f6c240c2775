package account

import (
	"github.com/a-h/templ"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/form"
	"github.com/metisnation/registry/pkg/password"
)

var stepTitles = map[Step]string{
	StepLogin:                "Sign in",
	StepSignup:               "Create your account",
	StepForgotPassword:       "Reset your password",
	StepConfirmSignup:        "Confirm your email",
	StepConfirmPasswordReset: "Choose a new password",
	StepTOTP:                 "Two-step verification",
}

// render shows the flow's current step: the step fragment for Datastar
// requests and the whole page otherwise.
func (s *Service) render(ctx handler.Context, m *mount) handler.Response {
	body, err := s.stepView(ctx, m)
	if err != nil {
		return handler.Error(err)
	}
	page := s.views.Page(PageParams{Title: stepTitles[m.flow.Step()], Body: body})
	return handler.TemplPartial(body, page, handler.WithTarget("#"+flowElementID))
}

func (s *Service) stepView(ctx handler.Context, m *mount) (templ.Component, error) {
	fc := m.flow.Context()
	step := m.flow.Step()

	switch step {
	case StepLogin:
		st := m.login.State()
		addr := st.Values.Email
		if addr == "" {
			addr = fc.Email
		}
		return s.views.Login(LoginParams{
			Form:              formParams(s, fc, st, "login", false),
			Email:             addr,
			SignupURL:         s.path("show", "signup"),
			ForgotPasswordURL: s.path("show", "forgot-password"),
		}), nil

	case StepSignup:
		st := m.signup.State()
		return s.views.Signup(SignupParams{
			Form:            formParams(s, fc, st, "signup", true),
			Values:          st.Values,
			Requirements:    RequirementsParams{Requirements: password.Evaluate(st.Values.Password)},
			RequirementsURL: s.path("password-strength"),
		}), nil

	case StepForgotPassword:
		st := m.forgot.State()
		addr := st.Values.Email
		if addr == "" {
			addr = fc.Email
		}
		return s.views.ForgotPassword(ForgotPasswordParams{
			Form:  formParams(s, fc, st, "forgot-password", true),
			Email: addr,
		}), nil

	case StepConfirmSignup:
		resend := s.tracker(ctx.ResponseWriter(), ctx.Request(), ActionResendSignupCode).State()
		return s.views.ConfirmSignup(ConfirmSignupParams{
			Form:         formParams(s, fc, m.confirmSignup.State(), "confirm-signup", true),
			Email:        fc.Email,
			ResendURL:    s.path("resend-code"),
			CountdownURL: s.path("countdown", ActionResendSignupCode),
			Resend:       resend,
		}), nil

	case StepConfirmPasswordReset:
		resend := s.tracker(ctx.ResponseWriter(), ctx.Request(), ActionResendResetCode).State()
		st := m.confirmReset.State()
		return s.views.ConfirmReset(ConfirmResetParams{
			Form:            formParams(s, fc, st, "confirm-password-reset", true),
			Email:           fc.Email,
			ResendURL:       s.path("resend-code"),
			CountdownURL:    s.path("countdown", ActionResendResetCode),
			Resend:          resend,
			Requirements:    RequirementsParams{Requirements: password.Evaluate(st.Values.Password)},
			RequirementsURL: s.path("password-strength"),
		}), nil

	case StepTOTP:
		return s.views.TOTP(TOTPParams{
			Form: formParams(s, fc, m.totp.State(), "totp", true),
		}), nil
	}
	return nil, ErrInvalidTransition
}

func formParams[T any](s *Service, fc FlowContext, st form.State[T], action string, back bool) FormParams {
	p := FormParams{
		Action:      s.path(action),
		DismissURL:  s.path("dismiss"),
		Message:     fc.Message,
		Error:       st.Error,
		FieldErrors: st.FieldErrors,
	}
	if back {
		p.BackURL = s.path("back")
	}
	return p
}
