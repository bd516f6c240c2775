package account

// Step is the form an authentication flow is showing.
type Step string

const (
	StepLogin                Step = "login"
	StepSignup               Step = "signup"
	StepForgotPassword       Step = "forgot-password"
	StepConfirmSignup        Step = "confirm-signup"
	StepConfirmPasswordReset Step = "confirm-password-reset"
	StepTOTP                 Step = "totp"
)

// ParseStep maps the step query parameter to an initial step. TOTP cannot
// be entered directly; it needs a pending sign-in challenge.
func ParseStep(s string) (Step, bool) {
	switch Step(s) {
	case StepLogin, StepSignup, StepForgotPassword, StepConfirmSignup, StepConfirmPasswordReset:
		return Step(s), true
	case "":
		return StepLogin, true
	default:
		return "", false
	}
}

// Event triggers a flow transition.
type Event string

const (
	EventShowSignup           Event = "show_signup"
	EventShowForgotPassword   Event = "show_forgot_password"
	EventSignedUp             Event = "signed_up"
	EventConfirmationRequired Event = "confirmation_required"
	EventSignupConfirmed      Event = "signup_confirmed"
	EventResetRequested       Event = "reset_requested"
	EventPasswordReset        Event = "password_reset"
	EventTOTPRequired         Event = "totp_required"
	EventBack                 Event = "back"

	// EventReset is reported to observers when the flow is reset. It is not a
	// machine transition.
	EventReset Event = "reset"
)
