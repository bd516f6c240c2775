package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/autherr"
	"github.com/metisnation/registry/pkg/cookie"
	"github.com/metisnation/registry/pkg/email"
	"github.com/metisnation/registry/pkg/form"
	"github.com/metisnation/registry/pkg/logger"
	"github.com/metisnation/registry/pkg/ratelimiter"
	"github.com/metisnation/registry/pkg/validator"
	"github.com/metisnation/registry/svc/auth"
	"github.com/metisnation/registry/svc/identity"
	"github.com/metisnation/registry/svc/registry"
)

// IdentityProvider is the part of identity.Provider the flow calls.
type IdentityProvider interface {
	SignUp(ctx context.Context, in identity.SignUpInput) (identity.SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendConfirmationCode(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (identity.SignInResult, error)
	RespondToTOTPChallenge(ctx context.Context, email, session, code string) (identity.Tokens, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
	GetCurrentUser(ctx context.Context, accessToken string) (identity.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Registry records new citizens.
type Registry interface {
	CreateUserWithPerson(ctx context.Context, in registry.NewUser) (registry.Profile, error)
	GetUserByEmail(ctx context.Context, email string) (registry.Profile, error)
	UpdateEmailStatus(ctx context.Context, subjectID string, verified bool) error
}

// Service serves the authentication flow.
type Service struct {
	cfg          Config
	idp          IdentityProvider
	registry     Registry
	mailer       email.Sender
	cookies      *cookie.Manager
	sessions     *auth.SessionStore
	rateLimits   RateLimitStoreFunc
	policy       ratelimiter.Policy
	flows        *FlowStore[*mount]
	views        *Views
	errorHandler handler.ErrorHandler[handler.Context]
	log          *slog.Logger
	now          func() time.Time
	observers    []Observer
	background   sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithRegistry records sign-ups and confirmations in the registry database.
func WithRegistry(r Registry) ServiceOption {
	return func(s *Service) { s.registry = r }
}

// WithMailer sends the welcome email after confirmation.
func WithMailer(m email.Sender) ServiceOption {
	return func(s *Service) { s.mailer = m }
}

func WithViews(v *Views) ServiceOption {
	return func(s *Service) { s.views = v }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) ServiceOption {
	return func(s *Service) { s.errorHandler = h }
}

// WithPolicy sets the resend rate-limit policy.
func WithPolicy(p ratelimiter.Policy) ServiceOption {
	return func(s *Service) { s.policy = p }
}

// WithRateLimitStore selects where rate-limit entries live. Defaults to
// signed cookies.
func WithRateLimitStore(fn RateLimitStoreFunc) ServiceOption {
	return func(s *Service) { s.rateLimits = fn }
}

// WithClock replaces time.Now for rate limiting.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithFlowObserver observes the transitions of every flow.
func WithFlowObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observers = append(s.observers, o) }
}

// NewService creates the service.
func NewService(cfg Config, idp IdentityProvider, cookies *cookie.Manager, sessions *auth.SessionStore, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:      cfg,
		idp:      idp,
		cookies:  cookies,
		sessions: sessions,
		policy:   ratelimiter.DefaultPolicy(),
		views:    DefaultViews(),
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rateLimits == nil {
		s.rateLimits = CookieRateLimits(cookies, s.policy.Staleness)
	}
	if s.errorHandler == nil {
		s.errorHandler = handler.NewErrorHandler(s.log, handler.ErrorHandlerConfig{})
	}
	s.flows = NewFlowStore[*mount](cfg.FlowTTL)
	s.log = s.log.With(logger.Component("account"))
	return s
}

// Close drops every live flow and waits for background work.
func (s *Service) Close() {
	s.flows.Close()
	s.background.Wait()
}

// mount is a flow with the form controllers of its steps.
type mount struct {
	flow          *Flow
	login         *form.Controller[LoginInput]
	signup        *form.Controller[SignupInput]
	forgot        *form.Controller[ForgotPasswordInput]
	confirmSignup *form.Controller[ConfirmSignupInput]
	confirmReset  *form.Controller[ConfirmResetInput]
	totp          *form.Controller[TOTPInput]

	mu        sync.Mutex
	subject   string
	firstName string
	challenge string
	tokens    *identity.Tokens
	user      identity.User
}

func (m *mount) Close() { m.flow.Close() }

func (m *mount) setChallenge(session string) {
	m.mu.Lock()
	m.challenge = session
	m.mu.Unlock()
}

func (m *mount) pendingChallenge() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challenge
}

func (m *mount) setSignedIn(t identity.Tokens, u identity.User) {
	m.mu.Lock()
	m.tokens, m.user, m.challenge = &t, u, ""
	m.mu.Unlock()
}

func (m *mount) signedIn() (identity.Tokens, identity.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		return identity.Tokens{}, identity.User{}, false
	}
	return *m.tokens, m.user, true
}

func (m *mount) setSignup(subject, firstName string) {
	m.mu.Lock()
	m.subject, m.firstName = subject, firstName
	m.mu.Unlock()
}

func (m *mount) signupInfo() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subject, m.firstName
}

func isAbandoned(err error) bool {
	return errors.Is(err, ErrStaleResult) || errors.Is(err, ErrFlowClosed)
}

// newMount builds a flow at step with one controller per step form.
func (s *Service) newMount(step Step, initialEmail string) (*mount, error) {
	m := &mount{}

	opts := []FlowOption{
		WithFlowLogger(s.log),
		WithOnClose(func(FlowContext) {
			s.log.Debug("flow closed", logger.FlowID(m.flow.ID()))
		}),
	}
	for _, o := range s.observers {
		opts = append(opts, WithObserver(o))
	}
	if initialEmail != "" {
		opts = append(opts, WithInitialEmail(initialEmail))
	}
	flow, err := NewFlow(step, opts...)
	if err != nil {
		return nil, err
	}
	m.flow = flow

	m.login = form.New(
		func(ctx context.Context, in LoginInput) error {
			return s.call(ctx, m, "sign_in", func(ctx context.Context) error {
				res, err := s.idp.SignIn(ctx, in.Email, in.Password)
				if err != nil {
					return err
				}
				if res.TOTPRequired {
					m.setChallenge(res.Session)
					return nil
				}
				return s.completeSignIn(ctx, m, *res.Tokens)
			})
		},
		form.WithValidator(ValidateLogin),
		form.WithDiscard[LoginInput](isAbandoned),
		form.WithIntercept(func(ctx context.Context, in LoginInput, err error) bool {
			if !autherr.IsConfirmationRequired(err) {
				return false
			}
			return s.transition(ctx, m, m.flow.ConfirmationRequired(ctx, in.Email))
		}),
		form.WithOnSuccess(func(ctx context.Context, in LoginInput) {
			if m.pendingChallenge() != "" {
				s.transition(ctx, m, m.flow.TOTPRequired(ctx, in.Email))
			}
		}),
	)

	m.signup = form.New(
		func(ctx context.Context, in SignupInput) error {
			return s.call(ctx, m, "sign_up", func(ctx context.Context) error {
				res, err := s.idp.SignUp(ctx, identity.SignUpInput{
					Email:     in.Email,
					Password:  in.Password,
					FirstName: in.FirstName,
					LastName:  in.LastName,
					BirthDate: in.BirthDate,
				})
				if err != nil {
					return err
				}
				m.setSignup(res.Subject, in.FirstName)
				s.recordSignup(ctx, res.Subject, in)
				return nil
			})
		},
		form.WithValidator(ValidateSignup),
		form.WithDiscard[SignupInput](isAbandoned),
		form.WithResetOnSuccess[SignupInput](),
		form.WithOnSuccess(func(ctx context.Context, in SignupInput) {
			s.transition(ctx, m, m.flow.SignupSucceeded(ctx, in.Email))
		}),
	)

	m.forgot = form.New(
		func(ctx context.Context, in ForgotPasswordInput) error {
			return s.call(ctx, m, "forgot_password", func(ctx context.Context) error {
				return s.idp.ForgotPassword(ctx, in.Email)
			})
		},
		form.WithValidator(ValidateForgotPassword),
		form.WithDiscard[ForgotPasswordInput](isAbandoned),
		form.WithErrorContext[ForgotPasswordInput](autherr.ContextResetPassword),
		form.WithOnSuccess(func(ctx context.Context, in ForgotPasswordInput) {
			s.transition(ctx, m, m.flow.ResetRequested(ctx, in.Email))
		}),
	)

	m.confirmSignup = form.New(
		func(ctx context.Context, in ConfirmSignupInput) error {
			addr := m.flow.Context().Email
			return s.call(ctx, m, "confirm_sign_up", func(ctx context.Context) error {
				if err := s.idp.ConfirmSignUp(ctx, addr, in.Code); err != nil {
					return err
				}
				s.afterConfirmation(ctx, m, addr)
				return nil
			})
		},
		form.WithValidator(ValidateConfirmSignup),
		form.WithDiscard[ConfirmSignupInput](isAbandoned),
		form.WithResetOnSuccess[ConfirmSignupInput](),
		form.WithOnSuccess(func(ctx context.Context, _ ConfirmSignupInput) {
			s.transition(ctx, m, m.flow.SignupConfirmed(ctx))
		}),
	)

	m.confirmReset = form.New(
		func(ctx context.Context, in ConfirmResetInput) error {
			addr := m.flow.Context().Email
			return s.call(ctx, m, "confirm_forgot_password", func(ctx context.Context) error {
				return s.idp.ConfirmForgotPassword(ctx, addr, in.Code, in.Password)
			})
		},
		form.WithValidator(ValidateConfirmReset),
		form.WithDiscard[ConfirmResetInput](isAbandoned),
		form.WithResetOnSuccess[ConfirmResetInput](),
		form.WithOnSuccess(func(ctx context.Context, _ ConfirmResetInput) {
			s.transition(ctx, m, m.flow.PasswordReset(ctx))
		}),
	)

	m.totp = form.New(
		func(ctx context.Context, in TOTPInput) error {
			addr, session := m.flow.Context().Email, m.pendingChallenge()
			return s.call(ctx, m, "totp_challenge", func(ctx context.Context) error {
				tokens, err := s.idp.RespondToTOTPChallenge(ctx, addr, session, in.Code)
				if err != nil {
					return err
				}
				return s.completeSignIn(ctx, m, tokens)
			})
		},
		form.WithValidator(ValidateTOTP),
		form.WithDiscard[TOTPInput](isAbandoned),
		form.WithResetOnSuccess[TOTPInput](),
	)

	return m, nil
}

// call runs a provider operation as a task of the flow's current step and
// logs provider failures.
func (s *Service) call(ctx context.Context, m *mount, op string, fn func(context.Context) error) error {
	err := m.flow.Run(ctx, fn)
	switch {
	case err == nil:
	case isAbandoned(err):
		s.log.DebugContext(ctx, "dropped result of abandoned step",
			logger.FlowID(m.flow.ID()), logger.Event(op))
	default:
		s.log.WarnContext(ctx, "identity provider call failed",
			logger.FlowID(m.flow.ID()),
			logger.Event(op),
			logger.ErrorKind(string(autherr.Classify(err))),
			logger.Error(err),
		)
	}
	return err
}

// transition logs a failed flow transition. It reports whether the
// transition happened.
func (s *Service) transition(ctx context.Context, m *mount, err error) bool {
	if err != nil {
		s.log.ErrorContext(ctx, "flow transition failed", logger.FlowID(m.flow.ID()), logger.Error(err))
		return false
	}
	return true
}

func (s *Service) completeSignIn(ctx context.Context, m *mount, tokens identity.Tokens) error {
	user, err := s.idp.GetCurrentUser(ctx, tokens.AccessToken)
	if err != nil {
		return err
	}
	m.setSignedIn(tokens, user)
	return nil
}

// recordSignup creates the registry row. Failures are logged: the profile
// page creates missing rows from the identity provider's attributes.
func (s *Service) recordSignup(ctx context.Context, subject string, in SignupInput) {
	if s.registry == nil {
		return
	}
	birth, _ := time.Parse(validator.DateLayout, in.BirthDate)
	_, err := s.registry.CreateUserWithPerson(ctx, registry.NewUser{
		SubjectID: subject,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: birth,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "create registry user failed", logger.UserID(subject), logger.Error(err))
	}
}

func (s *Service) afterConfirmation(ctx context.Context, m *mount, addr string) {
	subject, firstName := m.signupInfo()
	if s.registry != nil && subject == "" {
		// Confirmations reached from login or a fresh page carry only the email.
		p, err := s.registry.GetUserByEmail(ctx, addr)
		switch {
		case err == nil:
			subject, firstName = p.SubjectID, p.FirstName
		case errors.Is(err, registry.ErrUserNotFound):
			s.log.InfoContext(ctx, "no registry user for confirmed email", logger.Email(addr))
		default:
			s.log.ErrorContext(ctx, "lookup registry user failed", logger.Email(addr), logger.Error(err))
		}
	}
	if s.registry != nil && subject != "" {
		if err := s.registry.UpdateEmailStatus(ctx, subject, true); err != nil {
			s.log.ErrorContext(ctx, "update email status failed", logger.UserID(subject), logger.Error(err))
		}
	}
	if s.mailer == nil {
		return
	}

	s.background.Add(1)
	go func(ctx context.Context) {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		msg, err := email.WelcomeMessage(ctx, addr, email.WelcomeData{
			FirstName:    firstName,
			DashboardURL: s.cfg.DashboardURL,
			SupportEmail: s.cfg.SupportEmail,
		})
		if err == nil {
			err = s.mailer.Send(ctx, msg)
		}
		if err != nil {
			s.log.ErrorContext(ctx, "welcome email failed", logger.Email(addr), logger.Error(err))
		}
	}(context.WithoutCancel(ctx))
}

var trackersKey = handler.NewContextKey("account.trackers")

// trackers holds the trackers of one request, so a step rendered after an
// attempt sees the attempt even before the store's writes reach the browser.
type trackers struct {
	mu sync.Mutex
	m  map[string]*ratelimiter.Tracker
}

func withTrackers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), trackersKey, &trackers{m: make(map[string]*ratelimiter.Tracker)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) tracker(w http.ResponseWriter, r *http.Request, action string) *ratelimiter.Tracker {
	scope := handler.ContextValue[*trackers](r.Context(), trackersKey)
	if scope != nil {
		scope.mu.Lock()
		defer scope.mu.Unlock()
		if t, ok := scope.m[action]; ok {
			return t
		}
	}

	t := ratelimiter.NewTracker(action, s.rateLimits(w, r),
		ratelimiter.WithPolicy(s.policy),
		ratelimiter.WithClock(s.now),
	)
	if err := t.Load(r.Context()); err != nil {
		// Unreadable limits must not lock people out of their accounts.
		s.log.WarnContext(r.Context(), "load rate limit failed", logger.Action(action), logger.Error(err))
	}
	if scope != nil {
		scope.m[action] = t
	}
	return t
}

// guarded runs submit unless action is cooling down. Only outcomes of real
// provider calls are recorded; suppressed failures count as successes so
// the limiter does not reveal whether an address exists.
func (s *Service) guarded(ctx context.Context, t *ratelimiter.Tracker, submit func() error) error {
	_, err := t.Guard(ctx, func(context.Context) error { return submit() },
		ratelimiter.SkipRecord(func(err error) bool {
			return validator.IsValidationError(err) || errors.Is(err, form.ErrInFlight) || isAbandoned(err)
		}),
		ratelimiter.CountAsSuccess(func(err error) bool { return errors.Is(err, form.ErrSuppressed) }),
		ratelimiter.OnRecordError(func(err error) {
			s.log.ErrorContext(ctx, "record rate limit attempt failed", logger.Action(t.Key()), logger.Error(err))
		}),
	)
	if errors.Is(err, ratelimiter.ErrLimited) {
		s.log.InfoContext(ctx, "rate limited", logger.Action(t.Key()))
		return autherr.New(autherr.KindRateLimited, "", "", err)
	}
	return err
}

func (s *Service) path(parts ...string) string {
	return strings.TrimSuffix(s.cfg.BasePath, "/") + "/" + strings.Join(parts, "/")
}
