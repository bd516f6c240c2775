package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/autherr"
	"github.com/metisnation/registry/pkg/binder"
	"github.com/metisnation/registry/pkg/cookie"
	"github.com/metisnation/registry/pkg/logger"
	"github.com/metisnation/registry/pkg/totp"
	"github.com/metisnation/registry/pkg/validator"
	"github.com/metisnation/registry/svc/auth"
	"github.com/metisnation/registry/svc/identity"
	"github.com/metisnation/registry/svc/registry"
)

const (
	MessageProfileSaved = "Your profile has been saved."
	MessageTOTPEnabled  = "Two-step verification is now on."
	MessageTOTPDisabled = "Two-step verification is now off."
)

// IdentityProvider is the part of identity.Provider used by signed-in pages.
type IdentityProvider interface {
	GetCurrentUser(ctx context.Context, accessToken string) (identity.User, error)
	SetUpTOTP(ctx context.Context, accessToken string) (string, error)
	VerifyTOTP(ctx context.Context, accessToken, code string) error
	UpdateMFAPreference(ctx context.Context, accessToken string, enabled bool) error
	SignOut(ctx context.Context, accessToken string) error
}

// Registry reads and edits registry rows.
type Registry interface {
	GetUserBySubjectID(ctx context.Context, subjectID string) (registry.Profile, error)
	CreateUserWithPerson(ctx context.Context, in registry.NewUser) (registry.Profile, error)
	UpdateProfile(ctx context.Context, subjectID string, upd registry.ProfileUpdate) error
	UpdateEmailStatus(ctx context.Context, subjectID string, verified bool) error
	ListGenderTypes(ctx context.Context) ([]registry.GenderType, error)
}

// Service serves the dashboard.
type Service struct {
	cfg          Config
	idp          IdentityProvider
	registry     Registry
	cookies      *cookie.Manager
	sessions     *auth.SessionStore
	views        *Views
	errorHandler handler.ErrorHandler[handler.Context]
	log          *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

func WithViews(v *Views) ServiceOption {
	return func(s *Service) { s.views = v }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) ServiceOption {
	return func(s *Service) { s.errorHandler = h }
}

// NewService creates the service.
func NewService(cfg Config, idp IdentityProvider, reg Registry, cookies *cookie.Manager, sessions *auth.SessionStore, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:      cfg,
		idp:      idp,
		registry: reg,
		cookies:  cookies,
		sessions: sessions,
		views:    DefaultViews(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.errorHandler == nil {
		s.errorHandler = handler.NewErrorHandler(s.log, handler.ErrorHandlerConfig{})
	}
	s.log = s.log.With(logger.Component("profile"))
	return s
}

func wrap[R any](s *Service, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](s.errorHandler),
	)
}

// Handle returns the signed-in routes. Every route requires a session.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser(s.sessions, s.cookies, s.cfg.LoginPath))

	r.Get("/", wrap(s, s.show))
	r.Post("/profile", wrap(s, s.update, binder.Form()))
	r.Get("/api/profile", wrap(s, s.profileJSON))
	r.Get("/api/gender-types", wrap(s, s.genderTypes))
	r.Get("/security/totp", wrap(s, s.setupTOTP))
	r.Post("/security/totp", wrap(s, s.verifyTOTP, binder.Form()))
	r.Post("/security/totp/disable", wrap(s, s.disableTOTP))
	r.Post("/signout", wrap(s, s.signOut))

	return r
}

func (s *Service) path(parts ...string) string {
	return strings.TrimSuffix(s.cfg.BasePath, "/") + "/" + strings.Join(parts, "/")
}

// session is set by RequireUser.
func session(ctx context.Context) auth.Session {
	if sess := auth.GetSessionFromContext(ctx); sess != nil {
		return *sess
	}
	return auth.Session{}
}

// loadProfile returns the registry row of the signed-in user, creating it
// from the identity provider's attributes when sign-up could not.
func (s *Service) loadProfile(ctx context.Context, sess auth.Session) (registry.Profile, error) {
	p, err := s.registry.GetUserBySubjectID(ctx, sess.Subject)
	if !errors.Is(err, registry.ErrUserNotFound) {
		return p, err
	}

	user, err := s.idp.GetCurrentUser(ctx, sess.AccessToken)
	if err != nil {
		return registry.Profile{}, err
	}
	birth, _ := time.Parse(validator.DateLayout, user.BirthDate)
	p, err = s.registry.CreateUserWithPerson(ctx, registry.NewUser{
		SubjectID: user.Subject,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		BirthDate: birth,
	})
	if errors.Is(err, registry.ErrUserExists) {
		return s.registry.GetUserBySubjectID(ctx, sess.Subject)
	}
	if err != nil {
		return registry.Profile{}, err
	}
	s.log.InfoContext(ctx, "created missing registry user", logger.UserID(user.Subject))

	if user.EmailVerified {
		if err := s.registry.UpdateEmailStatus(ctx, user.Subject, true); err != nil {
			s.log.ErrorContext(ctx, "update email status failed", logger.UserID(user.Subject), logger.Error(err))
		}
		p.EmailVerified = true
	}
	return p, nil
}

// failed answers provider rejections of the access token by ending the
// session, and hands everything else to the error handler.
func (s *Service) failed(ctx handler.Context, err error) handler.Response {
	if autherr.Classify(err) == autherr.KindInvalidCredentials {
		s.sessions.Clear(ctx.ResponseWriter())
		return handler.Redirect(s.cfg.LoginPath)
	}
	return handler.Error(err)
}

func (s *Service) show(ctx handler.Context, _ struct{}) handler.Response {
	sess := session(ctx)
	p, err := s.loadProfile(ctx, sess)
	if err != nil {
		return s.failed(ctx, err)
	}
	user, err := s.idp.GetCurrentUser(ctx, sess.AccessToken)
	if err != nil {
		return s.failed(ctx, err)
	}
	if user.EmailVerified && !p.EmailVerified {
		// Confirmed outside the sign-up flow that created the row.
		if err := s.registry.UpdateEmailStatus(ctx, sess.Subject, true); err != nil {
			s.log.ErrorContext(ctx, "update email status failed", logger.UserID(sess.Subject), logger.Error(err))
		}
	}
	return s.renderDashboard(ctx, formValues(p), nil, "", user.TOTPEnabled, "")
}

func (s *Service) renderDashboard(ctx handler.Context, values ProfileInput, fieldErrs map[string]string, formMsg string, totpEnabled bool, securityMsg string) handler.Response {
	form, err := s.profileForm(ctx, values, fieldErrs, formMsg)
	if err != nil {
		return handler.Error(err)
	}
	body := dashboard(s.views, form, s.securityParams(totpEnabled, securityMsg))
	return handler.Templ(s.views.Page("Dashboard", body))
}

func (s *Service) profileForm(ctx context.Context, values ProfileInput, fieldErrs map[string]string, msg string) (ProfileFormParams, error) {
	types, err := s.registry.ListGenderTypes(ctx)
	if err != nil {
		return ProfileFormParams{}, err
	}
	return ProfileFormParams{
		Action:      s.path("profile"),
		Values:      values,
		GenderTypes: types,
		Message:     msg,
		FieldErrors: fieldErrs,
	}, nil
}

func (s *Service) securityParams(enabled bool, msg string) SecurityParams {
	return SecurityParams{
		TOTPEnabled: enabled,
		SetupURL:    s.path("security", "totp"),
		DisableURL:  s.path("security", "totp", "disable"),
		SignOutURL:  s.path("signout"),
		Message:     msg,
	}
}

func (s *Service) update(ctx handler.Context, in ProfileInput) handler.Response {
	sess := session(ctx)
	in, upd, err := ValidateProfile(in)
	if err == nil {
		err = s.registry.UpdateProfile(ctx, sess.Subject, upd)
	}

	var fieldErrs map[string]string
	msg := MessageProfileSaved
	switch {
	case err == nil:
		s.log.InfoContext(ctx, "profile updated", logger.UserID(sess.Subject))
	case validator.IsValidationError(err):
		fieldErrs, msg = validator.ExtractValidationErrors(err).FieldMap(), ""
	case errors.Is(err, registry.ErrInvalidGenderType):
		fieldErrs, msg = map[string]string{"gender_type_id": "Please choose a gender from the list"}, ""
	case errors.Is(err, registry.ErrUserNotFound):
		if _, lerr := s.loadProfile(ctx, sess); lerr != nil {
			return s.failed(ctx, lerr)
		}
		if err = s.registry.UpdateProfile(ctx, sess.Subject, upd); err != nil {
			return handler.Error(err)
		}
	default:
		return handler.Error(err)
	}

	form, err := s.profileForm(ctx, in, fieldErrs, msg)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Templ(s.views.ProfileForm(form), handler.WithTarget("#"+profileFormID))
}

func (s *Service) profileJSON(ctx handler.Context, _ struct{}) handler.Response {
	p, err := s.loadProfile(ctx, session(ctx))
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(p)
}

func (s *Service) genderTypes(ctx handler.Context, _ struct{}) handler.Response {
	types, err := s.registry.ListGenderTypes(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(types)
}

// setupTOTP asks the provider for a new secret and shows it as a QR code.
func (s *Service) setupTOTP(ctx handler.Context, _ struct{}) handler.Response {
	sess := session(ctx)
	secret, err := s.idp.SetUpTOTP(ctx, sess.AccessToken)
	if err != nil {
		return s.failed(ctx, err)
	}
	enrollment, err := totp.NewEnrollment(totp.Params{
		Secret:      secret,
		AccountName: sess.Email,
		Issuer:      s.cfg.TOTPIssuer,
	}, s.cfg.QRSize)
	if err != nil {
		return handler.Error(err)
	}
	body := s.views.TOTPSetup(TOTPSetupParams{
		Enrollment: enrollment,
		VerifyURL:  s.path("security", "totp"),
		RestartURL: s.path("security", "totp"),
	})
	return handler.Templ(s.views.Page("Two-step verification", body))
}

func (s *Service) verifyTOTP(ctx handler.Context, in CodeInput) handler.Response {
	sess := session(ctx)
	in, err := ValidateCode(in)
	if err == nil {
		err = s.idp.VerifyTOTP(ctx, sess.AccessToken, in.Code)
	}
	if err == nil {
		err = s.idp.UpdateMFAPreference(ctx, sess.AccessToken, true)
	}

	switch {
	case err == nil:
		s.log.InfoContext(ctx, "totp enabled", logger.UserID(sess.Subject))
		return handler.Templ(s.views.Security(s.securityParams(true, MessageTOTPEnabled)), handler.WithTarget("#"+securityID))
	case validator.IsValidationError(err):
		return s.retryTOTP(validator.ExtractValidationErrors(err).FieldMap()["code"])
	case autherr.Classify(err) == autherr.KindCodeMismatch:
		return s.retryTOTP(autherr.Message(err))
	default:
		return s.failed(ctx, err)
	}
}

func (s *Service) retryTOTP(msg string) handler.Response {
	return handler.Templ(s.views.TOTPSetup(TOTPSetupParams{
		VerifyURL:  s.path("security", "totp"),
		RestartURL: s.path("security", "totp"),
		Error:      msg,
	}), handler.WithTarget("#"+securityID))
}

func (s *Service) disableTOTP(ctx handler.Context, _ struct{}) handler.Response {
	sess := session(ctx)
	if err := s.idp.UpdateMFAPreference(ctx, sess.AccessToken, false); err != nil {
		return s.failed(ctx, err)
	}
	s.log.InfoContext(ctx, "totp disabled", logger.UserID(sess.Subject))
	return handler.Templ(s.views.Security(s.securityParams(false, MessageTOTPDisabled)), handler.WithTarget("#"+securityID))
}

func (s *Service) signOut(ctx handler.Context, _ struct{}) handler.Response {
	auth.SignOut(ctx, ctx.ResponseWriter(), ctx.Request(), s.sessions, s.idp, s.log)
	return handler.Redirect(s.cfg.LoginPath)
}
