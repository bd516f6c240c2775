package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/modules/account"
	"github.com/metisnation/registry/pkg/autherr"
	"github.com/metisnation/registry/pkg/cookie"
	"github.com/metisnation/registry/svc/auth"
	"github.com/metisnation/registry/svc/identity"
	"github.com/metisnation/registry/svc/registry"
)

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, in identity.SignUpInput) (identity.SignUpResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(identity.SignUpResult), args.Error(1)
}

func (m *MockIdentityProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *MockIdentityProvider) ResendConfirmationCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (identity.SignInResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(identity.SignInResult), args.Error(1)
}

func (m *MockIdentityProvider) RespondToTOTPChallenge(ctx context.Context, email, session, code string) (identity.Tokens, error) {
	args := m.Called(ctx, email, session, code)
	return args.Get(0).(identity.Tokens), args.Error(1)
}

func (m *MockIdentityProvider) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockIdentityProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	return m.Called(ctx, email, code, newPassword).Error(0)
}

func (m *MockIdentityProvider) GetCurrentUser(ctx context.Context, accessToken string) (identity.User, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(identity.User), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) CreateUserWithPerson(ctx context.Context, in registry.NewUser) (registry.Profile, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(registry.Profile), args.Error(1)
}

func (m *MockRegistry) GetUserByEmail(ctx context.Context, email string) (registry.Profile, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(registry.Profile), args.Error(1)
}

func (m *MockRegistry) UpdateEmailStatus(ctx context.Context, subjectID string, verified bool) error {
	return m.Called(ctx, subjectID, verified).Error(0)
}

const cookieSecret = "account-flow-cookie-secret-for-tests"

type testEnv struct {
	idp   *MockIdentityProvider
	clock *fakeClock
	svc   *account.Service
	mux   http.Handler
}

func setupService(t *testing.T, opts ...account.ServiceOption) *testEnv {
	t.Helper()

	cookies, err := cookie.New([]string{cookieSecret})
	require.NoError(t, err)

	env := &testEnv{idp: &MockIdentityProvider{}, clock: newClock()}
	sessions := auth.NewSessionStore(cookies, auth.WithSessionClock(env.clock.Now))

	opts = append([]account.ServiceOption{
		account.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		account.WithClock(env.clock.Now),
	}, opts...)
	env.svc = account.NewService(account.DefaultConfig(), env.idp, cookies, sessions, opts...)
	t.Cleanup(env.svc.Close)

	r := chi.NewRouter()
	r.Mount("/auth", env.svc.Handle())
	env.mux = r
	return env
}

// browser keeps cookies between requests like a user agent would.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, h: e.mux, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(r *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.h.ServeHTTP(w, r)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return b.do(r)
}

func stepOf(body string) string {
	_, rest, ok := strings.Cut(body, `data-step="`)
	if !ok {
		return ""
	}
	step, _, _ := strings.Cut(rest, `"`)
	return step
}

func signupForm() url.Values {
	return url.Values{
		"first_name":       {"Louis"},
		"last_name":        {"Riel"},
		"email":            {"user@example.com"},
		"birth_date":       {"1990-05-17"},
		"password":         {"Str0ng!Pass"},
		"confirm_password": {"Str0ng!Pass"},
	}
}

func TestShow(t *testing.T) {
	t.Parallel()

	t.Run("defaults to login", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		w := env.browser(t).get("/auth")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "login", stepOf(w.Body.String()))
		assert.Contains(t, w.Body.String(), "<!doctype html>")
	})

	t.Run("requested step", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		w := env.browser(t).get("/auth?step=signup")
		assert.Equal(t, "signup", stepOf(w.Body.String()))
	})

	t.Run("confirm step needs an email", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		b := env.browser(t)

		assert.Equal(t, "login", stepOf(b.get("/auth?step=confirm-signup").Body.String()))

		body := b.get("/auth?step=confirm-signup&email=User@Example.com").Body.String()
		assert.Equal(t, "confirm-signup", stepOf(body))
		assert.Contains(t, body, "user@example.com")
	})

	t.Run("unknown and totp steps fall back to login", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		b := env.browser(t)
		assert.Equal(t, "login", stepOf(b.get("/auth?step=totp").Body.String()))
		assert.Equal(t, "login", stepOf(b.get("/auth?step=nope").Body.String()))
	})

	t.Run("reload starts a fresh flow", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		b := env.browser(t)

		b.get("/auth")
		b.post("/auth/show/signup", nil)
		assert.Equal(t, "login", stepOf(b.get("/auth").Body.String()))
	})
}

func TestSubmitWithoutFlow(t *testing.T) {
	t.Parallel()
	env := setupService(t)

	w := env.browser(t).post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"whatever1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
	env.idp.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("short password is rejected before the provider", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		b := env.browser(t)
		b.get("/auth")

		w := b.post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"short"}})

		body := w.Body.String()
		assert.Equal(t, "login", stepOf(body))
		assert.Contains(t, body, "Password must be at least 8 characters")
		assert.Contains(t, body, `value="user@example.com"`)
		env.idp.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success stores the session", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		tokens := identity.Tokens{AccessToken: "access", ExpiresAt: env.clock.Now().Add(time.Hour)}
		env.idp.On("SignIn", mock.Anything, "user@example.com", "Str0ng!Pass").
			Return(identity.SignInResult{Tokens: &tokens}, nil).Once()
		env.idp.On("GetCurrentUser", mock.Anything, "access").
			Return(identity.User{Subject: "sub-1", Email: "user@example.com"}, nil).Once()

		b := env.browser(t)
		b.get("/auth")
		w := b.post("/auth/login", url.Values{"email": {"User@example.com"}, "password": {"Str0ng!Pass"}})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
		assert.Contains(t, b.cookies, auth.DefaultSessionCookie)
		assert.NotContains(t, b.cookies, "auth_flow")
		env.idp.AssertExpectations(t)
	})

	t.Run("wrong password shows a banner", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("SignIn", mock.Anything, "user@example.com", "Wr0ng!Pass").
			Return(identity.SignInResult{}, autherr.New(autherr.KindInvalidCredentials, "NotAuthorizedException", "Incorrect username or password.", nil))

		b := env.browser(t)
		b.get("/auth")
		body := b.post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"Wr0ng!Pass"}}).Body.String()

		assert.Equal(t, "login", stepOf(body))
		assert.Contains(t, body, "Incorrect email or password.")

		body = b.post("/auth/dismiss", nil).Body.String()
		assert.NotContains(t, body, "Incorrect email or password.")
	})

	t.Run("unconfirmed account moves to confirm signup without banner", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("SignIn", mock.Anything, "user@example.com", "Str0ng!Pass").
			Return(identity.SignInResult{}, autherr.New(autherr.KindUnconfirmedAccount, "UserNotConfirmedException", "User is not confirmed.", nil))

		b := env.browser(t)
		b.get("/auth")
		body := b.post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"Str0ng!Pass"}}).Body.String()

		assert.Equal(t, "confirm-signup", stepOf(body))
		assert.Contains(t, body, "user@example.com")
		assert.NotContains(t, body, "banner-error")
	})

	t.Run("totp challenge", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		tokens := identity.Tokens{AccessToken: "access", ExpiresAt: env.clock.Now().Add(time.Hour)}
		env.idp.On("SignIn", mock.Anything, "user@example.com", "Str0ng!Pass").
			Return(identity.SignInResult{TOTPRequired: true, Session: "challenge"}, nil).Once()
		env.idp.On("RespondToTOTPChallenge", mock.Anything, "user@example.com", "challenge", "123456").
			Return(tokens, nil).Once()
		env.idp.On("GetCurrentUser", mock.Anything, "access").
			Return(identity.User{Subject: "sub-1", Email: "user@example.com", TOTPEnabled: true}, nil).Once()

		b := env.browser(t)
		b.get("/auth")
		w := b.post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"Str0ng!Pass"}})
		require.Equal(t, "totp", stepOf(w.Body.String()))

		w = b.post("/auth/totp", url.Values{"code": {"123 456"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, b.cookies, auth.DefaultSessionCookie)
		env.idp.AssertExpectations(t)
	})
}

func TestSignup(t *testing.T) {
	t.Parallel()

	t.Run("valid signup moves to confirm signup", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("SignUp", mock.Anything, mock.MatchedBy(func(in identity.SignUpInput) bool {
			return in.Email == "user@example.com" && in.FirstName == "Louis" && in.BirthDate == "1990-05-17"
		})).Return(identity.SignUpResult{Subject: "sub-1"}, nil).Once()

		b := env.browser(t)
		b.get("/auth?step=signup")
		body := b.post("/auth/signup", signupForm()).Body.String()

		assert.Equal(t, "confirm-signup", stepOf(body))
		assert.Contains(t, body, "user@example.com")
		env.idp.AssertExpectations(t)
	})

	t.Run("existing account keeps the form", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("SignUp", mock.Anything, mock.Anything).
			Return(identity.SignUpResult{}, autherr.New(autherr.KindUsernameExists, "UsernameExistsException", "", nil))

		b := env.browser(t)
		b.get("/auth?step=signup")
		body := b.post("/auth/signup", signupForm()).Body.String()

		assert.Equal(t, "signup", stepOf(body))
		assert.Contains(t, body, "An account with this email address already exists.")
		assert.Contains(t, body, `value="Riel"`)
	})

	t.Run("posting a form the flow left re-renders the current step", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)

		b := env.browser(t)
		b.get("/auth")
		body := b.post("/auth/signup", signupForm()).Body.String()

		assert.Equal(t, "login", stepOf(body))
		env.idp.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	})
}

func TestConfirmSignup(t *testing.T) {
	t.Parallel()

	t.Run("success returns to login with message and no email", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ConfirmSignUp", mock.Anything, "user@example.com", "123456").Return(nil).Once()

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")
		body := b.post("/auth/confirm-signup", url.Values{"code": {"123456"}}).Body.String()

		assert.Equal(t, "login", stepOf(body))
		assert.Contains(t, body, account.MessageSignupConfirmed)
		assert.NotContains(t, body, `value="user@example.com"`)
		env.idp.AssertExpectations(t)
	})

	t.Run("marks the email verified after a login redirect", func(t *testing.T) {
		t.Parallel()
		reg := &MockRegistry{}
		env := setupService(t, account.WithRegistry(reg))
		env.idp.On("SignIn", mock.Anything, "user@example.com", "Str0ng!Pass").
			Return(identity.SignInResult{}, autherr.New(autherr.KindUnconfirmedAccount, "UserNotConfirmedException", "User is not confirmed.", nil))
		env.idp.On("ConfirmSignUp", mock.Anything, "user@example.com", "123456").Return(nil).Once()
		reg.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(registry.Profile{SubjectID: "sub-1", FirstName: "Louis"}, nil).Once()
		reg.On("UpdateEmailStatus", mock.Anything, "sub-1", true).Return(nil).Once()

		b := env.browser(t)
		b.get("/auth")
		body := b.post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"Str0ng!Pass"}}).Body.String()
		require.Equal(t, "confirm-signup", stepOf(body))

		body = b.post("/auth/confirm-signup", url.Values{"code": {"123456"}}).Body.String()
		assert.Equal(t, "login", stepOf(body))
		reg.AssertExpectations(t)
	})

	t.Run("marks the email verified on a fresh confirmation page", func(t *testing.T) {
		t.Parallel()
		reg := &MockRegistry{}
		env := setupService(t, account.WithRegistry(reg))
		env.idp.On("ConfirmSignUp", mock.Anything, "user@example.com", "123456").Return(nil).Once()
		reg.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(registry.Profile{SubjectID: "sub-1"}, nil).Once()
		reg.On("UpdateEmailStatus", mock.Anything, "sub-1", true).Return(nil).Once()

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")
		body := b.post("/auth/confirm-signup", url.Values{"code": {"123456"}}).Body.String()

		assert.Equal(t, "login", stepOf(body))
		reg.AssertExpectations(t)
	})

	t.Run("uses the subject from a signup in the same flow", func(t *testing.T) {
		t.Parallel()
		reg := &MockRegistry{}
		env := setupService(t, account.WithRegistry(reg))
		env.idp.On("SignUp", mock.Anything, mock.Anything).Return(identity.SignUpResult{Subject: "sub-1"}, nil).Once()
		env.idp.On("ConfirmSignUp", mock.Anything, "user@example.com", "123456").Return(nil).Once()
		reg.On("CreateUserWithPerson", mock.Anything, mock.MatchedBy(func(in registry.NewUser) bool {
			return in.SubjectID == "sub-1" && in.Email == "user@example.com"
		})).Return(registry.Profile{SubjectID: "sub-1"}, nil).Once()
		reg.On("UpdateEmailStatus", mock.Anything, "sub-1", true).Return(nil).Once()

		b := env.browser(t)
		b.get("/auth?step=signup")
		require.Equal(t, "confirm-signup", stepOf(b.post("/auth/signup", signupForm()).Body.String()))
		body := b.post("/auth/confirm-signup", url.Values{"code": {"123456"}}).Body.String()

		assert.Equal(t, "login", stepOf(body))
		reg.AssertExpectations(t)
		reg.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("unknown registry user still confirms", func(t *testing.T) {
		t.Parallel()
		reg := &MockRegistry{}
		env := setupService(t, account.WithRegistry(reg))
		env.idp.On("ConfirmSignUp", mock.Anything, "user@example.com", "123456").Return(nil).Once()
		reg.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(registry.Profile{}, registry.ErrUserNotFound).Once()

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")
		body := b.post("/auth/confirm-signup", url.Values{"code": {"123456"}}).Body.String()

		assert.Equal(t, "login", stepOf(body))
		assert.Contains(t, body, account.MessageSignupConfirmed)
		reg.AssertNotCalled(t, "UpdateEmailStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ConfirmSignUp", mock.Anything, "user@example.com", "654321").
			Return(autherr.New(autherr.KindCodeMismatch, "CodeMismatchException", "", nil))

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")
		body := b.post("/auth/confirm-signup", url.Values{"code": {"654321"}}).Body.String()

		assert.Equal(t, "confirm-signup", stepOf(body))
		assert.Contains(t, body, "Invalid verification code. Please try again.")
	})
}

func TestResendCode(t *testing.T) {
	t.Parallel()

	t.Run("success shows a message", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ResendConfirmationCode", mock.Anything, "user@example.com").Return(nil).Once()

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")
		body := b.post("/auth/resend-code", nil).Body.String()

		assert.Contains(t, body, account.MessageCodeResent)
		env.idp.AssertExpectations(t)
	})

	t.Run("third failed resend is rejected without calling the provider", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ResendConfirmationCode", mock.Anything, "user@example.com").
			Return(errors.New("delivery failed"))

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")

		body := b.post("/auth/resend-code", nil).Body.String()
		assert.Contains(t, body, "delivery failed")
		assert.Contains(t, body, `data-text="$countdown">60<`)

		env.clock.Advance(61 * time.Second)
		b.post("/auth/resend-code", nil)

		body = b.post("/auth/resend-code", nil).Body.String()
		assert.Contains(t, body, autherr.KindRateLimited.Message())
		assert.Contains(t, body, `data-text="$countdown">600<`)
		env.idp.AssertNumberOfCalls(t, "ResendConfirmationCode", 2)
	})

	t.Run("cooldown is over after the lockout", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ResendConfirmationCode", mock.Anything, "user@example.com").
			Return(errors.New("delivery failed")).Twice()
		env.idp.On("ResendConfirmationCode", mock.Anything, "user@example.com").Return(nil).Once()

		b := env.browser(t)
		b.get("/auth?step=confirm-signup&email=user@example.com")
		b.post("/auth/resend-code", nil)
		env.clock.Advance(61 * time.Second)
		b.post("/auth/resend-code", nil)

		env.clock.Advance(601 * time.Second)
		body := b.post("/auth/resend-code", nil).Body.String()
		assert.Contains(t, body, account.MessageCodeResent)
		env.idp.AssertNumberOfCalls(t, "ResendConfirmationCode", 3)
	})
}

func TestForgotPassword(t *testing.T) {
	t.Parallel()

	t.Run("unknown address looks like a known one", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ForgotPassword", mock.Anything, "ghost@example.com").
			Return(autherr.New(autherr.KindUserNotFound, "UserNotFoundException", "", nil)).Once()

		b := env.browser(t)
		b.get("/auth")
		b.post("/auth/show/forgot-password", nil)
		body := b.post("/auth/forgot-password", url.Values{"email": {"ghost@example.com"}}).Body.String()

		assert.Equal(t, "confirm-password-reset", stepOf(body))
		assert.NotContains(t, body, "banner-error")
		env.idp.AssertExpectations(t)
	})

	t.Run("provider rate limit is shown", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ForgotPassword", mock.Anything, "user@example.com").
			Return(autherr.New(autherr.KindRateLimited, "LimitExceededException", "", nil))

		b := env.browser(t)
		b.get("/auth?step=forgot-password")
		body := b.post("/auth/forgot-password", url.Values{"email": {"user@example.com"}}).Body.String()

		assert.Equal(t, "forgot-password", stepOf(body))
		assert.Contains(t, body, autherr.KindRateLimited.Message())
	})

	t.Run("confirm reset returns to login", func(t *testing.T) {
		t.Parallel()
		env := setupService(t)
		env.idp.On("ConfirmForgotPassword", mock.Anything, "user@example.com", "123456", "N3w!Password").Return(nil).Once()

		b := env.browser(t)
		b.get("/auth?step=confirm-password-reset&email=user@example.com")
		body := b.post("/auth/confirm-password-reset", url.Values{
			"code":             {"123456"},
			"password":         {"N3w!Password"},
			"confirm_password": {"N3w!Password"},
		}).Body.String()

		assert.Equal(t, "login", stepOf(body))
		assert.Contains(t, body, account.MessagePasswordReset)
		env.idp.AssertExpectations(t)
	})
}

func TestNavigation(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	b := env.browser(t)
	b.get("/auth")

	assert.Equal(t, "signup", stepOf(b.post("/auth/show/signup", nil).Body.String()))
	assert.Equal(t, "login", stepOf(b.post("/auth/back", nil).Body.String()))
	// Back from login is ignored.
	assert.Equal(t, "login", stepOf(b.post("/auth/back", nil).Body.String()))

	body := b.post("/auth/show/forgot-password", url.Values{"email": {"User@Example.com"}}).Body.String()
	assert.Equal(t, "forgot-password", stepOf(body))
	assert.Contains(t, body, `value="user@example.com"`)
}

func TestPasswordStrength(t *testing.T) {
	t.Parallel()
	env := setupService(t)

	body := env.browser(t).post("/auth/password-strength", url.Values{"password": {"abcdefgh"}}).Body.String()
	assert.Contains(t, body, `id="password-requirements"`)
	assert.Contains(t, body, `data-strength="40"`)
}

func TestCountdownRejectsUnknownAction(t *testing.T) {
	t.Parallel()
	env := setupService(t)

	w := env.browser(t).get("/auth/countdown/delete-everything")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignOut(t *testing.T) {
	t.Parallel()
	env := setupService(t)
	tokens := identity.Tokens{AccessToken: "access", ExpiresAt: env.clock.Now().Add(time.Hour)}
	env.idp.On("SignIn", mock.Anything, "user@example.com", "Str0ng!Pass").Return(identity.SignInResult{Tokens: &tokens}, nil)
	env.idp.On("GetCurrentUser", mock.Anything, "access").Return(identity.User{Subject: "sub-1", Email: "user@example.com"}, nil)
	env.idp.On("SignOut", mock.Anything, "access").Return(nil).Once()

	b := env.browser(t)
	b.get("/auth")
	b.post("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"Str0ng!Pass"}})
	require.Contains(t, b.cookies, auth.DefaultSessionCookie)

	w := b.post("/auth/signout", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotContains(t, b.cookies, auth.DefaultSessionCookie)
	env.idp.AssertExpectations(t)
}
