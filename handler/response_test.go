package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/autherr"
	"github.com/metisnation/registry/pkg/validator"
)

func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func datastarRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.Header.Set("Accept", "text/event-stream")
	return r
}

func TestIsDataStar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		target   string
		expected bool
	}{
		{"SSE accept header", map[string]string{"Accept": "text/event-stream"}, "/", true},
		{"mixed accept header", map[string]string{"Accept": "text/html, text/event-stream"}, "/", true},
		{"query parameter", nil, "/?datastar=%7B%7D", true},
		{"content type", map[string]string{"Content-Type": "application/x-datastar"}, "/", true},
		{"plain request", map[string]string{"Accept": "text/html"}, "/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, handler.IsDataStar(r))
		})
	}
}

func TestTemplPartial(t *testing.T) {
	t.Parallel()

	t.Run("plain request gets full page", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		err := handler.TemplPartial(text("<form/>"), text("<html><form/></html>")).
			Render(w, httptest.NewRequest(http.MethodGet, "/auth", nil))
		require.NoError(t, err)

		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "<html><form/></html>", w.Body.String())
	})

	t.Run("datastar request gets patch", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		err := handler.TemplPartial(text(`<form id="auth-step"></form>`), text("<html/>"), handler.WithTarget("#auth-step")).
			Render(w, datastarRequest(http.MethodPost, "/auth/login"))
		require.NoError(t, err)

		assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, w.Body.String(), "datastar-patch-elements")
		assert.Contains(t, w.Body.String(), "#auth-step")
		assert.NotContains(t, w.Body.String(), "<html/>")
	})

	t.Run("status for plain requests", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.TemplWithStatus(http.StatusTooManyRequests, text("slow down")).
			Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestTemplMulti(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, handler.TemplMulti(
		handler.Patch(text("<a/>")),
		handler.Patch(text("<b/>")),
	).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "<a/><b/>", w.Body.String())
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	t.Run("plain request", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("/profile").Render(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil)))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/profile", w.Header().Get("Location"))
	})

	t.Run("datastar request", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("/profile").Render(w, datastarRequest(http.MethodPost, "/auth/login")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/profile")
	})
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("success envelope", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.JSON(map[string]string{"id": "123"}).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusOK, w.Code)
		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, handler.JSONResponse{Success: true, Data: map[string]any{"id": "123"}}, got)
	})

	t.Run("custom status", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.JSON(nil, handler.WithJSONStatus(http.StatusCreated)).Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    validator.Apply(validator.Required("email", "")),
			status: http.StatusUnprocessableEntity,
			code:   "validation_error",
		},
		{
			name:   "invalid credentials",
			err:    autherr.New(autherr.KindInvalidCredentials, "NotAuthorizedException", "Incorrect username or password.", nil),
			status: http.StatusUnauthorized,
			code:   string(autherr.KindInvalidCredentials),
		},
		{
			name:   "rate limited",
			err:    autherr.New(autherr.KindRateLimited, "LimitExceededException", "", nil),
			status: http.StatusTooManyRequests,
			code:   string(autherr.KindRateLimited),
		},
		{
			name:   "code mismatch",
			err:    autherr.New(autherr.KindCodeMismatch, "CodeMismatchException", "", nil),
			status: http.StatusBadRequest,
			code:   string(autherr.KindCodeMismatch),
		},
		{
			name:   "http error",
			err:    handler.ErrForbidden,
			status: http.StatusForbidden,
			code:   "forbidden",
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))

			assert.Equal(t, tt.status, w.Code)
			var got handler.JSONResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.False(t, got.Success)
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.code, got.Error.Code)
		})
	}

	t.Run("validation details", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		err := validator.Apply(validator.Required("email", ""), validator.MinLen("password", "abc", 8))
		require.NoError(t, handler.JSONError(err).Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))

		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Contains(t, got.Error.Details, "email")
		assert.Contains(t, got.Error.Details, "password")
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Validation failed", handler.ValidationError{}.Error())
	ve := handler.ValidationError{"password": {"too short"}, "email": {"required"}}
	assert.Equal(t, "validation error: email: required, password: too short", ve.Error())
}
