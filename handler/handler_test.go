package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/binder"
)

type loginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Next     string `query:"next"`
}

func postForm(target string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("binds form and query", func(t *testing.T) {
		t.Parallel()

		var got loginRequest
		h := handler.Wrap(func(ctx handler.Context, req loginRequest) handler.Response {
			got = req
			return handler.JSON(nil)
		}, handler.WithBinders[handler.Context, loginRequest](binder.Form(), binder.Query()))

		w := httptest.NewRecorder()
		h(w, postForm("/login?next=/profile", url.Values{
			"email":    {"marie@example.com"},
			"password": {"Secret123!"},
		}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, loginRequest{Email: "marie@example.com", Password: "Secret123!", Next: "/profile"}, got)
	})

	t.Run("skips binders that do not apply", func(t *testing.T) {
		t.Parallel()

		called := false
		h := handler.Wrap(func(ctx handler.Context, req loginRequest) handler.Response {
			called = true
			return handler.JSON(nil)
		}, handler.WithBinders[handler.Context, loginRequest](binder.Form()))

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("binder failure goes to error handler", func(t *testing.T) {
		t.Parallel()

		var handled error
		h := handler.Wrap(func(ctx handler.Context, req loginRequest) handler.Response {
			t.Fatal("handler must not run")
			return nil
		},
			handler.WithBinders[handler.Context, loginRequest](binder.Form()),
			handler.WithErrorHandler[handler.Context, loginRequest](func(ctx handler.Context, err error) {
				handled = err
			}),
		)

		r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("x"))
		r.Header.Set("Content-Type", "multipart/form-data")
		h(httptest.NewRecorder(), r)

		require.Error(t, handled)
		assert.ErrorIs(t, handled, handler.ErrBadRequest)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		var handled error
		h := handler.Wrap(func(ctx handler.Context, req struct{}) handler.Response {
			return nil
		}, handler.WithErrorHandler[handler.Context, struct{}](func(ctx handler.Context, err error) {
			handled = err
		}))

		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, handled, handler.ErrNilResponse)
	})

	t.Run("default error handler uses HTTPError status", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		handler.Wrap(func(ctx handler.Context, req struct{}) handler.Response {
			return errResponse{handler.ErrNotFound}
		})(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = httptest.NewRecorder()
		handler.Wrap(func(ctx handler.Context, req struct{}) handler.Response {
			return errResponse{errors.New("boom")}
		})(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type errResponse struct{ err error }

func (e errResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }

func TestContextValue(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("flow")
	ctx := handler.NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, handler.ContextValue[string](ctx, key))
	assert.Nil(t, ctx.SSE())
	assert.Equal(t, "flow", key.String())
}
