package auth

import (
	"errors"
	"net/http"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/pkg/cookie"
)

// FlashNotice is the flash key the login page reads its banner from.
const FlashNotice = "notice"

// Notice is the flash payload set by RequireUser.
type Notice struct {
	Message string `json:"message"`
}

// RequireUser lets requests with a live session through and redirects the
// rest to loginPath. Expired sessions are cleared.
func RequireUser(sessions *SessionStore, cookies *cookie.Manager, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(SetSessionToContext(r.Context(), &sess)))
				return
			}

			msg := "Please sign in to continue."
			if errors.Is(err, ErrSessionExpired) {
				msg = "Your session has expired. Please sign in again."
				sessions.Clear(w)
			}
			if ferr := cookies.SetFlash(w, FlashNotice, Notice{Message: msg}); ferr != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if rerr := handler.Redirect(loginPath).Render(w, r); rerr != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

// PopNotice returns and clears the pending flash notice, if any.
func PopNotice(w http.ResponseWriter, r *http.Request, cookies *cookie.Manager) string {
	var n Notice
	if err := cookies.GetFlash(w, r, FlashNotice, &n); err != nil {
		return ""
	}
	return n.Message
}
