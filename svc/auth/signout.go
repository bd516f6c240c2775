package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/metisnation/registry/pkg/logger"
)

// Revoker revokes tokens at the identity provider.
type Revoker interface {
	SignOut(ctx context.Context, accessToken string) error
}

// SignOut revokes the session's tokens and clears the cookie. The cookie is
// cleared even when revocation fails; the failure is only logged.
func SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request, sessions *SessionStore, idp Revoker, log *slog.Logger) {
	sess, err := sessions.Load(r)
	sessions.Clear(w)
	if err != nil {
		return
	}
	if err := idp.SignOut(ctx, sess.AccessToken); err != nil {
		log.WarnContext(ctx, "global sign out failed",
			logger.Component("auth"),
			logger.UserID(sess.Subject),
			logger.Error(err),
		)
	}
}
