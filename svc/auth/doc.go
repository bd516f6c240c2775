// Package auth keeps the signed-in citizen's session.
//
// After a successful sign-in the Cognito access token is stored in an
// encrypted cookie. RequireUser loads it on every protected request and puts
// the Session into the request context; requests without a live session are
// redirected to the login page with a flash notice.
//
//	sessions := auth.NewSessionStore(cookies)
//	r.With(auth.RequireUser(sessions, cookies, "/auth")).Get("/dashboard", ...)
//	sess := auth.GetSessionFromContext(r.Context())
package auth
