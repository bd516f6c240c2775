package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mountable is a module serving its own routes.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects the modules served by Router. Nil modules are not
// mounted.
type RouterOptions struct {
	// Auth is served at Config.BasePath, normally the Service.
	Auth     Mountable
	AuthPath string

	// Profile is the signed-in area; it enforces its own session check.
	Profile     Mountable
	ProfilePath string
}

// Router mounts the registry's user-facing modules.
//
// Example:
//
//	flows := account.NewService(cfg, idp, cookies, sessions)
//	r.Mount("/", account.Router(account.RouterOptions{
//	    Auth:        flows,
//	    AuthPath:    cfg.BasePath,
//	    Profile:     profileSvc,
//	    ProfilePath: "/dashboard",
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Auth != nil {
		r.Mount(pathOr(opts.AuthPath, DefaultConfig().BasePath), opts.Auth.Handle())
	}
	if opts.Profile != nil {
		r.Mount(pathOr(opts.ProfilePath, DefaultConfig().AfterLoginPath), opts.Profile.Handle())
	}

	return r
}

func pathOr(p, fallback string) string {
	if p == "" {
		return fallback
	}
	return p
}
