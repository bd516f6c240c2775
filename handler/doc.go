// Package handler provides typed HTTP handlers and the responses the
// registry renders: templ components (as full pages or Datastar SSE
// patches), redirects, JSON envelopes and long-lived SSE streams.
//
// A HandlerFunc receives a Context and a request struct bound by the
// configured binders, and returns a Response:
//
//	func (s *Service) login(ctx handler.Context, req LoginRequest) handler.Response {
//	    ...
//	    return handler.TemplPartial(views.LoginForm(state), views.AuthPage(state),
//	        handler.WithTarget("#auth-step"))
//	}
//
//	r.Post("/login", handler.Wrap(s.login,
//	    handler.WithBinders[handler.Context, LoginRequest](binder.Form()),
//	    handler.WithErrorHandler[handler.Context, LoginRequest](errHandler),
//	))
//
// Requests sent by Datastar (Accept: text/event-stream) receive SSE
// responses that patch the page in place; plain form posts receive full
// HTML, so every page works without JavaScript.
//
// Binding and rendering failures go to the ErrorHandler. NewErrorHandler
// logs them and renders an error page or a toast depending on the request
// type. JSON endpoints answer with the envelope
//
//	{"success": true, "data": ...}
//	{"success": false, "error": {"code": "...", "message": "..."}}
package handler
