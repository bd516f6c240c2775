// Package httpserver runs the registry's http.Server until its context is
// cancelled, then drains in-flight requests within ShutdownTimeout.
//
//	srv := httpserver.NewFromConfig(cfg, router, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx) })
//
// HealthHandler serves liveness and readiness probes over named checks.
package httpserver
