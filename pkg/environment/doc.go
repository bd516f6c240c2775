// Package environment names the deployment environment the registry runs in
// (development, staging, production) and carries it through request
// contexts.
//
// The value is read once from APP_ENV, parsed with Parse and attached to
// every request by Middleware. Code that behaves differently per
// environment, such as secure cookie flags or verbose error pages, asks the
// context:
//
//	if environment.IsProduction(r.Context()) {
//	    ...
//	}
//
// LoggerExtractor adds an "env" attribute to every log record whose context
// carries an environment.
package environment
