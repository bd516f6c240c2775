// Package logger builds the registry's *slog.Logger.
//
// New applies functional options on top of production defaults (JSON, info
// level, stdout) and wraps the handler with LogHandlerDecorator, which runs
// ContextExtractor callbacks on every record. Request IDs and the deployment
// environment reach log lines this way without being passed around.
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "registry"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.WarnContext(ctx, "sign in failed",
//	    logger.FlowID(flow.ID()),
//	    logger.Email(email),
//	    logger.Error(err),
//	)
//
// Attribute helpers keep key names consistent. Error, UserID and RequestID
// return an empty attribute for nil values, so they can be passed
// unconditionally. Email masks the local part.
package logger
