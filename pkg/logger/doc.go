// Package logger builds configured slog.Logger instances with support for
// environment-specific defaults and automatic injection of request-scoped
// attributes from context.
//
// Typical usage:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Environment, "notifier"),
//	    logger.WithContextValue("request_id", requestid.CtxKey),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers (logger.UserID, logger.NotificationID, ...) keep log
// field names consistent across the codebase.
package logger
