// Package logger builds *slog.Logger instances from functional options and
// provides attribute helpers so field names stay consistent across packages.
//
// New picks a text or JSON handler and applies static attributes. Records
// logged with a context also get the attributes attached to it with WithAttrs
// and those returned by context extractors (for example a request id).
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "coverd"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	ctx = logger.WithAttrs(ctx, logger.ItemID(id))
//	log.DebugContext(ctx, "cover cached", logger.Size(buf.Width, buf.Height))
//
// Error returns an empty attribute for nil errors, so it can be passed without
// a nil check. Discard returns a logger for components built without one.
package logger
