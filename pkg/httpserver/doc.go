// Package httpserver runs an http.Server with configurable timeouts, graceful
// shutdown and health-check handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns once ctx is done and in-flight requests have drained, or when
// the listener fails. Errors are joined with ErrStart or ErrShutdown.
package httpserver
