// Command coverd serves downscaled library covers over HTTP from a bounded
// in-memory cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/coverkit/pkg/config"
	"github.com/dmitrymomot/coverkit/pkg/httpserver"
	"github.com/dmitrymomot/coverkit/pkg/library"
	"github.com/dmitrymomot/coverkit/pkg/logger"
	"github.com/dmitrymomot/coverkit/pkg/requestid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := osfs.New(cfg.Root)
	lib, err := library.Load(ctx, fs, cfg.Library)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "library loaded", logger.Path(cfg.Library), logger.Count("items", lib.Len()))

	svc, err := newService(lib, fs, cfg, log)
	if err != nil {
		return err
	}
	defer svc.close()

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, svc.router())
	})
	if cfg.Prefetch {
		g.Go(func() error {
			svc.warm(ctx)
			return nil
		})
	}

	return g.Wait()
}
