package main

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/dmitrymomot/coverkit/pkg/httpserver"
	"github.com/dmitrymomot/coverkit/pkg/resample"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"coverd"`
	LogLevel string `env:"LOG_LEVEL"`

	Root      string `env:"COVER_ROOT" envDefault:"."`
	Library   string `env:"COVER_LIBRARY" envDefault:"library.yaml"`
	MaxSide   int    `env:"COVER_MAX_SIDE" envDefault:"200"`
	MaxCached int    `env:"COVER_MAX_CACHED" envDefault:"50"`
	Prefetch  bool   `env:"COVER_PREFETCH" envDefault:"true"`
	Kernel    string `env:"COVER_KERNEL" envDefault:"catmullrom"`
	MaxPixels int    `env:"COVER_MAX_PIXELS" envDefault:"67108864"`

	HTTP httpserver.Config
}

var errInvalidConfig = errors.New("coverd: invalid config")

func (c appConfig) validate() error {
	if c.MaxSide < resample.MinSide {
		return errors.Join(errInvalidConfig, fmt.Errorf("COVER_MAX_SIDE must be at least %d", resample.MinSide))
	}
	if c.MaxCached < 1 {
		return errors.Join(errInvalidConfig, errors.New("COVER_MAX_CACHED must be positive"))
	}
	if c.MaxPixels < 0 {
		return errors.Join(errInvalidConfig, errors.New("COVER_MAX_PIXELS must not be negative"))
	}
	if _, err := resample.ParseKernel(c.Kernel); err != nil {
		return errors.Join(errInvalidConfig, err)
	}
	return nil
}

// resampler builds the cover resampler. Zero MaxPixels keeps the package default.
func (c appConfig) resampler(fs billy.Basic) (*resample.Resampler, error) {
	kernel, err := resample.ParseKernel(c.Kernel)
	if err != nil {
		return nil, errors.Join(errInvalidConfig, err)
	}
	opts := []resample.Option{resample.WithKernel(kernel)}
	if c.MaxPixels > 0 {
		opts = append(opts, resample.WithMaxPixels(c.MaxPixels))
	}
	return resample.New(fs, opts...), nil
}
