// Package config loads application configuration from environment variables
// into tagged structs.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env/v11 (struct tag parsing, defaults, required fields):
//
//	type Config struct {
//		MaxSide   int    `env:"COVER_MAX_SIDE" envDefault:"200"`
//		Library   string `env:"COVER_LIBRARY" envDefault:"library.yaml"`
//		Required  string `env:"SECRET,required"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Parsing failures are reported as ErrParsingConfig joined with the
// underlying error. WithEnvironment parses from a map, which keeps tests
// independent of the process environment.
package config
