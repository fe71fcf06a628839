// Package config loads environment-driven configuration structs. A .env file
// is honored once per process for local development; real deployments rely on
// actual environment variables.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrNilPointer    = errors.New("config: nil pointer passed to Load")
	ErrParsingConfig = errors.New("config: failed to parse environment variables")
)

var dotenvOnce sync.Once

// Load parses environment variables into v based on `env` struct tags.
//
//	type BillingConfig struct {
//		TrialDays    int           `env:"BILLING_TRIAL_DAYS" envDefault:"14"`
//		CooldownDays int           `env:"BILLING_ADDON_COOLDOWN_DAYS" envDefault:"30"`
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional; ignore load errors.
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load required configuration: %v", err))
	}
}
