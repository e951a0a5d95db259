package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables using `env` and `envDefault`
// struct tags.
func Load(cfg any) error {
	return LoadWithPrefix(cfg, "")
}

// LoadWithPrefix is Load with every variable name prefixed, e.g. "ORDER_".
// Fields tagged `required:"true"` fail when the variable is unset.
func LoadWithPrefix(cfg any, prefix string) error {
	opts := env.Options{Prefix: prefix, RequiredIfNoDef: false}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
