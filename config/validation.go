package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the loaded configuration against its struct tags plus
// the cross-field rules validator cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	r := &cfg.Retry
	if (r.Strategy == "random" || r.Strategy == "jittered") &&
		r.MinRandomInterval == 0 && r.MaxRandomInterval == 0 && r.Interval == 0 {
		return fmt.Errorf("retry config: random strategy needs jitter bounds or a base interval")
	}

	if cfg.Client.Rate.Limit > 0 && cfg.Client.Rate.Burst == 0 {
		return fmt.Errorf("client config: rate limit requires a burst size")
	}

	return nil
}
