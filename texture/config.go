// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"strconv"

	"github.com/gobuffalo/envy"
)

// Config configures a Manager.
type Config struct {

	// Workers bounds concurrent creations. Zero or negative selects
	// the hardware default (threads minus one, at least one).
	Workers int
}

// ConfigFromEnv builds a Config from the environment. TEXEL_WORKERS
// overrides the worker bound; anything unparseable keeps the default.
func ConfigFromEnv() Config {
	var cfg Config
	if raw := envy.Get("TEXEL_WORKERS", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.Workers = n
		}
	}
	return cfg
}
