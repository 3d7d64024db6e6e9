package config

import "github.com/caarlos0/env/v11"

const envPrefix = "WISHLIST_"

// parseEnv overlays variables named WISHLIST_<tag> onto config. Unset
// variables leave the current value in place. A nil environ means the
// process environment.
func parseEnv(config *Config, environ map[string]string) error {
	return env.ParseWithOptions(config, env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	})
}
