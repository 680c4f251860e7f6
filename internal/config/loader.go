package config

import (
	"github.com/knadh/koanf/v2"
)

// LoadDefaults sets registered default values for keys that don't already
// exist in the config.
func LoadDefaults(k *koanf.Koanf) {
	for key, val := range DefaultConfigs() {
		if !k.Exists(key) {
			_ = k.Set(key, val)
		}
	}
}

// LoadEnvAliases copies registered unprefixed environment variables, such as
// VERCEL_ENV, into their config keys. Empty variables are ignored.
func LoadEnvAliases(k *koanf.Koanf, lookup func(string) (string, bool)) {
	for env, key := range EnvAliases() {
		if v, ok := lookup(env); ok && v != "" {
			_ = k.Set(key, v)
		}
	}
}
