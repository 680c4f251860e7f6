package currenturl

import (
	"os"

	"github.com/dpup/currenturl/internal/config"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Filename of the standard configuration file.
const ConfigFile = "currenturl.yaml"

// ConfigKeyInfo contains metadata about a known configuration key.
type ConfigKeyInfo = config.KeyInfo

// Config is a global koanf instance used to access configuration options.
//
// Config is loaded in the following order (later sources override earlier):
// 1. Registered defaults
// 2. Auto-discovered currenturl.yaml
// 3. Platform variables, VERCEL_ENV and VERCEL_URL
// 4. Environment variables with the CU__ prefix
// 5. Additional sources loaded via LoadConfigFile() or LoadConfigDefaults()
//
// Environment variable transformation:
//   - CU__CURRENT_URL__PLATFORM_HOST → currentURL.platformHost
//   - CU__SERVER__PORT → server.port
//   - CU__LOGGING__PRODUCTION → logging.production
var Config = koanf.New(".")

func init() {
	registerCoreConfigKeys()

	// Look for a currenturl.yaml file in the current directory or any parent.
	if cfg := config.SearchForConfig(ConfigFile, "."); cfg != "" {
		if err := Config.Load(file.Provider(cfg), yaml.Parser()); err != nil {
			panic("error loading config: " + err.Error())
		}
	}

	if err := LoadConfigEnv(); err != nil {
		panic("error loading env config: " + err.Error())
	}
}

// LoadConfigEnv applies platform variables and CU__ environment variables to
// Config. It runs at init, call it again after changing the environment, for
// example after loading a .env file.
func LoadConfigEnv() error {
	config.LoadEnvAliases(Config, os.LookupEnv)
	return Config.Load(env.Provider(config.EnvPrefix, ".", config.TransformEnv), nil)
}

// RegisterConfigKeys documents configuration keys. Defaults are applied to
// Config for keys that have not already been set.
func RegisterConfigKeys(infos ...ConfigKeyInfo) {
	config.RegisterKeys(infos...)
	config.LoadDefaults(Config)
}

// LoadConfigFile loads additional configuration from a YAML file into the
// global Config instance.
func LoadConfigFile(path string) error {
	return Config.Load(file.Provider(path), yaml.Parser())
}

// LoadConfigDefaults loads configuration values from a map into the global
// Config instance, overriding what is already there.
//
// Example:
//
//	currenturl.LoadConfigDefaults(map[string]interface{}{
//	    "currentURL.platformHost": "example.com",
//	})
func LoadConfigDefaults(values map[string]interface{}) error {
	return Config.Load(confmap.Provider(values, "."), nil)
}

// ConfigWarnings checks the loaded configuration for unknown keys and returns
// a human readable report, or "" if everything is recognized.
func ConfigWarnings() string {
	return config.FormatValidationWarnings(config.ValidateKeys(Config))
}

// RegisteredConfigKeys returns metadata for every registered key, sorted by
// key.
func RegisteredConfigKeys() []ConfigKeyInfo {
	keys := config.AllRegisteredKeys()
	infos := make([]ConfigKeyInfo, 0, len(keys))
	for _, k := range keys {
		if info, ok := config.LookupKey(k); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

func registerCoreConfigKeys() {
	RegisterConfigKeys(
		ConfigKeyInfo{
			Key:         "currentURL.deploymentEnv",
			Description: "Deployment name, URLs are built with https when it is \"production\"",
			Type:        "string",
			Env:         "VERCEL_ENV",
		},
		ConfigKeyInfo{
			Key:         "currentURL.platformHost",
			Description: "Hostname assigned by the hosting platform, preferred over the request host",
			Type:        "string",
			Env:         "VERCEL_URL",
		},
		ConfigKeyInfo{
			Key:         "currentURL.trustForwardedHeaders",
			Description: "Use X-Forwarded-Proto and X-Forwarded-Host when stamping x-url",
			Type:        "bool",
			Default:     false,
		},
		ConfigKeyInfo{
			Key:         "logging.production",
			Description: "Use the JSON production logger instead of the development logger",
			Type:        "bool",
			Default:     false,
		},
	)
}
