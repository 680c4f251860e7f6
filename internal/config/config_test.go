package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRegistry(t *testing.T, infos ...KeyInfo) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = make(map[string]KeyInfo)
	registryMu.Unlock()

	RegisterKeys(infos...)

	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func testKeys() []KeyInfo {
	return []KeyInfo{
		{Key: "currentURL.deploymentEnv", Type: "string", Env: "VERCEL_ENV"},
		{Key: "currentURL.platformHost", Type: "string", Env: "VERCEL_URL"},
		{Key: "currentURL.trustForwardedHeaders", Type: "bool", Default: false},
		{Key: "server.host", Type: "string", Default: "localhost"},
		{Key: "server.port", Type: "int", Default: 8000},
		{Key: "myapp", Type: "namespace"},
	}
}

func TestTransformEnv(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "CU__CURRENT_URL__PLATFORM_HOST", want: "currentURL.platformHost"},
		{input: "CU__CURRENT_URL__TRUST_FORWARDED_HEADERS", want: "currentURL.trustForwardedHeaders"},
		{input: "CU__SERVER__TLS__CERT_FILE", want: "server.tls.certFile"},
		{input: "CU__FOOBAR", want: "foobar"},
		{input: "CU__A__B_C", want: "a.bC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, TransformEnv(tt.input))
		})
	}
}

func TestSearchForConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	cfg := filepath.Join(root, "currenturl.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("server:\n  port: 9000\n"), 0o600))

	assert.Equal(t, cfg, SearchForConfig("currenturl.yaml", nested))
	assert.Empty(t, SearchForConfig("currenturl-rando-11234.yaml", nested))
}

func TestLoadDefaults(t *testing.T) {
	withRegistry(t, testKeys()...)

	k := koanf.New(".")
	require.NoError(t, k.Set("server.port", 9999))
	LoadDefaults(k)

	assert.Equal(t, 9999, k.Int("server.port"), "existing values are not overwritten")
	assert.Equal(t, "localhost", k.String("server.host"))
	assert.False(t, k.Bool("currentURL.trustForwardedHeaders"))
	assert.False(t, k.Exists("currentURL.platformHost"))
}

func TestLoadEnvAliases(t *testing.T) {
	withRegistry(t, testKeys()...)

	env := map[string]string{
		"VERCEL_ENV": "production",
		"VERCEL_URL": "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	k := koanf.New(".")
	LoadEnvAliases(k, lookup)

	assert.Equal(t, "production", k.String("currentURL.deploymentEnv"))
	assert.False(t, k.Exists("currentURL.platformHost"), "empty env vars are ignored")
}

func TestFindSimilarKeys(t *testing.T) {
	withRegistry(t, testKeys()...)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "missing letter", key: "currentURL.platformHst", want: "currentURL.platformHost"},
		{name: "wrong case", key: "currentUrl.deploymentEnv", want: "currentURL.deploymentEnv"},
		{name: "transposition", key: "server.prot", want: "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSimilarKeys(tt.key, 3)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0])
		})
	}

	assert.Empty(t, FindSimilarKeys("completely.unrelated.thing", 3))
}

func TestValidateKeys(t *testing.T) {
	withRegistry(t, testKeys()...)

	k := koanf.New(".")
	require.NoError(t, k.Load(confmap.Provider(map[string]interface{}{
		"server.port":              8000,
		"currentURL.platformHst":   "example.com",
		"myapp.anything.goes":      true,
		"totallyUnknownSetting":    "x",
		"currentURL.deploymentEnv": "preview",
	}, "."), nil))

	warnings := ValidateKeys(k)
	byKey := map[string]ValidationWarning{}
	for _, w := range warnings {
		byKey[w.Key] = w
	}

	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"currentURL.platformHost"}, byKey["currentURL.platformHst"].Suggestions)
	assert.Empty(t, byKey["totallyUnknownSetting"].Suggestions)

	msg := FormatValidationWarnings(warnings)
	assert.Contains(t, msg, "Did you mean 'currentURL.platformHost'?")
	assert.Contains(t, msg, "'totallyUnknownSetting' is not a known config key")
	assert.Empty(t, FormatValidationWarnings(nil))
}

func TestValidationWarningString(t *testing.T) {
	w := ValidationWarning{Key: "x", Suggestions: []string{"a", "b"}}
	assert.Equal(t, "'x' is not a known config key. Did you mean one of these?\n    - a\n    - b\n", w.String())
}
