package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "https://fakestoreapi.com", cfg.Catalog.BaseURL)
	assert.Equal(t, "/products", cfg.Catalog.ProductsPath)
	assert.Equal(t, "memory", cfg.Catalog.CacheDriver)
	assert.Equal(t, "log", cfg.Events.Driver)
	assert.Equal(t, "sf_session", cfg.Session.CookieName)
	assert.Equal(t, 1800, cfg.Session.IdleTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
service_name = "shop"
environment = "staging"

[http]
port = 9000

[catalog]
base_url = "http://catalog.local"
cache_driver = "none"
cache_ttl = 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "http://catalog.local", cfg.Catalog.BaseURL)
	assert.Equal(t, "none", cfg.Catalog.CacheDriver)
	assert.Equal(t, 10, cfg.Catalog.CacheTTL)
	// 未配置的键保留默认值
	assert.Equal(t, "/products", cfg.Catalog.ProductsPath)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[http]
port = 9000
`)
	t.Setenv("APP_HTTP_PORT", "9100")
	t.Setenv("APP_CATALOG_BASE_URL", "http://override.local")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, "http://override.local", cfg.Catalog.BaseURL)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "this is = = not toml")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "storefront",
			HTTP:        HTTPConfig{Port: 8080},
			GRPC:        GRPCConfig{Enabled: true, Port: 50051},
			Catalog:     CatalogConfig{BaseURL: "http://x", CacheDriver: "memory"},
			Session:     SessionConfig{IdleTimeout: 60},
			Events:      EventsConfig{Driver: "log"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, true},
		{"bad http port", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"bad grpc port when enabled", func(c *Config) { c.GRPC.Port = 0 }, true},
		{"grpc disabled ignores port", func(c *Config) { c.GRPC = GRPCConfig{} }, false},
		{"missing catalog url", func(c *Config) { c.Catalog.BaseURL = "" }, true},
		{"unknown cache driver", func(c *Config) { c.Catalog.CacheDriver = "disk" }, true},
		{"kafka without brokers", func(c *Config) { c.Events.Driver = "kafka" }, true},
		{"kafka with brokers", func(c *Config) {
			c.Events.Driver = "kafka"
			c.Events.Kafka.Brokers = []string{"localhost:9092"}
		}, false},
		{"amqp without url", func(c *Config) { c.Events.Driver = "amqp" }, true},
		{"unknown events driver", func(c *Config) { c.Events.Driver = "nats" }, true},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDefaultsEnvironment(t *testing.T) {
	c := Config{
		ServiceName: "storefront",
		HTTP:        HTTPConfig{Port: 8080},
		Catalog:     CatalogConfig{BaseURL: "http://x", CacheDriver: "none"},
		Session:     SessionConfig{IdleTimeout: 60},
		Events:      EventsConfig{Driver: "log"},
	}
	require.NoError(t, c.Validate())
	assert.Equal(t, "dev", c.Environment)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("STOREFRONT_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("STOREFRONT_TEST_MISSING", "fallback"))
}
