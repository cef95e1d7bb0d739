package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalTOML = `
service_name = "position-service"

[http]
port = 8084

[database]
dsn = "user:pass@tcp(localhost:3306)/positions?parseTime=true"

[kafka]
brokers = ["localhost:9092"]
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsEnvironment(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalTOML))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
}

func TestLoad_KeepsExplicitEnvironment(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, "environment = \"prod\"\n"+minimalTOML))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
}

func TestValidate_DoesNotModifyConfig(t *testing.T) {
	cfg := Config{
		ServiceName: "position-service",
		HTTP:        HTTPConfig{Port: 8084},
		Database:    DatabaseConfig{DSN: "user:pass@tcp(localhost:3306)/positions"},
		Kafka:       KafkaConfig{Brokers: []string{"localhost:9092"}},
	}
	before := cfg

	require.NoError(t, cfg.Validate())
	assert.Equal(t, before, cfg)
}

func TestValidate_Rejections(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "position-service",
			HTTP:        HTTPConfig{Port: 8084},
			Database:    DatabaseConfig{DSN: "user:pass@tcp(localhost:3306)/positions"},
			Kafka:       KafkaConfig{Brokers: []string{"localhost:9092"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing service name", func(c *Config) { c.ServiceName = "" }},
		{"invalid http port", func(c *Config) { c.HTTP.Port = 0 }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"missing brokers", func(c *Config) { c.Kafka.Brokers = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
