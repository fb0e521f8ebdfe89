package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig_Defaults tests loading configuration with default values
func TestLoadConfig_Defaults(t *testing.T) {
	// Load config without a file (should use defaults)
	config, err := LoadConfig("")

	require.NoError(t, err)
	require.NotNil(t, config)

	// Verify server defaults
	assert.Equal(t, 8082, config.Server.Port)
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, config.Server.WriteTimeout)

	// Verify Kafka defaults
	assert.Equal(t, []string{"localhost:9092"}, config.Kafka.Brokers)
	assert.Equal(t, "event_odds", config.Kafka.Topic)
	assert.Equal(t, "arb-ledger", config.Kafka.GroupID)

	// Verify Redis defaults
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
	assert.Equal(t, "", config.Redis.Password)
	assert.Equal(t, 0, config.Redis.DB)
	assert.Equal(t, 15*time.Minute, config.Redis.QuoteTTL)

	// Verify ledger defaults
	assert.Equal(t, 1000.0, config.Ledger.StartingBalance)
	assert.Equal(t, 100.0, config.Ledger.ScanBudget)

	// Verify logging defaults
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
}

// TestLoadConfig_WithFile tests loading configuration from file
func TestLoadConfig_WithFile(t *testing.T) {
	// Create temporary config file
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	configContent := `
server:
  port: 9090
  read_timeout: 45s
  write_timeout: 45s

kafka:
  brokers:
    - broker1:9092
    - broker2:9092
  topic: test_topic
  group_id: test_group

redis:
  addr: redis:6379
  password: test_password
  db: 1
  quote_ttl: 30m

ledger:
  starting_balance: 500.0
  scan_budget: 250.0

logging:
  level: debug
  format: console
`

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	config, err := LoadConfig(tmpFile.Name())

	require.NoError(t, err)
	require.NotNil(t, config)

	// Verify server config
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 45*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 45*time.Second, config.Server.WriteTimeout)

	// Verify Kafka config
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, config.Kafka.Brokers)
	assert.Equal(t, "test_topic", config.Kafka.Topic)
	assert.Equal(t, "test_group", config.Kafka.GroupID)

	// Verify Redis config
	assert.Equal(t, "redis:6379", config.Redis.Addr)
	assert.Equal(t, "test_password", config.Redis.Password)
	assert.Equal(t, 1, config.Redis.DB)
	assert.Equal(t, 30*time.Minute, config.Redis.QuoteTTL)

	// Verify ledger config
	assert.Equal(t, 500.0, config.Ledger.StartingBalance)
	assert.Equal(t, 250.0, config.Ledger.ScanBudget)

	// Verify logging config
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
}

// TestLoadConfig_InvalidFile tests loading with non-existent file
func TestLoadConfig_InvalidFile(t *testing.T) {
	config, err := LoadConfig("/nonexistent/config.yaml")

	assert.Error(t, err)
	assert.Nil(t, config)
}

// TestLoadConfig_MalformedFile tests loading with malformed YAML
func TestLoadConfig_MalformedFile(t *testing.T) {
	// Create temporary config file with malformed YAML
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	malformedContent := `
server:
  port: invalid_port
  read_timeout: not_a_duration
`

	_, err = tmpFile.WriteString(malformedContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	config, err := LoadConfig(tmpFile.Name())

	// Should error on unmarshal
	assert.Error(t, err)
	assert.Nil(t, config)
}

// TestLoadConfig_PartialFile tests loading with partial configuration
func TestLoadConfig_PartialFile(t *testing.T) {
	// Create temporary config file with partial config
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	partialContent := `
server:
  port: 9090

kafka:
  brokers:
    - broker1:9092

# Other configs will use defaults
`

	_, err = tmpFile.WriteString(partialContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	config, err := LoadConfig(tmpFile.Name())

	require.NoError(t, err)
	require.NotNil(t, config)

	// Verify overridden values
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, []string{"broker1:9092"}, config.Kafka.Brokers)

	// Verify defaults are still used for non-specified values
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, "event_odds", config.Kafka.Topic)
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
	assert.Equal(t, 1000.0, config.Ledger.StartingBalance)
}

// TestLoadConfig_EnvironmentVariables tests environment variable overrides
func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	// Set environment variables
	os.Setenv("ARB_LEDGER_SERVER_PORT", "7777")
	os.Setenv("ARB_LEDGER_REDIS_ADDR", "env-redis:6379")
	os.Setenv("ARB_LEDGER_KAFKA_TOPIC", "env_topic")
	defer func() {
		os.Unsetenv("ARB_LEDGER_SERVER_PORT")
		os.Unsetenv("ARB_LEDGER_REDIS_ADDR")
		os.Unsetenv("ARB_LEDGER_KAFKA_TOPIC")
	}()

	// Load config (env vars should override defaults)
	config, err := LoadConfig("")

	require.NoError(t, err)
	require.NotNil(t, config)

	// Verify environment variables were used
	assert.Equal(t, 7777, config.Server.Port)
	assert.Equal(t, "env-redis:6379", config.Redis.Addr)
	assert.Equal(t, "env_topic", config.Kafka.Topic)
}
