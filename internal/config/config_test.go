package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_OnEmptyConfig_ShouldApplyDefaults(t *testing.T) {
	s, err := Parse([]byte("telegram:\n  token: abc\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.9, s.App().WarningThreshold())
	assert.Equal(t, StorageFile, s.App().Storage())
	assert.Equal(t, "data", s.App().DataDir())
	assert.Equal(t, time.Hour, s.App().SweepInterval())
	assert.Equal(t, "", s.App().MetricsAddr())
	assert.Equal(t, time.Monday, s.App().WeekStartDay())
	assert.False(t, s.App().AutoRollover())
	assert.Equal(t, "abc", s.Telegram().Token())
	assert.False(t, s.Kafka().Enabled())
	assert.False(t, s.Memcached().Enabled())
	assert.Equal(t, "expense-tracker", s.Tracing().ServiceName())
}

func Test_OnFullConfig_ShouldExposeEverySection(t *testing.T) {
	raw := `
app:
  warning-threshold: 0.8
  storage: postgres
  week-start: Sunday
  auto-rollover: true
postgres:
  host: db
  db: expenses
  username: u
  password: p
kafka:
  brokers: ["k1:9092", "k2:9092"]
  consumer-group: forecaster
  rollover-topic: weeks
memcached:
  hosts: ["mc:11211"]
tracing:
  enabled: true
  service-name: bot
`
	s, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, 0.8, s.App().WarningThreshold())
	assert.Equal(t, StoragePostgres, s.App().Storage())
	assert.Equal(t, time.Sunday, s.App().WeekStartDay())
	assert.True(t, s.App().AutoRollover())
	assert.Equal(t, "expenses", s.Postgres().Database())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, s.Kafka().Brokers())
	assert.Equal(t, "weeks", s.Kafka().RolloverTopic())
	assert.True(t, s.Kafka().Enabled())
	assert.Equal(t, []string{"mc:11211"}, s.Memcached().Hosts())
	assert.True(t, s.Tracing().Enabled())
	assert.Equal(t, "bot", s.Tracing().ServiceName())
}

func Test_OnInvalidValues_ShouldFail(t *testing.T) {
	for _, raw := range []string{
		"app:\n  warning-threshold: 1.5\n",
		"app:\n  warning-threshold: -0.1\n",
		"app:\n  storage: redis\n",
		"app:\n  week-start: friday\n",
		"app:\n  storage: postgres\n",
		"app: [",
	} {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func Test_OnNewFromFile_ShouldReadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  storage: memory\n"), 0o600))

	s, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, s.App().Storage())

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
