package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: "9090"
  mode: debug
database:
  driver: postgres
jwt:
  secret: short
  expire_hours: 2
storage:
  type: s3
  s3_bucket: reports
events:
  publisher: kafka
  kafka_brokers: ["k1:9092", "k2:9092"]
report:
  archive: true
`

func writeConfig(t *testing.T, body string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL())
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.True(t, cfg.Report.Archive)
	// 默认值
	assert.Equal(t, 7.0, cfg.Report.LineHeight)
	assert.Equal(t, 20, cfg.Upload.MaxRecordSizeMB)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.internal")
	cfg, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "release"},
			Database: DatabaseConfig{Driver: "mysql"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Report:   ReportConfig{LineHeight: 7, TopMargin: 20, BottomLimit: 277},
		}
	}
	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.JWT.Secret = "short"
	assert.ErrorContains(t, cfg.Validate(), "too short")

	cfg = base()
	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Report.BottomLimit = 10
	assert.ErrorContains(t, cfg.Validate(), "invalid report layout")
}
