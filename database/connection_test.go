package database

import (
	"testing"
	"time"

	"auction-market/pkg/log"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

type stubConfig struct {
	password string
	logLevel string
	enable   bool
	slow     time.Duration
}

func (c stubConfig) Host() string                      { return "db.internal" }
func (c stubConfig) Port() string                      { return "5432" }
func (c stubConfig) User() string                      { return "auction" }
func (c stubConfig) Password() string                  { return c.password }
func (c stubConfig) Name() string                      { return "auction" }
func (c stubConfig) SSLMode() string                   { return "disable" }
func (c stubConfig) MaxOpenConns() int                 { return 10 }
func (c stubConfig) MaxIdleConns() int                 { return 5 }
func (c stubConfig) ConnMaxLifetime() time.Duration    { return time.Minute }
func (c stubConfig) SlowQueryThreshold() time.Duration { return c.slow }
func (c stubConfig) EnableLog() bool                   { return c.enable }
func (c stubConfig) LogLevel() string                  { return c.logLevel }

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(stubConfig{password: "s3cret"})
	assert.Contains(t, dsn, "host=db.internal port=5432 user=auction password=s3cret dbname=auction sslmode=disable")

	dsn = buildDSN(stubConfig{password: `it's a \pass`})
	assert.Contains(t, dsn, `password='it\'s a \\pass'`)

	dsn = buildDSN(stubConfig{})
	assert.Contains(t, dsn, "password='' ")
}

func TestGormLogger_Level(t *testing.T) {
	l := log.NewNopLogger()

	tests := []struct {
		name string
		cfg  stubConfig
		want logger.LogLevel
	}{
		{"disabled", stubConfig{enable: false, logLevel: "info"}, logger.Silent},
		{"info", stubConfig{enable: true, logLevel: "info"}, logger.Info},
		{"unknown falls back to warn", stubConfig{enable: true, logLevel: "trace"}, logger.Warn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl := gormLogger(l, tt.cfg)
			assert.Equal(t, logger.New(l, logger.Config{
				SlowThreshold:             defaultSlowQuery,
				LogLevel:                  tt.want,
				IgnoreRecordNotFoundError: true,
				ParameterizedQueries:      true,
			}), gl)
		})
	}
}
