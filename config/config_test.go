package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", LocalEnv)
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	setSecrets(t)
	Reset()
	t.Cleanup(Reset)

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	path := writeConfig(t, `
app:
  token_issuer: auction-market
cache:
  provider: memory
upload:
  provider: local
  local_dir: `+uploadDir+`
email:
  default_from: no-reply@example.com
pagination:
  window_policy: sliding
  window_width: 7
  page_sizes: [24, 12]
  default_page_size: 24
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "auction-market", cfg.App().Name())
	assert.Equal(t, 15*time.Minute, cfg.App().AccessTokenExpiresIn())
	assert.Equal(t, 24*time.Hour, cfg.App().EmailVerifyTokenTTL())
	assert.Equal(t, 8080, cfg.Server().Port())
	assert.Equal(t, 100, cfg.Server().RateLimitPerMinute())
	assert.Equal(t, "memory", cfg.Cache().Provider())
	assert.Equal(t, int64(10<<20), cfg.Upload().MaxFileSizeBytes())
	assert.Equal(t, "mock", cfg.Email().Provider())
	assert.Equal(t, 5*time.Second, cfg.Auction().BidLockTTL())

	settings := PaginationSettings(cfg)
	assert.Equal(t, "sliding", settings.Policy)
	assert.Equal(t, 7, settings.Width)
	assert.Equal(t, []int{24, 12}, settings.PageSizes)
	assert.Equal(t, 24, settings.DefaultPageSize)

	assert.Same(t, cfg, MustGet())
}

func TestLoad_RejectsUnknownWindowPolicy(t *testing.T) {
	setSecrets(t)
	Reset()
	t.Cleanup(Reset)

	path := writeConfig(t, `
app:
  token_issuer: auction-market
cache:
  provider: memory
upload:
  local_dir: `+t.TempDir()+`
email:
  default_from: no-reply@example.com
pagination:
  window_policy: spiral
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagination")
}

func TestLoad_RejectsInvalidLoggerLevel(t *testing.T) {
	setSecrets(t)
	Reset()
	t.Cleanup(Reset)

	path := writeConfig(t, `
app:
  token_issuer: auction-market
cache:
  provider: memory
upload:
  local_dir: `+t.TempDir()+`
email:
  default_from: no-reply@example.com
logger:
  level: loud
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger config")
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		cfg     emailConfig
		wantErr bool
	}{
		{"mock", emailConfig{ProviderStr: "mock", DefaultFromStr: "a@b.c"}, false},
		{"missing sender", emailConfig{ProviderStr: "mock"}, true},
		{"smtp without host", emailConfig{ProviderStr: "smtp", DefaultFromStr: "a@b.c", SMTPPortInt: 587}, true},
		{"smtp", emailConfig{ProviderStr: "smtp", DefaultFromStr: "a@b.c", SMTPHostStr: "mail", SMTPPortInt: 587}, false},
		{"sendgrid without key", emailConfig{ProviderStr: "sendgrid", DefaultFromStr: "a@b.c"}, true},
		{"unknown", emailConfig{ProviderStr: "pigeon", DefaultFromStr: "a@b.c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmail(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAuction(t *testing.T) {
	valid := auctionConfig{CloseIntervalStr: "30s", BidLockTTLStr: "5s", DefaultMinIncrementStr: "0.50", ListCacheTTLStr: "0s"}
	assert.NoError(t, validateAuction(&valid))

	zeroIncrement := valid
	zeroIncrement.DefaultMinIncrementStr = "0"
	assert.Error(t, validateAuction(&zeroIncrement))

	badInterval := valid
	badInterval.CloseIntervalStr = "soon"
	assert.Error(t, validateAuction(&badInterval))
}

func TestLogConfig(t *testing.T) {
	cfg := &config{
		AppCfg:    appConfig{NameStr: "auction-market", VersionStr: "1.2.3", EnvironmentStr: ProductionEnv},
		LoggerCfg: loggerConfig{LevelStr: "warn", OutputPathStr: "stdout", MaxFileSizeMBInt: 5},
	}

	logCfg := LogConfig(cfg)
	assert.Equal(t, "warn", logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
	assert.Equal(t, "auction-market", logCfg.ServiceName)
	assert.Equal(t, "1.2.3", logCfg.Version)
	assert.Equal(t, 5, logCfg.FileMaxSizeInMB)
	assert.NoError(t, logCfg.Validate())
}

func TestValidateApp_ProductionSecrets(t *testing.T) {
	cfg := appConfig{
		EnvironmentStr:           ProductionEnv,
		TokenIssuerStr:           "auction-market",
		AccessTokenExpiresInDur:  15 * time.Minute,
		RefreshTokenExpiresInDur: 720 * time.Hour,
		AccessTokenSecretStr:     "short",
		RefreshTokenSecretStr:    "short-too",
		EmailVerifyTokenTTLStr:   "24h",
	}
	assert.ErrorContains(t, validateApp(&cfg), "at least 32 characters")

	cfg.AccessTokenSecretStr = strings.Repeat("a", 32)
	cfg.RefreshTokenSecretStr = strings.Repeat("a", 32)
	assert.ErrorContains(t, validateApp(&cfg), "must differ")

	cfg.RefreshTokenSecretStr = strings.Repeat("b", 40)
	assert.NoError(t, validateApp(&cfg))

	cfg.EnvironmentStr = LocalEnv
	cfg.AccessTokenSecretStr, cfg.RefreshTokenSecretStr = "x", "x"
	assert.NoError(t, validateApp(&cfg))
}
