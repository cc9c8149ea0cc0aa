package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"

	"auction-market/pkg/pagination"

	"github.com/shopspring/decimal"
)

// Validate checks every section and reports all failing ones at once.
func Validate(cfg Config) error {
	sections := []struct {
		name  string
		check func() error
	}{
		{"app", func() error { return validateApp(cfg.App()) }},
		{"server", func() error { return validateServer(cfg.Server()) }},
		{"database", func() error { return validateDatabase(cfg.Database()) }},
		{"redis", func() error {
			if cfg.Cache().Provider() != "redis" {
				return nil
			}
			return validateRedis(cfg.Redis())
		}},
		{"cache", func() error { return validateCache(cfg.Cache()) }},
		{"logger", func() error {
			lc := LogConfig(cfg)
			return lc.Validate()
		}},
		{"upload", func() error { return validateUpload(cfg.Upload()) }},
		{"email", func() error { return validateEmail(cfg.Email()) }},
		{"pagination", func() error {
			_, err := pagination.NewPaginator(PaginationSettings(cfg))
			return err
		}},
		{"auction", func() error { return validateAuction(cfg.Auction()) }},
	}

	var errs []error
	for _, s := range sections {
		if err := s.check(); err != nil {
			errs = append(errs, fmt.Errorf("%s config: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

const minProductionSecretLen = 32

func validateApp(cfg AppConfig) error {
	switch cfg.Environment() {
	case LocalEnv, DevelopmentEnv, ProductionEnv:
	case "":
		return fmt.Errorf("environment variable is required, please set ENV env variable")
	default:
		return fmt.Errorf("ENV=%s is invalid, only accept `%s`, `%s`, `%s`", cfg.Environment(), LocalEnv, DevelopmentEnv, ProductionEnv)
	}

	if cfg.TokenIssuer() == "" {
		return fmt.Errorf("token_issuer is required")
	}

	if cfg.AccessTokenExpiresIn() <= 0 {
		return fmt.Errorf("access_token_expires_in must be positive")
	}

	if cfg.AccessTokenExpiresIn() >= cfg.RefreshTokenExpiresIn() {
		return fmt.Errorf("access_token_expires_in must be less than refresh_token_expires_in")
	}

	if cfg.AccessTokenSecret() == "" {
		return fmt.Errorf("access token secret is required, please set ACCESS_TOKEN_SECRET env variable")
	}

	if cfg.RefreshTokenSecret() == "" {
		return fmt.Errorf("refresh token secret is required, please set REFRESH_TOKEN_SECRET env variable")
	}

	if cfg.Environment() == ProductionEnv {
		if len(cfg.AccessTokenSecret()) < minProductionSecretLen || len(cfg.RefreshTokenSecret()) < minProductionSecretLen {
			return fmt.Errorf("token secrets must be at least %d characters in production", minProductionSecretLen)
		}
		if cfg.AccessTokenSecret() == cfg.RefreshTokenSecret() {
			return fmt.Errorf("access and refresh token secrets must differ")
		}
	}

	if cfg.EmailVerifyTokenTTL() <= 0 {
		return fmt.Errorf("email_verify_token_ttl must be positive")
	}

	// Seeding the admin account needs both or neither
	if (cfg.SystemAdminDefaultEmail() == "") != (cfg.SystemAdminDefaultPassword() == "") {
		return fmt.Errorf("SYSTEM_ADMIN_DEFAULT_EMAIL and SYSTEM_ADMIN_DEFAULT_PASSWORD must be set together")
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("host is required")
	}

	if cfg.Host() != "0.0.0.0" && cfg.Host() != "localhost" {
		if net.ParseIP(cfg.Host()) == nil {
			return fmt.Errorf("host must be a valid IP address or 'localhost'")
		}
	}

	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if cfg.ReadTimeout() <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if cfg.WriteTimeout() <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if cfg.ShutdownTimeout() <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	if cfg.RateLimitPerMinute() <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive")
	}

	if cfg.Domain() != "" && !strings.HasPrefix(cfg.Domain(), "http") {
		return fmt.Errorf("domain must start with http:// or https://")
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("database host is required")
	}

	if port, err := strconv.Atoi(cfg.Port()); err != nil {
		return fmt.Errorf("database port must be numeric: %w", err)
	} else if port <= 0 || port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}

	if cfg.User() == "" {
		return fmt.Errorf("database user is required")
	}

	if cfg.Name() == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.MaxOpenConns() <= 0 {
		return fmt.Errorf("max_open_conns must be positive")
	}

	if cfg.MaxIdleConns() <= 0 {
		return fmt.Errorf("max_idle_conns must be positive")
	}

	if cfg.MaxIdleConns() > cfg.MaxOpenConns() {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}

	if cfg.ConnMaxLifetime() <= 0 {
		return fmt.Errorf("conn_max_lifetime must be positive")
	}

	if cfg.SlowQueryThreshold() < 0 {
		return fmt.Errorf("slow_query_threshold cannot be negative")
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, cfg.SSLMode()) {
		return fmt.Errorf("ssl_mode must be one of: %s", strings.Join(validSSLModes, ", "))
	}

	if cfg.EnableLog() {
		validLogLevels := []string{"silent", "error", "warn", "info"}
		if !slices.Contains(validLogLevels, cfg.LogLevel()) {
			return fmt.Errorf("database log_level must be one of: %s", strings.Join(validLogLevels, ", "))
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("redis host is required")
	}

	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("redis port must be between 1 and 65535")
	}

	if cfg.DB() < 0 || cfg.DB() > 15 {
		return fmt.Errorf("redis db must be between 0 and 15")
	}

	return nil
}

func validateCache(cfg CacheConfig) error {
	validProviders := []string{"redis", "memory"}
	if !slices.Contains(validProviders, cfg.Provider()) {
		return fmt.Errorf("cache provider must be one of: %s", strings.Join(validProviders, ", "))
	}

	if cfg.DefaultTTL() <= 0 {
		return fmt.Errorf("default_ttl must be positive")
	}

	return nil
}

func validateUpload(cfg UploadConfig) error {
	switch cfg.Provider() {
	case "local":
		if cfg.LocalDir() == "" {
			return fmt.Errorf("local_dir is required when provider is 'local'")
		}
		if err := os.MkdirAll(cfg.LocalDir(), 0755); err != nil {
			return fmt.Errorf("cannot create local upload directory: %w", err)
		}
	case "s3":
		if cfg.S3BucketName() == "" {
			return fmt.Errorf("s3_bucket_name is required when provider is 's3'")
		}
		if cfg.S3Region() == "" {
			return fmt.Errorf("s3_region is required when provider is 's3'")
		}
		if cfg.S3AccessKey() == "" || cfg.S3SecretKey() == "" {
			return fmt.Errorf("s3 credentials are required when provider is 's3'")
		}
		if cfg.S3PresignURLTTL() <= 0 {
			return fmt.Errorf("s3 presign_url_ttl must be positive")
		}
		if cfg.S3EndpointURL() != "" && !strings.HasPrefix(cfg.S3EndpointURL(), "http") {
			return fmt.Errorf("s3 endpoint_url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("upload provider must be 's3' or 'local'")
	}

	if cfg.MaxFileSizeBytes() <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive")
	}
	if cfg.MaxFilesPerRequest() <= 0 {
		return fmt.Errorf("max_files_per_request must be positive")
	}

	return nil
}

func validateEmail(cfg EmailConfig) error {
	if cfg.DefaultFrom() == "" {
		return fmt.Errorf("default_from is required")
	}
	if cfg.MaxRetries() < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	switch cfg.Provider() {
	case "mock":
	case "smtp":
		if cfg.SMTPHost() == "" {
			return fmt.Errorf("smtp_host is required when provider is 'smtp'")
		}
		if cfg.SMTPPort() <= 0 || cfg.SMTPPort() > 65535 {
			return fmt.Errorf("smtp_port must be between 1 and 65535")
		}
	case "ses":
		if cfg.SESRegion() == "" {
			return fmt.Errorf("ses_region is required when provider is 'ses'")
		}
	case "sendgrid":
		if cfg.SendGridAPIKey() == "" {
			return fmt.Errorf("sendgrid api key is required, please set SENDGRID_API_KEY env variable")
		}
	default:
		return fmt.Errorf("email provider must be one of: smtp, ses, sendgrid, mock")
	}

	return nil
}

func validateAuction(cfg AuctionConfig) error {
	if cfg.CloseInterval() <= 0 {
		return fmt.Errorf("close_interval must be positive")
	}
	if cfg.BidLockTTL() <= 0 {
		return fmt.Errorf("bid_lock_ttl must be positive")
	}
	if cfg.ListCacheTTL() < 0 {
		return fmt.Errorf("list_cache_ttl cannot be negative")
	}

	increment, err := decimal.NewFromString(cfg.DefaultMinIncrement())
	if err != nil {
		return fmt.Errorf("default_min_increment is not a decimal: %w", err)
	}
	if !increment.IsPositive() {
		return fmt.Errorf("default_min_increment must be positive")
	}

	return nil
}
