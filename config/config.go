package config

import (
	"fmt"
	"time"
)

const (
	LocalEnv       = "local"
	DevelopmentEnv = "dev"
	ProductionEnv  = "prod"
)

type Config interface {
	App() AppConfig
	Server() ServerConfig
	Database() DatabaseConfig
	Redis() RedisConfig
	Cache() CacheConfig
	Logger() LoggerConfig
	Upload() UploadConfig
	Email() EmailConfig
	Pagination() PaginationConfig
	Auction() AuctionConfig
}

type AppConfig interface {
	Name() string
	Version() string
	Environment() string
	IsProduction() bool
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	RefreshTokenExpiresIn() time.Duration
	RefreshTokenSecret() string
	TokenIssuer() string
	EmailVerifyTokenTTL() time.Duration
	SupportEmail() string
	SystemAdminDefaultEmail() string
	SystemAdminDefaultPassword() string
}

type ServerConfig interface {
	Host() string
	Domain() string
	Port() int
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	IdleTimeout() time.Duration
	ShutdownTimeout() time.Duration
	MaxHeaderBytes() int
	AllowedOrigins() []string
	RateLimitPerMinute() int
}

type DatabaseConfig interface {
	Host() string
	Port() string
	User() string
	Password() string
	Name() string
	SSLMode() string
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
	SlowQueryThreshold() time.Duration
	LogLevel() string
	EnableLog() bool
}

type RedisConfig interface {
	Host() string
	Port() int
	Address() string
	Password() string
	DB() int
	Prefix() string
}

type CacheConfig interface {
	Provider() string
	DefaultTTL() time.Duration
}

type LoggerConfig interface {
	Level() string
	Format() string
	OutputPath() string
	MaxFileSizeMB() int
	MaxFileAgeDays() int
	MaxBackupFiles() int
	IsCompressEnabled() bool
}

type UploadConfig interface {
	Provider() string
	LocalDir() string
	S3EndpointURL() string
	S3BucketName() string
	S3PathPrefix() string
	S3Region() string
	S3PresignURLTTL() time.Duration
	S3AccessKey() string
	S3SecretKey() string
	MaxFileSizeBytes() int64
	MaxFilesPerRequest() int
}

type EmailConfig interface {
	Provider() string
	DefaultFrom() string
	DefaultFromName() string
	MaxRetries() int
	RetryDelay() time.Duration
	SMTPHost() string
	SMTPPort() int
	SMTPUsername() string
	SMTPPassword() string
	SESRegion() string
	SESAccessKey() string
	SESSecretKey() string
	SendGridAPIKey() string
}

// PaginationConfig drives the page window shown on every listing endpoint.
type PaginationConfig interface {
	WindowPolicy() string
	WindowWidth() int
	PageSizes() []int
	DefaultPageSize() int
}

type AuctionConfig interface {
	CloseInterval() time.Duration
	BidLockTTL() time.Duration
	DefaultMinIncrement() string
	ListCacheTTL() time.Duration
}

// config holds the actual configuration implementation
type config struct {
	AppCfg        appConfig        `yaml:"app"`
	ServerCfg     serverConfig     `yaml:"server"`
	DatabaseCfg   databaseConfig   `yaml:"database"`
	RedisCfg      redisConfig      `yaml:"redis"`
	CacheCfg      cacheConfig      `yaml:"cache"`
	LoggerCfg     loggerConfig     `yaml:"logger"`
	UploadCfg     uploadConfig     `yaml:"upload"`
	EmailCfg      emailConfig      `yaml:"email"`
	PaginationCfg paginationConfig `yaml:"pagination"`
	AuctionCfg    auctionConfig    `yaml:"auction"`
}

func (c *config) App() AppConfig {
	return &c.AppCfg
}

func (c *config) Server() ServerConfig {
	return &c.ServerCfg
}

func (c *config) Database() DatabaseConfig {
	return &c.DatabaseCfg
}

func (c *config) Redis() RedisConfig {
	return &c.RedisCfg
}

func (c *config) Cache() CacheConfig {
	return &c.CacheCfg
}

func (c *config) Logger() LoggerConfig {
	return &c.LoggerCfg
}

func (c *config) Upload() UploadConfig {
	return &c.UploadCfg
}

func (c *config) Email() EmailConfig {
	return &c.EmailCfg
}

func (c *config) Pagination() PaginationConfig {
	return &c.PaginationCfg
}

func (c *config) Auction() AuctionConfig {
	return &c.AuctionCfg
}

type appConfig struct {
	NameStr        string `yaml:"name" env-default:"auction-market"`
	VersionStr     string `yaml:"version" env-default:"0.1.0"`
	EnvironmentStr string `env:"ENV" env-default:"local"`

	TokenIssuerStr string `yaml:"token_issuer"`

	AccessTokenExpiresInDur time.Duration `yaml:"access_token_expires_in" env-default:"15m"`
	AccessTokenSecretStr    string        `env:"ACCESS_TOKEN_SECRET"`

	RefreshTokenExpiresInDur time.Duration `yaml:"refresh_token_expires_in" env-default:"720h"`
	RefreshTokenSecretStr    string        `env:"REFRESH_TOKEN_SECRET"`

	EmailVerifyTokenTTLStr string `yaml:"email_verify_token_ttl" env-default:"24h"`
	SupportEmailStr        string `yaml:"support_email" env:"SUPPORT_EMAIL"`

	SysAdminDefaultEmailStr    string `env:"SYSTEM_ADMIN_DEFAULT_EMAIL" env-default:""`
	SysAdminDefaultPasswordStr string `env:"SYSTEM_ADMIN_DEFAULT_PASSWORD" env-default:""`
}

func (c *appConfig) Name() string {
	return c.NameStr
}

func (c *appConfig) Version() string {
	return c.VersionStr
}

func (c *appConfig) Environment() string {
	return c.EnvironmentStr
}

func (c *appConfig) IsProduction() bool {
	return c.EnvironmentStr == ProductionEnv
}

func (c *appConfig) AccessTokenExpiresIn() time.Duration {
	return c.AccessTokenExpiresInDur
}

func (c *appConfig) AccessTokenSecret() string {
	return c.AccessTokenSecretStr
}

func (c *appConfig) RefreshTokenExpiresIn() time.Duration {
	return c.RefreshTokenExpiresInDur
}

func (c *appConfig) RefreshTokenSecret() string {
	return c.RefreshTokenSecretStr
}

func (c *appConfig) TokenIssuer() string {
	return c.TokenIssuerStr
}

func (c *appConfig) EmailVerifyTokenTTL() time.Duration {
	duration, _ := time.ParseDuration(c.EmailVerifyTokenTTLStr)
	return duration
}

func (c *appConfig) SupportEmail() string {
	return c.SupportEmailStr
}

func (c *appConfig) SystemAdminDefaultEmail() string {
	return c.SysAdminDefaultEmailStr
}

func (c *appConfig) SystemAdminDefaultPassword() string {
	return c.SysAdminDefaultPasswordStr
}

type serverConfig struct {
	HostStr            string   `yaml:"host" env-default:"0.0.0.0"`
	DomainStr          string   `yaml:"domain"`
	PortInt            int      `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeoutStr     string   `yaml:"read_timeout" env-default:"15s"`
	WriteTimeoutStr    string   `yaml:"write_timeout" env-default:"15s"`
	IdleTimeoutStr     string   `yaml:"idle_timeout" env-default:"120s"`
	ShutdownTimeoutStr string   `yaml:"shutdown_timeout" env-default:"10s"`
	MaxHeaderBytesInt  int      `yaml:"max_header_bytes" env-default:"1048576"` // 1MB
	AllowedOriginsArr  []string `yaml:"allowed_origins"`
	RateLimitInt       int      `yaml:"rate_limit_per_minute" env-default:"100"`
}

func (s *serverConfig) Host() string {
	return s.HostStr
}

func (s *serverConfig) Domain() string {
	return s.DomainStr
}

func (s *serverConfig) Port() int {
	return s.PortInt
}

func (s *serverConfig) ReadTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.ReadTimeoutStr)
	return duration
}

func (s *serverConfig) WriteTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.WriteTimeoutStr)
	return duration
}

func (s *serverConfig) IdleTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.IdleTimeoutStr)
	return duration
}

func (s *serverConfig) ShutdownTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.ShutdownTimeoutStr)
	return duration
}

func (s *serverConfig) AllowedOrigins() []string {
	return s.AllowedOriginsArr
}

func (s *serverConfig) MaxHeaderBytes() int {
	return s.MaxHeaderBytesInt
}

func (s *serverConfig) RateLimitPerMinute() int {
	return s.RateLimitInt
}

type databaseConfig struct {
	HostStr            string `env:"POSTGRES_HOST" env-default:"localhost"`
	PortStr            string `env:"POSTGRES_PORT" env-default:"5432"`
	UserStr            string `env:"POSTGRES_USER" env-default:"postgres"`
	PasswordStr        string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	NameStr            string `env:"POSTGRES_DBNAME" env-default:"postgres"`
	SSLModeStr         string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxOpenConnsInt    int    `yaml:"max_open_conns" env-default:"25"`
	MaxIdleConnsInt    int    `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetimeStr string `yaml:"conn_max_lifetime" env-default:"5m"`
	SlowQueryStr       string `yaml:"slow_query_threshold" env-default:"500ms"`
	EnableLoggingBool  bool   `yaml:"enable_logging" env-default:"false"`
	LogLevelStr        string `yaml:"log_level" env-default:"warn"`
}

func (d *databaseConfig) Host() string {
	return d.HostStr
}

func (d *databaseConfig) Port() string {
	return d.PortStr
}

func (d *databaseConfig) User() string {
	return d.UserStr
}

func (d *databaseConfig) Password() string {
	return d.PasswordStr
}

func (d *databaseConfig) Name() string {
	return d.NameStr
}

func (d *databaseConfig) SSLMode() string {
	return d.SSLModeStr
}

func (d *databaseConfig) MaxOpenConns() int {
	return d.MaxOpenConnsInt
}

func (d *databaseConfig) MaxIdleConns() int {
	return d.MaxIdleConnsInt
}

func (d *databaseConfig) ConnMaxLifetime() time.Duration {
	duration, _ := time.ParseDuration(d.ConnMaxLifetimeStr)
	return duration
}

func (d *databaseConfig) SlowQueryThreshold() time.Duration {
	duration, _ := time.ParseDuration(d.SlowQueryStr)
	return duration
}

func (d *databaseConfig) EnableLog() bool {
	return d.EnableLoggingBool
}

func (d *databaseConfig) LogLevel() string {
	return d.LogLevelStr
}

type cacheConfig struct {
	ProviderStr   string `yaml:"provider" env:"CACHE_PROVIDER" env-default:"redis"`
	DefaultTTLStr string `yaml:"default_ttl" env-default:"10m"`
}

func (c *cacheConfig) Provider() string {
	return c.ProviderStr
}

func (c *cacheConfig) DefaultTTL() time.Duration {
	duration, _ := time.ParseDuration(c.DefaultTTLStr)
	return duration
}

type uploadConfig struct {
	ProviderStr        string `yaml:"provider" env-default:"local"`
	LocalDirStr        string `yaml:"local_dir"`
	S3EndpointURLStr   string `yaml:"s3_endpoint_url"`
	S3BucketNameStr    string `yaml:"s3_bucket_name"`
	S3PathPrefixStr    string `yaml:"s3_path_prefix"`
	S3RegionStr        string `yaml:"s3_region"`
	S3PresignURLTTLStr string `yaml:"s3_presign_url_ttl"`
	S3AccessKeyStr     string `env:"UPLOAD_S3_ACCESS_KEY" env-default:""`
	S3SecretKeyStr     string `env:"UPLOAD_S3_SECRET_KEY" env-default:""`
	MaxFileSizeMBInt   int    `yaml:"max_file_size_mb" env-default:"10"`
	MaxFilesInt        int    `yaml:"max_files_per_request" env-default:"10"`
}

func (c *uploadConfig) Provider() string {
	return c.ProviderStr
}

func (c *uploadConfig) LocalDir() string {
	return c.LocalDirStr
}

func (c *uploadConfig) S3EndpointURL() string {
	return c.S3EndpointURLStr
}

func (c *uploadConfig) S3BucketName() string {
	return c.S3BucketNameStr
}

func (c *uploadConfig) S3PathPrefix() string {
	return c.S3PathPrefixStr
}

func (c *uploadConfig) S3Region() string {
	return c.S3RegionStr
}

func (c *uploadConfig) S3PresignURLTTL() time.Duration {
	duration, _ := time.ParseDuration(c.S3PresignURLTTLStr)
	return duration
}

func (c *uploadConfig) S3AccessKey() string {
	return c.S3AccessKeyStr
}

func (c *uploadConfig) S3SecretKey() string {
	return c.S3SecretKeyStr
}

func (c *uploadConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMBInt) << 20
}

func (c *uploadConfig) MaxFilesPerRequest() int {
	return c.MaxFilesInt
}

type redisConfig struct {
	HostStr     string `env:"REDIS_HOST" env-default:"localhost"`
	PortInt     int    `env:"REDIS_PORT" env-default:"6379"`
	PasswordStr string `env:"REDIS_PASSWORD"`
	DBInt       int    `env:"REDIS_DB" env-default:"0"`
	PrefixStr   string `yaml:"prefix"`
}

func (r *redisConfig) Host() string {
	return r.HostStr
}

func (r *redisConfig) Port() int {
	return r.PortInt
}

func (r *redisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host(), r.Port())
}

func (r *redisConfig) Password() string {
	return r.PasswordStr
}

func (r *redisConfig) DB() int {
	return r.DBInt
}

func (r *redisConfig) Prefix() string {
	return r.PrefixStr
}

type loggerConfig struct {
	LevelStr          string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatStr         string `yaml:"format" env-default:"json"`
	OutputPathStr     string `yaml:"output_path" env:"LOG_OUTPUT_PATH" env-default:"stdout"`
	MaxFileSizeMBInt  int    `yaml:"max_file_size_mb" env-default:"100"`
	MaxFileAgeDaysInt int    `yaml:"max_file_age_days" env-default:"30"`
	MaxBackupFilesInt int    `yaml:"max_backup_files" env-default:"10"`
	EnableCompressed  bool   `yaml:"enable_compressed" env-default:"true"`
}

func (l *loggerConfig) Level() string {
	return l.LevelStr
}

func (l *loggerConfig) Format() string {
	return l.FormatStr
}

func (l *loggerConfig) OutputPath() string {
	return l.OutputPathStr
}

func (l *loggerConfig) MaxFileSizeMB() int {
	return l.MaxFileSizeMBInt
}

func (l *loggerConfig) MaxFileAgeDays() int {
	return l.MaxFileAgeDaysInt
}

func (l *loggerConfig) MaxBackupFiles() int {
	return l.MaxBackupFilesInt
}

func (l *loggerConfig) IsCompressEnabled() bool {
	return l.EnableCompressed
}

type emailConfig struct {
	ProviderStr        string `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"mock"`
	DefaultFromStr     string `yaml:"default_from" env:"EMAIL_DEFAULT_FROM"`
	DefaultFromNameStr string `yaml:"default_from_name"`
	MaxRetriesInt      int    `yaml:"max_retries" env-default:"3"`
	RetryDelayStr      string `yaml:"retry_delay" env-default:"2s"`
	SMTPHostStr        string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPortInt        int    `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUsernameStr    string `env:"SMTP_USERNAME"`
	SMTPPasswordStr    string `env:"SMTP_PASSWORD"`
	SESRegionStr       string `yaml:"ses_region" env:"SES_REGION"`
	SESAccessKeyStr    string `env:"SES_ACCESS_KEY"`
	SESSecretKeyStr    string `env:"SES_SECRET_KEY"`
	SendGridAPIKeyStr  string `env:"SENDGRID_API_KEY"`
}

func (e *emailConfig) Provider() string {
	return e.ProviderStr
}

func (e *emailConfig) DefaultFrom() string {
	return e.DefaultFromStr
}

func (e *emailConfig) DefaultFromName() string {
	return e.DefaultFromNameStr
}

func (e *emailConfig) MaxRetries() int {
	return e.MaxRetriesInt
}

func (e *emailConfig) RetryDelay() time.Duration {
	duration, _ := time.ParseDuration(e.RetryDelayStr)
	return duration
}

func (e *emailConfig) SMTPHost() string {
	return e.SMTPHostStr
}

func (e *emailConfig) SMTPPort() int {
	return e.SMTPPortInt
}

func (e *emailConfig) SMTPUsername() string {
	return e.SMTPUsernameStr
}

func (e *emailConfig) SMTPPassword() string {
	return e.SMTPPasswordStr
}

func (e *emailConfig) SESRegion() string {
	return e.SESRegionStr
}

func (e *emailConfig) SESAccessKey() string {
	return e.SESAccessKeyStr
}

func (e *emailConfig) SESSecretKey() string {
	return e.SESSecretKeyStr
}

func (e *emailConfig) SendGridAPIKey() string {
	return e.SendGridAPIKeyStr
}

type paginationConfig struct {
	WindowPolicyStr    string `yaml:"window_policy" env:"PAGINATION_WINDOW_POLICY" env-default:"anchored"`
	WindowWidthInt     int    `yaml:"window_width" env-default:"5"`
	PageSizesArr       []int  `yaml:"page_sizes" env:"PAGINATION_PAGE_SIZES" env-separator:"," env-default:"12,24,48"`
	DefaultPageSizeInt int    `yaml:"default_page_size" env-default:"12"`
}

func (p *paginationConfig) WindowPolicy() string {
	return p.WindowPolicyStr
}

func (p *paginationConfig) WindowWidth() int {
	return p.WindowWidthInt
}

func (p *paginationConfig) PageSizes() []int {
	return p.PageSizesArr
}

func (p *paginationConfig) DefaultPageSize() int {
	return p.DefaultPageSizeInt
}

type auctionConfig struct {
	CloseIntervalStr       string `yaml:"close_interval" env-default:"30s"`
	BidLockTTLStr          string `yaml:"bid_lock_ttl" env-default:"5s"`
	DefaultMinIncrementStr string `yaml:"default_min_increment" env-default:"1.00"`
	ListCacheTTLStr        string `yaml:"list_cache_ttl" env-default:"30s"`
}

func (a *auctionConfig) CloseInterval() time.Duration {
	duration, _ := time.ParseDuration(a.CloseIntervalStr)
	return duration
}

func (a *auctionConfig) BidLockTTL() time.Duration {
	duration, _ := time.ParseDuration(a.BidLockTTLStr)
	return duration
}

func (a *auctionConfig) DefaultMinIncrement() string {
	return a.DefaultMinIncrementStr
}

func (a *auctionConfig) ListCacheTTL() time.Duration {
	duration, _ := time.ParseDuration(a.ListCacheTTLStr)
	return duration
}
