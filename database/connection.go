package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-market/pkg/log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	defaultSlowQuery = 500 * time.Millisecond
	connectTimeout   = 5 * time.Second
)

type Config interface {
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
	EnableLog() bool
	LogLevel() string
}

var gormLogLevels = map[string]logger.LogLevel{
	"silent": logger.Silent,
	"error":  logger.Error,
	"warn":   logger.Warn,
	"info":   logger.Info,
}

// dsnValue quotes a libpq keyword value when it holds spaces, quotes or
// backslashes, e.g. generated passwords.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func buildDSN(cfg Config) string {
	pairs := [][2]string{
		{"host", cfg.Host()},
		{"port", cfg.Port()},
		{"user", cfg.User()},
		{"password", cfg.Password()},
		{"dbname", cfg.Name()},
		{"sslmode", cfg.SSLMode()},
		{"connect_timeout", "5"},
		{"application_name", "auction-market"},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+dsnValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

func namingStrategy() schema.NamingStrategy {
	return schema.NamingStrategy{
		NameReplacer: strings.NewReplacer("CID", "Cid"),
	}
}

func gormLogger(l log.Logger, cfg Config) logger.Interface {
	level := logger.Silent
	if cfg.EnableLog() {
		var ok bool
		if level, ok = gormLogLevels[cfg.LogLevel()]; !ok {
			level = logger.Warn
		}
	}

	slow := cfg.SlowQueryThreshold()
	if slow <= 0 {
		slow = defaultSlowQuery
	}

	return logger.New(l, logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		// bound values may carry emails and password hashes
		ParameterizedQueries: true,
	})
}

// Connect opens the pool and fails fast when postgres is unreachable.
func Connect(cfg Config, l log.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  buildDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		NamingStrategy: namingStrategy(),
		Logger:         gormLogger(l, cfg),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns())
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns())
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("reach postgres at %s:%s: %w", cfg.Host(), cfg.Port(), err)
	}

	l.Info("Connected to postgres",
		log.String("host", cfg.Host()),
		log.String("database", cfg.Name()),
		log.Int("max_open_conns", cfg.MaxOpenConns()),
	)
	return db, nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
