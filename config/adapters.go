package config

import (
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
)

// LogConfig maps the logger section onto the log package defaults for the
// current environment.
func LogConfig(cfg Config) log.Config {
	var logCfg log.Config
	if cfg.App().IsProduction() {
		logCfg = log.ProductionConfig(cfg.App().Name(), cfg.App().Version())
	} else {
		logCfg = log.DevelopmentConfig()
		logCfg.ServiceName = cfg.App().Name()
		logCfg.Version = cfg.App().Version()
	}
	logCfg.Environment = cfg.App().Environment()

	l := cfg.Logger()
	if l.Level() != "" {
		logCfg.Level = l.Level()
	}
	if l.Format() != "" {
		logCfg.Format = l.Format()
	}
	if l.OutputPath() != "" {
		logCfg.OutputPath = l.OutputPath()
	}
	if l.MaxFileSizeMB() > 0 {
		logCfg.FileMaxSizeInMB = l.MaxFileSizeMB()
	}
	if l.MaxFileAgeDays() > 0 {
		logCfg.FileMaxAgeInDays = l.MaxFileAgeDays()
	}
	if l.MaxBackupFiles() > 0 {
		logCfg.FileMaxBackups = l.MaxBackupFiles()
	}
	logCfg.CompressRotated = l.IsCompressEnabled()

	return logCfg
}

func PaginationSettings(cfg Config) pagination.Config {
	p := cfg.Pagination()
	return pagination.Config{
		Policy:          p.WindowPolicy(),
		Width:           p.WindowWidth(),
		PageSizes:       p.PageSizes(),
		DefaultPageSize: p.DefaultPageSize(),
	}
}
