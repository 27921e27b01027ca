package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SMTP      SMTPConfig
	Sheets    SheetsConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	API       APIConfig
	Data      DataConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type SMTPConfig struct {
	Host        string
	Port        int
	UseTLS      bool
	SenderEmail string
	SenderName  string
	Password    string
	AuthType    string
}

type SheetsConfig struct {
	SpreadsheetID string
	APIKey        string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type SchedulerConfig struct {
	PollInterval time.Duration
	RetryBackoff bool
}

type APIConfig struct {
	Key string
}

type DataConfig struct {
	Dir            string
	SchedulesFile  string
	SettingsFile   string
	SampleWorkbook string
	CacheTTL       time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USE_TLS", true)
	viper.SetDefault("SMTP_AUTH_TYPE", "plain")
	viper.SetDefault("SENDER_NAME", "Insurance Dashboard")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("SHEETS_CACHE_TTL", "5m")
	viper.SetDefault("SCHEDULER_POLL_INTERVAL", "60s")
	viper.SetDefault("SCHEDULER_RETRY_BACKOFF", true)

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		SMTP: SMTPConfig{
			Host:        viper.GetString("SMTP_HOST"),
			Port:        viper.GetInt("SMTP_PORT"),
			UseTLS:      viper.GetBool("SMTP_USE_TLS"),
			SenderEmail: viper.GetString("SENDER_EMAIL"),
			SenderName:  viper.GetString("SENDER_NAME"),
			Password:    viper.GetString("SMTP_PASSWORD"),
			AuthType:    viper.GetString("SMTP_AUTH_TYPE"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: viper.GetString("SPREADSHEET_ID"),
			APIKey:        viper.GetString("SHEETS_API_KEY"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Scheduler: SchedulerConfig{
			PollInterval: viper.GetDuration("SCHEDULER_POLL_INTERVAL"),
			RetryBackoff: viper.GetBool("SCHEDULER_RETRY_BACKOFF"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Data: DataConfig{
			Dir:            viper.GetString("DATA_DIR"),
			SchedulesFile:  viper.GetString("SCHEDULES_FILE"),
			SettingsFile:   viper.GetString("SETTINGS_FILE"),
			SampleWorkbook: viper.GetString("SAMPLE_WORKBOOK"),
			CacheTTL:       viper.GetDuration("SHEETS_CACHE_TTL"),
		},
	}

	if cfg.Data.SchedulesFile == "" {
		cfg.Data.SchedulesFile = filepath.Join(cfg.Data.Dir, "scheduled_reports.json")
	}
	if cfg.Data.SettingsFile == "" {
		cfg.Data.SettingsFile = filepath.Join(cfg.Data.Dir, "settings.json")
	}

	if cfg.Sheets.SpreadsheetID == "" {
		log.Println("WARNING: SPREADSHEET_ID is not set, reports will use fallback data")
	}
	if cfg.SMTP.Password == "" {
		log.Println("WARNING: SMTP_PASSWORD is not set, email delivery is disabled")
	}

	return cfg, nil
}

// SnapshotDir is where fallback copies of sheet data are written.
func (d *DataConfig) SnapshotDir() string {
	return filepath.Join(d.Dir, "data_cache")
}
