package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Shifts     ShiftsConfig
	Attendance AttendanceConfig
	Leave      LeaveConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ShiftsConfig carries the static shift schedule table. Windows are
// "HH:MM-HH:MM" strings; an end at or before the start means the shift
// crosses midnight.
type ShiftsConfig struct {
	Windows           map[string]string
	FullTimeRequired  time.Duration
	PartTimeRequired  time.Duration
	OvertimeTolerance time.Duration
}

// AttendanceConfig tunes the attendance record surface.
type AttendanceConfig struct {
	ReportMaxLength int
	MaxReportImages int
	CacheTTL        time.Duration
}

// LeaveConfig governs leave batch expansion and its caps.
type LeaveConfig struct {
	MaxPerDay   int
	MaxPerMonth int
	MaxPerYear  int
	WindowDays  int
	BatchSize   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Shifts = ShiftsConfig{
		Windows: map[string]string{
			"early":     v.GetString("SHIFT_EARLY_WINDOW"),
			"day":       v.GetString("SHIFT_DAY_WINDOW"),
			"afternoon": v.GetString("SHIFT_AFTERNOON_WINDOW"),
			"evening":   v.GetString("SHIFT_EVENING_WINDOW"),
			"late":      v.GetString("SHIFT_LATE_WINDOW"),
		},
		FullTimeRequired:  parseDuration(v.GetString("REQUIRED_HOURS_FULL_TIME"), 8*time.Hour),
		PartTimeRequired:  parseDuration(v.GetString("REQUIRED_HOURS_PART_TIME"), 4*time.Hour),
		OvertimeTolerance: parseDuration(v.GetString("OVERTIME_TOLERANCE"), 0),
	}

	cfg.Attendance = AttendanceConfig{
		ReportMaxLength: v.GetInt("ATTENDANCE_REPORT_MAX_LENGTH"),
		MaxReportImages: v.GetInt("ATTENDANCE_MAX_REPORT_IMAGES"),
		CacheTTL:        parseDuration(v.GetString("ATTENDANCE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Leave = LeaveConfig{
		MaxPerDay:   v.GetInt("LEAVE_MAX_PER_DAY"),
		MaxPerMonth: v.GetInt("LEAVE_MAX_PER_MONTH"),
		MaxPerYear:  v.GetInt("LEAVE_MAX_PER_YEAR"),
		WindowDays:  v.GetInt("LEAVE_WINDOW_DAYS"),
		BatchSize:   v.GetInt("LEAVE_BATCH_SIZE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hr_core")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "hr-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SHIFT_EARLY_WINDOW", "04:00-08:00")
	v.SetDefault("SHIFT_DAY_WINDOW", "08:00-16:00")
	v.SetDefault("SHIFT_AFTERNOON_WINDOW", "12:00-20:00")
	v.SetDefault("SHIFT_EVENING_WINDOW", "16:00-00:00")
	v.SetDefault("SHIFT_LATE_WINDOW", "20:00-04:00")
	v.SetDefault("REQUIRED_HOURS_FULL_TIME", "8h")
	v.SetDefault("REQUIRED_HOURS_PART_TIME", "4h")
	v.SetDefault("OVERTIME_TOLERANCE", "0s")

	v.SetDefault("ATTENDANCE_REPORT_MAX_LENGTH", 255)
	v.SetDefault("ATTENDANCE_MAX_REPORT_IMAGES", 4)
	v.SetDefault("ATTENDANCE_CACHE_TTL", "10m")

	v.SetDefault("LEAVE_MAX_PER_DAY", 2)
	v.SetDefault("LEAVE_MAX_PER_MONTH", 10)
	v.SetDefault("LEAVE_MAX_PER_YEAR", 30)
	v.SetDefault("LEAVE_WINDOW_DAYS", 14)
	v.SetDefault("LEAVE_BATCH_SIZE", 500)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
