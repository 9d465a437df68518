package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Extractor ExtractorConfig
	Sheets    SheetsConfig
	Report    ReportConfig
	Session   SessionConfig
	Audio     AudioConfig
	Locale    LocaleConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	Workers  int
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	EventTopic string
	ReplyTopic string
	GroupID    string
}

type ExtractorConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	MaxAttempts   int
	BaseDelay     time.Duration
	RatePerMinute int
	Timeout       time.Duration
}

type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	SheetName       string
}

type ReportConfig struct {
	OutputDir string
}

type SessionConfig struct {
	Backend string // memory or redis
	TTL     time.Duration
	LockTTL time.Duration
}

type AudioConfig struct {
	FFmpegPath  string
	TempDir     string
	FileBaseURL string
	Timeout     time.Duration
}

type LocaleConfig struct {
	Default string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8085"),
			Workers:  getEnvInt("INTAKE_WORKERS", 8),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_intake"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventTopic: getEnv("KAFKA_TOPIC_INTAKE_EVENTS", "intake.events"),
			ReplyTopic: getEnv("KAFKA_TOPIC_INTAKE_REPLIES", "intake.replies"),
			GroupID:    getEnv("KAFKA_GROUP_INTAKE", "intake"),
		},
		Extractor: ExtractorConfig{
			APIKey:        getEnv("GEMINI_API_KEY", ""),
			Model:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			MaxAttempts:   getEnvInt("EXTRACTOR_MAX_ATTEMPTS", 3),
			BaseDelay:     getEnvDuration("EXTRACTOR_BASE_DELAY", 1500*time.Millisecond),
			RatePerMinute: getEnvInt("EXTRACTOR_RATE_PER_MINUTE", 60),
			Timeout:       getEnvDuration("EXTRACTOR_TIMEOUT", 60*time.Second),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   getEnv("GOOGLE_SHEET_ID", ""),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
			SheetName:       getEnv("GOOGLE_SHEET_NAME", "Sheet1"),
		},
		Report: ReportConfig{
			OutputDir: getEnv("REPORT_OUTPUT_DIR", os.TempDir()),
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", "redis"),
			TTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
			LockTTL: getEnvDuration("SESSION_LOCK_TTL", 2*time.Minute),
		},
		Audio: AudioConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			TempDir:     getEnv("AUDIO_TEMP_DIR", os.TempDir()),
			FileBaseURL: getEnv("AUDIO_FILE_BASE_URL", ""),
			Timeout:     getEnvDuration("AUDIO_TIMEOUT", 30*time.Second),
		},
		Locale: LocaleConfig{
			Default: getEnv("LOCALE_DEFAULT", "uz"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
