package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"mealplanner/logging"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an optional YAML file layered between defaults and env.
const ConfigPathEnvVar = "CONFIG_PATH"

type Settings struct {
	Server   ServerSettings   `koanf:"server"`
	Database DatabaseSettings `koanf:"database"`
	Auth     AuthSettings     `koanf:"auth"`
	Log      LogSettings      `koanf:"log"`
	Planner  PlannerSettings  `koanf:"planner"`
	AWS      AWSSettings      `koanf:"aws"`
}

type ServerSettings struct {
	Port        int      `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type DatabaseSettings struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

// DSN builds the postgres connection string gorm expects.
func (d DatabaseSettings) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type AuthSettings struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	AccessTTL      time.Duration `koanf:"access_ttl"`
	RefreshTTL     time.Duration `koanf:"refresh_ttl"`
	LoginRateLimit int           `koanf:"login_rate_limit"` // requests per minute per IP
}

type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type PlannerSettings struct {
	MaxDays int `koanf:"max_days"`
}

// AWSSettings: every integration is optional and switched on by its own key.
type AWSSettings struct {
	Region         string `koanf:"region"`
	S3Bucket       string `koanf:"s3_bucket"`
	CloudFrontURL  string `koanf:"cloudfront_url"`
	SESSender      string `koanf:"ses_sender"`
	SNSPlatformARN string `koanf:"sns_platform_arn"`
	Rekognition    bool   `koanf:"rekognition"`
}

func Defaults() Settings {
	return Settings{
		Server: ServerSettings{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Database: DatabaseSettings{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "mealplanner",
			SSLMode: "disable",
		},
		Auth: AuthSettings{
			AccessTTL:      60 * time.Minute,
			RefreshTTL:     24 * time.Hour,
			LoginRateLimit: 10,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
		Planner: PlannerSettings{MaxDays: 31},
	}
}

// env names kept compatible with the existing deployment .env files
var envMappings = map[string]string{
	"port":                "server.port",
	"cors_origins":        "server.cors_origins",
	"db_host":             "database.host",
	"db_port":             "database.port",
	"db_user":             "database.user",
	"db_password":         "database.password",
	"db_name":             "database.name",
	"db_sslmode":          "database.sslmode",
	"jwt_secret":          "auth.jwt_secret",
	"jwt_access_ttl":      "auth.access_ttl",
	"jwt_refresh_ttl":     "auth.refresh_ttl",
	"login_rate_limit":    "auth.login_rate_limit",
	"log_level":           "log.level",
	"log_format":          "log.format",
	"plan_max_days":       "planner.max_days",
	"aws_region":          "aws.region",
	"s3_bucket":           "aws.s3_bucket",
	"cloudfront_url":      "aws.cloudfront_url",
	"ses_email":           "aws.ses_sender",
	"sns_fcm_arn":         "aws.sns_platform_arn",
	"rekognition_enabled": "aws.rekognition",
}

// envTransform maps an env var to its koanf key; unmapped vars are skipped.
// List-valued keys are split on commas.
func envTransform(key, value string) (string, any) {
	k := envMappings[strings.ToLower(key)]
	if k == "" {
		return "", nil
	}
	if k == "server.cors_origins" {
		return k, splitList(value)
	}
	return k, value
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads defaults, then CONFIG_PATH (yaml), then the environment.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		logging.Warn().Msg("no .env file found, using system env vars")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	var errs []error
	if s.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", s.Server.Port))
	}
	if s.Planner.MaxDays < 1 {
		errs = append(errs, errors.New("planner.max_days must be at least 1"))
	}
	if s.Auth.AccessTTL <= 0 || s.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	return errors.Join(errs...)
}
