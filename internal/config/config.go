package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_ENV"` name the environment variable;
// `default:""` applies when the variable is unset and `required:"true"`
// makes it mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Auth       AuthConfig
}

// ServerConfig holds HTTP server-specific configuration.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configuration. The gRPC
// surface is operational only (health checking and reflection).
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL connection details.
type PostgresConfig struct {
	Host           string `envconfig:"POSTGRES_HOST" required:"true"`
	Port           string `envconfig:"POSTGRES_PORT" default:"5432"`
	User           string `envconfig:"POSTGRES_USER" required:"true"`
	Password       string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName         string `envconfig:"POSTGRES_DBNAME" required:"true"`
	MigrationsPath string `envconfig:"POSTGRES_MIGRATIONS_PATH" default:"migrations"`
	RunMigrations  bool   `envconfig:"POSTGRES_RUN_MIGRATIONS" default:"false"`
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"30m"`
	RefreshTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// Load reads the configuration from environment variables. It should be
// called once during application startup; the result is passed down
// explicitly, there is no package-level configuration state.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
