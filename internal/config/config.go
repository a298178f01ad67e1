package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Store    StoreConfig
	GitHub   GitHubConfig
	Presence PresenceConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"gp-captain-panel"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// StoreConfig selects and configures the config store backend.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"github"` // github, sqlite, mysql, postgres, or memory

	SQLitePath string `envconfig:"STORE_SQLITE_PATH" default:"./data/panel.db"`

	// MySQL settings
	MySQLHost string `envconfig:"STORE_MYSQL_HOST" default:"localhost"`
	MySQLPort int    `envconfig:"STORE_MYSQL_PORT" default:"3306"`
	MySQLName string `envconfig:"STORE_MYSQL_NAME" default:"gpbot"`
	MySQLUser string `envconfig:"STORE_MYSQL_USER" default:"root"`
	MySQLPass string `envconfig:"STORE_MYSQL_PASS" default:""`

	// PostgreSQL settings
	PGHost    string `envconfig:"STORE_PG_HOST" default:"localhost"`
	PGPort    int    `envconfig:"STORE_PG_PORT" default:"5432"`
	PGName    string `envconfig:"STORE_PG_NAME" default:"gpbot"`
	PGUser    string `envconfig:"STORE_PG_USER" default:"postgres"`
	PGPass    string `envconfig:"STORE_PG_PASS" default:""`
	PGSSLMode string `envconfig:"STORE_PG_SSLMODE" default:"disable"`
}

// GitHubConfig holds the credentials and coordinates of the GitHub
// repository used as the flat-file config database.
type GitHubConfig struct {
	APIURL string `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	Token  string `envconfig:"GITHUB_TOKEN" default:""`
	Owner  string `envconfig:"GITHUB_OWNER" default:""`
	Repo   string `envconfig:"GITHUB_REPO" default:""`
	Branch string `envconfig:"GITHUB_BRANCH" default:"main"`
	Path   string `envconfig:"GITHUB_PATH" default:"config-grepolis-bot"`
}

// PresenceConfig selects and configures the presence store backend.
type PresenceConfig struct {
	Type string `envconfig:"PRESENCE_TYPE" default:"github"` // github, redis, or memory

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"gpbot:presence"`
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		s.MySQLUser, s.MySQLPass, s.MySQLHost, s.MySQLPort, s.MySQLName)
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.PGUser, s.PGPass, s.PGHost, s.PGPort, s.PGName, s.PGSSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (p *PresenceConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", p.RedisHost, p.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
