package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Missing is substituted for a DB_* variable that is not set at all.  The
// connection string is still assembled, so the problem shows up later as a
// failed connection instead of a startup error.
const Missing = "None"

// DBConfig holds the connection settings for the shared database handle.
type DBConfig struct {
	Driver          string // database/sql driver name ("pgx" or "postgres")
	Host            string
	Port            string
	Name            string
	User            string
	Pass            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// URL assembles the postgresql:// connection string.  Values are inserted
// verbatim; nothing is validated or escaped.
func (d DBConfig) URL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env             string // application environment (e.g. "development", "production")
	Port            string // HTTP port to listen on
	LogLevel        string // zerolog level name
	LogFormat       string // "console" or "json"
	ShutdownTimeout time.Duration
	DB              DBConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  None of the database variables are required.
func Load() Config {
	env := envStr("APP_ENV", "development")
	format := "json"
	if env == "development" {
		format = "console"
	}
	return Config{
		Env:             env,
		Port:            envStr("APP_PORT", "8000"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFormat:       envStr("LOG_FORMAT", format),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 15*time.Second),
		DB: DBConfig{
			Driver:          envStr("DB_DRIVER", "pgx"),
			Host:            optional("DB_HOST"),
			Port:            optional("DB_PORT"),
			Name:            optional("DB_NAME"),
			User:            optional("DB_USER"),
			Pass:            optional("DB_PASS"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
	}
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding anything already in the environment.  Files that
// do not exist are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// optional returns the variable's value, Missing when it is unset, and the
// empty string when it is set but empty.
func optional(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return Missing
	}
	return v
}
