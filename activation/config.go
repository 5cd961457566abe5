package activation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DevJWTSecret signs tokens when JWT_SECRET is not configured. It is only
// fit for local development.
const DevJWTSecret = "your_jwt_secret"

// Config is a configuration for the activation application
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	// Backend is "pg" or "mem". The memory backend is refused unless
	// AllowMemBackend is set, which only tests do.
	Backend         string `yaml:"backend"`
	AllowMemBackend bool   `yaml:"allow_mem_backend"`
	DatabaseURL     string `yaml:"database_url"`

	StoreConnectTimeout time.Duration `yaml:"store_connect_timeout"`
	StoreRetryInterval  time.Duration `yaml:"store_retry_interval"`
	StoreHeartbeat      time.Duration `yaml:"store_heartbeat"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	BcryptCost    int    `yaml:"bcrypt_cost"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:            ":3001",
		Backend:             "pg",
		StoreConnectTimeout: 30 * time.Second,
		StoreRetryInterval:  5 * time.Second,
		StoreHeartbeat:      10 * time.Second,
		JWTSecret:           DevJWTSecret,
		TokenTTL:            time.Hour,
		AdminUsername:       "admin",
		AdminPassword:       "admin123",
		BcryptCost:          10,
		CORSAllowedOrigins:  []string{"*"},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (skipped when missing), then a .env file, then the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	// a missing .env is fine, variables may come from the process
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.HTTPAddr = ":" + port
	}
	c.Backend = envOrDefault("REPO_BACKEND", c.Backend)
	c.DatabaseURL = envOrDefault("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = envOrDefault("JWT_SECRET", c.JWTSecret)
	c.AdminUsername = envOrDefault("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = envOrDefault("ADMIN_PASSWORD", c.AdminPassword)
	c.CORSAllowedOrigins = envCSV("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	var err error
	if c.AllowMemBackend, err = envBool("ALLOW_MEM_BACKEND_FOR_TESTS", c.AllowMemBackend); err != nil {
		return err
	}
	if c.BcryptCost, err = envInt("BCRYPT_COST", c.BcryptCost); err != nil {
		return err
	}
	if c.TokenTTL, err = envMinutes("TOKEN_TTL_MINUTES", c.TokenTTL); err != nil {
		return err
	}
	if c.StoreConnectTimeout, err = envSeconds("STORE_CONNECT_TIMEOUT_SECONDS", c.StoreConnectTimeout); err != nil {
		return err
	}
	if c.StoreRetryInterval, err = envSeconds("STORE_RETRY_INTERVAL_SECONDS", c.StoreRetryInterval); err != nil {
		return err
	}
	if c.StoreHeartbeat, err = envSeconds("STORE_HEARTBEAT_SECONDS", c.StoreHeartbeat); err != nil {
		return err
	}
	return nil
}

// Validate reports configuration that would stop the app from starting.
func (c *Config) Validate() error {
	switch c.Backend {
	case "pg":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for pg backend")
		}
		if _, err := pgconn.ParseConfig(c.DatabaseURL); err != nil {
			return fmt.Errorf("parsing DATABASE_URL: %w", err)
		}
	case "mem":
		if !c.AllowMemBackend {
			return fmt.Errorf("mem repository is disabled at runtime; set ALLOW_MEM_BACKEND_FOR_TESTS=true only in tests")
		}
	default:
		return fmt.Errorf("unsupported REPO_BACKEND=%s", c.Backend)
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return fmt.Errorf("admin username and password must not be empty")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envSeconds(key string, def time.Duration) (time.Duration, error) {
	n, err := envInt(key, -1)
	if err != nil || n < 0 {
		return def, err
	}
	return time.Duration(n) * time.Second, nil
}

func envMinutes(key string, def time.Duration) (time.Duration, error) {
	n, err := envInt(key, -1)
	if err != nil || n < 0 {
		return def, err
	}
	return time.Duration(n) * time.Minute, nil
}

func envCSV(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
