package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration required by the API process.
// All values come from env (optionally pre-loaded from a .env file by main).
// No business logic should read raw environment variables.
type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	Log   LogConfig
}

type AppConfig struct {
	Env  string
	Port int

	// CORSOrigins lists origins allowed to call the API from a browser.
	// Empty means any origin outside production.
	CORSOrigins []string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. Without a host the fleet-wide hashing cap is disabled.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	// JWTSecret signs and verifies every session token.
	JWTSecret string

	// BcryptCost is the work factor for password hashes.
	BcryptCost int
	// HashWorkers bounds concurrent bcrypt operations in this process.
	HashWorkers int
	// HashFleetLimit bounds concurrent bcrypt operations across all processes
	// sharing the Redis instance. Zero disables the fleet cap.
	HashFleetLimit int
}

type LogConfig struct {
	// File, when set, receives a rotated copy of every log line.
	File string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optionalInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	{
		n, err := optionalInt("BCRYPT_COST")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.BcryptCost = n
	}
	{
		n, err := optionalInt("HASH_WORKERS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.HashWorkers = n
	}
	{
		n, err := optionalInt("HASH_FLEET_LIMIT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.HashFleetLimit = n
	}

	c.Log.File = strings.TrimSpace(os.Getenv("LOG_FILE"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host != "" {
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}

	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}
	if c.Auth.HashWorkers == 0 {
		c.Auth.HashWorkers = runtime.NumCPU()
	}
	if c.Auth.HashWorkers < 0 {
		errs = append(errs, fmt.Errorf("HASH_WORKERS must be positive, got %d", c.Auth.HashWorkers))
	}
	if c.Auth.HashFleetLimit < 0 {
		errs = append(errs, fmt.Errorf("HASH_FLEET_LIMIT must not be negative, got %d", c.Auth.HashFleetLimit))
	}
	if c.Auth.HashFleetLimit > 0 && c.Redis.Host == "" {
		errs = append(errs, errors.New("HASH_FLEET_LIMIT requires REDIS_HOST"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	return parseInt(key, v)
}

// optionalInt returns 0 when the variable is unset; Validate applies the default.
func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	return parseInt(key, v)
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
