package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	driverName        = "mysql"
	DefaultConfigPath = "config/config.yaml"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// PolicyConfig is the pay policy as written in YAML. Zero values keep the
// built-in defaults; pointers distinguish "unset" from a legitimate 0.
type PolicyConfig struct {
	DayRate             float64  `yaml:"day_rate"`
	ReferenceHours      float64  `yaml:"reference_hours"`
	OvertimeRate        *float64 `yaml:"overtime_rate"`
	ShiftStart          string   `yaml:"shift_start"`
	ShiftEnd            string   `yaml:"shift_end"`
	LocalOffsetMinutes  *int     `yaml:"local_offset_minutes"`
	RoundingStepMinutes int      `yaml:"rounding_step_minutes"`
}

type SweepConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, evaluated in UTC
	Disabled bool   `yaml:"disabled"`
}

type GeofenceConfig struct {
	Enforce bool `yaml:"enforce"`
}

type Config struct {
	Version  string         `yaml:"version"`
	Mode     string         `yaml:"mode"`
	Server   ServerConfig   `yaml:"server"`
	DB       DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Policy   PolicyConfig   `yaml:"policy"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Geofence GeofenceConfig `yaml:"geofence"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		return nil, fmt.Errorf("config: mode must be dev or release, got %q", cfg.Mode)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config: auth.jwt_secret is required")
	}
	return &cfg, nil
}

// Secrets may come from the environment instead of the file.
func (c *Config) applyEnv() {
	c.DB.Password = getEnv("GEOATTEND_DB_PASSWORD", c.DB.Password)
	c.Auth.JWTSecret = getEnv("GEOATTEND_JWT_SECRET", c.Auth.JWTSecret)
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = "5 0 * * *"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetMaxOpenConns(40)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
