package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

// Config is the single injected configuration object. Nothing else in the
// codebase reads the environment.
type Config struct {
	Port       string `env:"PORT" env-default:"8080"`
	JWTSecret  string `env:"JWT_SECRET" env-required:"true"`
	BcryptCost int    `env:"BCRYPT_COST" env-default:"10"`

	DB     DB     `env-prefix:"DB_"`
	SMTP   SMTP   `env-prefix:"SMTP_"`
	Twilio Twilio `env-prefix:"TWILIO_"`
	MinIO  MinIO  `env-prefix:"MINIO_"`
}

type DB struct {
	Host     string `env:"HOST" env-default:"localhost"`
	Port     string `env:"PORT" env-default:"5432"`
	User     string `env:"USER" env-default:"postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" env-default:"forum"`
	SSLMode  string `env:"SSLMODE" env-default:"disable"`
}

// DSN builds the postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" env-default:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type Twilio struct {
	AccountSID string `env:"ACCOUNT_SID"`
	AuthToken  string `env:"AUTH_TOKEN"`
	FromNumber string `env:"FROM_NUMBER"`
}

type MinIO struct {
	Endpoint  string `env:"ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" env-default:"forum-media"`
	UseSSL    bool   `env:"USE_SSL" env-default:"false"`
}

// Load reads configuration from the environment (.env is picked up in dev via
// godotenv autoload).
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}
