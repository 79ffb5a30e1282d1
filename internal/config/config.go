package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is built once at process start and passed into every collaborator
// constructor. Nothing re-reads configuration mid-operation.
type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	TokenDuration time.Duration `yaml:"token_duration"`
	DatabasePath  string        `yaml:"database_path"`

	// ExportDir is where asynchronous export jobs write their files.
	ExportDir string `yaml:"export_dir"`

	// ReferralCode is the campaign code attributed to saved accounts when the
	// save call carries none.
	ReferralCode string `yaml:"referral_code"`

	// TaskWindowHours is the freshness window for the due-for-tasks query.
	TaskWindowHours int `yaml:"task_window_hours"`

	// AdminPasswordHash is the bcrypt hash the dashboard signin checks
	// against. There are no operator rows in the store.
	AdminPasswordHash string `yaml:"admin_password_hash"`

	// CredentialKey is the hex-encoded 32-byte key used to seal account
	// passwords at rest.
	CredentialKey string `yaml:"credential_key"`

	WorkerCount int `yaml:"worker_count"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("REFTRACK_ADDR", ":8080"),
		JWTSecret:       getEnv("REFTRACK_JWT_SECRET", "supersecretkey"),
		APITimeout:      15 * time.Second,
		TokenDuration:   1 * time.Hour,
		DatabasePath:    getEnv("REFTRACK_DATABASE_PATH", "reftrack.db"),
		ExportDir:       getEnv("REFTRACK_EXPORT_DIR", "data"),
		ReferralCode:    getEnv("REFTRACK_REFERRAL_CODE", ""),
		TaskWindowHours: getEnvInt("REFTRACK_TASK_WINDOW_HOURS", 20),
		CredentialKey:   getEnv("REFTRACK_CREDENTIAL_KEY", ""),
		WorkerCount:     2,
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
