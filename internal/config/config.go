// Package config provides configuration loading and validation for
// postforge's orchestrator and dashboard.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/postforge/postforge/internal/apperr"
)

// Config is the flat configuration surface described in the
// specification's external interfaces section, loaded from the process
// environment (optionally via a local .env file).
type Config struct {
	// Storage
	DatabasePath  string `env:"DATABASE_PATH" validate:"required"`
	ArtifactsPath string `env:"ARTIFACTS_PATH" validate:"required"`
	BackupPath    string `env:"BACKUP_PATH" validate:"required"`

	// Data sources
	Origins string `env:"ORIGINS" validate:"required"` // comma-separated "source:identifier" pairs

	// Remotes
	LLMAPIKey         string `env:"LLM_API_KEY" validate:"required"`
	LLMModel          string `env:"LLM_MODEL" validate:"required"`
	StorefrontToken   string `env:"STOREFRONT_ACCESS_TOKEN" validate:"required"`

	// Cost governor budgets
	MaxTokensPerRun int     `env:"MAX_TOKENS_PER_RUN" validate:"min=1000,max=1000000"`
	MaxUSDPerRun    float64 `env:"MAX_USD_PER_RUN" validate:"min=0.01,max=1000"`
	MaxUSDLifetime  float64 `env:"MAX_USD_LIFETIME" validate:"min=1,max=10000"`
	PriceInPerTok   float64 `env:"PRICE_IN_PER_TOKEN" validate:"min=0"`
	PriceOutPerTok  float64 `env:"PRICE_OUT_PER_TOKEN" validate:"min=0"`

	// Pipeline behavior
	MaxRegenerations int `env:"MAX_REGENERATION_ATTEMPTS" validate:"min=0,max=5"`
	PostLimitPerRun  int `env:"POST_LIMIT_PER_RUN" validate:"min=1,max=100"`
	MinScore         int `env:"MIN_SCORE" validate:"min=0"`

	// Supplemented: sales feedback thresholds
	ZeroSalesSuppressionCount int     `env:"ZERO_SALES_SUPPRESSION_COUNT" validate:"min=0"`
	RefundRateMax             float64 `env:"REFUND_RATE_MAX" validate:"min=0,max=1"`
	SalesLookbackDays         int     `env:"SALES_LOOKBACK_DAYS" validate:"min=1"`

	// Dashboard
	DashboardAddr   string `env:"DASHBOARD_ADDR" validate:"required"`
	PollIntervalMS  int    `env:"POLL_INTERVAL_MS" validate:"min=250"`

	// Backup
	BackupInterval time.Duration `env:"-"`
	KillSwitchFile string        `env:"KILL_SWITCH_FILE"`

	UseBrowserFallback bool `env:"USE_BROWSER_FALLBACK"`
	Verbose            bool `env:"VERBOSE"`
}

// defaults mirrors the defaults named in the specification and its
// supplemented fields; all are optional and filled in by Load when the
// corresponding environment variable is absent.
func defaults() Config {
	return Config{
		DatabasePath:              "./data/pipeline.db",
		ArtifactsPath:             "./data/artifacts",
		BackupPath:                "./data/backups",
		MaxTokensPerRun:           200000,
		MaxUSDPerRun:              5.0,
		MaxUSDLifetime:            500.0,
		MaxRegenerations:          1,
		PostLimitPerRun:           25,
		MinScore:                 0,
		ZeroSalesSuppressionCount: 5,
		RefundRateMax:             0.3,
		SalesLookbackDays:         30,
		DashboardAddr:             "127.0.0.1:8080",
		PollIntervalMS:            3000,
		BackupInterval:            time.Hour,
	}
}

var validate = validator.New()

// Load reads a .env file if present (ignored if absent — env vars set by
// the process environment always win), fills in defaults, then validates
// the result, returning *apperr.ConfigInvalid with the collected reasons
// on failure.
func Load(envPath string) (*Config, error) {
	_ = godotenv.Load(envPath) // missing .env is not an error; see original_source/config.py

	cfg := defaults()
	overlayEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("ARTIFACTS_PATH"); v != "" {
		cfg.ArtifactsPath = v
	}
	if v := os.Getenv("BACKUP_PATH"); v != "" {
		cfg.BackupPath = v
	}
	if v := os.Getenv("ORIGINS"); v != "" {
		cfg.Origins = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("STOREFRONT_ACCESS_TOKEN"); v != "" {
		cfg.StorefrontToken = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.DashboardAddr = v
	}
	if v := os.Getenv("KILL_SWITCH_FILE"); v != "" {
		cfg.KillSwitchFile = v
	}

	overlayInt("MAX_TOKENS_PER_RUN", &cfg.MaxTokensPerRun)
	overlayInt("MAX_REGENERATION_ATTEMPTS", &cfg.MaxRegenerations)
	overlayInt("POST_LIMIT_PER_RUN", &cfg.PostLimitPerRun)
	overlayInt("MIN_SCORE", &cfg.MinScore)
	overlayInt("ZERO_SALES_SUPPRESSION_COUNT", &cfg.ZeroSalesSuppressionCount)
	overlayInt("SALES_LOOKBACK_DAYS", &cfg.SalesLookbackDays)
	overlayInt("POLL_INTERVAL_MS", &cfg.PollIntervalMS)
	overlayFloat("MAX_USD_PER_RUN", &cfg.MaxUSDPerRun)
	overlayFloat("MAX_USD_LIFETIME", &cfg.MaxUSDLifetime)
	overlayFloat("PRICE_IN_PER_TOKEN", &cfg.PriceInPerTok)
	overlayFloat("PRICE_OUT_PER_TOKEN", &cfg.PriceOutPerTok)
	overlayFloat("REFUND_RATE_MAX", &cfg.RefundRateMax)
	overlayBool("USE_BROWSER_FALLBACK", &cfg.UseBrowserFallback)
	overlayBool("VERBOSE", &cfg.Verbose)

	if v := os.Getenv("BACKUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BackupInterval = d
		}
	}
}

func overlayInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overlayFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func overlayBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate runs struct-tag validation plus the checks a tag cannot
// express (source-name whitelist, writable directories), collecting all
// failures rather than stopping at the first, matching the original
// config validator's behavior.
func (c *Config) Validate() error {
	var reasons []string

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				reasons = append(reasons, fmt.Sprintf("%s failed check %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
		} else {
			reasons = append(reasons, err.Error())
		}
	}

	reasons = append(reasons, validateOrigins(c.Origins)...)
	reasons = append(reasons, validateWritable("ArtifactsPath", c.ArtifactsPath)...)
	reasons = append(reasons, validateWritable("BackupPath", c.BackupPath)...)

	if len(reasons) > 0 {
		return &apperr.ConfigInvalid{Reasons: reasons}
	}
	return nil
}

var validOriginKinds = map[string]bool{"reddit": true, "hackernews": true, "rss": true, "file": true}

func validateOrigins(origins string) []string {
	var reasons []string
	if strings.TrimSpace(origins) == "" {
		return []string{"ORIGINS must name at least one source:identifier pair"}
	}
	for _, raw := range strings.Split(origins, ",") {
		pair := strings.TrimSpace(raw)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			reasons = append(reasons, fmt.Sprintf("origin %q is not in source:identifier form", pair))
			continue
		}
		kind := strings.ToLower(parts[0])
		if !validOriginKinds[kind] {
			reasons = append(reasons, fmt.Sprintf("origin %q names unknown source kind %q", pair, kind))
		}
	}
	return reasons
}

func validateWritable(field, dir string) []string {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return []string{fmt.Sprintf("%s %q is not creatable/writable: %v", field, dir, err)}
	}
	return nil
}
