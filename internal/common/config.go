package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (CLAIMS_SERVER_HTTP_ADDR, ...).
const EnvPrefix = "CLAIMS"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	OCR       OCRConfig       `yaml:"ocr"`
	Reference ReferenceConfig `yaml:"reference"`
	Fraud     FraudConfig     `yaml:"fraud"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	RatePerSec     float64       `yaml:"rate_per_sec"`
	RateBurst      int           `yaml:"rate_burst"`
	MaxUploadMB    int           `yaml:"max_upload_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DatabaseConfig holds claim-history storage configuration. An empty DSN disables history.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TessdataDir string        `yaml:"tessdata_dir"`
	Lang        string        `yaml:"lang"`
	DPI         int           `yaml:"dpi"`
	MaxPages    int           `yaml:"max_pages"`
	Timeout     time.Duration `yaml:"timeout"`
	TempDir     string        `yaml:"temp_dir"`
	// HeicConverter converts phone photos before OCR: magick, heif-convert or sips.
	HeicConverter string `yaml:"heic_converter"`
}

// ReferenceConfig points at the hospital and disease datasets.
type ReferenceConfig struct {
	HospitalsPath string `yaml:"hospitals_path"`
	DiseasesPath  string `yaml:"diseases_path"`
	Watch         bool   `yaml:"watch"`
}

// FraudConfig tunes the soft-flag thresholds of the classifier.
type FraudConfig struct {
	AvgCostMultiplier float64 `yaml:"avg_cost_multiplier"`
	HighAmount        int64   `yaml:"high_amount"`
	RoundAmountFloor  int64   `yaml:"round_amount_floor"`
	RoundAmountStep   int64   `yaml:"round_amount_step"`
	MinClaimIDLength  int     `yaml:"min_claim_id_length"`
	StrictLocation    bool    `yaml:"strict_location"`
}

// CacheConfig controls the extracted-text cache.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Format string `yaml:"format"` // "text" or "json"
	Level  string `yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":8000")
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.rate_per_sec", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.request_timeout", 2*time.Minute)

	v.SetDefault("database.dsn", "file:claims.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)

	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.timeout", 90*time.Second)
	v.SetDefault("ocr.temp_dir", "")
	v.SetDefault("ocr.heic_converter", "magick")

	v.SetDefault("reference.hospitals_path", "datasets/Hospital_Dataset.xlsx")
	v.SetDefault("reference.diseases_path", "datasets/disease_treatment_dataset.xlsx")
	v.SetDefault("reference.watch", true)

	v.SetDefault("fraud.avg_cost_multiplier", 1.5)
	v.SetDefault("fraud.high_amount", 100000)
	v.SetDefault("fraud.round_amount_floor", 50000)
	v.SetDefault("fraud.round_amount_step", 10000)
	v.SetDefault("fraud.min_claim_id_length", 5)
	v.SetDefault("fraud.strict_location", false)

	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
}

// legacy env names from earlier deployments.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DB_URL")
	_ = v.BindEnv("server.grpc_addr", EnvPrefix+"_SERVER_GRPC_ADDR", "GRPC_ADDR")
	_ = v.BindEnv("ocr.tessdata_dir", EnvPrefix+"_OCR_TESSDATA_DIR", "TESSDATA_PREFIX")
	_ = v.BindEnv("ocr.temp_dir", EnvPrefix+"_OCR_TEMP_DIR", "ARTIFACT_CACHE_DIR")
	_ = v.BindEnv("ocr.heic_converter", EnvPrefix+"_OCR_HEIC_CONVERTER", "HEIC_CONVERTER")
}

// NewViper returns a viper instance with defaults and env bindings applied.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)
	return v
}

// LoadConfig loads configuration from defaults, an optional YAML file and the environment.
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
	}
	return FromViper(v), nil
}

// FromViper maps viper keys onto Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       v.GetString("server.http_addr"),
			GRPCAddr:       normalizeAddr(v.GetString("server.grpc_addr")),
			RatePerSec:     v.GetFloat64("server.rate_per_sec"),
			RateBurst:      v.GetInt("server.rate_burst"),
			MaxUploadMB:    v.GetInt("server.max_upload_mb"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxConns:        v.GetInt32("database.max_conns"),
			MinConns:        v.GetInt32("database.min_conns"),
			MaxConnLifetime: v.GetDuration("database.max_conn_lifetime"),
			MaxConnIdleTime: v.GetDuration("database.max_conn_idle_time"),
			DialTimeout:     v.GetDuration("database.dial_timeout"),
		},
		OCR: OCRConfig{
			TessdataDir:   v.GetString("ocr.tessdata_dir"),
			Lang:          v.GetString("ocr.lang"),
			DPI:           v.GetInt("ocr.dpi"),
			MaxPages:      v.GetInt("ocr.max_pages"),
			Timeout:       v.GetDuration("ocr.timeout"),
			TempDir:       v.GetString("ocr.temp_dir"),
			HeicConverter: v.GetString("ocr.heic_converter"),
		},
		Reference: ReferenceConfig{
			HospitalsPath: v.GetString("reference.hospitals_path"),
			DiseasesPath:  v.GetString("reference.diseases_path"),
			Watch:         v.GetBool("reference.watch"),
		},
		Fraud: FraudConfig{
			AvgCostMultiplier: v.GetFloat64("fraud.avg_cost_multiplier"),
			HighAmount:        v.GetInt64("fraud.high_amount"),
			RoundAmountFloor:  v.GetInt64("fraud.round_amount_floor"),
			RoundAmountStep:   v.GetInt64("fraud.round_amount_step"),
			MinClaimIDLength:  v.GetInt("fraud.min_claim_id_length"),
			StrictLocation:    v.GetBool("fraud.strict_location"),
		},
		Cache: CacheConfig{
			TTL:             v.GetDuration("cache.ttl"),
			CleanupInterval: v.GetDuration("cache.cleanup_interval"),
		},
		Log: LogConfig{
			Format: v.GetString("log.format"),
			Level:  v.GetString("log.level"),
		},
	}
}

// addresses like "8080" are accepted for compatibility with GRPC_ADDR.
func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("server.http_addr", c.Server.HTTPAddr, Required).
		Field("server.grpc_addr", c.Server.GRPCAddr, Required).
		Field("log.format", c.Log.Format, OneOf("text", "json")).
		Field("fraud.avg_cost_multiplier", c.Fraud.AvgCostMultiplier, Positive).
		Field("fraud.round_amount_step", c.Fraud.RoundAmountStep, Positive).
		Field("server.max_upload_mb", c.Server.MaxUploadMB, Positive).
		Field("ocr.dpi", c.OCR.DPI, Positive, MaxInt(1200)).
		Field("ocr.max_pages", c.OCR.MaxPages, NonNegative).
		Field("cache.ttl", c.Cache.TTL, NonNegative)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// IsConfigError reports whether err came from Validate or LoadConfig.
func IsConfigError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == CodeConfig
}

func (c *Config) String() string {
	return fmt.Sprintf("http=%s grpc=%s hospitals=%s diseases=%s db_enabled=%t",
		c.Server.HTTPAddr, c.Server.GRPCAddr, c.Reference.HospitalsPath, c.Reference.DiseasesPath, c.Database.DSN != "")
}
