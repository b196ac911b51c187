// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	Coord    CoordConfig    `yaml:"coord" mapstructure:"coord"`
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Activity ActivityConfig `yaml:"activity" mapstructure:"activity"`
	VOC      VOCConfig      `yaml:"voc" mapstructure:"voc"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// IngestConfig configures parsing and merging of registry extracts.
type IngestConfig struct {
	// Regions prefilters registry rows: the address must start with one of
	// these region names. Empty disables the filter.
	Regions []string `yaml:"regions" mapstructure:"regions"`
	// AreaDivisor converts square meters to the local area unit (pyeong).
	AreaDivisor float64 `yaml:"area_divisor" mapstructure:"area_divisor"`
	// UnassignedSentinel is the branch/owner value for unmatched records.
	UnassignedSentinel string `yaml:"unassigned_sentinel" mapstructure:"unassigned_sentinel"`
	// ParseWorkers bounds concurrent CSV file parsing during stage 1.
	ParseWorkers int `yaml:"parse_workers" mapstructure:"parse_workers"`
}

// MatchConfig configures the address similarity matcher.
type MatchConfig struct {
	// BatchThreshold is the minimum cosine score accepted on the bulk path.
	BatchThreshold float64 `yaml:"batch_threshold" mapstructure:"batch_threshold"`
	// CosineFloor rejects single-row candidates before refinement.
	CosineFloor float64 `yaml:"cosine_floor" mapstructure:"cosine_floor"`
	// FastAccept accepts a single-row candidate on cosine alone.
	FastAccept float64 `yaml:"fast_accept" mapstructure:"fast_accept"`
	// CombinedThreshold is the minimum of max(cosine, edit) on the
	// single-row refinement path.
	CombinedThreshold float64 `yaml:"combined_threshold" mapstructure:"combined_threshold"`
	// TopN is how many cosine candidates the refinement pass rescores.
	TopN int `yaml:"top_n" mapstructure:"top_n"`
	// ChunkSize bounds the similarity matrix to chunk_size x corpus_size.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// CoordConfig configures coordinate resolution.
type CoordConfig struct {
	// Bounding box for plausible output coordinates (Korean peninsula).
	MinLat float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `yaml:"max_lat" mapstructure:"max_lat"`
	MinLon float64 `yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `yaml:"max_lon" mapstructure:"max_lon"`
	// ProjectedCutoff: a column whose median x exceeds this is treated
	// as projected rather than geographic.
	ProjectedCutoff float64 `yaml:"projected_cutoff" mapstructure:"projected_cutoff"`
}

// APIConfig holds localdata.go.kr open-data API settings.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	AuthKey     string  `yaml:"auth_key" mapstructure:"auth_key"`
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ActivityConfig configures the activity log store.
type ActivityConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// RetentionDays bounds how long entries are kept; 0 keeps forever.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days"`
}

// VOCConfig configures the VOC request store.
type VOCConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP read surface.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TERRITORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ingest.regions", []string{"서울", "경기", "강원"})
	v.SetDefault("ingest.area_divisor", 3.3058)
	v.SetDefault("ingest.unassigned_sentinel", "미지정")
	v.SetDefault("ingest.parse_workers", 4)
	v.SetDefault("match.batch_threshold", 0.5)
	v.SetDefault("match.cosine_floor", 0.4)
	v.SetDefault("match.fast_accept", 0.85)
	v.SetDefault("match.combined_threshold", 0.7)
	v.SetDefault("match.top_n", 5)
	v.SetDefault("match.chunk_size", 1000)
	v.SetDefault("coord.min_lat", 30.0)
	v.SetDefault("coord.max_lat", 45.0)
	v.SetDefault("coord.min_lon", 120.0)
	v.SetDefault("coord.max_lon", 140.0)
	v.SetDefault("coord.projected_cutoff", 200.0)
	v.SetDefault("api.base_url", "http://www.localdata.go.kr/platform/rest/TO0/openDataApi")
	v.SetDefault("api.page_size", 1000)
	v.SetDefault("api.timeout_secs", 20)
	v.SetDefault("api.rate_limit", 2.0)
	v.SetDefault("activity.driver", "sqlite")
	v.SetDefault("activity.path", "activity.db")
	v.SetDefault("activity.retention_days", 90)
	v.SetDefault("voc.path", "voc.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
