// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/tendergov/tender-cli/internal/consolidate"
	"github.com/tendergov/tender-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
	Consolidation ConsolidationConfig `yaml:"consolidation" mapstructure:"consolidation"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ConsolidationConfig is the file/env shape of the engine tunables.
type ConsolidationConfig struct {
	Weights           WeightsConfig  `yaml:"weights" mapstructure:"weights"`
	AutoThreshold     float64        `yaml:"auto_threshold" mapstructure:"auto_threshold"`
	ReviewThreshold   float64        `yaml:"review_threshold" mapstructure:"review_threshold"`
	ValueTolerance    float64        `yaml:"value_tolerance" mapstructure:"value_tolerance"`
	ValueCutoff       float64        `yaml:"value_cutoff" mapstructure:"value_cutoff"`
	DateToleranceDays float64        `yaml:"date_tolerance_days" mapstructure:"date_tolerance_days"`
	DateCutoffDays    float64        `yaml:"date_cutoff_days" mapstructure:"date_cutoff_days"`
	FuzzyWorkers      int            `yaml:"fuzzy_workers" mapstructure:"fuzzy_workers"`
	Priorities        map[string]int `yaml:"priorities" mapstructure:"priorities"`
}

// WeightsConfig is the file/env shape of the similarity factor weights.
type WeightsConfig struct {
	Description float64 `yaml:"description" mapstructure:"description"`
	Buyer       float64 `yaml:"buyer" mapstructure:"buyer"`
	Value       float64 `yaml:"value" mapstructure:"value"`
	Date        float64 `yaml:"date" mapstructure:"date"`
	Location    float64 `yaml:"location" mapstructure:"location"`
}

// Load reads configuration from tender.yaml (working directory or
// ~/.config/tender-cli) and TENDER_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("tender")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/tender-cli")

	v.SetEnvPrefix("TENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := consolidate.DefaultConfig()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("consolidation.auto_threshold", defaults.AutoThreshold)
	v.SetDefault("consolidation.review_threshold", defaults.ReviewThreshold)
	v.SetDefault("consolidation.value_tolerance", defaults.ValueTolerance)
	v.SetDefault("consolidation.value_cutoff", defaults.ValueCutoff)
	v.SetDefault("consolidation.date_tolerance_days", defaults.DateToleranceDays)
	v.SetDefault("consolidation.date_cutoff_days", defaults.DateCutoffDays)
	v.SetDefault("consolidation.fuzzy_workers", defaults.FuzzyWorkers)
	v.SetDefault("consolidation.weights.description", defaults.Weights.Description)
	v.SetDefault("consolidation.weights.buyer", defaults.Weights.Buyer)
	v.SetDefault("consolidation.weights.value", defaults.Weights.Value)
	v.SetDefault("consolidation.weights.date", defaults.Weights.Date)
	v.SetDefault("consolidation.weights.location", defaults.Weights.Location)

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

// Engine converts the loaded configuration into the explicit engine config
// the pipeline constructor takes.
func (c *Config) Engine() (consolidate.Config, error) {
	cfg := consolidate.DefaultConfig()
	cc := c.Consolidation

	cfg.Weights = consolidate.Weights(cc.Weights)
	cfg.AutoThreshold = cc.AutoThreshold
	cfg.ReviewThreshold = cc.ReviewThreshold
	cfg.ValueTolerance = cc.ValueTolerance
	cfg.ValueCutoff = cc.ValueCutoff
	cfg.DateToleranceDays = cc.DateToleranceDays
	cfg.DateCutoffDays = cc.DateCutoffDays
	cfg.FuzzyWorkers = cc.FuzzyWorkers

	if len(cc.Priorities) > 0 {
		priorities, err := parsePriorities(cc.Priorities)
		if err != nil {
			return consolidate.Config{}, err
		}
		cfg.Priorities = priorities
	}

	return cfg, cfg.Validate()
}

// LoadPriorityOverride reads a YAML source-priority table, for rerunning a
// batch with an alternate ranking without touching the main config.
func LoadPriorityOverride(path string) (map[model.Source]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read priority override %s", path)
	}
	var table map[string]int
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, eris.Wrap(err, "config: parse priority override")
	}
	return parsePriorities(table)
}

func parsePriorities(table map[string]int) (map[model.Source]int, error) {
	out := make(map[model.Source]int, len(table))
	for name, priority := range table {
		source, err := model.ParseSource(name)
		if err != nil {
			return nil, eris.Wrap(err, "config: priority table")
		}
		if priority < 1 {
			return nil, eris.Errorf("config: priority for %s must be positive, got %d", name, priority)
		}
		out[source] = priority
	}
	return out, nil
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
