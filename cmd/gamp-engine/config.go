// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

// loadConfig layers the viper-resolved configuration (config file plus
// GAMP_ENGINE_* environment variables) over the documented defaults.
// Durations accept Go duration strings ("30m", "24h").
func loadConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if viper.IsSet("documents_dir") {
		cfg.DocumentsDir = viper.GetString("documents_dir")
	}
	if viper.IsSet("max_concurrent") {
		cfg.MaxConcurrent = viper.GetInt("max_concurrent")
	}

	if viper.IsSet("evidence.indicators_file") {
		cfg.Evidence.IndicatorsFile = viper.GetString("evidence.indicators_file")
	}
	if viper.IsSet("evidence.negation_window") {
		cfg.Evidence.NegationWindow = viper.GetInt("evidence.negation_window")
	}

	if viper.IsSet("scoring.strong_weight") {
		cfg.Scoring.StrongWeight = viper.GetFloat64("scoring.strong_weight")
	}
	if viper.IsSet("scoring.supporting_weight") {
		cfg.Scoring.SupportingWeight = viper.GetFloat64("scoring.supporting_weight")
	}
	if viper.IsSet("scoring.exclusionary_weight") {
		cfg.Scoring.ExclusionaryWeight = viper.GetFloat64("scoring.exclusionary_weight")
	}

	if viper.IsSet("decision.threshold_1") {
		cfg.Decision.Threshold1 = viper.GetFloat64("decision.threshold_1")
	}
	if viper.IsSet("decision.threshold_3") {
		cfg.Decision.Threshold3 = viper.GetFloat64("decision.threshold_3")
	}
	if viper.IsSet("decision.threshold_4") {
		cfg.Decision.Threshold4 = viper.GetFloat64("decision.threshold_4")
	}
	if viper.IsSet("decision.threshold_5") {
		cfg.Decision.Threshold5 = viper.GetFloat64("decision.threshold_5")
	}

	if viper.IsSet("consultation.dir") {
		cfg.Consultation.Dir = viper.GetString("consultation.dir")
	}
	if viper.IsSet("consultation.timeout") {
		cfg.Consultation.Timeout = viper.GetDuration("consultation.timeout")
	}
	if viper.IsSet("consultation.poll_interval") {
		cfg.Consultation.PollInterval = viper.GetDuration("consultation.poll_interval")
	}
	if viper.IsSet("consultation.expertise_tags") {
		cfg.Consultation.ExpertiseTags = viper.GetStringSlice("consultation.expertise_tags")
	}

	if viper.IsSet("audit.dir") {
		cfg.Audit.Dir = viper.GetString("audit.dir")
	}

	if viper.IsSet("signal.enabled") {
		cfg.Signal.Enabled = viper.GetBool("signal.enabled")
	}
	if viper.IsSet("signal.endpoint") {
		cfg.Signal.Endpoint = viper.GetString("signal.endpoint")
	}
	if viper.IsSet("signal.cache_dir") {
		cfg.Signal.CacheDir = viper.GetString("signal.cache_dir")
	}
	if viper.IsSet("signal.max_retries") {
		cfg.Signal.MaxRetries = viper.GetInt("signal.max_retries")
	}
	if viper.IsSet("signal.timeout") {
		cfg.Signal.HTTPConfig.Timeout = viper.GetDuration("signal.timeout")
	}
	cfg.Signal.APIKey = secretDefault("signal-api-key", viper.GetString("signal.api_key"))

	return cfg
}

// newLogger builds the process logger. Verbose runs get development
// output; otherwise production JSON on stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}
