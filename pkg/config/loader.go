package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file over the defaults. Fields absent from
// the file keep their Default values. ${VAR} references in the file are
// substituted from the environment before parsing.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path is caller-controlled by design
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// FromEnv returns the defaults with DATASLEUTH_* overrides applied. Used when
// no config file is given.
func FromEnv() *Config {
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides layers DATASLEUTH_* environment variables over a loaded
// configuration. Only operational knobs are exposed this way; lexicons and
// threshold tuning stay file-bound.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("DATASLEUTH")
	v.AutomaticEnv()

	if v.GetString("sample_row_ceiling") != "" {
		cfg.SampleRowCeiling = v.GetInt("sample_row_ceiling")
	}
	if v.GetString("seed") != "" {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.GetString("max_clusters") != "" {
		cfg.MaxClusters = v.GetInt("max_clusters")
	}
	if v.GetString("top_anomalies") != "" {
		cfg.TopAnomalies = v.GetInt("top_anomalies")
	}
	if v.GetString("soft_budget") != "" {
		cfg.SoftBudget = v.GetDuration("soft_budget")
	}
}

// Save writes a configuration to a YAML file.
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
