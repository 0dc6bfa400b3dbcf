package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

const projectConfigPath = ".condc/config.yaml"

// ProjectConfig holds the contents of .condc/config.yaml.
type ProjectConfig struct {
	Platform string   `yaml:"platform"`
	Include  []string `yaml:"include"`
	Exclude  []string `yaml:"exclude"`
	Marker   string   `yaml:"marker"`
	OutDir   string   `yaml:"out_dir"`
}

// loadProjectConfig reads .condc/config.yaml from the current directory.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile(projectConfigPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveString applies the fallback chain: explicit flag value, then the
// project config value, then the built-in default.
func resolveString(flagValue, configValue, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	return def
}

// resolveList prefers the flag-provided list, then the config list, and
// returns nil otherwise so downstream defaults apply.
func resolveList(flagValue, configValue []string) []string {
	if len(flagValue) > 0 {
		return flagValue
	}
	if len(configValue) > 0 {
		return configValue
	}
	return nil
}
