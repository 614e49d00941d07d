package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WriteConfig writes a config to a YAML file
func WriteConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadConfig reads a YAML file on top of the defaults, so a file only needs
// the keys it changes. The default freezes belong to the default segments:
// a file with its own segments and no freezes or curve plays linearly.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if _, ok := keys["segments"]; ok {
		_, freezes := keys["freezes"]
		_, curve := keys["curve"]
		if !freezes && !curve {
			cfg.Freezes = nil
		}
	}

	return cfg, nil
}
