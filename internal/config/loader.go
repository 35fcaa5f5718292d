package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a JSON config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config json: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// RewriteSymbols rewrites the config file with a replacement symbol list,
// preserving every other field verbatim. It works on the raw file bytes so
// unexpanded ${VAR} references survive the rewrite.
func RewriteSymbols(path string, symbols []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}

	inner, ok := root["Gatherer"]
	if !ok {
		return fmt.Errorf("config file has no Gatherer section")
	}

	var section map[string]json.RawMessage
	if err := json.Unmarshal(inner, &section); err != nil {
		return fmt.Errorf("parse Gatherer section: %w", err)
	}

	if symbols == nil {
		symbols = []string{}
	}
	syms, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("marshal symbols: %w", err)
	}
	section["Symbols"] = syms

	newInner, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("marshal Gatherer section: %w", err)
	}
	root["Gatherer"] = newInner

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	out = append(out, '\n')

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
