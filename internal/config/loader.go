package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultFeeTier      = 500
	defaultPollInterval = time.Second
	defaultMaxWait      = 180 * time.Second
)

// Load reads a chain profile from a YAML file. ${VAR} references are expanded
// from the environment so RPC keys can stay out of the file.
func Load(path string) (*ChainProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*ChainProfile, error) {
	var p ChainProfile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &p); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if p.FeeTier == 0 {
		p.FeeTier = defaultFeeTier
	}
	if p.Confirmation.PollInterval == 0 {
		p.Confirmation.PollInterval = defaultPollInterval
	}
	if p.Confirmation.MaxWait == 0 {
		p.Confirmation.MaxWait = defaultMaxWait
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid chain profile: %w", err)
	}
	return &p, nil
}
