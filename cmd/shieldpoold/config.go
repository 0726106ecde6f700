// config.go - Configuration management for the shielded pool daemon
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration
type Config struct {
	// Pool settings
	PoolID        string `json:"pool_id"` // hex, 32 bytes; generated when empty
	MaxTreeHeight int    `json:"max_tree_height"`

	// External prover
	VerifyingKeyPath string `json:"verifying_key_path"` // empty: accept-all verifier (local runs)

	// Listen addresses
	IndexerAddr string `json:"indexer_addr"`
	MetricsAddr string `json:"metrics_addr"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Rate limiting for the indexer surface
	RateLimitTokens   int `json:"rate_limit_tokens"`
	RateLimitRefill   int `json:"rate_limit_refill"`
	RateLimitPeriodMS int `json:"rate_limit_period_ms"`

	// Inscription publishing
	InscriptionIntervalSeconds int `json:"inscription_interval_seconds"`

	// Security
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PoolID:                     "",
		MaxTreeHeight:              20,
		VerifyingKeyPath:           "",
		IndexerAddr:                ":8545",
		MetricsAddr:                ":9090",
		LogLevel:                   "info",
		LogFile:                    "shieldpool.log",
		RateLimitTokens:            100,
		RateLimitRefill:            10,
		RateLimitPeriodMS:          100,
		InscriptionIntervalSeconds: 60,
		EnableAudit:                true,
		AuditLogPath:               "audit.log",
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	// Create default config and save it
	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PoolID != "" {
		raw, err := hex.DecodeString(c.PoolID)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("pool_id must be 32 hex-encoded bytes")
		}
	}
	if c.MaxTreeHeight < 0 || c.MaxTreeHeight > 32 {
		return fmt.Errorf("max_tree_height must be in [0,32]")
	}
	if c.IndexerAddr == "" {
		return fmt.Errorf("indexer_addr must be set")
	}
	if c.RateLimitTokens <= 0 {
		return fmt.Errorf("rate_limit_tokens must be positive")
	}
	if c.RateLimitRefill <= 0 {
		return fmt.Errorf("rate_limit_refill must be positive")
	}
	if c.RateLimitPeriodMS <= 0 {
		return fmt.Errorf("rate_limit_period_ms must be positive")
	}
	if c.InscriptionIntervalSeconds <= 0 {
		return fmt.Errorf("inscription_interval_seconds must be positive")
	}
	return nil
}

// PoolIDBytes decodes the configured pool id, or generates a fresh one.
func (c *Config) PoolIDBytes() ([32]byte, error) {
	var id [32]byte
	if c.PoolID == "" {
		return id, fmt.Errorf("pool id not set")
	}
	raw, err := hex.DecodeString(c.PoolID)
	if err != nil || len(raw) != 32 {
		return id, fmt.Errorf("pool_id must be 32 hex-encoded bytes")
	}
	copy(id[:], raw)
	return id, nil
}
