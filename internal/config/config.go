package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"cpamm/internal/model"
)

// Config holds the apply command settings loaded from flags, env, or config file.
type Config struct {
	AppID             uint64
	In                string
	Out               string
	Results           string
	StateDir          string
	Genesis           string
	FeeCollector      string
	FeeManager        string
	FeeSetter         string
	PGDSN             string
	BatchSize         uint64
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":         uint64(100),
		"out":                "./data/logs.jsonl",
		"results":            "./data/results.jsonl",
		"state-dir":          "./data/state",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"log-level":          "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppID:             v.GetUint64("app-id"),
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		Results:           v.GetString("results"),
		StateDir:          v.GetString("state-dir"),
		Genesis:           v.GetString("genesis"),
		FeeCollector:      v.GetString("fee-collector"),
		FeeManager:        v.GetString("fee-manager"),
		FeeSetter:         v.GetString("fee-setter"),
		PGDSN:             v.GetString("pg-dsn"),
		BatchSize:         v.GetUint64("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Roles parses the initial role identities. Unset roles stay zero until a
// persisted config or a role change assigns them.
func (c Config) Roles() (model.GlobalConfig, error) {
	var out model.GlobalConfig
	var err error
	if out.FeeCollector, err = ParseAddress("fee-collector", c.FeeCollector); err != nil {
		return model.GlobalConfig{}, err
	}
	if out.FeeManager, err = ParseAddress("fee-manager", c.FeeManager); err != nil {
		return model.GlobalConfig{}, err
	}
	if out.FeeSetter, err = ParseAddress("fee-setter", c.FeeSetter); err != nil {
		return model.GlobalConfig{}, err
	}
	return out, nil
}

// ParseAddress converts a hex address option. A blank value is the zero address.
func ParseAddress(name, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, value)
	}
	return common.HexToAddress(value), nil
}
