package config

import (
	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In        string
	Out       string
	Errors    string
	StateDir  string
	CacheSize int
	LogLevel  string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":        "./data/typed_events.jsonl",
		"errors":     "./data/decode_errors.jsonl",
		"cache-size": 4096,
		"log-level":  "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		In:        v.GetString("in"),
		Out:       v.GetString("out"),
		Errors:    v.GetString("errors"),
		StateDir:  v.GetString("state-dir"),
		CacheSize: v.GetInt("cache-size"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
