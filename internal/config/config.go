package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// WatchConfig holds settings for the continuous monitor, merged from
// flags, POOLWATCH_* environment variables, and an optional config file.
type WatchConfig struct {
	RPCURL            string
	Contract          string
	PollInterval      time.Duration
	Span              uint64
	MaxRetries        int
	RetryBackoff      time.Duration
	ExplorerURL       string
	ExplorerAPIKey    string
	TxBaseURL         string
	TelegramToken     string
	TelegramChannel   string
	TelegramDryRun    bool
	Checkpoint        string
	CheckpointEnabled bool
	PgDSN             string
	Out               string
	LogLevel          string
}

// ScanConfig holds settings for the one-shot range scan.
type ScanConfig struct {
	RPCURL         string
	Contract       string
	FromBlock      uint64
	ToBlock        uint64
	Span           uint64
	MaxRetries     int
	RetryBackoff   time.Duration
	ExplorerURL    string
	ExplorerAPIKey string
	TxBaseURL      string
	Out            string
	LogLevel       string
}

// LoadWatch merges config file, environment, and flags into WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return WatchConfig{}, err
	}

	v.SetDefault("poll-interval", 12*time.Second)
	v.SetDefault("span", uint64(1000))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 2*time.Second)
	v.SetDefault("tx-base-url", "https://basescan.org")
	v.SetDefault("telegram-channel", "@base_tokenbot")
	v.SetDefault("checkpoint", "")
	v.SetDefault("log-level", "info")

	return WatchConfig{
		RPCURL:            v.GetString("rpc"),
		Contract:          v.GetString("contract"),
		PollInterval:      v.GetDuration("poll-interval"),
		Span:              v.GetUint64("span"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		ExplorerURL:       v.GetString("explorer-url"),
		ExplorerAPIKey:    v.GetString("explorer-api-key"),
		TxBaseURL:         v.GetString("tx-base-url"),
		TelegramToken:     v.GetString("telegram-token"),
		TelegramChannel:   v.GetString("telegram-channel"),
		TelegramDryRun:    v.GetBool("telegram-dry-run"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetString("checkpoint") != "",
		PgDSN:             v.GetString("pg-dsn"),
		Out:               v.GetString("out"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}

// LoadScan merges config file, environment, and flags into ScanConfig.
func LoadScan(cfgFile string, flags *pflag.FlagSet) (ScanConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ScanConfig{}, err
	}

	v.SetDefault("span", uint64(1000))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 2*time.Second)
	v.SetDefault("tx-base-url", "https://basescan.org")
	v.SetDefault("log-level", "info")

	return ScanConfig{
		RPCURL:         v.GetString("rpc"),
		Contract:       v.GetString("contract"),
		FromBlock:      v.GetUint64("from"),
		ToBlock:        v.GetUint64("to"),
		Span:           v.GetUint64("span"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		ExplorerURL:    v.GetString("explorer-url"),
		ExplorerAPIKey: v.GetString("explorer-api-key"),
		TxBaseURL:      v.GetString("tx-base-url"),
		Out:            v.GetString("out"),
		LogLevel:       v.GetString("log-level"),
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
