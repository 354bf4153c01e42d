// Package config loads service configuration from an optional YAML file and
// environment variables, environment taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       string        `mapstructure:"rate_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig represents the external data sources the engine queries.
type UpstreamConfig struct {
	PriceIndexURL string        `mapstructure:"price_index_url"`
	PairIndexURL  string        `mapstructure:"pair_index_url"`
	ListenerURL   string        `mapstructure:"listener_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// OracleConfig represents the reference price cache behavior.
type OracleConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	DefaultPriceUSD float64       `mapstructure:"default_price_usd"`
}

// LiquidityConfig represents liquidity resolution fallbacks. The two fallback
// constants must stay distinct so "no pool exists" and "indexer unreachable"
// remain distinguishable downstream.
type LiquidityConfig struct {
	ReferenceAssetAddress string  `mapstructure:"reference_asset_address"`
	UnknownPairUSD        float64 `mapstructure:"unknown_pair_usd"`
	DegradedUSD           float64 `mapstructure:"degraded_usd"`
}

// ChatConfig represents the optional LLM upstream for the assistant.
type ChatConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config represents the application configuration
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Tracing   bool            `mapstructure:"tracing"`
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Liquidity LiquidityConfig `mapstructure:"liquidity"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

// LoadConfig loads configuration, reading config.yaml when present and
// overlaying MEVSHIELD_* environment variables.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("MEVSHIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine, env and defaults cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("tracing", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit", "100-M")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("upstream.price_index_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("upstream.pair_index_url", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2")
	v.SetDefault("upstream.listener_url", "http://localhost:3001")
	v.SetDefault("upstream.timeout", 3*time.Second)

	v.SetDefault("oracle.cache_ttl", 60*time.Second)
	v.SetDefault("oracle.default_price_usd", 2000.0)

	// WETH mainnet
	v.SetDefault("liquidity.reference_asset_address", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	v.SetDefault("liquidity.unknown_pair_usd", 150000.0)
	v.SetDefault("liquidity.degraded_usd", 50000.0)

	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("chat.model", "llama-3.3-70b-versatile")
	v.SetDefault("chat.timeout", 10*time.Second)
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Oracle.CacheTTL <= 0 {
		return fmt.Errorf("oracle.cache_ttl must be positive")
	}
	if c.Oracle.DefaultPriceUSD <= 0 {
		return fmt.Errorf("oracle.default_price_usd must be positive")
	}
	if c.Liquidity.UnknownPairUSD == c.Liquidity.DegradedUSD {
		return fmt.Errorf("liquidity fallback constants must differ (both %v)", c.Liquidity.DegradedUSD)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
