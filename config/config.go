package config

import (
	"time"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the daemon configuration.
type Config struct {
	Port int

	// Chains is the set of chains the executor registry is built from.
	Chains []types.ChainConfig

	// Aggregator is the LiFi-style quote API configuration.
	Aggregator AggregatorConfig

	// FastChannel is the Yellow batch-settlement channel configuration.
	FastChannel FastChannelConfig

	// Notifier is the SMS gateway configuration. Empty credentials disable
	// notifications entirely.
	Notifier NotifierConfig

	// DBConnStr enables the settlement journal when non-empty.
	DBConnStr string

	// ConfirmTimeout bounds each confirmation wait.
	ConfirmTimeout time.Duration

	// Workers and QueueSize shape the background settlement queue.
	Workers   int
	QueueSize int
}

// AggregatorConfig configures the quote provider.
type AggregatorConfig struct {
	BaseURL       string
	APIKey        string
	Integrator    string
	Slippage      float64
	QuoteValidity time.Duration
}

// FastChannelConfig configures the off-chain settlement channel client.
type FastChannelConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NotifierConfig configures the SMS gateway client.
type NotifierConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// Load reads configuration from environment variables and an optional
// settlementd.yaml config file.
func Load() (*Config, error) {
	viper.SetConfigName("settlementd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("port", 3000)
	viper.SetDefault("aggregator.base_url", "https://li.quest/v1")
	viper.SetDefault("aggregator.integrator", "TextToChain")
	viper.SetDefault("aggregator.slippage", 0.005)
	viper.SetDefault("aggregator.quote_validity", "60s")
	viper.SetDefault("fast_channel.base_url", "http://localhost:8083")
	viper.SetDefault("fast_channel.timeout", "10s")
	viper.SetDefault("notifier.base_url", "https://api.twilio.com")
	viper.SetDefault("confirm_timeout", "120s")
	viper.SetDefault("workers", 4)
	viper.SetDefault("queue_size", 64)

	viper.SetEnvPrefix("SETTLEMENTD")
	viper.AutomaticEnv()

	// Config file is optional; env vars may carry everything.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Port: viper.GetInt("port"),
		Aggregator: AggregatorConfig{
			BaseURL:       viper.GetString("aggregator.base_url"),
			APIKey:        viper.GetString("aggregator.api_key"),
			Integrator:    viper.GetString("aggregator.integrator"),
			Slippage:      viper.GetFloat64("aggregator.slippage"),
			QuoteValidity: viper.GetDuration("aggregator.quote_validity"),
		},
		FastChannel: FastChannelConfig{
			BaseURL: viper.GetString("fast_channel.base_url"),
			Timeout: viper.GetDuration("fast_channel.timeout"),
		},
		Notifier: NotifierConfig{
			AccountSID: viper.GetString("notifier.account_sid"),
			AuthToken:  viper.GetString("notifier.auth_token"),
			FromNumber: viper.GetString("notifier.from_number"),
			BaseURL:    viper.GetString("notifier.base_url"),
		},
		DBConnStr:      viper.GetString("db_conn_str"),
		ConfirmTimeout: viper.GetDuration("confirm_timeout"),
		Workers:        viper.GetInt("workers"),
		QueueSize:      viper.GetInt("queue_size"),
	}

	var rawChains []map[string]interface{}
	if err := viper.UnmarshalKey("chains", &rawChains); err != nil {
		return nil, errors.Wrap(err, "failed to parse chains config")
	}

	for _, raw := range rawChains {
		chainType := types.EVM
		if t := stringValue(raw, "type"); t != "" {
			chainType = types.ParseChainType(t)
		}

		chain := types.ChainConfig{
			Name:           stringValue(raw, "name"),
			ChainType:      chainType,
			ChainID:        uint64Value(raw, "chain_id"),
			RpcUrl:         stringValue(raw, "rpc_url"),
			TxType:         uint64Value(raw, "tx_type"),
			WaitNBlocks:    uint64Value(raw, "wait_n_blocks"),
			PrivateKey:     viper.GetString("private_key"),
			TokenAddress:   stringValue(raw, "token_address"),
			VoucherManager: stringValue(raw, "voucher_manager"),
			SwapRouter:     stringValue(raw, "swap_router"),
			ConfirmTimeout: cfg.ConfirmTimeout,
		}
		if chain.ChainID == 0 || chain.RpcUrl == "" {
			return nil, errors.Errorf("chain %q missing chain_id or rpc_url", chain.Name)
		}
		cfg.Chains = append(cfg.Chains, chain)
	}

	if len(cfg.Chains) == 0 {
		return nil, errors.New("no chains configured")
	}
	if viper.GetString("private_key") == "" {
		return nil, errors.New("private_key not set; set SETTLEMENTD_PRIVATE_KEY or the private_key config key")
	}

	return cfg, nil
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func uint64Value(m map[string]interface{}, key string) uint64 {
	switch v := m[key].(type) {
	case int:
		return uint64(v)
	case int64:
		return uint64(v)
	case uint64:
		return v
	case float64:
		return uint64(v)
	default:
		return 0
	}
}
