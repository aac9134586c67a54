package config

import "time"

// DefaultChronikURLs are the public Chronik endpoints, in fallback order.
var DefaultChronikURLs = []string{
	"https://chronik.fabien.cash/xec",
	"https://chronik.pay2stay.com/xec",
	"https://chronik.be.cash/xec",
}

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Chronik: ChronikConfig{
			URLs:    append([]string(nil), DefaultChronikURLs...),
			Timeout: 10 * time.Second,
			InfoTTL: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Address: AddressConfig{
			Prefix: "ecash",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet. There are
// no public testnet indexers, so chronik.urls must be set by the operator.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Chronik.URLs = nil
	cfg.Address.Prefix = "ectest"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
