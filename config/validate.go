package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Validate checks the config for obvious operator mistakes. URLs are
// normalised in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}

	if len(cfg.Chronik.URLs) == 0 {
		return fmt.Errorf("chronik.urls requires at least one endpoint")
	}
	if err := validateURLs(cfg.Chronik.URLs, "chronik.urls"); err != nil {
		return err
	}
	if cfg.Chronik.Timeout <= 0 {
		return fmt.Errorf("chronik.timeout must be positive")
	}
	if cfg.Chronik.RPS < 0 {
		return fmt.Errorf("chronik.rps must not be negative")
	}
	if cfg.Chronik.InfoTTL < 0 {
		return fmt.Errorf("chronik.infottl must not be negative")
	}

	prefix := cfg.Address.Prefix
	if prefix == "" || prefix != strings.ToLower(prefix) || strings.ContainsAny(prefix, ": ") {
		return fmt.Errorf("address.prefix must be a non-empty lowercase prefix without ':'")
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr: %w", err)
		}
	}
	return nil
}

func validateURLs(urls []string, field string) error {
	seen := make(map[string]struct{}, len(urls))
	for i, raw := range urls {
		s := strings.TrimRight(strings.TrimSpace(raw), "/")
		if s == "" {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s[%d] must be an http(s) URL, got %q", field, i, raw)
		}
		if _, ok := seen[s]; ok {
			return fmt.Errorf("%s has duplicate endpoint %q", field, s)
		}
		seen[s] = struct{}{}
		urls[i] = s
	}
	return nil
}
