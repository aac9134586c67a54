package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// Chronik
	case "chronik.urls", "chronik":
		cfg.Chronik.URLs = parseStringList(value)
	case "chronik.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Chronik.Timeout = d
	case "chronik.rps":
		rps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Chronik.RPS = rps
	case "chronik.infottl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Chronik.InfoTTL = d

	// Token cache
	case "cache.enabled", "cache":
		cfg.Cache.Enabled = parseBool(value)
	case "cache.dir":
		cfg.Cache.Dir = value

	// Address
	case "address.prefix":
		cfg.Address.Prefix = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	// Metrics
	case "metrics.addr":
		cfg.Metrics.Addr = value

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	defaults := Default(network)
	content := `# xecwallet configuration

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.xecwallet)
# datadir = ~/.xecwallet

# ============================================================================
# Chronik indexer
# ============================================================================

# Endpoints, tried in order for reads. Broadcasts go to the first one only.
` + chronikURLsLine(defaults.Chronik.URLs) + `
chronik.timeout = 10s
# Client-side requests per second (0 = unlimited)
# chronik.rps = 0
chronik.infottl = 30s

# ============================================================================
# Token metadata cache
# ============================================================================

cache.enabled = true
# cache.dir = ~/.xecwallet/` + string(network) + `/tokens

# ============================================================================
# Addresses
# ============================================================================

address.prefix = ` + defaults.Address.Prefix + `

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false

# ============================================================================
# Metrics
# ============================================================================

# Prometheus endpoint, e.g. 127.0.0.1:9464 (empty = disabled)
# metrics.addr =
`
	return os.WriteFile(path, []byte(content), 0644)
}

func chronikURLsLine(urls []string) string {
	if len(urls) == 0 {
		return "# chronik.urls = https://chronik.example.com/xec"
	}
	return "chronik.urls = " + strings.Join(urls, ",")
}
