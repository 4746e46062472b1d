package pilotserver

import (
	"flag"
	"fmt"
	"os"
)

// AppConfig holds server-level runtime configuration loaded from env.
type AppConfig struct {
	Host       string
	Port       int
	ConfigFile string
	Locale     string
}

// LoadAppConfig reads configuration from CLI flags and environment
// variables. CLI flags take precedence over env vars.
func LoadAppConfig() *AppConfig {
	host := flag.String("host", "", "Listen host (env: HOST, default: 0.0.0.0)")
	port := flag.Int("port", 0, "Listen port (env: PORT, default: 8080)")
	configFile := flag.String("config", "", "Path to model.yaml config file (env: PILOT_CONFIG)")
	locale := flag.String("locale", "", "System prompt locale, en or cn (env: PILOT_LOCALE, default: en)")
	flag.Parse()

	cfg := &AppConfig{
		Host:       envOr("HOST", "0.0.0.0"),
		Port:       envIntOr("PORT", 8080),
		ConfigFile: os.Getenv("PILOT_CONFIG"),
		Locale:     os.Getenv("PILOT_LOCALE"),
	}

	// CLI flags override env
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *configFile != "" {
		cfg.ConfigFile = *configFile
	}
	if *locale != "" {
		cfg.Locale = *locale
	}

	return cfg
}

// envOr returns the environment variable or a default value.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envIntOr returns the environment variable as int or a default value.
func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
