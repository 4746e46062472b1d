package main

import (
	"log"

	pilotserver "pilot_server"
)

func main() {
	cfg := pilotserver.LoadAppConfig()

	opts := []pilotserver.Option{
		pilotserver.WithHost(cfg.Host),
		pilotserver.WithPort(cfg.Port),
	}
	if cfg.Locale != "" {
		opts = append(opts, pilotserver.WithLocale(cfg.Locale))
	}
	if cfg.ConfigFile != "" {
		opts = append(opts, pilotserver.WithConfigFile(cfg.ConfigFile))
	}

	s := pilotserver.New(opts...)
	if err := s.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
