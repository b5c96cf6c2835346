package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	sideAHost, sideBHost string
	sideAPort, sideBPort int

	peripheralID   uint32
	clientID       string
	clientPassword string

	tcpEnabled  bool
	tcpPort     int
	tcpSecure   bool
	tcpCertFile string
	tcpKeyFile  string

	wsEnabled  bool
	wsPort     int
	wsPath     string
	wsSecure   bool
	wsCertFile string
	wsKeyFile  string

	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	mdnsEnable      bool
	mdnsName        string
	maxClients      int
}

// loadConfig builds the configuration strictly from the environment, per
// the spec's "configuration is environment-only" contract; defaults match
// spec.md §6 and SPEC_FULL.md §6.
func loadConfig() (*appConfig, error) {
	cfg := &appConfig{
		sideAHost:      getenv("CTI_SERVER_SIDE_A_ADDRESS", "localhost"),
		sideBHost:      getenv("CTI_SERVER_SIDE_B_ADDRESS", "localhost"),
		peripheralID:   5000,
		clientID:       getenv("CTI_CLIENT_ID", "ctmonitor"),
		clientPassword: getenv("CTI_CLIENT_PASSWORD", ""),
		tcpPort:        5110,
		tcpCertFile:    getenv("TCP_ACCEPTOR_SECURE_CERT_FILE", "./res/ssl/server.crt"),
		tcpKeyFile:     getenv("TCP_ACCEPTOR_SECURE_KEY_FILE", "./res/ssl/server.key"),
		wsPort:         8085,
		wsPath:         getenv("WEBSOCKET_ACCEPTOR_PATH", "/ctmonitor"),
		wsCertFile:     getenv("WEBSOCKET_ACCEPTOR_SECURE_CERT_FILE", "./res/ssl/server.crt"),
		wsKeyFile:      getenv("WEBSOCKET_ACCEPTOR_SECURE_KEY_FILE", "./res/ssl/server.key"),
		logFormat:      getenv("LOG_FORMAT", "text"),
		logLevel:       getenv("LOG_LEVEL", "info"),
		metricsAddr:    getenv("METRICS_ADDR", ""),
		mdnsName:       getenv("MDNS_NAME", ""),
	}

	var err error
	if cfg.sideAPort, err = getenvInt("CTI_SERVER_SIDE_A_PORT", 42027); err != nil {
		return nil, err
	}
	if cfg.sideBPort, err = getenvInt("CTI_SERVER_SIDE_B_PORT", 42027); err != nil {
		return nil, err
	}
	if n, err := getenvInt("CTI_PERIPHERAL_ID", 5000); err != nil {
		return nil, err
	} else {
		cfg.peripheralID = uint32(n)
	}
	if cfg.tcpEnabled, err = getenvBool("TCP_ACCEPTOR_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.tcpPort, err = getenvInt("TCP_ACCEPTOR_PORT", 5110); err != nil {
		return nil, err
	}
	if cfg.tcpSecure, err = getenvBool("TCP_ACCEPTOR_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.wsEnabled, err = getenvBool("WEBSOCKET_ACCEPTOR_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.wsPort, err = getenvInt("WEBSOCKET_ACCEPTOR_PORT", 8085); err != nil {
		return nil, err
	}
	if cfg.wsSecure, err = getenvBool("WEBSOCKET_ACCEPTOR_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.logMetricsEvery, err = getenvDuration("LOG_METRICS_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.mdnsEnable, err = getenvBool("MDNS_ENABLE", false); err != nil {
		return nil, err
	}
	if cfg.maxClients, err = getenvInt("MAX_CLIENTS", 0); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s", c.logLevel)
	}
	if c.maxClients < 0 {
		return fmt.Errorf("MAX_CLIENTS must be >= 0")
	}
	if !c.tcpEnabled && !c.wsEnabled {
		return fmt.Errorf("at least one of TCP_ACCEPTOR_ENABLED or WEBSOCKET_ACCEPTOR_ENABLED must be true")
	}
	return nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
