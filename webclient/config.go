package webclient

import (
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/hairyhenderson/go-webfs/internal/env"
	"gopkg.in/yaml.v3"
)

// DefaultConnectTimeout is used when a Config has no ConnectTimeout set.
const DefaultConnectTimeout = 1000 * time.Millisecond

// Config describes how to reach a remote listing server.
type Config struct {
	// BaseURL is the http or https URL all fetched paths are relative to.
	BaseURL string `yaml:"base_url"`

	// Proxy is an optional HTTP proxy given as host[:port]. The port
	// defaults to 80.
	Proxy string `yaml:"proxy"`

	// ConnectTimeout bounds connection set-up. Zero means
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReadTimeout bounds each individual read from the connection. Zero
	// means no limit.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// Insecure disables certificate verification for https endpoints.
	Insecure bool `yaml:"insecure"`
}

// LoadConfig reads a YAML-encoded Config from the named file in fsys.
// Durations use Go syntax ("1s", "250ms").
func LoadConfig(fsys fs.FS, name string) (Config, error) {
	cfg := Config{}

	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", name, err)
	}

	return cfg, nil
}

// ConfigFromEnv builds a Config (without a BaseURL) from WEBFS_PROXY,
// WEBFS_CONNECT_TIMEOUT, WEBFS_READ_TIMEOUT and WEBFS_INSECURE. Each variable
// may instead be given as a file reference with the _FILE suffix, resolved in
// fsys.
func ConfigFromEnv(fsys fs.FS) (Config, error) {
	cfg := Config{
		Proxy: env.GetenvFS(fsys, "WEBFS_PROXY"),
	}

	var err error

	cfg.ConnectTimeout, err = env.DurationFS(fsys, "WEBFS_CONNECT_TIMEOUT", DefaultConnectTimeout)
	if err != nil {
		return cfg, err
	}

	cfg.ReadTimeout, err = env.DurationFS(fsys, "WEBFS_READ_TIMEOUT", 0)
	if err != nil {
		return cfg, err
	}

	cfg.Insecure, err = env.BoolFS(fsys, "WEBFS_INSECURE", false)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Merge returns c with every zero-valued field taken from other.
func (c Config) Merge(other Config) Config {
	if c.BaseURL == "" {
		c.BaseURL = other.BaseURL
	}

	if c.Proxy == "" {
		c.Proxy = other.Proxy
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = other.ConnectTimeout
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = other.ReadTimeout
	}

	c.Insecure = c.Insecure || other.Insecure

	return c
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}

	return c.ConnectTimeout
}

// proxyURL parses the host[:port] proxy setting.
func (c Config) proxyURL() *url.URL {
	hostport := strings.TrimSpace(c.Proxy)
	if hostport == "" {
		return nil
	}

	if _, _, err := net.SplitHostPort(hostport); err != nil {
		hostport = net.JoinHostPort(hostport, "80")
	}

	return &url.URL{Scheme: "http", Host: hostport}
}
