// Package config loads rdv settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TheusHen/rendezvous/rdv/directory"
	"github.com/TheusHen/rendezvous/rdv/payload"
	"github.com/TheusHen/rendezvous/rdv/session"
	"github.com/TheusHen/rendezvous/rdv/transport"
)

const DefaultFile = "rdv.yaml"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Directory DirectoryConfig
	Session   SessionConfig
	Log       LogConfig
	Server    ServerConfig
}

type DirectoryConfig struct {
	URL                string
	Transport          string
	Proxy              string
	Timeout            time.Duration
	InsecureSkipVerify bool
	// RateLimit is the number of requests per second, 0 disables limiting.
	RateLimit float64
	RateBurst int
	UserAgent string
}

type SessionConfig struct {
	Name              string
	EncodeName        bool
	Iterations        int
	PollInterval      time.Duration
	HandshakeAttempts int
	ExchangeAttempts  int
	Codec             string
}

type LogConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Listen string
	HTTP3  string
	// Metrics enables /metrics on the development server.
	Metrics bool
}

func Default() Config {
	return Config{
		Directory: DirectoryConfig{
			URL:       "http://127.0.0.1:4242",
			Transport: string(transport.KindDirect),
			Proxy:     transport.DefaultTorSocks,
			Timeout:   transport.DefaultTimeout,
			RateBurst: 1,
		},
		Session: SessionConfig{
			Name:         "rdv.session",
			EncodeName:   true,
			Iterations:   1,
			PollInterval: directory.DefaultPollInterval,
			Codec:        "raw",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Listen:  "127.0.0.1:4242",
			Metrics: true,
		},
	}
}

// File is the on-disk layout. Pointer fields distinguish "unset" from the
// zero value.
type File struct {
	Directory struct {
		URL                string        `yaml:"url"`
		Transport          string        `yaml:"transport"`
		Proxy              string        `yaml:"proxy"`
		Timeout            time.Duration `yaml:"timeout"`
		InsecureSkipVerify *bool         `yaml:"insecureSkipVerify"`
		RateLimit          float64       `yaml:"rateLimit"`
		RateBurst          int           `yaml:"rateBurst"`
		UserAgent          string        `yaml:"userAgent"`
	} `yaml:"directory"`
	Session struct {
		Name              string        `yaml:"name"`
		EncodeName        *bool         `yaml:"encodeName"`
		Iterations        int           `yaml:"iterations"`
		PollInterval      time.Duration `yaml:"pollInterval"`
		HandshakeAttempts int           `yaml:"handshakeAttempts"`
		ExchangeAttempts  int           `yaml:"exchangeAttempts"`
		Codec             string        `yaml:"codec"`
	} `yaml:"session"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Server struct {
		Listen  string `yaml:"listen"`
		HTTP3   string `yaml:"http3"`
		Metrics *bool  `yaml:"metrics"`
	} `yaml:"server"`
}

// Load reads path over the defaults and applies environment overrides.
// With an empty path, DefaultFile is used when it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
		Merge(&cfg, f)
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	ApplyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

func Merge(dst *Config, src File) {
	d := src.Directory
	if d.URL != "" {
		dst.Directory.URL = d.URL
	}
	if d.Transport != "" {
		dst.Directory.Transport = d.Transport
	}
	if d.Proxy != "" {
		dst.Directory.Proxy = d.Proxy
	}
	if d.Timeout != 0 {
		dst.Directory.Timeout = d.Timeout
	}
	if d.InsecureSkipVerify != nil {
		dst.Directory.InsecureSkipVerify = *d.InsecureSkipVerify
	}
	if d.RateLimit != 0 {
		dst.Directory.RateLimit = d.RateLimit
	}
	if d.RateBurst != 0 {
		dst.Directory.RateBurst = d.RateBurst
	}
	if d.UserAgent != "" {
		dst.Directory.UserAgent = d.UserAgent
	}

	s := src.Session
	if s.Name != "" {
		dst.Session.Name = s.Name
	}
	if s.EncodeName != nil {
		dst.Session.EncodeName = *s.EncodeName
	}
	if s.Iterations != 0 {
		dst.Session.Iterations = s.Iterations
	}
	if s.PollInterval != 0 {
		dst.Session.PollInterval = s.PollInterval
	}
	if s.HandshakeAttempts != 0 {
		dst.Session.HandshakeAttempts = s.HandshakeAttempts
	}
	if s.ExchangeAttempts != 0 {
		dst.Session.ExchangeAttempts = s.ExchangeAttempts
	}
	if s.Codec != "" {
		dst.Session.Codec = s.Codec
	}

	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}

	if src.Server.Listen != "" {
		dst.Server.Listen = src.Server.Listen
	}
	if src.Server.HTTP3 != "" {
		dst.Server.HTTP3 = src.Server.HTTP3
	}
	if src.Server.Metrics != nil {
		dst.Server.Metrics = *src.Server.Metrics
	}
}

// ApplyEnvOverrides applies the RDV_* variables. Malformed numbers are
// ignored. Setting RDV_PROXY on a direct transport switches it to SOCKS5.
func ApplyEnvOverrides(cfg *Config) {
	if v := env("RDV_DIRECTORY_URL"); v != "" {
		cfg.Directory.URL = v
	}
	if v := env("RDV_TRANSPORT"); v != "" {
		cfg.Directory.Transport = v
	}
	if v := env("RDV_PROXY"); v != "" {
		cfg.Directory.Proxy = v
		if cfg.Directory.Transport == "" || cfg.Directory.Transport == string(transport.KindDirect) {
			cfg.Directory.Transport = string(transport.KindSOCKS5)
		}
	}
	if v := env("RDV_SESSION_NAME"); v != "" {
		cfg.Session.Name = v
	}
	if v := env("RDV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("RDV_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.Iterations = n
		}
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (c Config) Validate() error {
	if c.Directory.URL == "" {
		return fmt.Errorf("%w: directory url is empty", ErrInvalid)
	}
	if _, err := transport.ParseKind(c.Directory.Transport); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := payload.Lookup(c.Session.Codec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Session.Name == "" {
		return fmt.Errorf("%w: session name is empty", ErrInvalid)
	}
	if c.Session.Iterations < 0 {
		return fmt.Errorf("%w: negative iterations", ErrInvalid)
	}
	if c.Session.Iterations > session.MaxIterations {
		return fmt.Errorf("%w: more than %d iterations", ErrInvalid, session.MaxIterations)
	}
	if c.Directory.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalid)
	}
	return nil
}

// TransportOptions returns the HTTP client settings for the directory.
func (d DirectoryConfig) TransportOptions() (transport.Options, error) {
	kind, err := transport.ParseKind(d.Transport)
	if err != nil {
		return transport.Options{}, err
	}
	return transport.Options{
		Kind:               kind,
		ProxyAddr:          d.Proxy,
		Timeout:            d.Timeout,
		InsecureSkipVerify: d.InsecureSkipVerify,
	}, nil
}

// HandshakePoll returns the polling budget of the handshake wait. Zero
// attempts leave the per-role default in place.
func (s SessionConfig) HandshakePoll() directory.PollOptions {
	return directory.PollOptions{MaxAttempts: s.HandshakeAttempts, Interval: s.PollInterval}
}

func (s SessionConfig) ExchangePoll() directory.PollOptions {
	return directory.PollOptions{MaxAttempts: s.ExchangeAttempts, Interval: s.PollInterval}
}

// Save writes cfg to path in the File layout.
func Save(path string, cfg Config) error {
	var f File
	f.Directory.URL = cfg.Directory.URL
	f.Directory.Transport = cfg.Directory.Transport
	f.Directory.Proxy = cfg.Directory.Proxy
	f.Directory.Timeout = cfg.Directory.Timeout
	f.Directory.InsecureSkipVerify = &cfg.Directory.InsecureSkipVerify
	f.Directory.RateLimit = cfg.Directory.RateLimit
	f.Directory.RateBurst = cfg.Directory.RateBurst
	f.Directory.UserAgent = cfg.Directory.UserAgent
	f.Session.Name = cfg.Session.Name
	f.Session.EncodeName = &cfg.Session.EncodeName
	f.Session.Iterations = cfg.Session.Iterations
	f.Session.PollInterval = cfg.Session.PollInterval
	f.Session.HandshakeAttempts = cfg.Session.HandshakeAttempts
	f.Session.ExchangeAttempts = cfg.Session.ExchangeAttempts
	f.Session.Codec = cfg.Session.Codec
	f.Log.Level = cfg.Log.Level
	f.Log.Format = cfg.Log.Format
	f.Server.Listen = cfg.Server.Listen
	f.Server.HTTP3 = cfg.Server.HTTP3
	f.Server.Metrics = &cfg.Server.Metrics

	data, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
