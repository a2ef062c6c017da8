package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	zmq "github.com/wippyai/zmq-runtime"
	"github.com/wippyai/zmq-runtime/engine/loopback"
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/native/libzmq"
)

// Config describes a shell session: the engine and the sockets created at start.
type Config struct {
	Engine    string         `yaml:"engine"`
	Version   string         `yaml:"version"`
	IOThreads int            `yaml:"io_threads"`
	Sockets   []SocketConfig `yaml:"sockets"`
}

// SocketConfig declares one named socket.
type SocketConfig struct {
	Options   map[string]string `yaml:"options"`
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	Identity  string            `yaml:"identity"`
	Bind      []string          `yaml:"bind"`
	Connect   []string          `yaml:"connect"`
	Subscribe []string          `yaml:"subscribe"`
}

// autoIdentity asks for a generated socket identity.
const autoIdentity = "auto"

func defaultConfig() *Config {
	return &Config{Engine: "loopback", IOThreads: 1}
}

// LoadConfig reads a YAML session file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML session description.
func ParseConfig(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine {
	case "loopback", "libzmq":
	default:
		return fmt.Errorf("unknown engine %q (want loopback or libzmq)", c.Engine)
	}
	if c.Version != "" {
		if c.Engine != "loopback" {
			return fmt.Errorf("version applies to the loopback engine only")
		}
		if _, err := native.ParseVersion(c.Version); err != nil {
			return err
		}
	}
	if c.IOThreads < 0 {
		return fmt.Errorf("io_threads must not be negative")
	}

	seen := make(map[string]bool, len(c.Sockets))
	for i, s := range c.Sockets {
		if s.Name == "" {
			return fmt.Errorf("socket %d: missing name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("socket %s: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if _, ok := zmq.ParseSocketType(s.Type); !ok {
			return fmt.Errorf("socket %s: unknown type %q", s.Name, s.Type)
		}
	}
	return nil
}

// Library opens the engine the config names.
func (c *Config) Library() (native.Lib, error) {
	if c.Engine == "libzmq" {
		return libzmq.Open()
	}
	if c.Version == "" {
		return loopback.New(), nil
	}
	v, err := native.ParseVersion(c.Version)
	if err != nil {
		return nil, err
	}
	return loopback.New(loopback.WithVersion(v.Major, v.Minor, v.Patch)), nil
}

// identity resolves the configured identity, generating one for "auto".
func (s SocketConfig) identity() string {
	if strings.EqualFold(s.Identity, autoIdentity) {
		return uuid.NewString()
	}
	return s.Identity
}
