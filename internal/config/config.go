package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the ishell configuration loaded from ~/.ishell/config.yaml.
type Config struct {
	Shell     ShellConfig     `yaml:"shell"`
	Assistant AssistantConfig `yaml:"assistant"`
	Keys      KeysConfig      `yaml:"keys"`
}

// ShellConfig names the OS shell child. Command defaults to $SHELL.
type ShellConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// AssistantConfig names the AI-assistant REPL child. The core never reads
// the env vars it passes through; they exist only for the assistant's own
// submodules (bookmark store, remote agent client, etc.), which are out of
// scope for this module.
type AssistantConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// KeysConfig overrides the multiplexer's command-prefix byte.
type KeysConfig struct {
	// CommandPrefix is a single-character string naming the control byte
	// that opens the one-shot command prefix. Defaults to "^B" (0x02).
	CommandPrefix string `yaml:"command_prefix,omitempty"`
}

// EnvPassthrough lists the environment variables forwarded, unmodified, to
// the assistant child. The core does not read any of these itself; they are
// documented here only so Spawn knows what to carry through.
var EnvPassthrough = []string{
	"ISHELL_AGENCY_URL",
	"ISHELL_TOKEN",
	"SSH_IP",
	"SSH_PORT",
	"USER",
}

// ConfigDir returns the ishell configuration directory (~/.ishell/).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ishell")
	}
	return filepath.Join(home, ".ishell")
}

// Load reads the config from ~/.ishell/config.yaml.
// If the file does not exist, it returns a zero-value Config with no error.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.yaml"))
}

// LoadFrom reads the config from the given path.
// If the file does not exist, it returns a zero-value Config with no error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Keys.CommandPrefix != "" && len([]rune(c.Keys.CommandPrefix)) != 1 {
		return fmt.Errorf("keys.command_prefix: must be exactly one character, got %q", c.Keys.CommandPrefix)
	}
	return nil
}

// CommandPrefixByte returns the configured command-prefix byte, defaulting
// to ^B (0x02) when unset.
func (c *Config) CommandPrefixByte() byte {
	if c.Keys.CommandPrefix == "" {
		return 0x02
	}
	return []byte(c.Keys.CommandPrefix)[0]
}
