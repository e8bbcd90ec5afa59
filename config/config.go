// Package config loads the YAML configuration of the offset resolver. A user
// file is overlaid on the embedded defaults, then the environment wins.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cs2mem/convar"
	"cs2mem/schema"
	"cs2mem/session"
	"cs2mem/signature"

	"gopkg.in/yaml.v3"
)

// EnvBackend overrides the configured backend
const EnvBackend = "CS2MEM_BACKEND"

//go:embed default.yaml
var defaultDocument []byte

type MemProcFS struct {
	MountPoint string `yaml:"mount_point"`
}

type Config struct {
	ProcessName   string                 `yaml:"process_name"`
	Backend       string                 `yaml:"backend"`
	MemProcFS     MemProcFS              `yaml:"memprocfs"`
	SchemaClasses []string               `yaml:"schema_classes"`
	Signatures    []signature.Definition `yaml:"signatures"`
	Schema        schema.Layout          `yaml:"schema"`
	Convars       convar.Config          `yaml:"convars"`
}

// Default returns the embedded configuration
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultDocument, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults overlaid with the file at path, when path is not
// empty, and with the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := mergeFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if backend := os.Getenv(EnvBackend); backend != "" {
		cfg.Backend = backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// BackendKind returns the parsed backend
func (c *Config) BackendKind() (session.Backend, error) {
	b, ok := session.ParseBackend(c.Backend)
	if !ok {
		return "", fmt.Errorf("invalid backend %q, must be one of: %s, %s", c.Backend, session.BackendIntrospection, session.BackendDirectScan)
	}
	return b, nil
}

func (c *Config) Validate() error {
	if c.ProcessName == "" {
		return errors.New("process_name is required")
	}
	if _, err := c.BackendKind(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Signatures))
	for _, d := range c.Signatures {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("signature %s defined twice", d.Name)
		}
		seen[d.Name] = true
	}

	if err := c.Schema.System.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := c.Convars.List.Validate(); err != nil {
		return fmt.Errorf("convars: %w", err)
	}
	if c.Convars.EntryStride == 0 || c.Schema.FieldStride == 0 {
		return errors.New("entry_stride and field_stride must be non-zero")
	}
	return nil
}
