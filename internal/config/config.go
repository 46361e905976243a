package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/modbuilder/internal/domain/module"
)

// Config holds everything a build needs besides the project root.
type Config struct {
	// Module is the module identity written into module.prop.
	Module ModuleSettings `yaml:"module"`
	// Service describes the daemon and SELinux principals used by the scripts.
	Service ServiceSettings `yaml:"service"`
	// Paths optionally overrides the default directory layout.
	Paths PathSettings `yaml:"paths"`
	// LogLevel is the default log level; the --log-level flag wins over it.
	LogLevel string `yaml:"log_level,omitempty"`
}

// ModuleSettings is the YAML form of module.Package.
type ModuleSettings struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	VersionCode string `yaml:"version_code"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	ArchiveName string `yaml:"archive_name"`
}

// ServiceSettings is the YAML form of module.Service.
type ServiceSettings struct {
	Binary        string `yaml:"binary"`
	ClientDomain  string `yaml:"client_domain"`
	ServiceType   string `yaml:"service_type"`
	ServiceDomain string `yaml:"service_domain"`
	// LogTag defaults to the module id when empty.
	LogTag string `yaml:"log_tag,omitempty"`
}

// PathSettings overrides directories; relative values resolve against the project root.
type PathSettings struct {
	Static string `yaml:"static,omitempty"`
	Out    string `yaml:"out,omitempty"`
	Build  string `yaml:"build,omitempty"`
}

const (
	// DefaultConfigFilename is looked up in the project root when --config is not given.
	DefaultConfigFilename = "modbuilder.yaml"

	// DefaultFilePermissions is the mode of a config file written by Save.
	DefaultFilePermissions = 0o644
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrInvalidValue is wrapped by every validation failure.
	ErrInvalidValue = errors.New("invalid configuration value")

	moduleIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]+$`)
	identPattern    = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)
)

// Default returns the settings of the stock camera module.
func Default() *Config {
	return &Config{
		Module: ModuleSettings{
			ID:          "sony_camera",
			Name:        "Sony Camera",
			Version:     "1.0",
			VersionCode: "1",
			Author:      "Sony Camera Port Team",
			Description: "Sony Camera for LineageOS",
			ArchiveName: "sony_camera_magisk",
		},
		Service: ServiceSettings{
			Binary:        "cacaoserver",
			ClientDomain:  "priv_app",
			ServiceType:   "cacaoserver_service",
			ServiceDomain: "cacaoserver",
		},
	}
}

// Load reads configuration from path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings %s: %w", path, err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns validated defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()

		return cfg, Validate(cfg)
	}

	return cfg, err
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and rejects values unsafe for template interpolation.
// An empty service log tag is filled with the module id.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	m := &cfg.Module

	if !moduleIDPattern.MatchString(m.ID) {
		return fmt.Errorf("module.id %q: %w", m.ID, ErrInvalidValue)
	}

	if n, err := strconv.Atoi(m.VersionCode); err != nil || n < 0 {
		return fmt.Errorf("module.version_code %q: %w", m.VersionCode, ErrInvalidValue)
	}

	texts := []struct {
		name, value string
	}{
		{"module.name", m.Name},
		{"module.version", m.Version},
		{"module.author", m.Author},
		{"module.description", m.Description},
		{"module.archive_name", m.ArchiveName},
	}
	for _, field := range texts {
		if err := validateText(field.name, field.value); err != nil {
			return err
		}
	}

	if strings.ContainsAny(m.Version+m.ArchiveName, `/\`) {
		return fmt.Errorf("module.version/archive_name must not contain path separators: %w", ErrInvalidValue)
	}

	if cfg.Service.LogTag == "" {
		cfg.Service.LogTag = m.ID
	}

	idents := []struct {
		name, value string
	}{
		{"service.binary", cfg.Service.Binary},
		{"service.client_domain", cfg.Service.ClientDomain},
		{"service.service_type", cfg.Service.ServiceType},
		{"service.service_domain", cfg.Service.ServiceDomain},
		{"service.log_tag", cfg.Service.LogTag},
	}
	for _, field := range idents {
		if !identPattern.MatchString(field.value) {
			return fmt.Errorf("%s %q: %w", field.name, field.value, ErrInvalidValue)
		}
	}

	return nil
}

// validateText rejects empty values and characters that would break shell or key=value lines.
func validateText(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is empty: %w", name, ErrInvalidValue)
	}

	if value != strings.TrimSpace(value) {
		return fmt.Errorf("%s has surrounding whitespace: %w", name, ErrInvalidValue)
	}

	if strings.ContainsAny(value, "\n\r\"'`$\\") {
		return fmt.Errorf("%s %q contains a forbidden character: %w", name, value, ErrInvalidValue)
	}

	return nil
}

// Package converts the module settings into the domain type.
func (c *Config) Package() module.Package {
	return module.Package{
		ID:          c.Module.ID,
		Name:        c.Module.Name,
		Version:     c.Module.Version,
		VersionCode: c.Module.VersionCode,
		Author:      c.Module.Author,
		Description: c.Module.Description,
		ArchiveName: c.Module.ArchiveName,
	}
}

// ServiceSpec converts the service settings into the domain type.
func (c *Config) ServiceSpec() module.Service {
	logTag := c.Service.LogTag
	if logTag == "" {
		logTag = c.Module.ID
	}

	return module.Service{
		Binary:        c.Service.Binary,
		ClientDomain:  c.Service.ClientDomain,
		ServiceType:   c.Service.ServiceType,
		ServiceDomain: c.Service.ServiceDomain,
		LogTag:        logTag,
	}
}
