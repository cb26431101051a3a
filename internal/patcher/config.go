package patcher

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is everything the pipeline needs, resolved up front.
type Config struct {
	Paths Paths `yaml:"paths"`

	// ProcessName is the owner process to stop before patching
	ProcessName string `yaml:"process_name"`

	// Website is templated into the bootstrap markup
	Website string `yaml:"website"`

	// ListenerPort is the localhost port the injected worker calls
	ListenerPort int `yaml:"listener_port"`
}

// DefaultConfig returns the configuration for the standard install location.
func DefaultConfig() (Config, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Paths:        paths,
		ProcessName:  ProcessName,
		Website:      DefaultWebsite,
		ListenerPort: DefaultListenerPort,
	}, nil
}

// LoadConfig returns the default configuration overlaid with the YAML file
// at path. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg.Merge(overlay), nil
}

// Merge returns c with every non-zero field of overlay applied. Moving the
// scratch root also moves the backup slot and build path unless overlay sets
// them explicitly.
func (c Config) Merge(overlay Config) Config {
	if overlay.Paths.ScratchRoot != "" {
		c.Paths = c.Paths.withScratchRoot(overlay.Paths.ScratchRoot)
	}
	if overlay.Paths.Target != "" {
		c.Paths.Target = overlay.Paths.Target
	}
	if overlay.Paths.Backup != "" {
		c.Paths.Backup = overlay.Paths.Backup
	}
	if overlay.Paths.BuildPath != "" {
		c.Paths.BuildPath = overlay.Paths.BuildPath
	}
	if overlay.Paths.Executable != "" {
		c.Paths.Executable = overlay.Paths.Executable
	}
	if overlay.ProcessName != "" {
		c.ProcessName = overlay.ProcessName
	}
	if overlay.Website != "" {
		c.Website = overlay.Website
	}
	if overlay.ListenerPort != 0 {
		c.ListenerPort = overlay.ListenerPort
	}
	return c
}

// Validate reports configuration that would make the pipeline unsafe to run.
func (c Config) Validate() error {
	var errs []error
	if c.Paths.Target == "" {
		errs = append(errs, errors.New("target path is required"))
	}
	if c.Paths.ScratchRoot == "" {
		errs = append(errs, errors.New("scratch root is required"))
	}
	if c.Paths.Backup == "" {
		errs = append(errs, errors.New("backup path is required"))
	}
	if c.Paths.BuildPath == "" {
		errs = append(errs, errors.New("build path is required"))
	}
	if c.Paths.Target != "" && (c.Paths.Target == c.Paths.Backup || c.Paths.Target == c.Paths.BuildPath) {
		errs = append(errs, errors.New("backup and build paths must differ from the target"))
	}
	if c.Paths.Backup != "" && c.Paths.Backup == c.Paths.BuildPath {
		errs = append(errs, errors.New("backup and build paths must differ"))
	}
	if c.ListenerPort <= 0 || c.ListenerPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid listener port %d", c.ListenerPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
