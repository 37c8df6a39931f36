package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Driver interface {
	Exists() (bool, error)
	Write(config Config) error
	Read() (Config, error)
}

// DefaultPath is $XDG_CONFIG_HOME/ywm/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ywm", "config.yaml"), nil
}

// NewDriver picks the driver from the file extension. Anything other than
// .json is YAML.
func NewDriver(filePath string) Driver {
	if filepath.Ext(filePath) == ".json" {
		return NewJSON(filePath)
	}
	return NewYAML(filePath)
}

// NewStore writes the default config through driver if it has none yet.
func NewStore(driver Driver) (Store, error) {
	exists, err := driver.Exists()
	if err != nil {
		return Store{}, err
	}
	if !exists {
		if err := driver.Write(Default()); err != nil {
			return Store{}, fmt.Errorf("write default config: %w", err)
		}
	}

	return Store{
		driver: driver,
	}, nil
}

type Store struct {
	driver Driver
}

// GetConfig reads the config and fills in defaults.
func (p *Store) GetConfig() (Config, error) {
	cfg, err := p.driver.Read()
	if err != nil {
		return Config{}, err
	}
	return cfg.Normalize(), nil
}

func (p *Store) UpdateConfig(fn func(cfg Config) (Config, error)) error {
	cfg, err := p.driver.Read()
	if err != nil {
		return err
	}

	cfg, err = fn(cfg)
	if err != nil {
		return err
	}

	return p.driver.Write(cfg)
}
