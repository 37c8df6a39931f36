package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func fileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// read decodes filePath, returning the defaults when it does not exist.
func read(filePath string, decode func(io.Reader, *Config) error) (Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	defer file.Close()

	var cfg Config
	if err := decode(file, &cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return cfg, nil
}

// write encodes cfg into a temporary file next to filePath and renames it
// into place.
func write(filePath string, cfg Config, encode func(io.Writer, Config) error) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	filePathTmp := filePath + ".tmp"
	file, err := os.OpenFile(filePathTmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err := encode(file, cfg); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(filePathTmp, filePath)
}

func NewYAML(filePath string) YAML {
	return YAML{
		filePath: filePath,
	}
}

type YAML struct {
	filePath string
}

func (y YAML) Exists() (bool, error) {
	return fileExists(y.filePath)
}

func (y YAML) Read() (Config, error) {
	return read(y.filePath, func(r io.Reader, cfg *Config) error {
		return yaml.NewDecoder(r).Decode(cfg)
	})
}

func (y YAML) Write(cfg Config) error {
	return write(y.filePath, cfg, func(w io.Writer, cfg Config) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	})
}

func NewJSON(filePath string) JSON {
	return JSON{
		filePath: filePath,
	}
}

type JSON struct {
	filePath string
}

func (j JSON) Exists() (bool, error) {
	return fileExists(j.filePath)
}

func (j JSON) Read() (Config, error) {
	return read(j.filePath, func(r io.Reader, cfg *Config) error {
		return json.NewDecoder(r).Decode(cfg)
	})
}

func (j JSON) Write(cfg Config) error {
	return write(j.filePath, cfg, func(w io.Writer, cfg Config) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	})
}
