// Package config loads the configuration of the interactive shell.
package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	AppDirName        = "shit"
)

type Configuration struct {
	Prompt        string `json:"prompt"`
	HistoryFile   string `json:"history_file"`
	HistoryLimit  int    `json:"history_limit" validate:"gte=0"`
	PathExpansion bool   `json:"path_expansion"`
	Color         string `json:"color" validate:"oneof=auto always never"`

	Log Log `json:"log"`
}

type Log struct {
	Level   string `json:"level" validate:"oneof=debug info warn error"`
	File    string `json:"file"`
	Journal bool   `json:"journal"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// HistoryPath returns the absolute path of the history file, or "" when
// history is disabled.
func (c *Configuration) HistoryPath() (string, error) {
	if c.HistoryFile == "" || filepath.IsAbs(c.HistoryFile) {
		return c.HistoryFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, c.HistoryFile), nil
}

// DefaultPath returns where the configuration is read from when no path is
// given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDirName, ConfigurationName), nil
}

// Load reads the configuration at path. Settings absent from the file keep
// their default values.
func Load(afs afero.Fs, path string) (*Configuration, error) {
	contents, err := afero.ReadFile(afs, path)
	if err != nil {
		return nil, err
	}
	out := defaultConfig()
	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDefault reads the configuration at the default location, falling back
// to the built-in configuration when there is no file there.
func LoadDefault(afs afero.Fs) (*Configuration, error) {
	path, err := DefaultPath()
	if err != nil {
		return defaultConfig(), nil
	}
	c, err := Load(afs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	return c, err
}

// Default returns the built-in configuration.
func Default() *Configuration { return defaultConfig() }

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
