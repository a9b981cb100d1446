// Package project reads and writes the whop.json file that links a
// local directory to a platform app.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigName is the link file expected in the project root.
const ConfigName = "whop.json"

// ErrNotLinked reports a directory without a usable whop.json.
var ErrNotLinked = errors.New("project: directory is not linked to an app")

// Config links a project directory to an app and carries optional build
// overrides.
type Config struct {
	AppID        string `json:"appId"`
	Name         string `json:"name,omitempty"`
	BuildCommand string `json:"buildCommand,omitempty"`
	OutputDir    string `json:"outputDir,omitempty"`
}

// Load reads the link file from dir.
func Load(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, ErrNotLinked
		}
		return Config{}, fmt.Errorf("read %s: %w", ConfigName, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", ConfigName, err)
	}
	if strings.TrimSpace(cfg.AppID) == "" {
		return Config{}, ErrNotLinked
	}
	return cfg, nil
}

// Save writes the link file into dir.
func Save(dir string, cfg Config) error {
	if strings.TrimSpace(cfg.AppID) == "" {
		return errors.New("project: app id is required")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", ConfigName, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, ConfigName), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ConfigName, err)
	}
	return nil
}
