// Package config loads dashboard settings from a YAML file, a .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file settings.
const (
	EnvCSVPath  = "MISSIONSEC_CSV"
	EnvAddr     = "MISSIONSEC_ADDR"
	EnvLogLevel = "MISSIONSEC_LOG_LEVEL"
	EnvLogFile  = "MISSIONSEC_LOG_FILE"
)

// Config is the dashboard configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// DataConfig locates the report file.
type DataConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// DashboardConfig holds presentation settings.
type DashboardConfig struct {
	Title string `yaml:"title"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data:      DataConfig{CSVPath: "mission_security_reports.csv"},
		Dashboard: DashboardConfig{Title: "EO Missions - Security & Compliance Dashboard"},
		Server:    ServerConfig{Addr: ":8080"},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults and applies environment overrides.
// An empty path skips the file. A .env file in the working directory is
// loaded when present; variables already set in the environment win.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if strings.TrimSpace(cfg.Data.CSVPath) == "" {
		cfg.Data.CSVPath = Default().Data.CSVPath
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCSVPath); v != "" {
		c.Data.CSVPath = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
}
