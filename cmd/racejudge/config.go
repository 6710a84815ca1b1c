package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"racejudge/internal/race/capture"
	appErr "racejudge/pkg/errors"
	"racejudge/pkg/utils/logger"
)

const defaultPlayerCount = 2

// HookConfig holds the commands run around every wait on a player.
type HookConfig struct {
	Pause  string `yaml:"pause"`
	Resume string `yaml:"resume"`
	Shell  string `yaml:"shell"`
}

// PlayerConfig describes one contestant.
type PlayerConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	StartX  *int     `yaml:"startX"`
	Env     []string `yaml:"env"`

	// Empty paths disable the corresponding log.
	StdinLog     string `yaml:"stdinLog"`
	StderrLog    string `yaml:"stderrLog"`
	CompressLogs bool   `yaml:"compressLogs"`
}

// AppConfig holds racejudge config.
type AppConfig struct {
	Logger logger.Config `yaml:"logger"`
	Course string        `yaml:"course"`
	// StderrMaxBytes caps captured stderr per player; -1 disables the cap.
	StderrMaxBytes int            `yaml:"stderrMaxBytes"`
	Hooks          HookConfig     `yaml:"hooks"`
	Players        []PlayerConfig `yaml:"players"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return appErr.Wrapf(err, appErr.ConfigLoadFailed, "read config file failed")
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return appErr.Wrapf(err, appErr.ConfigLoadFailed, "parse config file failed")
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) error {
	if strings.TrimSpace(cfg.Course) == "" {
		return appErr.ConfigFieldError("course", "is required")
	}
	if len(cfg.Players) != defaultPlayerCount {
		return appErr.ConfigFieldError("players", fmt.Sprintf("exactly %d entries are required, got %d", defaultPlayerCount, len(cfg.Players)))
	}
	if cfg.StderrMaxBytes == 0 {
		cfg.StderrMaxBytes = capture.DefaultMaxBytes
	}
	if cfg.StderrMaxBytes < 0 {
		cfg.StderrMaxBytes = capture.Unlimited
	}
	if cfg.Hooks.Shell == "" {
		cfg.Hooks.Shell = "/bin/sh"
	}
	for i := range cfg.Players {
		p := &cfg.Players[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("player%d", i)
		}
	}
	if cfg.Players[0].Name == cfg.Players[1].Name {
		return appErr.ConfigFieldError("players", "names must differ")
	}
	return nil
}
