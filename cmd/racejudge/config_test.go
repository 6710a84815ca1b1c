package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"racejudge/internal/race/capture"
	appErr "racejudge/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", `
course: tracks/a.course
players:
  - command: ./a
  - name: beta
    command: ./b
    startX: 2
`)
	cfg, err := loadAppConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StderrMaxBytes != capture.DefaultMaxBytes {
		t.Fatalf("expected default stderr cap, got %d", cfg.StderrMaxBytes)
	}
	if cfg.Hooks.Shell != "/bin/sh" {
		t.Fatalf("expected default shell, got %q", cfg.Hooks.Shell)
	}
	if cfg.Players[0].Name != "player0" || cfg.Players[1].Name != "beta" {
		t.Fatalf("unexpected names %q %q", cfg.Players[0].Name, cfg.Players[1].Name)
	}
	if cfg.Players[0].StartX != nil || cfg.Players[1].StartX == nil || *cfg.Players[1].StartX != 2 {
		t.Fatalf("unexpected start columns")
	}
}

func TestLoadAppConfigErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		content string
		code    appErr.ErrorCode
	}{
		{name: "bad_yaml", content: "players: [", code: appErr.ConfigLoadFailed},
		{name: "no_course", content: "players: [{name: a}, {name: b}]", code: appErr.ConfigInvalid},
		{name: "one_player", content: "course: x\nplayers: [{name: a}]", code: appErr.ConfigInvalid},
		{name: "same_name", content: "course: x\nplayers: [{name: a}, {name: a}]", code: appErr.ConfigInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.name+".yaml", tc.content)
			_, err := loadAppConfig(path)
			if !appErr.Is(err, tc.code) {
				t.Fatalf("expected code %d, got %v", tc.code, err)
			}
		})
	}

	if _, err := loadAppConfig(filepath.Join(dir, "missing.yaml")); !appErr.Is(err, appErr.ConfigLoadFailed) {
		t.Fatalf("expected ConfigLoadFailed for a missing file, got %v", err)
	}
}

func TestUnlimitedStderr(t *testing.T) {
	cfg := &AppConfig{Course: "x", StderrMaxBytes: -7, Players: []PlayerConfig{{Name: "a"}, {Name: "b"}}}
	if err := applyDefaults(cfg); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if cfg.StderrMaxBytes != capture.Unlimited {
		t.Fatalf("expected unlimited, got %d", cfg.StderrMaxBytes)
	}
}

func TestRunWithAbsentPlayers(t *testing.T) {
	dir := t.TempDir()
	coursePath := writeFile(t, dir, "c.course", "1000 10\n3 2\n1\n0 0 0\n0 1 0\n")
	cfgPath := writeFile(t, dir, "cfg.yaml", `
logger:
  level: error
course: `+coursePath+`
players:
  - name: alpha
    stderrLog: `+filepath.Join(dir, "logs", "alpha.stderr.log")+`
  - name: beta
`)

	var out bytes.Buffer
	if code := run(cfgPath, "", &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"match: ", `player 0 "alpha": noplay`, "winner: none"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "logs", "alpha.stderr.log")); err != nil {
		t.Fatalf("stderr log not created: %v", err)
	}
}

func TestRunExitStatus(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "cfg.yaml", "logger:\n  level: error\ncourse: "+filepath.Join(dir, "none.course")+"\nplayers: [{name: a}, {name: b}]\n")

	if code := run(filepath.Join(dir, "missing.yaml"), "", &bytes.Buffer{}); code != 2 {
		t.Fatalf("expected exit 2 for a missing config, got %d", code)
	}
	if code := run(cfgPath, "", &bytes.Buffer{}); code != 2 {
		t.Fatalf("expected exit 2 for a missing course, got %d", code)
	}
	bad := writeFile(t, dir, "bad.course", "1000 10\n3 2\n1\n0 0 0\n")
	if code := run(cfgPath, bad, &bytes.Buffer{}); code != 2 {
		t.Fatalf("expected exit 2 for a truncated course, got %d", code)
	}
}
