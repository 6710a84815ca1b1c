package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"racejudge/internal/race/course"
	"racejudge/internal/race/hook"
	"racejudge/internal/race/match"
	"racejudge/internal/race/player"
	"racejudge/internal/race/sink"
	appErr "racejudge/pkg/errors"
	"racejudge/pkg/utils/contextkey"
	"racejudge/pkg/utils/logger"
)

const defaultConfigPath = "configs/racejudge.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	coursePath := flag.String("course", "", "Path to course file, overrides the config")
	flag.Parse()

	os.Exit(run(*configPath, *coursePath, os.Stdout))
}

func run(configPath, coursePath string, out io.Writer) int {
	appCfg, err := loadAppConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return appErr.GetCode(err).ExitStatus()
	}
	if coursePath != "" {
		appCfg.Course = coursePath
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return appErr.ConfigInvalid.ExitStatus()
	}
	defer func() {
		_ = logger.Sync()
	}()

	matchID := uuid.NewString()
	ctx := context.WithValue(context.Background(), contextkey.MatchID, matchID)
	ctx = context.WithValue(ctx, contextkey.TraceID, matchID)

	rc, err := course.Load(appCfg.Course)
	if err != nil {
		logger.Error(ctx, "load course failed", appErr.LogFields(err)...)
		return appErr.GetCode(err).ExitStatus()
	}

	hooks := hook.NewRunner()
	hooks.Shell = appCfg.Hooks.Shell

	var sinks []*sink.File
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Warn(ctx, "close player log failed", append(appErr.LogFields(err), zap.String("path", s.Path()))...)
			}
		}
	}()
	openSink := func(path string, compress bool) (io.Writer, error) {
		if path == "" {
			return nil, nil
		}
		s, err := sink.Open(path, compress)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
		return s, nil
	}

	cfg := match.Config{Course: rc}
	for i, pc := range appCfg.Players {
		opt := player.Options{
			PauseCommand:   appCfg.Hooks.Pause,
			ResumeCommand:  appCfg.Hooks.Resume,
			StderrMaxBytes: appCfg.StderrMaxBytes,
			Env:            pc.Env,
			Hooks:          hooks,
		}
		if opt.StdinLog, err = openSink(pc.StdinLog, pc.CompressLogs); err != nil {
			logger.Error(ctx, "open stdin log failed", append(appErr.LogFields(err), zap.String("name", pc.Name))...)
			return appErr.GetCode(err).ExitStatus()
		}
		if opt.StderrLog, err = openSink(pc.StderrLog, pc.CompressLogs); err != nil {
			logger.Error(ctx, "open stderr log failed", append(appErr.LogFields(err), zap.String("name", pc.Name))...)
			return appErr.GetCode(err).ExitStatus()
		}
		cfg.Entries[i] = match.Entry{
			Name:    pc.Name,
			Command: pc.Command,
			StartX:  pc.StartX,
			Options: opt,
		}
	}

	logger.Info(ctx, "match starting",
		zap.String("course", appCfg.Course),
		zap.String("player0", cfg.Entries[0].Name),
		zap.String("player1", cfg.Entries[1].Name),
	)
	report, err := match.Run(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "run match failed", appErr.LogFields(err)...)
		return appErr.GetCode(err).ExitStatus()
	}

	logger.Infof(ctx, "match %s finished after %d steps", matchID, report.Steps)
	fmt.Fprintf(out, "match: %s\n", matchID)
	fmt.Fprint(out, report.Summary())
	return 0
}
