package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medilearn/healthxp/internal/config"
	"github.com/medilearn/healthxp/internal/gamification"
	"github.com/medilearn/healthxp/internal/logger"
	"github.com/medilearn/healthxp/internal/render"
	"github.com/medilearn/healthxp/internal/store"
)

// env holds the dependencies a command runs with.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	svc   *gamification.Service
}

// openEnv loads config, opens the store and builds the service.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := gamification.NewService(st.SnapshotRepo(), st.EventRepo(), gamification.Config{
		Retry: store.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: cfg.Retry.InitialWait,
			MaxWait:     cfg.Retry.MaxWait,
			Multiplier:  cfg.Retry.Multiplier,
		},
		SnapshotRetention: cfg.SnapshotRetention,
		DefaultTimezone:   cfg.DefaultTimezone,
		ModulesFor:        cfg.ModulesFor,
		Logger:            log,
	})
	log.Debug("store opened", "path", dbPath)
	return &env{cfg: cfg, log: log, store: st, svc: svc}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close store", "error", err)
	}
	e.log.Sync()
}

// withLearner opens the environment and resolves the learner for fn.
func withLearner(cmd *cobra.Command, fn func(e *env, learnerID string) error) error {
	learnerID, err := resolveLearner(cmd)
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e, learnerID)
}

// printResult writes a track or sync result. A PersistError still carries
// the computed progress, so it is shown before the error is returned.
func printResult(cmd *cobra.Command, res *gamification.Result, err error) error {
	var perr *gamification.PersistError
	if err != nil && !errors.As(err, &perr) {
		return err
	}
	if res != nil {
		if werr := writeResult(cmd, res); werr != nil {
			return werr
		}
	}
	if perr != nil {
		return fmt.Errorf("progress was computed but not saved, run the command again: %w", err)
	}
	return nil
}

func writeResult(cmd *cobra.Command, res *gamification.Result) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, res)
	}
	_, err := fmt.Fprintln(out, render.Result(res))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
