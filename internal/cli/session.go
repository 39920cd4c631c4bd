package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/contfrac/internal/config"
	"github.com/roach88/contfrac/internal/logging"
	"github.com/roach88/contfrac/internal/pgstore"
	"github.com/roach88/contfrac/internal/store"
	"github.com/roach88/contfrac/internal/tree"
)

// session is everything a tree command needs: the effective config, the
// logger, the open store and the tree over it.
type session struct {
	ctx    context.Context
	cfg    config.Config
	logger *slog.Logger
	tree   *tree.Tree
	out    *OutputFormatter

	closers []func() error
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	changed := false
	if opts.Driver != "" {
		cfg.Driver = opts.Driver
		changed = true
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
		changed = true
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
		changed = true
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "invalid flags", err)
		}
	}
	return cfg, nil
}

// openSession loads the config, builds the logger and opens the configured
// store and tree. The caller must Close the session.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}

	s := &session{
		ctx:     ctx,
		cfg:     cfg,
		logger:  logger,
		out:     newFormatter(cmd, opts),
		closers: []func() error{closeLog},
	}

	backing, err := s.openStore()
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitFailure, "failed to open store", err)
	}

	s.tree, err = tree.New(ctx, backing, tree.Options{
		RootPath:      cfg.Root(),
		Limit:         cfg.Limit(),
		DecimalPlaces: cfg.DecimalPlaces,
		Logger:        logger,
	})
	if err != nil {
		s.Close()
		return nil, s.out.Fail(err)
	}
	return s, nil
}

func (s *session) openStore() (tree.Store, error) {
	switch s.cfg.Driver {
	case config.DriverPostgres:
		s.logger.Debug("opening store", "driver", s.cfg.Driver)
		st, err := pgstore.Open(s.ctx, s.cfg.DSN, pgstore.Options{DecimalPlaces: s.cfg.DecimalPlaces})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, st.Close)
		return st, nil
	default:
		s.logger.Debug("opening store", "driver", s.cfg.Driver, "path", s.cfg.Database)
		st, err := store.Open(s.cfg.Database, store.Options{DecimalPlaces: s.cfg.DecimalPlaces})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, st.Close)
		return st, nil
	}
}

// Close releases the store and the log file in reverse order of opening.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// withSession opens a session, runs fn and closes the session, logging a
// close failure rather than masking fn's result.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(s *session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Error("error closing session", "error", closeErr)
		}
	}()
	return fn(s)
}
