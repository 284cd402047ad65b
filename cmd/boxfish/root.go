// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/context"

	"github.com/LLNL/boxfish/manifest"
	"github.com/LLNL/boxfish/run"
	"github.com/LLNL/boxfish/store"
)

// config is the resolved command configuration.
type config struct {
	Manifest string `mapstructure:"manifest"`
	Log      struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`
	DB struct {
		Driver string `mapstructure:"driver"`
		Source string `mapstructure:"source"`
	} `mapstructure:"db"`
}

// env is shared by all subcommands.
type env struct {
	v       *viper.Viper
	cfgFile string
	cfg     config
	log     *zap.Logger
}

// newRootCommand returns the boxfish command tree. If log is nil, a
// logger is built from the configuration.
func newRootCommand(log *zap.Logger) *cobra.Command {
	e := &env{v: viper.New(), log: log}

	cmd := &cobra.Command{
		Use:           "boxfish",
		Short:         "Query performance data across subdomains",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.cfgFile, "config", "", "read settings from YAML `file`")
	flags.StringP("manifest", "m", "", "dataset manifest `file`")
	flags.String("log-level", "warn", "log `level`: debug, info, warn, or error")
	flags.Bool("log-json", false, "log JSON records")
	flags.String("db-driver", "sqlite3", "database `driver`: sqlite3 or mysql")
	flags.String("db", "", "database `source` for sql tables and save")
	for key, flag := range map[string]string{
		"manifest":  "manifest",
		"log.level": "log-level",
		"log.json":  "log-json",
		"db.driver": "db-driver",
		"db.source": "db",
	} {
		if err := e.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	e.v.SetEnvPrefix("BOXFISH")
	e.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	e.v.AutomaticEnv()

	cmd.AddCommand(
		newSchemaCommand(e),
		newFilterCommand(e),
		newGroupByCommand(e),
		newDomainCommand(e),
		newEvalCommand(e),
		newProjectCommand(e),
		newSaveCommand(e),
	)
	return cmd
}

// init resolves the configuration and builds the logger.
func (e *env) init() error {
	if e.cfgFile != "" {
		e.v.SetConfigFile(e.cfgFile)
		if err := e.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", e.cfgFile)
		}
	}
	if err := e.v.Unmarshal(&e.cfg); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	log, err := newLogger(e.cfg.Log.Level, e.cfg.Log.JSON)
	if err != nil {
		return err
	}
	if e.log == nil {
		e.log = log
	}
	return nil
}

func newLogger(level string, json bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "log level"), "levels are debug, info, warn, error")
	}
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// openDB opens the configured database.
func (e *env) openDB() (*store.DB, error) {
	if e.cfg.DB.Source == "" {
		return nil, errors.WithHint(errors.New("no database configured"),
			"pass --db or set BOXFISH_DB_SOURCE")
	}
	e.log.Debug("opening database", zap.String("driver", e.cfg.DB.Driver))
	return store.OpenSQL(e.cfg.DB.Driver, e.cfg.DB.Source)
}

// load loads the configured manifest. Tables from the database are
// read in full, so the database is closed before load returns.
func (e *env) load(ctx context.Context) (*run.Run, error) {
	if e.cfg.Manifest == "" {
		return nil, errors.WithHint(errors.New("no manifest"),
			"pass --manifest or set BOXFISH_MANIFEST")
	}
	opts := []manifest.Option{manifest.WithLogger(e.log)}
	if e.cfg.DB.Source != "" {
		db, err := e.openDB()
		if err != nil {
			return nil, err
		}
		defer db.Close()
		opts = append(opts, manifest.WithStore(db))
	}
	r, err := manifest.Load(ctx, e.cfg.Manifest, opts...)
	if err != nil {
		return nil, err
	}
	e.log.Info("loaded dataset", zap.String("run", r.Name()),
		zap.Int("tables", len(r.Tables())), zap.Int("projections", len(r.Projections())))
	return r, nil
}
