package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/internal/logger"
	"github.com/arloliu/dataless/store"
)

const envPrefix = "dataless"

// app is the state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	cfg  Config
	opts []Opt
	log  *zap.Logger
}

// NewCommand creates the root command. Command output goes to stdout and
// logs go to stderr.
func NewCommand(stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdout, stderr).rootCommand()
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		cfg:    NewConfig(),
		log:    zap.NewNop(),
	}

	a.v.SetEnvPrefix(strings.ToUpper(envPrefix))
	a.v.AutomaticEnv()
	// DATALESS_LOG_LEVEL sets --log-level.
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	defaults := NewConfig()
	a.opts = []Opt{
		{DestP: &a.cfg.Logging.Level, Flag: "log-level", Default: defaults.Logging.Level, Desc: "log level: debug, info, warn or error"},
		{DestP: &a.cfg.Logging.Format, Flag: "log-format", Default: defaults.Logging.Format, Desc: "log format: console, json or auto"},
		{DestP: &a.cfg.DB, Flag: "db", Default: defaults.DB, Desc: "path of the SQLite catalogue"},
		{DestP: &a.cfg.Archive, Flag: "archive", Default: defaults.Archive, Desc: "compression of archived sources: none, zstd, s2, lz4 or gzip"},
		{DestP: &a.cfg.Scan.Workers, Flag: "workers", Default: defaults.Scan.Workers, Desc: "number of dumps processed concurrently"},
		{DestP: &a.cfg.Scan.Pattern, Flag: "pattern", Default: defaults.Scan.Pattern, Desc: "file name pattern with network and station groups"},
		{DestP: &a.cfg.Scan.Network, Flag: "network", Default: defaults.Scan.Network, Desc: "only this network"},
		{DestP: &a.cfg.Scan.Station, Flag: "station", Default: defaults.Scan.Station, Desc: "only this station"},
	}

	return a
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dataless",
		Short:        "Inspect and catalogue dataless SEED metadata dumps",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().String("config", "", "path of a TOML configuration file")
	addFlags(cmd.PersistentFlags(), a.opts, "log-level", "log-format")

	cmd.AddCommand(
		a.newSummaryCommand(),
		a.newTreeCommand(),
		a.newLoadCommand(),
		a.newScanCommand(),
		a.newStationsCommand(),
		a.newVolumesCommand(),
		a.newExportCommand(),
		a.newDeleteCommand(),
	)

	return cmd
}

// prepare resolves the configuration of the executing command. Values come
// from, in increasing precedence: defaults, the --config file, environment
// variables and flags.
func (a *app) prepare(cmd *cobra.Command) error {
	if f := cmd.Flags().Lookup("config"); f != nil {
		mustBindPFlag(a.v, "config", f)
	}
	bindFlags(a.v, cmd, a.opts)

	cfg, err := loadConfig(a.v.GetString("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := applyOptions(a.v, a.opts); err != nil {
		return err
	}

	log, err := logger.New(a.stderr, a.cfg.Logging)
	if err != nil {
		return err
	}
	a.log = log

	return nil
}

// openStore opens and migrates the configured catalogue.
func (a *app) openStore(cmd *cobra.Command) (*store.Store, error) {
	archive, err := compress.ParseCompressionType(a.cfg.Archive)
	if err != nil {
		return nil, err
	}

	s, err := store.New(a.cfg.DB, a.log, store.WithArchiveCompression(archive))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(cmd.Context()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}
