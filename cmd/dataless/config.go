package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/arloliu/dataless/internal/logger"
	"github.com/arloliu/dataless/scan"
	"github.com/arloliu/dataless/store"
)

// Config is the on-disk TOML configuration of the command.
type Config struct {
	Logging logger.Config `toml:"logging"`
	DB      string        `toml:"db"`
	Archive string        `toml:"archive"` // compression of archived sources
	Scan    scan.Config   `toml:"scan"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Logging: logger.NewConfig(),
		DB:      store.DefaultFilename,
		Archive: "zstd",
		Scan:    scan.NewConfig(),
	}
}

// loadConfig decodes the TOML file at path over the defaults. Unknown keys
// are rejected so typos do not pass silently.
func loadConfig(path string) (Config, error) {
	c := NewConfig()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)

		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return c, nil
}

// Opt is a single command-line option that may also be set from the
// environment. DestP points into the Config being built.
type Opt struct {
	DestP   interface{}
	Flag    string
	Default interface{}
	Desc    string
}

// addFlags registers the options named by flags on fs.
func addFlags(fs *pflag.FlagSet, opts []Opt, flags ...string) {
	for _, name := range flags {
		o, ok := findOpt(opts, name)
		if !ok {
			panic("unknown option " + name)
		}
		switch d := o.Default.(type) {
		case int:
			fs.Int(o.Flag, d, o.Desc)
		default:
			fs.String(o.Flag, fmt.Sprint(o.Default), o.Desc)
		}
	}
}

func findOpt(opts []Opt, name string) (Opt, bool) {
	for _, o := range opts {
		if o.Flag == name {
			return o, true
		}
	}

	return Opt{}, false
}

// bindFlags binds the flags of cmd that back an option to v. The same option
// may be a flag of several subcommands, so only the executing command binds.
func bindFlags(v *viper.Viper, cmd *cobra.Command, opts []Opt) {
	for _, o := range opts {
		if f := cmd.Flags().Lookup(o.Flag); f != nil {
			mustBindPFlag(v, o.Flag, f)
		}
	}
}

// applyOptions copies every option set by a changed flag or an environment
// variable into its destination. Options left unset keep their current value.
func applyOptions(v *viper.Viper, opts []Opt) error {
	for _, o := range opts {
		if !v.IsSet(o.Flag) {
			continue
		}
		switch destP := o.DestP.(type) {
		case *string:
			*destP = v.GetString(o.Flag)
		case *int:
			*destP = v.GetInt(o.Flag)
		case *zapcore.Level:
			lvl, err := zapcore.ParseLevel(v.GetString(o.Flag))
			if err != nil {
				return fmt.Errorf("--%s: %w", o.Flag, err)
			}
			*destP = lvl
		default:
			return fmt.Errorf("unknown destination type %T for option %s", o.DestP, o.Flag)
		}
	}

	return nil
}

func mustBindPFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
