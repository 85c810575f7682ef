// Package dataless parses the text form of SEED dataless volumes (as printed
// by `rdseed -s`) into a navigable tree of stations, channels, epochs and
// response stages.
//
// Processing runs in two phases:
//
//  1. Parse (package parser): field lines are grouped into blockette instances.
//  2. Assemble (package volume): instances are folded into the Volume tree.
//
// Either phase may fail; a failure never yields a partial tree.
//
// # Basic Usage
//
//	vol, err := dataless.ProcessFile("DATALESS.IU_ANMO.gz")
//	if err != nil {
//	    return err
//	}
//	for _, key := range vol.StationKeys() {
//	    station := vol.Stations[key]
//	    fmt.Println(key, len(station.Channels))
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the parser,
// volume and source packages. Use those packages directly for parse
// statistics, custom boundary rules or compressed stream handling.
package dataless

import (
	"io"

	"github.com/arloliu/dataless/internal/options"
	"github.com/arloliu/dataless/parser"
	"github.com/arloliu/dataless/source"
	"github.com/arloliu/dataless/volume"
)

type config struct {
	parserOpts []parser.Option
	volumeOpts []volume.Option
}

// Option configures Process and its variants.
type Option = options.Option[*config]

// WithParserOptions passes options to the parse phase.
func WithParserOptions(opts ...parser.Option) Option {
	return options.NoError(func(c *config) {
		c.parserOpts = append(c.parserOpts, opts...)
	})
}

// WithVolumeOptions passes options to the assemble phase.
func WithVolumeOptions(opts ...volume.Option) Option {
	return options.NoError(func(c *config) {
		c.volumeOpts = append(c.volumeOpts, opts...)
	})
}

// Result is the outcome of processing a dump with statistics.
type Result struct {
	Volume *volume.Volume
	Source *source.Source
	Stats  parser.Stats
}

// Process runs both phases over lines.
//
// Parameters:
//   - lines: Dump lines, one record per line
//   - opts: Optional configuration (WithParserOptions, WithVolumeOptions)
//
// Returns:
//   - *volume.Volume: The assembled tree (nil on error)
//   - error: *errs.LineError from the parse phase or *errs.BlocketteError from the assemble phase
func Process(lines []string, opts ...Option) (*volume.Volume, error) {
	vol, _, err := process(lines, opts)
	return vol, err
}

// ProcessReader reads a dump, compressed or not, from r and processes it.
func ProcessReader(r io.Reader, opts ...Option) (*volume.Volume, error) {
	src, err := source.Read(r)
	if err != nil {
		return nil, err
	}

	return Process(src.Lines, opts...)
}

// ProcessFile reads the dump at path, compressed or not, and processes it.
func ProcessFile(path string, opts ...Option) (*volume.Volume, error) {
	res, err := ProcessFileWithStats(path, opts...)
	if err != nil {
		return nil, err
	}

	return res.Volume, nil
}

// ProcessFileWithStats is ProcessFile that also returns the source and the
// parse statistics.
func ProcessFileWithStats(path string, opts ...Option) (*Result, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}

	vol, stats, err := process(src.Lines, opts)
	if err != nil {
		return nil, err
	}

	return &Result{Volume: vol, Source: src, Stats: stats}, nil
}

func process(lines []string, opts []Option) (*volume.Volume, parser.Stats, error) {
	cfg := &config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, parser.Stats{}, err
	}

	p, err := parser.New(cfg.parserOpts...)
	if err != nil {
		return nil, parser.Stats{}, err
	}
	blockettes, err := p.Parse(lines)
	if err != nil {
		return nil, p.Stats(), err
	}

	vol, err := volume.Assemble(blockettes, cfg.volumeOpts...)
	if err != nil {
		return nil, p.Stats(), err
	}

	return vol, p.Stats(), nil
}
