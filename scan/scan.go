// Package scan loads every dataless dump found in a directory.
//
// Files are processed concurrently, each with its own parser and assembler.
// A file that fails to read, parse, assemble or load is reported and skipped;
// the remaining files are still processed.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/internal/collision"
	"github.com/arloliu/dataless/internal/logger"
	"github.com/arloliu/dataless/parser"
	"github.com/arloliu/dataless/source"
	"github.com/arloliu/dataless/store"
	"github.com/arloliu/dataless/volume"
)

// DefaultPattern matches dump names such as "DATALESS.IU_ANMO" or
// "DATALESS.IU_ANMO.seed.gz", capturing network and station codes.
const DefaultPattern = `^DATALESS\.([A-Z0-9]{1,2})_([A-Z0-9]{1,5})(\..*)?$`

// Config controls a scan.
type Config struct {
	Workers int    `toml:"workers" mapstructure:"workers"` // concurrent files, defaults to GOMAXPROCS
	Pattern string `toml:"pattern" mapstructure:"pattern"` // file name regexp with network and station groups
	Network string `toml:"network" mapstructure:"network"` // only this network when set
	Station string `toml:"station" mapstructure:"station"` // only this station when set
}

// NewConfig returns a Config with defaults.
func NewConfig() Config {
	return Config{
		Workers: runtime.GOMAXPROCS(0),
		Pattern: DefaultPattern,
	}
}

// Loader receives assembled volumes. *store.Store implements it.
type Loader interface {
	Load(ctx context.Context, vol *volume.Volume, src *source.Source) (store.LoadResult, error)
}

var _ Loader = (*store.Store)(nil)

// FileResult is the outcome of one file.
type FileResult struct {
	Path        string
	Network     string
	Station     string
	Size        int64
	Stations    int
	Epochs      int
	Duplicate   bool   // source was already loaded, or is a copy of another file
	DuplicateOf string // name of the file of the same scan with identical content
	Load        store.LoadResult
	Err         error
	Elapsed     time.Duration
}

// Report summarises a scan.
type Report struct {
	Files      []FileResult
	Loaded     int
	Duplicates int
	Distinct   int // different source contents among readable files
	Failed     int
	Bytes      int64
	Elapsed    time.Duration
}

// Scanner discovers and loads dump files.
type Scanner struct {
	cfg     Config
	pattern *regexp.Regexp
	loader  Loader
	log     *zap.Logger

	parserOpts []parser.Option
	volumeOpts []volume.Option
}

// New creates a Scanner. A nil loader only parses and assembles, which
// validates a directory without a database.
func New(loader Loader, log *zap.Logger, cfg Config) (*Scanner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}

	re, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("scan: pattern: %w", err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("scan: pattern %q needs network and station groups", cfg.Pattern)
	}

	return &Scanner{
		cfg:     cfg,
		pattern: re,
		loader:  loader,
		log:     log,
	}, nil
}

// WithParserOptions sets the options used for every file's parser.
func (s *Scanner) WithParserOptions(opts ...parser.Option) *Scanner {
	s.parserOpts = opts
	return s
}

// WithVolumeOptions sets the options used for every file's assembler.
func (s *Scanner) WithVolumeOptions(opts ...volume.Option) *Scanner {
	s.volumeOpts = opts
	return s
}

type candidate struct {
	path, network, station string
}

// Discover lists the dump files of dir matching the pattern and the
// network and station filters, sorted by name.
func (s *Scanner) Discover(dir string) ([]string, error) {
	cands, err := s.discover(dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(cands))
	for i, c := range cands {
		paths[i] = c.path
	}

	return paths, nil
}

func (s *Scanner) discover(dir string) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := s.pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		network, station := m[1], m[2]
		if s.cfg.Network != "" && s.cfg.Network != network {
			continue
		}
		if s.cfg.Station != "" && s.cfg.Station != station {
			continue
		}
		out = append(out, candidate{path: filepath.Join(dir, e.Name()), network: network, station: station})
	}

	return out, nil
}

// Scan processes every dump of dir.
//
// The returned error aggregates the per-file failures (see multierr.Errors);
// it is nil when every file loaded or was already loaded. A cancelled ctx
// stops the scan and is returned as is.
//
// Parameters:
//   - ctx: Context for cancellation
//   - dir: Directory holding the dumps
//
// Returns:
//   - Report: Per-file outcomes in file name order
//   - error: Aggregated file errors, a context error, or a directory read error
func (s *Scanner) Scan(ctx context.Context, dir string) (Report, error) {
	start := time.Now()

	cands, err := s.discover(dir)
	if err != nil {
		return Report{}, err
	}

	s.log.Info("Scanning directory",
		zap.String("dir", dir),
		zap.Int("files", len(cands)),
		zap.Int("workers", s.cfg.Workers))

	results := make([]FileResult, len(cands))
	tracker := collision.NewTracker()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, c := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.processFile(gctx, tracker, c)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	failCopies(results)

	report := Report{Files: results, Distinct: tracker.Distinct()}
	var failures error
	for _, r := range results {
		report.Bytes += r.Size
		switch {
		case r.Err != nil:
			report.Failed++
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", filepath.Base(r.Path), r.Err))
		case r.Duplicate:
			report.Duplicates++
		default:
			report.Loaded++
		}
	}
	report.Elapsed = time.Since(start)

	s.log.Info("Scan complete",
		zap.Int("loaded", report.Loaded),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("copies", tracker.Duplicates()),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed))

	return report, failures
}

// failCopies turns copies of a file that failed to load into failures, since
// nothing with their content reached the loader.
func failCopies(results []FileResult) {
	byName := make(map[string]*FileResult, len(results))
	for i := range results {
		byName[filepath.Base(results[i].Path)] = &results[i]
	}

	for i := range results {
		r := &results[i]
		if r.DuplicateOf == "" {
			continue
		}
		if owner, ok := byName[r.DuplicateOf]; ok && owner.Err != nil {
			r.Duplicate = false
			r.Err = fmt.Errorf("same content as %s: %w", r.DuplicateOf, owner.Err)
		}
	}
}

func (s *Scanner) processFile(ctx context.Context, tracker *collision.Tracker, c candidate) (res FileResult) {
	start := time.Now()
	res = FileResult{Path: c.path, Network: c.network, Station: c.station}
	log := s.log.With(zap.String("path", c.path))

	defer func() {
		res.Elapsed = time.Since(start)
	}()

	src, err := source.Open(c.path)
	if err != nil {
		res.Err = err
		log.Warn("Skipping unreadable file", zap.Error(err))

		return res
	}
	res.Size = src.Size

	blockettes, err := parser.Parse(src.Lines, s.parserOpts...)
	if err != nil {
		res.Err = err
		log.Warn("Skipping unparsable file", zap.Error(err))

		return res
	}

	vol, err := volume.Assemble(blockettes, s.volumeOpts...)
	if err != nil {
		res.Err = err
		log.Warn("Skipping inconsistent file", zap.Error(err))

		return res
	}
	counts := vol.Counts()
	res.Stations, res.Epochs = counts.Stations, counts.Epochs

	owner, dup, err := tracker.Claim(filepath.Base(c.path), src.Hash)
	if err != nil {
		res.Err = err
		return res
	}
	if dup {
		res.Duplicate = true
		res.DuplicateOf = owner
		log.Info("Skipping copy of another file", zap.String("same_as", owner))

		return res
	}

	if s.loader == nil {
		return res
	}

	res.Load, err = s.loader.Load(logger.NewContextWithLogger(ctx, log), vol, src)
	switch {
	case errors.Is(err, errs.ErrAlreadyLoaded):
		res.Duplicate = true
	case err != nil:
		res.Err = err
		log.Warn("Failed to load file", zap.Error(err))
	default:
		log.Debug("Loaded file", zap.Int("channel_epochs", res.Load.ChannelEpochs))
	}

	return res
}
