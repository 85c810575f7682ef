package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
	"github.com/arloliu/dataless/source"
	"github.com/arloliu/dataless/store"
	"github.com/arloliu/dataless/volume"
)

func dump(network, station string) string {
	return strings.Join([]string{
		"B010F03     SEED format version:   2.4",
		"B050F03     Station call letters:  " + station,
		"B050F16     Network Code:          " + network,
		"B052F03     Location:              00",
		"B052F04     Channel:               BHZ",
		"B052F22     Start date:            2011,045",
		"B053F03     Transfer function type: A",
		"B053F04     Stage sequence number:  1",
		"",
	}, "\n")
}

func writeFile(t *testing.T, dir, name, text string, ct format.CompressionType) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()

	w, err := compress.NewWriter(f, ct)
	require.NoError(t, err)
	_, err = w.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func testDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, "DATALESS.IU_ANMO", dump("IU", "ANMO"), format.CompressionNone)
	writeFile(t, dir, "DATALESS.IU_COLA.gz", dump("IU", "COLA"), format.CompressionGzip)
	writeFile(t, dir, "DATALESS.II_PFO.zst", dump("II", "PFO"), format.CompressionZstd)
	writeFile(t, dir, "README.txt", "not a dump", format.CompressionNone)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "DATALESS.IU_SUBDIR"), 0o755))

	return dir
}

func newStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(store.InmemPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	return s
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(nil, nil, Config{Pattern: "("})
	require.Error(t, err)

	_, err = New(nil, nil, Config{Pattern: `^DATALESS\.(.*)$`})
	require.Error(t, err, "pattern needs two groups")
}

func TestDiscover(t *testing.T) {
	dir := testDir(t)

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"all", Config{}, []string{"DATALESS.II_PFO.zst", "DATALESS.IU_ANMO", "DATALESS.IU_COLA.gz"}},
		{"network", Config{Network: "IU"}, []string{"DATALESS.IU_ANMO", "DATALESS.IU_COLA.gz"}},
		{"station", Config{Station: "PFO"}, []string{"DATALESS.II_PFO.zst"}},
		{"none", Config{Network: "XX"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(nil, nil, tt.cfg)
			require.NoError(t, err)

			paths, err := s.Discover(dir)
			require.NoError(t, err)

			names := make([]string, 0, len(paths))
			for _, p := range paths {
				names = append(names, filepath.Base(p))
			}
			require.Equal(t, tt.want, names)
		})
	}

	s, err := New(nil, nil, Config{})
	require.NoError(t, err)
	_, err = s.Discover(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestScan_LoadsEveryFile(t *testing.T) {
	ctx := context.Background()
	dir := testDir(t)
	db := newStore(t)

	s, err := New(db, zap.NewNop(), Config{Workers: 2})
	require.NoError(t, err)

	report, err := s.Scan(ctx, dir)
	require.NoError(t, err)
	require.Len(t, report.Files, 3)
	require.Equal(t, 3, report.Loaded)
	require.Zero(t, report.Failed)
	require.Positive(t, report.Bytes)

	for _, f := range report.Files {
		require.NoError(t, f.Err)
		require.Equal(t, 1, f.Stations)
		require.Equal(t, 1, f.Epochs)
		require.Equal(t, 1, f.Load.Stages)
	}
	require.Equal(t, "II", report.Files[0].Network)
	require.Equal(t, "PFO", report.Files[0].Station)

	stations, err := db.Stations(ctx, store.StationFilter{})
	require.NoError(t, err)
	require.Len(t, stations, 3)

	// a second scan finds nothing new
	report, err = s.Scan(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 3, report.Duplicates)
	require.Zero(t, report.Loaded)
}

func TestScan_ReportsFailuresAndContinues(t *testing.T) {
	ctx := context.Background()
	dir := testDir(t)
	writeFile(t, dir, "DATALESS.IU_BAD1", "B010F03 Version: 2.4\nB010F04 Length: 12\nB010F03 Version: 2.4\n", format.CompressionNone)
	writeFile(t, dir, "DATALESS.IU_BAD2", "B05XF03 junk\n", format.CompressionNone)

	s, err := New(newStore(t), zap.NewNop(), Config{Workers: 4})
	require.NoError(t, err)

	report, err := s.Scan(ctx, dir)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.ErrorIs(t, err, errs.ErrDuplicateVolumeInfo)
	require.ErrorIs(t, err, errs.ErrMalformedKey)
	require.Contains(t, err.Error(), "DATALESS.IU_BAD1")

	require.Equal(t, 3, report.Loaded)
	require.Equal(t, 2, report.Failed)
}

func TestScan_WithoutLoader(t *testing.T) {
	s, err := New(nil, nil, Config{Workers: 1})
	require.NoError(t, err)

	report, err := s.Scan(context.Background(), testDir(t))
	require.NoError(t, err)
	require.Equal(t, 3, report.Loaded)
	for _, f := range report.Files {
		require.Zero(t, f.Load.Stations)
	}
}

func TestScan_IdenticalContent(t *testing.T) {
	ctx := context.Background()
	dir := testDir(t)
	writeFile(t, dir, "DATALESS.IU_ANMO.lz4", dump("IU", "ANMO"), format.CompressionLZ4)
	db := newStore(t)

	s, err := New(db, zap.NewNop(), Config{Workers: 4})
	require.NoError(t, err)

	report, err := s.Scan(ctx, dir)
	require.NoError(t, err)
	require.Len(t, report.Files, 4)
	require.Equal(t, 3, report.Loaded)
	require.Equal(t, 1, report.Duplicates)
	require.Equal(t, 3, report.Distinct)

	var copies []string
	for _, f := range report.Files {
		if f.DuplicateOf != "" {
			require.True(t, f.Duplicate)
			copies = append(copies, filepath.Base(f.Path)+"="+f.DuplicateOf)
		}
	}
	require.Len(t, copies, 1)
	require.Contains(t, []string{
		"DATALESS.IU_ANMO.lz4=DATALESS.IU_ANMO",
		"DATALESS.IU_ANMO=DATALESS.IU_ANMO.lz4",
	}, copies[0])

	stations, err := db.Stations(ctx, store.StationFilter{Station: "ANMO"})
	require.NoError(t, err)
	require.Len(t, stations, 1)
}

// failingLoader refuses every volume holding station.
type failingLoader struct {
	station string
	err     error
}

func (l failingLoader) Load(_ context.Context, vol *volume.Volume, _ *source.Source) (store.LoadResult, error) {
	if _, ok := vol.Station("IU", l.station); ok {
		return store.LoadResult{}, l.err
	}

	return store.LoadResult{Stations: 1}, nil
}

func TestScan_CopyOfFailedLoad(t *testing.T) {
	boom := errors.New("disk full")
	dir := testDir(t)
	writeFile(t, dir, "DATALESS.IU_ANMO.lz4", dump("IU", "ANMO"), format.CompressionLZ4)

	s, err := New(failingLoader{station: "ANMO", err: boom}, zap.NewNop(), Config{Workers: 4})
	require.NoError(t, err)

	report, err := s.Scan(context.Background(), dir)
	require.ErrorIs(t, err, boom)
	require.Len(t, multierr.Errors(err), 2)
	require.Equal(t, 2, report.Loaded)
	require.Equal(t, 2, report.Failed)
	require.Zero(t, report.Duplicates)

	for _, f := range report.Files {
		if f.Station != "ANMO" {
			continue
		}
		require.ErrorIs(t, f.Err, boom)
		require.False(t, f.Duplicate)
	}
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(nil, nil, Config{Workers: 1})
	require.NoError(t, err)

	_, err = s.Scan(ctx, testDir(t))
	require.ErrorIs(t, err, context.Canceled)
}
