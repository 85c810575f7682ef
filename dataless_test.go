package dataless

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/epoch"
	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
	"github.com/arloliu/dataless/parser"
	"github.com/arloliu/dataless/volume"
)

const dump = `# rdseed -s DATALESS.IU_ANMO
B010F03     SEED format version:                   2.4
B050F03     Station call letters:                  ANMO
B050F16     Network Code:                          IU
B052F03     Location:                              00
B052F04     Channel:                               BHZ
B052F22     Start date:                            2011,045,12:30:00.0000
B053F03     Transfer function type:                A
B053F04     Stage sequence number:                 1
B053F10-13    0  -3.70040E-02  3.70080E-02  0.00000E+00  0.00000E+00
B058F03     Stage sequence number:                 0
B058F04     Sensitivity:                           8.4e+08
`

// shape flattens a volume into comparable paths.
func shape(vol *volume.Volume) []string {
	var out []string
	_ = vol.Walk(func(s *volume.StationData, ch *volume.ChannelData, key epoch.Key, e *volume.EpochData) error {
		for _, seq := range e.StageKeys() {
			for n := range e.Stages[seq].Blockettes {
				out = append(out, strings.Join([]string{s.Key(), ch.Key(), string(key), format.BlocketteNumber(n).String()}, "/"))
			}
		}

		return nil
	})

	return out
}

func TestProcess(t *testing.T) {
	vol, err := Process(strings.Split(dump, "\n"))
	require.NoError(t, err)

	want := []string{
		"IU_ANMO/00-BHZ/2011,045,12:30:00/Channel Sensitivity/Gain",
		"IU_ANMO/00-BHZ/2011,045,12:30:00/Response (Poles & Zeros)",
	}
	if diff := cmp.Diff(want, shape(vol)); diff != "" {
		t.Errorf("volume shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_Errors(t *testing.T) {
	_, err := Process([]string{"B05XF03 junk"})
	require.ErrorIs(t, err, errs.ErrMalformedKey)

	_, err = Process([]string{"B059F03 Beginning: 2011,045"})
	require.ErrorIs(t, err, errs.ErrMissingContext)
}

func TestProcess_Options(t *testing.T) {
	lines := append(strings.Split(strings.TrimSpace(dump), "\n"), "B071F03 Stage sequence number: 2")

	vol, err := Process(lines)
	require.NoError(t, err)
	ep := vol.Stations["IU_ANMO"].Channels["00-BHZ"].Epochs["2011,045,12:30:00"]
	require.Len(t, ep.Misc, 1)

	vol, err = Process(lines,
		WithParserOptions(parser.WithStrictKeys(false)),
		WithVolumeOptions(volume.WithStageField(71, 3)),
	)
	require.NoError(t, err)
	ep = vol.Stations["IU_ANMO"].Channels["00-BHZ"].Epochs["2011,045,12:30:00"]
	require.Empty(t, ep.Misc)
	require.Contains(t, ep.Stages, 2)

	_, err = Process(lines, WithVolumeOptions(volume.WithRules(nil)))
	require.Error(t, err)

	_, err = Process(lines, WithParserOptions(parser.WithRules((*blockette.Rules)(nil))))
	require.Error(t, err)
}

func TestProcessReader_Compressed(t *testing.T) {
	var buf bytes.Buffer
	w, err := compress.NewWriter(&buf, format.CompressionZstd)
	require.NoError(t, err)
	_, err = w.Write([]byte(dump))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	vol, err := ProcessReader(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"IU_ANMO"}, vol.StationKeys())
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DATALESS.IU_ANMO")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o600))

	vol, err := ProcessFile(path)
	require.NoError(t, err)
	require.NotNil(t, vol.Info)

	res, err := ProcessFileWithStats(path)
	require.NoError(t, err)
	require.Equal(t, "DATALESS.IU_ANMO", res.Source.Name)
	require.Equal(t, 1, res.Stats.Comments)
	require.Equal(t, 5, res.Stats.Blockettes)
	require.Equal(t, vol.Counts(), res.Volume.Counts())

	_, err = ProcessFile(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
