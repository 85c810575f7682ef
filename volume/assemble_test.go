package volume

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/epoch"
	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/parser"
)

func parse(t *testing.T, text string) []*blockette.Blockette {
	t.Helper()

	out, err := parser.Parse(strings.Split(strings.TrimSpace(text), "\n"))
	require.NoError(t, err)

	return out
}

func assemble(t *testing.T, text string) *Volume {
	t.Helper()

	vol, err := Assemble(parse(t, text))
	require.NoError(t, err)

	return vol
}

const anmo = `
B010F03     SEED format version:                   2.4
B010F04     Logical record length:                 12
B033F03     Description key code:                  1
B033F04     Abbreviation description:              Streckeisen STS-1
B050F03     Station call letters:                  ANMO
B050F13     Start effective date:                  1989,241
B050F14     End effective date:                    2002,323,21:07:59
B050F16     Network Code:                          IU
B050F03     Station call letters:                  ANMO
B050F13     Start effective date:                  2002,323,21:08:00
B050F14     End effective date:                    (null)
B050F16     Network Code:                          IU
B051F03     Beginning of effective time:           2002,323
B051F05     Comment code key:                      7
B052F03     Location:                              00
B052F04     Channel:                               BHZ
B052F22     Start date:                            2002,323,21:08:00
B052F23     End date:                              2008,182,00:00:00
B030F03     Short descriptive name:                Steim2
B053F03     Transfer function type:                A
B053F04     Stage sequence number:                 1
B058F03     Stage sequence number:                 1
B058F04     Sensitivity:                           2.0e+03
B054F03     Response type:                         D
B054F04     Stage sequence number:                 2
B057F03     Stage sequence number:                 2
B058F03     Stage sequence number:                 2
B058F04     Sensitivity:                           4.2e+05
B058F03     Stage sequence number:                 0
B058F04     Sensitivity:                           8.4e+08
B052F03     Location:                              00
B052F04     Channel:                               BHZ
B052F22     Start date:                            2008,182,00:00:00
B052F23     End date:                              (null)
B059F03     Beginning of effective time:           2008,182
B059F05     Comment code key:                      3
B052F03     Location:                              10
B052F04     Channel:                               LHZ
B052F22     Start date:                            2008,182
B050F03     Station call letters:                  COLA
B050F16     Network Code:                          IU
B052F03     Location:                              00
B052F04     Channel:                               BHZ
B052F22     Start date:                            2010,001
`

// ==============================================================================
// Tree shape
// ==============================================================================

func TestAssemble_MinimalVolume(t *testing.T) {
	vol := assemble(t, `
B010F03 SEED format version: 2.4
B050F03 Station call letters: ANMO
B050F16 Network Code: IU
B052F03 Location: 00
B052F04 Channel: BHZ
B052F22 Start date: 2011,045
`)

	require.NotNil(t, vol.Info)
	require.Equal(t, []string{"IU_ANMO"}, vol.StationKeys())

	station := vol.Stations["IU_ANMO"]
	require.Equal(t, "IU", station.Network)
	require.Equal(t, "ANMO", station.Name)
	require.Equal(t, []string{"00-BHZ"}, station.ChannelKeys())

	channel := station.Channels["00-BHZ"]
	require.Equal(t, []epoch.Key{"2011,045,00:00:00"}, channel.EpochKeys())

	ep := channel.Epochs["2011,045,00:00:00"]
	require.Equal(t, 52, ep.Info.Number)
	require.Equal(t, "BHZ", ep.Info.Values(ChannelField)[0].Scalar())
	require.Empty(t, ep.Stages)
	require.Nil(t, ep.Format)
}

func TestAssemble_FullStation(t *testing.T) {
	vol := assemble(t, anmo)

	require.Equal(t, []string{"IU_ANMO", "IU_COLA"}, vol.StationKeys())
	require.Len(t, vol.Abbreviations, 1)
	require.Equal(t, 33, vol.Abbreviations[0].Number)

	station, ok := vol.Station("IU", "ANMO")
	require.True(t, ok)
	require.Equal(t, []epoch.Key{"1989,241,00:00:00", "2002,323,21:08:00"}, station.EpochKeys())
	require.Equal(t, []epoch.Key{"2002,323,00:00:00"}, station.CommentKeys())
	require.Equal(t, []string{"00-BHZ", "10-LHZ"}, station.ChannelKeys())

	bhz, ok := station.Channel("00", "BHZ")
	require.True(t, ok)
	require.Equal(t, []epoch.Key{"2002,323,21:08:00", "2008,182,00:00:00"}, bhz.EpochKeys())
	require.Equal(t, []epoch.Key{"2008,182,00:00:00"}, bhz.CommentKeys())

	first := bhz.Epochs["2002,323,21:08:00"]
	require.NotNil(t, first.Format)
	require.Equal(t, "Steim2", first.Format.Values(3)[0].Scalar())
	require.Equal(t, []int{0, 1, 2}, first.StageKeys())

	require.Len(t, first.Stages[1].Blockettes, 2)
	require.Contains(t, first.Stages[1].Blockettes, 53)
	require.Contains(t, first.Stages[1].Blockettes, 58)
	require.Len(t, first.Stages[2].Blockettes, 3)
	require.Equal(t, "8.4e+08", first.Stages[0].Blockettes[58].Values(4)[0].Scalar())

	second := bhz.Epochs["2008,182,00:00:00"]
	require.Empty(t, second.Stages)
	require.Nil(t, second.Format)

	require.Equal(t, Counts{
		Stations:      2,
		StationEpochs: 2,
		Channels:      3,
		Epochs:        4,
		Stages:        3,
		Comments:      2,
		Abbreviations: 1,
	}, vol.Counts())
}

func TestAssemble_MiscInEpochContext(t *testing.T) {
	vol := assemble(t, `
B050F03 Station call letters: ANMO
B050F16 Network Code: IU
B052F03 Location: 00
B052F04 Channel: BHZ
B052F22 Start date: 2011,045
B071F03 Origin time of event: 2011,045
`)

	ep := vol.Stations["IU_ANMO"].Channels["00-BHZ"].Epochs["2011,045,00:00:00"]
	require.Len(t, ep.Misc, 1)
	require.Equal(t, 71, ep.Misc[0].Number)
	require.Empty(t, vol.Abbreviations)
}

func TestAssemble_StationIndexIgnored(t *testing.T) {
	vol := assemble(t, `
B011F03 Number of stations: 1
B011F04 Station identifier code: ANMO
`)
	require.Empty(t, vol.Stations)
	require.Empty(t, vol.Abbreviations)
	require.Nil(t, vol.Info)
}

func TestAssemble_Empty(t *testing.T) {
	vol, err := Assemble(nil)
	require.NoError(t, err)
	require.Nil(t, vol.Info)
	require.Empty(t, vol.Stations)
	require.Equal(t, Counts{}, vol.Counts())
}

func TestAssemble_DuplicateChannelEpochReplaces(t *testing.T) {
	vol := assemble(t, `
B050F03 Station call letters: ANMO
B050F16 Network Code: IU
B052F03 Location: 00
B052F04 Channel: BHZ
B052F22 Start date: 2011,045
B053F03 Transfer function type: A
B053F04 Stage sequence number: 1
B052F03 Location: 00
B052F04 Channel: BHZ
B052F22 Start date: 2011,045,00:00:00.0000
`)

	ch := vol.Stations["IU_ANMO"].Channels["00-BHZ"]
	require.Len(t, ch.Epochs, 1)
	require.Empty(t, ch.Epochs["2011,045,00:00:00"].Stages)
}

// ==============================================================================
// Errors
// ==============================================================================

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
		index int
	}{
		{
			name:  "duplicate volume info",
			input: "B010F03 Version: 2.4\nB010F04 Record length: 12\nB010F03 Version: 2.3",
			want:  errs.ErrDuplicateVolumeInfo,
			index: 1,
		},
		{
			name:  "channel comment before any channel",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB059F03 Beginning: 2011,045",
			want:  errs.ErrMissingContext,
			index: 1,
		},
		{
			name:  "station comment before any station",
			input: "B051F03 Beginning: 2011,045",
			want:  errs.ErrMissingContext,
		},
		{
			name:  "channel before any station",
			input: "B052F03 Location: 00\nB052F04 Channel: BHZ\nB052F22 Start: 2011,045",
			want:  errs.ErrMissingContext,
		},
		{
			name:  "stage before any channel",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB053F04 Stage sequence number: 1",
			want:  errs.ErrMissingContext,
			index: 1,
		},
		{
			name:  "data format before any channel",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB030F03 Name: Steim2",
			want:  errs.ErrMissingContext,
			index: 1,
		},
		{
			name:  "station without network",
			input: "B050F03 Station: ANMO",
			want:  errs.ErrMissingField,
		},
		{
			name:  "channel without start date",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB052F03 Location: 00\nB052F04 Channel: BHZ",
			want:  errs.ErrMissingField,
			index: 1,
		},
		{
			name:  "channel with bad start date",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB052F03 Location: 00\nB052F04 Channel: BHZ\nB052F22 Start: yesterday",
			want:  errs.ErrInvalidTimestamp,
			index: 1,
		},
		{
			name: "channel with bad end date",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB052F03 Location: 00\nB052F04 Channel: BHZ\n" +
				"B052F22 Start: 2010,001\nB052F23 End: 2011,400,00:00:00",
			want:  errs.ErrInvalidTimestamp,
			index: 1,
		},
		{
			name:  "station with bad end date",
			input: "B050F03 Station: ANMO\nB050F13 Start: 2010,001\nB050F14 End: 2011,001,25:00:00\nB050F16 Network: IU",
			want:  errs.ErrInvalidTimestamp,
		},
		{
			name:  "comment with bad end date",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB051F03 Beginning: 2011,045\nB051F04 End: 2011,000",
			want:  errs.ErrInvalidTimestamp,
			index: 1,
		},
		{
			name: "stage with bad sequence number",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB052F03 Location: 00\nB052F04 Channel: BHZ\n" +
				"B052F22 Start: 2011,045\nB058F03 Stage sequence number: first",
			want:  errs.ErrInvalidFieldValue,
			index: 2,
		},
		{
			name: "station reopened after another station",
			input: "B050F03 Station: ANMO\nB050F16 Network: IU\nB050F03 Station: COLA\nB050F16 Network: IU\n" +
				"B050F03 Station: ANMO\nB050F16 Network: IU",
			want:  errs.ErrDuplicateStation,
			index: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol, err := Assemble(parse(t, tt.input))
			require.Nil(t, vol)
			require.ErrorIs(t, err, tt.want)

			var bErr *errs.BlocketteError
			require.True(t, errors.As(err, &bErr))
			require.Equal(t, tt.index, bErr.Index)
		})
	}
}

// ==============================================================================
// Options
// ==============================================================================

func TestAssemble_WithStageField(t *testing.T) {
	input := `
B050F03 Station call letters: ANMO
B050F16 Network Code: IU
B052F03 Location: 00
B052F04 Channel: BHZ
B052F22 Start date: 2011,045
B071F03 Stage sequence number: 4
`

	vol, err := Assemble(parse(t, input), WithStageField(71, 3))
	require.NoError(t, err)

	ep := vol.Stations["IU_ANMO"].Channels["00-BHZ"].Epochs["2011,045,00:00:00"]
	require.Empty(t, ep.Misc)
	require.Contains(t, ep.Stages, 4)
	require.Contains(t, ep.Stages[4].Blockettes, 71)
}

func TestNewAssembler_InvalidOptions(t *testing.T) {
	_, err := NewAssembler(WithRules(nil))
	require.Error(t, err)

	_, err = NewAssembler(WithStageField(-1, 3))
	require.Error(t, err)
}

func TestAssemble_Progress(t *testing.T) {
	bs := parse(t, anmo)

	var last int
	calls := 0
	_, err := Assemble(bs, WithProgress(func(done, total int) {
		require.Equal(t, len(bs), total)
		require.Greater(t, done, last)
		last = done
		calls++
	}))
	require.NoError(t, err)
	require.Equal(t, len(bs), last)
	require.LessOrEqual(t, calls, 100)
}

// ==============================================================================
// Queries
// ==============================================================================

func TestChannelData_EpochAt(t *testing.T) {
	vol := assemble(t, anmo)
	bhz := vol.Stations["IU_ANMO"].Channels["00-BHZ"]

	at := func(s string) time.Time {
		tm, err := epoch.Parse(s)
		require.NoError(t, err)

		return tm.Time()
	}

	_, _, ok := bhz.EpochAt(at("2001,001"))
	require.False(t, ok)

	key, ep, ok := bhz.EpochAt(at("2005,100,12:00:00"))
	require.True(t, ok)
	require.Equal(t, epoch.Key("2002,323,21:08:00"), key)
	require.Same(t, bhz.Epochs[key], ep)

	key, _, ok = bhz.EpochAt(at("2008,182"))
	require.True(t, ok)
	require.Equal(t, epoch.Key("2008,182,00:00:00"), key, "overlap resolves to the later epoch")

	key, _, ok = bhz.EpochAt(at("2030,001"))
	require.True(t, ok, "open epoch")
	require.Equal(t, epoch.Key("2008,182,00:00:00"), key)

	end, ok := bhz.Epochs["2002,323,21:08:00"].End()
	require.True(t, ok)
	require.Equal(t, "2008,182,00:00:00", end.String())

	_, ok = bhz.Epochs["2008,182,00:00:00"].End()
	require.False(t, ok)
}

func TestStationData_EpochAt(t *testing.T) {
	vol := assemble(t, anmo)
	station := vol.Stations["IU_ANMO"]

	key, b, ok := station.EpochAt(time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.Equal(t, epoch.Key("1989,241,00:00:00"), key)
	require.Equal(t, 50, b.Number)

	key, _, ok = station.EpochAt(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.Equal(t, epoch.Key("2002,323,21:08:00"), key)

	_, _, ok = station.EpochAt(time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC))
	require.False(t, ok)
}

func TestVolume_Walk(t *testing.T) {
	vol := assemble(t, anmo)

	var visited []string
	err := vol.Walk(func(s *StationData, ch *ChannelData, key epoch.Key, e *EpochData) error {
		require.Same(t, ch.Epochs[key], e)
		visited = append(visited, s.Key()+"/"+ch.Key()+"/"+string(key))

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"IU_ANMO/00-BHZ/2002,323,21:08:00",
		"IU_ANMO/00-BHZ/2008,182,00:00:00",
		"IU_ANMO/10-LHZ/2008,182,00:00:00",
		"IU_COLA/00-BHZ/2010,001,00:00:00",
	}, visited)

	stop := errors.New("stop")
	calls := 0
	err = vol.Walk(func(*StationData, *ChannelData, epoch.Key, *EpochData) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}
