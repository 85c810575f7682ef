package volume

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/epoch"
	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
	"github.com/arloliu/dataless/internal/options"
)

// Assembler is the assemble phase: it folds a parsed blockette sequence into
// a Volume tree in a single pass.
//
// Note: Assembler is NOT thread-safe, but it keeps no state between calls, so
// a single Assembler may assemble many sequences one after another.
type Assembler struct {
	rules    *blockette.Rules
	progress func(done, total int)
}

// Option configures an Assembler.
type Option = options.Option[*Assembler]

// WithRules replaces the stage-sequence table. The rules are copied.
func WithRules(rules *blockette.Rules) Option {
	return options.New(func(a *Assembler) error {
		if rules == nil {
			return fmt.Errorf("volume: nil rules")
		}
		a.rules = rules.Clone()

		return nil
	})
}

// WithStageField registers number as a response-stage blockette whose stage
// sequence number is held in field.
func WithStageField(number, field int) Option {
	return options.New(func(a *Assembler) error {
		if number < 0 || field < 0 {
			return fmt.Errorf("volume: invalid stage field B%03dF%02d", number, field)
		}
		a.rules.SetStageField(number, field)

		return nil
	})
}

// WithProgress registers a callback invoked each time another whole percent
// of the blockettes has been assembled.
func WithProgress(fn func(done, total int)) Option {
	return options.NoError(func(a *Assembler) {
		a.progress = fn
	})
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{rules: blockette.DefaultRules()}
	if err := options.Apply(a, opts...); err != nil {
		return nil, err
	}

	return a, nil
}

// Assemble builds a Volume from blockettes with an Assembler configured by opts.
func Assemble(blockettes []*blockette.Blockette, opts ...Option) (*Volume, error) {
	a, err := NewAssembler(opts...)
	if err != nil {
		return nil, err
	}

	return a.Assemble(blockettes)
}

// assembleState is the context threaded through one Assemble pass.
type assembleState struct {
	vol        *Volume
	stationKey string
	station    *StationData
	channel    *ChannelData
	epoch      *EpochData
}

// Assemble builds the Volume tree from a parsed blockette sequence.
//
// The pass keeps a current station, channel and epoch. Station (B050) and
// channel (B052) identifiers open new contexts; comments, data formats and
// response stages attach to the innermost open context; any other blockette
// is kept in the current epoch's Misc list, or in Volume.Abbreviations when
// no epoch is open yet.
//
// Parameters:
//   - blockettes: Parse phase output, in arrival order
//
// Returns:
//   - *Volume: The assembled tree (nil on error)
//   - error: *errs.BlocketteError wrapping ErrDuplicateVolumeInfo, ErrMissingContext,
//     ErrDuplicateStation, ErrMissingField, ErrInvalidFieldValue or ErrInvalidTimestamp
func (a *Assembler) Assemble(blockettes []*blockette.Blockette) (*Volume, error) {
	st := &assembleState{vol: newVolume()}

	lastPercent := 0
	for i, b := range blockettes {
		if a.progress != nil {
			if percent := (i + 1) * 100 / len(blockettes); percent > lastPercent {
				lastPercent = percent
				a.progress(i+1, len(blockettes))
			}
		}

		if err := a.dispatch(st, b); err != nil {
			return nil, &errs.BlocketteError{Index: i, Number: b.Number, Err: err}
		}
	}

	return st.vol, nil
}

func (a *Assembler) dispatch(st *assembleState, b *blockette.Blockette) error {
	switch format.BlocketteNumber(b.Number) {
	case format.VolumeIdentifier:
		if st.vol.Info != nil {
			return errs.ErrDuplicateVolumeInfo
		}
		st.vol.Info = b

		return nil
	case format.StationIndex:
		return nil
	case format.StationIdentifier:
		return st.openStation(b)
	case format.StationComment:
		if st.station == nil {
			return fmt.Errorf("%w: station comment outside a station", errs.ErrMissingContext)
		}
		key, err := requiredKey(b, CommentStartField)
		if err != nil {
			return err
		}
		if err := checkEnd(b, CommentEndField); err != nil {
			return err
		}
		st.station.Comments[key] = b

		return nil
	case format.ChannelIdentifier:
		return st.openChannel(b)
	case format.DataFormat:
		if st.epoch == nil {
			return fmt.Errorf("%w: data format outside a channel epoch", errs.ErrMissingContext)
		}
		st.epoch.Format = b

		return nil
	case format.ChannelComment:
		if st.channel == nil {
			return fmt.Errorf("%w: channel comment outside a channel", errs.ErrMissingContext)
		}
		key, err := requiredKey(b, CommentStartField)
		if err != nil {
			return err
		}
		if err := checkEnd(b, CommentEndField); err != nil {
			return err
		}
		st.channel.Comments[key] = b

		return nil
	}

	if field, ok := a.rules.StageField(b.Number); ok {
		return st.addStage(b, field)
	}

	if st.epoch == nil {
		st.vol.Abbreviations = append(st.vol.Abbreviations, b)
		return nil
	}
	st.epoch.Misc = append(st.epoch.Misc, b)

	return nil
}

func (st *assembleState) openStation(b *blockette.Blockette) error {
	vals := b.Values(NetworkCodeField, StationCodeField)
	if vals[0].IsMissing() || vals[1].IsMissing() {
		return fmt.Errorf("%w: station needs fields %d and %d", errs.ErrMissingField, StationCodeField, NetworkCodeField)
	}

	if err := checkEnd(b, StationEndField); err != nil {
		return err
	}

	network, name := vals[0].Scalar(), vals[1].Scalar()
	key := StationKey(network, name)

	station, exists := st.vol.Stations[key]
	switch {
	case !exists:
		station = newStationData(network, name)
		st.vol.Stations[key] = station
	case key != st.stationKey:
		return fmt.Errorf("%w: %s", errs.ErrDuplicateStation, key)
	}

	if v, ok := b.FieldValue(StationStartField, 0); ok {
		t, err := epoch.Parse(v)
		if err != nil {
			return err
		}
		station.Epochs[t.Key()] = b
	}

	st.stationKey = key
	st.station = station
	st.channel = nil
	st.epoch = nil

	return nil
}

func (st *assembleState) openChannel(b *blockette.Blockette) error {
	if st.station == nil {
		return fmt.Errorf("%w: channel outside a station", errs.ErrMissingContext)
	}

	vals := b.Values(LocationField, ChannelField)
	if vals[0].IsMissing() || vals[1].IsMissing() {
		return fmt.Errorf("%w: channel needs fields %d and %d", errs.ErrMissingField, LocationField, ChannelField)
	}

	key, err := requiredKey(b, ChannelStartField)
	if err != nil {
		return err
	}
	if err := checkEnd(b, ChannelEndField); err != nil {
		return err
	}

	location, name := vals[0].Scalar(), vals[1].Scalar()
	chanKey := ChannelKey(location, name)
	channel, ok := st.station.Channels[chanKey]
	if !ok {
		channel = newChannelData(location, name)
		st.station.Channels[chanKey] = channel
	}

	ep := newEpochData(b)
	channel.Epochs[key] = ep

	st.channel = channel
	st.epoch = ep

	return nil
}

func (st *assembleState) addStage(b *blockette.Blockette, field int) error {
	if st.epoch == nil {
		return fmt.Errorf("%w: response stage outside a channel epoch", errs.ErrMissingContext)
	}

	v, ok := b.FieldValue(field, 0)
	if !ok {
		return fmt.Errorf("%w: stage sequence number (field %d)", errs.ErrMissingField, field)
	}
	seq, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: stage sequence number %q", errs.ErrInvalidFieldValue, v)
	}

	stage, ok := st.epoch.Stages[seq]
	if !ok {
		stage = newStageData(seq)
		st.epoch.Stages[seq] = stage
	}
	stage.Blockettes[b.Number] = b

	return nil
}

// requiredKey parses field id of b as an epoch key.
func requiredKey(b *blockette.Blockette, id int) (epoch.Key, error) {
	v, ok := b.FieldValue(id, 0)
	if !ok {
		return "", fmt.Errorf("%w: timestamp field %d", errs.ErrMissingField, id)
	}

	return epoch.ParseKey(v)
}

// checkEnd rejects an end timestamp in field id that is neither absent, open
// nor a valid timestamp.
func checkEnd(b *blockette.Blockette, id int) error {
	v, ok := b.FieldValue(id, 0)
	if !ok || epoch.IsOpen(v) {
		return nil
	}
	_, err := epoch.Parse(v)

	return err
}
