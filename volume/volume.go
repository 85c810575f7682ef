package volume

import (
	"cmp"
	"maps"
	"slices"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/epoch"
)

// Field ids read by the assembler.
const (
	VolumeVersionField = 3 // B010F03 version of format

	StationCodeField  = 3  // B050F03 station call letters
	StationStartField = 13 // B050F13 start effective date
	StationEndField   = 14 // B050F14 end effective date
	NetworkCodeField  = 16 // B050F16 network code

	LocationField     = 3  // B052F03 location identifier
	ChannelField      = 4  // B052F04 channel identifier
	ChannelStartField = 22 // B052F22 start date
	ChannelEndField   = 23 // B052F23 end date

	CommentStartField = 3 // B051F03 / B059F03 beginning of effective time
	CommentEndField   = 4 // B051F04 / B059F04 end effective time
)

// Volume is the assembled tree of a dataless volume.
//
// A Volume is built once by the Assembler and is read-only afterwards.
type Volume struct {
	// Info is the volume identifier blockette (B010), nil when absent.
	Info *blockette.Blockette

	// Abbreviations holds blockettes seen before any channel epoch that
	// belong to no epoch, such as the abbreviation dictionaries (B031-B034).
	Abbreviations []*blockette.Blockette

	// Stations maps "<network>_<station>" to the station data.
	Stations map[string]*StationData
}

// StationData holds every epoch, comment and channel of one station.
type StationData struct {
	Network  string
	Name     string
	Comments map[epoch.Key]*blockette.Blockette
	Epochs   map[epoch.Key]*blockette.Blockette
	Channels map[string]*ChannelData
}

// ChannelData holds every epoch and comment of one channel.
type ChannelData struct {
	Location string
	Name     string
	Comments map[epoch.Key]*blockette.Blockette
	Epochs   map[epoch.Key]*EpochData
}

// EpochData is one channel epoch: its identifier blockette, optional data
// format, response stages and any other blockettes seen in its context.
type EpochData struct {
	Info   *blockette.Blockette
	Format *blockette.Blockette
	Stages map[int]*StageData
	Misc   []*blockette.Blockette
}

// StageData holds the blockettes of one response stage keyed by blockette number.
type StageData struct {
	Sequence   int
	Blockettes map[int]*blockette.Blockette
}

// StationKey returns the station map key "<network>_<station>".
func StationKey(network, station string) string {
	return network + "_" + station
}

// ChannelKey returns the channel map key "<location>-<channel>".
func ChannelKey(location, channel string) string {
	return location + "-" + channel
}

func newVolume() *Volume {
	return &Volume{
		Stations: make(map[string]*StationData),
	}
}

func newStationData(network, name string) *StationData {
	return &StationData{
		Network:  network,
		Name:     name,
		Comments: make(map[epoch.Key]*blockette.Blockette),
		Epochs:   make(map[epoch.Key]*blockette.Blockette),
		Channels: make(map[string]*ChannelData),
	}
}

func newChannelData(location, name string) *ChannelData {
	return &ChannelData{
		Location: location,
		Name:     name,
		Comments: make(map[epoch.Key]*blockette.Blockette),
		Epochs:   make(map[epoch.Key]*EpochData),
	}
}

func newEpochData(info *blockette.Blockette) *EpochData {
	return &EpochData{
		Info:   info,
		Stages: make(map[int]*StageData),
		Misc:   make([]*blockette.Blockette, 0),
	}
}

func newStageData(seq int) *StageData {
	return &StageData{
		Sequence:   seq,
		Blockettes: make(map[int]*blockette.Blockette),
	}
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
