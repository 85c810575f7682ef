package volume

import (
	"time"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/epoch"
)

// Counts summarises the size of a Volume.
type Counts struct {
	Stations      int
	StationEpochs int
	Channels      int
	Epochs        int
	Stages        int
	Comments      int
	Abbreviations int
}

// StationKeys returns the station keys in ascending order.
func (v *Volume) StationKeys() []string {
	return sortedKeys(v.Stations)
}

// Station returns the station identified by network and station code.
func (v *Volume) Station(network, station string) (*StationData, bool) {
	s, ok := v.Stations[StationKey(network, station)]
	return s, ok
}

// Counts walks the tree and counts its nodes.
func (v *Volume) Counts() Counts {
	c := Counts{
		Stations:      len(v.Stations),
		Abbreviations: len(v.Abbreviations),
	}
	for _, s := range v.Stations {
		c.StationEpochs += len(s.Epochs)
		c.Comments += len(s.Comments)
		c.Channels += len(s.Channels)
		for _, ch := range s.Channels {
			c.Comments += len(ch.Comments)
			c.Epochs += len(ch.Epochs)
			for _, e := range ch.Epochs {
				c.Stages += len(e.Stages)
			}
		}
	}

	return c
}

// WalkFunc is called by Walk for every channel epoch.
type WalkFunc func(station *StationData, channel *ChannelData, key epoch.Key, e *EpochData) error

// Walk visits every channel epoch in station, channel and epoch key order.
// It stops at the first error returned by fn and returns it.
func (v *Volume) Walk(fn WalkFunc) error {
	for _, sk := range v.StationKeys() {
		s := v.Stations[sk]
		for _, ck := range s.ChannelKeys() {
			ch := s.Channels[ck]
			for _, ek := range ch.EpochKeys() {
				if err := fn(s, ch, ek, ch.Epochs[ek]); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Key returns the station map key of s.
func (s *StationData) Key() string {
	return StationKey(s.Network, s.Name)
}

// ChannelKeys returns the channel keys in ascending order.
func (s *StationData) ChannelKeys() []string {
	return sortedKeys(s.Channels)
}

// EpochKeys returns the station epoch keys in chronological order.
func (s *StationData) EpochKeys() []epoch.Key {
	return sortedKeys(s.Epochs)
}

// CommentKeys returns the station comment keys in chronological order.
func (s *StationData) CommentKeys() []epoch.Key {
	return sortedKeys(s.Comments)
}

// Channel returns the channel identified by location and channel code.
func (s *StationData) Channel(location, channel string) (*ChannelData, bool) {
	ch, ok := s.Channels[ChannelKey(location, channel)]
	return ch, ok
}

// EpochAt returns the station epoch effective at t.
func (s *StationData) EpochAt(t time.Time) (epoch.Key, *blockette.Blockette, bool) {
	var (
		found   epoch.Key
		matched *blockette.Blockette
	)
	for _, k := range s.EpochKeys() {
		b := s.Epochs[k]
		if covers(k, b, StationEndField, t) {
			found, matched = k, b
		}
	}

	return found, matched, matched != nil
}

// Key returns the channel map key of c.
func (c *ChannelData) Key() string {
	return ChannelKey(c.Location, c.Name)
}

// EpochKeys returns the channel epoch keys in chronological order.
func (c *ChannelData) EpochKeys() []epoch.Key {
	return sortedKeys(c.Epochs)
}

// CommentKeys returns the channel comment keys in chronological order.
func (c *ChannelData) CommentKeys() []epoch.Key {
	return sortedKeys(c.Comments)
}

// EpochAt returns the channel epoch effective at t. When epochs overlap the
// one with the latest start wins.
func (c *ChannelData) EpochAt(t time.Time) (epoch.Key, *EpochData, bool) {
	var (
		found   epoch.Key
		matched *EpochData
	)
	for _, k := range c.EpochKeys() {
		e := c.Epochs[k]
		if covers(k, e.Info, ChannelEndField, t) {
			found, matched = k, e
		}
	}

	return found, matched, matched != nil
}

// StageKeys returns the stage sequence numbers in ascending order.
func (e *EpochData) StageKeys() []int {
	return sortedKeys(e.Stages)
}

// End returns the end time of the epoch. ok is false for an open epoch.
func (e *EpochData) End() (epoch.Time, bool) {
	return endTime(e.Info, ChannelEndField)
}

// endTime reads an optional end timestamp. Missing or open values mean the
// epoch has no end; Assemble has already rejected unparsable ones.
func endTime(b *blockette.Blockette, id int) (epoch.Time, bool) {
	v, ok := b.FieldValue(id, 0)
	if !ok || epoch.IsOpen(v) {
		return epoch.Time{}, false
	}
	t, err := epoch.Parse(v)
	if err != nil {
		return epoch.Time{}, false
	}

	return t, true
}

// covers reports whether t lies in [start, end] of the epoch keyed by start.
func covers(start epoch.Key, b *blockette.Blockette, endField int, t time.Time) bool {
	st, err := start.Time()
	if err != nil || t.Before(st.Time()) {
		return false
	}
	end, ok := endTime(b, endField)
	if !ok {
		return true
	}

	return !t.After(end.Time())
}
