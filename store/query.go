package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/errs"
)

// VolumeRow is one loaded volume.
type VolumeRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	SourceHash  string         `db:"source_hash"`
	Compression string         `db:"compression"`
	SourceSize  int64          `db:"source_size"`
	SeedVersion sql.NullString `db:"seed_version"`
	LoadedAt    string         `db:"loaded_at"`
}

// StationRow is one station of a loaded volume.
type StationRow struct {
	ID       int64  `db:"id"`
	VolumeID string `db:"volume_id"`
	Network  string `db:"network"`
	Name     string `db:"name"`
}

// ChannelRow is one channel, with the codes of its station.
type ChannelRow struct {
	ID        int64  `db:"id"`
	StationID int64  `db:"station_id"`
	Network   string `db:"network"`
	Station   string `db:"station"`
	Location  string `db:"location"`
	Name      string `db:"name"`
}

// ChannelEpochRow is one channel epoch, with the codes of its channel.
type ChannelEpochRow struct {
	ID         int64           `db:"id"`
	ChannelID  int64           `db:"channel_id"`
	Network    string          `db:"network"`
	Station    string          `db:"station"`
	Location   string          `db:"location"`
	Channel    string          `db:"channel"`
	StartTime  string          `db:"start_time"`
	EndTime    sql.NullString  `db:"end_time"`
	SampleRate sql.NullFloat64 `db:"sample_rate"`
	Azimuth    sql.NullFloat64 `db:"azimuth"`
	Dip        sql.NullFloat64 `db:"dip"`
	Format     sql.NullString  `db:"format"`
	StageCount int             `db:"stage_count"`
	Digest     string          `db:"digest"` // xxHash64 of the B052 content, hex
}

// StationFilter restricts a station query. Empty fields match everything;
// a Limit of zero means no limit.
type StationFilter struct {
	Network string
	Station string
	Limit   uint64
}

// ChannelFilter restricts a channel query. Empty fields match everything;
// a Limit of zero means no limit.
type ChannelFilter struct {
	Network  string
	Station  string
	Location string
	Channel  string
	Limit    uint64
}

func (f ChannelFilter) apply(q sq.SelectBuilder) sq.SelectBuilder {
	q = whereSet(q, "stations.network", f.Network)
	q = whereSet(q, "stations.name", f.Station)
	q = whereSet(q, "channels.location", f.Location)
	q = whereSet(q, "channels.name", f.Channel)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	return q
}

// whereSet adds "column = value" when value is set.
func whereSet(q sq.SelectBuilder, column, value string) sq.SelectBuilder {
	if value == "" {
		return q
	}

	return q.Where(sq.Eq{column: value})
}

// Volumes lists the loaded volumes, oldest first.
func (s *Store) Volumes(ctx context.Context) ([]VolumeRow, error) {
	query, args, err := sq.Select("id", "name", "source_hash", "compression", "source_size", "seed_version", "loaded_at").
		From("volumes").
		OrderBy("loaded_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	s.Mu.RLock()
	defer s.Mu.RUnlock()

	rows := []VolumeRow{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	return rows, nil
}

// Stations lists stations matching f, ordered by network and name.
func (s *Store) Stations(ctx context.Context, f StationFilter) ([]StationRow, error) {
	q := sq.Select("id", "volume_id", "network", "name").
		From("stations").
		OrderBy("network", "name", "id")
	q = whereSet(q, "network", f.Network)
	q = whereSet(q, "name", f.Station)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	s.Mu.RLock()
	defer s.Mu.RUnlock()

	rows := []StationRow{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	return rows, nil
}

// Channels lists channels matching f, ordered by station then channel codes.
func (s *Store) Channels(ctx context.Context, f ChannelFilter) ([]ChannelRow, error) {
	q := sq.Select(
		"channels.id", "channels.station_id",
		"stations.network", "stations.name AS station",
		"channels.location", "channels.name",
	).
		From("channels").
		Join("stations ON stations.id = channels.station_id").
		OrderBy("stations.network", "stations.name", "channels.location", "channels.name", "channels.id")

	query, args, err := f.apply(q).ToSql()
	if err != nil {
		return nil, err
	}

	s.Mu.RLock()
	defer s.Mu.RUnlock()

	rows := []ChannelRow{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	return rows, nil
}

// ChannelEpochs lists the epochs of channels matching f in chronological order
// per channel.
func (s *Store) ChannelEpochs(ctx context.Context, f ChannelFilter) ([]ChannelEpochRow, error) {
	q := sq.Select(
		"channel_epochs.id", "channel_epochs.channel_id",
		"stations.network", "stations.name AS station",
		"channels.location", "channels.name AS channel",
		"channel_epochs.start_time", "channel_epochs.end_time",
		"channel_epochs.sample_rate", "channel_epochs.azimuth", "channel_epochs.dip",
		"channel_epochs.format", "channel_epochs.stage_count", "channel_epochs.digest",
	).
		From("channel_epochs").
		Join("channels ON channels.id = channel_epochs.channel_id").
		Join("stations ON stations.id = channels.station_id").
		OrderBy("stations.network", "stations.name", "channels.location", "channels.name", "channel_epochs.start_time")

	query, args, err := f.apply(q).ToSql()
	if err != nil {
		return nil, err
	}

	s.Mu.RLock()
	defer s.Mu.RUnlock()

	rows := []ChannelEpochRow{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	return rows, nil
}

// Source returns the archived source text of a volume.
func (s *Store) Source(ctx context.Context, id uuid.UUID) (string, error) {
	query, args, err := sq.Select("compression", "source").
		From("volumes").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return "", err
	}

	var row struct {
		Compression string `db:"compression"`
		Source      []byte `db:"source"`
	}

	s.Mu.RLock()
	err = s.DB.GetContext(ctx, &row, query, args...)
	s.Mu.RUnlock()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", errs.ErrVolumeNotFound, id)
		}

		return "", err
	}

	t, err := compress.ParseCompressionType(row.Compression)
	if err != nil {
		return "", err
	}
	codec, err := compress.GetCodec(t)
	if err != nil {
		return "", err
	}

	text, err := codec.Decompress(row.Source)
	if err != nil {
		return "", fmt.Errorf("restore source of %s: %w", id, err)
	}

	return string(text), nil
}

// Delete removes a volume and, through cascading foreign keys, everything
// loaded from it.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := sq.Delete("volumes").Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", errs.ErrVolumeNotFound, id)
	}

	return nil
}
