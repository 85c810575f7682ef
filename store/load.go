package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/epoch"
	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/internal/logger"
	"github.com/arloliu/dataless/source"
	"github.com/arloliu/dataless/volume"
)

// Optional descriptive fields copied into the relational tables.
const (
	stationLatitudeField  = 4 // B050F04
	stationLongitudeField = 5 // B050F05
	stationElevationField = 6 // B050F06
	stationSiteField      = 9 // B050F09

	channelAzimuthField    = 14 // B052F14
	channelDipField        = 15 // B052F15
	channelSampleRateField = 18 // B052F18

	commentKeyField = 5 // B051F05 / B059F05

	formatNameField = 3 // B030F03
)

// LoadResult reports what one Load inserted.
type LoadResult struct {
	VolumeID      uuid.UUID
	Stations      int
	StationEpochs int
	Channels      int
	ChannelEpochs int
	Stages        int
	Comments      int
	Archive       compress.CompressionStats
}

// Load inserts vol, assembled from src, in a single transaction.
//
// Sources are identified by the xxHash64 of their lines: loading a source
// that is already in the store changes nothing and returns the existing
// volume id with ErrAlreadyLoaded.
//
// Parameters:
//   - ctx: Context for cancellation
//   - vol: Assembled volume
//   - src: The source vol was assembled from; its text is archived
//
// Returns:
//   - LoadResult: Row counts and the volume id
//   - error: ErrAlreadyLoaded or a database error
func (s *Store) Load(ctx context.Context, vol *volume.Volume, src *source.Source) (LoadResult, error) {
	if vol == nil || src == nil {
		return LoadResult{}, errors.New("store: nil volume or source")
	}

	log := logger.FromContext(ctx, s.log)

	s.Mu.Lock()
	defer s.Mu.Unlock()

	hash := strconv.FormatUint(src.Hash, 16)

	existing, err := s.volumeByHash(ctx, hash)
	if err != nil {
		return LoadResult{}, err
	}
	if existing != uuid.Nil {
		log.Info("Source already loaded", zap.String("name", src.Name), zap.Stringer("volume_id", existing))
		return LoadResult{VolumeID: existing}, errs.ErrAlreadyLoaded
	}

	archived, stats, err := compress.CompressWithStats(s.codec, []byte(src.Text()))
	if err != nil {
		return LoadResult{}, fmt.Errorf("archive source: %w", err)
	}

	res := LoadResult{VolumeID: uuid.New(), Archive: stats}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return LoadResult{}, err
	}

	l := &loader{ctx: ctx, tx: tx, res: &res}
	if err := l.volume(vol, src, hash, s.codec.Type().String(), archived); err != nil {
		_ = tx.Rollback()
		return LoadResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return LoadResult{}, err
	}

	log.Info("Loaded volume",
		zap.String("name", src.Name),
		zap.Stringer("volume_id", res.VolumeID),
		zap.Int("stations", res.Stations),
		zap.Int("channel_epochs", res.ChannelEpochs),
		zap.Float64("archive_ratio", stats.CompressionRatio()))

	return res, nil
}

func (s *Store) volumeByHash(ctx context.Context, hash string) (uuid.UUID, error) {
	query, args, err := sq.Select("id").From("volumes").Where(sq.Eq{"source_hash": hash}).ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id string
	if err := s.DB.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, nil
		}

		return uuid.Nil, err
	}

	return uuid.Parse(id)
}

// loader inserts one volume inside a transaction.
type loader struct {
	ctx context.Context
	tx  *sqlx.Tx
	res *LoadResult
}

func (l *loader) insert(b sq.InsertBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	r, err := l.tx.ExecContext(l.ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return r.LastInsertId()
}

func (l *loader) volume(vol *volume.Volume, src *source.Source, hash, compression string, archived []byte) error {
	var version sql.NullString
	if vol.Info != nil {
		version = optString(vol.Info, volume.VolumeVersionField)
	}

	_, err := l.insert(sq.Insert("volumes").
		Columns("id", "name", "source_hash", "compression", "source_size", "source", "seed_version", "loaded_at").
		Values(l.res.VolumeID.String(), src.Name, hash, compression, src.Size, archived, version,
			time.Now().UTC().Format(time.RFC3339Nano)))
	if err != nil {
		return fmt.Errorf("insert volume: %w", err)
	}

	for _, key := range vol.StationKeys() {
		if err := l.station(vol.Stations[key]); err != nil {
			return fmt.Errorf("station %s: %w", key, err)
		}
	}

	return nil
}

func (l *loader) station(st *volume.StationData) error {
	stationID, err := l.insert(sq.Insert("stations").
		Columns("volume_id", "network", "name").
		Values(l.res.VolumeID.String(), st.Network, st.Name))
	if err != nil {
		return err
	}
	l.res.Stations++

	for _, key := range st.EpochKeys() {
		b := st.Epochs[key]
		end, err := optEnd(b, volume.StationEndField)
		if err != nil {
			return fmt.Errorf("station %s epoch %s: %w", st.Key(), key, err)
		}
		_, err = l.insert(sq.Insert("station_epochs").
			Columns("station_id", "start_time", "end_time", "latitude", "longitude", "elevation", "site_name").
			Values(stationID, string(key), end,
				optFloat(b, stationLatitudeField), optFloat(b, stationLongitudeField),
				optFloat(b, stationElevationField), optString(b, stationSiteField)))
		if err != nil {
			return err
		}
		l.res.StationEpochs++
	}

	for _, key := range st.CommentKeys() {
		if err := l.comment(stationID, sql.NullInt64{}, key, st.Comments[key]); err != nil {
			return err
		}
	}

	for _, key := range st.ChannelKeys() {
		if err := l.channel(stationID, st.Channels[key]); err != nil {
			return fmt.Errorf("channel %s: %w", key, err)
		}
	}

	return nil
}

func (l *loader) channel(stationID int64, ch *volume.ChannelData) error {
	channelID, err := l.insert(sq.Insert("channels").
		Columns("station_id", "location", "name").
		Values(stationID, ch.Location, ch.Name))
	if err != nil {
		return err
	}
	l.res.Channels++

	for _, key := range ch.CommentKeys() {
		if err := l.comment(stationID, sql.NullInt64{Int64: channelID, Valid: true}, key, ch.Comments[key]); err != nil {
			return err
		}
	}

	for _, key := range ch.EpochKeys() {
		e := ch.Epochs[key]

		var formatName sql.NullString
		if e.Format != nil {
			formatName = optString(e.Format, formatNameField)
		}

		end, err := optEnd(e.Info, volume.ChannelEndField)
		if err != nil {
			return fmt.Errorf("epoch %s: %w", key, err)
		}

		epochID, err := l.insert(sq.Insert("channel_epochs").
			Columns("channel_id", "start_time", "end_time", "sample_rate", "azimuth", "dip", "format", "stage_count", "digest").
			Values(channelID, string(key), end,
				optFloat(e.Info, channelSampleRateField), optFloat(e.Info, channelAzimuthField),
				optFloat(e.Info, channelDipField), formatName, len(e.Stages),
				strconv.FormatUint(e.Info.Digest(), 16)))
		if err != nil {
			return err
		}
		l.res.ChannelEpochs++

		for _, seq := range e.StageKeys() {
			_, err := l.insert(sq.Insert("stages").
				Columns("channel_epoch_id", "sequence", "blockettes").
				Values(epochID, seq, stageBlockettes(e.Stages[seq])))
			if err != nil {
				return err
			}
			l.res.Stages++
		}
	}

	return nil
}

func (l *loader) comment(stationID int64, channelID sql.NullInt64, key epoch.Key, b *blockette.Blockette) error {
	end, err := optEnd(b, volume.CommentEndField)
	if err != nil {
		return fmt.Errorf("comment %s: %w", key, err)
	}

	_, err = l.insert(sq.Insert("comments").
		Columns("station_id", "channel_id", "start_time", "end_time", "comment_key").
		Values(stationID, channelID, string(key), end, optString(b, commentKeyField)))
	if err != nil {
		return err
	}
	l.res.Comments++

	return nil
}

// stageBlockettes lists the blockette numbers of a stage, ascending, comma separated.
func stageBlockettes(stage *volume.StageData) string {
	nums := slices.Sorted(maps.Keys(stage.Blockettes))
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ",")
}

func optString(b *blockette.Blockette, id int) sql.NullString {
	v, ok := b.FieldValue(id, 0)
	if !ok || v == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: v, Valid: true}
}

func optFloat(b *blockette.Blockette, id int) sql.NullFloat64 {
	v, ok := b.FieldValue(id, 0)
	if !ok {
		return sql.NullFloat64{}
	}

	// rdseed appends units to some values ("20 Hz", "1700.0 m")
	text, _, _ := strings.Cut(strings.TrimSpace(v), " ")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: f, Valid: true}
}

// optEnd returns the canonical end time, NULL for a missing or open value.
// An unparsable value is ErrInvalidTimestamp rather than an open end.
func optEnd(b *blockette.Blockette, id int) (sql.NullString, error) {
	v, ok := b.FieldValue(id, 0)
	if !ok || epoch.IsOpen(v) {
		return sql.NullString{}, nil
	}

	key, err := epoch.ParseKey(v)
	if err != nil {
		return sql.NullString{}, err
	}

	return sql.NullString{String: string(key), Valid: true}, nil
}
