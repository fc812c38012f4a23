package silver

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/bronze"
	"github.com/rirts/attribution-os/internal/lake"
	"github.com/rirts/attribution-os/internal/objectstore"
)

// Stage refines bronze parquet into silver: normalized timestamps,
// deduplicated identities, derived columns. One part per table per run.
type Stage struct {
	store        objectstore.Store
	bronzeBucket string
	silverBucket string
	log          *zap.Logger
}

// NewStage creates the silver stage.
func NewStage(store objectstore.Store, bronzeBucket, silverBucket string, log *zap.Logger) *Stage {
	return &Stage{
		store:        store,
		bronzeBucket: bronzeBucket,
		silverBucket: silverBucket,
		log:          log,
	}
}

// Run builds every silver table for one UTC date and returns the written
// part keys. A table with no bronze input is skipped.
func (s *Stage) Run(ctx context.Context, date string) ([]string, error) {
	if err := s.store.EnsureBucket(ctx, s.silverBucket); err != nil {
		return nil, err
	}

	var written []string
	for _, build := range []func(context.Context, string) (string, error){
		s.buildWeb, s.buildMempool, s.buildBlocks,
	} {
		key, err := build(ctx, date)
		if err != nil {
			return written, err
		}
		if key != "" {
			s.log.Info("Silver part written", zap.String("key", key))
			written = append(written, key)
		}
	}
	return written, nil
}

func (s *Stage) buildWeb(ctx context.Context, date string) (string, error) {
	rows, err := readParts[lake.BronzeWebRow](ctx, s, bronze.WebTable, date)
	if err != nil || len(rows) == 0 {
		return "", err
	}

	refined := RefineWeb(rows)
	if len(refined) == 0 {
		return "", nil
	}
	return writePart(ctx, s, bronze.WebTable, date, refined)
}

func (s *Stage) buildMempool(ctx context.Context, date string) (string, error) {
	rows, err := readParts[lake.MempoolRow](ctx, s, bronze.MempoolTable, date)
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return writePart(ctx, s, bronze.MempoolTable, date, RefineMempool(rows))
}

func (s *Stage) buildBlocks(ctx context.Context, date string) (string, error) {
	rows, err := readParts[lake.BlockRow](ctx, s, bronze.BlocksTable, date)
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return writePart(ctx, s, bronze.BlocksTable, date, RefineBlocks(rows))
}

// RefineWeb normalizes timestamps to UTC RFC3339, drops rows without a
// parseable timestamp (including malformed-line fallback rows), keeps the
// latest version of each event id, and splits the url into host and path.
func RefineWeb(rows []lake.BronzeWebRow) []lake.SilverWebRow {
	type candidate struct {
		row   lake.SilverWebRow
		ts    time.Time
		order int
	}

	latest := make(map[string]candidate)
	var ids []string

	for i, r := range rows {
		ts, ok := ParseTimestamp(r.TS)
		if !ok {
			continue
		}

		host, path := splitURL(r.URL)
		props := r.PropertiesJSON
		if props == "" {
			props = "{}"
		}
		refined := lake.SilverWebRow{
			EventID:        r.EventID,
			TS:             ts.Format(time.RFC3339Nano),
			Type:           r.Type,
			URL:            r.URL,
			URLHost:        host,
			URLPath:        path,
			Referrer:       r.Referrer,
			UTMSource:      r.UTMSource,
			UTMMedium:      r.UTMMedium,
			UTMCampaign:    r.UTMCampaign,
			UTMContent:     r.UTMContent,
			UTMTerm:        r.UTMTerm,
			ClientUA:       r.ClientUA,
			ClientLang:     r.ClientLang,
			IDsCookie:      r.IDsCookie,
			IDsGA:          r.IDsGA,
			IDsUID:         r.IDsUID,
			PropertiesJSON: props,
		}

		prev, seen := latest[r.EventID]
		if !seen {
			ids = append(ids, r.EventID)
		}
		// Keep the row with the latest timestamp; ties keep the later
		// arrival.
		if !seen || !ts.Before(prev.ts) {
			latest[r.EventID] = candidate{row: refined, ts: ts, order: i}
		}
	}

	out := make([]lake.SilverWebRow, 0, len(latest))
	for _, id := range ids {
		out = append(out, latest[id].row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out
}

// RefineMempool derives the fee rate and keeps the last row per txid.
func RefineMempool(rows []lake.MempoolRow) []lake.MempoolRow {
	latest := make(map[string]lake.MempoolRow)
	var ids []string
	for _, r := range rows {
		if r.VSize > 0 {
			r.FeeRateSatVB = float64(r.Fee) / float64(r.VSize)
		}
		if ts, ok := ParseTimestamp(r.FirstSeen); ok {
			r.FirstSeen = ts.Format(time.RFC3339Nano)
		}
		if ts, ok := ParseTimestamp(r.FetchedAt); ok {
			r.FetchedAt = ts.Format(time.RFC3339Nano)
		}
		if _, seen := latest[r.TxID]; !seen {
			ids = append(ids, r.TxID)
		}
		latest[r.TxID] = r
	}

	out := make([]lake.MempoolRow, 0, len(latest))
	for _, id := range ids {
		out = append(out, latest[id])
	}
	return out
}

// RefineBlocks keeps the last row per height.
func RefineBlocks(rows []lake.BlockRow) []lake.BlockRow {
	latest := make(map[int64]lake.BlockRow)
	var heights []int64
	for _, r := range rows {
		if ts, ok := ParseTimestamp(r.Timestamp); ok {
			r.Timestamp = ts.Format(time.RFC3339Nano)
		}
		if _, seen := latest[r.Height]; !seen {
			heights = append(heights, r.Height)
		}
		latest[r.Height] = r
	}

	out := make([]lake.BlockRow, 0, len(latest))
	for _, h := range heights {
		out = append(out, latest[h])
	}
	return out
}

// ParseTimestamp accepts RFC3339 strings or epoch seconds (integer or
// fractional) and returns the instant in UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), true
	}
	if epoch, err := strconv.ParseFloat(value, 64); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	}
	return time.Time{}, false
}

func splitURL(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	return u.Host, u.Path
}

func readParts[T any](ctx context.Context, s *Stage, table, date string) ([]T, error) {
	keys, err := s.store.List(ctx, s.bronzeBucket, lake.DatePrefix(table, date), ".parquet")
	if err != nil {
		return nil, err
	}

	var rows []T
	for _, key := range keys {
		body, err := s.store.Get(ctx, s.bronzeBucket, key)
		if err != nil {
			return nil, err
		}
		part, err := lake.Unmarshal[T](body)
		if err != nil {
			return nil, err
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

func writePart[T any](ctx context.Context, s *Stage, table, date string, rows []T) (string, error) {
	body, err := lake.Marshal(rows)
	if err != nil {
		return "", err
	}

	key := lake.PartKey(table, date, time.Now())
	if err := s.store.Put(ctx, s.silverBucket, key, body, lake.ContentType); err != nil {
		return "", err
	}
	return key, nil
}
