package bronze

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/domain"
	"github.com/rirts/attribution-os/internal/lake"
	"github.com/rirts/attribution-os/internal/objectstore"
)

// Table names of the bronze layer.
const (
	WebTable     = "web"
	MempoolTable = "chain_mempool"
	BlocksTable  = "chain_blocks"
)

// Raw-bucket prefixes the ingestors write under.
const (
	rawWebPrefix     = "web/date="
	rawMempoolPrefix = "chain/mempool/date="
	rawBlocksPrefix  = "chain/blocks/date="
)

// Stage normalizes raw JSONL objects into typed bronze parquet parts, one
// part per source per run. Empty sources write nothing and are not errors.
type Stage struct {
	store        objectstore.Store
	rawBucket    string
	bronzeBucket string
	log          *zap.Logger
}

// NewStage creates the bronze stage.
func NewStage(store objectstore.Store, rawBucket, bronzeBucket string, log *zap.Logger) *Stage {
	return &Stage{
		store:        store,
		rawBucket:    rawBucket,
		bronzeBucket: bronzeBucket,
		log:          log,
	}
}

// Run builds every bronze table for one UTC date and returns the written
// part keys.
func (s *Stage) Run(ctx context.Context, date string) ([]string, error) {
	if err := s.store.EnsureBucket(ctx, s.bronzeBucket); err != nil {
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
			s.log.Info("Bronze part written", zap.String("key", key))
			written = append(written, key)
		}
	}
	return written, nil
}

func (s *Stage) buildWeb(ctx context.Context, date string) (string, error) {
	lines, err := s.readRawLines(ctx, rawWebPrefix+date+"/")
	if err != nil || len(lines) == 0 {
		return "", err
	}

	rows := make([]lake.BronzeWebRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, webRow(line))
	}
	return writePart(ctx, s, WebTable, date, rows)
}

func (s *Stage) buildMempool(ctx context.Context, date string) (string, error) {
	lines, err := s.readRawLines(ctx, rawMempoolPrefix+date+"/")
	if err != nil || len(lines) == 0 {
		return "", err
	}

	rows := make([]lake.MempoolRow, 0, len(lines))
	for _, line := range lines {
		var rec chainRecord
		if err := json.Unmarshal(line.data, &rec); err != nil {
			s.log.Warn("Skipping malformed mempool line", zap.String("key", line.key), zap.Error(err))
			continue
		}
		firstSeen := string(rec.Data.Time)
		if firstSeen == "" {
			firstSeen = rec.FetchedAt
		}
		rows = append(rows, lake.MempoolRow{
			TxID:      rec.Data.TxID,
			VSize:     rec.Data.VSize,
			Fee:       rec.Data.Fee,
			Value:     rec.Data.Value,
			FirstSeen: firstSeen,
			FetchedAt: rec.FetchedAt,
			RawJSON:   string(line.data),
			RawKey:    line.key,
		})
	}
	if len(rows) == 0 {
		return "", nil
	}
	return writePart(ctx, s, MempoolTable, date, rows)
}

func (s *Stage) buildBlocks(ctx context.Context, date string) (string, error) {
	lines, err := s.readRawLines(ctx, rawBlocksPrefix+date+"/")
	if err != nil || len(lines) == 0 {
		return "", err
	}

	rows := make([]lake.BlockRow, 0, len(lines))
	for _, line := range lines {
		var rec chainRecord
		if err := json.Unmarshal(line.data, &rec); err != nil {
			s.log.Warn("Skipping malformed block line", zap.String("key", line.key), zap.Error(err))
			continue
		}
		ts := string(rec.Data.Timestamp)
		if ts == "" {
			ts = string(rec.Data.Time)
		}
		txCount := rec.Data.TxCount
		if txCount == 0 {
			txCount = rec.Data.TxCountApprox
		}
		rows = append(rows, lake.BlockRow{
			Height:    rec.Data.Height,
			ID:        rec.Data.ID,
			Timestamp: ts,
			TxCount:   txCount,
			Size:      rec.Data.Size,
			Weight:    rec.Data.Weight,
			RawJSON:   string(line.data),
			RawKey:    line.key,
		})
	}
	if len(rows) == 0 {
		return "", nil
	}
	return writePart(ctx, s, BlocksTable, date, rows)
}

// rawLine is one line of a raw JSONL object plus its provenance key.
type rawLine struct {
	data []byte
	key  string
}

func (s *Stage) readRawLines(ctx context.Context, prefix string) ([]rawLine, error) {
	keys, err := s.store.List(ctx, s.rawBucket, prefix, ".jsonl")
	if err != nil {
		return nil, err
	}

	var lines []rawLine
	for _, key := range keys {
		body, err := s.store.Get(ctx, s.rawBucket, key)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(body))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			lines = append(lines, rawLine{data: []byte(line), key: key})
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", key, err)
		}
	}
	return lines, nil
}

// webRow flattens one raw web event line. A line that is not valid JSON
// becomes a fallback row holding the raw text, so refinement can account
// for it instead of it vanishing.
func webRow(line rawLine) lake.BronzeWebRow {
	var ev domain.RawEvent
	if err := json.Unmarshal(line.data, &ev); err != nil {
		return lake.BronzeWebRow{RawText: string(line.data), RawKey: line.key}
	}

	props := "{}"
	if len(ev.Properties) > 0 {
		if b, err := json.Marshal(ev.Properties); err == nil {
			props = string(b)
		}
	}

	return lake.BronzeWebRow{
		EventID:        ev.EventID,
		TS:             ev.TS,
		Type:           ev.Type,
		URL:            ev.URL,
		Referrer:       ev.Referrer,
		UTMSource:      ev.UTM.Source,
		UTMMedium:      ev.UTM.Medium,
		UTMCampaign:    ev.UTM.Campaign,
		UTMContent:     ev.UTM.Content,
		UTMTerm:        ev.UTM.Term,
		ClientUA:       ev.Client.UA,
		ClientLang:     ev.Client.Lang,
		IDsCookie:      ev.IDs.Cookie,
		IDsGA:          ev.IDs.GA,
		IDsUID:         ev.IDs.UID,
		IDsEmailSHA:    ev.IDs.EmailSHA256,
		DeviceOS:       ev.Device.OS,
		DeviceBrowser:  ev.Device.Browser,
		DeviceDevice:   ev.Device.Device,
		PropertiesJSON: props,
		RawKey:         line.key,
	}
}

// chainRecord is the envelope the onchain ingestor writes: a fetch
// timestamp and the upstream payload.
type chainRecord struct {
	FetchedAt string    `json:"fetched_at"`
	Data      chainData `json:"data"`
}

// Time and Timestamp arrive as epoch seconds from the onchain ingestor;
// flexValue also tolerates string timestamps from older landings.
type chainData struct {
	TxID          string    `json:"txid"`
	VSize         int64     `json:"vsize"`
	Fee           int64     `json:"fee"`
	Value         int64     `json:"value"`
	Time          flexValue `json:"time"`
	Height        int64     `json:"height"`
	ID            string    `json:"id"`
	Timestamp     flexValue `json:"timestamp"`
	TxCount       int64     `json:"tx_count"`
	TxCountApprox int64     `json:"tx_count_approx"`
	Size          int64     `json:"size"`
	Weight        int64     `json:"weight"`
}

// flexValue is a JSON scalar kept as its textual form: numbers stay as the
// number literal, strings lose their quotes.
type flexValue string

func (v *flexValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = flexValue(n.String())
	return nil
}

func writePart[T any](ctx context.Context, s *Stage, table, date string, rows []T) (string, error) {
	body, err := lake.Marshal(rows)
	if err != nil {
		return "", err
	}

	key := lake.PartKey(table, date, time.Now())
	if err := s.store.Put(ctx, s.bronzeBucket, key, body, lake.ContentType); err != nil {
		return "", err
	}
	return key, nil
}
