package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/objectstore"
)

// Ingestor polls the mempool.space REST API and lands every new mempool
// transaction and block summary as a one-line NDJSON object in the raw
// bucket. Dedup is in-memory per process; a restart may re-land records,
// which the silver layer deduplicates anyway.
type Ingestor struct {
	api        *http.Client
	store      objectstore.Store
	bucket     string
	base       string
	log        *zap.Logger
	seenTx     map[string]struct{}
	seenBlocks map[int64]struct{}
}

// NewIngestor creates an onchain ingestor writing to the given raw bucket.
func NewIngestor(store objectstore.Store, bucket, apiBase string, log *zap.Logger) *Ingestor {
	return &Ingestor{
		api:        &http.Client{Timeout: 10 * time.Second},
		store:      store,
		bucket:     bucket,
		base:       strings.TrimRight(apiBase, "/"),
		log:        log,
		seenTx:     map[string]struct{}{},
		seenBlocks: map[int64]struct{}{},
	}
}

// Start polls both sources once immediately, then on their intervals until
// the context is cancelled. Poll errors are logged and retried on the next
// tick, never fatal.
func (i *Ingestor) Start(ctx context.Context, mempoolEvery, blocksEvery time.Duration) {
	if err := i.PollMempool(ctx); err != nil {
		i.log.Error("Mempool poll failed", zap.Error(err))
	}
	if err := i.PollBlocks(ctx); err != nil {
		i.log.Error("Blocks poll failed", zap.Error(err))
	}

	mempoolTicker := time.NewTicker(mempoolEvery)
	defer mempoolTicker.Stop()
	blocksTicker := time.NewTicker(blocksEvery)
	defer blocksTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			i.log.Info("Onchain ingestor shutting down")
			return
		case <-mempoolTicker.C:
			if err := i.PollMempool(ctx); err != nil {
				i.log.Error("Mempool poll failed", zap.Error(err))
			}
		case <-blocksTicker.C:
			if err := i.PollBlocks(ctx); err != nil {
				i.log.Error("Blocks poll failed", zap.Error(err))
			}
		}
	}
}

// record is the envelope every raw chain object carries: provenance plus
// the upstream payload untouched.
type record struct {
	Source    string      `json:"source"`
	Kind      string      `json:"kind"`
	FetchedAt string      `json:"fetched_at"`
	Data      interface{} `json:"data"`
}

// mempoolTx is the subset of /mempool/recent the pipeline consumes.
type mempoolTx struct {
	TxID  string `json:"txid"`
	Fee   int64  `json:"fee"`
	VSize int64  `json:"vsize"`
	Value int64  `json:"value"`
}

// blockSummary is the subset of /blocks the pipeline consumes. Timestamp is
// epoch seconds, as upstream reports it.
type blockSummary struct {
	ID        string `json:"id"`
	Height    *int64 `json:"height"`
	Timestamp int64  `json:"timestamp"`
	TxCount   int64  `json:"tx_count"`
	Size      int64  `json:"size"`
	Weight    int64  `json:"weight"`
}

// PollMempool fetches the recent mempool transactions and lands every txid
// not seen before.
func (i *Ingestor) PollMempool(ctx context.Context) error {
	var txs []mempoolTx
	if err := i.getJSON(ctx, "/mempool/recent", &txs); err != nil {
		return err
	}

	fetchedAt := time.Now().UTC()
	date := fetchedAt.Format("2006-01-02")
	for _, tx := range txs {
		txid := tx.TxID
		if txid == "" {
			txid = uuid.NewString()
		}
		if _, seen := i.seenTx[txid]; seen {
			continue
		}
		i.seenTx[txid] = struct{}{}

		key := fmt.Sprintf("chain/mempool/date=%s/tx_%s.jsonl", date, txid)
		rec := record{
			Source:    "mempool.space",
			Kind:      "mempool_recent",
			FetchedAt: fetchedAt.Format(time.RFC3339),
			Data:      tx,
		}
		if err := i.putLine(ctx, key, rec); err != nil {
			return err
		}
		i.log.Info("Mempool tx saved", zap.String("key", key))
	}
	return nil
}

// PollBlocks fetches the recent block summaries and lands every height not
// seen before. Rows without a height are skipped.
func (i *Ingestor) PollBlocks(ctx context.Context) error {
	var blocks []blockSummary
	if err := i.getJSON(ctx, "/blocks", &blocks); err != nil {
		return err
	}

	fetchedAt := time.Now().UTC()
	date := fetchedAt.Format("2006-01-02")
	for _, b := range blocks {
		if b.Height == nil || *b.Height < 0 {
			continue
		}
		height := *b.Height
		if _, seen := i.seenBlocks[height]; seen {
			continue
		}
		i.seenBlocks[height] = struct{}{}

		id := b.ID
		if id == "" {
			id = uuid.NewString()
		}
		key := fmt.Sprintf("chain/blocks/date=%s/block_%d_%s.jsonl", date, height, id)
		rec := record{
			Source:    "mempool.space",
			Kind:      "block",
			FetchedAt: fetchedAt.Format(time.RFC3339),
			Data:      b,
		}
		if err := i.putLine(ctx, key, rec); err != nil {
			return err
		}
		i.log.Info("Block saved", zap.String("key", key), zap.Int64("height", height))
	}
	return nil
}

func (i *Ingestor) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.base+path, nil)
	if err != nil {
		return err
	}

	resp, err := i.api.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (i *Ingestor) putLine(ctx context.Context, key string, rec record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal chain record: %w", err)
	}
	body = append(body, '\n')
	return i.store.Put(ctx, i.bucket, key, body, "application/x-ndjson")
}
