package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/config"
	"github.com/rirts/attribution-os/internal/queue"
)

// Consumer orchestrates the receive, parse, and batch-write stages
type Consumer struct {
	receiver    *Receiver
	parserStage *ParserStage
	batchWriter *BatchWriter
	log         *zap.Logger
}

// NewConsumer wires the pipeline stages together
func NewConsumer(cfg *config.Config, queueConsumer queue.Consumer, sink RawSink, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}, log)

	parserStage := NewParserStage(NewJSONEventParser(), queueConsumer, log)

	batchWriter := NewBatchWriter(sink, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)

	return &Consumer{
		receiver:    receiver,
		parserStage: parserStage,
		batchWriter: batchWriter,
		log:         log,
	}
}

// Start runs all pipeline stages until the context is cancelled
func (c *Consumer) Start(ctx context.Context) {
	messageChan := make(chan types.Message, c.receiver.config.BufferSize)
	envelopeChan := make(chan *Envelope, c.receiver.config.BufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parserStage.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopeChan)
	}()

	c.log.Info("Consumer pipeline started")
	wg.Wait()
	c.log.Info("Consumer pipeline stopped")
}
