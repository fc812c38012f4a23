package consumer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/queue"
)

// ParserStage parses raw SQS messages into event envelopes
type ParserStage struct {
	parser   MessageParser
	consumer queue.Consumer
	log      *zap.Logger
}

// NewParserStage creates a new parser stage
func NewParserStage(parser MessageParser, consumer queue.Consumer, log *zap.Logger) *ParserStage {
	return &ParserStage{
		parser:   parser,
		consumer: consumer,
		log:      log,
	}
}

// Start reads messages from the input channel, parses them, and forwards
// envelopes to the output channel. Malformed messages are deleted from the
// queue so they do not redeliver forever.
func (p *ParserStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				p.log.Info("Parser stage input channel closed")
				return
			}

			envelope := p.parseMessage(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				p.log.Info("Parser stage shutting down while sending envelope")
				return
			case out <- envelope:
				// Envelope sent to next stage
			}
		}
	}
}

func (p *ParserStage) parseMessage(ctx context.Context, msg types.Message) *Envelope {
	event, err := p.parser.Parse([]byte(aws.ToString(msg.Body)))
	if err != nil {
		p.log.Warn("Failed to parse message, deleting",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		if delErr := p.deleteMessage(ctx, msg.ReceiptHandle); delErr != nil {
			p.log.Error("Failed to delete malformed message", zap.Error(delErr))
		}
		return nil
	}

	receiptHandle := msg.ReceiptHandle
	ack := func(ctx context.Context) error {
		return p.deleteMessage(ctx, receiptHandle)
	}
	nack := func(ctx context.Context) error {
		// Leave the message in flight; SQS redelivers it after the
		// visibility timeout expires.
		return nil
	}
	return NewEnvelope(event, ack, nack)
}

func (p *ParserStage) deleteMessage(ctx context.Context, receiptHandle *string) error {
	if receiptHandle == nil {
		return nil
	}
	_, err := p.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.consumer.QueueURL()),
		ReceiptHandle: receiptHandle,
	})
	return err
}
