package kafka

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/internal/core/usecase"
)

const storeWriteTimeout = 30 * time.Second

// messageReader is the part of the group reader the loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer is the long-lived ingestion loop. It joins a named consumer group
// over the three action topics, decodes each envelope and appends one
// analytical row per event. Malformed messages are logged, committed and
// skipped. A message whose store write fails after the ingest retry halts the
// loop with its offset uncommitted: commits are positional per partition, so
// fetching past the failure and committing any later offset would cover it.
// The broker redelivers the failed message once the process restarts.
type Consumer struct {
	reader    messageReader
	groupID   string
	ingest    *usecase.IngestService
	validator *usecase.EnvelopeValidator

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type ConsumerConfig struct {
	Brokers []string
	GroupID string
}

func NewConsumer(cfg ConsumerConfig, ingest *usecase.IngestService) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: domain.ActionTopics(),
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     250 * time.Millisecond,
		StartOffset: kafkago.FirstOffset,
	})
	return &Consumer{
		reader:    reader,
		groupID:   cfg.GroupID,
		ingest:    ingest,
		validator: usecase.NewEnvelopeValidator(),
	}
}

func (c *Consumer) Start(parent context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx)
}

// Close stops fetching new messages and waits for the in-flight store write
// to finish before closing the reader.
func (c *Consumer) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

var _ io.Closer = (*Consumer)(nil)

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	log.Printf("consumer started group=%s topics=%v", c.groupID, domain.ActionTopics())

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				log.Printf("consumer stopping: %v", err)
				return
			}
			log.Printf("fetch message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// The store write and commit run on a detached context so that a
		// shutdown lets them finish instead of aborting mid-write.
		writeCtx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
		result := c.process(writeCtx, msg.Topic, msg.Value)
		if result == outcomeFailed {
			cancel()
			// Fetching further would eventually commit a later offset on this
			// partition, burying this one. Stop here with the offset
			// uncommitted; a restart resumes from it.
			log.Printf("consumer halting: store rejected message topic=%s partition=%d offset=%d",
				msg.Topic, msg.Partition, msg.Offset)
			return
		}
		committed := c.commit(writeCtx, msg)
		cancel()

		if !committed {
			// Commit failure after a successful write is harmless for
			// correctness: redelivery adds a duplicate analytical row at
			// worst. Back off briefly before the next fetch.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

type outcome int

const (
	outcomeIngested outcome = iota
	outcomeSkipped
	outcomeFailed
)

// process validates, decodes and ingests one payload. Skipped means the
// message is unusable and should be committed anyway; failed means the store
// rejected it and the offset must stay uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, topic string, payload []byte) outcome {
	if err := c.validator.Validate(topic, payload); err != nil {
		log.Printf("skip malformed message topic=%s: %v", topic, err)
		return outcomeSkipped
	}

	event, err := domain.DecodeEvent(topic, payload)
	if err != nil {
		log.Printf("skip undecodable message topic=%s: %v", topic, err)
		return outcomeSkipped
	}

	if err := c.ingest.Ingest(ctx, event); err != nil {
		log.Printf("ingest topic=%s: %v", topic, err)
		return outcomeFailed
	}
	return outcomeIngested
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) bool {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Printf("commit topic=%s partition=%d offset=%d: %v", msg.Topic, msg.Partition, msg.Offset, err)
		return false
	}
	return true
}
