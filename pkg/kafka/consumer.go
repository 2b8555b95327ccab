package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	applogger "CosmicOptic/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// DLQ headers describing where a dead-lettered message came from.
const (
	HeaderSourceTopic     = "source_topic"
	HeaderSourcePartition = "source_partition"
	HeaderSourceOffset    = "source_offset"
	HeaderError           = "error"
)

var errStopping = errors.New("consumer stopping")

// fetcher is the part of *kafka.Reader the consumer uses.
type fetcher interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

type dlqWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Consumer reads the registered topics in one group and hands messages to a
// fixed set of workers. A partition is pinned to one worker, so its messages
// are handled and committed in order. A failing message is retried with
// backoff, then dead-lettered when a DLQ topic is configured.
type Consumer struct {
	cfg      ConsumerConfig
	l        *applogger.Logger
	handlers map[string]MessageHandler
	readers  map[string]fetcher
	queues   []chan kafka.Message
	dlq      dlqWriter
	hook     ConsumerHook

	newReader func(topic string) (fetcher, error)

	stop     chan struct{}
	stopOnce sync.Once
	fetchWG  sync.WaitGroup
	workWG   sync.WaitGroup
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	start, err := cfg.startOffset()
	if err != nil {
		return nil, err
	}
	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}

	initMetricsOnce()

	c := &Consumer{
		cfg:      cfg,
		l:        l,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]fetcher),
		hook:     NoopHook{},
		stop:     make(chan struct{}),
	}
	c.newReader = func(topic string) (fetcher, error) {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       topic,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: start,
		}), nil
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}
	return c, nil
}

// RegisterHandler binds handler to its topic. A second handler for the same
// topic is ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, dup := c.handlers[topic]; dup {
		c.l.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook replaces the lifecycle hook. Call before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens one reader per registered topic and starts the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	for topic := range c.handlers {
		r, err := c.newReader(topic)
		if err != nil {
			return fmt.Errorf("reader %s: %w", topic, err)
		}
		c.readers[topic] = r
	}

	c.queues = make([]chan kafka.Message, c.cfg.Workers)
	for i := range c.queues {
		c.queues[i] = make(chan kafka.Message, c.cfg.QueueSize)
		c.workWG.Add(1)
		go c.work(c.queues[i])
	}
	for topic, r := range c.readers {
		c.fetchWG.Add(1)
		go c.fetch(topic, r)
	}

	c.l.Info("kafka consumer running",
		applogger.String("group", c.cfg.GroupID),
		applogger.Int("workers", c.cfg.Workers),
		applogger.Int("topics", len(c.readers)),
	)
	return nil
}

// Stop halts fetching, lets workers finish the message in hand and closes
// the readers. Queued but unhandled messages stay uncommitted and are
// redelivered to the group.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		done := make(chan struct{})
		go func() {
			c.fetchWG.Wait()
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.l.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.l.Warn("kafka dlq writer close failed", applogger.Error(cerr))
			}
		}
	})
	return err
}

// shard maps a partition to the worker that owns it.
func shard(topic string, partition, workers int) int {
	if workers <= 1 {
		return 0
	}
	d := xxhash.New()
	_, _ = d.WriteString(topic)
	_, _ = d.WriteString(strconv.Itoa(partition))
	return int(d.Sum64() % uint64(workers))
}

func (c *Consumer) fetch(topic string, r fetcher) {
	defer c.fetchWG.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.l.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			if !c.sleep(c.cfg.BackoffMin) {
				return
			}
			continue
		}

		q := c.queues[shard(msg.Topic, msg.Partition, len(c.queues))]
		select {
		case q <- msg:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(q)))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) work(q <-chan kafka.Message) {
	defer c.workWG.Done()
	for {
		select {
		case <-c.stop:
			return
		case msg := <-q:
			c.process(msg)
		}
	}
}

func (c *Consumer) process(msg kafka.Message) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			c.l.Error("panic in kafka handler", applogger.String("topic", msg.Topic), applogger.Any("panic", r))
		}
		consumerHandled.WithLabelValues(msg.Topic, outcome).Inc()
		consumerHandleLatency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}()

	handler, ok := c.handlers[msg.Topic]
	if !ok {
		outcome = "unhandled"
		return
	}

	attempts, err := c.handle(handler, msg)
	if errors.Is(err, errStopping) {
		outcome = "interrupted"
		return
	}
	if err != nil {
		outcome = "failed"
		c.hook.OnError(context.Background(), msg.Topic, msg, msg.Value, err)
		c.l.Error("kafka message failed",
			applogger.String("topic", msg.Topic),
			applogger.Int("partition", msg.Partition),
			applogger.Int64("offset", msg.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		if c.dlq == nil {
			return
		}
		if derr := c.deadLetter(msg, err); derr != nil {
			c.l.Error("kafka dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(derr))
			return
		}
		outcome = "dlq"
	}
	c.commit(msg)
}

// handle runs the hook chain and handler until success, the retry budget is
// spent, or the consumer stops.
func (c *Consumer) handle(handler MessageHandler, msg kafka.Message) (int, error) {
	for attempt := 1; ; attempt++ {
		err := c.handleOnce(handler, msg)
		if err == nil || attempt > c.cfg.RetryMax {
			return attempt, err
		}
		if !c.sleep(backoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)) {
			return attempt, errStopping
		}
	}
}

func (c *Consumer) handleOnce(handler MessageHandler, msg kafka.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandleTimeout)
	defer cancel()

	ctx, hmsg, data, err := c.hook.BeforeHandle(ctx, msg.Topic, msg, msg.Value)
	if err != nil {
		return err
	}
	err = handler.Handle(ctx, data)
	c.hook.AfterHandle(ctx, msg.Topic, hmsg, data, err)
	return err
}

func (c *Consumer) deadLetter(msg kafka.Message, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandleTimeout)
	defer cancel()
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(slices.Clip(msg.Headers),
			kafka.Header{Key: HeaderSourceTopic, Value: []byte(msg.Topic)},
			kafka.Header{Key: HeaderSourcePartition, Value: []byte(strconv.Itoa(msg.Partition))},
			kafka.Header{Key: HeaderSourceOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			kafka.Header{Key: HeaderError, Value: []byte(cause.Error())},
		),
	})
}

func (c *Consumer) commit(msg kafka.Message) {
	r := c.readers[msg.Topic]
	if r == nil {
		return
	}
	const attempts = 3
	var err error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		if !c.sleep(backoff(50*time.Millisecond, 500*time.Millisecond, i)) {
			break
		}
	}
	c.l.Error("kafka commit failed",
		applogger.String("topic", msg.Topic),
		applogger.Int64("offset", msg.Offset),
		applogger.Error(err),
	)
}

// sleep waits for d and reports false if the consumer stopped meanwhile.
func (c *Consumer) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.stop:
		return false
	}
}

// backoff doubles lo per attempt up to hi and subtracts up to half of it as
// jitter.
func backoff(lo, hi time.Duration, attempt int) time.Duration {
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	hi = max(hi, lo)
	d := hi
	if attempt < 32 {
		if exp := lo << (attempt - 1); exp > 0 && exp < hi {
			d = exp
		}
	}
	if half := int64(d / 2); half > 0 {
		d -= time.Duration(rand.Int64N(half))
	}
	return d
}
