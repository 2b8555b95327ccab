package kafka

import (
	"fmt"
	"time"

	applogger "CosmicOptic/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds writer settings. Messages are always balanced by key.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	Linger       time.Duration
	Async        bool
}

func defaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1 << 20,
		Linger:       50 * time.Millisecond,
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression sets the codec: none, gzip, snappy, lz4 or zstd.
func WithCompression(codec string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = codec }
}

// WithRequiredAcks sets required acknowledgements (-1 = all in-sync replicas).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBatching sets the batch size limits and how long a partial batch may wait.
// Zero values keep the defaults.
func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if size > 0 {
			c.BatchSize = size
		}
		if bytes > 0 {
			c.BatchBytes = bytes
		}
		if linger > 0 {
			c.Linger = linger
		}
	}
}

// WithTimeouts sets writer write and read timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

// WithAsync makes Publish return before the broker acknowledges.
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

func parseCompression(codec string) (kafka.Compression, error) {
	switch codec {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", codec)
	}
}

type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds reader group and worker settings.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	// StartOffset is where a group without committed offsets begins:
	// "earliest" or "latest".
	StartOffset   string
	Workers       int
	QueueSize     int
	RetryMax      int
	BackoffMin    time.Duration
	BackoffMax    time.Duration
	HandleTimeout time.Duration
	DLQTopic      string
	MinBytes      int
	MaxBytes      int
	MaxWait       time.Duration
	Logger        *applogger.Logger
}

func defaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		GroupID:       "cosmicoptic",
		StartOffset:   "earliest",
		Workers:       1,
		QueueSize:     16,
		RetryMax:      3,
		BackoffMin:    50 * time.Millisecond,
		BackoffMax:    2 * time.Second,
		HandleTimeout: 30 * time.Second,
		MinBytes:      1,
		MaxBytes:      10 << 20,
		MaxWait:       time.Second,
	}
}

func (c ConsumerConfig) startOffset() (int64, error) {
	switch c.StartOffset {
	case "", "earliest":
		return kafka.FirstOffset, nil
	case "latest":
		return kafka.LastOffset, nil
	default:
		return 0, fmt.Errorf("unknown start offset %q", c.StartOffset)
	}
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

func WithConsumerStartOffset(offset string) ConsumerOption {
	return func(c *ConsumerConfig) { c.StartOffset = offset }
}

// WithConsumerWorkers sets the number of workers and the queue length of
// each. Messages of one partition always land on the same worker.
func WithConsumerWorkers(workers, queueSize int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if workers > 0 {
			c.Workers = workers
		}
		if queueSize > 0 {
			c.QueueSize = queueSize
		}
	}
}

// WithConsumerRetry sets how many times a failed message is retried and the
// bounds of the exponential backoff between attempts.
func WithConsumerRetry(retries int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		if retries >= 0 {
			c.RetryMax = retries
		}
		if backoffMin > 0 {
			c.BackoffMin = backoffMin
		}
		if backoffMax > 0 {
			c.BackoffMax = backoffMax
		}
	}
}

func WithConsumerHandleTimeout(d time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		if d > 0 {
			c.HandleTimeout = d
		}
	}
}

// WithConsumerDLQ routes messages that exhausted their retries to topic.
// Without it they are logged and their offset is not committed, though a
// later success on the same partition commits past them.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int, maxWait time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		if minBytes > 0 {
			c.MinBytes = minBytes
		}
		if maxBytes > 0 {
			c.MaxBytes = maxBytes
		}
		if maxWait > 0 {
			c.MaxWait = maxWait
		}
	}
}

func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) { c.Logger = l }
}
