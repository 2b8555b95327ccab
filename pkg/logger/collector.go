package logger

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Publisher ships a batch of aggregated entries, typically to Kafka.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload any) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // distinct entries that force an early flush
	MinLevel       string        // lowest level collected, default error
	Topic          string
	Publisher      Publisher
	PublishTimeout time.Duration
}

// AggregatedLogEntry is one distinct (level, message, fields, caller) tuple
// and how often it was seen during the window.
type AggregatedLogEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields"`
	Caller    string         `json:"caller"`
	Count     int            `json:"count"`
	FirstSeen time.Time      `json:"first_seen"`
	LastSeen  time.Time      `json:"last_seen"`
}

// LogCollector deduplicates log events in memory and publishes them in
// batches. Publishing never happens while the map lock is held.
type LogCollector struct {
	cfg      CollectionConfig
	minLevel zerolog.Level

	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry

	kick      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	now       func() time.Time
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	minLevel, err := zerolog.ParseLevel(cfg.MinLevel)
	if err != nil || cfg.MinLevel == "" {
		minLevel = zerolog.ErrorLevel
	}

	c := &LogCollector{
		cfg:      cfg,
		minLevel: minLevel,
		entries:  make(map[uint64]*AggregatedLogEntry),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]any, caller string) {
	now := c.now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	full := len(c.entries) >= c.cfg.CountThreshold
	c.mu.Unlock()

	if full {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
}

// entryKey hashes the identifying parts of an entry. Field keys are sorted
// so map order does not split identical events.
func entryKey(level, message string, fields map[string]any, caller string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(level)
	_, _ = d.WriteString("\x00" + message + "\x00" + caller)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(d, "\x00%s=%v", k, fields[k])
	}
	return d.Sum64()
}

func (c *LogCollector) loop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.kick:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

// drain swaps out the current window.
func (c *LogCollector) drain() []AggregatedLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.entries = make(map[uint64]*AggregatedLogEntry)
	return out
}

func (c *LogCollector) flush() {
	batch := c.drain()
	if len(batch) == 0 || c.cfg.Publisher == nil {
		return
	}
	slices.SortFunc(batch, func(a, b AggregatedLogEntry) int { return a.FirstSeen.Compare(b.FirstSeen) })

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PublishTimeout)
	defer cancel()
	if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
		// the logger itself may be what is failing, so report straight to stderr
		fmt.Fprintf(os.Stderr, "log collector: publish %d entries: %v\n", len(batch), err)
	}
}

// Close stops the loop and publishes what is left before returning.
func (c *LogCollector) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
	})
}
