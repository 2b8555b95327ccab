package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Native(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithAddr("ch.local", 0),
		WithDatabase("cosmicoptic"),
		WithCredentials("reader", "secret"),
		WithMaxExecutionTime(30 * time.Second),
		WithTimeouts(0, 3*time.Second),
	} {
		opt(&cfg)
	}

	o := cfg.options()
	assert.Equal(t, []string{"ch.local:9000"}, o.Addr)
	assert.Equal(t, clickhouse.Native, o.Protocol)
	assert.Equal(t, "cosmicoptic", o.Auth.Database)
	assert.Equal(t, "reader", o.Auth.Username)
	assert.Equal(t, 30, o.Settings["max_execution_time"])
	assert.Equal(t, 5*time.Second, o.DialTimeout)
	assert.Equal(t, 3*time.Second, o.ReadTimeout)
	require.NotNil(t, o.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, o.Compression.Method)
}

func TestOptions_HTTP(t *testing.T) {
	cfg := defaultConfig()
	WithAddr("ch.local", 8123)(&cfg)
	WithHTTP(true)(&cfg)
	WithDatabase("")(&cfg)

	o := cfg.options()
	assert.Equal(t, []string{"ch.local:8123"}, o.Addr)
	assert.Equal(t, clickhouse.HTTP, o.Protocol)
	assert.Equal(t, "default", o.Auth.Database)
	assert.Nil(t, o.Compression)
	assert.Empty(t, o.Settings)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}
