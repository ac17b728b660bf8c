package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct{ url string }

func (c testConfig) GetRedisURL() string             { return c.url }
func (c testConfig) GetRuleCacheTTL() time.Duration { return time.Minute }

func TestNewClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), testConfig{url: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewClientRejectsMissingURL(t *testing.T) {
	_, err := NewClient(context.Background(), testConfig{})
	assert.Error(t, err)
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), testConfig{url: "redis://" + addr})
	assert.Error(t, err)
}
