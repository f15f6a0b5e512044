package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/airdash/internal/notify"
)

func TestError_BuildsNotification(t *testing.T) {
	n := notify.Error("insights", "Failed to fetch insights data")

	assert.Equal(t, notify.LevelError, n.Level)
	assert.Equal(t, "insights", n.Source)
	assert.Equal(t, "Failed to fetch insights data", n.Message)
	assert.Contains(t, n.ID, "ntf_")
	assert.False(t, n.CreatedAt.IsZero())
}

func TestFeed_RecentNewestFirst(t *testing.T) {
	feed := notify.NewFeed(10)
	ctx := context.Background()

	feed.Notify(ctx, notify.Error("a", "first"))
	feed.Notify(ctx, notify.Error("b", "second"))
	feed.Notify(ctx, notify.Error("c", "third"))

	recent := feed.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "third", recent[0].Message)
	assert.Equal(t, "second", recent[1].Message)
	assert.Equal(t, "first", recent[2].Message)

	limited := feed.Recent(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "third", limited[0].Message)
}

func TestFeed_DropsOldestWhenFull(t *testing.T) {
	feed := notify.NewFeed(2)
	ctx := context.Background()

	feed.Notify(ctx, notify.Error("x", "one"))
	feed.Notify(ctx, notify.Error("x", "two"))
	feed.Notify(ctx, notify.Error("x", "three"))

	assert.Equal(t, 2, feed.Len())
	recent := feed.Recent(0)
	assert.Equal(t, "three", recent[0].Message)
	assert.Equal(t, "two", recent[1].Message)
}

func TestFeed_DefaultCapacity(t *testing.T) {
	feed := notify.NewFeed(0)
	ctx := context.Background()
	for i := 0; i < notify.DefaultFeedCapacity+5; i++ {
		feed.Notify(ctx, notify.Error("x", "msg"))
	}
	assert.Equal(t, notify.DefaultFeedCapacity, feed.Len())
}

func TestMulti_FansOut(t *testing.T) {
	a := notify.NewFeed(5)
	b := notify.NewFeed(5)
	m := notify.Multi{a, nil, b}

	m.Notify(context.Background(), notify.Error("x", "hello"))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestLogNotifier_WritesWarning(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(zerolog.New(&buf))

	n.Notify(context.Background(), notify.Error("live", "Failed to fetch air quality data"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "live", entry["source"])
	assert.Equal(t, "error", entry["severity"])
	assert.Equal(t, "Failed to fetch air quality data", entry["message"])
}
