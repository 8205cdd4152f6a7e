package logbuf

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Ring(t *testing.T) {
	b := NewBuffer(3)
	require.Equal(t, 0, b.Len())

	for i := range 5 {
		b.Add(Record{Message: string(rune('a' + i))})
	}

	require.Equal(t, 3, b.Len())

	var got []string
	for _, r := range b.Records() {
		got = append(got, r.Message)
	}

	assert.Equal(t, []string{"c", "d", "e"}, got)
}

func TestBuffer_DefaultSize(t *testing.T) {
	b := NewBuffer(0)
	assert.Len(t, b.records, DefaultSize)
}

func TestHandler_CapturesAndForwards(t *testing.T) {
	var out bytes.Buffer

	buf := NewBuffer(10)
	log := slog.New(NewHandler(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}), buf))

	log.Debug("hidden")
	log.With("component", "tools").Info("called", "tool", "get-logs")
	log.WithGroup("req").Warn("slow", "ms", 1200, slog.Group("peer", "pid", 42))
	log.Error("boom")

	records := buf.Records()
	require.Len(t, records, 3)

	assert.Equal(t, "called", records[0].Message)
	assert.Equal(t, "component=tools tool=get-logs", records[0].Attrs)
	assert.Equal(t, "req.ms=1200 req.peer.pid=42", records[1].Attrs)
	assert.Equal(t, slog.LevelError, records[2].Level)

	assert.Contains(t, out.String(), "msg=called")
	assert.NotContains(t, out.String(), "hidden")

	warnings := buf.AtLeast(slog.LevelWarn)
	require.Len(t, warnings, 2)
	assert.Equal(t, "slow", warnings[0].Message)
}

func TestRecord_String(t *testing.T) {
	r := Record{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   slog.LevelWarn,
		Message: "disk low",
		Attrs:   "free=1GB",
	}

	assert.Equal(t, "2025-01-02T03:04:05Z [WARN] disk low free=1GB", r.String())
	assert.Equal(t, "2025-01-02T03:04:05Z [INFO] ok", Record{Time: r.Time, Message: "ok"}.String())
}
