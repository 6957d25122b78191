package logging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGelf struct {
	mu   sync.Mutex
	msgs []*gelf.Message
	err  error
}

func (f *fakeGelf) WriteMessage(m *gelf.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
	return f.err
}

var _ GelfSender = (*gelf.Writer)(nil)

func TestGelfHandler_Message(t *testing.T) {
	sink := &fakeGelf{}
	logger := slog.New(NewGelfHandler(sink, "tabletop4d", slog.LevelInfo))

	logger.Warn("Capture", "victim", "Blue_Bomber", "turn", 4, "error", errors.New("boom"))

	require.Len(t, sink.msgs, 1)
	msg := sink.msgs[0]
	assert.Equal(t, "1.1", msg.Version)
	assert.Equal(t, "Capture", msg.Short)
	assert.Equal(t, int32(4), msg.Level)
	assert.Equal(t, "tabletop4d", msg.Facility)
	assert.NotZero(t, msg.TimeUnix)
	assert.Equal(t, "Blue_Bomber", msg.Extra["_victim"])
	assert.Equal(t, int64(4), msg.Extra["_turn"])
	assert.Equal(t, "boom", msg.Extra["_error"])
	assert.Equal(t, "WARN", msg.Extra["_level_name"])
}

func TestGelfHandler_Enabled(t *testing.T) {
	h := NewGelfHandler(&fakeGelf{}, "", slog.LevelWarn)
	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	def := NewGelfHandler(&fakeGelf{}, "", nil)
	assert.False(t, def.Enabled(ctx, slog.LevelDebug))
	assert.True(t, def.Enabled(ctx, slog.LevelInfo))
}

func TestGelfHandler_AttrsAndGroups(t *testing.T) {
	sink := &fakeGelf{}
	logger := slog.New(NewGelfHandler(sink, "", slog.LevelDebug)).
		With("board", "mini").
		WithGroup("piece").
		With("team", "Red")

	logger.Debug("Selected", "name", "Red_Healer", slog.Group("at", "x", 4, "y", 0))

	require.Len(t, sink.msgs, 1)
	extra := sink.msgs[0].Extra
	assert.Equal(t, int32(7), sink.msgs[0].Level)
	assert.Equal(t, "mini", extra["_board"])
	assert.Equal(t, "Red", extra["_piece.team"])
	assert.Equal(t, "Red_Healer", extra["_piece.name"])
	assert.Equal(t, int64(4), extra["_piece.at.x"])
}

func TestGelfHandler_WithGroupEmpty(t *testing.T) {
	h := NewGelfHandler(&fakeGelf{}, "", nil)
	assert.Same(t, h, h.WithGroup(""))
}

func TestGelfHandler_SenderError(t *testing.T) {
	sink := &fakeGelf{err: errors.New("unreachable")}
	h := NewGelfHandler(sink, "", nil)
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "x", 0))
	assert.EqualError(t, err, "unreachable")
}

func TestSyslogLevel(t *testing.T) {
	assert.Equal(t, int32(7), syslogLevel(slog.LevelDebug))
	assert.Equal(t, int32(6), syslogLevel(slog.LevelInfo))
	assert.Equal(t, int32(4), syslogLevel(slog.LevelWarn))
	assert.Equal(t, int32(3), syslogLevel(slog.LevelError))
}
