package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hololab/tabletop4d/internal/match"
	"github.com/hololab/tabletop4d/internal/session"
	"github.com/hololab/tabletop4d/pkg/core"
)

type fakeSession struct{ snap session.Snapshot }

func (f fakeSession) Snapshot() session.Snapshot { return f.snap }

type fakePending int

func (f fakePending) Pending() int { return int(f) }

func newService(t *testing.T, interval time.Duration) (*Service, string) {
	t.Helper()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	mc := match.NewContext()
	mc.SetMatch(&core.Match{ID: 4, Name: "demo", StartTime: start})

	path := filepath.Join(t.TempDir(), "status.json")
	return NewService(Dependencies{
		Session:      fakeSession{session.Snapshot{Turn: 3, Side: "Blue", State: "cooldown"}},
		Scheduler:    fakePending(2),
		Recorder:     fakePending(5),
		MatchContext: mc,
		StatusPath:   path,
		Interval:     interval,
	}), path
}

func TestGetProgramStatus(t *testing.T) {
	s, _ := newService(t, time.Second)
	now := time.Date(2026, 5, 1, 18, 1, 0, 0, time.UTC)

	st := s.GetProgramStatus(now)
	assert.Equal(t, "demo", st.Match)
	assert.Equal(t, uint(4), st.MatchID)
	assert.Equal(t, 60.0, st.DurationSeconds)
	assert.Equal(t, 2, st.SchedulerPending)
	assert.Equal(t, 5, st.RecorderPending)
	assert.Equal(t, uint(3), st.Session.Turn)
}

func TestWriteStatus(t *testing.T) {
	s, path := newService(t, time.Second)
	require.NoError(t, s.WriteStatus(time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "Blue", st.Session.Side)
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, path := newService(t, 10*time.Millisecond)
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(), "second start is a no-op")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_NoPath(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}
