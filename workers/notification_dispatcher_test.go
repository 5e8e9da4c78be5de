package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDispatcher_PublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, 8, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.NotifyLevelUp(ctx, 7, 3))
	require.NoError(t, d.NotifyStreakMilestone(ctx, 7, 30))

	assert.Eventually(t, func() bool { return pub.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	d.Wait()
	assert.True(t, pub.closed)

	var ev NotificationEvent
	require.NoError(t, json.Unmarshal(pub.bodies[0], &ev))
	assert.Equal(t, EventLevelUp, ev.Type)
	assert.Equal(t, uint(7), ev.UserID)
	assert.Equal(t, 3, ev.Level)

	require.NoError(t, json.Unmarshal(pub.bodies[1], &ev))
	assert.Equal(t, EventStreakMilestone, ev.Type)
	assert.Equal(t, 30, ev.StreakDays)
}

func TestDispatcher_FullQueueDrops(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, 1, quietLogger())
	ctx := context.Background()

	// worker not started: the second event has nowhere to go
	require.NoError(t, d.NotifyLevelUp(ctx, 1, 2))
	require.NoError(t, d.NotifyLevelUp(ctx, 1, 3))
	assert.Len(t, d.queue, 1)

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	d.Start(runCtx)
	d.Wait()
	assert.Equal(t, 1, pub.count(), "queued event is drained on shutdown")
}

func TestDispatcher_PublishErrorsAreSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection closed")}
	d := NewDispatcher(pub, 4, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	assert.NoError(t, d.NotifyLevelUp(ctx, 1, 2))
	cancel()
	d.Wait()
	assert.Zero(t, pub.count())
}
