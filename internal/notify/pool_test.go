package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplanner/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSender struct {
	mu       sync.Mutex
	failures map[string]int // email -> remaining failures
	attempts map[string]int
	sent     []string
}

func newFakeSender() *fakeSender {
	return &fakeSender{failures: map[string]int{}, attempts: map[string]int{}}
}

func (s *fakeSender) SendEventInvitation(_ context.Context, n *domain.InvitationNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[n.Email]++
	if s.failures[n.Email] > 0 {
		s.failures[n.Email]--
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, n.Email)
	return nil
}

func (s *fakeSender) snapshot() ([]string, map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempts := make(map[string]int, len(s.attempts))
	for k, v := range s.attempts {
		attempts[k] = v
	}
	return append([]string(nil), s.sent...), attempts
}

func notification(email string) domain.InvitationNotification {
	return domain.InvitationNotification{EventID: "e-1", Email: email, Title: "Standup"}
}

func TestPool_DeliversAndDrainsOnShutdown(t *testing.T) {
	sender := newFakeSender()
	pool := NewPool(sender, PoolConfig{Workers: 2, QueueSize: 10, RetryBackoff: time.Millisecond}, testLogger())
	pool.Start()

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		require.NoError(t, pool.Enqueue(context.Background(), notification(email)))
	}
	require.NoError(t, pool.Shutdown(context.Background()))

	sent, _ := sender.snapshot()
	assert.ElementsMatch(t, []string{"a@x.io", "b@x.io", "c@x.io"}, sent)
}

func TestPool_RetriesUntilMaxAttempts(t *testing.T) {
	sender := newFakeSender()
	sender.failures["flaky@x.io"] = 1
	sender.failures["dead@x.io"] = 10
	pool := NewPool(sender, PoolConfig{Workers: 1, QueueSize: 4, MaxAttempts: 3, RetryBackoff: time.Millisecond}, testLogger())
	pool.Start()

	require.NoError(t, pool.Enqueue(context.Background(), notification("flaky@x.io")))
	require.NoError(t, pool.Enqueue(context.Background(), notification("dead@x.io")))
	require.NoError(t, pool.Shutdown(context.Background()))

	sent, attempts := sender.snapshot()
	assert.Equal(t, []string{"flaky@x.io"}, sent)
	assert.Equal(t, 2, attempts["flaky@x.io"])
	assert.Equal(t, 3, attempts["dead@x.io"])
}

func TestPool_EnqueueFullQueue(t *testing.T) {
	// Not started, so nothing drains the queue.
	pool := NewPool(newFakeSender(), PoolConfig{QueueSize: 1}, testLogger())

	require.NoError(t, pool.Enqueue(context.Background(), notification("a@x.io")))
	err := pool.Enqueue(context.Background(), notification("b@x.io"))
	assert.ErrorIs(t, err, domain.ErrQueueFull)
}

func TestPool_EnqueueAfterShutdown(t *testing.T) {
	pool := NewPool(newFakeSender(), PoolConfig{}, testLogger())
	pool.Start()
	require.NoError(t, pool.Shutdown(context.Background()))

	err := pool.Enqueue(context.Background(), notification("a@x.io"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_ShutdownDeadline(t *testing.T) {
	sender := newFakeSender()
	sender.failures["dead@x.io"] = 10
	pool := NewPool(sender, PoolConfig{Workers: 1, MaxAttempts: 5, RetryBackoff: time.Hour}, testLogger())
	pool.Start()
	require.NoError(t, pool.Enqueue(context.Background(), notification("dead@x.io")))

	assert.Eventually(t, func() bool {
		_, attempts := sender.snapshot()
		return attempts["dead@x.io"] == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)
}
