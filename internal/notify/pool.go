package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eventplanner/internal/domain"
)

// ErrClosed is returned by Enqueue after Shutdown has started.
var ErrClosed = errors.New("notification dispatcher closed")

// PoolConfig sizes an in-process dispatcher.
type PoolConfig struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
	SendTimeout  time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	return c
}

// Pool delivers notifications with a fixed set of workers reading a bounded queue.
// Enqueue never blocks: a full queue is reported as domain.ErrQueueFull.
type Pool struct {
	cfg    PoolConfig
	sender domain.InvitationSender
	logger *slog.Logger
	queue  chan domain.InvitationNotification

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	stop   chan struct{}
	once   sync.Once
}

func NewPool(sender domain.InvitationSender, cfg PoolConfig, logger *slog.Logger) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		cfg:    cfg,
		sender: sender,
		logger: logger,
		queue:  make(chan domain.InvitationNotification, cfg.QueueSize),
		stop:   make(chan struct{}),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool) Enqueue(_ context.Context, n domain.InvitationNotification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- n:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for queued notifications to drain. When ctx
// ends first, pending retries are abandoned and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.once.Do(func() { close(p.stop) })
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for n := range p.queue {
		p.deliver(n)
	}
}

func (p *Pool) deliver(n domain.InvitationNotification) {
	var err error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.SendTimeout)
		err = p.sender.SendEventInvitation(ctx, &n)
		cancel()
		if err == nil {
			return
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}
		p.logger.Warn("invitation send failed, retrying", "event_id", n.EventID, "email", n.Email, "attempt", attempt, "error", err)
		select {
		case <-time.After(p.cfg.RetryBackoff * time.Duration(attempt)):
		case <-p.stop:
			p.logger.Error("invitation dropped on shutdown", "event_id", n.EventID, "email", n.Email, "error", err)
			return
		}
	}
	p.logger.Error("invitation not delivered", "event_id", n.EventID, "email", n.Email, "attempts", p.cfg.MaxAttempts, "error", err)
}
