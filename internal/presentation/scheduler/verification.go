package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
)

type PendingRefresher interface {
	RefreshAllPending(ctx context.Context) (dto.RefreshSummary, error)
}

// VerificationPoller periodically re-checks pending domains. Sweeps never
// overlap: the next one is scheduled after the previous one returns.
type VerificationPoller struct {
	refresher PendingRefresher
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
	once      sync.Once
}

func NewVerificationPoller(refresher PendingRefresher, interval time.Duration) *VerificationPoller {
	return &VerificationPoller{
		refresher: refresher,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start blocks until Stop is called. A zero interval disables the poller.
func (p *VerificationPoller) Start() {
	defer close(p.done)
	if p.interval <= 0 {
		slog.Info("verification poller disabled")
		return
	}
	slog.Info("Starting verification poller...", "interval", p.interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stop:
			slog.Info("Cancelling current sweep")
			cancel()
		case <-ctx.Done():
		}
	}()

	t := time.NewTimer(p.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if _, err := p.refresher.RefreshAllPending(ctx); err != nil && ctx.Err() == nil {
				slog.Error("error in verification sweep", "err", err)
			}
			t.Reset(p.interval)
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels a running sweep and waits for Start to return.
func (p *VerificationPoller) Stop() {
	p.once.Do(func() { close(p.stop) })
	<-p.done
}
