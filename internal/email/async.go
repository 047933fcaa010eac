package email

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Async hands every message to Next on its own goroutine and returns at once.
// Delivery is attempted once; failures are only logged.
type Async struct {
	Next    Sender
	Logger  *slog.Logger
	Timeout time.Duration

	wg sync.WaitGroup
}

func (a *Async) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := a.Next.Send(sendCtx, msg); err != nil {
			logger.Error("email send failed", "subject", msg.Subject, "recipients", len(msg.To), "err", err)
		}
	}()
	return nil
}

// Wait blocks until all pending sends finished. Used on shutdown.
func (a *Async) Wait() {
	a.wg.Wait()
}
