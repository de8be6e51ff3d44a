package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Dispatcher is the outbound mail queue. Requests enqueue and move on;
// a worker goroutine delivers with exponential backoff and dead-letters
// messages that exhaust their attempts.
type Dispatcher struct {
	sender Sender
	log    *slog.Logger

	mu          sync.Mutex
	closed      bool
	queue       chan Message
	wg          sync.WaitGroup
	maxRetries  uint64
	baseBackoff time.Duration
}

func NewDispatcher(sender Sender, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		log:         log,
		queue:       make(chan Message, 64),
		maxRetries:  4,
		baseBackoff: time.Second,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue hands a message to the worker. A full or closed queue
// dead-letters immediately rather than blocking or panicking on the
// request path.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.log.Error("mail queue closed, message dead-lettered",
			"to", msg.To, "subject", msg.Subject)
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.log.Error("mail queue full, message dead-lettered",
			"to", msg.To, "subject", msg.Subject)
	}
}

// Close drains the queue and stops the worker. Safe to call once the
// server has stopped accepting requests; later Enqueues dead-letter.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(d.baseBackoff))

	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		if err := d.sender.Send(msg); err != nil {
			d.log.Warn("mail send failed, will retry",
				"to", msg.To, "subject", msg.Subject, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.log.Error("mail dead-lettered after retries",
			"to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.log.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
}
