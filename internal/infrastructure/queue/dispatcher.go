package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/api/metrics"
	"github.com/nhonest/supermarket-web/internal/core/domain"
)

const (
	defaultWorkers      = 4
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 5 * time.Minute
	channelBuffer       = 256
)

// Verifier polls the gateway for one payment and returns the stored result.
type Verifier interface {
	Verify(ctx context.Context, paymentID string) (*domain.Payment, error)
}

// Options tune the dispatcher. Zero values select the defaults.
type Options struct {
	Workers      int
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Dispatcher verifies pending payments in the background. Payment ids are
// routed to a fixed set of workers by consistent hashing, so one payment is
// only ever polled by one worker.
type Dispatcher struct {
	workers  []chan string
	verifier Verifier
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher with opts.Workers sharded workers.
func NewDispatcher(verifier Verifier, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaultPollTimeout
	}
	d := &Dispatcher{
		workers:  make([]chan string, opts.Workers),
		verifier: verifier,
		interval: opts.PollInterval,
		timeout:  opts.PollTimeout,
		log:      log,
		now:      time.Now,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a payment to the worker responsible for it. It never
// blocks; when the worker is saturated the payment is dropped and left for
// on-demand verification through GetPayment.
func (d *Dispatcher) Enqueue(paymentID string) {
	select {
	case d.workers[d.shardIndex(paymentID)] <- paymentID:
	default:
		d.log.Warn().Str("payment_id", paymentID).Msg("verification queue full, payment not enqueued")
	}
}

// shardIndex maps a payment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(paymentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(paymentID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	depth := metrics.VerifyQueueDepth.WithLabelValues(strconv.Itoa(id))
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case paymentID, ok := <-ch:
			if !ok {
				return
			}
			if _, dup := pending[paymentID]; !dup {
				pending[paymentID] = d.now()
			}
		case <-ticker.C:
			for paymentID, since := range pending {
				if done := d.poll(ctx, id, paymentID, since); done {
					delete(pending, paymentID)
				}
			}
		}
		depth.Set(float64(len(pending)))
	}
}

// poll verifies one payment and reports whether it should leave the queue.
func (d *Dispatcher) poll(ctx context.Context, workerID int, paymentID string, since time.Time) bool {
	elapsed := d.now().Sub(since)
	p, err := d.verifier.Verify(ctx, paymentID)
	if err != nil {
		d.log.Error().Err(err).
			Str("payment_id", paymentID).
			Int("worker_id", workerID).
			Msg("payment verification failed")
		if elapsed >= d.timeout {
			metrics.PaymentPollDuration.WithLabelValues(string(domain.PaymentPending)).Observe(elapsed.Seconds())
			return true
		}
		return false
	}

	if p.Status.Terminal() {
		metrics.PaymentPollDuration.WithLabelValues(string(p.Status)).Observe(elapsed.Seconds())
		return true
	}
	if elapsed >= d.timeout {
		d.log.Warn().
			Str("payment_id", paymentID).
			Dur("elapsed", elapsed).
			Msg("payment still pending, giving up background verification")
		metrics.PaymentPollDuration.WithLabelValues(string(p.Status)).Observe(elapsed.Seconds())
		return true
	}
	return false
}
