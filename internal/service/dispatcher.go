package service

import (
	"context"
	"log"
	"time"
)

// Dispatcher drains the notification outbox out-of-band from the financial
// transactions that filled it. A row that keeps failing is parked as FAILED
// after maxAttempts and left for operators.
type Dispatcher struct {
	store       NotificationStore
	deliverer   Deliverer
	interval    time.Duration
	maxAttempts int
	batchSize   int
}

func NewDispatcher(store NotificationStore, deliverer Deliverer, interval time.Duration, maxAttempts, batchSize int) *Dispatcher {
	if deliverer == nil {
		deliverer = LogDeliverer{}
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if batchSize < 1 {
		batchSize = 50
	}
	return &Dispatcher{
		store:       store,
		deliverer:   deliverer,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Drain(ctx); err != nil {
				log.Printf("[Dispatcher] drain failed: %v", err)
			}
		}
	}
}

// Drain delivers one batch of pending notifications. Delivery errors are
// recorded per row and never abort the batch.
func (d *Dispatcher) Drain(ctx context.Context) error {
	pending, err := d.store.NextPending(ctx, d.batchSize)
	if err != nil {
		return err
	}
	for _, n := range pending {
		if err := d.deliverer.Deliver(ctx, n); err != nil {
			log.Printf("[Dispatcher] delivery failed id=%d attempts=%d: %v", n.ID, n.Attempts+1, err)
			if recErr := d.store.RecordFailure(ctx, n.ID, err, d.maxAttempts); recErr != nil {
				log.Printf("[Dispatcher] record failure id=%d: %v", n.ID, recErr)
			}
			continue
		}
		if err := d.store.MarkSent(ctx, n.ID); err != nil {
			log.Printf("[Dispatcher] mark sent id=%d: %v", n.ID, err)
		}
	}
	return nil
}
