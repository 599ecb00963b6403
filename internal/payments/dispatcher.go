package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// Dispatcher delivers recorded signals to the gateway off the request path.
// A full queue drops the id; the reconciliation sweep picks it up later.
type Dispatcher struct {
	db      *gorm.DB
	gateway Gateway
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan uint
	wg     sync.WaitGroup
}

func NewDispatcher(db *gorm.DB, gateway Gateway, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		db:      db,
		gateway: gateway,
		log:     log,
		queue:   make(chan uint, 100),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for id := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := d.Deliver(ctx, id); err != nil {
			d.log.Error("settlement delivery failed", zap.Uint("signal_id", id), zap.Error(err))
		}
		cancel()
	}
}

// Dispatch queues a signal for delivery. After Close the signal stays
// pending for the reconciliation sweep.
func (d *Dispatcher) Dispatch(signalID uint) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("settlement dispatcher closed, leaving signal for retry", zap.Uint("signal_id", signalID))
		return
	}

	select {
	case d.queue <- signalID:
	default:
		d.log.Warn("settlement queue full, leaving signal for retry", zap.Uint("signal_id", signalID))
	}
}

// Close stops accepting signals and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Deliver sends one signal through the gateway and stores the outcome.
// Signals already sent or skipped are left alone.
func (d *Dispatcher) Deliver(ctx context.Context, signalID uint) error {
	var sig models.SettlementSignal
	if err := d.db.WithContext(ctx).First(&sig, signalID).Error; err != nil {
		return err
	}
	if sig.Status == StatusSent || sig.Status == StatusSkipped {
		return nil
	}

	var (
		ref string
		err error
	)
	switch sig.Kind {
	case KindRefund:
		ref, err = d.gateway.Refund(ctx, sig)
	case KindPayout:
		ref, err = d.gateway.Payout(ctx, sig)
	default:
		err = errors.New("unknown signal kind " + sig.Kind)
	}

	updates := map[string]any{"attempts": gorm.Expr("attempts + 1")}
	if err != nil {
		updates["status"] = StatusFailed
		updates["last_error"] = err.Error()
	} else {
		updates["status"] = StatusSent
		updates["external_ref"] = ref
		updates["last_error"] = ""
	}

	if uerr := d.db.WithContext(ctx).
		Model(&models.SettlementSignal{}).
		Where("id = ?", sig.ID).
		Updates(updates).Error; uerr != nil {
		return errors.Join(err, uerr)
	}
	return err
}
