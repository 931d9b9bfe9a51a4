package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/holiman/uint256"

	"github.com/atmx/yield-farm/internal/metrics"
	"github.com/atmx/yield-farm/internal/model"
)

// Recorder fans committed farm events out to the event store, the metrics
// registry and the WebSocket hub. It is subscribed to the farm and runs on
// the caller's goroutine after the farm has released its lock.
type Recorder struct {
	svc     *Service
	hub     *WSHub // optional
	timeout time.Duration
}

// NewRecorder creates a recorder. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewRecorder(svc *Service, hub *WSHub) *Recorder {
	return &Recorder{svc: svc, hub: hub, timeout: 5 * time.Second}
}

// Notify implements farm.Notifier. Store failures are logged and counted;
// the farm operation has already committed and is not affected.
func (rec *Recorder) Notify(ev model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), rec.timeout)
	defer cancel()

	if err := rec.svc.store.InsertEvent(ctx, &ev); err != nil {
		metrics.StoreFailures.Inc()
		slog.Error("failed to record farm event",
			"id", ev.ID,
			"kind", ev.Kind,
			"user", ev.User,
			"err", err,
		)
	}

	metrics.OperationsTotal.WithLabelValues(string(ev.Kind)).Inc()
	switch ev.Kind {
	case model.EventClaimed:
		rec.paid(ev.Amount)
	case model.EventUnstaked:
		rec.paid(ev.Reward)
	}
	rec.updateGauges()

	if rec.hub != nil {
		rec.hub.Broadcast(WSMessage{
			Type:  "farm_event",
			Event: rec.svc.eventResponse(ev),
		})
	}
}

func (rec *Recorder) paid(v *uint256.Int) {
	if v == nil || v.IsZero() {
		return
	}
	metrics.RewardsPaid.Add(toDecimal(rec.svc.rewardToken, v).InexactFloat64())
}

func (rec *Recorder) updateGauges() {
	f := rec.svc.farm
	metrics.TotalStaked.Set(toDecimal(rec.svc.stakeToken, f.TotalStaked()).InexactFloat64())
	metrics.RewardRate.Set(toDecimal(rec.svc.rewardToken, f.CurrentRate()).InexactFloat64())
	metrics.RewardPool.Set(toDecimal(rec.svc.rewardToken, f.RewardPoolBalance()).InexactFloat64())
}
