// Package listeners reacts to the order events fired by app/services.
package listeners

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/nearcart/app/jobs"
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/pkg/event"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/queue"
)

// Dispatcher queues background jobs; *queue.Manager satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Register subscribes the order listeners. Receipts are archived when an
// order is placed and refreshed when it reaches a terminal status.
func Register(q Dispatcher) {
	event.Listen(services.EventOrderPlaced, archiveOnPlaced(q))
	event.Listen(services.EventOrderStatusChanged, onStatusChanged(q))
}

func archiveOnPlaced(q Dispatcher) event.Handler {
	return func(ctx context.Context, payload any) error {
		p, ok := payload.(services.OrderPlaced)
		if !ok {
			return fmt.Errorf("listeners: unexpected %s payload %T", services.EventOrderPlaced, payload)
		}
		return q.Dispatch(ctx, &jobs.ArchiveReceiptJob{OrderID: p.Order.ID})
	}
}

func onStatusChanged(q Dispatcher) event.Handler {
	return func(ctx context.Context, payload any) error {
		p, ok := payload.(services.OrderStatusChanged)
		if !ok {
			return fmt.Errorf("listeners: unexpected %s payload %T", services.EventOrderStatusChanged, payload)
		}

		logger.WithCtx(ctx).Info("order status changed",
			"order_id", p.Order.ID,
			"shop_id", p.Order.ShopID,
			"from", p.From,
			"to", p.To,
			"actor_id", p.ActorID,
		)

		if !p.To.IsTerminal() {
			return nil
		}
		return q.Dispatch(ctx, &jobs.ArchiveReceiptJob{OrderID: p.Order.ID})
	}
}
