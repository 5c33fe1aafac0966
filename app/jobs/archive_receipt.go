// Package jobs holds nearcart's queued background work.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/repositories"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/queue"
	"github.com/shashiranjanraj/nearcart/pkg/storage"
)

// ArchiveReceiptName is the queue registry key of ArchiveReceiptJob.
const ArchiveReceiptName = "receipt.archive"

// Receipt is the JSON document archived for every order.
type Receipt struct {
	OrderID       uint                 `json:"orderId"`
	CheckoutRef   string               `json:"checkoutRef"`
	UserID        uint                 `json:"userId"`
	ShopID        uint                 `json:"shopId"`
	ShopName      string               `json:"shopName"`
	Items         []ReceiptLine        `json:"items"`
	Total         decimal.Decimal      `json:"total"`
	OrderStatus   models.OrderStatus   `json:"orderStatus"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	PlacedAt      time.Time            `json:"placedAt"`
	ArchivedAt    time.Time            `json:"archivedAt"`
}

// ReceiptLine is one purchased product.
type ReceiptLine struct {
	ProductID    uint            `json:"productId"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
}

// ReceiptPath is where the receipt of an order lives on the disk.
func ReceiptPath(checkoutRef string, orderID uint) string {
	return fmt.Sprintf("receipts/%s/%d.json", checkoutRef, orderID)
}

// archiver carries the dependencies the queue cannot serialize.
type archiver struct {
	orders *repositories.OrderRepository
	disk   storage.Disk
	now    func() time.Time
}

// ArchiveReceiptJob writes the current receipt of one order. Running it
// again overwrites the file, so status changes can refresh it.
type ArchiveReceiptJob struct {
	OrderID uint `json:"orderId"`

	archiver *archiver
}

func (j *ArchiveReceiptJob) JobName() string { return ArchiveReceiptName }

func (j *ArchiveReceiptJob) Handle(ctx context.Context) error {
	if j.archiver == nil {
		return errors.New("jobs: receipt archiver is not registered")
	}
	if j.OrderID == 0 {
		return errors.New("jobs: receipt job without order id")
	}

	order, err := j.archiver.orders.FindWithItems(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("jobs: load order %d: %w", j.OrderID, err)
	}

	body, err := json.MarshalIndent(buildReceipt(order, j.archiver.now()), "", "  ")
	if err != nil {
		return err
	}
	path := ReceiptPath(order.CheckoutRef, order.ID)
	if err := j.archiver.disk.Put(ctx, path, body, "application/json"); err != nil {
		return fmt.Errorf("jobs: write %s: %w", path, err)
	}

	logger.WithCtx(ctx).Info("receipt archived", "order_id", order.ID, "path", path)
	return nil
}

func buildReceipt(o models.Order, now time.Time) Receipt {
	r := Receipt{
		OrderID:       o.ID,
		CheckoutRef:   o.CheckoutRef,
		UserID:        o.UserID,
		ShopID:        o.ShopID,
		Items:         make([]ReceiptLine, 0, len(o.Items)),
		Total:         o.TotalAmount,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		PlacedAt:      o.CreatedAt.UTC(),
		ArchivedAt:    now.UTC(),
	}
	if o.Shop != nil {
		r.ShopName = o.Shop.Name
	}
	for _, it := range o.Items {
		line := ReceiptLine{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit,
			LineTotal:    it.LineTotal(),
		}
		if it.Product != nil {
			line.Name = it.Product.Name
		}
		r.Items = append(r.Items, line)
	}
	return r
}

// Register installs the receipt job on m. Jobs popped by m's workers read
// orders from db and write to disk.
func Register(m *queue.Manager, db *gorm.DB, disk storage.Disk) {
	a := &archiver{
		orders: repositories.NewOrderRepository(db),
		disk:   disk,
		now:    time.Now,
	}
	m.Register(ArchiveReceiptName, func() queue.Job {
		return &ArchiveReceiptJob{archiver: a}
	})
}
