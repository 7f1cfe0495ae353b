package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderService places purchase orders and drives their lifecycle.
type OrderService struct {
	db        *gorm.DB
	numbering Numbering
	now       func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

type OrderItemInput struct {
	ProductID     uint
	Quantity      int
	PurchasePrice decimal.Decimal
}

type CreateOrderInput struct {
	SupplierID           uint
	Items                []OrderItemInput
	ExpectedDeliveryDate time.Time
	CallerID             uint
}

func (in CreateOrderInput) validate() error {
	v := validation.Violations{}
	if in.SupplierID == 0 {
		v["supplier_id"] = "required"
	}
	if in.ExpectedDeliveryDate.IsZero() {
		v["expected_delivery_date"] = "required"
	}
	if len(in.Items) == 0 {
		v["items"] = "required"
	}
	for i, item := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.ProductID == 0 {
			v[prefix+"product_id"] = "required"
		}
		validation.MinInt(prefix+"quantity", item.Quantity, 1, v)
		validation.NonNegative(prefix+"purchase_price", item.PurchasePrice, v)
		validation.MaxScale(prefix+"purchase_price", item.PurchasePrice, moneyScale, v)
	}
	return invalid(v)
}

// CreateOrder validates the supplier and products, prices each line and
// persists the order in EN_COURS with a fresh CMD number. Stock is untouched.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var order models.Order
	err := withNumberRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var sup models.Supplier
			if err := tx.First(&sup, in.SupplierID).Error; err != nil {
				return refErr(err, "supplier", in.SupplierID)
			}
			if sup.Archived {
				return fmt.Errorf("%w: supplier %d is archived", ErrInvalidReference, sup.ID)
			}
			if err := checkProducts(tx, in.Items); err != nil {
				return err
			}

			items := make([]models.OrderItem, len(in.Items))
			for i, it := range in.Items {
				items[i] = models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, PurchasePrice: it.PurchasePrice}
				items[i].Subtotal = items[i].ComputeSubtotal()
			}
			number, err := s.numbering.Next(ctx, tx, models.SequenceOrder, models.PrefixOrder)
			if err != nil {
				return err
			}
			order = models.Order{
				Number:               number,
				SupplierID:           sup.ID,
				Items:                items,
				ExpectedDeliveryDate: in.ExpectedDeliveryDate,
				Status:               models.OrderStatusInProgress,
				PurchasingAgentID:    in.CallerID,
			}
			order.TotalAmount = order.ComputeTotal()
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			return appendEvent(tx, models.EventOrderCreated, order.ID, newOrderEvent(&order))
		})
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// checkProducts requires every referenced product to exist and be active.
func checkProducts(tx *gorm.DB, items []OrderItemInput) error {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []models.Product
	if err := tx.Select("id", "archived").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: product %d does not exist", ErrInvalidReference, id)
		}
		if p.Archived {
			return fmt.Errorf("%w: product %d is archived", ErrInvalidReference, id)
		}
	}
	return nil
}

// MarkDelivered moves an EN_COURS order to LIVRE and credits every line's
// quantity to product stock. All of it commits or none of it does.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		deliveredAt := s.now().UTC()
		if err := transition(tx, &order, models.OrderStatusDelivered, map[string]any{"actual_delivery_date": deliveredAt}); err != nil {
			return err
		}
		order.ActualDeliveryDate = &deliveredAt
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("credit stock for product %d: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("%w: product %d no longer exists", ErrInvalidReference, item.ProductID)
			}
		}
		return appendEvent(tx, models.EventOrderDelivered, order.ID, newOrderEvent(&order))
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder moves an EN_COURS order to ANNULE. No stock or payment side effects.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := transition(tx, &order, models.OrderStatusCancelled, nil); err != nil {
			return err
		}
		return appendEvent(tx, models.EventOrderCancelled, order.ID, newOrderEvent(&order))
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// lockOrder loads the order with its items and holds its row lock until commit.
func lockOrder(tx *gorm.DB, id uint, order *models.Order) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(order, id).Error
	return lookupErr(err, "order", id)
}

// transition applies a status edge allowed by models.CanTransition. The
// update is conditioned on the current status so a concurrent writer that
// got there first leaves RowsAffected at zero.
func transition(tx *gorm.DB, order *models.Order, to models.OrderStatus, extra map[string]any) error {
	from := order.Status
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: order %s cannot go from %s to %s", ErrInvalidState, order.Number, from, to)
	}
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: order %s changed concurrently", ErrInvalidState, order.Number)
	}
	order.Status = to
	return nil
}

// GetOrder returns the order with supplier, agent and items with their products.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("PurchasingAgent").
		Preload("Items.Product").
		First(&order, id).Error
	if err != nil {
		return nil, lookupErr(err, "order", id)
	}
	return &order, nil
}

type OrderFilter struct {
	Status            models.OrderStatus
	SupplierID        uint
	PurchasingAgentID uint
	From              *time.Time
	To                *time.Time
}

// ListOrders returns orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter, page Page) ([]models.Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, invalid(validation.Violations{"status": "invalid_value"})
	}
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.PurchasingAgentID != 0 {
		q = q.Where("purchasing_agent_id = ?", f.PurchasingAgentID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Order
	if err := page.apply(q.Preload("Supplier").Order("created_at desc, id desc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// OrderStats is the dashboard summary.
type OrderStats struct {
	InProgress          int64           `json:"in_progress"`
	ExpectedToday       int64           `json:"expected_today"`
	TotalDebt           decimal.Decimal `json:"total_debt"`
	PaymentsToday       int64           `json:"payments_today"`
	PaymentsTodayAmount decimal.Decimal `json:"payments_today_amount"`
}

// Stats summarises activity for the calendar day containing now.
func (s *OrderService) Stats(ctx context.Context, now time.Time) (*OrderStats, error) {
	db := s.db.WithContext(ctx)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var st OrderStats
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusInProgress).Count(&st.InProgress).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("status = ? AND expected_delivery_date >= ? AND expected_delivery_date < ?", models.OrderStatusInProgress, dayStart, dayEnd).
		Count(&st.ExpectedToday).Error; err != nil {
		return nil, err
	}
	balances, err := outstandingBalances(db, 0)
	if err != nil {
		return nil, err
	}
	st.TotalDebt = decimal.Zero
	for _, b := range balances {
		st.TotalDebt = st.TotalDebt.Add(b.Remaining)
	}
	var amounts []decimal.Decimal
	if err := db.Model(&models.Payment{}).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Pluck("amount", &amounts).Error; err != nil {
		return nil, err
	}
	st.PaymentsToday = int64(len(amounts))
	st.PaymentsTodayAmount = sum(amounts)
	return &st, nil
}
