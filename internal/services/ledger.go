package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService records installments against delivered orders and answers
// balance and debt questions. Aggregates are computed on demand from the
// payments table; orders never hold their payments.
type LedgerService struct {
	db        *gorm.DB
	numbering Numbering
	now       func() time.Time
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db, now: time.Now}
}

type RecordPaymentInput struct {
	OrderID           uint
	Amount            decimal.Decimal
	InstallmentNumber int
	RecordedByID      uint
	Notes             string
}

func (in RecordPaymentInput) validate() error {
	v := validation.Violations{}
	if in.OrderID == 0 {
		v["order_id"] = "required"
	}
	validation.RangeInt("installment_number", in.InstallmentNumber, 1, models.MaxInstallments, v)
	validation.NonNegative("amount", in.Amount, v)
	validation.MaxScale("amount", in.Amount, moneyScale, v)
	return invalid(v)
}

// Balance is the paid/remaining view of one order.
type Balance struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	FullyPaid bool            `json:"fully_paid"`
}

func newBalance(total, paid decimal.Decimal) Balance {
	remaining := total.Sub(paid)
	return Balance{Total: total, Paid: paid, Remaining: remaining, FullyPaid: !remaining.IsPositive()}
}

// RecordPayment claims one installment slot of a LIVRE or PAYE order.
//
// The order row is locked for the whole check-then-insert sequence, so two
// payments on the same order never both pass the balance check. The unique
// index on (order_id, installment_number) stays the authoritative guard: a
// duplicate key rolls the transaction back and the retry's pre-check reports
// the taken slot as ErrConflict. Once cumulative payments reach the total the
// order moves to PAYE in the same transaction.
func (s *LedgerService) RecordPayment(ctx context.Context, in RecordPaymentInput) (*models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var payment models.Payment
	err := withNumberRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, in.OrderID).Error; err != nil {
				return lookupErr(err, "order", in.OrderID)
			}
			if !order.AcceptsPayments() {
				return fmt.Errorf("%w: order %s is %s", ErrInvalidState, order.Number, order.Status)
			}
			var taken int64
			if err := tx.Model(&models.Payment{}).
				Where("order_id = ? AND installment_number = ?", order.ID, in.InstallmentNumber).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return fmt.Errorf("%w: installment %d already recorded for order %s", ErrConflict, in.InstallmentNumber, order.Number)
			}
			paid, err := paidSoFar(tx, order.ID)
			if err != nil {
				return err
			}
			if remaining := order.TotalAmount.Sub(paid); in.Amount.GreaterThan(remaining) {
				return &ValidationError{Violations: validation.Violations{"amount": "exceeds_remaining_balance"}}
			}

			number, err := s.numbering.Next(ctx, tx, models.SequencePayment, models.PrefixPayment)
			if err != nil {
				return err
			}
			payment = models.Payment{
				Number:            number,
				OrderID:           order.ID,
				Amount:            in.Amount,
				Date:              s.now().UTC(),
				InstallmentNumber: in.InstallmentNumber,
				RecordedByID:      in.RecordedByID,
				Notes:             in.Notes,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}

			paid, err = paidSoFar(tx, order.ID)
			if err != nil {
				return err
			}
			if paid.GreaterThan(order.TotalAmount) {
				return &ValidationError{Violations: validation.Violations{"amount": "exceeds_remaining_balance"}}
			}
			if err := appendEvent(tx, models.EventPaymentRecorded, order.ID, paymentEvent{
				PaymentID:         payment.ID,
				Number:            payment.Number,
				OrderID:           order.ID,
				InstallmentNumber: payment.InstallmentNumber,
				Amount:            payment.Amount.StringFixed(2),
				PaidSoFar:         paid.StringFixed(2),
			}); err != nil {
				return err
			}
			if paid.GreaterThanOrEqual(order.TotalAmount) && order.Status == models.OrderStatusDelivered {
				if err := transition(tx, &order, models.OrderStatusPaid, nil); err != nil {
					return err
				}
				return appendEvent(tx, models.EventOrderPaid, order.ID, newOrderEvent(&order))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ComputeBalance returns total, paid and remaining for an order.
func (s *LedgerService) ComputeBalance(ctx context.Context, orderID uint) (*Balance, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.Select("id", "total_amount").First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order", orderID)
	}
	paid, err := paidSoFar(db, order.ID)
	if err != nil {
		return nil, err
	}
	b := newBalance(order.TotalAmount, paid)
	return &b, nil
}

// SupplierDebt is the outstanding amount owed to one supplier.
type SupplierDebt struct {
	SupplierID       uint            `json:"supplier_id"`
	SupplierNumber   string          `json:"supplier_number"`
	SupplierName     string          `json:"supplier_name"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	OrderCount       int             `json:"order_count"`
}

// AggregateDebtBySupplier groups the remaining balance of LIVRE orders by
// supplier, largest debt first. Suppliers with nothing outstanding are left out.
func (s *LedgerService) AggregateDebtBySupplier(ctx context.Context) ([]SupplierDebt, error) {
	balances, err := outstandingBalances(s.db.WithContext(ctx), 0)
	if err != nil {
		return nil, err
	}
	bySupplier := map[uint]*SupplierDebt{}
	for _, ob := range balances {
		d, ok := bySupplier[ob.Order.SupplierID]
		if !ok {
			d = &SupplierDebt{SupplierID: ob.Order.SupplierID, TotalOutstanding: decimal.Zero}
			if ob.Order.Supplier != nil {
				d.SupplierNumber = ob.Order.Supplier.Number
				d.SupplierName = ob.Order.Supplier.Name
			}
			bySupplier[ob.Order.SupplierID] = d
		}
		d.TotalOutstanding = d.TotalOutstanding.Add(ob.Remaining)
		d.OrderCount++
	}
	out := make([]SupplierDebt, 0, len(bySupplier))
	for _, d := range bySupplier {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalOutstanding.Cmp(out[j].TotalOutstanding); c != 0 {
			return c > 0
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	return out, nil
}

// OutstandingOrder is a delivered order that still has money owed on it.
type OutstandingOrder struct {
	Order            models.Order    `json:"order"`
	Paid             decimal.Decimal `json:"paid"`
	Remaining        decimal.Decimal `json:"remaining"`
	InstallmentsUsed int             `json:"installments_used"`
}

type OutstandingFilter struct {
	SupplierID uint
}

// ListOutstandingOrders returns LIVRE orders with a positive remaining
// balance, most recently delivered first.
func (s *LedgerService) ListOutstandingOrders(ctx context.Context, f OutstandingFilter, page Page) ([]OutstandingOrder, int64, error) {
	all, err := outstandingBalances(s.db.WithContext(ctx), f.SupplierID)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	start := min(page.Offset, len(all))
	end := len(all)
	if page.Limit > 0 {
		end = min(start+page.Limit, len(all))
	}
	return all[start:end], total, nil
}

// outstandingBalances loads LIVRE orders (optionally for one supplier) and
// keeps those whose remaining balance is positive, sorted by delivery date desc.
func outstandingBalances(db *gorm.DB, supplierID uint) ([]OutstandingOrder, error) {
	q := db.Preload("Supplier").Where("status = ?", models.OrderStatusDelivered)
	if supplierID != 0 {
		q = q.Where("supplier_id = ?", supplierID)
	}
	var orders []models.Order
	if err := q.Order("actual_delivery_date desc, id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	var payments []models.Payment
	if err := db.Select("order_id", "amount").Where("order_id IN ?", ids).Find(&payments).Error; err != nil {
		return nil, err
	}
	paid := make(map[uint]decimal.Decimal, len(orders))
	count := make(map[uint]int, len(orders))
	for _, p := range payments {
		paid[p.OrderID] = paid[p.OrderID].Add(p.Amount)
		count[p.OrderID]++
	}
	out := make([]OutstandingOrder, 0, len(orders))
	for _, o := range orders {
		remaining := o.TotalAmount.Sub(paid[o.ID])
		if !remaining.IsPositive() {
			continue
		}
		out = append(out, OutstandingOrder{Order: o, Paid: paid[o.ID], Remaining: remaining, InstallmentsUsed: count[o.ID]})
	}
	return out, nil
}

type PaymentFilter struct {
	OrderID    uint
	SupplierID uint
	From       *time.Time
	To         *time.Time
}

// ListPayments returns payments most recent first.
func (s *LedgerService) ListPayments(ctx context.Context, f PaymentFilter, page Page) ([]models.Payment, int64, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Payment{})
	if f.OrderID != 0 {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.SupplierID != 0 {
		q = q.Where("order_id IN (?)", db.Model(&models.Order{}).Select("id").Where("supplier_id = ?", f.SupplierID))
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Payment
	if err := page.apply(q.Preload("Order.Supplier").Preload("RecordedBy").Order("date desc, id desc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetPayment returns one payment with its order and recorder.
func (s *LedgerService) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Preload("Order.Supplier").Preload("RecordedBy").First(&p, id).Error; err != nil {
		return nil, lookupErr(err, "payment", id)
	}
	return &p, nil
}

// InstallmentHistory is the payment record of one order.
type InstallmentHistory struct {
	Order            models.Order     `json:"order"`
	Payments         []models.Payment `json:"payments"`
	Balance          Balance          `json:"balance"`
	InstallmentsUsed int              `json:"installments_used"`
	FreeInstallments []int            `json:"free_installments"`
}

func (s *LedgerService) InstallmentHistory(ctx context.Context, orderID uint) (*InstallmentHistory, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.Preload("Supplier").First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order", orderID)
	}
	var payments []models.Payment
	if err := db.Preload("RecordedBy").Where("order_id = ?", order.ID).Order("installment_number asc").Find(&payments).Error; err != nil {
		return nil, err
	}
	paid := decimal.Zero
	used := map[int]bool{}
	for _, p := range payments {
		paid = paid.Add(p.Amount)
		used[p.InstallmentNumber] = true
	}
	free := []int{}
	for n := 1; n <= models.MaxInstallments; n++ {
		if !used[n] {
			free = append(free, n)
		}
	}
	return &InstallmentHistory{
		Order:            order,
		Payments:         payments,
		Balance:          newBalance(order.TotalAmount, paid),
		InstallmentsUsed: len(payments),
		FreeInstallments: free,
	}, nil
}

// ScheduledInstallment is one line of a suggested payment plan.
type ScheduledInstallment struct {
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
}

// scheduleSpacing separates consecutive suggested due dates.
const scheduleSpacing = 5 * 24 * time.Hour

// SuggestedSchedule splits the order total into MaxInstallments equal parts
// due every five days after delivery; the last part absorbs rounding. The
// plan is advisory and RecordPayment does not enforce it.
func (s *LedgerService) SuggestedSchedule(ctx context.Context, orderID uint) ([]ScheduledInstallment, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order", orderID)
	}
	if order.ActualDeliveryDate == nil {
		return nil, fmt.Errorf("%w: order %s has not been delivered", ErrInvalidState, order.Number)
	}
	return SplitSchedule(order.TotalAmount, *order.ActualDeliveryDate), nil
}

// SplitSchedule computes the advisory plan for a total delivered at the given time.
func SplitSchedule(total decimal.Decimal, deliveredAt time.Time) []ScheduledInstallment {
	n := int64(models.MaxInstallments)
	share := total.Div(decimal.NewFromInt(n)).RoundDown(2)
	out := make([]ScheduledInstallment, 0, n)
	for i := int64(1); i <= n; i++ {
		amount := share
		if i == n {
			amount = total.Sub(share.Mul(decimal.NewFromInt(n - 1)))
		}
		out = append(out, ScheduledInstallment{
			InstallmentNumber: int(i),
			DueDate:           deliveredAt.Add(time.Duration(i) * scheduleSpacing),
			Amount:            amount,
		})
	}
	return out
}

func paidSoFar(db *gorm.DB, orderID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := db.Model(&models.Payment{}).Where("order_id = ?", orderID).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return sum(amounts), nil
}

func sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
