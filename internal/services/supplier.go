package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplierService manages the supplier registry.
type SupplierService struct {
	db *gorm.DB
}

func NewSupplierService(db *gorm.DB) *SupplierService {
	return &SupplierService{db: db}
}

type SupplierInput struct {
	Number  string
	Name    string
	Address string
	Phone   string
	Email   string
}

type SupplierFilter struct {
	Search          string
	IncludeArchived bool
}

func (in SupplierInput) validate() error {
	v := validation.Violations{}
	validation.Required("number", in.Number, v)
	validation.MaxLen("number", in.Number, 50, v)
	validation.Required("name", in.Name, v)
	validation.Required("address", in.Address, v)
	validation.Email("email", in.Email, v)
	return invalid(v)
}

func (s *SupplierService) Create(ctx context.Context, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sup := models.Supplier{
		Number:  strings.TrimSpace(in.Number),
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		Phone:   in.Phone,
		Email:   in.Email,
	}
	if err := s.db.WithContext(ctx).Create(&sup).Error; err != nil {
		return nil, writeErr(err, "supplier number")
	}
	return &sup, nil
}

func (s *SupplierService) List(ctx context.Context, f SupplierFilter, page Page) ([]models.Supplier, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Supplier{})
	if !f.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	if f.Search != "" {
		like := likePattern(f.Search)
		q = q.Where("lower(name) LIKE ? OR lower(number) LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Supplier
	if err := page.apply(q.Order("name asc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *SupplierService) Get(ctx context.Context, id uint) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.db.WithContext(ctx).First(&sup, id).Error; err != nil {
		return nil, lookupErr(err, "supplier", id)
	}
	return &sup, nil
}

func (s *SupplierService) Update(ctx context.Context, id uint, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var sup models.Supplier
	if err := s.db.WithContext(ctx).First(&sup, id).Error; err != nil {
		return nil, lookupErr(err, "supplier", id)
	}
	sup.Number = strings.TrimSpace(in.Number)
	sup.Name = strings.TrimSpace(in.Name)
	sup.Address = strings.TrimSpace(in.Address)
	sup.Phone = in.Phone
	sup.Email = in.Email
	if err := s.db.WithContext(ctx).Save(&sup).Error; err != nil {
		return nil, writeErr(err, "supplier number")
	}
	return &sup, nil
}

// ToggleArchive flips the archived flag. A supplier with EN_COURS or LIVRE
// orders cannot be archived.
func (s *SupplierService) ToggleArchive(ctx context.Context, id uint) (*models.Supplier, error) {
	var sup models.Supplier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sup, id).Error; err != nil {
			return lookupErr(err, "supplier", id)
		}
		if !sup.Archived {
			var open int64
			if err := tx.Model(&models.Order{}).
				Where("supplier_id = ? AND status IN ?", id, []models.OrderStatus{models.OrderStatusInProgress, models.OrderStatusDelivered}).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return fmt.Errorf("%w: supplier %d has %d open orders", ErrInvalidState, id, open)
			}
		}
		sup.Archived = !sup.Archived
		return tx.Model(&sup).Update("archived", sup.Archived).Error
	})
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

// Delete hard-deletes a supplier that was never ordered from.
func (s *SupplierService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sup models.Supplier
		if err := tx.First(&sup, id).Error; err != nil {
			return lookupErr(err, "supplier", id)
		}
		var n int64
		if err := tx.Model(&models.Order{}).Where("supplier_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: supplier %d is referenced by %d orders", ErrInvalidState, id, n)
		}
		return tx.Delete(&sup).Error
	})
}
