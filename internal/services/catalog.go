package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService manages categories, sub-categories and products.
// Archiving a parent archives its descendants in the same transaction; an
// archived parent never has an active child.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ─────────────────────────────────────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────────────────────────────────────

type CategoryInput struct {
	Name        string
	Description string
}

func (in CategoryInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	validation.MaxLen("description", in.Description, 500, v)
	return invalid(v)
}

type CategoryFilter struct {
	Search          string
	IncludeArchived bool
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := models.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, writeErr(err, "category")
	}
	return &c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, f CategoryFilter, page Page) ([]models.Category, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Category{})
	if !f.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	if f.Search != "" {
		q = q.Where("lower(name) LIKE ?", likePattern(f.Search))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Category
	if err := page.apply(q.Order("name asc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetCategory returns the category with its active sub-categories.
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
			return db.Where("archived = ?", false).Order("name asc")
		}).
		First(&c, id).Error
	if err != nil {
		return nil, lookupErr(err, "category", id)
	}
	return &c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, lookupErr(err, "category", id)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, writeErr(err, "category")
	}
	return &c, nil
}

// ToggleCategoryArchive flips the archived flag. Archiving cascades to the
// sub-categories and their products; unarchiving only restores the category.
func (s *CatalogService) ToggleCategoryArchive(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
			return lookupErr(err, "category", id)
		}
		c.Archived = !c.Archived
		if err := tx.Model(&c).Update("archived", c.Archived).Error; err != nil {
			return err
		}
		if c.Archived {
			return archiveCategoryChildren(tx, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func archiveCategoryChildren(tx *gorm.DB, categoryID uint) error {
	subIDs := tx.Model(&models.SubCategory{}).Select("id").Where("category_id = ?", categoryID)
	if err := tx.Model(&models.Product{}).
		Where("sub_category_id IN (?)", subIDs).
		Update("archived", true).Error; err != nil {
		return fmt.Errorf("archive products: %w", err)
	}
	if err := tx.Model(&models.SubCategory{}).
		Where("category_id = ?", categoryID).
		Update("archived", true).Error; err != nil {
		return fmt.Errorf("archive sub-categories: %w", err)
	}
	return nil
}

// DeleteCategory hard-deletes an empty category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.First(&c, id).Error; err != nil {
			return lookupErr(err, "category", id)
		}
		var n int64
		if err := tx.Model(&models.SubCategory{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: category %d still has %d sub-categories", ErrInvalidState, id, n)
		}
		return tx.Delete(&c).Error
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Sub-categories
// ─────────────────────────────────────────────────────────────────────────────

type SubCategoryInput struct {
	Name        string
	Description string
	CategoryID  uint
}

type SubCategoryFilter struct {
	CategoryID      uint
	Search          string
	IncludeArchived bool
}

func (in SubCategoryInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	validation.MaxLen("description", in.Description, 500, v)
	if in.CategoryID == 0 {
		v["category_id"] = "required"
	}
	return invalid(v)
}

// activeCategory loads a category that can accept children.
func activeCategory(tx *gorm.DB, id uint) error {
	var c models.Category
	if err := tx.Select("id", "archived").First(&c, id).Error; err != nil {
		return refErr(err, "category", id)
	}
	if c.Archived {
		return fmt.Errorf("%w: category %d is archived", ErrInvalidReference, id)
	}
	return nil
}

func (s *CatalogService) CreateSubCategory(ctx context.Context, in SubCategoryInput) (*models.SubCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sc := models.SubCategory{Name: strings.TrimSpace(in.Name), Description: in.Description, CategoryID: in.CategoryID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := activeCategory(tx, in.CategoryID); err != nil {
			return err
		}
		return writeErr(tx.Create(&sc).Error, "sub-category")
	})
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *CatalogService) ListSubCategories(ctx context.Context, f SubCategoryFilter, page Page) ([]models.SubCategory, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.SubCategory{})
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if !f.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	if f.Search != "" {
		q = q.Where("lower(name) LIKE ?", likePattern(f.Search))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.SubCategory
	if err := page.apply(q.Preload("Category").Order("name asc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *CatalogService) GetSubCategory(ctx context.Context, id uint) (*models.SubCategory, error) {
	var sc models.SubCategory
	if err := s.db.WithContext(ctx).Preload("Category").First(&sc, id).Error; err != nil {
		return nil, lookupErr(err, "sub-category", id)
	}
	return &sc, nil
}

func (s *CatalogService) UpdateSubCategory(ctx context.Context, id uint, in SubCategoryInput) (*models.SubCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var sc models.SubCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sc, id).Error; err != nil {
			return lookupErr(err, "sub-category", id)
		}
		if in.CategoryID != sc.CategoryID {
			if err := activeCategory(tx, in.CategoryID); err != nil {
				return err
			}
		}
		sc.Name = strings.TrimSpace(in.Name)
		sc.Description = in.Description
		sc.CategoryID = in.CategoryID
		sc.Category = nil
		return writeErr(tx.Save(&sc).Error, "sub-category")
	})
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ToggleSubCategoryArchive flips the archived flag. Archiving cascades to the
// products; unarchiving requires an active category.
func (s *CatalogService) ToggleSubCategoryArchive(ctx context.Context, id uint) (*models.SubCategory, error) {
	var sc models.SubCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sc, id).Error; err != nil {
			return lookupErr(err, "sub-category", id)
		}
		if sc.Archived {
			if err := activeCategory(tx, sc.CategoryID); errors.Is(err, ErrInvalidReference) {
				return fmt.Errorf("%w: parent category is archived", ErrInvalidState)
			} else if err != nil {
				return err
			}
		}
		sc.Archived = !sc.Archived
		if err := tx.Model(&sc).Update("archived", sc.Archived).Error; err != nil {
			return err
		}
		if sc.Archived {
			return tx.Model(&models.Product{}).Where("sub_category_id = ?", sc.ID).Update("archived", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// DeleteSubCategory hard-deletes a sub-category without products.
func (s *CatalogService) DeleteSubCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sc models.SubCategory
		if err := tx.First(&sc, id).Error; err != nil {
			return lookupErr(err, "sub-category", id)
		}
		var n int64
		if err := tx.Model(&models.Product{}).Where("sub_category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: sub-category %d still has %d products", ErrInvalidState, id, n)
		}
		return tx.Delete(&sc).Error
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Products
// ─────────────────────────────────────────────────────────────────────────────

type ProductInput struct {
	Code          string
	Designation   string
	StockQuantity int
	UnitPrice     decimal.Decimal
	ImageRef      string
	SubCategoryID uint
}

type ProductFilter struct {
	Search          string
	SubCategoryID   uint
	IncludeArchived bool
	// LowStock, when set, keeps products whose stock is at or below the threshold.
	LowStock *int
}

func (in ProductInput) validate() error {
	v := validation.Violations{}
	validation.Required("code", in.Code, v)
	validation.MaxLen("code", in.Code, 50, v)
	validation.Required("designation", in.Designation, v)
	validation.MinInt("stock_quantity", in.StockQuantity, 0, v)
	validation.NonNegative("unit_price", in.UnitPrice, v)
	validation.MaxScale("unit_price", in.UnitPrice, moneyScale, v)
	if in.SubCategoryID == 0 {
		v["sub_category_id"] = "required"
	}
	return invalid(v)
}

// activeSubCategory checks the sub-category exists and is not archived.
func activeSubCategory(tx *gorm.DB, id uint) error {
	var sc models.SubCategory
	if err := tx.Select("id", "archived").First(&sc, id).Error; err != nil {
		return refErr(err, "sub-category", id)
	}
	if sc.Archived {
		return fmt.Errorf("%w: sub-category %d is archived", ErrInvalidReference, id)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := models.Product{
		Code:          strings.ToUpper(strings.TrimSpace(in.Code)),
		Designation:   strings.TrimSpace(in.Designation),
		StockQuantity: in.StockQuantity,
		UnitPrice:     in.UnitPrice,
		ImageRef:      in.ImageRef,
		SubCategoryID: in.SubCategoryID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := activeSubCategory(tx, in.SubCategoryID); err != nil {
			return err
		}
		return writeErr(tx.Create(&p).Error, "product code")
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter, page Page) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if !f.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	if f.SubCategoryID != 0 {
		q = q.Where("sub_category_id = ?", f.SubCategoryID)
	}
	if f.Search != "" {
		like := likePattern(f.Search)
		q = q.Where("lower(code) LIKE ? OR lower(designation) LIKE ?", like, like)
	}
	if f.LowStock != nil {
		q = q.Where("stock_quantity <= ?", *f.LowStock)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Product
	if err := page.apply(q.Preload("SubCategory").Order("designation asc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("SubCategory.Category").First(&p, id).Error; err != nil {
		return nil, lookupErr(err, "product", id)
	}
	return &p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return lookupErr(err, "product", id)
		}
		if in.SubCategoryID != p.SubCategoryID {
			if err := activeSubCategory(tx, in.SubCategoryID); err != nil {
				return err
			}
		}
		p.Code = strings.ToUpper(strings.TrimSpace(in.Code))
		p.Designation = strings.TrimSpace(in.Designation)
		p.StockQuantity = in.StockQuantity
		p.UnitPrice = in.UnitPrice
		p.ImageRef = in.ImageRef
		p.SubCategoryID = in.SubCategoryID
		p.SubCategory = nil
		return writeErr(tx.Save(&p).Error, "product code")
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ToggleProductArchive flips the archived flag; unarchiving requires an active sub-category.
func (s *CatalogService) ToggleProductArchive(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return lookupErr(err, "product", id)
		}
		if p.Archived {
			if err := activeSubCategory(tx, p.SubCategoryID); errors.Is(err, ErrInvalidReference) {
				return fmt.Errorf("%w: parent sub-category is archived", ErrInvalidState)
			} else if err != nil {
				return err
			}
		}
		p.Archived = !p.Archived
		return tx.Model(&p).Update("archived", p.Archived).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
