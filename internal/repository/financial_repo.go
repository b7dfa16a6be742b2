package repository

import (
	"errors"
	"time"

	"reverie/internal/models"

	"gorm.io/gorm"
)

type FinancialRepository struct {
	db *gorm.DB
}

func NewFinancialRepository(db *gorm.DB) *FinancialRepository {
	return &FinancialRepository{db: db}
}

// WithTransaction runs fn inside a database transaction on the repository's
// handle, for callers composing EnsureCategory with CreateTx.
func (r *FinancialRepository) WithTransaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// EnsureCategory returns the category named name, creating it if absent.
// It runs on the supplied handle so services can call it mid-transaction.
func (r *FinancialRepository) EnsureCategory(tx *gorm.DB, name, catType string) (*models.FinancialCategory, error) {
	var cat models.FinancialCategory
	err := tx.Where("name = ?", name).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cat = models.FinancialCategory{Name: name, Type: catType}
	if err := tx.Create(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// ExistsByExternalID reports whether a transaction with the given provider
// invoice/order id was already recorded. This is the reconciliation
// idempotency check.
func (r *FinancialRepository) ExistsByExternalID(tx *gorm.DB, externalID string) (bool, error) {
	var count int64
	err := tx.Model(&models.FinancialTransaction{}).
		Where("external_id = ?", externalID).Count(&count).Error
	return count > 0, err
}

// HasExternalID is ExistsByExternalID on the repository's own handle.
func (r *FinancialRepository) HasExternalID(externalID string) (bool, error) {
	return r.ExistsByExternalID(r.db, externalID)
}

// CreateTx inserts a transaction on the supplied handle.
func (r *FinancialRepository) CreateTx(tx *gorm.DB, ft *models.FinancialTransaction) error {
	return tx.Create(ft).Error
}

func (r *FinancialRepository) Create(ft *models.FinancialTransaction) error {
	return r.db.Create(ft).Error
}

func (r *FinancialRepository) GetByID(id uint) (*models.FinancialTransaction, error) {
	var ft models.FinancialTransaction
	if err := r.db.First(&ft, id).Error; err != nil {
		return nil, err
	}
	return &ft, nil
}

type FinancialFilter struct {
	Type       string
	CategoryID uint
	Provider   string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (r *FinancialRepository) List(f FinancialFilter) ([]models.FinancialTransaction, int64, error) {
	q := r.db.Model(&models.FinancialTransaction{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Provider != "" {
		q = q.Where("provider = ?", f.Provider)
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
	var rows []models.FinancialTransaction
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&rows).Error
	return rows, total, err
}

type FinancialSummary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Net          float64 `json:"net"`
}

func (r *FinancialRepository) Summary(f FinancialFilter) (*FinancialSummary, error) {
	var s FinancialSummary
	base := func() *gorm.DB {
		q := r.db.Model(&models.FinancialTransaction{})
		if f.From != nil {
			q = q.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("created_at < ?", *f.To)
		}
		return q
	}
	if err := base().Where("type = ?", "income").
		Select("COALESCE(SUM(amount), 0)").Scan(&s.TotalIncome).Error; err != nil {
		return nil, err
	}
	if err := base().Where("type = ?", "expense").
		Select("COALESCE(SUM(amount), 0)").Scan(&s.TotalExpense).Error; err != nil {
		return nil, err
	}
	s.Net = s.TotalIncome - s.TotalExpense
	return &s, nil
}

func (r *FinancialRepository) Update(ft *models.FinancialTransaction) error {
	return r.db.Save(ft).Error
}

func (r *FinancialRepository) Delete(id uint) error {
	return r.db.Delete(&models.FinancialTransaction{}, id).Error
}

func (r *FinancialRepository) ListCategories() ([]models.FinancialCategory, error) {
	var cats []models.FinancialCategory
	err := r.db.Order("name").Find(&cats).Error
	return cats, err
}
