package repository

import (
	"context"

	"opsportal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerTotals is the sum of every entry booked against one cost center
type LedgerTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

type LedgerRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error)
	List(ctx context.Context, costCenterID uuid.UUID, offset, limit int) ([]model.LedgerEntry, int64, error)
	Totals(ctx context.Context, costCenterID uuid.UUID) (LedgerTotals, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	return GetDB(ctx, r.db).Omit("CostCenter", "CreatedBy").Create(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) List(ctx context.Context, costCenterID uuid.UUID, offset, limit int) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.LedgerEntry{}).Where("cost_center_id = ?", costCenterID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Where("cost_center_id = ?", costCenterID).
		Order("entry_date desc").Order("id desc").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepository) Totals(ctx context.Context, costCenterID uuid.UUID) (LedgerTotals, error) {
	var totals LedgerTotals
	err := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).
		Select("COALESCE(SUM(debit), 0) AS debit, COALESCE(SUM(credit), 0) AS credit").
		Where("cost_center_id = ?", costCenterID).
		Scan(&totals).Error
	return totals, err
}

func (r *ledgerRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.LedgerEntry{})
	return res.RowsAffected, res.Error
}
