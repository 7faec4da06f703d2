package repository

import (
	"context"
	"time"

	"opsportal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseRepository persists project expense records
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.ProjectExpense) error
	CreateBatch(ctx context.Context, expenses []model.ProjectExpense) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProjectExpense, error)
	FindByTag(ctx context.Context, tag string) (*model.ProjectExpense, error)
	// ListAll returns every record with its submitter, oldest entry first
	ListAll(ctx context.Context) ([]model.ProjectExpense, error)
	ListTags(ctx context.Context) ([]string, error)
	// UpdateFields writes only the given columns. Approval columns are never accepted.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// MarkApproved flips approval_receive from false to true. It reports 0 rows when
	// the record is missing or already approved.
	MarkApproved(ctx context.Context, id uuid.UUID, approver model.ApproverSnapshot, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.ProjectExpense) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(expense).Error
}

func (r *expenseRepository) CreateBatch(ctx context.Context, expenses []model.ProjectExpense) error {
	if len(expenses) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Omit(clause.Associations).CreateInBatches(expenses, len(expenses)).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProjectExpense, error) {
	var expense model.ProjectExpense
	if err := GetDB(ctx, r.db).Preload("SubmittedBy").First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) FindByTag(ctx context.Context, tag string) (*model.ProjectExpense, error) {
	var expense model.ProjectExpense
	if err := GetDB(ctx, r.db).First(&expense, "tag = ?", tag).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) ListAll(ctx context.Context) ([]model.ProjectExpense, error) {
	var expenses []model.ProjectExpense
	err := GetDB(ctx, r.db).
		Preload("SubmittedBy", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Order("entry_date ASC").Order("id ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *expenseRepository) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := GetDB(ctx, r.db).Model(&model.ProjectExpense{}).Order("entry_date ASC").Pluck("tag", &tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *expenseRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.ProjectExpense{}).
		Where("id = ?", id).
		Omit(approvalColumns...).
		Updates(fields).Error
}

// approvalColumns only change through MarkApproved
var approvalColumns = []string{
	"approval_receive",
	"approved_receive_by_username",
	"approved_receive_by_department",
	"approval_receive_date",
}

func (r *expenseRepository) MarkApproved(ctx context.Context, id uuid.UUID, approver model.ApproverSnapshot, at time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.ProjectExpense{}).
		Where("id = ? AND approval_receive = ?", id, false).
		Updates(map[string]interface{}{
			"approval_receive":               true,
			"approved_receive_by_username":   approver.Username,
			"approved_receive_by_department": approver.Department,
			"approval_receive_date":          at,
		})
	return res.RowsAffected, res.Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProjectExpense{})
	return res.RowsAffected, res.Error
}

func (r *expenseRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := GetDB(ctx, r.db).Where("id IN ?", ids).Delete(&model.ProjectExpense{})
	return res.RowsAffected, res.Error
}
