package repository

import (
	"context"
	"time"

	"opsportal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportFilter narrows a report listing. Zero fields are ignored.
type ReportFilter struct {
	ReportType    string
	InspectorID   *uuid.UUID
	From          *time.Time // inclusive
	To            *time.Time // exclusive
	CostCenterIDs []uuid.UUID
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	// List returns one page of reports, newest submission first, and the total matching count
	List(ctx context.Context, filter ReportFilter, offset, limit int) ([]model.Report, int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Omit("Inspector", "CostCenter").Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := withReportRelations(GetDB(ctx, r.db)).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter, offset, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	db := GetDB(ctx, r.db)
	if err := applyReportFilter(db.Model(&model.Report{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Report{}, 0, nil
	}

	err := withReportRelations(applyReportFilter(db.Model(&model.Report{}), filter)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "submitted_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Offset(offset).Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func applyReportFilter(db *gorm.DB, f ReportFilter) *gorm.DB {
	if f.ReportType != "" {
		db = db.Where("report_type = ?", f.ReportType)
	}
	if f.InspectorID != nil {
		db = db.Where("inspector_id = ?", *f.InspectorID)
	}
	if f.From != nil {
		db = db.Where("submitted_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		db = db.Where("submitted_at < ?", f.To.UTC())
	}
	if len(f.CostCenterIDs) > 0 {
		db = db.Where("cost_center_id IN ?", f.CostCenterIDs)
	}
	return db
}

// withReportRelations batches the inspector, cost center and item lookups
func withReportRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Inspector", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("CostCenter").
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}
