package repository

import (
	"context"
	"time"

	"opsportal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows an audit listing. Zero fields are ignored.
type AuditFilter struct {
	Action   string
	EntityID string
	UserID   *uuid.UUID
	From     *time.Time // inclusive
	To       *time.Time // exclusive
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, offset, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, offset, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	scoped := func(db *gorm.DB) *gorm.DB {
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.EntityID != "" {
			db = db.Where("entity_id = ?", filter.EntityID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.From != nil {
			db = db.Where("created_at >= ?", filter.From.UTC())
		}
		if filter.To != nil {
			db = db.Where("created_at < ?", filter.To.UTC())
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Scopes(scoped).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Scopes(scoped).
		Preload("User", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Order("created_at desc").Order("id desc").Offset(offset).Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
