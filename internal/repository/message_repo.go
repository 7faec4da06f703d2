package repository

import (
	"context"

	"opsportal/internal/model"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByRoom(ctx context.Context, room string, offset, limit int) ([]model.Message, int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return GetDB(ctx, r.db).Omit("Sender").Create(msg).Error
}

func (r *messageRepository) ListByRoom(ctx context.Context, room string, offset, limit int) ([]model.Message, int64, error) {
	var messages []model.Message
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Message{}).Where("room = ?", room).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Sender", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Where("room = ?", room).
		Order("created_at desc").Order("id desc").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}
