package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"gorm.io/gorm"
)

type ConversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *ConversationRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conv).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &conv, nil
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID, archived bool, page, pageSize int) ([]models.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	base := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("user_id = ? AND is_archived = ?", userID, archived)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var convs []models.Conversation
	err := base.
		Order("last_message_at DESC NULLS LAST, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&convs).Error
	return convs, total, err
}

func (r *ConversationRepo) SetArchived(ctx context.Context, id, userID uuid.UUID, archived bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_archived", archived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wrapErr(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *ConversationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return wrapErr(gorm.ErrRecordNotFound)
		}
		return tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error
	})
}
