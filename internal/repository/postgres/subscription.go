package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"gorm.io/gorm"
)

// usageColumns whitelists the counter columns ConsumeUsage may touch so a
// resource name can never be interpolated into SQL unchecked.
var usageColumns = map[string]string{
	"tokens":        "tokens_used",
	"images":        "images_used",
	"videos":        "videos_used",
	"conversations": "conversations_used",
}

type SubscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

func (r *SubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *SubscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Preload("Plan").First(&sub, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &sub, nil
}

func (r *SubscriptionRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &sub, nil
}

func (r *SubscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *SubscriptionRepo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionActive).
		Update("status", models.SubscriptionExpired).Error
}

func (r *SubscriptionRepo) ConsumeUsage(ctx context.Context, id uuid.UUID, resource string, amount, limit int64) (int64, bool, error) {
	col, ok := usageColumns[resource]
	if !ok {
		return 0, false, fmt.Errorf("unknown resource %q", resource)
	}

	q := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id)
	if limit != models.UnlimitedLimit {
		q = q.Where(col+" + ? <= ?", amount, limit)
	}
	res := q.UpdateColumn(col, gorm.Expr(col+" + ?", amount))
	if res.Error != nil {
		return 0, false, res.Error
	}
	applied := res.RowsAffected > 0

	var sub models.Subscription
	if err := r.db.WithContext(ctx).Select(col).First(&sub, "id = ?", id).Error; err != nil {
		return 0, applied, wrapErr(err)
	}
	return sub.UsedFor(resource), applied, nil
}

func (r *SubscriptionRepo) RefundUsage(ctx context.Context, id uuid.UUID, resource string, amount int64) error {
	col, ok := usageColumns[resource]
	if !ok {
		return fmt.Errorf("unknown resource %q", resource)
	}
	// GREATEST keeps the counter from going negative if a refund races a reset.
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		UpdateColumn(col, gorm.Expr("GREATEST("+col+" - ?, 0)", amount)).Error
}

func (r *SubscriptionRepo) ResetUsage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"tokens_used":        0,
			"images_used":        0,
			"videos_used":        0,
			"conversations_used": 0,
		}).Error
}

func (r *SubscriptionRepo) ListLapsedActive(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND ends_at < ?", models.SubscriptionActive, now).
		Find(&subs).Error
	return subs, err
}
