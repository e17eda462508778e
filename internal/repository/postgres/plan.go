package postgres

import (
	"context"

	"github.com/medicothink/medicothink-backend/internal/models"
	"gorm.io/gorm"
)

type PlanRepo struct {
	db *gorm.DB
}

func NewPlanRepo(db *gorm.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

func (r *PlanRepo) FindByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &plan, nil
}

func (r *PlanRepo) ListActive(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("is_active = true").Order("price ASC").Find(&plans).Error
	return plans, err
}
