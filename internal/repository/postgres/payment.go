package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"gorm.io/gorm"
)

type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepo) FindByProviderRef(ctx context.Context, ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "provider_ref = ?", ref).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &payment, nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}
