package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"gorm.io/gorm"
)

type OtpRepo struct {
	db *gorm.DB
}

func NewOtpRepo(db *gorm.DB) *OtpRepo {
	return &OtpRepo{db: db}
}

func (r *OtpRepo) Replace(ctx context.Context, code *models.OtpCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone_number = ?", code.PhoneNumber).Delete(&models.OtpCode{}).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

func (r *OtpRepo) FindLiveByPhone(ctx context.Context, phone string, now time.Time) (*models.OtpCode, error) {
	var code models.OtpCode
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND used_at IS NULL AND expires_at > ?", phone, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &code, nil
}

func (r *OtpRepo) ClaimAttempt(ctx context.Context, id uuid.UUID, max int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OtpCode{}).
		Where("id = ? AND attempts < ?", id, max).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OtpRepo) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OtpCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
