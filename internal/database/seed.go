package database

import (
	"log/slog"

	"github.com/medicothink/medicothink-backend/internal/models"
	"gorm.io/datatypes"
)

// SeedPlans inserts the default subscription plan catalog if missing.
// Limits of -1 mean unlimited.
func SeedPlans() error {
	plans := []models.SubscriptionPlan{
		{
			Name:          "basic",
			DisplayNameEn: "Basic Plan",
			DisplayNameAr: "الباقة الأساسية",
			Price:         9.99, Currency: "USD", Duration: "monthly",
			TokensLimit: 100, ImagesLimit: 10, VideosLimit: 2, ConversationsLimit: 50,
			Features: datatypes.JSON(`["AI Chat Support","Basic Image Analysis","Limited Video Generation","Email Support"]`),
			IsActive: true,
		},
		{
			Name:          "advanced",
			DisplayNameEn: "Advanced Plan",
			DisplayNameAr: "الباقة المتقدمة",
			Price:         19.99, Currency: "USD", Duration: "monthly",
			TokensLimit: 500, ImagesLimit: 50, VideosLimit: 10, ConversationsLimit: 200,
			Features: datatypes.JSON(`["Advanced AI Chat","Medical Image Analysis","Video Generation","Flashcards Generation","Priority Support"]`),
			IsActive: true, IsPopular: true,
		},
		{
			Name:          "premium",
			DisplayNameEn: "Premium Plan",
			DisplayNameAr: "الباقة المميزة",
			Price:         39.99, Currency: "USD", Duration: "monthly",
			TokensLimit:        models.UnlimitedLimit,
			ImagesLimit:        models.UnlimitedLimit,
			VideosLimit:        models.UnlimitedLimit,
			ConversationsLimit: models.UnlimitedLimit,
			Features:           datatypes.JSON(`["Unlimited AI Chat","Unlimited Image Analysis","Unlimited Video Generation","Advanced Flashcards","Priority Support"]`),
			IsActive:           true,
		},
	}

	for _, plan := range plans {
		var existing models.SubscriptionPlan
		if err := DB.Where("name = ?", plan.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := DB.Create(&plan).Error; err != nil {
			return err
		}
		slog.Info("seeded subscription plan", "plan", plan.Name)
	}
	return nil
}
