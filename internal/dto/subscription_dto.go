package dto

import "gorm.io/datatypes"

type SubscribeRequest struct {
	PlanID uint `json:"plan_id"`
}

type CheckoutResponse struct {
	SubscriptionID string `json:"subscription_id"`
	PaymentID      string `json:"payment_id"`
	CheckoutURL    string `json:"checkout_url"`
}

type PlanResponse struct {
	ID                 uint           `json:"id"`
	Name               string         `json:"name"`
	DisplayNameEn      string         `json:"display_name_en"`
	DisplayNameAr      string         `json:"display_name_ar"`
	Price              float64        `json:"price"`
	Currency           string         `json:"currency"`
	Duration           string         `json:"duration"`
	TokensLimit        int64          `json:"tokens_limit"`
	ImagesLimit        int64          `json:"images_limit"`
	VideosLimit        int64          `json:"videos_limit"`
	ConversationsLimit int64          `json:"conversations_limit"`
	Features           datatypes.JSON `json:"features,omitempty"`
	IsPopular          bool           `json:"is_popular"`
}
