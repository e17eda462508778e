package ai

import (
	"github.com/medicothink/medicothink-backend/internal/config"
	"github.com/medicothink/medicothink-backend/internal/storage"
)

// FromConfig builds the production gateway. Providers with no API key
// configured are left out of their chains.
func FromConfig(cfg *config.Config, store storage.Store) *Gateway {
	gc := GatewayConfig{
		Store: store,
		Timeouts: Timeouts{
			Chat:   cfg.ChatTimeout,
			Vision: cfg.VisionTimeout,
			Image:  cfg.ImageTimeout,
			Video:  cfg.VideoTimeout,
		},
	}
	if cfg.OpenAIAPIKey != "" {
		oa := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIVisionModel, cfg.OpenAIImageModel)
		gc.Chat = append(gc.Chat, oa)
		gc.Vision = append(gc.Vision, oa)
		gc.Image = append(gc.Image, oa)
	}
	if cfg.GeminiAPIKey != "" {
		gc.Chat = append(gc.Chat, NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiAPIURL, cfg.GeminiModel))
	}
	if cfg.VideoAPIKey != "" {
		gc.Video = append(gc.Video, NewHTTPVideoProvider(cfg.VideoAPIKey, cfg.VideoAPIURL, cfg.VideoModel))
	}
	return NewGateway(gc)
}
