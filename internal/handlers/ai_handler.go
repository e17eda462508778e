package handlers

import (
	"encoding/base64"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/ai"
	"github.com/medicothink/medicothink-backend/internal/conversation"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/middleware"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/orchestrator"
	"github.com/medicothink/medicothink-backend/internal/quota"
)

type AIHandler struct {
	orch *orchestrator.Orchestrator
}

func NewAIHandler(orch *orchestrator.Orchestrator) *AIHandler {
	return &AIHandler{orch: orch}
}

func (h *AIHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "message is required",
		})
	}
	return h.handle(c, orchestrator.Input{
		Kind:           ai.KindChat,
		ConversationID: req.ConversationID,
		Text:           req.Message,
	})
}

func (h *AIHandler) AnalyzeImage(c *fiber.Ctx) error {
	var req dto.AnalyzeImageRequest
	if err := c.BodyParser(&req); err != nil || req.Image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "image is required",
		})
	}
	imageData, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "image must be valid base64",
		})
	}
	return h.handle(c, orchestrator.Input{
		Kind:           ai.KindVision,
		ConversationID: req.ConversationID,
		Text:           req.Question,
		ImageData:      imageData,
	})
}

func (h *AIHandler) GenerateImage(c *fiber.Ctx) error {
	var req dto.GenerateImageRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "prompt is required",
		})
	}
	return h.handle(c, orchestrator.Input{
		Kind:           ai.KindImage,
		ConversationID: req.ConversationID,
		Text:           req.Prompt,
	})
}

func (h *AIHandler) GenerateVideo(c *fiber.Ctx) error {
	var req dto.GenerateVideoRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "prompt is required",
		})
	}
	return h.handle(c, orchestrator.Input{
		Kind:           ai.KindVideo,
		ConversationID: req.ConversationID,
		Text:           req.Prompt,
	})
}

func (h *AIHandler) GenerateFlashcards(c *fiber.Ctx) error {
	var req dto.FlashcardsRequest
	if err := c.BodyParser(&req); err != nil || req.Topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "topic is required",
		})
	}
	return h.handle(c, orchestrator.Input{
		Kind:           ai.KindFlashcards,
		ConversationID: req.ConversationID,
		Text:           req.Topic,
		Count:          req.Count,
	})
}

func (h *AIHandler) handle(c *fiber.Ctx, input orchestrator.Input) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	result, err := h.orch.Handle(c.Context(), userID, input)
	if err != nil {
		var limitErr *quota.LimitExceededError
		switch {
		case errors.Is(err, orchestrator.ErrSubscriptionRequired):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "Active subscription required",
			})
		case errors.As(err, &limitErr):
			return c.Status(fiber.StatusForbidden).JSON(dto.LimitExceededResponse{
				Error:    true,
				Message:  limitErr.Error(),
				Resource: limitErr.Resource,
				Used:     limitErr.Used,
				Limit:    limitErr.Limit,
			})
		case errors.Is(err, conversation.ErrConversationNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Conversation not found",
			})
		case errors.Is(err, ai.ErrProviderUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "AI providers are unavailable, please try again later",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(toAIResponse(result))
}

func toAIResponse(result *orchestrator.Result) dto.AIResponse {
	return dto.AIResponse{
		ConversationID: result.ConversationID,
		Reply:          toMessageResponse(result.Reply),
		Flashcards:     result.Flashcards,
		MediaURL:       result.MediaURL,
		Provider:       result.Provider,
		Degraded:       result.Degraded,
		Remaining:      result.Remaining,
		Unlimited:      result.Unlimited,
	}
}

func toMessageResponse(m *models.Message) dto.MessageResponse {
	if m == nil {
		return dto.MessageResponse{ID: uuid.Nil}
	}
	return dto.MessageResponse{
		ID:          m.ID,
		Content:     m.Content,
		IsFromUser:  m.IsFromUser,
		MessageType: m.MessageType,
		MediaPath:   m.MediaPath,
		Flashcards:  m.Flashcards,
		CreatedAt:   m.CreatedAt,
	}
}
