package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/conversation"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/middleware"
	"github.com/medicothink/medicothink-backend/internal/models"
)

type ConversationHandler struct {
	convService *conversation.Service
}

func NewConversationHandler(convService *conversation.Service) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	archived := c.QueryBool("archived", false)

	convs, total, err := h.convService.List(c.Context(), userID, archived, page, pageSize)
	if err != nil {
		return internalError(c)
	}

	out := make([]dto.ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, toConversationResponse(&conv))
	}
	return c.JSON(dto.ConversationListResponse{
		Conversations: out,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	})
}

func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	conv, err := h.convService.Create(c.Context(), userID, req.Title)
	if err != nil {
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(toConversationResponse(conv))
}

func (h *ConversationHandler) Messages(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	convID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid conversation id")
	}

	msgs, err := h.convService.Messages(c.Context(), userID, convID)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return notFound(c, "conversation not found")
		}
		return internalError(c)
	}

	out := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"messages": out})
}

func (h *ConversationHandler) Archive(c *fiber.Ctx) error {
	return h.setArchived(c, true)
}

func (h *ConversationHandler) Unarchive(c *fiber.Ctx) error {
	return h.setArchived(c, false)
}

func (h *ConversationHandler) setArchived(c *fiber.Ctx, archived bool) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	convID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid conversation id")
	}

	if err := h.convService.SetArchived(c.Context(), userID, convID, archived); err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return notFound(c, "conversation not found")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"archived": archived})
}

func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	convID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid conversation id")
	}

	if err := h.convService.Delete(c.Context(), userID, convID); err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return notFound(c, "conversation not found")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "conversation deleted"})
}

func toConversationResponse(conv *models.Conversation) dto.ConversationResponse {
	return dto.ConversationResponse{
		ID:            conv.ID,
		Title:         conv.Title,
		IsArchived:    conv.IsArchived,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
