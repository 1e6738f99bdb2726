package controller

import (
	"medibot-be/internal/dto"
	"medibot-be/internal/pkg/serverutils"
	"medibot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateConversation(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ClearAll(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	SampleQuestions(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("session", c.CreateConversation)
	h.Get("sessions", c.ListConversations)
	h.Get("session/:id/history", c.History)
	h.Put("session/:id/select", c.Select)
	h.Delete("sessions", c.ClearAll)
	h.Delete("session/:id", c.Delete)
	h.Post("", c.Send)
	h.Get("samples", c.SampleQuestions)
	h.Get("stats", c.Stats)
}

func sessionKey(ctx *fiber.Ctx) string {
	return ctx.Locals(serverutils.SessionLocalKey).(string)
}

func (c *chatController) CreateConversation(ctx *fiber.Ctx) error {
	res := c.chatService.CreateConversation(ctx.Context(), sessionKey(ctx))
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *chatController) ListConversations(ctx *fiber.Ctx) error {
	res := c.chatService.GetConversations(ctx.Context(), sessionKey(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetHistory(ctx.Context(), sessionKey(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show history", res))
}

func (c *chatController) Select(ctx *fiber.Ctx) error {
	if err := c.chatService.SelectConversation(ctx.Context(), sessionKey(ctx), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select conversation", nil))
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	if err := c.chatService.DeleteConversation(ctx.Context(), sessionKey(ctx), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete conversation", nil))
}

func (c *chatController) ClearAll(ctx *fiber.Ctx) error {
	c.chatService.ClearAll(ctx.Context(), sessionKey(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Success clear conversations", nil))
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), sessionKey(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) SampleQuestions(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list sample questions", c.chatService.SampleQuestions()))
}

func (c *chatController) Stats(ctx *fiber.Ctx) error {
	res := c.chatService.Stats(ctx.Context(), sessionKey(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Success show stats", res))
}
