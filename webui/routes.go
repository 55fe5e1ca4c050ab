package webui

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/yornfifty/intentkit-chat/core/chat"
	"github.com/yornfifty/intentkit-chat/core/inspector"
	"github.com/yornfifty/intentkit-chat/core/sessions"
	"github.com/yornfifty/intentkit-chat/core/sse"
)

func (a *App) registerRoutes() {
	webapp := a.App

	webapp.Get("/", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html")
		return c.SendString(a.pageHTML())
	})

	webapp.Get("/sse", func(c *fiber.Ctx) error {
		a.manager.Handle(c, sse.NewClient(uuid.New().String()))
		return nil
	})

	webapp.Get("/api/agents", func(c *fiber.Ctx) error {
		a.agentsMu.Lock()
		agents, err := a.agents, a.agentsErr
		a.agentsMu.Unlock()

		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "agent service offline",
			})
		}
		if agents == nil {
			agents = []chat.Agent{}
		}
		return c.JSON(agents)
	})

	webapp.Post("/api/agent/select", func(c *fiber.Ctx) error {
		payload := struct {
			ID string `json:"id"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}

		agent, ok := a.agentByID(payload.ID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown agent"})
		}

		a.controller.SelectAgent(c.Context(), agent)
		return c.JSON(fiber.Map{"status": "ok"})
	})

	webapp.Get("/api/chats", func(c *fiber.Ctx) error {
		type chatOption struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		}

		options := []chatOption{}
		for _, id := range a.controller.Chats() {
			label := id
			// The creation time is embedded in the id; show it when it
			// parses, fall back to the raw id when it does not.
			if created := sessions.ChatCreatedAt(id); !created.IsZero() {
				label = created.Format("Jan 2, 15:04")
			}
			options = append(options, chatOption{ID: id, Label: label})
		}
		return c.JSON(options)
	})

	webapp.Post("/api/chat/new", func(c *fiber.Ctx) error {
		a.controller.NewChat(c.Context())
		return c.JSON(fiber.Map{"status": "ok"})
	})

	webapp.Post("/api/chat/select", func(c *fiber.Ctx) error {
		payload := struct {
			ChatID string `json:"chat_id"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}

		a.controller.SelectChat(c.Context(), payload.ChatID)
		return c.JSON(fiber.Map{"status": "ok"})
	})

	webapp.Post("/api/chat/send", func(c *fiber.Ctx) error {
		payload := struct {
			Message     string            `json:"message"`
			Attachments []chat.Attachment `json:"attachments,omitempty"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}

		a.controller.Send(c.Context(), payload.Message, payload.Attachments)
		return c.JSON(fiber.Map{"status": "ok"})
	})

	webapp.Post("/api/skill/inspect", func(c *fiber.Ctx) error {
		payload := struct {
			ID string `json:"id"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}

		call, ok := a.controller.FindSkillCall(payload.ID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown skill call"})
		}

		c.Set("Content-Type", "text/html")
		return c.SendString(inspector.Inspect(call).Node().Render())
	})
}
