package webui

import (
	"context"
	"encoding/json"
	"sync"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/mudler/xlog"

	"github.com/yornfifty/intentkit-chat/core/chat"
	"github.com/yornfifty/intentkit-chat/core/sse"
	"github.com/yornfifty/intentkit-chat/core/state"
)

type (
	// App is the thin presentation shell over the chat engine: a fiber app
	// serving the page, the API routes and the SSE stream.
	App struct {
		*fiber.App

		config     *Config
		controller *state.Controller
		manager    sse.Manager

		agentsMu  sync.Mutex
		agents    []chat.Agent
		agentsErr error

		audioMu      sync.Mutex
		pendingAudio []string
	}
)

func NewApp(controller *state.Controller, opts ...Option) *App {
	config := NewConfig(opts...)

	a := &App{
		App:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		config:     config,
		controller: controller,
		manager:    sse.NewManager(),
	}

	controller.SetOnUpdate(a.pushState)
	a.registerRoutes()

	return a
}

// PlayAudio is the pipeline's autoplay hook. The id is only buffered here:
// play attempts fire while the transcript carrying the audio element is
// still being rendered, and the browser cannot play an element it has not
// received yet. pushState flushes the buffer once the transcript is out.
func (a *App) PlayAudio(audioID string) error {
	a.audioMu.Lock()
	a.pendingAudio = append(a.pendingAudio, audioID)
	a.audioMu.Unlock()
	return nil
}

// Run probes the remote service once and loads the agent list, then serves.
// An offline service still serves the page; it just has no agents to offer.
func (a *App) Run(ctx context.Context) error {
	agents, err := a.controller.LoadAgents(ctx)

	a.agentsMu.Lock()
	a.agents, a.agentsErr = agents, err
	a.agentsMu.Unlock()

	if err != nil {
		xlog.Warn("Agent service unreachable at startup", "error", err)
	} else {
		xlog.Info("Agents loaded", "count", len(agents))
	}

	xlog.Info("Serving chat ui", "addr", a.config.ListenAddr)
	return a.Listen(a.config.ListenAddr)
}

func (a *App) agentByID(id string) (chat.Agent, bool) {
	a.agentsMu.Lock()
	defer a.agentsMu.Unlock()

	for _, agent := range a.agents {
		if agent.ID == id {
			return agent, true
		}
	}
	return chat.Agent{}, false
}

// pushState broadcasts the rendered transcript and the controller state to
// every connected browser.
func (a *App) pushState() {
	transcript := a.transcriptHTML()
	a.manager.Send(sse.NewMessage(transcript).WithEvent("transcript"))

	// Play instructions must trail the transcript that carries the elements.
	a.audioMu.Lock()
	pending := a.pendingAudio
	a.pendingAudio = nil
	a.audioMu.Unlock()
	for _, audioID := range pending {
		a.manager.Send(sse.NewMessage(audioID).WithEvent("autoplay"))
	}

	snapshot := a.controller.Snapshot()
	status, err := json.Marshal(map[string]interface{}{
		"phase":         snapshot.Phase.String(),
		"chat_id":       snapshot.ChatID,
		"input_enabled": snapshot.InputEnabled,
	})
	if err != nil {
		return
	}
	a.manager.Send(sse.NewMessage(string(status)).WithEvent("state"))
}
