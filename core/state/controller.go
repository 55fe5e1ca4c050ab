package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chasefleming/elem-go"
	"github.com/mudler/xlog"

	"github.com/yornfifty/intentkit-chat/core/chat"
	"github.com/yornfifty/intentkit-chat/core/render"
	"github.com/yornfifty/intentkit-chat/core/sessions"
)

// Phase is the controller's position in the session state machine.
type Phase int

const (
	PhaseNoAgent Phase = iota
	PhaseAgentSelected
	PhaseChatLoading
	PhaseChatActive
)

func (p Phase) String() string {
	switch p {
	case PhaseNoAgent:
		return "no-agent"
	case PhaseAgentSelected:
		return "agent-selected"
	case PhaseChatLoading:
		return "chat-loading"
	case PhaseChatActive:
		return "chat-active"
	}
	return "unknown"
}

// SessionContext is the single owner of the active conversation state. It is
// only mutated by Controller methods; Snapshot hands out copies.
type SessionContext struct {
	Agent        *chat.Agent
	ChatID       string
	Transcript   []chat.Message
	InputEnabled bool
	Phase        Phase

	// freshFrom marks the transcript index from which messages were just
	// produced by a send, the only messages eligible for autoplay. The next
	// Render consumes the mark.
	freshFrom int
}

// Controller orchestrates agent selection, thread selection/creation, and
// drives the transport, session store and message pipeline to keep the
// visible conversation consistent. Methods are serialized by a mutex; the
// transport calls themselves happen outside the lock.
//
// Failures follow a fixed taxonomy: transport errors surface as one
// system-authored transcript message, storage and parse errors degrade
// internally, and operations missing their preconditions are silent no-ops.
type Controller struct {
	mu        sync.Mutex
	transport chat.Transport
	store     *sessions.Store
	pipeline  *render.Pipeline
	userID    string
	session   SessionContext

	onUpdate func()
}

func NewController(transport chat.Transport, store *sessions.Store, pipeline *render.Pipeline, userID string) *Controller {
	return &Controller{
		transport: transport,
		store:     store,
		pipeline:  pipeline,
		userID:    userID,
		session: SessionContext{
			Phase: PhaseNoAgent,
		},
	}
}

// SetOnUpdate registers a hook invoked after every visible state change,
// used by the web ui to push transcript updates.
func (c *Controller) SetOnUpdate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Snapshot returns a copy of the current session context.
func (c *Controller) Snapshot() SessionContext {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.session
	snapshot.Transcript = make([]chat.Message, len(c.session.Transcript))
	copy(snapshot.Transcript, c.session.Transcript)
	return snapshot
}

// LoadAgents gates agent loading on a single status probe and returns the
// agent list.
func (c *Controller) LoadAgents(ctx context.Context) ([]chat.Agent, error) {
	if err := c.transport.CheckStatus(ctx); err != nil {
		return nil, err
	}
	return c.transport.ListAgents(ctx)
}

// SelectAgent makes the agent active and clears the active chat. If the
// agent has saved sessions the most recent one is selected; otherwise a new
// chat is created immediately, so an agent is never left without a thread.
func (c *Controller) SelectAgent(ctx context.Context, agent chat.Agent) {
	c.mu.Lock()
	selected := agent
	c.session.Agent = &selected
	c.session.ChatID = ""
	c.session.Transcript = nil
	c.session.InputEnabled = false
	c.session.freshFrom = 0
	c.session.Phase = PhaseAgentSelected
	c.mu.Unlock()
	c.notify()

	xlog.Debug("Agent selected", "agent", agent.ID)

	ids := c.store.Load(agent.ID)
	if len(ids) > 0 {
		c.SelectChat(ctx, ids[len(ids)-1])
		return
	}
	c.NewChat(ctx)
}

// NewChat creates a fresh chat thread for the active agent: mints a
// timestamp id, persists it, resets the transcript and enables input. A
// no-op without an active agent.
func (c *Controller) NewChat(ctx context.Context) {
	c.mu.Lock()
	if c.session.Agent == nil {
		c.mu.Unlock()
		xlog.Debug("New chat requested with no active agent")
		return
	}

	agentID := c.session.Agent.ID
	chatID := sessions.NewChatID()
	c.session.ChatID = chatID
	c.session.Transcript = nil
	c.session.freshFrom = 0
	c.session.InputEnabled = true
	c.session.Phase = PhaseChatActive
	c.mu.Unlock()

	c.store.Save(agentID, chatID)
	xlog.Debug("New chat created", "agent", agentID, "chat", chatID)
	c.notify()
}

// SelectChat makes the chat active and loads its history. The fetched
// history fully replaces the transcript before input re-enables. A no-op
// without an active agent or with an empty id.
//
// An in-flight load is not cancelled when another chat is selected before it
// resolves; a stale response landing afterwards is a known race of the
// original behavior, kept as-is.
func (c *Controller) SelectChat(ctx context.Context, chatID string) {
	c.mu.Lock()
	if c.session.Agent == nil || chatID == "" {
		c.mu.Unlock()
		return
	}

	agentID := c.session.Agent.ID
	c.session.ChatID = chatID
	c.session.InputEnabled = false
	c.session.Phase = PhaseChatLoading
	c.mu.Unlock()
	c.notify()

	history, err := c.transport.History(ctx, agentID, chatID, c.userID)

	c.mu.Lock()
	if err != nil {
		xlog.Error("History load failed", "agent", agentID, "chat", chatID, "error", err)
		c.session.Transcript = []chat.Message{
			chat.SystemNotice("Could not load this conversation. You can still send a new message."),
		}
	} else {
		c.session.Transcript = history
	}
	c.session.freshFrom = len(c.session.Transcript)
	c.session.InputEnabled = true
	c.session.Phase = PhaseChatActive
	c.mu.Unlock()
	c.notify()
}

// Send posts the user's message. The outgoing message is echoed into the
// transcript immediately; input stays disabled for the duration and is
// re-enabled in a deferred cleanup regardless of outcome. A transport
// failure appends exactly one system-authored notice.
func (c *Controller) Send(ctx context.Context, text string, attachments []chat.Attachment) {
	c.mu.Lock()
	if c.session.Agent == nil || c.session.ChatID == "" || strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return
	}
	if !c.session.InputEnabled {
		c.mu.Unlock()
		return
	}

	agentID := c.session.Agent.ID
	chatID := c.session.ChatID
	c.session.Transcript = append(c.session.Transcript, chat.Message{
		Author:      chat.AuthorWeb,
		Text:        text,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	})
	c.session.freshFrom = len(c.session.Transcript)
	c.session.InputEnabled = false
	c.mu.Unlock()
	c.notify()

	defer func() {
		c.mu.Lock()
		c.session.InputEnabled = true
		c.mu.Unlock()
		c.notify()
	}()

	replies, err := c.transport.Send(ctx, agentID, chat.SendRequest{
		ChatID:      chatID,
		UserID:      c.userID,
		Message:     text,
		Attachments: attachments,
	})

	c.mu.Lock()
	if err != nil {
		xlog.Error("Send failed", "agent", agentID, "chat", chatID, "error", err)
		c.session.Transcript = append(c.session.Transcript,
			chat.SystemNotice("Failed to reach the agent. Please try again."))
	} else {
		c.session.Transcript = append(c.session.Transcript, replies...)
	}
	c.mu.Unlock()
}

// Render projects the session context to view nodes. Messages appended by
// the latest send are rendered as fresh exactly once; everything older is
// history and never autoplay-eligible.
func (c *Controller) Render() []elem.Node {
	c.mu.Lock()
	transcript := make([]chat.Message, len(c.session.Transcript))
	copy(transcript, c.session.Transcript)
	freshFrom := c.session.freshFrom
	c.session.freshFrom = len(c.session.Transcript)
	c.mu.Unlock()

	nodes := make([]elem.Node, 0, len(transcript))
	for i, msg := range transcript {
		view := c.pipeline.Render(msg, i >= freshFrom)
		nodes = append(nodes, view.Wrap(msg.Author))
	}
	return nodes
}

// Chats lists the saved chat ids of the active agent, most recent last.
func (c *Controller) Chats() []string {
	c.mu.Lock()
	agent := c.session.Agent
	c.mu.Unlock()

	if agent == nil {
		return nil
	}
	return c.store.Load(agent.ID)
}

// FindSkillCall looks a skill call up in the current transcript by id, for
// on-demand inspection.
func (c *Controller) FindSkillCall(id string) (chat.SkillCall, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range c.session.Transcript {
		for _, call := range msg.SkillCalls {
			if call.ID == id {
				return call, true
			}
		}
	}
	return chat.SkillCall{}, false
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
