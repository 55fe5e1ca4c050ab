package chat

import "context"

// SendRequest is the payload for posting a message to an agent.
type SendRequest struct {
	ChatID      string       `json:"chat_id"`
	UserID      string       `json:"user_id"`
	Message     string       `json:"message"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Transport is the consumed contract over the remote agent service. All
// operations may fail; callers surface failures as transcript notices or
// fallback views, never as panics in the render path.
type Transport interface {
	// CheckStatus probes the service once at startup. A nil error means the
	// service is reachable and agents can be loaded.
	CheckStatus(ctx context.Context) error
	// ListAgents returns the agents exposed by the service.
	ListAgents(ctx context.Context) ([]Agent, error)
	// History returns a chat's messages ordered oldest-first.
	History(ctx context.Context, agentID, chatID, userID string) ([]Message, error)
	// Send posts a message and returns the reply payload. The service may
	// answer with a single message or several (an agent reply plus skill
	// result messages); implementations normalize to a slice.
	Send(ctx context.Context, agentID string, req SendRequest) ([]Message, error)
}
