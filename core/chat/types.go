package chat

import (
	"encoding/json"
	"time"
)

// AuthorType identifies who produced a message.
type AuthorType string

const (
	// AuthorWeb is the human user typing in the browser.
	AuthorWeb AuthorType = "web"
	// AuthorAgent is a model-generated reply.
	AuthorAgent AuthorType = "agent"
	// AuthorSkill is a tool/skill execution record.
	AuthorSkill AuthorType = "skill"
	// AuthorSystem is a client-generated notice, e.g. an error.
	AuthorSystem AuthorType = "system"
)

// Agent is an immutable snapshot of a conversational entity exposed by the
// remote service. Identity is the ID.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Attachment describes a file referenced by a message. Type is advisory:
// absent or the generic "file" means the category has to be re-derived from
// the URL.
type Attachment struct {
	Type     string `json:"type,omitempty"`
	URL      string `json:"url"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// SkillCall records a tool invocation made during an agent turn. Parameters
// and Response are each either a structured value or a JSON string that may
// itself encode JSON, so they are kept raw until inspected.
type SkillCall struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}

// Message is one turn in a conversation. Produced either by the remote
// service (history, replies) or synthesized locally (the optimistic echo of
// an outgoing message, and error notices).
type Message struct {
	Author      AuthorType   `json:"author_type"`
	Text        string       `json:"message"`
	Attachments []Attachment `json:"attachments,omitempty"`
	SkillCalls  []SkillCall  `json:"skill_calls,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

// SystemNotice builds a locally-authored notice message, used to surface
// transport failures inline in the transcript.
func SystemNotice(text string) Message {
	return Message{
		Author:    AuthorSystem,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
