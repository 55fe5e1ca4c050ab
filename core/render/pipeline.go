package render

import (
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mudler/xlog"

	"github.com/yornfifty/intentkit-chat/core/chat"
)

// Pipeline turns one message record into a safe, structured view. Message
// text is parsed as markdown and pushed through an allow-list sanitizer;
// attachments become previews; skill messages grow inspect buttons. Fresh
// agent messages hand their audio elements to the autoplay coordinator.
type Pipeline struct {
	Autoplay *AutoplayCoordinator

	// Play is invoked (through the coordinator) for each audio element of a
	// freshly received agent message. Nil means the attempt is recorded
	// without any playback side effect.
	Play func(audioID string) error

	policy *bluemonday.Policy
}

func NewPipeline(coordinator *AutoplayCoordinator) *Pipeline {
	return &Pipeline{
		Autoplay: coordinator,
		policy:   bluemonday.UGCPolicy(),
	}
}

// View is the rendered form of one message. Nil nodes are omitted; Nodes
// preserves the fixed assembly order content, meta, skill buttons,
// attachments.
type View struct {
	Content      elem.Node
	Meta         elem.Node
	SkillButtons elem.Node
	Attachments  elem.Node
	AudioIDs     []string
}

func (v View) Nodes() []elem.Node {
	nodes := []elem.Node{v.Content}
	if v.Meta != nil {
		nodes = append(nodes, v.Meta)
	}
	if v.SkillButtons != nil {
		nodes = append(nodes, v.SkillButtons)
	}
	if v.Attachments != nil {
		nodes = append(nodes, v.Attachments)
	}
	return nodes
}

// Wrap assembles the view nodes into a single message container element.
func (v View) Wrap(author chat.AuthorType) elem.Node {
	return elem.Div(attrs.Props{
		attrs.Class: fmt.Sprintf("message message-%s", author),
	}, v.Nodes()...)
}

// Render builds the view for a message. fresh is true only for messages just
// produced by a send operation; messages loaded as history are never
// autoplay-eligible, even if they contain audio.
func (p *Pipeline) Render(msg chat.Message, fresh bool) View {
	view := View{
		Content: elem.Div(attrs.Props{
			attrs.Class: "message-content",
		}, elem.Raw(p.renderText(msg.Text))),
	}

	if msg.Author != chat.AuthorSystem {
		view.Meta = metaNode(msg)
	}

	if msg.Author == chat.AuthorSkill && len(msg.SkillCalls) > 0 {
		view.SkillButtons = skillButtonsNode(msg.SkillCalls)
	}

	var previews []elem.Node
	for _, att := range msg.Attachments {
		preview := ResolvePreview(att)
		previews = append(previews, preview.Node)
		if preview.AudioID != "" {
			view.AudioIDs = append(view.AudioIDs, preview.AudioID)
		}
	}
	if len(previews) > 0 {
		view.Attachments = elem.Div(attrs.Props{
			attrs.Class: "message-attachments",
		}, previews...)
	}

	if fresh && msg.Author == chat.AuthorAgent {
		for _, id := range view.AudioIDs {
			audioID := id
			p.Autoplay.Attempt(audioID, func() error {
				if p.Play == nil {
					return nil
				}
				return p.Play(audioID)
			})
		}
	}

	return view
}

// renderText converts message text to sanitized HTML. Any failure falls back
// to the escaped literal text with newlines kept as line breaks; this path
// never reaches the caller as an error.
func (p *Pipeline) renderText(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			xlog.Warn("Markdown rendering failed, falling back to literal text", "error", r)
			out = literalFallback(text)
		}
	}()

	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	doc := mdParser.Parse([]byte(text))

	opts := html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML}
	renderer := html.NewRenderer(opts)

	rendered := markdown.Render(doc, renderer)
	return p.policy.Sanitize(string(rendered))
}

func literalFallback(text string) string {
	escaped := stdhtml.EscapeString(text)
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

func metaNode(msg chat.Message) elem.Node {
	label := authorLabel(msg.Author)
	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = msg.CreatedAt.Format("15:04")
	}

	children := []elem.Node{
		elem.Span(attrs.Props{attrs.Class: "message-author"}, elem.Text(label)),
	}
	if stamp != "" {
		children = append(children,
			elem.Span(attrs.Props{attrs.Class: "message-time"}, elem.Text(stamp)))
	}
	return elem.Div(attrs.Props{attrs.Class: "message-meta"}, children...)
}

func authorLabel(author chat.AuthorType) string {
	switch author {
	case chat.AuthorWeb:
		return "You"
	case chat.AuthorAgent:
		return "Agent"
	case chat.AuthorSkill:
		return "Skill"
	}
	return string(author)
}

func skillButtonsNode(calls []chat.SkillCall) elem.Node {
	var buttons []elem.Node
	for _, call := range calls {
		label := call.Name
		if label == "" {
			label = "skill call"
		}
		buttons = append(buttons, elem.Button(attrs.Props{
			attrs.Class:       "skill-call-button",
			"data-skill-id":   call.ID,
			"data-skill-name": call.Name,
		}, elem.Text(label)))
	}
	return elem.Div(attrs.Props{attrs.Class: "message-skill-calls"}, buttons...)
}
