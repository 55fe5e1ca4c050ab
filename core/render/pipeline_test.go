package render_test

import (
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yornfifty/intentkit-chat/core/chat"
	"github.com/yornfifty/intentkit-chat/core/render"
)

var _ = Describe("Pipeline", func() {
	var pipeline *render.Pipeline

	BeforeEach(func() {
		pipeline = render.NewPipeline(render.NewAutoplayCoordinator())
	})

	Describe("text rendering", func() {
		It("renders emphasis and line breaks", func() {
			view := pipeline.Render(chat.Message{
				Author: chat.AuthorAgent,
				Text:   "Hello **world**\nsecond line with *emphasis*",
			}, false)

			html := view.Content.Render()
			Expect(html).To(ContainSubstring("<strong>world</strong>"))
			Expect(html).To(ContainSubstring("<em>emphasis</em>"))
			Expect(html).To(ContainSubstring("<br"))
		})

		It("never lets a script tag through", func() {
			view := pipeline.Render(chat.Message{
				Author: chat.AuthorAgent,
				Text:   "hi <script>alert(1)</script> there",
			}, false)

			Expect(view.Content.Render()).NotTo(ContainSubstring("<script"))
		})

		It("strips inline event handlers", func() {
			view := pipeline.Render(chat.Message{
				Author: chat.AuthorAgent,
				Text:   `look <img src="x" onerror="alert(1)"> at this`,
			}, false)

			Expect(view.Content.Render()).NotTo(ContainSubstring("onerror"))
		})

		It("strips unsafe link protocols", func() {
			view := pipeline.Render(chat.Message{
				Author: chat.AuthorAgent,
				Text:   "[click](javascript:alert(1))",
			}, false)

			Expect(view.Content.Render()).NotTo(ContainSubstring("javascript:"))
		})
	})

	Describe("node assembly", func() {
		It("orders content, meta, skill buttons, attachments", func() {
			view := pipeline.Render(chat.Message{
				Author:    chat.AuthorSkill,
				Text:      "ran a skill",
				CreatedAt: time.Now(),
				SkillCalls: []chat.SkillCall{
					{ID: "sc1", Name: "token_price"},
				},
				Attachments: []chat.Attachment{
					{URL: "https://x/chart.png"},
				},
			}, false)

			html := view.Wrap(chat.AuthorSkill).Render()
			content := strings.Index(html, "message-content")
			meta := strings.Index(html, "message-meta")
			skills := strings.Index(html, "message-skill-calls")
			attachments := strings.Index(html, "message-attachments")

			Expect(content).To(BeNumerically(">=", 0))
			Expect(meta).To(BeNumerically(">", content))
			Expect(skills).To(BeNumerically(">", meta))
			Expect(attachments).To(BeNumerically(">", skills))
		})

		It("omits meta for system messages", func() {
			view := pipeline.Render(chat.SystemNotice("something went wrong"), false)

			Expect(view.Meta).To(BeNil())
			Expect(view.Content).NotTo(BeNil())
		})

		It("only builds skill buttons for skill-authored messages", func() {
			call := chat.SkillCall{ID: "sc1", Name: "x", Parameters: json.RawMessage(`{}`)}

			agentView := pipeline.Render(chat.Message{
				Author:     chat.AuthorAgent,
				Text:       "reply",
				SkillCalls: []chat.SkillCall{call},
			}, false)
			skillView := pipeline.Render(chat.Message{
				Author:     chat.AuthorSkill,
				Text:       "record",
				SkillCalls: []chat.SkillCall{call},
			}, false)

			Expect(agentView.SkillButtons).To(BeNil())
			Expect(skillView.SkillButtons).NotTo(BeNil())
			Expect(skillView.SkillButtons.Render()).To(ContainSubstring(`data-skill-id="sc1"`))
		})

		It("omits the attachments node when there are none", func() {
			view := pipeline.Render(chat.Message{Author: chat.AuthorAgent, Text: "plain"}, false)

			Expect(view.Attachments).To(BeNil())
		})
	})

	Describe("autoplay", func() {
		audioMessage := func(author chat.AuthorType) chat.Message {
			return chat.Message{
				Author:      author,
				Text:        "here is a song",
				Attachments: []chat.Attachment{{URL: "https://x/song.mp3"}},
			}
		}

		It("attempts playback for fresh agent messages", func() {
			played := []string{}
			pipeline.Play = func(id string) error {
				played = append(played, id)
				return nil
			}

			view := pipeline.Render(audioMessage(chat.AuthorAgent), true)

			Expect(view.AudioIDs).To(HaveLen(1))
			Expect(played).To(Equal(view.AudioIDs))
		})

		It("never attempts playback for history messages", func() {
			played := 0
			pipeline.Play = func(string) error { played++; return nil }

			pipeline.Render(audioMessage(chat.AuthorAgent), false)

			Expect(played).To(BeZero())
		})

		It("never attempts playback for non-agent authors", func() {
			played := 0
			pipeline.Play = func(string) error { played++; return nil }

			pipeline.Render(audioMessage(chat.AuthorWeb), true)
			pipeline.Render(audioMessage(chat.AuthorSkill), true)

			Expect(played).To(BeZero())
		})
	})
})
