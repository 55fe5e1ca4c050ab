package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yornfifty/intentkit-chat/core/chat"
	"github.com/yornfifty/intentkit-chat/pkg/client"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	newClient := func() *client.Client {
		return client.New(server.URL, "", time.Second*5)
	}

	Describe("CheckStatus", func() {
		It("treats any status below 450 as online", func() {
			for _, status := range []int{200, 204, 302, 404, 449} {
				code := status
				handler = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(code)
				}
				Expect(newClient().CheckStatus(context.Background())).To(Succeed())
			}
		})

		It("reports offline for server errors", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}
			Expect(newClient().CheckStatus(context.Background())).NotTo(Succeed())
		})

		It("reports offline when the service is unreachable", func() {
			c := client.New("http://127.0.0.1:1", "", time.Second)
			Expect(c.CheckStatus(context.Background())).NotTo(Succeed())
		})
	})

	Describe("ListAgents", func() {
		It("decodes the agent list", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/agents"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"id":"a1","name":"Helper","description":"does things"}]`))
			}

			agents, err := newClient().ListAgents(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(agents).To(HaveLen(1))
			Expect(agents[0].ID).To(Equal("a1"))
			Expect(agents[0].Name).To(Equal("Helper"))
		})
	})

	Describe("History", func() {
		It("passes the chat and user ids and decodes oldest-first messages", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/agents/a1/chat/history"))
				Expect(r.URL.Query().Get("chat_id")).To(Equal("chat_1"))
				Expect(r.URL.Query().Get("user_id")).To(Equal("u1"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[
					{"author_type":"web","message":"hi"},
					{"author_type":"agent","message":"hello"}
				]`))
			}

			messages, err := newClient().History(context.Background(), "a1", "chat_1", "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].Author).To(Equal(chat.AuthorWeb))
			Expect(messages[1].Author).To(Equal(chat.AuthorAgent))
		})

		It("returns an error on a failing response", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}

			_, err := newClient().History(context.Background(), "a1", "chat_1", "u1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Send", func() {
		It("posts the message payload", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/agents/a1/chat/v2"))

				var req chat.SendRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req.ChatID).To(Equal("chat_1"))
				Expect(req.UserID).To(Equal("u1"))
				Expect(req.Message).To(Equal("hi"))

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"author_type":"agent","message":"hello"}`))
			}

			replies, err := newClient().Send(context.Background(), "a1", chat.SendRequest{
				ChatID: "chat_1", UserID: "u1", Message: "hi",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(replies).To(HaveLen(1))
			Expect(replies[0].Text).To(Equal("hello"))
		})

		It("normalizes an array reply", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[
					{"author_type":"agent","message":"working on it"},
					{"author_type":"skill","message":"done","skill_calls":[{"id":"sc1","name":"x"}]}
				]`))
			}

			replies, err := newClient().Send(context.Background(), "a1", chat.SendRequest{
				ChatID: "chat_1", UserID: "u1", Message: "hi",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(replies).To(HaveLen(2))
			Expect(replies[1].Author).To(Equal(chat.AuthorSkill))
			Expect(replies[1].SkillCalls).To(HaveLen(1))
		})

		It("returns an error on a failing response", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}

			_, err := newClient().Send(context.Background(), "a1", chat.SendRequest{
				ChatID: "chat_1", UserID: "u1", Message: "hi",
			})
			Expect(err).To(HaveOccurred())
		})
	})
})
