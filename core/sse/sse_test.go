package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Message", func() {
	It("frames multi-line payloads as one data line each", func() {
		msg := NewMessage("line one\nline two").WithEvent("transcript")
		Expect(msg.String()).To(Equal("event: transcript\ndata: line one\ndata: line two\n\n"))
	})

	It("omits the event field when unset", func() {
		Expect(NewMessage("payload").String()).To(Equal("data: payload\n\n"))
	})
})

var _ = Describe("broadcastManager", func() {
	var manager *broadcastManager

	BeforeEach(func() {
		manager = NewManager().(*broadcastManager)
	})

	It("delivers broadcasts to registered clients", func() {
		cl := NewClient("c1")
		manager.register(cl)

		manager.Send(NewMessage("hello").WithEvent("transcript"))

		var got Envelope
		Eventually(cl.Chan()).Should(Receive(&got))
		Expect(got.String()).To(ContainSubstring("hello"))
	})

	It("keeps broadcasting after a client unregisters", func() {
		gone := NewClient("gone")
		stay := NewClient("stay")
		manager.register(gone)
		manager.register(stay)
		manager.unregister(gone.ID())

		manager.Send(NewMessage("still here").WithEvent("transcript"))

		Eventually(stay.Chan()).Should(Receive())
		Expect(manager.Clients()).To(Equal([]string{"stay"}))
	})

	It("drops messages for slow clients instead of blocking", func() {
		cl := NewClient("slow")
		manager.register(cl)

		for i := 0; i < 80; i++ {
			manager.Send(NewMessage("burst"))
		}

		Eventually(func() int { return len(cl.Chan()) }).Should(Equal(cap(cl.Chan())))
	})
})
