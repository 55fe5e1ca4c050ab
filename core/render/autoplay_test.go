package render_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yornfifty/intentkit-chat/core/render"
)

var _ = Describe("AutoplayCoordinator", func() {
	var coordinator *render.AutoplayCoordinator

	BeforeEach(func() {
		coordinator = render.NewAutoplayCoordinator()
	})

	It("invokes the play function at most once per id", func() {
		calls := 0
		play := func() error { calls++; return nil }

		coordinator.Attempt("audio_1", play)
		coordinator.Attempt("audio_1", play)
		coordinator.Attempt("audio_1", play)

		Expect(calls).To(Equal(1))
	})

	It("records the attempt even when playback is rejected", func() {
		calls := 0
		blocked := func() error { calls++; return errors.New("autoplay blocked") }

		coordinator.Attempt("audio_1", blocked)
		coordinator.Attempt("audio_1", blocked)

		Expect(calls).To(Equal(1))
	})

	It("tracks distinct ids independently", func() {
		calls := 0
		play := func() error { calls++; return nil }

		coordinator.Attempt("audio_1", play)
		coordinator.Attempt("audio_2", play)

		Expect(calls).To(Equal(2))
	})

	It("ignores empty ids", func() {
		calls := 0
		coordinator.Attempt("", func() error { calls++; return nil })

		Expect(calls).To(BeZero())
	})
})
