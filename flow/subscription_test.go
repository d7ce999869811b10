package flow

import (
	"log"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

type scoreState struct{ Score int }

type setScoreAction struct{ Score int }

var _ = ginkgo.Describe("Subscriptions", func() {
	var (
		mockCtrl *gomock.Controller
		c        *Context
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		c = NewContext().WithLogger(log.New(ginkgo.GinkgoWriter, "", 0))

		RegisterState[scoreState](c, PriorityNormal)
		RegisterReducer(c, func(tx *Tx, a setScoreAction) error {
			return Put(tx, scoreState{Score: a.Score})
		})
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should replay the current value synchronously on subscribe", func() {
		c.Dispatch(setScoreAction{Score: 42})
		Expect(c.Step()).To(Succeed())

		delivered := false
		sub := NewMockSubscriber(mockCtrl)
		sub.EXPECT().
			Notify(gomock.Any()).
			Do(func(n ChangeNotification) {
				delivered = true
				Expect(n.New).To(Equal(scoreState{Score: 42}))
				Expect(n.HasOld).To(BeFalse())
			})

		c.Subscribe(typeOf[scoreState](), sub)

		Expect(delivered).To(BeTrue())
	})

	ginkgo.It("should not replay when no value exists yet", func() {
		sub := NewMockSubscriber(mockCtrl)

		c.Subscribe(typeOf[scoreState](), sub)
	})

	ginkgo.It("should deliver once per registration for duplicate subscribers",
		func() {
			sub := NewMockSubscriber(mockCtrl)
			c.Subscribe(typeOf[scoreState](), sub)
			c.Subscribe(typeOf[scoreState](), sub)

			sub.EXPECT().Notify(gomock.Any()).Times(2)

			c.Dispatch(setScoreAction{Score: 1})
			Expect(c.Step()).To(Succeed())
		})

	ginkgo.It("should remove one registration per unsubscribe", func() {
		sub := NewMockSubscriber(mockCtrl)
		c.Subscribe(typeOf[scoreState](), sub)
		c.Subscribe(typeOf[scoreState](), sub)
		c.Unsubscribe(typeOf[scoreState](), sub)

		sub.EXPECT().Notify(gomock.Any()).Times(1)

		c.Dispatch(setScoreAction{Score: 1})
		Expect(c.Step()).To(Succeed())
	})

	ginkgo.It("should tolerate unsubscribing a subscriber that is not registered",
		func() {
			sub := NewMockSubscriber(mockCtrl)

			c.Unsubscribe(typeOf[scoreState](), sub)
		})

	ginkgo.It("should isolate a panicking subscriber", func() {
		SubscribeFunc[scoreState](c, func(n ChangeNotification) {
			panic("listener exploded")
		})

		sub := NewMockSubscriber(mockCtrl)
		c.Subscribe(typeOf[scoreState](), sub)
		sub.EXPECT().Notify(gomock.Any())

		c.Dispatch(setScoreAction{Score: 1})

		Expect(c.Step()).To(Succeed())
	})
})
