package flow

import (
	"log"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type hpState struct {
	Value int
}

type setHPAction struct {
	Value int
}

var _ = ginkgo.Describe("Change detection", func() {
	var (
		c        *Context
		received []ChangeNotification
	)

	ginkgo.BeforeEach(func() {
		c = NewContext().WithLogger(log.New(ginkgo.GinkgoWriter, "", 0))
		received = nil

		RegisterState[hpState](c, PriorityHigh)
		RegisterReducer(c, func(tx *Tx, a setHPAction) error {
			return Put(tx, hpState{Value: a.Value})
		})

		SubscribeFunc[hpState](c, func(n ChangeNotification) {
			received = append(received, n)
		})
	})

	ginkgo.It("should emit a notification without an old value on first change",
		func() {
			c.Dispatch(setHPAction{Value: 10})

			Expect(c.Step()).To(Succeed())

			Expect(received).To(HaveLen(1))
			Expect(received[0].HasOld).To(BeFalse())
			Expect(received[0].New).To(Equal(hpState{Value: 10}))
			Expect(received[0].Priority).To(Equal(PriorityHigh))
		})

	ginkgo.It("should stay silent when the value does not change", func() {
		c.Dispatch(setHPAction{Value: 10})
		Expect(c.Step()).To(Succeed())

		c.Dispatch(setHPAction{Value: 10})
		Expect(c.Step()).To(Succeed())

		Expect(received).To(HaveLen(1))
	})

	ginkgo.It("should carry the baseline as the old value on later changes",
		func() {
			c.Dispatch(setHPAction{Value: 10})
			Expect(c.Step()).To(Succeed())

			c.Dispatch(setHPAction{Value: 25})
			Expect(c.Step()).To(Succeed())

			Expect(received).To(HaveLen(2))
			Expect(received[1].HasOld).To(BeTrue())
			Expect(received[1].Old).To(Equal(hpState{Value: 10}))
			Expect(received[1].New).To(Equal(hpState{Value: 25}))
		})

	ginkgo.It("should emit one notification for many writes within one tick",
		func() {
			c.Dispatch(setHPAction{Value: 1})
			c.Dispatch(setHPAction{Value: 2})
			c.Dispatch(setHPAction{Value: 3})

			Expect(c.Step()).To(Succeed())

			Expect(received).To(HaveLen(1))
			Expect(received[0].New).To(Equal(hpState{Value: 3}))
		})
})
