package monitoring

import (
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reflowlab/reflow/flow"
	"github.com/reflowlab/reflow/reconcile"
)

type fpsState struct {
	FPS int
}

type setFPSAction struct {
	FPS int
}

var _ = Describe("Monitor", func() {
	var (
		m        *Monitor
		pipeline *flow.Context
		scope    *reconcile.Scope
	)

	BeforeEach(func() {
		pipeline = flow.NewContext()
		flow.RegisterState[fpsState](pipeline, flow.PriorityNormal)
		flow.RegisterReducer(pipeline,
			func(tx *flow.Tx, a setFPSAction) error {
				return flow.Put(tx, fpsState{FPS: a.FPS})
			})

		scope = reconcile.NewScope("ui.root")

		m = NewMonitor()
		m.RegisterPipeline(pipeline)
		m.RegisterScope(scope)
		m.RegisterComponent("ui.root", scope)
	})

	It("should report the tick count", func() {
		Expect(pipeline.Step()).To(Succeed())

		w := httptest.NewRecorder()
		m.tick(w, nil)

		Expect(w.Body.String()).To(Equal("{\"tick\":1}"))
	})

	It("should step the pipeline", func() {
		w := httptest.NewRecorder()
		m.step(w, nil)

		Expect(pipeline.TickCount()).To(Equal(uint64(1)))
		Expect(w.Body.String()).To(Equal("{\"tick\":1}"))
	})

	It("should pause and continue the pipeline", func() {
		w := httptest.NewRecorder()
		m.pausePipeline(w, nil)
		Expect(w.Code).To(Equal(200))

		w = httptest.NewRecorder()
		m.continuePipeline(w, nil)
		Expect(w.Code).To(Equal(200))

		Expect(pipeline.Step()).To(Succeed())
	})

	It("should report queue depths", func() {
		w := httptest.NewRecorder()
		m.queueDepths(w, nil)

		Expect(w.Body.String()).To(ContainSubstring("\"critical\":0"))
		Expect(w.Body.String()).To(ContainSubstring("\"pending_actions\":0"))
	})

	It("should list registered state records", func() {
		pipeline.Dispatch(setFPSAction{FPS: 60})
		Expect(pipeline.Step()).To(Succeed())

		w := httptest.NewRecorder()
		m.listRecords(w, nil)

		Expect(w.Body.String()).To(ContainSubstring("fpsState"))
		Expect(w.Body.String()).To(ContainSubstring("60"))
	})

	It("should list registered scopes", func() {
		w := httptest.NewRecorder()
		m.listScopes(w, nil)

		Expect(w.Body.String()).To(Equal("[\"ui.root\"]"))
	})
})
