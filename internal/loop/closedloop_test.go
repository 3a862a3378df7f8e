package loop_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/signal"
)

var _ = Describe("closed loop simulation", func() {
	var (
		plant *lti.TransferFunction
		g     signal.TimeGrid
		cfg   loop.Config
	)

	BeforeEach(func() {
		plant = lti.MustTransferFunction([]float64{0.73}, []float64{1, 1})
		var err error
		g, err = signal.Linspace(0, 20, 2001)
		Expect(err).NotTo(HaveOccurred())
		cfg = loop.DefaultConfig()
	})

	run := func(ref, dist, ff signal.Signal) *loop.Result {
		sim, err := loop.New(plant)
		Expect(err).NotTo(HaveOccurred())
		res, err := sim.Run(context.Background(), loop.Input{Grid: g, Reference: ref, Disturbance: dist, FeedForward: ff}, cfg)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	Context("with zero gain and no feed-forward", func() {
		It("reproduces the plant's free response to the disturbance", func() {
			dist := signal.Sine(g, 3, 0.2, 0, 1)
			cfg.DisturbanceGain = -2.1
			res := run(signal.Constant(g, 50), dist, nil)

			want, err := lti.ForcedResponse(plant, g, dist.Scale(-2.1), lti.FOH)
			Expect(err).NotTo(HaveOccurred())
			for i := range g {
				Expect(res.Response[i]).To(BeNumerically("~", want[i], 1e-9))
			}
			Expect(res.Control).To(HaveEach(0.0))
		})
	})

	Context("with saturation", func() {
		DescribeTable("keeps every control sample within bounds",
			func(m, gain float64) {
				cfg.Gain = gain
				cfg.Saturation = loop.Symmetric(m)
				res := run(signal.Sine(g, 80, 0.3, 0, 0), signal.Step(g, 5, 0, 20), nil)
				for _, u := range res.Control {
					Expect(math.Abs(u)).To(BeNumerically("<=", m))
				}
				Expect(math.Abs(res.Raw[1])).To(BeNumerically(">=", math.Abs(res.Control[1])))
			},
			Entry("default bound", 100.0, 10.0),
			Entry("tight bound", 5.0, 10.0),
			Entry("high gain", 100.0, 1000.0),
		)
	})

	Context("with proportional feedback on a constant reference", func() {
		It("approaches the reference with the proportional steady-state error", func() {
			cfg.Gain = 100
			res := run(signal.Constant(g, 50), signal.Zero(g), nil)
			want := 0.73 * 100 * 50 / (1 + 0.73*100)
			Expect(res.Response.Last()).To(BeNumerically("~", want, 1e-6))
			Expect(math.Abs(res.Response.Last() - 50)).To(BeNumerically("<", 1))
		})

		It("tracks more closely as the gain grows", func() {
			errAt := func(k float64) float64 {
				cfg.Gain = k
				return math.Abs(run(signal.Constant(g, 50), signal.Zero(g), nil).Response.Last() - 50)
			}
			Expect(errAt(100)).To(BeNumerically("<", errAt(10)))
			Expect(errAt(10)).To(BeNumerically("<", errAt(1)))
		})
	})

	Context("with pure feed-forward", func() {
		It("tracks a step through the inverse static gain", func() {
			ref := signal.Constant(g, 50)
			res := run(ref, signal.Zero(g), ref.Scale(1/0.73))
			Expect(res.Response.Last()).To(BeNumerically("~", 50, 1e-3))
		})

		It("follows a ramp with the plant's time-constant lag", func() {
			ref := signal.Ramp(g, 1, 0)
			res := run(ref, signal.Zero(g), ref.Scale(1/0.73))
			for _, at := range []float64{2, 5, 15} {
				i := g.Index(at)
				Expect(res.Response[i]).To(BeNumerically("~", g[i]-1+math.Exp(-g[i]), 1e-6))
			}
		})
	})

	Context("with two degrees of freedom", func() {
		It("removes the proportional offset", func() {
			cfg.Gain = 10
			ref := signal.Constant(g, 50)
			res := run(ref, signal.Zero(g), ref.Scale(1/0.73))
			Expect(res.Response.Last()).To(BeNumerically("~", 50, 1e-3))
		})
	})

	It("is idempotent", func() {
		cfg.Gain = 10
		ref, dist := signal.Constant(g, 50), signal.Step(g, 10, 0, 10)
		a := run(ref, dist, nil)
		b := run(ref, dist, nil)
		Expect(a.Response).To(Equal(b.Response))
		Expect(a.Control).To(Equal(b.Control))
	})

	It("handles a single-sample grid without iterating", func() {
		g = signal.TimeGrid{0}
		cfg.Gain = 2
		cfg.InitialCondition = 1
		res := run(signal.Constant(g, 4), signal.Zero(g), signal.Constant(g, 0.5))
		Expect(res.Response).To(Equal(signal.Signal{1}))
		Expect(res.Control).To(Equal(signal.Signal{2*(4-1) + 0.5}))
		Expect(res.Steps).To(BeZero())
	})

	Describe("the vehicle cruise scenario", func() {
		var res *loop.Result

		BeforeEach(func() {
			cfg.Gain = 10
			cfg.DisturbanceGain = -2.1
			res = run(signal.Constant(g, 50), signal.Step(g, 10, 0, 10), nil)
		})

		It("starts saturated and backfills the first control sample", func() {
			Expect(res.Control[1]).To(Equal(100.0))
			Expect(res.Control[0]).To(Equal(res.Control[1]))
			Expect(res.Response[0]).To(BeZero())
		})

		It("settles toward the reference before the disturbance", func() {
			before := res.Response[g.Index(10)-1]
			Expect(before).To(BeNumerically("~", 7.3*50/8.3, 1e-3))
		})

		It("undershoots after the uphill step and holds the new equilibrium", func() {
			before := res.Response[g.Index(10)-1]
			after := res.Response[g.Index(10):]
			lowest := after[0]
			for _, y := range after {
				lowest = math.Min(lowest, y)
			}
			Expect(lowest).To(BeNumerically("<", before-1.5))

			settled := 0.73 * (10*50 - 21) / (1 + 7.3)
			Expect(res.Response.Last()).To(BeNumerically("~", settled, 1e-3))
			Expect(res.Response.Last()).To(BeNumerically(">", 40))
			Expect(res.Control.Last()).To(BeNumerically(">", res.Control[g.Index(10)-1]))
		})
	})
})
