package gearbox

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Controller", func() {
	var g *Controller

	DescribeTable("starts in normal mode for any gains",
		func(kp, ki, kd float64) {
			g = New(kp, ki, kd)
			Expect(g.Status()).To(Equal(NormalLabel))
			Expect(g.Mode()).To(Equal(Normal))
			Expect(g.Integral()).To(BeZero())
			Expect(g.PrevError()).To(BeZero())
			Expect(g.Gains()).To(Equal(Gains{Kp: kp, Ki: ki, Kd: kd}))
		},
		Entry("positive", 1.0, 0.1, 0.01),
		Entry("zero", 0.0, 0.0, 0.0),
		Entry("negative", -2.0, -0.5, -3.0),
	)

	Context("proportional only", func() {
		BeforeEach(func() {
			g = New(1.0, 0.0, 0.0)
		})

		It("should output zero at the setpoint", func() {
			Expect(g.Tick(1.0, 15.0)).To(Equal(0.0))
		})

		It("should output the error below the setpoint", func() {
			Expect(g.Tick(1.0, 5.0)).To(Equal(10.0))
		})

		It("should output a negative correction above the setpoint", func() {
			Expect(g.Tick(1.0, 20.0)).To(Equal(-5.0))
		})
	})

	Context("integral only", func() {
		BeforeEach(func() {
			g = New(0.0, 1.0, 0.0)
		})

		It("should accumulate error times dt", func() {
			Expect(g.Tick(1.0, 5.0)).To(Equal(10.0))
			Expect(g.Integral()).To(Equal(10.0))

			Expect(g.Tick(1.0, 5.0)).To(Equal(20.0))
			Expect(g.Integral()).To(Equal(20.0))
		})

		It("should weight by elapsed time", func() {
			g.Tick(0.5, 5.0)
			Expect(g.Integral()).To(Equal(5.0))
		})
	})

	Context("derivative only", func() {
		BeforeEach(func() {
			g = New(0.0, 0.0, 1.0)
		})

		It("should differentiate against the previous error", func() {
			Expect(g.Tick(1.0, 5.0)).To(Equal(10.0))
			Expect(g.PrevError()).To(Equal(10.0))
			Expect(g.Tick(2.0, 11.0)).To(Equal(-3.0))
			Expect(g.PrevError()).To(Equal(4.0))
		})

		It("should produce a non-finite output on zero dt", func() {
			u := g.Tick(0.0, 5.0)
			Expect(math.IsInf(u, 1)).To(BeTrue())
		})

		It("should produce NaN on zero dt with no error change", func() {
			u := g.Tick(0.0, 15.0)
			Expect(math.IsNaN(u)).To(BeTrue())
		})

		It("should still update accumulators on zero dt", func() {
			g.Tick(0.0, 5.0)
			Expect(g.PrevError()).To(Equal(10.0))
			Expect(g.Integral()).To(BeZero())
		})
	})

	It("should keep a running sum of error times dt", func() {
		g = New(0.3, 0.2, 0.1)
		r := rand.New(rand.NewSource(7))

		sum := 0.0
		for i := 0; i < 500; i++ {
			dt := 0.001 + r.Float64()
			measured := r.Float64()*40 - 10
			sum += (Setpoint - measured) * dt
			g.Tick(dt, measured)
		}

		Expect(g.Integral()).To(BeNumerically("~", sum, 1e-9))
	})

	It("should combine all three terms", func() {
		g = New(2.0, 0.5, 0.25)
		g.Tick(1.0, 13.0)
		// error 4, integral 2+4*0.5, derivative (4-2)/0.5
		u := g.Tick(0.5, 11.0)
		Expect(u).To(BeNumerically("~", 2.0*4+0.5*(2+2)+0.25*4, 1e-12))
	})

	Describe("Reset", func() {
		It("should clear accumulators and mode but keep gains", func() {
			g = New(1.5, 2.5, 3.5)
			r := rand.New(rand.NewSource(11))
			for i := 0; i < 50; i++ {
				g.Tick(r.Float64(), r.Float64()*30)
			}
			g.EngageOverride(OverrideKey)

			g.Reset()

			Expect(g.Integral()).To(BeZero())
			Expect(g.PrevError()).To(BeZero())
			Expect(g.Status()).To(Equal(NormalLabel))
			Expect(g.Gains()).To(Equal(Gains{Kp: 1.5, Ki: 2.5, Kd: 3.5}))
		})

		It("should behave like a fresh controller afterwards", func() {
			g = New(1.0, 1.0, 1.0)
			g.Tick(0.1, 3.0)
			g.Tick(0.1, 9.0)
			g.Reset()

			fresh := New(1.0, 1.0, 1.0)
			Expect(g.Tick(0.2, 12.0)).To(Equal(fresh.Tick(0.2, 12.0)))
		})

		It("should clear a denied mode", func() {
			g = New(1, 0, 0)
			g.EngageOverride("nope")
			g.Reset()
			Expect(g.Mode()).To(Equal(Normal))
		})
	})

	Describe("EngageOverride", func() {
		BeforeEach(func() {
			g = New(1.0, 0.0, 0.0)
		})

		DescribeTable("accepts the key from any mode",
			func(setup func(*Controller)) {
				setup(g)
				g.EngageOverride(OverrideKey)
				Expect(g.Status()).To(Equal(SovereignLabel))
			},
			Entry("normal", func(*Controller) {}),
			Entry("denied", func(c *Controller) { c.EngageOverride("wrong") }),
			Entry("sovereign", func(c *Controller) { c.EngageOverride(OverrideKey) }),
		)

		DescribeTable("denies any other key",
			func(key string) {
				g.EngageOverride(OverrideKey)
				g.EngageOverride(key)
				Expect(g.Status()).To(Equal(AccessDeniedLabel))
			},
			Entry("empty", ""),
			Entry("lower case", "ophane-x7"),
			Entry("trailing space", OverrideKey+" "),
			Entry("prefix", "OPHANE"),
		)

		It("should not affect tick arithmetic", func() {
			ref := New(1.0, 0.5, 0.1)
			g = New(1.0, 0.5, 0.1)

			g.EngageOverride(OverrideKey)
			Expect(g.Tick(0.1, 10.0)).To(Equal(ref.Tick(0.1, 10.0)))

			g.EngageOverride("bad")
			Expect(g.Tick(0.1, 12.0)).To(Equal(ref.Tick(0.1, 12.0)))
			Expect(g.Integral()).To(Equal(ref.Integral()))
		})

		It("should leave accumulators alone", func() {
			g.Tick(1.0, 5.0)
			g.EngageOverride("bad")
			Expect(g.PrevError()).To(Equal(10.0))
		})
	})
})

var _ = Describe("Mode", func() {
	DescribeTable("round trips names and labels",
		func(m Mode, name, label string) {
			Expect(m.Name()).To(Equal(name))
			Expect(m.String()).To(Equal(label))

			parsed, err := ParseMode(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(m))

			parsed, err = ParseMode(label)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(m))
		},
		Entry("normal", Normal, "normal", NormalLabel),
		Entry("sovereign", Sovereign, "sovereign", SovereignLabel),
		Entry("denied", AccessDenied, "access_denied", AccessDeniedLabel),
	)

	It("should reject unknown names", func() {
		_, err := ParseMode("turbo")
		Expect(err).To(HaveOccurred())
	})
})
