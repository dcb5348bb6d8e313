package sim_test

import (
	"context"
	"errors"
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/integrators"
	"github.com/san-kum/debrisim/internal/physics"
	"github.com/san-kum/debrisim/internal/sim"
)

type row struct {
	t        float64
	pos, vel dynamo.Vec
}

type memRecorder struct {
	headers []string
	rows    map[string][]row
	failAt  int
	writes  int
}

func newMemRecorder() *memRecorder {
	return &memRecorder{rows: make(map[string][]row), failAt: -1}
}

func (m *memRecorder) Init(b *dynamo.Body) error {
	m.headers = append(m.headers, b.Name())
	return nil
}

func (m *memRecorder) Record(t float64, b *dynamo.Body) error {
	if m.writes == m.failAt {
		return errors.New("disk full")
	}
	m.writes++
	m.rows[b.Name()] = append(m.rows[b.Name()], row{t: t, pos: b.Pos, vel: b.Vel})
	return nil
}

type deorbitLog struct {
	events []string
}

func (d *deorbitLog) OnStep(float64, *dynamo.Body) {}
func (d *deorbitLog) OnDeorbit(t float64, b *dynamo.Body) {
	d.events = append(d.events, fmt.Sprintf("%s@%g", b.Name(), t))
}

func body(name string, pos, vel dynamo.Vec, mass float64) *dynamo.Body {
	b, err := dynamo.NewBody(name, pos, vel, mass)
	Expect(err).NotTo(HaveOccurred())
	return b
}

func earth() *dynamo.Body {
	return body("Earth", dynamo.Vec{}, dynamo.Vec{}, 5.972e24)
}

var _ = Describe("Simulator", func() {
	var (
		model *physics.Model
		ctx   context.Context
	)

	BeforeEach(func() {
		model = physics.Default()
		ctx = context.Background()
	})

	Describe("construction", func() {
		It("rejects duplicate names", func() {
			a := body("a", dynamo.Vec{X: 7e6}, dynamo.Vec{}, 1)
			b := body("a", dynamo.Vec{X: 8e6}, dynamo.Vec{}, 1)
			_, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{a, b})
			Expect(err).To(MatchError(dynamo.ErrDuplicateName))
		})

		It("rejects an orbiter named like the reference", func() {
			a := body("Earth", dynamo.Vec{X: 7e6}, dynamo.Vec{}, 1)
			_, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{a})
			Expect(err).To(MatchError(dynamo.ErrDuplicateName))
		})

		It("rejects coincident initial positions", func() {
			a := body("a", dynamo.Vec{X: 7e6}, dynamo.Vec{}, 1)
			b := body("b", dynamo.Vec{X: 7e6}, dynamo.Vec{Y: 1}, 1)
			_, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{a, b})
			Expect(err).To(MatchError(dynamo.ErrCoincident))

			c := body("c", dynamo.Vec{}, dynamo.Vec{}, 1)
			_, err = sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{c})
			Expect(err).To(MatchError(dynamo.ErrCoincident))
		})

		It("rejects an invalid config", func() {
			s, err := sim.New(model, integrators.NewVerlet(), earth(), nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx, sim.Config{Dt: 0, Duration: 1})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			_, err = s.Run(ctx, sim.Config{Dt: 1, Duration: -1})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("the ISS-like scenario", func() {
		It("stays active and near its radius after 60 steps", func() {
			iss := body("ISS", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660}, 100)
			ref := earth()
			s, err := sim.New(model, integrators.NewVerlet(), ref, []*dynamo.Body{iss})
			Expect(err).NotTo(HaveOccurred())

			rec := newMemRecorder()
			s.SetRecorder(rec)

			result, err := s.Run(ctx, sim.Config{Dt: 10, Duration: 600})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Steps).To(Equal(60))
			Expect(result.Bodies[0].Steps).To(Equal(60))
			Expect(iss.Deorbited()).To(BeFalse())
			Expect(physics.DistanceToOrigin(iss)).To(BeNumerically("~", 6_784_000, 5_000))

			Expect(rec.headers).To(Equal([]string{"ISS"}))
			Expect(rec.rows["ISS"]).To(HaveLen(60))
			Expect(rec.rows["ISS"][0].t).To(Equal(0.0))
			Expect(rec.rows["ISS"][59].t).To(Equal(590.0))

			Expect(ref.Pos).To(Equal(dynamo.Vec{}))
			Expect(ref.Vel).To(Equal(dynamo.Vec{}))
		})
	})

	Describe("the deorbit lifecycle", func() {
		It("deorbits a body on the surface without integrating it", func() {
			p := body("p", dynamo.Vec{X: 6_371_000}, dynamo.Vec{}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{p})
			Expect(err).NotTo(HaveOccurred())

			rec := newMemRecorder()
			events := &deorbitLog{}
			s.SetRecorder(rec)
			s.AddObserver(events)

			result, err := s.Run(ctx, sim.Config{Dt: 1, Duration: 10})
			Expect(err).NotTo(HaveOccurred())

			Expect(p.Deorbited()).To(BeTrue())
			Expect(result.Bodies[0].Steps).To(BeZero())
			Expect(result.Bodies[0].DeorbitTime).To(BeZero())
			Expect(result.Deorbits).To(Equal(1))
			Expect(p.Pos).To(Equal(dynamo.Vec{X: 6_371_000}))
			Expect(p.Vel).To(Equal(dynamo.Vec{}))
			Expect(rec.headers).To(Equal([]string{"p"}))
			Expect(rec.rows["p"]).To(BeEmpty())
			Expect(events.events).To(Equal([]string{"p@0"}))
		})

		It("freezes a falling body once it crosses the surface", func() {
			p := body("falling", dynamo.Vec{X: 6_371_000 + 2_000}, dynamo.Vec{X: -500}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{p})
			Expect(err).NotTo(HaveOccurred())

			rec := newMemRecorder()
			s.SetRecorder(rec)
			Expect(s.Start(sim.Config{Dt: 1, Duration: 100})).To(Succeed())

			for !p.Deorbited() {
				Expect(s.Advance()).To(Succeed())
				Expect(s.Time()).To(BeNumerically("<", 100))
			}

			frozenPos, frozenVel := p.Pos, p.Vel
			rows := len(rec.rows["falling"])
			Expect(rows).To(BeNumerically(">", 0))

			for i := 0; i < 20; i++ {
				Expect(s.Advance()).To(Succeed())
				Expect(p.Pos).To(Equal(frozenPos))
				Expect(p.Vel).To(Equal(frozenVel))
				Expect(p.Deorbited()).To(BeTrue())
			}
			Expect(rec.rows["falling"]).To(HaveLen(rows))
			Expect(s.Active()).To(BeZero())
		})

		It("keeps independent bodies independent", func() {
			low := body("low", dynamo.Vec{X: 6_371_000}, dynamo.Vec{}, 100)
			high := body("high", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{low, high})
			Expect(err).NotTo(HaveOccurred())

			result, err := s.Run(ctx, sim.Config{Dt: 10, Duration: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Bodies[0].Deorbited).To(BeTrue())
			Expect(result.Bodies[1].Deorbited).To(BeFalse())
			Expect(result.Bodies[1].Steps).To(Equal(10))
		})
	})

	Describe("error surfacing", func() {
		It("aborts on recorder failure", func() {
			p := body("p", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{p})
			Expect(err).NotTo(HaveOccurred())

			rec := newMemRecorder()
			rec.failAt = 3
			s.SetRecorder(rec)

			result, err := s.Run(ctx, sim.Config{Dt: 1, Duration: 100})
			Expect(err).To(MatchError(dynamo.ErrRecorder))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Body).To(Equal("p"))
			Expect(result.Steps).To(Equal(3))
		})

		It("reports non-finite states without masking them", func() {
			ref := body("ref", dynamo.Vec{X: 1e8}, dynamo.Vec{}, 5.972e24)
			p := body("p", dynamo.Vec{X: 1e8 - 1}, dynamo.Vec{X: 1}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), ref, []*dynamo.Body{p})
			Expect(err).NotTo(HaveOccurred())

			result, err := s.Run(ctx, sim.Config{Dt: 1, Duration: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NonFinite).To(Equal([]string{"p"}))
			Expect(math.IsNaN(p.Pos.X) || math.IsInf(p.Pos.X, 0)).To(BeTrue())
		})

		It("stops on non-finite states when validating", func() {
			ref := body("ref", dynamo.Vec{X: 1e8}, dynamo.Vec{}, 5.972e24)
			p := body("p", dynamo.Vec{X: 1e8 - 1}, dynamo.Vec{X: 1}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), ref, []*dynamo.Body{p})
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx, sim.Config{Dt: 1, Duration: 5, ValidateState: true})
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
		})

		It("honours context cancellation", func() {
			p := body("p", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660}, 100)
			s, err := sim.New(model, integrators.NewVerlet(), earth(), []*dynamo.Body{p})
			Expect(err).NotTo(HaveOccurred())

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			result, err := s.Run(cctx, sim.Config{Dt: 1, Duration: 100})
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.Steps).To(BeZero())
		})
	})

	Describe("parallel stepping", func() {
		build := func() (*sim.Simulator, *memRecorder) {
			bodies := make([]*dynamo.Body, 0, 16)
			for i := 0; i < 16; i++ {
				r := 6_500_000 + float64(i)*25_000
				v := physics.CircularSpeed(physics.DefaultG, 5.972e24, r) * (0.97 + 0.004*float64(i))
				bodies = append(bodies, body(fmt.Sprintf("particle %d", i), dynamo.Vec{X: r}, dynamo.Vec{Y: v, Z: 10}, 100))
			}
			s, err := sim.New(model, integrators.NewVerlet(), earth(), bodies)
			Expect(err).NotTo(HaveOccurred())
			rec := newMemRecorder()
			s.SetRecorder(rec)
			return s, rec
		}

		It("matches the serial run exactly", func() {
			serial, serialRec := build()
			parallel, parallelRec := build()

			r1, err := serial.Run(ctx, sim.Config{Dt: 5, Duration: 3000, Workers: 1})
			Expect(err).NotTo(HaveOccurred())
			r2, err := parallel.Run(ctx, sim.Config{Dt: 5, Duration: 3000, Workers: 4})
			Expect(err).NotTo(HaveOccurred())

			Expect(r2.Bodies).To(Equal(r1.Bodies))
			Expect(parallelRec.rows).To(Equal(serialRec.rows))
			Expect(parallelRec.headers).To(Equal(serialRec.headers))
		})
	})
})
