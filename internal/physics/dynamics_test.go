package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/physics"
)

var _ = Describe("Dynamics model", func() {
	var (
		rider dynamo.Rider
		env   dynamo.Environment
	)

	BeforeEach(func() {
		rider = dynamo.Rider{
			Mass:              80,
			FrontalArea:       0.5,
			DragCoefficient:   0.6,
			RollingResistance: 0.005,
			Efficiency:        1,
		}
		env = dynamo.Environment{AirDensity: 1.2}
	})

	Describe("reference operating point", func() {
		It("matches the hand-computed forces and power at 10 m/s", func() {
			f, err := physics.ComputeForces(rider, env, 10)
			Expect(err).NotTo(HaveOccurred())

			// 0.5 * 1.2 * 0.3 * 10^2
			Expect(f.Drag).To(BeNumerically("~", 18.0, 0.18))
			// 0.005 * 80 * 9.80665
			Expect(f.Rolling).To(BeNumerically("~", 3.9227, 0.04))
			Expect(f.Gravity).To(BeNumerically("~", 0, 1e-12))

			p, err := physics.PowerFromSpeed(rider, env, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNumerically("~", 219.23, 2.19))
		})

		It("scales pedal power by drivetrain efficiency", func() {
			rider.Efficiency = 0.96
			p, err := physics.PowerFromSpeed(rider, env, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNumerically("~", 219.2266/0.96, 1e-3))
		})
	})

	Describe("force model", func() {
		It("increases drag monotonically with speed", func() {
			prev := math.Inf(-1)
			for v := 0.0; v <= 30; v += 0.25 {
				f, err := physics.ComputeForces(rider, env, v)
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Drag).To(BeNumerically(">", prev))
				prev = f.Drag
			}
		})

		It("keeps drag monotonic in a tailwind", func() {
			env.WindSpeed = 6
			env.WindDirection = 180
			prev := math.Inf(-1)
			for v := 0.0; v <= 20; v += 0.5 {
				f, err := physics.ComputeForces(rider, env, v)
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Drag).To(BeNumerically(">", prev))
				prev = f.Drag
			}
		})

		It("splits weight between rolling and gravity on a slope", func() {
			env.Grade = 0.1
			f, err := physics.ComputeForces(rider, env, 5)
			Expect(err).NotTo(HaveOccurred())

			angle := math.Atan(0.1)
			Expect(f.Gravity).To(BeNumerically("~", 80*physics.Gravity*math.Sin(angle), 1e-9))
			Expect(f.Rolling).To(BeNumerically("~", 0.005*80*physics.Gravity*math.Cos(angle), 1e-9))
		})

		DescribeTable("rejects non-physical input",
			func(mut func(*dynamo.Rider, *dynamo.Environment), speed float64) {
				mut(&rider, &env)
				_, err := physics.ComputeForces(rider, env, speed)
				Expect(errors.Is(err, dynamo.ErrInvalidInput)).To(BeTrue())
			},
			Entry("negative mass", func(r *dynamo.Rider, _ *dynamo.Environment) { r.Mass = -80 }, 10.0),
			Entry("zero density", func(_ *dynamo.Rider, e *dynamo.Environment) { e.AirDensity = 0 }, 10.0),
			Entry("efficiency above one", func(r *dynamo.Rider, _ *dynamo.Environment) { r.Efficiency = 1.5 }, 10.0),
			Entry("undefined speed", func(*dynamo.Rider, *dynamo.Environment) {}, math.NaN()),
			Entry("negative speed", func(*dynamo.Rider, *dynamo.Environment) {}, -1.0),
		)
	})

	Describe("power from speed", func() {
		It("is zero at rest regardless of coefficients", func() {
			for _, grade := range []float64{-0.1, 0, 0.15} {
				for _, crr := range []float64{0, 0.004, 0.02} {
					for _, cd := range []float64{0, 0.5, 1.2} {
						rider.RollingResistance = crr
						rider.DragCoefficient = cd
						env.Grade = grade
						env.WindSpeed = 4
						p, err := physics.PowerFromSpeed(rider, env, 0)
						Expect(err).NotTo(HaveOccurred())
						Expect(p).To(BeZero())
					}
				}
			}
		})

		It("breaks down into components that sum to the total", func() {
			rider.Efficiency = 0.97
			env.Grade = 0.05
			b, err := physics.Breakdown(rider, env, 7)
			Expect(err).NotTo(HaveOccurred())

			p, _ := physics.PowerFromSpeed(rider, env, 7)
			Expect(b.Total).To(BeNumerically("~", p, 1e-9))
			Expect(b.Drag + b.Rolling + b.Climbing + b.Drivetrain).To(BeNumerically("~", b.Total, 1e-9))
			Expect(b.Drivetrain).To(BeNumerically(">", 0))
		})
	})

	Describe("speed from power", func() {
		for _, method := range []dynamo.SolverMethod{dynamo.Bisection, dynamo.Newton} {
			method := method

			Context(string(method), func() {
				var solver *physics.Solver

				BeforeEach(func() {
					cfg := dynamo.DefaultSolverConfig()
					cfg.Method = method
					solver = physics.NewSolver(cfg)
					rider.Efficiency = 0.97
				})

				It("round-trips power through speed", func() {
					for _, grade := range []float64{-0.08, -0.02, 0, 0.03, 0.12} {
						for _, wind := range []float64{0, 5, -5} {
							for _, p := range []float64{0.5, 50, 150, 300, 600, 1200} {
								e := env
								e.Grade = grade
								e.WindSpeed = wind
								v, err := solver.SpeedFromPower(rider, e, p)
								Expect(err).NotTo(HaveOccurred())
								Expect(v).To(BeNumerically(">=", 0))

								back, err := physics.PowerFromSpeed(rider, e, v)
								Expect(err).NotTo(HaveOccurred())
								Expect(back).To(BeNumerically("~", p, 1e-2),
									"grade=%v wind=%v power=%v speed=%v", grade, wind, p, v)
							}
						}
					}
				})

				It("returns zero speed for zero power on a flat road", func() {
					v, err := solver.SpeedFromPower(rider, env, 0)
					Expect(err).NotTo(HaveOccurred())
					Expect(v).To(BeZero())
				})

				It("returns the freewheel speed for zero power downhill", func() {
					env.Grade = -0.06
					v, err := solver.SpeedFromPower(rider, env, 0)
					Expect(err).NotTo(HaveOccurred())
					Expect(v).To(BeNumerically(">", 10))

					f, _ := physics.ComputeForces(rider, env, v)
					Expect(f.Total()).To(BeNumerically("~", 0, 1e-9))
				})

				It("rejects power below the static threshold", func() {
					_, err := solver.SpeedFromPower(rider, env, -10)
					Expect(errors.Is(err, dynamo.ErrNoSolution)).To(BeTrue())
					Expect(errors.Is(err, dynamo.ErrInvalidInput)).To(BeFalse())
				})

				It("increases speed with power", func() {
					prev := -1.0
					for p := 10.0; p <= 800; p += 10 {
						v, err := solver.SpeedFromPower(rider, env, p)
						Expect(err).NotTo(HaveOccurred())
						Expect(v).To(BeNumerically(">", prev))
						prev = v
					}
				})
			})
		}

		It("reports non-convergence distinctly from bad input", func() {
			cfg := dynamo.DefaultSolverConfig()
			cfg.MaxIterations = 2
			_, err := physics.NewSolver(cfg).SpeedFromPower(rider, env, 250)

			Expect(errors.Is(err, dynamo.ErrNotConverged)).To(BeTrue())
			Expect(errors.Is(err, dynamo.ErrInvalidInput)).To(BeFalse())

			var se *dynamo.SolverError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Iterations).To(Equal(2))
		})

		It("solves without drag in closed form", func() {
			rider.DragCoefficient = 0
			v, err := physics.SpeedFromPower(rider, env, 39.2266)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("~", 10, 1e-3))

			env.Grade = -0.05
			_, err = physics.SpeedFromPower(rider, env, 100)
			Expect(errors.Is(err, dynamo.ErrNoSolution)).To(BeTrue())
		})

		It("fails when the root lies beyond the speed limit", func() {
			cfg := dynamo.DefaultSolverConfig()
			cfg.MaxSpeed = 25
			_, err := physics.NewSolver(cfg).SpeedFromPower(rider, env, 5000)
			Expect(errors.Is(err, dynamo.ErrNoSolution)).To(BeTrue())
		})

		Describe("with a freewheel threshold", func() {
			var solver *physics.Solver

			BeforeEach(func() {
				cfg := dynamo.DefaultSolverConfig()
				cfg.MinPower = 50
				solver = physics.NewSolver(cfg)
			})

			It("treats power under the threshold as freewheeling", func() {
				v, err := solver.SpeedFromPower(rider, env, 20)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(BeZero())

				env.Grade = -0.05
				v, err = solver.SpeedFromPower(rider, env, 50)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(BeNumerically("~", physics.FreewheelSpeed(rider, env), 1e-12))
			})

			It("applies the threshold without drag", func() {
				rider.DragCoefficient = 0
				v, err := solver.SpeedFromPower(rider, env, 20)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(BeZero())

				v, err = solver.SpeedFromPower(rider, env, 78.4532)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(BeNumerically("~", 20, 1e-3))

				_, err = solver.SpeedFromPower(rider, env, 5000)
				Expect(errors.Is(err, dynamo.ErrNoSolution)).To(BeTrue())
			})
		})

		It("finds a root between the last doubling and the speed limit", func() {
			p, err := physics.PowerFromSpeed(rider, env, 400)
			Expect(err).NotTo(HaveOccurred())

			for _, method := range []dynamo.SolverMethod{dynamo.Bisection, dynamo.Newton} {
				cfg := dynamo.DefaultSolverConfig()
				cfg.Method = method
				v, err := physics.NewSolver(cfg).SpeedFromPower(rider, env, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(BeNumerically("~", 400, 1e-3))
			}
		})

		It("fails when the freewheel speed exceeds the speed limit", func() {
			cfg := dynamo.DefaultSolverConfig()
			cfg.MaxSpeed = 25
			env.Grade = -0.3
			Expect(physics.FreewheelSpeed(rider, env)).To(BeNumerically(">", 25))

			_, err := physics.NewSolver(cfg).SpeedFromPower(rider, env, 0)
			Expect(errors.Is(err, dynamo.ErrNoSolution)).To(BeTrue())
			_, err = physics.NewSolver(cfg).SpeedFromPower(rider, env, 100)
			Expect(errors.Is(err, dynamo.ErrNoSolution)).To(BeTrue())
		})

		It("solves a full query in either direction", func() {
			solver := physics.NewSolver(dynamo.DefaultSolverConfig())

			sol, err := solver.Solve(rider, env, dynamo.Query{Kind: dynamo.SolvePower, Value: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Power).To(BeNumerically("~", 219.2266, 1e-3))
			Expect(sol.Forces.Drag).To(BeNumerically("~", 18, 1e-9))

			sol, err = solver.Solve(rider, env, dynamo.Query{Kind: dynamo.SolveSpeed, Value: 219.2266})
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Speed).To(BeNumerically("~", 10, 1e-4))
		})
	})
})
