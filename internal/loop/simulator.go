package loop

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/signal"
	"gonum.org/v1/gonum/mat"
)

type Simulator struct {
	plant     *lti.TransferFunction
	sys       *lti.StateSpace
	metrics   []Metric
	observers []Observer
}

// New validates the plant and builds its realization.
func New(plant *lti.TransferFunction) (*Simulator, error) {
	if plant == nil {
		return nil, fmt.Errorf("%w: nil plant", lti.ErrInvalidPlant)
	}
	tf, err := lti.NewTransferFunction(plant.Num, plant.Den)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		plant:     tf,
		sys:       lti.Realize(tf),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (s *Simulator) Plant() *lti.TransferFunction { return s.plant }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run simulates the closed loop over in.Grid. It fails only on malformed
// input or cancellation; an unstable loop is returned with Diverged set.
func (s *Simulator) Run(ctx context.Context, in Input, cfg Config) (*Result, error) {
	if err := s.validate(in, cfg); err != nil {
		return nil, err
	}

	n := len(in.Grid)
	ff := in.FeedForward
	if ff == nil {
		ff = signal.Zero(in.Grid)
	}

	res := &Result{
		Times:       in.Grid,
		Reference:   in.Reference,
		Disturbance: in.Disturbance,
		Raw:         make(signal.Signal, n),
		Control:     make(signal.Signal, n),
		PlantInput:  make(signal.Signal, n),
		Response:    make(signal.Signal, n),
		Metrics:     make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	bound := cfg.DivergenceBound
	if bound <= 0 {
		bound = DefaultDivergenceBound
	}

	// the actuator is idle at the initial instant
	res.PlantInput[0] = cfg.DisturbanceGain * in.Disturbance[0]
	res.Response[0] = cfg.InitialCondition
	if n == 1 {
		res.Raw[0] = cfg.Gain*(in.Reference[0]-cfg.InitialCondition) + ff[0]
		res.Control[0] = cfg.Saturation.Clamp(res.Raw[0])
	}
	s.notify(res, 0)

	solver := lti.NewSolver(s.sys, cfg.Hold)
	x0 := s.sys.InitialState(cfg.InitialCondition, res.PlantInput[0])
	advance, err := s.stepper(solver, in.Grid, res.PlantInput, x0, cfg.Method)
	if err != nil {
		return nil, err
	}

	for i := 1; i < n; i++ {
		select {
		case <-ctx.Done():
			return res, &SampleError{Index: i, Time: in.Grid[i], Wrapped: ctx.Err()}
		default:
		}

		e := in.Reference[i] - res.Response[i-1]
		res.Raw[i] = cfg.Gain*e + ff[i]
		res.Control[i] = cfg.Saturation.Clamp(res.Raw[i])
		res.PlantInput[i] = cfg.DisturbanceGain*in.Disturbance[i] + res.Control[i]

		y, err := advance(i)
		if err != nil {
			return res, &SampleError{Index: i, Time: in.Grid[i], Wrapped: err}
		}
		res.Response[i] = y
		res.Steps++

		if math.IsNaN(y) || math.Abs(y) > bound {
			res.Diverged = true
		}
		s.notify(res, i)
	}

	if n > 1 {
		// display continuity only
		res.Control[0] = res.Control[1]
		res.Raw[0] = res.Raw[1]
	}

	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

// stepper returns a function producing y[i] once PlantInput[i] is known.
func (s *Simulator) stepper(solver *lti.Solver, t signal.TimeGrid, u signal.Signal, x0 *mat.VecDense, method Method) (func(i int) (float64, error), error) {
	switch method {
	case Recurrence:
		var x *mat.VecDense
		if x0 != nil {
			x = mat.VecDenseCopyOf(x0)
		}
		return func(i int) (float64, error) {
			d, err := solver.Discretization(t[i] - t[i-1])
			if err != nil {
				return 0, err
			}
			d.Advance(x, u[i-1], u[i])
			return s.sys.Output(x, u[i]), nil
		}, nil
	case Prefix:
		return func(i int) (float64, error) {
			y, err := solver.ForcedResponse(t[:i+1], u[:i+1], x0)
			if err != nil {
				return 0, err
			}
			return y[i], nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}
}

func (s *Simulator) notify(res *Result, i int) {
	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	smp := Sample{
		Index:       i,
		Time:        res.Times[i],
		Reference:   res.Reference[i],
		Disturbance: res.Disturbance[i],
		Raw:         res.Raw[i],
		Control:     res.Control[i],
		PlantInput:  res.PlantInput[i],
		Response:    res.Response[i],
	}
	for _, m := range s.metrics {
		m.Observe(smp)
	}
	for _, o := range s.observers {
		o.OnSample(smp)
	}
}

func (s *Simulator) validate(in Input, cfg Config) error {
	if err := in.Grid.Validate(); err != nil {
		return err
	}
	if err := cfg.Saturation.Validate(); err != nil {
		return err
	}
	named := []struct {
		name string
		sig  signal.Signal
	}{
		{"reference", in.Reference},
		{"disturbance", in.Disturbance},
		{"feed_forward", in.FeedForward},
	}
	for _, ns := range named {
		if ns.sig == nil && ns.name == "feed_forward" {
			continue
		}
		if len(ns.sig) != len(in.Grid) {
			return fmt.Errorf("%w: %s has %d samples, grid has %d",
				ErrDimensionMismatch, ns.name, len(ns.sig), len(in.Grid))
		}
	}
	return nil
}

// Simulate is the one-shot form of New + Run returning the response and
// control signal.
func Simulate(plant *lti.TransferFunction, grid signal.TimeGrid, reference, disturbance, feedForward signal.Signal, cfg Config) (response, control signal.Signal, err error) {
	sim, err := New(plant)
	if err != nil {
		return nil, nil, err
	}
	res, err := sim.Run(context.Background(), Input{
		Grid:        grid,
		Reference:   reference,
		Disturbance: disturbance,
		FeedForward: feedForward,
	}, cfg)
	if err != nil {
		return nil, nil, err
	}
	return res.Response, res.Control, nil
}
