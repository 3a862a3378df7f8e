package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/signal"
)

// Experiment is a scenario resolved into a plant, signals and a simulator.
type Experiment struct {
	cfg       *config.Config
	plant     *lti.TransferFunction
	input     loop.Input
	loopCfg   loop.Config
	simulator *loop.Simulator
}

func (e *Experiment) Run(ctx context.Context) (*loop.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.input, e.loopCfg)
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *loop.Simulator {
	return e.simulator
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Plant() *lti.TransferFunction { return e.plant }
func (e *Experiment) Input() loop.Input            { return e.input }
func (e *Experiment) LoopConfig() loop.Config      { return e.loopCfg }
func (e *Experiment) Grid() signal.TimeGrid        { return e.input.Grid }
