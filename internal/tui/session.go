package tui

import (
	"context"
	"fmt"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/describe"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/optim"
	"github.com/san-kum/loopsim/internal/signal"
)

// referenceKinds is the order the tuner cycles reference shapes in.
var referenceKinds = []signal.Kind{signal.KindConstant, signal.KindStep, signal.KindRamp, signal.KindSine}

// Settings are the knobs exposed by the tuner.
type Settings struct {
	Gain            float64
	DisturbanceGain float64
	Saturation      loop.Saturation
	FFScale         float64
	Reference       signal.Kind
}

// SettingsFrom reads the tunable values out of a scenario.
func SettingsFrom(cfg *config.Config) Settings {
	s := Settings{
		Gain:            cfg.Gain,
		DisturbanceGain: cfg.DisturbanceGain,
		Saturation:      cfg.Saturation,
		Reference:       cfg.Reference.Kind,
	}
	if cfg.FeedForward.Mode == config.FeedForwardInverse {
		s.FFScale = cfg.FeedForward.Scale
	}
	if s.Reference == "" {
		s.Reference = signal.KindConstant
	}
	return s
}

// Session is a single evaluation of the tuner settings against a base
// scenario. Every key press that changes a setting builds a new one; nothing
// is shared between sessions except the read-only base config.
type Session struct {
	Settings   Settings
	Config     *config.Config
	Result     *loop.Result
	Plant      *lti.TransferFunction
	LimitCycle *describe.LimitCycle
	Err        error
}

// NewSession applies s to a copy of base and runs it to completion.
func NewSession(ctx context.Context, reg *experiment.Registry, base *config.Config, s Settings) *Session {
	sess := &Session{Settings: s}

	params := map[string]float64{
		optim.ParamGain:            s.Gain,
		optim.ParamDisturbanceGain: s.DisturbanceGain,
	}
	if s.FFScale != 0 || base.FeedForward.Mode == config.FeedForwardInverse {
		params[optim.ParamFeedForward] = s.FFScale
	}
	cfg, err := optim.Apply(base, params)
	if err != nil {
		sess.Err = err
		return sess
	}
	cfg.Saturation = s.Saturation
	cfg.Reference = reshape(base, s.Reference)
	sess.Config = cfg

	exp, err := reg.Build(cfg)
	if err != nil {
		sess.Err = err
		return sess
	}
	sess.Plant = exp.Plant()
	sess.Result, sess.Err = exp.Run(ctx)

	// the describing function needs a symmetric clamp
	if m := s.Saturation.Upper; s.Gain > 0 && m > 0 && s.Saturation.Lower == -m {
		if cycles, err := describe.PredictLimitCycles(exp.Plant(), describe.ClampedGain(s.Gain, m)); err == nil {
			sess.LimitCycle = &cycles[0]
		}
	}
	return sess
}

// reshape keeps the base reference level but changes its shape.
func reshape(base *config.Config, kind signal.Kind) signal.Spec {
	level := referenceLevel(base.Reference, base.Duration)
	switch kind {
	case signal.KindStep:
		return signal.Spec{Kind: kind, At: base.Duration / 10, After: level}
	case signal.KindRamp:
		slope := level
		if base.Duration > 0 {
			slope = level / base.Duration
		}
		return signal.Spec{Kind: kind, Slope: slope}
	case signal.KindSine:
		return signal.Spec{Kind: kind, Amplitude: level, Frequency: 0.2}
	case signal.KindZero:
		return signal.Spec{Kind: kind}
	default:
		return signal.Spec{Kind: signal.KindConstant, Value: level}
	}
}

func referenceLevel(s signal.Spec, duration float64) float64 {
	switch s.Kind {
	case signal.KindStep:
		return s.After
	case signal.KindSine:
		return s.Amplitude
	case signal.KindRamp:
		return s.Slope * duration
	default:
		if s.Value == 0 {
			return 1
		}
		return s.Value
	}
}

func nextKind(k signal.Kind) signal.Kind {
	for i, kind := range referenceKinds {
		if kind == k {
			return referenceKinds[(i+1)%len(referenceKinds)]
		}
	}
	return referenceKinds[0]
}

// Summary is a one-line status for the session.
func (s *Session) Summary() string {
	switch {
	case s.Err != nil:
		return "error: " + s.Err.Error()
	case s.Result == nil:
		return "no result"
	case s.Result.Diverged:
		return "diverged"
	default:
		return fmt.Sprintf("iae %.3g  final error %.3g  saturated %.0f%%",
			s.Result.Metrics["iae"], s.Result.Metrics["final_error"], 100*s.Result.Metrics["saturation_ratio"])
	}
}
