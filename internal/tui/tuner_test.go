package tui

import (
	"context"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/signal"
)

func TestNewSession(t *testing.T) {
	base := config.GetPreset("cruise", "feedback")
	s := SettingsFrom(base)
	if s.Gain != 10 || s.Saturation.Upper != 100 || s.DisturbanceGain != -2.1 {
		t.Fatalf("unexpected settings %+v", s)
	}

	sess := NewSession(context.Background(), experiment.NewRegistry(), base, s)
	if sess.Err != nil {
		t.Fatal(sess.Err)
	}
	if len(sess.Result.Response) != base.Samples() {
		t.Errorf("expected %d samples, got %d", base.Samples(), len(sess.Result.Response))
	}
	if base.Gain != 10 {
		t.Error("session must not modify the base config")
	}
	if sess.LimitCycle != nil {
		t.Error("first-order loop cannot oscillate")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	reg := experiment.NewRegistry()
	base := config.GetPreset("cruise", "feedback")

	low := SettingsFrom(base)
	low.Gain = 1
	high := SettingsFrom(base)
	high.Gain = 20

	a := NewSession(context.Background(), reg, base, low)
	b := NewSession(context.Background(), reg, base, high)
	if a.Err != nil || b.Err != nil {
		t.Fatal(a.Err, b.Err)
	}
	if a.Config.Gain != 1 || b.Config.Gain != 20 {
		t.Errorf("gains leaked between sessions: %v %v", a.Config.Gain, b.Config.Gain)
	}
	if a.Result.Metrics["iae"] <= b.Result.Metrics["iae"] {
		t.Error("higher gain should track better")
	}
}

func TestSessionLimitCycle(t *testing.T) {
	base := config.GetPreset("third_order", "stable")
	s := SettingsFrom(base)
	s.Gain = 20
	sess := NewSession(context.Background(), experiment.NewRegistry(), base, s)
	if sess.LimitCycle == nil {
		t.Fatal("expected a limit-cycle prediction above the critical gain")
	}
	if math.Abs(sess.LimitCycle.Omega-math.Sqrt(3)) > 1e-6 {
		t.Errorf("omega = %v, want √3", sess.LimitCycle.Omega)
	}
}

func TestSessionKeepsOneSidedSaturation(t *testing.T) {
	base := config.GetPreset("hover", "step")
	s := SettingsFrom(base)

	sess := NewSession(context.Background(), experiment.NewRegistry(), base, s)
	if sess.Err != nil {
		t.Fatal(sess.Err)
	}
	if sess.Config.Saturation != base.Saturation {
		t.Fatalf("expected saturation %+v, got %+v", base.Saturation, sess.Config.Saturation)
	}
	for i, u := range sess.Result.Control {
		if u < 0 || u > 20 {
			t.Fatalf("control[%d] = %v outside [0, 20]", i, u)
		}
	}

	up := scaleBounds(s.Saturation, 1)
	if up.Lower != 0 || up.Upper != 25 {
		t.Errorf("expected [0, 25] after one step up, got %+v", up)
	}
	down := scaleBounds(loop.Symmetric(100), -1)
	if down.Lower != -80 || down.Upper != 80 {
		t.Errorf("expected [-80, 80] after one step down, got %+v", down)
	}
}

func TestReshapeKeepsLevel(t *testing.T) {
	base := config.GetPreset("cruise", "feedback")
	tests := []struct {
		kind  signal.Kind
		check func(signal.Spec) bool
	}{
		{signal.KindConstant, func(s signal.Spec) bool { return s.Value == 50 }},
		{signal.KindStep, func(s signal.Spec) bool { return s.After == 50 && s.At == 2 }},
		{signal.KindRamp, func(s signal.Spec) bool { return s.Slope == 2.5 }},
		{signal.KindSine, func(s signal.Spec) bool { return s.Amplitude == 50 }},
	}
	for _, tt := range tests {
		if got := reshape(base, tt.kind); got.Kind != tt.kind || !tt.check(got) {
			t.Errorf("%s: unexpected spec %+v", tt.kind, got)
		}
	}
	if nextKind(signal.KindSine) != signal.KindConstant {
		t.Error("reference kinds should wrap around")
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTunerKeys(t *testing.T) {
	var tm tea.Model = NewTuner(context.Background(), nil)
	if !strings.Contains(tm.View(), "cruise/feedback") {
		t.Fatal("menu should list presets")
	}

	tm, _ = tm.Update(key("enter"))
	m := tm.(model)
	if m.state != stateTune || m.session == nil {
		t.Fatal("enter should open the tuner with a session")
	}
	first := m.session

	tm, _ = tm.Update(key("right"))
	m = tm.(model)
	if m.session == first {
		t.Error("adjusting a knob should build a new session")
	}
	if m.settings.Gain <= SettingsFrom(m.base).Gain {
		t.Errorf("gain should increase, got %v", m.settings.Gain)
	}

	tm, _ = tm.Update(key("tab"))
	m = tm.(model)
	if m.session.Config.Reference.Kind == m.base.Reference.Kind {
		t.Error("tab should change the reference shape")
	}

	tm, _ = tm.Update(key("r"))
	m = tm.(model)
	if m.settings != SettingsFrom(m.base) {
		t.Error("r should restore the preset settings")
	}
	if !strings.Contains(tm.View(), "reference / response") {
		t.Error("tune view should plot the run")
	}
}
