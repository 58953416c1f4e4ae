package world

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/rigidsim/internal/dynamics"
	"github.com/san-kum/rigidsim/internal/geometry"
)

// quietConfig is a configuration without gravity, so bodies placed at
// rest stay at rest and sleep deterministically.
func quietConfig() Config {
	return Config{
		Dt:            1.0 / 60.0,
		MinIslandSize: 1,
		LinearDamping: 0.995,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"default", DefaultConfig(), nil},
		{"zero dt", Config{Dt: 0, MinIslandSize: 1}, ErrInvalidTimestep},
		{"negative dt", Config{Dt: -0.01, MinIslandSize: 1}, ErrInvalidTimestep},
		{"zero island size", Config{Dt: 0.01, MinIslandSize: 0}, ErrInvalidIslandSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildSceneUnknown(t *testing.T) {
	_, err := BuildScene("volcano", DefaultConfig(), 5, 1)
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("err = %v, want ErrUnknownScene", err)
	}
}

func TestBuildSceneAll(t *testing.T) {
	for _, name := range SceneNames() {
		t.Run(name, func(t *testing.T) {
			w, err := BuildScene(name, DefaultConfig(), 5, 1)
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if w.Bodies.Len() == 0 {
				t.Error("scene built no bodies")
			}
			// One step must not disturb any invariant badly enough to
			// panic or lose bodies.
			st := w.Step()
			if st.Bodies != w.Bodies.Len() {
				t.Errorf("stats report %d bodies, set holds %d", st.Bodies, w.Bodies.Len())
			}
		})
	}
}

func TestRunStepsAndMetrics(t *testing.T) {
	w, err := BuildScene("stack", DefaultConfig(), 3, 1)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	w.AddMetric(&countingMetric{})

	result, err := w.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 10 {
		t.Errorf("StepsTaken = %d, want 10", result.StepsTaken)
	}
	if len(result.Stats) != 10 {
		t.Errorf("len(Stats) = %d, want 10", len(result.Stats))
	}
	if got := result.Metrics["steps_seen"]; got != 10 {
		t.Errorf("metric value = %f, want 10", got)
	}
}

func TestRunCancelled(t *testing.T) {
	w := New(quietConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := w.Run(ctx, 100)
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want wrapped context.Canceled", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Errorf("err = %T, want *StepError", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("StepsTaken = %d after immediate cancel, want 0", result.StepsTaken)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	w := New(Config{Dt: 0, MinIslandSize: 1})
	if _, err := w.Run(context.Background(), 1); !errors.Is(err, ErrInvalidTimestep) {
		t.Errorf("err = %v, want ErrInvalidTimestep", err)
	}
}

func TestIsolatedBodyFallsAsleep(t *testing.T) {
	w := New(quietConfig())
	rb := dynamics.NewRigidBody(dynamics.BodyStatusDynamic)
	rb.SetPosition(geometry.Iso2{})
	h := w.Bodies.Insert(rb)
	w.Colliders.Insert(dynamics.NewCollider(0.5), h, w.Bodies)

	var last StepStats
	for i := 0; i < 10; i++ {
		last = w.Step()
	}

	if last.SleepingBodies != 1 {
		t.Errorf("SleepingBodies = %d, want 1", last.SleepingBodies)
	}
	if last.ActiveBodies != 0 {
		t.Errorf("ActiveBodies = %d, want 0", last.ActiveBodies)
	}
	// An empty active set still forms exactly one (empty) island.
	if last.Islands != 1 {
		t.Errorf("Islands = %d, want 1", last.Islands)
	}
}

func TestObserverSeesEveryStep(t *testing.T) {
	w := New(quietConfig())
	obs := &recordingObserver{}
	w.AddObserver(obs)

	if _, err := w.Run(context.Background(), 5); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(obs.steps) != 5 {
		t.Fatalf("observer saw %d steps, want 5", len(obs.steps))
	}
	for i, st := range obs.steps {
		if st.Step != i {
			t.Errorf("step %d reported as %d", i, st.Step)
		}
	}
}

func TestStepTimeAdvances(t *testing.T) {
	cfg := quietConfig()
	w := New(cfg)
	w.Step()
	st := w.Step()
	want := 2 * cfg.Dt
	if diff := st.Time - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Time = %f after two steps, want %f", st.Time, want)
	}
}

type countingMetric struct{ n float64 }

func (m *countingMetric) Name() string         { return "steps_seen" }
func (m *countingMetric) Observe(st StepStats) { m.n++ }
func (m *countingMetric) Value() float64       { return m.n }
func (m *countingMetric) Reset()               { m.n = 0 }

type recordingObserver struct{ steps []StepStats }

func (o *recordingObserver) OnStep(st StepStats) { o.steps = append(o.steps, st) }
