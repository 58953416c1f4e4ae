// Package world wires the dynamics core into a runnable pipeline:
// per step it integrates awake bodies, refreshes contacts, reconciles
// change flags, recomputes sleep state and islands, and solves each
// island on its own worker.
package world

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/rigidsim/internal/dynamics"
	"github.com/san-kum/rigidsim/internal/geometry"
)

// Config holds the per-world simulation parameters.
type Config struct {
	Dt            float64
	Gravity       geometry.Vec2
	MinIslandSize int
	// LinearDamping is the per-step velocity retention factor,
	// slightly below 1 so free bodies eventually settle.
	LinearDamping float64
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 60.0,
		Gravity:       geometry.Vec2{Y: -9.81},
		MinIslandSize: 8,
		LinearDamping: 0.995,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return ErrInvalidTimestep
	}
	if c.MinIslandSize < 1 {
		return ErrInvalidIslandSize
	}
	return nil
}

// StepStats is the per-step snapshot handed to metrics and observers.
type StepStats struct {
	Step           int
	Time           float64
	Bodies         int
	ActiveBodies   int
	SleepingBodies int
	Islands        int
	Contacts       int
	Duration       time.Duration
}

// Metric aggregates step statistics into a single value over a run.
type Metric interface {
	Name() string
	Observe(st StepStats)
	Value() float64
	Reset()
}

// Observer is notified after every step.
type Observer interface {
	OnStep(st StepStats)
}

// Result collects the outcome of a Run.
type Result struct {
	Stats      []StepStats
	Metrics    map[string]float64
	StepsTaken int
}

// World owns one simulation: the body set and its collaborators plus
// the run configuration.
type World struct {
	Bodies      *dynamics.BodySet
	Colliders   *dynamics.ColliderSet
	Joints      *dynamics.JointSet
	NarrowPhase *dynamics.NarrowPhase

	cfg       Config
	log       *zap.Logger
	metrics   []Metric
	observers []Observer

	step    int
	time    float64
	scratch []dynamics.BodyHandle
}

// New creates an empty world with the given configuration.
func New(cfg Config) *World {
	return &World{
		Bodies:      dynamics.NewBodySet(),
		Colliders:   dynamics.NewColliderSet(),
		Joints:      dynamics.NewJointSet(),
		NarrowPhase: dynamics.NewNarrowPhase(),
		cfg:         cfg,
		log:         zap.NewNop(),
	}
}

func (w *World) Config() Config { return w.cfg }

// SetLogger installs a structured logger for step-level debug events.
func (w *World) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	w.log = log
}

func (w *World) AddMetric(m Metric)     { w.metrics = append(w.metrics, m) }
func (w *World) AddObserver(o Observer) { w.observers = append(w.observers, o) }

// Run advances the world by the given number of steps, feeding
// metrics and observers after each one. The context is only checked
// between steps; a step itself always runs to completion.
func (w *World) Run(ctx context.Context, steps int) (*Result, error) {
	if err := w.cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Stats:   make([]StepStats, 0, steps),
		Metrics: make(map[string]float64),
	}
	for _, m := range w.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, &StepError{Step: w.step, Time: w.time, Wrapped: ctx.Err()}
		default:
		}

		st := w.Step()
		result.Stats = append(result.Stats, st)
		result.StepsTaken++

		for _, m := range w.metrics {
			m.Observe(st)
		}
		for _, o := range w.observers {
			o.OnStep(st)
		}
	}

	for _, m := range w.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
