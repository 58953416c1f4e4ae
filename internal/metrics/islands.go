package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/world"
)

// IslandCount tracks the mean and peak number of solver islands per
// step.
type IslandCount struct {
	name    string
	samples int
	total   float64
	max     float64
}

func NewIslandCount() *IslandCount {
	return &IslandCount{name: "islands"}
}

func (m *IslandCount) Name() string { return m.name }

func (m *IslandCount) Observe(st world.StepStats) {
	m.total += float64(st.Islands)
	m.max = math.Max(m.max, float64(st.Islands))
	m.samples++
}

func (m *IslandCount) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

// Max is the largest island count seen during the run.
func (m *IslandCount) Max() float64 { return m.max }

func (m *IslandCount) Reset() {
	m.samples = 0
	m.total = 0
	m.max = 0
}

// ActiveBodies tracks the mean size of the active dynamic set.
type ActiveBodies struct {
	name    string
	samples int
	total   float64
	peak    float64
}

func NewActiveBodies() *ActiveBodies {
	return &ActiveBodies{name: "active_bodies"}
}

func (m *ActiveBodies) Name() string { return m.name }

func (m *ActiveBodies) Observe(st world.StepStats) {
	m.total += float64(st.ActiveBodies)
	m.peak = math.Max(m.peak, float64(st.ActiveBodies))
	m.samples++
}

func (m *ActiveBodies) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *ActiveBodies) Peak() float64 { return m.peak }

func (m *ActiveBodies) Reset() {
	m.samples = 0
	m.total = 0
	m.peak = 0
}

// SleepEvents counts sleep transitions: how many bodies fell asleep
// over the run. Wake-ups that shrink the sleeping count are not
// subtracted.
type SleepEvents struct {
	name  string
	prev  int
	total float64
	seen  bool
}

func NewSleepEvents() *SleepEvents {
	return &SleepEvents{name: "sleep_events"}
}

func (m *SleepEvents) Name() string { return m.name }

func (m *SleepEvents) Observe(st world.StepStats) {
	if m.seen && st.SleepingBodies > m.prev {
		m.total += float64(st.SleepingBodies - m.prev)
	}
	if !m.seen {
		m.total += float64(st.SleepingBodies)
		m.seen = true
	}
	m.prev = st.SleepingBodies
}

func (m *SleepEvents) Value() float64 { return m.total }

func (m *SleepEvents) Reset() {
	m.prev = 0
	m.total = 0
	m.seen = false
}
