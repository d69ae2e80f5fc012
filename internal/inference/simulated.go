package inference

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"visionserver/internal/model"
)

// SimulatedModel produces a uniformly random confidence score per frame,
// rounded to two decimals. It mirrors the behavior of the dummy model the
// system was developed against.
type SimulatedModel struct {
	mu      sync.Mutex
	rng     *rand.Rand
	latency time.Duration
	loaded  bool
}

func NewSimulatedModel() *SimulatedModel {
	return &SimulatedModel{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLatency adds an artificial delay to every Infer call.
func (m *SimulatedModel) SetLatency(d time.Duration) {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
}

func (m *SimulatedModel) Load() error {
	m.mu.Lock()
	m.loaded = true
	m.mu.Unlock()
	return nil
}

func (m *SimulatedModel) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *SimulatedModel) Infer(ctx context.Context, frame *model.Frame) (*model.InferenceOutcome, error) {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return nil, ErrModelNotLoaded
	}
	confidence := math.Round(m.rng.Float64()*100) / 100
	latency := m.latency
	m.mu.Unlock()

	start := time.Now()
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &model.InferenceOutcome{
		Confidence: confidence,
		Elapsed:    time.Since(start),
	}, nil
}
