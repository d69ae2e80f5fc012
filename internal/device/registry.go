package device

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"visionserver/internal/model"
)

// State of a registered device.
type State string

const (
	StateIdle        State = "idle"
	StateBusy        State = "busy"
	StateUnavailable State = "unavailable"
)

type entry struct {
	camera Camera
	state  State
}

// Registry maps device ids to their capture capability and busy/idle state.
// Trigger and Release are the only state transitions; Release is called
// exactly once per successful Trigger, by the orchestrator.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*entry)}
}

func (r *Registry) Register(id string, camera Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[id] = &entry{camera: camera, state: StateIdle}
}

func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, id)
}

// Trigger atomically transitions the device to busy and mints a new capture
// request. It fails with ErrDeviceBusy while a previous request is in flight,
// ErrDeviceUnknown for unregistered ids and ErrDeviceUnavailable when the
// capability reports the device unreachable.
func (r *Registry) Trigger(id string, threshold float64) (*model.CaptureRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceUnknown
	}
	if dev.state == StateBusy {
		return nil, ErrDeviceBusy
	}
	if !dev.camera.Connected() {
		dev.state = StateUnavailable
		return nil, ErrDeviceUnavailable
	}

	dev.state = StateBusy
	return &model.CaptureRequest{
		CorrelationID: uuid.NewString(),
		Device:        id,
		Threshold:     threshold,
		SubmittedAt:   time.Now(),
	}, nil
}

// Release returns the device to idle. Unknown ids are ignored; the device may
// have been deregistered while its last request was in flight.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dev, ok := r.devices[id]; ok {
		dev.state = StateIdle
	}
}

func (r *Registry) State(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[id]
	if !ok {
		return "", false
	}
	return dev.state, true
}

// Camera returns the capability handle for a device.
func (r *Registry) Camera(id string) (Camera, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[id]
	if !ok {
		return nil, false
	}
	return dev.camera, true
}

// IDs returns the registered device ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	return ids
}
