package model

import (
	"errors"
	"fmt"
	"sync"
)

// State tracks the process lifecycle of the model artifact.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	// StateFailed is terminal: the process stays unhealthy until restarted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNotReady is returned when prediction is attempted before the handle
// reached StateReady.
var ErrNotReady = errors.New("model not ready")

// Handle wraps the trained network and the fitted scaler. It is constructed
// once at startup, immutable after a successful Load, and shared read-only
// by all concurrent requests.
type Handle struct {
	mu      sync.RWMutex
	state   State
	network *Network
	scaler  *Scaler
}

// NewHandle returns an uninitialized handle.
func NewHandle() *Handle {
	return &Handle{state: StateUninitialized}
}

// Load reads both artifacts and moves the handle to StateReady, or to the
// terminal StateFailed on any error.
func (h *Handle) Load(modelPath, scalerPath string) error {
	h.mu.Lock()
	h.state = StateLoading
	h.mu.Unlock()

	fail := func(err error) error {
		h.mu.Lock()
		h.state = StateFailed
		h.mu.Unlock()
		return err
	}

	network, err := LoadNetwork(modelPath)
	if err != nil {
		return fail(fmt.Errorf("load model: %w", err))
	}
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return fail(fmt.Errorf("load scaler: %w", err))
	}
	if scaler.Dim() != network.InDim() {
		return fail(fmt.Errorf("artifact mismatch: scaler dim %d, model dim %d", scaler.Dim(), network.InDim()))
	}

	h.mu.Lock()
	h.network = network
	h.scaler = scaler
	h.state = StateReady
	h.mu.Unlock()
	return nil
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Ready reports whether both artifacts are loaded.
func (h *Handle) Ready() bool { return h.State() == StateReady }

// Version returns the loaded model's version, or empty when not ready.
func (h *Handle) Version() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.network == nil {
		return ""
	}
	return h.network.Version()
}

// Scale applies the fitted scaler transform to a raw batch.
func (h *Handle) Scale(batch [][]float64) ([][]float64, error) {
	h.mu.RLock()
	scaler := h.scaler
	ready := h.state == StateReady
	h.mu.RUnlock()
	if !ready {
		return nil, ErrNotReady
	}
	return scaler.Transform(batch)
}

// Forward runs already-scaled rows through the network.
func (h *Handle) Forward(scaled [][]float64) ([]float64, error) {
	h.mu.RLock()
	network := h.network
	ready := h.state == StateReady
	h.mu.RUnlock()
	if !ready {
		return nil, ErrNotReady
	}
	return network.Forward(scaled)
}
