package acquire

import (
	"sync"

	"github.com/rs/zerolog"

	"scantext/internal/logger"
	"scantext/pkg/models"
)

// State is the acquisition state of a session. Exactly one acquisition may be
// in flight at a time.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateImporting
	StateScanning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateImporting:
		return "importing"
	case StateScanning:
		return "scanning"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Machine serializes the three acquisition sources onto a single state slot.
//
// Start requests while an acquisition is in flight are rejected with
// ErrAcquisitionBusy rather than queued. Completion events are only accepted
// for the source currently in flight, so a duplicated completion (the UI
// re-observing the same event) is discarded with ErrUnexpectedCompletion
// instead of dispatching the batch twice.
type Machine struct {
	mu      sync.Mutex
	state   State
	lastErr error
	handoff func(Batch)
	log     zerolog.Logger
}

// NewMachine creates an idle machine. handoff receives each completed batch
// exactly once; it is called without the machine lock held, but the machine
// stays in StateCompleted until handoff returns, so no new acquisition can
// start mid-dispatch.
func NewMachine(handoff func(Batch)) *Machine {
	return &Machine{
		handoff: handoff,
		log:     logger.WithComponent("acquire"),
	}
}

// State returns the current acquisition state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError returns the error recorded by the most recent failed acquisition.
func (m *Machine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// StartCapture reserves the machine for a live capture.
func (m *Machine) StartCapture() error { return m.start(StateCapturing) }

// StartImport reserves the machine for a gallery import.
func (m *Machine) StartImport() error { return m.start(StateImporting) }

// StartScan reserves the machine for a multi-page document scan.
func (m *Machine) StartScan() error { return m.start(StateScanning) }

func (m *Machine) start(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		m.log.Warn().
			Str("state", m.state.String()).
			Str("requested", next.String()).
			Msg("Acquisition request rejected while another is in flight")
		return ErrAcquisitionBusy
	}
	m.state = next
	m.lastErr = nil
	m.log.Debug().Str("state", next.String()).Msg("Acquisition started")
	return nil
}

// CompleteCapture delivers the captured image and dispatches a single-image
// batch.
func (m *Machine) CompleteCapture(img models.AcquiredImage) error {
	return m.complete(StateCapturing, Batch{Images: []models.AcquiredImage{img}})
}

// CompleteImport delivers the gallery pick result. A nil image means the user
// cancelled; the machine returns to idle without dispatching a batch.
func (m *Machine) CompleteImport(img *models.AcquiredImage) error {
	if img == nil {
		return m.cancel(StateImporting)
	}
	return m.complete(StateImporting, Batch{Images: []models.AcquiredImage{*img}})
}

// CompleteScan delivers the scanner result. An empty page list means the user
// cancelled; the machine returns to idle and any combined PDF is discarded.
func (m *Machine) CompleteScan(batch Batch) error {
	if len(batch.Images) == 0 {
		return m.cancel(StateScanning)
	}
	return m.complete(StateScanning, batch)
}

// Fail records an acquisition failure for the in-flight source and returns the
// machine to idle. No retry is automatic.
func (m *Machine) Fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateCapturing, StateImporting, StateScanning:
	default:
		return ErrUnexpectedCompletion
	}

	m.log.Warn().Err(err).Str("state", m.state.String()).Msg("Acquisition failed")
	m.lastErr = err
	m.state = StateIdle
	return nil
}

func (m *Machine) cancel(from State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != from {
		m.log.Warn().
			Str("state", m.state.String()).
			Str("expected", from.String()).
			Msg("Ignoring completion with no matching acquisition")
		return ErrUnexpectedCompletion
	}
	m.log.Debug().Str("state", from.String()).Msg("Acquisition cancelled by user")
	m.state = StateIdle
	return nil
}

func (m *Machine) complete(from State, batch Batch) error {
	m.mu.Lock()
	if m.state != from {
		state := m.state
		m.mu.Unlock()
		m.log.Warn().
			Str("state", state.String()).
			Str("expected", from.String()).
			Msg("Ignoring completion with no matching acquisition")
		return ErrUnexpectedCompletion
	}
	m.state = StateCompleted
	m.mu.Unlock()

	// Dispatch outside the lock. Completions and starts arriving here are
	// still rejected because the state is Completed, not Idle.
	m.log.Info().Int("images", len(batch.Images)).Bool("scan_pdf", batch.ScanPDF != nil).Msg("Acquisition completed")
	m.handoff(batch)

	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
	return nil
}
