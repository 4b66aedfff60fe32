package service

import (
	"sync"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
)

// DeleteState is where a machine stands in the delete confirmation flow.
type DeleteState string

const (
	DeleteIdle                  DeleteState = "idle"
	DeletePendingConfirm        DeleteState = "pending_confirm"
	DeletePendingCascadeConfirm DeleteState = "pending_cascade_confirm"
)

// DeleteOutcome reports one step of the delete flow.
type DeleteOutcome struct {
	MachineID int64 `json:"machine_id"`

	// State is the state after the step. It is DeleteIdle once the machine
	// is gone.
	State DeleteState `json:"state"`

	// Interventions is the number of interventions the machine had when the
	// step ran.
	Interventions int    `json:"interventions"`
	Deleted       bool   `json:"deleted"`
	Message       string `json:"message"`
}

// DeleteStep is the stored position of one machine in the delete flow.
type DeleteStep struct {
	State DeleteState

	// Interventions is the count the last message warned about, which is
	// the number the next request confirms deleting.
	Interventions int
}

type pendingDelete struct {
	step    DeleteStep
	armedAt time.Time
}

// DeleteConfirmations holds the armed delete confirmations, keyed by machine
// id. A machine without an entry is Idle. Entries older than the TTL read as
// Idle, the same as the user navigating away.
type DeleteConfirmations struct {
	// mu guards pending and locks. It is never held across a store call.
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[int64]pendingDelete
	locks   map[int64]*machineLock
}

// machineLock serializes the steps of one machine. refs counts the holders
// and waiters, so the lock is dropped once nobody needs it.
type machineLock struct {
	mu   sync.Mutex
	refs int
}

func NewDeleteConfirmations(ttl time.Duration) *DeleteConfirmations {
	return &DeleteConfirmations{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[int64]pendingDelete),
		locks:   make(map[int64]*machineLock),
	}
}

// State returns the current state of machineID.
func (c *DeleteConfirmations) State(machineID int64) DeleteState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepLocked(machineID).State
}

// Cancel resets machineID to Idle. It waits for a running step of the same
// machine. It reports whether a confirmation was armed.
func (c *DeleteConfirmations) Cancel(machineID int64) bool {
	unlock := c.lockMachine(machineID)
	defer unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	armed := c.stepLocked(machineID).State != DeleteIdle
	delete(c.pending, machineID)
	return armed
}

// Step runs fn with the current step of machineID, then stores the step fn
// returns. Steps of the same machine are serialized; steps of different
// machines run concurrently. When fn fails the stored state is kept, except
// that a machine which no longer exists goes back to Idle.
func (c *DeleteConfirmations) Step(machineID int64, fn func(current DeleteStep) (DeleteStep, error)) error {
	unlock := c.lockMachine(machineID)
	defer unlock()

	c.mu.Lock()
	c.expireLocked()
	current := c.stepLocked(machineID)
	c.mu.Unlock()

	next, err := fn(current)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			delete(c.pending, machineID)
		}
		return err
	}

	if next.State == DeleteIdle {
		delete(c.pending, machineID)
	} else {
		c.pending[machineID] = pendingDelete{step: next, armedAt: c.now()}
	}
	return nil
}

func (c *DeleteConfirmations) lockMachine(machineID int64) (unlock func()) {
	c.mu.Lock()
	l, ok := c.locks[machineID]
	if !ok {
		l = &machineLock{}
		c.locks[machineID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, machineID)
		}
		c.mu.Unlock()
	}
}

func (c *DeleteConfirmations) stepLocked(machineID int64) DeleteStep {
	p, ok := c.pending[machineID]
	if !ok || c.expired(p) {
		return DeleteStep{State: DeleteIdle}
	}
	return p.step
}

func (c *DeleteConfirmations) expireLocked() {
	for id, p := range c.pending {
		if c.expired(p) {
			delete(c.pending, id)
		}
	}
}

func (c *DeleteConfirmations) expired(p pendingDelete) bool {
	return c.ttl > 0 && c.now().Sub(p.armedAt) > c.ttl
}
