// Package deploy orchestrates A/B slot deployments. Each switch group owns a
// pair of production slots; a deployment always lands on the inactive slot,
// is validated there, and only then becomes active through a single flag
// flip. The previously active slot is never touched, so rollback is pure
// bookkeeping.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ozmeta-labs/ozmeta/internal/state"
)

// State is one phase of the deployment state machine.
type State string

const (
	StateIdle        State = "Idle"
	StateCompiling   State = "Compiling"
	StateDeploying   State = "Deploying"
	StateValidating  State = "Validating"
	StatePromoting   State = "Promoting"
	StateRollingBack State = "RollingBack"
)

// Production slot names.
const (
	SlotProdA = "ProdA"
	SlotProdB = "ProdB"
)

// ErrValidationFailed marks a validation hook failure; the deployment rolls
// back and the active slot stays authoritative.
var ErrValidationFailed = errors.New("validation failed")

// ErrDeployFailed marks a deploy hook failure.
var ErrDeployFailed = errors.New("deploy failed")

// Error reports which state a deployment failed in.
type Error struct {
	Group string
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("group %s: %s: %v", e.Group, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Hooks are the caller-supplied operations the controller drives. Every hook
// receives a context bounded by the controller's timeout; a hook that
// overruns is treated as failed.
type Hooks struct {
	// Compile builds artifacts for the named slot and returns the manifest
	// digest identifying what would be deployed.
	Compile func(ctx context.Context, slot string) (manifestSHA string, err error)
	// Deploy applies the compiled artifacts to the named (inactive) slot.
	Deploy func(ctx context.Context, slot string) error
	// Validate runs smoke, drift and quality checks against the named slot.
	Validate func(ctx context.Context, slot string) error
}

// Outcome describes a completed deployment attempt.
type Outcome struct {
	Deployment   *state.Deployment
	ActiveSlot   string // slot active after the operation
	PreviousSlot string // slot active before the operation, "" if none
}

// Controller runs slot deployments. Operations on the same switch group are
// serialized; different groups proceed independently.
type Controller struct {
	store   *state.Store
	log     *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	groups map[string]*groupLock
}

// groupLock serializes runs per group. mu is held for the whole run;
// stateMu guards the observable state so GroupState never blocks behind an
// in-flight deployment.
type groupLock struct {
	mu sync.Mutex

	stateMu sync.Mutex
	state   State
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithTimeout bounds each hook invocation. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// NewController returns a controller persisting to the given state store.
func NewController(store *state.Store, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		log:    slog.New(slog.DiscardHandler),
		groups: make(map[string]*groupLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GroupState reports the current machine state for a group. Groups with no
// in-flight operation are Idle.
func (c *Controller) GroupState(group string) State {
	g := c.group(group)
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	if g.state == "" {
		return StateIdle
	}
	return g.state
}

func (c *Controller) group(name string) *groupLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[name]
	if !ok {
		g = &groupLock{state: StateIdle}
		c.groups[name] = g
	}
	return g
}

// InactiveSlot returns the slot a new deployment for the group would land
// on. A group that has never been switched deploys to ProdA.
func (c *Controller) InactiveSlot(group string) (string, error) {
	active, err := c.store.ActiveSlot(group)
	if err != nil {
		return "", err
	}
	return otherSlot(active), nil
}

func otherSlot(active string) string {
	if active == SlotProdA {
		return SlotProdB
	}
	return SlotProdA
}

// Run executes one full deployment cycle for a switch group: compile the
// inactive slot, deploy to it, validate it, then promote it with a single
// atomic slot flip. Any failure after compilation rolls back; the previously
// active slot is never modified. Only one Run per group is in flight at a
// time.
func (c *Controller) Run(ctx context.Context, group, targetPlatformID string, hooks Hooks) (*Outcome, error) {
	g := c.group(group)
	g.mu.Lock()
	defer g.mu.Unlock()
	defer c.setState(g, group, StateIdle)

	previous, err := c.store.ActiveSlot(group)
	if err != nil {
		return nil, err
	}
	slot := otherSlot(previous)

	c.setState(g, group, StateCompiling)
	sha, err := c.compile(ctx, slot, hooks)
	if err != nil {
		// Nothing reached the slot; record the attempt and stop.
		c.record(group, slot, targetPlatformID, "", state.DeploymentFailed, err)
		return nil, &Error{Group: group, State: StateCompiling, Err: err}
	}

	dep, err := c.store.BeginDeployment(group, slot, targetPlatformID, sha)
	if err != nil {
		return nil, err
	}

	c.setState(g, group, StateDeploying)
	if err := c.invoke(ctx, slot, hooks.Deploy); err != nil {
		err = fmt.Errorf("%w: %v", ErrDeployFailed, err)
		return nil, c.rollback(g, group, dep, StateDeploying, err)
	}

	c.setState(g, group, StateValidating)
	if err := c.invoke(ctx, slot, hooks.Validate); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidationFailed, err)
		return nil, c.rollback(g, group, dep, StateValidating, err)
	}

	c.setState(g, group, StatePromoting)
	if err := c.store.SetActiveSlot(group, slot); err != nil {
		return nil, c.rollback(g, group, dep, StatePromoting, err)
	}
	if err := c.store.CompleteDeployment(dep.ID, state.DeploymentSucceeded, ""); err != nil {
		return nil, err
	}

	c.log.Info("slot promoted", "group", group, "slot", slot, "previous", previous)
	return &Outcome{Deployment: dep, ActiveSlot: slot, PreviousSlot: previous}, nil
}

func (c *Controller) compile(ctx context.Context, slot string, hooks Hooks) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return hooks.Compile(ctx, slot)
}

func (c *Controller) invoke(ctx context.Context, slot string, hook func(context.Context, string) error) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hook(ctx, slot) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// rollback closes the deployment record and restores Idle. The active slot
// was never changed, so there is nothing to undo on the platform.
func (c *Controller) rollback(g *groupLock, group string, dep *state.Deployment, at State, cause error) error {
	c.setState(g, group, StateRollingBack)
	c.log.Warn("rolling back", "group", group, "slot", dep.Slot, "state", at, "error", cause)
	if err := c.store.CompleteDeployment(dep.ID, state.DeploymentRolledBack, cause.Error()); err != nil {
		c.log.Error("recording rollback failed", "group", group, "error", err)
	}
	return &Error{Group: group, State: at, Err: cause}
}

// record writes a closed failure record for attempts that never opened a
// deployment (compile failures).
func (c *Controller) record(group, slot, targetPlatformID, sha string, status state.DeploymentStatus, cause error) {
	dep, err := c.store.BeginDeployment(group, slot, targetPlatformID, sha)
	if err != nil {
		c.log.Error("recording attempt failed", "group", group, "error", err)
		return
	}
	if err := c.store.CompleteDeployment(dep.ID, status, cause.Error()); err != nil {
		c.log.Error("recording attempt failed", "group", group, "error", err)
	}
}

func (c *Controller) setState(g *groupLock, group string, s State) {
	g.stateMu.Lock()
	g.state = s
	g.stateMu.Unlock()
	if s != StateIdle {
		c.log.Debug("state transition", "group", group, "state", string(s))
	}
}
