package feedback

import (
	"context"
	"log/slog"
	"sync"

	"chatwidgets/internal/contextutil"
)

// State is the lifecycle state of a Controller.
type State int

const (
	// StateIdle means no embed is shown. After a failed or empty token fetch
	// the controller settles back here with Snapshot.Err set.
	StateIdle State = iota
	// StateAcquiring means a token request for the current params is in flight.
	StateAcquiring
	// StateReady means a token was obtained for the current params and EmbedURL is set.
	StateReady
	// StateEmpty means the params are incomplete; nothing is requested or shown.
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a Controller.
type Snapshot struct {
	State      State
	Activation uint64 // increases every time a new token request is issued or params are cleared
	Params     Params
	EmbedURL   string
	Err        error // why the current activation has no embed, if it settled without one
	Unmounted  bool
}

// Renderable reports whether an embed should be shown.
func (s Snapshot) Renderable() bool {
	return !s.Unmounted && s.State == StateReady && s.EmbedURL != ""
}

// Controller drives one feedback widget instance from its input params to an
// authorized embed URL. Only the response to the most recent activation may
// change state; earlier responses, and anything arriving after Unmount, are dropped.
//
// A Controller is safe for concurrent use.
type Controller struct {
	tokens   TokenSource
	basePath string
	onChange func(Snapshot)
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	activation uint64
	params     Params
	embedURL   string
	err        error
	unmounted  bool
	cancel     context.CancelFunc
	// settled is open while the current activation is acquiring and nil otherwise.
	settled chan struct{}
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithOnChange registers an observer called after every committed transition.
// It runs outside the controller's lock; snapshots from different activations
// may arrive out of order, so observers should compare Activation.
func WithOnChange(fn func(Snapshot)) ControllerOption {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithBasePath overrides the embed document path.
func WithBasePath(path string) ControllerOption {
	return func(c *Controller) {
		c.basePath = path
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller in StateIdle.
func NewController(tokens TokenSource, opts ...ControllerOption) *Controller {
	c := &Controller{
		tokens:   tokens,
		basePath: EmbedPath,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update applies the widget's current params. Call it on mount and whenever
// any of the params changes. Incomplete params clear the embed without a
// request. Re-applying the params of the current activation is a no-op, so a
// failed activation is not retried.
//
// The token request keeps ctx's values but not its cancellation: it ends
// when the activation is superseded or the controller is unmounted, so a
// request-scoped ctx ending early does not fail the activation.
func (c *Controller) Update(ctx context.Context, p Params) {
	logger := c.loggerFrom(ctx)

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}

	if !p.Complete() {
		if c.state == StateEmpty && c.params == p {
			c.mu.Unlock()
			return
		}
		c.supersedeLocked()
		c.activation++
		c.params = p
		c.state = StateEmpty
		snap := c.snapshotLocked()
		c.mu.Unlock()

		logger.DebugContext(ctx, "feedback params incomplete, embed cleared", "activation", snap.Activation)
		c.notify(snap)
		return
	}

	if c.activation > 0 && c.state != StateEmpty && c.params == p {
		c.mu.Unlock()
		return
	}

	c.supersedeLocked()
	c.activation++
	id := c.activation
	c.params = p
	c.state = StateAcquiring
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.settled = make(chan struct{})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	logger.DebugContext(ctx, "requesting feedback token", "activation", id, "project_id", p.ProjectID)
	c.notify(snap)
	go c.acquire(fetchCtx, id, p)
}

// acquire runs one token request and commits its result if the activation is still current.
func (c *Controller) acquire(ctx context.Context, id uint64, p Params) {
	logger := c.loggerFrom(ctx)

	token, err := c.tokens.FetchToken(ctx)

	c.mu.Lock()
	if c.unmounted || id != c.activation {
		c.mu.Unlock()
		logger.DebugContext(ctx, "discarding stale token response", "activation", id)
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	switch {
	case err != nil:
		c.state = StateIdle
		c.err = err
		logger.WarnContext(ctx, "feedback token request failed", "activation", id, "error", err)
	case token == "":
		c.state = StateIdle
		c.err = ErrNoToken
		logger.WarnContext(ctx, "feedback token endpoint returned no token", "activation", id)
	default:
		embedURL, buildErr := BuildEmbedURL(c.basePath, token, p)
		if buildErr != nil {
			c.state = StateIdle
			c.err = buildErr
			break
		}
		c.embedURL = embedURL
		c.state = StateReady
	}
	c.closeSettledLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if snap.State == StateReady {
		logger.DebugContext(ctx, "feedback embed ready", "activation", id)
	}
	c.notify(snap)
}

// Unmount tears the controller down. Pending and later results are ignored.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.supersedeLocked()
	c.unmounted = true
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until the current activation settles, i.e. the controller is no
// longer acquiring, or until ctx is done. If a newer activation supersedes the
// one being waited on, Wait keeps waiting for the newer one.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		ch := c.settled
		if ch == nil {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, nil
		}
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
}

// supersedeLocked abandons the current activation: the in-flight request is
// cancelled, waiters are released and any token-derived state is dropped.
func (c *Controller) supersedeLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.closeSettledLocked()
	c.embedURL = ""
	c.err = nil
}

func (c *Controller) closeSettledLocked() {
	if c.settled != nil {
		close(c.settled)
		c.settled = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:      c.state,
		Activation: c.activation,
		Params:     c.params,
		EmbedURL:   c.embedURL,
		Err:        c.err,
		Unmounted:  c.unmounted,
	}
}

func (c *Controller) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func (c *Controller) loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := contextutil.LoggerFromContextOK(ctx); ok {
		return l
	}
	return c.logger
}
