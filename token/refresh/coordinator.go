package refresh

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Func obtains a new access token from the backend.
type Func func(ctx context.Context) (string, error)

// Result is what every waiter of a refresh receives.
// Token is empty exactly when Err is set.
type Result struct {
	Token string
	Err   error
}

// Coordinator makes sure at most one refresh is in flight and that every caller
// waiting on it is released with the same outcome.
//
// A wave is the set of callers enqueued while one refresh is in flight; it ends when
// that refresh releases them. Callers that report a token which has already been
// replaced get the current one straight away. A rejection arriving after a failed
// wave has settled starts a new refresh.
type Coordinator struct {
	refresh Func
	current func() string
	logger  zerolog.Logger

	lock      sync.Mutex
	inFlight  bool
	waiters   []chan Result // released in enqueue order
	refreshes int
}

// CoordinatorOption defines a function type to modify the Coordinator instance.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the logger used for refresh outcomes.
func WithLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator returns a Coordinator that calls refresh to mint tokens and current
// to read the token presently held by the session.
func NewCoordinator(refresh Func, current func() string, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		refresh: refresh,
		current: current,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Refresh joins the in-flight refresh, or starts one, and waits for its result.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.lock.Lock()
	ch := c.enqueueLocked(ctx)
	c.lock.Unlock()
	return wait(ctx, ch)
}

// Renew recovers from the backend rejecting the rejected token.
// A cancelled ctx is returned as is and never starts a refresh.
func (c *Coordinator) Renew(ctx context.Context, rejected string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.lock.Lock()
	if held := c.current(); held != "" && held != rejected {
		c.lock.Unlock()
		return held, nil
	}
	ch := c.enqueueLocked(ctx)
	c.lock.Unlock()
	return wait(ctx, ch)
}

// Pending returns how many callers wait on the refresh in flight.
func (c *Coordinator) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.waiters)
}

// Refreshes returns how many refresh calls have been started.
func (c *Coordinator) Refreshes() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.refreshes
}

// enqueueLocked adds a waiter and starts the refresh when none is in flight.
// The caller must hold c.lock.
func (c *Coordinator) enqueueLocked(ctx context.Context) chan Result {
	ch := make(chan Result, 1)
	c.waiters = append(c.waiters, ch)
	if !c.inFlight {
		c.inFlight = true
		c.refreshes++
		go c.run(context.WithoutCancel(ctx))
	}
	return ch
}

// run performs one refresh. ctx carries the starter's values but not its cancellation:
// waiters may give up on their own, the refresh itself always completes.
func (c *Coordinator) run(ctx context.Context) {
	token, err := c.refresh(ctx)
	if err == nil && token == "" {
		err = apperrors.ErrMissingAccessToken
	}
	if err != nil {
		err = apperrors.Wrapf(apperrors.ErrRefreshFailed, "[Coordinator] %v", err)
		token = ""
	}

	c.lock.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.lock.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Int("waiters", len(waiters)).Msg("token refresh failed")
	} else {
		c.logger.Debug().Int("waiters", len(waiters)).Msg("token refreshed")
	}

	for _, w := range waiters {
		w <- Result{Token: token, Err: err}
	}
}

func wait(ctx context.Context, ch chan Result) (string, error) {
	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
