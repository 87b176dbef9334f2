// Package session implements the client side of the token lifecycle: it
// holds the current access/refresh pair and decides, per outgoing request,
// whether the access token is usable as-is, needs a proactive refresh, or
// whether the session must be re-authenticated from scratch.
package session

import (
	"context"
	"errors"
	"fmt"
	"order-track-api/model"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotAuthenticated means there is no token pair to work with; the
	// caller must log in first.
	ErrNotAuthenticated = errors.New("session is not authenticated")

	// ErrRefreshTokenExpired means the refresh token is past its safe window;
	// only a full re-authentication can recover the session.
	ErrRefreshTokenExpired = errors.New("refresh token expired, re-authentication required")

	// ErrSessionClosed means the session was torn down while the caller was
	// waiting, e.g. by logout during an in-flight refresh.
	ErrSessionClosed = errors.New("session closed")
)

// Rotator exchanges a refresh token for a new token pair. The HTTP client
// implementation talks to the refresh endpoint; tests substitute their own.
type Rotator interface {
	Rotate(ctx context.Context, refreshToken string) (*model.TokenPair, error)
}

// Config carries the coordinator's policy knobs. Lead times control how early
// before an expiry the coordinator acts: a refresh is triggered AccessLeadTime
// before the access token expires, and the session is declared unrecoverable
// RefreshLeadTime before the refresh token expires.
type Config struct {
	AccessLeadTime  time.Duration
	RefreshLeadTime time.Duration
}

// Coordinator guards one session's token pair. All methods are safe for
// concurrent use; at most one refresh is ever in flight, and concurrent
// callers that need one share its outcome instead of racing the server's
// single-use rotation.
type Coordinator struct {
	rotator Rotator
	cfg     Config

	mu         sync.Mutex
	pair       *model.TokenPair
	accessExp  time.Time
	refreshExp time.Time
	closed     bool

	group singleflight.Group

	// ctx is cancelled by Close so that an in-flight rotation, and everyone
	// awaiting it, observes the teardown instead of hanging.
	ctx    context.Context
	cancel context.CancelFunc

	now func() time.Time
}

// NewCoordinator creates an unauthenticated coordinator. Call SetPair after
// login.
func NewCoordinator(rotator Rotator, cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		rotator: rotator,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// SetPair installs a freshly issued token pair, fully replacing any previous
// one. Expiries are derived from the pair's ExpiresIn values.
func (c *Coordinator) SetPair(pair *model.TokenPair) {
	now := c.now()
	c.mu.Lock()
	c.pair = pair
	c.accessExp = now.Add(time.Duration(pair.AccessTokenExpiresIn) * time.Second)
	c.refreshExp = now.Add(time.Duration(pair.RefreshTokenExpiresIn) * time.Second)
	c.mu.Unlock()
}

// Pair returns the current token pair, or nil when unauthenticated.
func (c *Coordinator) Pair() *model.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pair
}

// Token returns an access token that is safe to attach to an outgoing
// request. When the held token is inside its lead-time window (or already
// expired) it refreshes first, so the original request is never sent with a
// token known to be stale. When the refresh token itself is past its safe
// window, the session is torn down and ErrRefreshTokenExpired is returned.
func (c *Coordinator) Token(ctx context.Context) (string, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 2 {
			// A freshly rotated pair should always be outside the lead-time
			// window; if it is not, the configured lead times exceed the TTLs.
			return "", fmt.Errorf("token still stale after refresh: lead times exceed token lifetimes")
		}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return "", ErrSessionClosed
		}
		if c.pair == nil {
			c.mu.Unlock()
			return "", ErrNotAuthenticated
		}

		now := c.now()
		if now.Before(c.accessExp.Add(-c.cfg.AccessLeadTime)) {
			token := c.pair.AccessToken
			c.mu.Unlock()
			return token, nil
		}
		if !now.Before(c.refreshExp.Add(-c.cfg.RefreshLeadTime)) {
			// Too late to rotate safely. Tear down; only re-auth can recover.
			c.pair = nil
			c.mu.Unlock()
			return "", ErrRefreshTokenExpired
		}
		refreshToken := c.pair.RefreshToken
		c.mu.Unlock()

		if err := c.refresh(ctx, refreshToken); err != nil {
			return "", err
		}
		// Loop to re-read state: the single-flight winner installed a new
		// pair, or the session was torn down while we waited.
	}
}

// refresh performs the rotation behind a single-flight guard: concurrent
// callers needing a refresh share one rotation call and its outcome. A
// duplicate concurrent rotate would race the server's single-use invariant
// and one caller would lose for no reason.
func (c *Coordinator) refresh(ctx context.Context, refreshToken string) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		c.mu.Lock()
		// Re-check under the lock: a previous flight may already have
		// installed a fresh pair by the time this caller got here.
		if c.closed {
			c.mu.Unlock()
			return nil, ErrSessionClosed
		}
		if c.pair == nil {
			c.mu.Unlock()
			return nil, ErrNotAuthenticated
		}
		if c.pair.RefreshToken != refreshToken {
			c.mu.Unlock()
			return nil, nil
		}
		c.mu.Unlock()

		// Teardown during the network round-trip cancels this context, so
		// waiters observe the failure instead of retrying indefinitely.
		rctx, cancel := mergeCancel(ctx, c.ctx)
		defer cancel()

		pair, err := c.rotator.Rotate(rctx, refreshToken)
		if err != nil {
			// No partial state: a failed rotation clears the session.
			c.teardown()
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
		c.SetPair(pair)
		return nil, nil
	})
	return err
}

// Close tears the session down. Any request awaiting an in-flight rotation
// observes the cancellation and aborts.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.pair = nil
	c.mu.Unlock()
	c.cancel()
}

func (c *Coordinator) teardown() {
	c.mu.Lock()
	c.pair = nil
	c.mu.Unlock()
}

// mergeCancel returns a context that is cancelled when either parent is.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
