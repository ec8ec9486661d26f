package apiclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

func (s refreshState) String() string {
	if s == stateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// sendFunc performs one attempt of a request with the given access token
type sendFunc func(ctx context.Context, token string) error

// pendingCall is a request parked until the in-flight refresh settles
type pendingCall struct {
	ctx  context.Context
	send sendFunc
	done chan error
}

// refresher owns the Idle/Refreshing state and the FIFO queue of an
// authenticated client
type refresher struct {
	mu    sync.Mutex
	state refreshState
	queue []*pendingCall

	// gen counts settled exchanges; failed is the outcome of the latest one
	gen    uint64
	failed *RefreshError

	store     TokenStore
	exchange  func(ctx context.Context, refreshToken string) (Tokens, error)
	onExpired func(error)
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

// do runs send, recovering from an auth-expired failure through the refresh
// protocol
func (r *refresher) do(ctx context.Context, send sendFunc) error {
	r.mu.Lock()
	if r.state == stateRefreshing {
		p := r.enqueueLocked(ctx, send)
		r.mu.Unlock()
		return r.wait(p)
	}
	token, gen := r.store.AccessToken(), r.gen
	r.mu.Unlock()

	err := send(ctx, token)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}
	return r.recover(ctx, token, gen, send, err)
}

// recover handles a request that failed with ErrUnauthorized while using
// token, issued when gen exchanges had settled
func (r *refresher) recover(ctx context.Context, used string, gen uint64, send sendFunc, cause error) error {
	r.mu.Lock()

	if r.state == stateRefreshing {
		p := r.enqueueLocked(ctx, send)
		r.mu.Unlock()
		return r.wait(p)
	}

	// The session was cleared by an exchange that failed while this request
	// was in flight
	if r.gen != gen && r.failed != nil {
		err := r.failed
		r.mu.Unlock()
		return err
	}

	// A refresh finished while this request was in flight
	if current := r.store.AccessToken(); current != "" && current != used {
		r.mu.Unlock()
		return send(ctx, current)
	}

	refreshToken := r.store.RefreshToken()
	if refreshToken == "" {
		r.mu.Unlock()
		return cause
	}

	p := r.enqueueLocked(ctx, send)
	r.state = stateRefreshing
	r.mu.Unlock()

	r.logger.Debug("access token rejected, refreshing")
	go r.run(refreshToken)

	return r.wait(p)
}

// forceRefresh starts a refresh (or joins the in-flight one) without a
// request to replay
func (r *refresher) forceRefresh(ctx context.Context) error {
	noop := func(context.Context, string) error { return nil }

	r.mu.Lock()
	if r.state == stateRefreshing {
		p := r.enqueueLocked(ctx, noop)
		r.mu.Unlock()
		return r.wait(p)
	}

	refreshToken := r.store.RefreshToken()
	if refreshToken == "" {
		r.mu.Unlock()
		return ErrNotAuthenticated
	}

	p := r.enqueueLocked(ctx, noop)
	r.state = stateRefreshing
	r.mu.Unlock()

	go r.run(refreshToken)
	return r.wait(p)
}

func (r *refresher) enqueueLocked(ctx context.Context, send sendFunc) *pendingCall {
	p := &pendingCall{ctx: ctx, send: send, done: make(chan error, 1)}
	r.queue = append(r.queue, p)
	r.metrics.setQueueDepth(len(r.queue))
	return p
}

// wait blocks until p is settled or its caller gives up
func (r *refresher) wait(p *pendingCall) error {
	select {
	case err := <-p.done:
		return err
	case <-p.ctx.Done():
		r.drop(p)
		return p.ctx.Err()
	}
}

// drop removes an abandoned call from the queue
func (r *refresher) drop(p *pendingCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.queue, p); i >= 0 {
		r.queue = slices.Delete(r.queue, i, i+1)
		r.metrics.setQueueDepth(len(r.queue))
	}
}

// run performs the single token exchange and settles the queue
func (r *refresher) run(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	tokens, err := r.exchange(ctx, refreshToken)
	if err == nil {
		if serr := r.store.SetTokens(tokens); serr != nil {
			// The new tokens are live in memory; only persistence failed
			r.logger.Warn("failed to persist refreshed tokens", "error", serr)
		}
	} else if cerr := r.store.Clear(); cerr != nil {
		r.logger.Warn("failed to clear session", "error", cerr)
	}

	var rerr *RefreshError
	if err != nil {
		rerr = &RefreshError{Err: err}
	}

	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.state = stateIdle
	r.gen++
	r.failed = rerr
	r.metrics.setQueueDepth(0)
	r.mu.Unlock()

	if rerr != nil {
		r.metrics.observeRefresh(false)
		r.logger.Info("token refresh failed, session cleared", "error", err, "rejected", len(queue))
		for _, p := range queue {
			p.done <- rerr
		}
		if r.onExpired != nil {
			r.onExpired(rerr)
		}
		return
	}

	r.metrics.observeRefresh(true)
	r.logger.Debug("token refreshed", "replaying", len(queue))
	for _, p := range queue {
		if ctxErr := p.ctx.Err(); ctxErr != nil {
			p.done <- ctxErr
			continue
		}
		p.done <- p.send(p.ctx, tokens.AccessToken)
	}
}

// exchangeRefreshToken calls the refresh endpoint without a bearer token and
// outside the refresh protocol
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (Tokens, error) {
	body, err := encodeBody(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return Tokens{}, err
	}

	var tokens Tokens
	req := &Request{Method: http.MethodPost, Path: c.refreshPath}
	if err := c.roundTrip(ctx, req, body, "", &tokens); err != nil {
		return Tokens{}, err
	}
	if tokens.AccessToken == "" {
		return Tokens{}, errors.New("refresh response has no access token")
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}
