// Package buffer owns the single staging buffer used to build outbound
// documents and the discipline around it: exclusive leases, pagination of
// large listings and downsampling of live pixel snapshots.
package buffer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"led-json-bridge/internal/logging"
)

var (
	// ErrLockUnavailable means another caller holds the staging buffer. It is
	// retryable.
	ErrLockUnavailable = errors.New("buffer: staging buffer is in use")
	// ErrBufferFull means a document outgrew the staging buffer.
	ErrBufferFull = errors.New("buffer: staging buffer capacity exceeded")
)

// DefaultSize is the JSON buffer size of an ESP32 controller.
const DefaultSize = 24 * 1024

// Arbiter hands out exclusive leases on one Staging buffer.
type Arbiter struct {
	sem    *semaphore.Weighted
	buf    *Staging
	wait   time.Duration
	logger *logging.Logger

	mu     sync.Mutex
	holder string
}

// NewArbiter creates an arbiter over a buffer of size bytes. Acquire waits at
// most wait for a busy buffer; zero means fail immediately.
func NewArbiter(size int, wait time.Duration, logger *logging.Logger) *Arbiter {
	if size <= 0 {
		size = DefaultSize
	}
	return &Arbiter{
		sem:    semaphore.NewWeighted(1),
		buf:    NewStaging(size),
		wait:   wait,
		logger: logger,
	}
}

// Acquire takes the buffer for holder, waiting up to the configured bound or
// until ctx is done. It never blocks indefinitely.
func (a *Arbiter) Acquire(ctx context.Context, holder string) (*Lease, error) {
	if a.sem.TryAcquire(1) {
		return a.grant(holder), nil
	}
	if a.wait <= 0 {
		return nil, a.contended(holder)
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.wait)
	defer cancel()
	if err := a.sem.Acquire(waitCtx, 1); err != nil {
		return nil, a.contended(holder)
	}
	return a.grant(holder), nil
}

// TryAcquire takes the buffer only if it is free right now.
func (a *Arbiter) TryAcquire(holder string) (*Lease, error) {
	if !a.sem.TryAcquire(1) {
		return nil, a.contended(holder)
	}
	return a.grant(holder), nil
}

// With runs fn while holding the buffer and releases it on every path.
func (a *Arbiter) With(ctx context.Context, holder string, fn func(*Staging) error) error {
	lease, err := a.Acquire(ctx, holder)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease.Buffer())
}

// Holder names the current lease owner, or "" when the buffer is free.
func (a *Arbiter) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder
}

// Size is the staging buffer capacity.
func (a *Arbiter) Size() int {
	return a.buf.Cap()
}

func (a *Arbiter) grant(holder string) *Lease {
	a.mu.Lock()
	a.holder = holder
	a.mu.Unlock()
	a.buf.Reset()
	return &Lease{arbiter: a, buf: a.buf}
}

func (a *Arbiter) contended(holder string) error {
	if a.logger != nil {
		a.logger.Debug("staging buffer busy", "want", holder, "held_by", a.Holder())
	}
	return ErrLockUnavailable
}

func (a *Arbiter) release() {
	a.buf.Reset()
	a.mu.Lock()
	a.holder = ""
	a.mu.Unlock()
	a.sem.Release(1)
}

// Lease is exclusive use of the staging buffer. Release is idempotent.
type Lease struct {
	arbiter *Arbiter
	buf     *Staging
	once    sync.Once
}

func (l *Lease) Buffer() *Staging {
	return l.buf
}

func (l *Lease) Release() {
	l.once.Do(l.arbiter.release)
}
