package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/server/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

var tracer = otel.Tracer("organlink/auth")

// Gate bounds how many bcrypt operations run at once and how long a caller
// waits for one. A caller that times out gets common.ErrTransient; the
// bcrypt call it started still runs to completion and holds its slot until
// then, and its result is discarded.
type Gate struct {
	codec   PasswordCodec
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewGate wraps codec. concurrency < 1 is treated as 1; timeout <= 0 means
// callers wait as long as their context allows.
func NewGate(codec PasswordCodec, concurrency int, timeout time.Duration) *Gate {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Gate{codec: codec, sem: semaphore.NewWeighted(int64(concurrency)), timeout: timeout}
}

// Hash hashes plaintext once a slot is free.
func (g *Gate) Hash(ctx context.Context, plaintext string) (string, error) {
	var (
		hash string
		err  error
	)
	if gateErr := g.run(ctx, metrics.OpHash, func() { hash, err = g.codec.Hash(plaintext) }); gateErr != nil {
		return "", gateErr
	}
	return hash, err
}

// Verify compares plaintext with hash once a slot is free.
func (g *Gate) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var ok bool
	if err := g.run(ctx, metrics.OpVerify, func() { ok = g.codec.Verify(plaintext, hash) }); err != nil {
		return false, err
	}
	return ok, nil
}

// DummyHash returns the dummy hash of the wrapped codec.
func (g *Gate) DummyHash() string {
	return g.codec.DummyHash()
}

func (g *Gate) run(ctx context.Context, op string, fn func()) (err error) {
	ctx, span := tracer.Start(ctx, "password."+op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	queued := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		metrics.RecordHashGateRejection(op, "wait")
		return fmt.Errorf("%w: password %s: waiting for slot: %v", common.ErrTransient, op, err)
	}
	span.SetAttributes(attribute.Int64("password.queued_ms", time.Since(queued).Milliseconds()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer g.sem.Release(1)
		start := time.Now()
		fn()
		metrics.RecordPasswordHash(op, time.Since(start))
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		metrics.RecordHashGateRejection(op, "run")
		return fmt.Errorf("%w: password %s: %v", common.ErrTransient, op, ctx.Err())
	}
}
