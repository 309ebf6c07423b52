package bolt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFutureResolve(t *testing.T) {
	f := newInitFuture()
	f.resolve(serverVersion{major: 3, minor: 2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.wait(ctx))
	assert.Equal(t, serverVersion{major: 3, minor: 2}, f.version)
}

func TestInitFutureReject(t *testing.T) {
	f := newInitFuture()
	boom := errors.New("boom")
	f.reject(boom)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Equal(t, boom, f.wait(ctx))
}

func TestInitFutureFirstSettleWins(t *testing.T) {
	f := newInitFuture()
	f.resolve(serverVersion{major: 3})
	f.reject(errors.New("too late"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.wait(ctx))
}

func TestInitFutureDeferredRejectionDoesNotPanicBeforeWait(t *testing.T) {
	f := newInitFuture()
	assert.NotPanics(t, func() {
		f.reject(errors.New("nobody is waiting yet"))
	})
}

func TestInitFutureWaitRespectsContext(t *testing.T) {
	f := newInitFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.wait(ctx), context.DeadlineExceeded)
}
