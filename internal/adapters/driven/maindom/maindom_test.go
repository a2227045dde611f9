package maindom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestFileLock_ExclusiveAcrossHandles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewFileLock(dir)
	require.NoError(t, first.Acquire(ctx))
	assert.True(t, first.IsMain())
	require.NoError(t, first.Acquire(ctx), "re-acquiring is a no-op")

	// flock locks belong to the open file description, so a second
	// handle in the same process contends like another process would.
	second := NewFileLock(dir)
	err := second.Acquire(ctx)
	assert.ErrorIs(t, err, domain.ErrNotMainDom)
	assert.False(t, second.IsMain())

	require.NoError(t, first.Release())
	assert.False(t, first.IsMain())

	require.NoError(t, second.Acquire(ctx))
	assert.True(t, second.IsMain())
	require.NoError(t, second.Release())
}

func TestFileLock_ReleaseWithoutAcquire(t *testing.T) {
	assert.NoError(t, NewFileLock(t.TempDir()).Release())
}

func TestFileLock_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lock := NewFileLock(t.TempDir())
	assert.ErrorIs(t, lock.Acquire(ctx), context.Canceled)
}

func TestLocal_Group(t *testing.T) {
	ctx := context.Background()
	group := &Group{}
	a := NewLocal(group)
	b := NewLocal(group)

	require.NoError(t, a.Acquire(ctx))
	assert.ErrorIs(t, b.Acquire(ctx), domain.ErrNotMainDom)

	require.NoError(t, a.Release())
	require.NoError(t, b.Acquire(ctx))
	assert.True(t, b.IsMain())
	assert.False(t, a.IsMain())
}

func TestLocal_PrivateGroup(t *testing.T) {
	l := NewLocal(nil)
	require.NoError(t, l.Acquire(context.Background()))
	assert.True(t, l.IsMain())
}
