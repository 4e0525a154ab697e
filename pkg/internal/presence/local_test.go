package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryPutGet(t *testing.T) {
	ctx := context.Background()
	dir := NewLocal("proc-a", time.Minute)

	require.NoError(t, dir.Put(ctx, 1, "sock-1"))

	records, err := dir.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sock-1", records[0].SocketID)
	assert.Equal(t, "proc-a", records[0].ProcessID)

	online, err := dir.ListOnline(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, online)
}

func TestDirectoryMultiSocketSurvivesOneDisconnect(t *testing.T) {
	ctx := context.Background()
	dir := NewLocal("proc-a", time.Minute)

	// Two tabs: the user stays online while either socket remains.
	require.NoError(t, dir.Put(ctx, 1, "sock-1"))
	require.NoError(t, dir.Put(ctx, 1, "sock-2"))
	require.NoError(t, dir.Remove(ctx, 1, "sock-1"))

	records, err := dir.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sock-2", records[0].SocketID)

	require.NoError(t, dir.Remove(ctx, 1, "sock-2"))
	records, err = dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDirectoryRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := NewLocal("proc-a", time.Minute)

	require.NoError(t, dir.Remove(ctx, 42, "missing"))
	require.NoError(t, dir.Put(ctx, 42, "sock-1"))
	require.NoError(t, dir.Remove(ctx, 42, "sock-1"))
	require.NoError(t, dir.Remove(ctx, 42, "sock-1"))

	records, err := dir.Get(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDirectoryTTLReclaimsLostSockets(t *testing.T) {
	ctx := context.Background()
	dir := NewLocal("proc-a", 20*time.Millisecond)

	require.NoError(t, dir.Put(ctx, 1, "sock-1"))
	time.Sleep(40 * time.Millisecond)

	// No Remove was ever issued, the TTL alone reclaims the entry.
	records, err := dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)

	online, err := dir.ListOnline(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestDirectoryTouchRefreshes(t *testing.T) {
	ctx := context.Background()
	dir := NewLocal("proc-a", 50*time.Millisecond)

	require.NoError(t, dir.Put(ctx, 1, "sock-1"))
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		require.NoError(t, dir.Touch(ctx, 1, "sock-1"))
	}

	records, err := dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDirectoryClearProcess(t *testing.T) {
	ctx := context.Background()
	dir := NewLocal("proc-a", time.Minute)

	require.NoError(t, dir.Put(ctx, 1, "sock-1"))
	require.NoError(t, dir.Put(ctx, 2, "sock-2"))
	require.NoError(t, dir.ClearProcess(ctx))

	online, err := dir.ListOnline(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)
}
